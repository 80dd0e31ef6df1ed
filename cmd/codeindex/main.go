package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/dshills/codeindex-mcp/internal/app"
	"github.com/dshills/codeindex-mcp/internal/config"
	"github.com/dshills/codeindex-mcp/internal/indexer"
	"github.com/dshills/codeindex-mcp/internal/logger"
	"github.com/dshills/codeindex-mcp/internal/watcher"
)

var (
	version   = "dev"
	buildTime = "unknown"
)

type options struct {
	path       string
	force      bool
	watch      bool
	verbose    bool
	configPath string
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:           "codeindex",
		Short:         "Index a source tree for semantic code search",
		Long:          `Chunks every supported file under --path, embeds the chunks and stores them in the configured vector database. With --watch it keeps the index current as files change.`,
		Version:       fmt.Sprintf("%s (built %s)", version, buildTime),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return run(ctx, opts, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVarP(&opts.path, "path", "p", "", "project root to index (required)")
	cmd.Flags().BoolVarP(&opts.force, "force", "f", false, "clear the index before indexing")
	cmd.Flags().BoolVarP(&opts.watch, "watch", "w", false, "keep running and re-index files as they change")
	cmd.Flags().BoolVarP(&opts.verbose, "verbose", "v", false, "enable debug logging")
	cmd.Flags().StringVar(&opts.configPath, "config", "", "TOML configuration file")
	_ = cmd.MarkFlagRequired("path")

	return cmd
}

func run(ctx context.Context, opts *options, out io.Writer) error {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return err
	}
	logger.SetVerbose(opts.verbose || cfg.Verbose)

	root, err := indexer.ValidateRoot(opts.path)
	if err != nil {
		return err
	}

	a, err := app.New(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			logger.Warn("close: %v", err)
		}
	}()

	stats, err := a.Indexer.IndexProject(ctx, root, opts.force)
	if err != nil {
		return err
	}
	printStats(out, root, stats)

	if !opts.watch {
		return nil
	}

	w, err := watcher.New(root, a.Indexer)
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return w.Run(gctx)
	})
	fmt.Fprintf(out, "Watching %s for changes (Ctrl+C to stop)\n", root)

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func printStats(out io.Writer, root string, stats *indexer.Statistics) {
	fmt.Fprintf(out, "Indexed %s\n", root)
	fmt.Fprintf(out, "  run:        %s\n", stats.RunID)
	fmt.Fprintf(out, "  files:      %d indexed, %d skipped, %d failed\n",
		stats.FilesIndexed, stats.FilesSkipped, stats.FilesFailed)
	fmt.Fprintf(out, "  documents:  %d written, %d in index\n", stats.DocumentsIndexed, stats.TotalDocuments)
	fmt.Fprintf(out, "  duration:   %s\n", stats.Duration.Round(time.Millisecond))
	for _, msg := range stats.ErrorMessages {
		fmt.Fprintf(out, "  error: %s\n", msg)
	}
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
