package types

import (
	"encoding/json"
	"fmt"
	"strings"
)

// MetadataType discriminates the metadata variants attached to a Document
type MetadataType string

const (
	MetadataCode    MetadataType = "code"
	MetadataDoc     MetadataType = "doc"
	MetadataComment MetadataType = "comment"
)

// LineRange is a 1-based inclusive span of lines. The zero value means "no range".
type LineRange struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// IsZero reports whether the range is absent
func (r LineRange) IsZero() bool {
	return r.Start == 0 && r.End == 0
}

// Validate checks that a present range is well formed
func (r LineRange) Validate() error {
	if r.IsZero() {
		return nil
	}
	if r.Start <= 0 || r.End <= 0 {
		return ErrInvalidLineRange
	}
	if r.Start > r.End {
		return ErrInvalidLineRange
	}
	return nil
}

// String renders the range as "start-end"
func (r LineRange) String() string {
	if r.IsZero() {
		return ""
	}
	if r.Start == r.End {
		return fmt.Sprintf("%d", r.Start)
	}
	return fmt.Sprintf("%d-%d", r.Start, r.End)
}

// Metadata is the closed set of metadata variants a Document can carry.
// Only the types in this package implement it.
type Metadata interface {
	Type() MetadataType
	Path() string
	Range() LineRange
	Validate() error
	isMetadata()
}

// CodeMetadata describes a chunk of source code
type CodeMetadata struct {
	FilePath     string    `json:"filepath"`
	Language     string    `json:"language,omitempty"`
	Lines        LineRange `json:"lines,omitempty"`
	FunctionName string    `json:"function_name,omitempty"`
	ClassName    string    `json:"class_name,omitempty"`
}

func (m CodeMetadata) Type() MetadataType { return MetadataCode }
func (m CodeMetadata) Path() string       { return m.FilePath }
func (m CodeMetadata) Range() LineRange   { return m.Lines }
func (CodeMetadata) isMetadata()          {}

// Validate checks required fields
func (m CodeMetadata) Validate() error {
	if strings.TrimSpace(m.FilePath) == "" {
		return ErrMissingFilePath
	}
	if m.FunctionName != "" && m.ClassName != "" {
		return fmt.Errorf("%w: both function and class name set", ErrInvalidMetadata)
	}
	return m.Lines.Validate()
}

// DocMetadata describes a chunk of prose (markdown, plain text)
type DocMetadata struct {
	FilePath string    `json:"filepath"`
	Format   string    `json:"format,omitempty"`
	Lines    LineRange `json:"lines,omitempty"`
}

func (m DocMetadata) Type() MetadataType { return MetadataDoc }
func (m DocMetadata) Path() string       { return m.FilePath }
func (m DocMetadata) Range() LineRange   { return m.Lines }
func (DocMetadata) isMetadata()          {}

// Validate checks required fields
func (m DocMetadata) Validate() error {
	if strings.TrimSpace(m.FilePath) == "" {
		return ErrMissingFilePath
	}
	return m.Lines.Validate()
}

// CommentMetadata describes a standalone block comment inside source code
type CommentMetadata struct {
	FilePath string    `json:"filepath"`
	Language string    `json:"language,omitempty"`
	Lines    LineRange `json:"lines,omitempty"`
}

func (m CommentMetadata) Type() MetadataType { return MetadataComment }
func (m CommentMetadata) Path() string       { return m.FilePath }
func (m CommentMetadata) Range() LineRange   { return m.Lines }
func (CommentMetadata) isMetadata()          {}

// Validate checks required fields
func (m CommentMetadata) Validate() error {
	if strings.TrimSpace(m.FilePath) == "" {
		return ErrMissingFilePath
	}
	return m.Lines.Validate()
}

// Document is the unit stored in the vector database
type Document struct {
	ID       string
	Content  string
	Metadata Metadata
}

// Validate performs comprehensive validation of the document
func (d *Document) Validate() error {
	if strings.TrimSpace(d.ID) == "" {
		return ErrEmptyID
	}
	if strings.TrimSpace(d.Content) == "" {
		return ErrEmptyContent
	}
	if d.Metadata == nil {
		return ErrMissingMetadata
	}
	return d.Metadata.Validate()
}

// metadataEnvelope is the wire form of Metadata: the variant's fields plus a "type" tag
type metadataEnvelope struct {
	Type         MetadataType `json:"type"`
	FilePath     string       `json:"filepath"`
	Language     string       `json:"language,omitempty"`
	Format       string       `json:"format,omitempty"`
	Lines        *LineRange   `json:"lines,omitempty"`
	FunctionName string       `json:"function_name,omitempty"`
	ClassName    string       `json:"class_name,omitempty"`
}

// EncodeMetadata validates m and serializes it to JSON with a type discriminator
func EncodeMetadata(m Metadata) ([]byte, error) {
	if m == nil {
		return nil, ErrMissingMetadata
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}

	env := metadataEnvelope{Type: m.Type(), FilePath: m.Path()}
	if r := m.Range(); !r.IsZero() {
		env.Lines = &r
	}

	switch v := m.(type) {
	case CodeMetadata:
		env.Language = v.Language
		env.FunctionName = v.FunctionName
		env.ClassName = v.ClassName
	case DocMetadata:
		env.Format = v.Format
	case CommentMetadata:
		env.Language = v.Language
	}

	return json.Marshal(env)
}

// DecodeMetadata parses JSON produced by EncodeMetadata back into its variant
func DecodeMetadata(data []byte) (Metadata, error) {
	var env metadataEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidMetadata, err)
	}

	var lines LineRange
	if env.Lines != nil {
		lines = *env.Lines
	}

	var m Metadata
	switch env.Type {
	case MetadataCode:
		m = CodeMetadata{
			FilePath:     env.FilePath,
			Language:     env.Language,
			Lines:        lines,
			FunctionName: env.FunctionName,
			ClassName:    env.ClassName,
		}
	case MetadataDoc:
		m = DocMetadata{FilePath: env.FilePath, Format: env.Format, Lines: lines}
	case MetadataComment:
		m = CommentMetadata{FilePath: env.FilePath, Language: env.Language, Lines: lines}
	default:
		return nil, fmt.Errorf("%w: unknown type %q", ErrInvalidMetadata, env.Type)
	}

	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}
