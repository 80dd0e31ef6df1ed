// Package parser extracts top-level declarations and their exact line spans from
// Go source using go/parser and go/ast.
//
// The chunker uses these spans to cut Go files into function, method and type
// chunks instead of relying on regular expressions.
//
// # Basic Usage
//
//	p := parser.New()
//	result, err := p.ParseSource("handler.go", content)
//	if err != nil {
//	    return err
//	}
//
//	for _, decl := range result.Declarations {
//	    fmt.Printf("%s %s lines %d-%d\n", decl.Kind, decl.Name, decl.StartLine, decl.EndLine)
//	}
//
// # Error Handling
//
// Syntax errors are not returned as errors. They are recorded on the result:
//
//	if result.HasErrors() {
//	    // fall back to a heuristic strategy
//	}
//
// Declarations recovered from the partial AST are still reported.
package parser
