package parser

import (
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"strings"
)

// DeclKind classifies a top-level Go declaration
type DeclKind string

const (
	KindFunction  DeclKind = "function"
	KindMethod    DeclKind = "method"
	KindStruct    DeclKind = "struct"
	KindInterface DeclKind = "interface"
	KindType      DeclKind = "type"
)

// IsType reports whether the declaration introduces a named type
func (k DeclKind) IsType() bool {
	return k == KindStruct || k == KindInterface || k == KindType
}

// Declaration is a top-level function, method or type with its exact line span.
// StartLine includes the leading doc comment when there is one.
type Declaration struct {
	Name      string
	Kind      DeclKind
	Receiver  string
	Signature string
	StartLine int
	EndLine   int
}

// Result holds everything extracted from one Go source file
type Result struct {
	PackageName  string
	Declarations []Declaration
	Errors       []string
}

// HasErrors reports whether parsing hit syntax errors
func (r *Result) HasErrors() bool {
	return len(r.Errors) > 0
}

// Parser handles AST-based parsing of Go source files
type Parser struct {
	fset *token.FileSet
}

// New creates a new Parser instance
func New() *Parser {
	return &Parser{
		fset: token.NewFileSet(),
	}
}

// ParseSource parses Go source held in memory and extracts top-level declarations.
// Syntax errors are recorded in Result.Errors; whatever partial AST the parser
// recovered is still walked.
func (p *Parser) ParseSource(filename string, content []byte) (*Result, error) {
	if len(content) == 0 {
		return nil, fmt.Errorf("parse %s: empty source", filename)
	}

	result := &Result{}

	file, err := parser.ParseFile(p.fset, filename, content, parser.ParseComments)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("syntax error: %v", err))
	}

	if file == nil {
		return result, nil
	}

	if file.Name != nil {
		result.PackageName = file.Name.Name
	}

	extractor := &declExtractor{fset: p.fset}
	for _, decl := range file.Decls {
		switch d := decl.(type) {
		case *ast.FuncDecl:
			extractor.extractFunction(d)
		case *ast.GenDecl:
			extractor.extractGenDecl(d)
		}
	}
	result.Declarations = extractor.decls

	return result, nil
}

// declExtractor collects declarations from the top level of a file
type declExtractor struct {
	fset  *token.FileSet
	decls []Declaration
}

// extractFunction extracts function and method declarations
func (e *declExtractor) extractFunction(funcDecl *ast.FuncDecl) {
	if funcDecl.Name == nil {
		return
	}

	decl := Declaration{
		Name:      funcDecl.Name.Name,
		Signature: e.extractFunctionSignature(funcDecl),
		StartLine: e.startLine(funcDecl.Doc, funcDecl.Pos()),
		EndLine:   e.line(funcDecl.End()),
	}

	if funcDecl.Recv != nil && len(funcDecl.Recv.List) > 0 {
		decl.Kind = KindMethod
		decl.Receiver = e.extractReceiverType(funcDecl.Recv.List[0].Type)
	} else {
		decl.Kind = KindFunction
	}

	e.decls = append(e.decls, decl)
}

// extractGenDecl extracts type declarations; const and var blocks are left to windowing
func (e *declExtractor) extractGenDecl(genDecl *ast.GenDecl) {
	if genDecl.Tok != token.TYPE {
		return
	}

	for _, spec := range genDecl.Specs {
		typeSpec, ok := spec.(*ast.TypeSpec)
		if !ok {
			continue
		}

		doc := typeSpec.Doc
		start := typeSpec.Pos()
		end := typeSpec.End()
		// A lone "type X struct{}" owns the whole GenDecl including its doc
		if !genDecl.Lparen.IsValid() {
			doc = genDecl.Doc
			start = genDecl.Pos()
			end = genDecl.End()
		}

		decl := Declaration{
			Name:      typeSpec.Name.Name,
			StartLine: e.startLine(doc, start),
			EndLine:   e.line(end),
		}

		switch typeSpec.Type.(type) {
		case *ast.StructType:
			decl.Kind = KindStruct
			decl.Signature = fmt.Sprintf("type %s struct", typeSpec.Name.Name)
		case *ast.InterfaceType:
			decl.Kind = KindInterface
			decl.Signature = fmt.Sprintf("type %s interface", typeSpec.Name.Name)
		default:
			decl.Kind = KindType
			decl.Signature = fmt.Sprintf("type %s %s", typeSpec.Name.Name, exprToString(typeSpec.Type))
		}

		e.decls = append(e.decls, decl)
	}
}

// extractReceiverType extracts the receiver type name from a method
func (e *declExtractor) extractReceiverType(expr ast.Expr) string {
	switch t := expr.(type) {
	case *ast.StarExpr:
		return e.extractReceiverType(t.X)
	case *ast.Ident:
		return t.Name
	case *ast.IndexExpr:
		return e.extractReceiverType(t.X)
	case *ast.IndexListExpr:
		return e.extractReceiverType(t.X)
	}
	return ""
}

// extractFunctionSignature builds a function signature string
func (e *declExtractor) extractFunctionSignature(funcDecl *ast.FuncDecl) string {
	var sig strings.Builder

	sig.WriteString("func ")

	if funcDecl.Recv != nil && len(funcDecl.Recv.List) > 0 {
		sig.WriteString("(")
		sig.WriteString(exprToString(funcDecl.Recv.List[0].Type))
		sig.WriteString(") ")
	}

	sig.WriteString(funcDecl.Name.Name)

	sig.WriteString("(")
	if funcDecl.Type.Params != nil {
		sig.WriteString(fieldListToString(funcDecl.Type.Params))
	}
	sig.WriteString(")")

	if funcDecl.Type.Results != nil {
		results := fieldListToString(funcDecl.Type.Results)
		if results != "" {
			if funcDecl.Type.Results.NumFields() > 1 {
				sig.WriteString(" (")
				sig.WriteString(results)
				sig.WriteString(")")
			} else {
				sig.WriteString(" ")
				sig.WriteString(results)
			}
		}
	}

	return sig.String()
}

func (e *declExtractor) startLine(doc *ast.CommentGroup, pos token.Pos) int {
	if doc != nil && doc.Pos().IsValid() {
		return e.line(doc.Pos())
	}
	return e.line(pos)
}

func (e *declExtractor) line(pos token.Pos) int {
	return e.fset.Position(pos).Line
}

// fieldListToString converts a field list to a string representation
func fieldListToString(fieldList *ast.FieldList) string {
	if fieldList == nil || len(fieldList.List) == 0 {
		return ""
	}

	var parts []string
	for _, field := range fieldList.List {
		typeStr := exprToString(field.Type)
		if len(field.Names) > 0 {
			for _, name := range field.Names {
				parts = append(parts, fmt.Sprintf("%s %s", name.Name, typeStr))
			}
		} else {
			parts = append(parts, typeStr)
		}
	}

	return strings.Join(parts, ", ")
}

// exprToString converts an expression to a string representation
func exprToString(expr ast.Expr) string {
	if expr == nil {
		return ""
	}

	switch t := expr.(type) {
	case *ast.Ident:
		return t.Name
	case *ast.StarExpr:
		return "*" + exprToString(t.X)
	case *ast.ArrayType:
		return "[]" + exprToString(t.Elt)
	case *ast.MapType:
		return fmt.Sprintf("map[%s]%s", exprToString(t.Key), exprToString(t.Value))
	case *ast.ChanType:
		return "chan " + exprToString(t.Value)
	case *ast.FuncType:
		return "func(...)"
	case *ast.InterfaceType:
		return "interface{}"
	case *ast.SelectorExpr:
		return exprToString(t.X) + "." + t.Sel.Name
	case *ast.Ellipsis:
		return "..." + exprToString(t.Elt)
	case *ast.IndexExpr:
		return exprToString(t.X) + "[" + exprToString(t.Index) + "]"
	default:
		return "..."
	}
}
