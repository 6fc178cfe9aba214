// Package parse extracts declaration records from Python source using tree-sitter.
package parse

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/phobologic/pyscope/internal/lang"
	"github.com/phobologic/pyscope/internal/model"
)

// Options controls which nodes the extractor buckets.
type Options struct {
	// TopLevelOnly restricts records to module-level declarations.
	// By default every node of the tree is visited, so methods, nested
	// functions and statements inside bodies are reported too.
	TopLevelOnly bool
}

// ParseError reports source text that the grammar rejects.
// Line and Column are 1-based; File is filled in by callers that know it.
type ParseError struct {
	File    string
	Line    int
	Column  int
	Message string
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	if e.File != "" {
		return fmt.Sprintf("%s:%d:%d: %s", e.File, e.Line, e.Column, e.Message)
	}
	return fmt.Sprintf("%d:%d: %s", e.Line, e.Column, e.Message)
}

// Extract parses source once and buckets its declarations into functions,
// classes, imports and statements, each in breadth-first tree order.
// It returns a *ParseError, and no structure, if the source does not parse
// cleanly.
func Extract(source []byte, opts Options) (*model.Structure, error) {
	s := &model.Structure{TotalLines: CountLines(source)}
	if len(source) == 0 {
		return s, nil
	}

	l := lang.Languages[lang.Python]
	parser := l.NewParser()
	defer parser.Close()

	tree, err := parser.ParseCtx(context.Background(), nil, source)
	if err != nil {
		return nil, &ParseError{Line: 1, Column: 1, Message: err.Error()}
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.HasError() {
		return nil, locateError(root, source)
	}
	if pe := validate(root, source); pe != nil {
		return nil, pe
	}

	e := &extractor{lang: l, source: source, out: s}
	if opts.TopLevelOnly {
		for i := 0; i < int(root.NamedChildCount()); i++ {
			e.visit(l.Unwrap(root.NamedChild(i)))
		}
	} else {
		walk(root, e.visit)
	}
	return s, nil
}

// CountLines returns the number of lines in source, splitting on the same
// boundaries as Python's str.splitlines: \n, \r, \r\n, \v, \f, the
// file/group/record separators, NEL and the Unicode line and paragraph
// separators. A trailing boundary does not start a new line and empty input
// has no lines.
func CountLines(source []byte) int {
	n := 0
	open := false
	for i := 0; i < len(source); {
		r, size := utf8.DecodeRune(source[i:])
		i += size
		switch r {
		case '\r':
			if i < len(source) && source[i] == '\n' {
				i++
			}
			n++
			open = false
		case '\n', '\v', '\f', 0x1c, 0x1d, 0x1e, 0x85, 0x2028, 0x2029:
			n++
			open = false
		default:
			open = true
		}
	}
	if open {
		n++
	}
	return n
}

type extractor struct {
	lang   *lang.Language
	source []byte
	out    *model.Structure
}

func (e *extractor) visit(n *sitter.Node) {
	switch n.Type() {
	case "function_definition":
		e.out.Functions = append(e.out.Functions, model.Record{
			Kind:         model.Function,
			Name:         e.lang.DefinitionName(n, e.source),
			StartLine:    startLine(n),
			EndLine:      model.Line(endLine(n)),
			Async:        e.lang.IsAsync(n),
			Dependencies: e.dependencies(n),
		})
	case "class_definition":
		e.out.Classes = append(e.out.Classes, model.Record{
			Kind:      model.Class,
			Name:      e.lang.DefinitionName(n, e.source),
			StartLine: startLine(n),
			EndLine:   model.Line(endLine(n)),
			Methods:   e.lang.ClassMethods(n, e.source),
		})
	case "import_statement", "import_from_statement", "future_import_statement":
		e.out.Imports = append(e.out.Imports, model.Record{
			Kind:      model.Import,
			Name:      lang.CollapseWhitespace(lang.NodeText(n, e.source)),
			StartLine: startLine(n),
		})
	case "expression_statement":
		if !isPlainStatement(n) {
			return
		}
		e.out.Statements = append(e.out.Statements, model.Record{
			Kind:      model.Statement,
			Name:      lang.CollapseWhitespace(lang.NodeText(n, e.source)),
			StartLine: startLine(n),
		})
	}
}

// dependencies returns the callee names of every call in fn's subtree whose
// callee is a bare identifier, followed by those in its decorators.
// Duplicates are kept.
func (e *extractor) dependencies(fn *sitter.Node) []string {
	deps := []string{}
	collect := func(n *sitter.Node) {
		if n.Type() != "call" {
			return
		}
		callee := n.ChildByFieldName("function")
		if callee != nil && callee.Type() == "identifier" {
			deps = append(deps, lang.NodeText(callee, e.source))
		}
	}

	walk(fn, collect)
	if p := fn.Parent(); p != nil && p.Type() == "decorated_definition" {
		for i := 0; i < int(p.NamedChildCount()); i++ {
			if d := p.NamedChild(i); d.Type() == "decorator" {
				walk(d, collect)
			}
		}
	}
	return deps
}

// isPlainStatement accepts bare expressions and plain assignments.
// Augmented (x += 1) and annotated (x: int = 1) assignments are skipped.
func isPlainStatement(n *sitter.Node) bool {
	if n.NamedChildCount() == 0 {
		return false
	}
	inner := n.NamedChild(0)
	switch inner.Type() {
	case "augmented_assignment":
		return false
	case "assignment":
		return inner.ChildByFieldName("type") == nil
	}
	return true
}

// walk visits root and all of its named descendants breadth-first.
func walk(root *sitter.Node, visit func(*sitter.Node)) {
	queue := []*sitter.Node{root}
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		visit(n)
		for i := 0; i < int(n.NamedChildCount()); i++ {
			queue = append(queue, n.NamedChild(i))
		}
	}
}

func startLine(n *sitter.Node) int {
	return int(n.StartPoint().Row) + 1
}

// endLine is the last line holding text of n. A node that ends at column 0
// stops at the end of the previous line.
func endLine(n *sitter.Node) int {
	end := n.EndPoint()
	line := int(end.Row) + 1
	if end.Column == 0 && end.Row > n.StartPoint().Row {
		line--
	}
	return line
}

// locateError finds the first ERROR or MISSING node in document order.
func locateError(root *sitter.Node, source []byte) *ParseError {
	var found *sitter.Node
	var find func(n *sitter.Node) bool
	find = func(n *sitter.Node) bool {
		if n.Type() == "ERROR" || n.IsMissing() {
			found = n
			return true
		}
		if !n.HasError() {
			return false
		}
		for i := 0; i < int(n.ChildCount()); i++ {
			if find(n.Child(i)) {
				return true
			}
		}
		return false
	}
	if !find(root) {
		return &ParseError{Line: 1, Column: 1, Message: "invalid syntax"}
	}

	pt := found.StartPoint()
	pe := &ParseError{Line: int(pt.Row) + 1, Column: int(pt.Column) + 1}
	if found.IsMissing() {
		pe.Message = fmt.Sprintf("invalid syntax: missing %q", found.Type())
		return pe
	}
	near := lang.NodeText(found, source)
	if i := strings.IndexByte(near, '\n'); i >= 0 {
		near = near[:i]
	}
	near = strings.TrimSpace(near)
	if len(near) > 40 {
		near = near[:40] + "..."
	}
	if near == "" {
		pe.Message = "invalid syntax"
	} else {
		pe.Message = fmt.Sprintf("invalid syntax near %q", near)
	}
	return pe
}
