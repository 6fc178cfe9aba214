package parse

import (
	"fmt"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/phobologic/pyscope/internal/lang"
)

// reservedWords are Python 3 keywords that never name anything. Soft
// keywords and async/await are not listed; the grammar parses them as
// identifiers in valid code.
var reservedWords = map[string]struct{}{
	"and": {}, "as": {}, "assert": {}, "break": {}, "class": {}, "continue": {},
	"def": {}, "del": {}, "elif": {}, "else": {}, "except": {}, "finally": {},
	"for": {}, "from": {}, "global": {}, "if": {}, "import": {}, "in": {},
	"is": {}, "lambda": {}, "nonlocal": {}, "not": {}, "or": {}, "pass": {},
	"raise": {}, "return": {}, "try": {}, "while": {}, "with": {}, "yield": {},
}

// validate rejects trees that tree-sitter accepted through error recovery
// without leaving an ERROR node: broken indentation, Python 2 statements,
// keywords parsed as names and clauses with no statement to attach to.
// The first problem found walking the tree depth-first is returned.
func validate(root *sitter.Node, source []byte) *ParseError {
	return checkNode(root, source)
}

func checkNode(n *sitter.Node, source []byte) *ParseError {
	switch n.Type() {
	case "module":
		if pe := checkSuite(statements(n), 0); pe != nil {
			return pe
		}
	case "block":
		if pe := checkBlock(n); pe != nil {
			return pe
		}
	case "print_statement", "exec_statement":
		return errorAt(n.StartPoint(), fmt.Sprintf("invalid syntax: Python 2 %s statement",
			strings.TrimSuffix(n.Type(), "_statement")))
	case "identifier":
		word := lang.NodeText(n, source)
		if _, ok := reservedWords[word]; ok {
			return errorAt(n.StartPoint(), fmt.Sprintf("invalid syntax near %q", word))
		}
	case "else_clause", "elif_clause", "except_clause", "except_group_clause", "finally_clause":
		if p := n.Parent(); p != nil && (p.Type() == "module" || p.Type() == "block") {
			word := strings.Fields(lang.NodeText(n, source))[0]
			return errorAt(n.StartPoint(), fmt.Sprintf("invalid syntax near %q", strings.TrimSuffix(word, ":")))
		}
	}

	for i := 0; i < int(n.NamedChildCount()); i++ {
		if pe := checkNode(n.NamedChild(i), source); pe != nil {
			return pe
		}
	}
	return nil
}

// checkBlock requires a non-empty body indented past the statement that
// owns it, with every statement that opens a line at the same column.
func checkBlock(b *sitter.Node) *ParseError {
	stmts := statements(b)
	if len(stmts) == 0 {
		return errorAt(b.EndPoint(), "invalid syntax: expected an indented block")
	}

	first := stmts[0].StartPoint()
	if owner := b.Parent(); owner != nil && first.Column <= owner.StartPoint().Column {
		return errorAt(first, "invalid syntax: expected an indented block")
	}
	return checkSuite(stmts, first.Column)
}

// checkSuite requires every statement that starts a line to begin at
// column want. Statements after a semicolon share the previous line.
func checkSuite(stmts []*sitter.Node, want uint32) *ParseError {
	for i, s := range stmts {
		pt := s.StartPoint()
		if i > 0 && pt.Row == stmts[i-1].EndPoint().Row {
			continue
		}
		if pt.Column > want {
			return errorAt(pt, "invalid syntax: unexpected indent")
		}
		if pt.Column < want {
			return errorAt(pt, "invalid syntax: unindent does not match any outer indentation level")
		}
	}
	return nil
}

// statements returns the named children of n that are not comments.
func statements(n *sitter.Node) []*sitter.Node {
	var out []*sitter.Node
	for i := 0; i < int(n.NamedChildCount()); i++ {
		c := n.NamedChild(i)
		switch c.Type() {
		case "comment", "line_continuation":
			continue
		}
		out = append(out, c)
	}
	return out
}

func errorAt(pt sitter.Point, msg string) *ParseError {
	return &ParseError{Line: int(pt.Row) + 1, Column: int(pt.Column) + 1, Message: msg}
}
