package parser

import (
	"fmt"

	ts "github.com/tree-sitter/go-tree-sitter"
)

// ParseError reports a source file the grammar could not parse cleanly.
//
// Line and Column are 1-based and point at the first ERROR or MISSING node.
type ParseError struct {
	Path   string
	Line   uint
	Column uint

	// Missing is set when the parser inserted a token that was absent
	// (unterminated block, missing brace) rather than skipping bad input.
	Missing bool
}

func (e *ParseError) Error() string {
	kind := "syntax error"
	if e.Missing {
		kind = "missing token"
	}
	return fmt.Sprintf("failed to parse %s: %s at %d:%d", e.Path, kind, e.Line, e.Column)
}

// firstErrorNode returns the first ERROR or MISSING node in document order.
func firstErrorNode(root *ts.Node) *ts.Node {
	if root == nil || !root.HasError() {
		return nil
	}

	cursor := root.Walk()
	defer cursor.Close()

	for {
		node := cursor.Node()
		if node.IsError() || node.IsMissing() {
			return node
		}

		// Only descend into subtrees that contain the error.
		if node.HasError() && cursor.GotoFirstChild() {
			continue
		}
		for !cursor.GotoNextSibling() {
			if !cursor.GotoParent() {
				return nil
			}
		}
	}
}

func newParseError(path string, root *ts.Node) *ParseError {
	errNode := firstErrorNode(root)
	if errNode == nil {
		return &ParseError{Path: path, Line: 1, Column: 1}
	}
	pos := errNode.StartPosition()
	return &ParseError{
		Path:    path,
		Line:    pos.Row + 1,
		Column:  pos.Column + 1,
		Missing: errNode.IsMissing(),
	}
}
