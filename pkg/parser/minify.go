package parser

import (
	"bytes"

	ts "github.com/tree-sitter/go-tree-sitter"
)

// atomicKinds are emitted verbatim: their inner whitespace is significant.
var atomicKinds = map[string]bool{
	"string":          true,
	"template_string": true,
	"jsx_text":        true,
	"regex":           true,
}

// Minify renders the token stream of a source file with comments removed and
// every run of layout whitespace collapsed to one space. Two files that differ
// only in formatting or comments minify to the same bytes.
//
// Trees with syntax errors are minified as-is; ERROR nodes keep their tokens.
func (pm *ParserManager) Minify(source []byte, filePath string) ([]byte, error) {
	tree, err := pm.ParseFile(source, filePath)
	if err != nil {
		return nil, err
	}
	defer tree.Close()

	var buf bytes.Buffer
	buf.Grow(len(source))
	writeTokens(&buf, tree.RootNode(), source)
	return buf.Bytes(), nil
}

func writeTokens(buf *bytes.Buffer, root *ts.Node, source []byte) {
	cursor := root.Walk()
	defer cursor.Close()

	for {
		node := cursor.Node()
		kind := node.Kind()

		descend := false
		switch {
		case kind == "comment" || kind == "html_comment":
		case atomicKinds[kind] || node.ChildCount() == 0:
			if node.EndByte() > node.StartByte() {
				if buf.Len() > 0 {
					buf.WriteByte(' ')
				}
				buf.Write(source[node.StartByte():node.EndByte()])
			}
		default:
			descend = true
		}

		if descend && cursor.GotoFirstChild() {
			continue
		}
		for !cursor.GotoNextSibling() {
			if !cursor.GotoParent() {
				return
			}
		}
	}
}
