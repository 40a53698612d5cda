package parser

import (
	"path/filepath"
	"strings"
)

// Grammar is the tree-sitter grammar a source file is parsed with.
//
// TypeScript and TSX are distinct grammars with distinct node symbol tables:
// a tree produced by one must only be queried with queries compiled for the
// same grammar.
type Grammar int

const (
	// GrammarJavaScript covers .js, .jsx, .mjs and .cjs (JSX is always enabled).
	GrammarJavaScript Grammar = iota
	// GrammarTypeScript covers .ts, .mts and .cts.
	GrammarTypeScript
	// GrammarTSX covers .tsx.
	GrammarTSX
	// GrammarUnknown is any unsupported file.
	GrammarUnknown
)

// String returns the string representation of the grammar.
func (g Grammar) String() string {
	switch g {
	case GrammarJavaScript:
		return "javascript"
	case GrammarTypeScript:
		return "typescript"
	case GrammarTSX:
		return "tsx"
	default:
		return "unknown"
	}
}

// DetectGrammar picks the grammar from a file path's extension.
// Returns GrammarUnknown if the extension is not recognized.
func DetectGrammar(filePath string) Grammar {
	switch strings.ToLower(filepath.Ext(filePath)) {
	case ".ts", ".mts", ".cts":
		return GrammarTypeScript
	case ".tsx":
		return GrammarTSX
	case ".js", ".jsx", ".mjs", ".cjs":
		return GrammarJavaScript
	default:
		return GrammarUnknown
	}
}

// IsSourceFile reports whether the path has a parseable extension.
func IsSourceFile(filePath string) bool {
	return DetectGrammar(filePath) != GrammarUnknown
}

// SupportedGrammars returns all grammars the parser manager can load.
func SupportedGrammars() []Grammar {
	return []Grammar{
		GrammarJavaScript,
		GrammarTypeScript,
		GrammarTSX,
	}
}
