// Package queries provides tree-sitter query compilation, caching, and execution.
package queries

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"

	ts "github.com/tree-sitter/go-tree-sitter"

	"github.com/gnana997/nextscope/pkg/parser"
	"github.com/gnana997/nextscope/pkg/parser/queries/exports"
	"github.com/gnana997/nextscope/pkg/parser/queries/imports"
)

// QueryType identifies which query to execute.
type QueryType int

const (
	// QueryTypeExports extracts exported names (HTTP method handlers, data loaders)
	QueryTypeExports QueryType = iota
	// QueryTypeImports extracts module specifiers of imports and re-exports
	QueryTypeImports
)

// String returns the string representation of a QueryType.
func (qt QueryType) String() string {
	switch qt {
	case QueryTypeExports:
		return "exports"
	case QueryTypeImports:
		return "imports"
	default:
		return "unknown"
	}
}

// queryKey uniquely identifies a compiled query (grammar + type).
type queryKey struct {
	grammar parser.Grammar
	qtype   QueryType
}

// QueryManager compiles queries lazily, once per grammar, and caches them.
//
// Usage:
//
//	qm := NewQueryManager(logger)
//	defer qm.Close()
//
//	query, err := qm.GetQuery(parser.GrammarTSX, QueryTypeExports)
//	if err != nil {
//	    return err
//	}
//	matches, err := qm.ExecuteQuery(tree, query, source)
type QueryManager struct {
	cache  map[queryKey]*ts.Query
	mutex  sync.RWMutex
	logger *slog.Logger
}

// NewQueryManager creates a new query manager. Logger can be nil.
func NewQueryManager(logger *slog.Logger) *QueryManager {
	if logger == nil {
		logger = slog.Default()
	}

	return &QueryManager{
		cache:  make(map[queryKey]*ts.Query),
		logger: logger,
	}
}

// GetQuery returns a compiled query for the grammar and type.
//
// The grammar must be the one the tree was parsed with: TypeScript and TSX
// assign different symbol ids to the same node kinds.
func (qm *QueryManager) GetQuery(grammar parser.Grammar, qtype QueryType) (*ts.Query, error) {
	key := queryKey{grammar: grammar, qtype: qtype}

	qm.mutex.RLock()
	query, exists := qm.cache[key]
	qm.mutex.RUnlock()
	if exists {
		return query, nil
	}

	qm.mutex.Lock()
	defer qm.mutex.Unlock()

	if query, exists = qm.cache[key]; exists {
		return query, nil
	}

	queryString, err := queryString(grammar, qtype)
	if err != nil {
		return nil, err
	}

	langPtr, err := parser.GetLanguagePointer(grammar)
	if err != nil {
		return nil, fmt.Errorf("failed to get language pointer for %s: %w", grammar, err)
	}

	query, qerr := ts.NewQuery(ts.NewLanguage(langPtr), queryString)
	if qerr != nil {
		return nil, fmt.Errorf("failed to compile %s query for %s: %s", qtype, grammar, qerr.Message)
	}
	qm.cache[key] = query

	qm.logger.Debug("compiled query",
		"grammar", grammar.String(),
		"type", qtype.String())

	return query, nil
}

func queryString(grammar parser.Grammar, qtype QueryType) (string, error) {
	switch qtype {
	case QueryTypeExports:
		switch grammar {
		case parser.GrammarJavaScript:
			return exports.JSQueries, nil
		case parser.GrammarTypeScript, parser.GrammarTSX:
			return exports.TSQueries, nil
		}
	case QueryTypeImports:
		if grammar != parser.GrammarUnknown {
			return imports.Queries, nil
		}
	default:
		return "", fmt.Errorf("unknown query type: %d", qtype)
	}
	return "", fmt.Errorf("unsupported grammar for %s queries: %s", qtype, grammar)
}

// ExecuteQuery runs a compiled query on a parse tree and returns structured matches.
func (qm *QueryManager) ExecuteQuery(tree *ts.Tree, query *ts.Query, source []byte) ([]QueryMatch, error) {
	if tree == nil {
		return nil, fmt.Errorf("tree is nil")
	}
	if query == nil {
		return nil, fmt.Errorf("query is nil")
	}

	cursor := ts.NewQueryCursor()
	defer cursor.Close()

	iter := cursor.Matches(query, tree.RootNode(), source)
	captureNames := query.CaptureNames()

	var matches []QueryMatch
	for {
		match := iter.Next()
		if match == nil {
			break
		}

		captures := make([]QueryCapture, 0, len(match.Captures))
		for _, capture := range match.Captures {
			var name string
			if int(capture.Index) < len(captureNames) {
				name = captureNames[capture.Index]
			}
			category, field := parseCaptureName(name)

			node := capture.Node
			captures = append(captures, QueryCapture{
				Name:     name,
				Category: category,
				Field:    field,
				Node:     &node,
				Text:     node.Utf8Text(source),
				Line:     uint32(node.StartPosition().Row + 1),
			})
		}

		matches = append(matches, QueryMatch{
			PatternIndex: uint32(match.PatternIndex),
			Captures:     captures,
		})
	}

	return matches, nil
}

// Close releases all compiled queries.
func (qm *QueryManager) Close() error {
	qm.mutex.Lock()
	defer qm.mutex.Unlock()

	qm.logger.Debug("closing QueryManager", "queries_compiled", len(qm.cache))

	for key, query := range qm.cache {
		if query != nil {
			query.Close()
		}
		delete(qm.cache, key)
	}
	return nil
}

// QueryMatch represents a single pattern match from query execution.
type QueryMatch struct {
	PatternIndex uint32
	Captures     []QueryCapture
}

// Capture returns the first capture with the given full name.
func (m QueryMatch) Capture(name string) (QueryCapture, bool) {
	for _, c := range m.Captures {
		if c.Name == name {
			return c, true
		}
	}
	return QueryCapture{}, false
}

// QueryCapture represents a single captured node from a query match.
type QueryCapture struct {
	// Name is the full capture name (e.g., "export.name")
	Name string

	// Category is the part before the dot (e.g., "export")
	Category string

	// Field is the part after the dot (e.g., "name"); empty if there is none
	Field string

	// Node is the captured node; valid while the tree is open
	Node *ts.Node

	// Text is the source text of the captured node
	Text string

	// Line is the 1-based start line
	Line uint32
}

// parseCaptureName splits "export.name" into ("export", "name").
func parseCaptureName(name string) (category, field string) {
	parts := strings.SplitN(name, ".", 2)
	if len(parts) == 2 {
		return parts[0], parts[1]
	}
	return name, ""
}
