// Package extractor detects rendering-relevant constructs in JavaScript and
// TypeScript route files: data fetching functions, segment config exports,
// server APIs, fetch cache hints and route handler methods.
package extractor

import (
	"fmt"
	"log/slog"

	"github.com/gnana997/nextscope/pkg/parser"
	"github.com/gnana997/nextscope/pkg/parser/queries"
)

// HTTPMethods are the route handler exports, in canonical order.
var HTTPMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"}

// FileAnalysis is everything extracted from one parse of a file.
type FileAnalysis struct {
	Path     string            `json:"path" yaml:"path"`
	Language string            `json:"language" yaml:"language"`
	Features *DetectedFeatures `json:"detectedFeatures" yaml:"detectedFeatures"`

	// Methods are the exported route handler methods.
	Methods []string `json:"methods" yaml:"methods"`

	// Imports are the module specifiers imported or re-exported, in source order.
	Imports []string `json:"imports,omitempty" yaml:"imports,omitempty"`
}

// Extractor parses a file once and runs the feature walk and the export and
// import queries on the same tree.
//
// Usage:
//
//	extractor := NewExtractor(parserManager, queryManager, logger)
//	analysis, err := extractor.ExtractFile(filePath, source)
//	if err != nil {
//	    return err
//	}
//	// Use analysis.Features, analysis.Methods
type Extractor struct {
	parserManager *parser.ParserManager
	queryManager  *queries.QueryManager
	logger        *slog.Logger
}

// NewExtractor creates an extractor. Logger can be nil.
func NewExtractor(pm *parser.ParserManager, qm *queries.QueryManager, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}

	return &Extractor{
		parserManager: pm,
		queryManager:  qm,
		logger:        logger,
	}
}

// ExtractFile analyzes one source file. Files with syntax errors are rejected
// with a *parser.ParseError so callers can skip them.
func (e *Extractor) ExtractFile(filePath string, source []byte) (*FileAnalysis, error) {
	grammar := parser.DetectGrammar(filePath)
	if grammar == parser.GrammarUnknown {
		return nil, fmt.Errorf("unsupported file type: %s", filePath)
	}

	tree, err := e.parserManager.ParseStrict(source, filePath)
	if err != nil {
		return nil, err
	}
	defer tree.Close()

	features := ExtractFeatures(tree, source)

	exportQuery, err := e.queryManager.GetQuery(grammar, queries.QueryTypeExports)
	if err != nil {
		return nil, fmt.Errorf("failed to get export query for %s: %w", grammar, err)
	}
	importQuery, err := e.queryManager.GetQuery(grammar, queries.QueryTypeImports)
	if err != nil {
		return nil, fmt.Errorf("failed to get import query for %s: %w", grammar, err)
	}

	exportMatches, err := e.queryManager.ExecuteQuery(tree, exportQuery, source)
	if err != nil {
		return nil, fmt.Errorf("failed to execute export query: %w", err)
	}
	importMatches, err := e.queryManager.ExecuteQuery(tree, importQuery, source)
	if err != nil {
		return nil, fmt.Errorf("failed to execute import query: %w", err)
	}

	analysis := &FileAnalysis{
		Path:     filePath,
		Language: grammar.String(),
		Features: features,
		Methods:  methodsFromExports(exportedNames(exportMatches, source)),
		Imports:  importSources(importMatches),
	}

	e.logger.Debug("extracted file",
		"file", filePath,
		"methods", len(analysis.Methods),
		"imports", len(analysis.Imports))

	return analysis, nil
}

// exportedNames returns the names a module exports. For specifiers the alias
// is the exported name.
func exportedNames(matches []queries.QueryMatch, source []byte) []string {
	var names []string
	for _, m := range matches {
		if c, ok := m.Capture("export.name"); ok {
			names = append(names, c.Text)
			continue
		}
		spec, ok := m.Capture("export.specifier")
		if !ok {
			continue
		}
		if alias := spec.Node.ChildByFieldName("alias"); alias != nil {
			names = append(names, trimQuotes(alias.Utf8Text(source)))
			continue
		}
		if local, ok := m.Capture("export.local"); ok {
			names = append(names, trimQuotes(local.Text))
		}
	}
	return names
}

// methodsFromExports keeps HTTP method names, deduplicated, in canonical order.
func methodsFromExports(names []string) []string {
	seen := make(map[string]bool, len(names))
	for _, n := range names {
		seen[n] = true
	}
	methods := make([]string, 0, len(HTTPMethods))
	for _, m := range HTTPMethods {
		if seen[m] {
			methods = append(methods, m)
		}
	}
	return methods
}

func importSources(matches []queries.QueryMatch) []string {
	var sources []string
	for _, m := range matches {
		for _, c := range m.Captures {
			if c.Field == "source" {
				sources = append(sources, c.Text)
			}
		}
	}
	return sources
}

func trimQuotes(s string) string {
	if len(s) >= 2 && (s[0] == '"' || s[0] == '\'') && s[len(s)-1] == s[0] {
		return s[1 : len(s)-1]
	}
	return s
}
