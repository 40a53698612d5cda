package parser

import (
	"fmt"
	"log/slog"
	"sync"
	"unsafe"

	ts "github.com/tree-sitter/go-tree-sitter"
	ts_javascript "github.com/tree-sitter/tree-sitter-javascript/bindings/go"
	ts_typescript "github.com/tree-sitter/tree-sitter-typescript/bindings/go"

	"github.com/gnana997/nextscope/pkg/util"
)

// ParserManager manages tree-sitter parsers for the JavaScript, TypeScript
// and TSX grammars with lazy initialization and thread-safe concurrent access.
//
// Memory Management:
//   - Parser pools are created lazily on first use per grammar
//   - ParserManager owns parser pool instances and must be closed via Close()
//   - Callers own Tree instances and must call tree.Close() after use
//
// Thread Safety:
//   - Multiple goroutines can parse the same grammar simultaneously, up to the
//     pool size; further callers block until a parser is released
//   - Pool creation is synchronized with write locks
//
// Example:
//
//	manager := NewParserManager(logger)
//	defer manager.Close()
//
//	tree, err := manager.ParseStrict(source, "app/page.tsx")
//	if err != nil {
//	    return err
//	}
//	defer tree.Close()
type ParserManager struct {
	pools    map[Grammar]*parserPool
	poolSize int
	mutex    sync.RWMutex
	logger   *slog.Logger

	stats struct {
		parsesCalled int
		parseErrors  int
	}
}

// NewParserManager creates a ParserManager whose pools are sized by
// util.DefaultWorkers().
//
// The returned manager must be closed via Close() to free resources.
func NewParserManager(logger *slog.Logger) *ParserManager {
	return NewParserManagerWithPoolSize(logger, 0)
}

// NewParserManagerWithPoolSize creates a ParserManager with at most poolSize
// parsers per grammar. A poolSize of 0 selects the CPU-based default.
//
// The pool size MUST be at least the number of analysis workers, otherwise
// workers block waiting for parsers.
func NewParserManagerWithPoolSize(logger *slog.Logger, poolSize int) *ParserManager {
	if logger == nil {
		logger = slog.Default()
	}

	return &ParserManager{
		pools:    make(map[Grammar]*parserPool),
		poolSize: util.Workers(poolSize),
		logger:   logger,
	}
}

// Parse parses source code with the given grammar.
//
// Syntax errors do not fail the call: tree-sitter recovers and the returned
// tree contains ERROR nodes. Use ParseStrict to reject such files.
//
// Returns a Tree that MUST be closed by the caller via tree.Close().
func (pm *ParserManager) Parse(source []byte, grammar Grammar) (*ts.Tree, error) {
	if grammar == GrammarUnknown {
		return nil, fmt.Errorf("cannot parse unknown grammar")
	}

	pm.mutex.Lock()
	pm.stats.parsesCalled++
	pm.mutex.Unlock()

	pool, err := pm.getOrCreatePool(grammar)
	if err != nil {
		return nil, fmt.Errorf("failed to get pool for %s: %w", grammar, err)
	}

	parser, err := pool.acquire()
	if err != nil {
		return nil, fmt.Errorf("failed to acquire parser: %w", err)
	}
	tree := parser.Parse(source, nil)
	pool.release(parser)

	if tree == nil {
		return nil, fmt.Errorf("parser.Parse returned nil tree")
	}

	return tree, nil
}

// ParseFile parses a file, detecting the grammar from its path.
//
// Returns a Tree that MUST be closed by the caller via tree.Close().
func (pm *ParserManager) ParseFile(source []byte, filePath string) (*ts.Tree, error) {
	grammar := DetectGrammar(filePath)
	if grammar == GrammarUnknown {
		return nil, fmt.Errorf("unsupported file extension: %s", filePath)
	}
	return pm.Parse(source, grammar)
}

// ParseStrict parses a file and fails with *ParseError when the tree
// contains syntax errors. The tree is closed before returning an error.
//
// Discovery treats a ParseError as "skip this file": a partially recovered
// tree could hide or invent exports and directives.
func (pm *ParserManager) ParseStrict(source []byte, filePath string) (*ts.Tree, error) {
	tree, err := pm.ParseFile(source, filePath)
	if err != nil {
		return nil, err
	}

	root := tree.RootNode()
	if root.HasError() {
		perr := newParseError(filePath, root)
		tree.Close()

		pm.mutex.Lock()
		pm.stats.parseErrors++
		pm.mutex.Unlock()

		pm.logger.Debug("parse tree contains errors",
			"file", filePath,
			"line", perr.Line,
			"column", perr.Column)
		return nil, perr
	}

	return tree, nil
}

// Close releases all parser pool resources.
//
// After Close(), the ParserManager must not be used.
func (pm *ParserManager) Close() error {
	pm.mutex.Lock()
	defer pm.mutex.Unlock()

	pm.logger.Debug("closing ParserManager",
		"parses_called", pm.stats.parsesCalled,
		"parse_errors", pm.stats.parseErrors)

	for _, pool := range pm.pools {
		if pool != nil {
			pool.close()
		}
	}
	pm.pools = make(map[Grammar]*parserPool)

	return nil
}

// getOrCreatePool returns an existing parser pool or creates a new one
// (double-checked locking).
func (pm *ParserManager) getOrCreatePool(grammar Grammar) (*parserPool, error) {
	pm.mutex.RLock()
	pool, exists := pm.pools[grammar]
	pm.mutex.RUnlock()
	if exists {
		return pool, nil
	}

	pm.mutex.Lock()
	defer pm.mutex.Unlock()

	if pool, exists = pm.pools[grammar]; exists {
		return pool, nil
	}

	langPtr, err := GetLanguagePointer(grammar)
	if err != nil {
		return nil, err
	}

	pool = newParserPool(grammar, langPtr, pm.poolSize, pm.logger)
	pm.pools[grammar] = pool

	pm.logger.Debug("created new parser pool",
		"grammar", grammar.String(),
		"maxSize", pm.poolSize)

	return pool, nil
}

// GetLanguagePointer returns the tree-sitter language for a grammar.
// QueryManager uses it to compile queries against the same grammar.
func GetLanguagePointer(grammar Grammar) (unsafe.Pointer, error) {
	switch grammar {
	case GrammarJavaScript:
		return ts_javascript.Language(), nil
	case GrammarTypeScript:
		return ts_typescript.LanguageTypescript(), nil
	case GrammarTSX:
		return ts_typescript.LanguageTSX(), nil
	default:
		return nil, fmt.Errorf("unsupported grammar: %s", grammar.String())
	}
}

// GetStats returns parser usage statistics.
func (pm *ParserManager) GetStats() ParserStats {
	pm.mutex.RLock()
	defer pm.mutex.RUnlock()

	totalParsers := 0
	for _, pool := range pm.pools {
		totalParsers += pool.getCreatedCount()
	}

	return ParserStats{
		ParsersCreated: totalParsers,
		ParsesCalled:   pm.stats.parsesCalled,
		ParseErrors:    pm.stats.parseErrors,
	}
}

// PoolSize returns the per-grammar parser limit.
func (pm *ParserManager) PoolSize() int {
	return pm.poolSize
}

// ParserStats contains parser usage statistics.
type ParserStats struct {
	// ParsersCreated is the total number of parser instances created
	ParsersCreated int

	// ParsesCalled is the total number of Parse() calls
	ParsesCalled int

	// ParseErrors counts ParseStrict rejections
	ParseErrors int
}
