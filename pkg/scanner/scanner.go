package scanner

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/gnana997/nextscope/pkg/cache"
	"github.com/gnana997/nextscope/pkg/extractor"
	"github.com/gnana997/nextscope/pkg/parser"
	"github.com/gnana997/nextscope/pkg/parser/queries"
	"github.com/gnana997/nextscope/pkg/routes"
	"github.com/gnana997/nextscope/pkg/strategy"
	"github.com/gnana997/nextscope/pkg/util"
)

// Options configures a Scanner.
type Options struct {
	// Workers bounds per-file analysis concurrency. 0 picks a size from the CPU count.
	Workers int

	// Cache configures the analysis cache. Read and Normalize default to the
	// scanner's source reader and the parser-based minifier.
	Cache cache.Config

	// Exclude patterns are added to DefaultIgnore for every discovery.
	Exclude []string

	Logger *slog.Logger
}

// DefaultOptions returns the options used by the CLI.
func DefaultOptions() Options {
	return Options{Cache: cache.DefaultConfig()}
}

// Scanner runs discoveries over Next.js projects. Content analyses are
// memoized across calls, so repeated discoveries only reparse changed files.
//
// A Scanner is safe for concurrent use.
type Scanner struct {
	pm      *parser.ParserManager
	qm      *queries.QueryManager
	ext     *extractor.Extractor
	cache   *cache.Cache[*extractor.FileAnalysis]
	reader  *util.SourceReader
	exclude []string
	workers int
	log     *slog.Logger
}

// New creates a scanner with all required dependencies.
func New(opts Options) *Scanner {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	workers := util.Workers(opts.Workers)
	pm := parser.NewParserManagerWithPoolSize(logger, workers)
	qm := queries.NewQueryManager(logger)

	readerCfg := util.DefaultSourceReaderConfig()
	readerCfg.Logger = logger
	reader := util.NewSourceReader(readerCfg)

	cacheCfg := opts.Cache
	if cacheCfg.Read == nil {
		cacheCfg.Read = reader.Read
	}
	if cacheCfg.Normalize == nil {
		cacheCfg.Normalize = cache.MinifyNormalizer(pm)
	}
	if cacheCfg.Logger == nil {
		cacheCfg.Logger = logger
	}

	return &Scanner{
		pm:      pm,
		qm:      qm,
		ext:     extractor.NewExtractor(pm, qm, logger),
		cache:   cache.New[*extractor.FileAnalysis](cacheCfg),
		reader:  reader,
		exclude: append(append([]string{}, DefaultIgnore...), opts.Exclude...),
		workers: workers,
		log:     logger,
	}
}

// Close releases parsers and compiled queries.
func (s *Scanner) Close() error {
	qErr := s.qm.Close()
	pErr := s.pm.Close()
	if qErr != nil {
		return qErr
	}
	return pErr
}

// Invalidate drops the cached analysis for an absolute file path.
func (s *Scanner) Invalidate(absPath string) bool {
	return s.cache.Invalidate(absPath)
}

// InvalidateAll drops every cached analysis.
func (s *Scanner) InvalidateAll() {
	s.cache.InvalidateAll()
}

// CacheStats returns the analysis cache counters.
func (s *Scanner) CacheStats() cache.Stats {
	return s.cache.Stats()
}

// ReaderStats returns the source reader counters.
func (s *Scanner) ReaderStats() util.SourceReaderStats {
	return s.reader.Stats()
}

// AnalyzeFile runs the full analysis of one file. path may be absolute or
// relative to root; it must resolve inside root.
func (s *Scanner) AnalyzeFile(root, path string) (*FileReport, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve root path: %w", err)
	}
	absPath := path
	if !filepath.IsAbs(absPath) {
		absPath = filepath.Join(absRoot, path)
	}
	rel, err := filepath.Rel(absRoot, absPath)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return nil, fmt.Errorf("%s is outside project root %s", path, absRoot)
	}
	rel = filepath.ToSlash(rel)

	facts, err := routes.AnalyzePath(rel)
	if err != nil {
		return nil, err
	}
	analysis, err := s.analyze(absPath, rel)
	if err != nil {
		return nil, err
	}

	result := strategy.Classify(analysis.Features, facts)
	report := &FileReport{
		FileStrategy: FileStrategy{
			Path:             rel,
			Strategy:         result.Strategy,
			Rationale:        result.Rationale,
			DetectedFeatures: analysis.Features,
			PathFacts:        facts,
		},
		Imports: analysis.Imports,
	}

	if facts.Role == routes.RoleAPIHandler {
		report.Methods = analysis.Methods
	} else if info, err := routes.Describe(rel); err == nil {
		report.Route = info
	}
	return report, nil
}

// scanConfig combines include patterns with the scanner's excludes.
func (s *Scanner) scanConfig(include []string, exclude ...string) ScanConfig {
	return ScanConfig{
		Include: include,
		Exclude: append(append([]string{}, s.exclude...), exclude...),
	}
}
