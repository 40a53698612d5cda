package scanner

import (
	"fmt"
	"path/filepath"
	"sort"
	"time"

	"github.com/gnana997/nextscope/pkg/routes"
	"github.com/gnana997/nextscope/pkg/strategy"
)

// pagesAPIExclude keeps API handlers out of page listings.
var pagesAPIExclude = under(pagesRoots, "api/**")

// DiscoverRoutes lists page-like route files. It reads no file content.
// Results are sorted by router, then by URL, falling back to the path for
// files that serve no URL.
func (s *Scanner) DiscoverRoutes(root string) ([]routes.RouteInfo, error) {
	absRoot, files, err := s.discover(root, routePatterns, pagesAPIExclude...)
	if err != nil {
		return nil, err
	}

	infos := make([]routes.RouteInfo, 0, len(files))
	for _, f := range files {
		rel := relativeTo(absRoot, f)
		info, err := routes.Describe(rel)
		if err != nil {
			s.log.Warn("skipping route file", "file", rel, "error", err)
			continue
		}
		infos = append(infos, *info)
	}

	sort.SliceStable(infos, func(i, j int) bool {
		if infos[i].Router != infos[j].Router {
			return infos[i].Router < infos[j].Router
		}
		return routeSortKey(&infos[i]) < routeSortKey(&infos[j])
	})
	return infos, nil
}

func routeSortKey(info *routes.RouteInfo) string {
	if info.URL != nil {
		return *info.URL
	}
	return info.Path
}

// DiscoverStrategies classifies the rendering strategy of every route file.
// Files that cannot be read or parsed are reported in Skipped.
func (s *Scanner) DiscoverStrategies(root string) (*StrategyReport, error) {
	totalStart := time.Now()
	stats := ScanStats{}

	discoveryStart := time.Now()
	absRoot, files, err := s.discover(root, routePatterns, pagesAPIExclude...)
	if err != nil {
		return nil, err
	}
	stats.FilesDiscovered = len(files)
	stats.DiscoveryTimeMs = time.Since(discoveryStart).Milliseconds()

	analysisStart := time.Now()
	analyzed, skipped := s.analyzeAll(absRoot, files)

	report := &StrategyReport{Files: []FileStrategy{}, Skipped: []SkippedFile{}}
	for _, a := range analyzed {
		facts, err := routes.AnalyzePath(a.RelPath)
		if err != nil {
			s.log.Warn("skipping route file", "file", a.RelPath, "error", err)
			skipped = append(skipped, SkippedFile{Path: a.RelPath, Error: err.Error()})
			continue
		}
		result := strategy.Classify(a.Analysis.Features, facts)
		report.Files = append(report.Files, FileStrategy{
			Path:             a.RelPath,
			Strategy:         result.Strategy,
			Rationale:        result.Rationale,
			DetectedFeatures: a.Analysis.Features,
			PathFacts:        facts,
		})
	}
	report.Skipped = append(report.Skipped, skipped...)

	stats.FilesAnalyzed = len(report.Files)
	stats.FilesSkipped = len(report.Skipped)
	stats.AnalysisTimeMs = time.Since(analysisStart).Milliseconds()
	stats.TotalTimeMs = time.Since(totalStart).Milliseconds()
	stats.Cache = s.cache.Stats()
	report.Stats = stats

	s.log.Info("strategy discovery complete",
		"files", stats.FilesAnalyzed, "skipped", stats.FilesSkipped, "ms", stats.TotalTimeMs)

	return report, nil
}

// DiscoverAPIRoutes lists API handlers with the HTTP methods each exports.
// Sorted by endpoint, then path.
func (s *Scanner) DiscoverAPIRoutes(root string) (*APIReport, error) {
	totalStart := time.Now()
	stats := ScanStats{}

	discoveryStart := time.Now()
	absRoot, files, err := s.discover(root, apiPatterns)
	if err != nil {
		return nil, err
	}
	stats.FilesDiscovered = len(files)
	stats.DiscoveryTimeMs = time.Since(discoveryStart).Milliseconds()

	analysisStart := time.Now()
	analyzed, skipped := s.analyzeAll(absRoot, files)

	report := &APIReport{Routes: []routes.APIRouteInfo{}, Skipped: []SkippedFile{}}
	for _, a := range analyzed {
		info, err := routes.DescribeAPI(a.RelPath)
		if err != nil {
			s.log.Warn("skipping API file", "file", a.RelPath, "error", err)
			skipped = append(skipped, SkippedFile{Path: a.RelPath, Error: err.Error()})
			continue
		}
		info.Methods = append(info.Methods, a.Analysis.Methods...)
		report.Routes = append(report.Routes, *info)
	}
	report.Skipped = append(report.Skipped, skipped...)

	sort.SliceStable(report.Routes, func(i, j int) bool {
		if report.Routes[i].Endpoint != report.Routes[j].Endpoint {
			return report.Routes[i].Endpoint < report.Routes[j].Endpoint
		}
		return report.Routes[i].Path < report.Routes[j].Path
	})

	stats.FilesAnalyzed = len(report.Routes)
	stats.FilesSkipped = len(report.Skipped)
	stats.AnalysisTimeMs = time.Since(analysisStart).Milliseconds()
	stats.TotalTimeMs = time.Since(totalStart).Milliseconds()
	stats.Cache = s.cache.Stats()
	report.Stats = stats

	s.log.Info("API discovery complete",
		"routes", stats.FilesAnalyzed, "skipped", stats.FilesSkipped, "ms", stats.TotalTimeMs)

	return report, nil
}

// discover resolves root and lists the files matching include.
func (s *Scanner) discover(root string, include []string, exclude ...string) (string, []string, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return "", nil, fmt.Errorf("failed to resolve root path: %w", err)
	}
	files, err := DiscoverFiles(absRoot, s.scanConfig(include, exclude...))
	if err != nil {
		return "", nil, fmt.Errorf("discovery failed: %w", err)
	}
	s.log.Debug("discovery complete", "root", absRoot, "files", len(files))
	return absRoot, files, nil
}
