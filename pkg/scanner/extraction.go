package scanner

import (
	"sort"
	"sync"

	"github.com/gnana997/nextscope/pkg/extractor"
)

// analyzedFile is a file whose content analysis succeeded.
type analyzedFile struct {
	AbsPath  string
	RelPath  string
	Analysis *extractor.FileAnalysis
}

// analyzeAll runs the cached content analysis on each file in parallel.
// Results come back in input order. Errors on individual files are logged
// and reported as skipped; they don't stop the batch.
func (s *Scanner) analyzeAll(root string, files []string) ([]analyzedFile, []SkippedFile) {
	if len(files) == 0 {
		return nil, nil
	}

	numWorkers := s.workers
	if numWorkers > len(files) {
		numWorkers = len(files)
	}

	type job struct {
		index int
		path  string
	}
	type resultOrError struct {
		index  int
		result analyzedFile
		err    error
	}

	jobs := make(chan job, numWorkers*2)
	results := make(chan resultOrError, numWorkers)

	// Start workers.
	var wg sync.WaitGroup
	for i := 0; i < numWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobs {
				rel := relativeTo(root, j.path)
				analysis, err := s.analyze(j.path, rel)
				results <- resultOrError{
					index:  j.index,
					result: analyzedFile{AbsPath: j.path, RelPath: rel, Analysis: analysis},
					err:    err,
				}
			}
		}()
	}

	// Submit jobs.
	go func() {
		for i, f := range files {
			jobs <- job{index: i, path: f}
		}
		close(jobs)
		wg.Wait()
		close(results)
	}()

	// Collect results.
	ordered := make([]resultOrError, 0, len(files))
	for r := range results {
		ordered = append(ordered, r)
	}
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].index < ordered[j].index })

	var analyzed []analyzedFile
	var skipped []SkippedFile
	for _, r := range ordered {
		if r.err != nil {
			s.log.Warn("analysis failed, skipping file", "file", r.result.RelPath, "error", r.err)
			skipped = append(skipped, SkippedFile{Path: r.result.RelPath, Error: r.err.Error()})
			continue
		}
		analyzed = append(analyzed, r.result)
	}
	return analyzed, skipped
}

// analyze returns the content analysis of one file through the cache, keyed
// by absolute path.
func (s *Scanner) analyze(absPath, relPath string) (*extractor.FileAnalysis, error) {
	return s.cache.GetOrCompute(absPath, func(content []byte) (*extractor.FileAnalysis, error) {
		return s.ext.ExtractFile(relPath, content)
	})
}
