package parser

import (
	"log/slog"
	"os"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestConcurrentParsing parses from many goroutines through a deliberately
// small pool so acquire has to wait for releases.
func TestConcurrentParsing(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	manager := NewParserManagerWithPoolSize(logger, 2)
	defer manager.Close()

	const goroutinesPerGrammar = 30
	files := map[string]string{
		"app/counter/page.tsx":    tsxPage,
		"app/api/health/route.ts": tsRoute,
		"pages/index.js":          jsPage,
	}

	var wg sync.WaitGroup
	errChan := make(chan error, goroutinesPerGrammar*len(files))
	startBarrier := make(chan struct{})

	for path, source := range files {
		for i := 0; i < goroutinesPerGrammar; i++ {
			wg.Add(1)
			go func(path, source string) {
				defer wg.Done()
				<-startBarrier

				tree, err := manager.ParseStrict([]byte(source), path)
				if err != nil {
					errChan <- err
					return
				}
				tree.Close()
			}(path, source)
		}
	}

	close(startBarrier)
	wg.Wait()
	close(errChan)

	var errs []error
	for err := range errChan {
		errs = append(errs, err)
	}
	assert.Empty(t, errs)

	stats := manager.GetStats()
	assert.Equal(t, goroutinesPerGrammar*len(files), stats.ParsesCalled)
	assert.LessOrEqual(t, stats.ParsersCreated, 2*len(files))
	assert.GreaterOrEqual(t, stats.ParsersCreated, len(files))
	assert.Equal(t, 2, manager.PoolSize())
}
