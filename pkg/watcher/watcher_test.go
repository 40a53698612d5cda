package watcher

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/gnana997/nextscope/pkg/util"
)

// recorder collects invalidations and change batches.
type recorder struct {
	mu          sync.Mutex
	invalidated []string
	batches     chan []string
}

func newRecorder() *recorder {
	return &recorder{batches: make(chan []string, 16)}
}

func (r *recorder) Invalidate(key string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.invalidated = append(r.invalidated, key)
	return true
}

func (r *recorder) keys() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string{}, r.invalidated...)
}

func (r *recorder) onChange(paths []string) {
	r.batches <- paths
}

// next waits for the next settled batch.
func (r *recorder) next(t *testing.T) []string {
	t.Helper()
	select {
	case batch := <-r.batches:
		return batch
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for change")
		return nil
	}
}

// quiet asserts no batch arrives for d.
func (r *recorder) quiet(t *testing.T, d time.Duration) {
	t.Helper()
	select {
	case batch := <-r.batches:
		t.Fatalf("unexpected change: %v", batch)
	case <-time.After(d):
	}
}

func startWatcher(t *testing.T, root string, rec *recorder, opts Options) *Watcher {
	t.Helper()
	opts.OnChange = rec.onChange
	opts.Logger = util.NewDiscardLogger()
	if opts.Debounce == 0 {
		opts.Debounce = 50 * time.Millisecond
	}
	w, err := New(rec, opts)
	require.NoError(t, err)
	require.NoError(t, w.Start(root))
	return w
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func tempRoot(t *testing.T) string {
	t.Helper()
	root, err := filepath.Abs(t.TempDir())
	require.NoError(t, err)
	return root
}

func TestWatcher_InvalidatesChangedFile(t *testing.T) {
	defer goleak.VerifyNone(t)

	root := tempRoot(t)
	page := filepath.Join(root, "app", "page.tsx")
	writeFile(t, page, "export default function Home() {}")

	rec := newRecorder()
	w := startWatcher(t, root, rec, Options{})
	defer w.Stop()

	writeFile(t, page, "export const revalidate = 60")

	assert.Equal(t, []string{page}, rec.next(t))
	assert.Equal(t, []string{page}, rec.keys())
}

func TestWatcher_DebouncesRapidWrites(t *testing.T) {
	defer goleak.VerifyNone(t)

	root := tempRoot(t)
	page := filepath.Join(root, "app", "page.tsx")
	writeFile(t, page, "")

	rec := newRecorder()
	w := startWatcher(t, root, rec, Options{Debounce: 150 * time.Millisecond})
	defer w.Stop()

	for i := 0; i < 5; i++ {
		writeFile(t, page, "export const revalidate = "+string(rune('1'+i)))
		time.Sleep(10 * time.Millisecond)
	}

	assert.Equal(t, []string{page}, rec.next(t))
	rec.quiet(t, 300*time.Millisecond)
	assert.Len(t, rec.keys(), 1)
}

func TestWatcher_NewDirectories(t *testing.T) {
	defer goleak.VerifyNone(t)

	root := tempRoot(t)
	rec := newRecorder()
	w := startWatcher(t, root, rec, Options{})
	defer w.Stop()

	page := filepath.Join(root, "app", "blog", "page.tsx")
	writeFile(t, page, "export default function Blog() {}")

	var seen []string
	deadline := time.After(3 * time.Second)
	for len(seen) == 0 || seen[len(seen)-1] != page {
		select {
		case batch := <-rec.batches:
			seen = append(seen, batch...)
		case <-deadline:
			t.Fatalf("page in new directory never reported, saw %v", seen)
		}
	}
}

func TestWatcher_IgnoresBuildAndNonSourceFiles(t *testing.T) {
	defer goleak.VerifyNone(t)

	root := tempRoot(t)
	modules := filepath.Join(root, "node_modules", "next", "index.js")
	writeFile(t, modules, "")
	generated := filepath.Join(root, "generated", "types.ts")
	writeFile(t, generated, "")

	rec := newRecorder()
	w := startWatcher(t, root, rec, Options{Ignore: []string{"generated/**"}})
	defer w.Stop()

	writeFile(t, modules, "module.exports = {}")
	writeFile(t, generated, "export type A = string")
	writeFile(t, filepath.Join(root, "README.md"), "# readme")

	rec.quiet(t, 300*time.Millisecond)
	assert.Empty(t, rec.keys())
}

func TestWatcher_EnvAndManifestChanges(t *testing.T) {
	defer goleak.VerifyNone(t)

	root := tempRoot(t)
	rec := newRecorder()
	w := startWatcher(t, root, rec, Options{})
	defer w.Stop()

	env := filepath.Join(root, ".env.local")
	writeFile(t, env, "A=1")

	assert.Equal(t, []string{env}, rec.next(t))
}

func TestWatcher_Lifecycle(t *testing.T) {
	defer goleak.VerifyNone(t)

	root := tempRoot(t)
	rec := newRecorder()

	w, err := New(rec, Options{Logger: util.NewDiscardLogger()})
	require.NoError(t, err)
	assert.False(t, w.Stats().Running)

	require.NoError(t, w.Start(root))
	require.NoError(t, w.Start(root), "second start is a no-op")
	assert.True(t, w.Stats().Running)

	require.NoError(t, w.Stop())
	require.NoError(t, w.Stop(), "second stop is a no-op")
	assert.False(t, w.Stats().Running)

	assert.Error(t, w.Start(root), "stopped watchers cannot restart")
}

func TestWatcher_StopWithoutStart(t *testing.T) {
	defer goleak.VerifyNone(t)

	w, err := New(nil, Options{Logger: util.NewDiscardLogger()})
	require.NoError(t, err)
	assert.NoError(t, w.Stop())
}

func TestNew_InvalidIgnorePattern(t *testing.T) {
	_, err := New(nil, Options{Ignore: []string{"[bad"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid ignore pattern")
}
