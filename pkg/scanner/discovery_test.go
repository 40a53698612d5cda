package scanner

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiscoverFiles_IncludeAndExclude(t *testing.T) {
	tmp := t.TempDir()
	writeFile(t, tmp, "app/page.tsx", "export default function Page() {}")
	writeFile(t, tmp, "app/blog/page.jsx", "export default function Blog() {}")
	writeFile(t, tmp, "app/blog/utils.ts", "export {}")
	writeFile(t, tmp, "node_modules/next/app/page.tsx", "export {}")
	writeFile(t, tmp, ".next/server/app/page.js", "export {}")

	cfg := ScanConfig{
		Include: []string{"app/**/page.{js,jsx,ts,tsx}", "node_modules/**/*.tsx"},
		Exclude: DefaultIgnore,
	}
	files, err := DiscoverFiles(tmp, cfg)
	require.NoError(t, err)

	assert.Equal(t, []string{"app/blog/page.jsx", "app/page.tsx"}, relPaths(t, tmp, files))
	for _, f := range files {
		assert.True(t, filepath.IsAbs(f), "expected absolute path, got %s", f)
	}
}

func TestDiscoverFiles_SortedOutput(t *testing.T) {
	tmp := t.TempDir()
	for _, name := range []string{"c.ts", "a.ts", "b/z.ts", "b/a.ts"} {
		writeFile(t, tmp, name, "")
	}

	files, err := DiscoverFiles(tmp, ScanConfig{})
	require.NoError(t, err)
	require.Len(t, files, 4)

	for i := 1; i < len(files); i++ {
		assert.LessOrEqual(t, files[i-1], files[i], "files should be sorted")
	}
}

func TestDiscoverFiles_EmptyDirectory(t *testing.T) {
	tmp := t.TempDir()
	files, err := DiscoverFiles(tmp, ScanConfig{Include: routePatterns, Exclude: DefaultIgnore})
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestDiscoverFiles_InvalidGlob(t *testing.T) {
	_, err := DiscoverFiles(t.TempDir(), ScanConfig{Exclude: []string{"[invalid"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid exclude pattern")

	_, err = DiscoverFiles(t.TempDir(), ScanConfig{Include: []string{"[invalid"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid include pattern")
}

func TestDiscoverFiles_MissingRoot(t *testing.T) {
	_, err := DiscoverFiles(filepath.Join(t.TempDir(), "missing"), ScanConfig{})
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestDiscoverFiles_ShallowPatternSkipsSubdirectories(t *testing.T) {
	tmp := t.TempDir()
	writeFile(t, tmp, ".env", "A=1")
	writeFile(t, tmp, "src/.env.local", "B=2")
	writeFile(t, tmp, "config/.env", "C=3")
	writeFile(t, tmp, "src/deep/.env", "D=4")

	files, err := DiscoverFiles(tmp, ScanConfig{Include: envPatterns, Exclude: DefaultIgnore})
	require.NoError(t, err)
	assert.Equal(t, []string{".env", "src/.env.local"}, relPaths(t, tmp, files))
}

func TestWalkScope(t *testing.T) {
	scope := newWalkScope([]string{"src/app/**/page.tsx", "public/robots.txt", ".env*"})

	tests := []struct {
		dir  string
		want bool
	}{
		{"src", true},
		{"src/app", true},
		{"src/app/blog/[slug]", true},
		{"src/lib", false},
		{"public", true},
		{"public/images", false},
		{"app", false},
		{"node_modules", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, scope.enter(tt.dir), tt.dir)
	}

	assert.True(t, newWalkScope(nil).enter("anything/at/all"))
	assert.True(t, newWalkScope([]string{"**/*.ts"}).enter("lib"))
}

func TestPatterns_Valid(t *testing.T) {
	groups := map[string][]string{
		"route":  routePatterns,
		"api":    apiPatterns,
		"asset":  assetPatterns,
		"env":    envPatterns,
		"ignore": DefaultIgnore,
	}
	for name, patterns := range groups {
		for _, p := range patterns {
			assert.True(t, doublestar.ValidatePattern(p), "%s pattern %q", name, p)
		}
	}
}

func TestPatterns_Matching(t *testing.T) {
	tests := []struct {
		patterns []string
		path     string
		want     bool
	}{
		{routePatterns, "app/page.tsx", true},
		{routePatterns, "src/app/(marketing)/about/page.js", true},
		{routePatterns, "app/not-found.tsx", true},
		{routePatterns, "app/components/button.tsx", false},
		{routePatterns, "middleware.ts", true},
		{routePatterns, "src/middleware.js", true},
		{routePatterns, "pages/index.tsx", true},
		{apiPatterns, "app/api/users/[id]/route.ts", true},
		{apiPatterns, "pages/api/hello.js", true},
		{apiPatterns, "pages/hello.js", false},
		{assetPatterns, "public/images/logo.png", true},
		{assetPatterns, "public/site.webmanifest", true},
		{assetPatterns, "app/favicon.ico", true},
		{assetPatterns, "app/sitemap.ts", true},
		{assetPatterns, "app/blog/opengraph-image.tsx", true},
		{assetPatterns, "app/blog/page.tsx", false},
		{envPatterns, ".env", true},
		{envPatterns, ".env.local", true},
		{envPatterns, "src/.env.production", true},
		{envPatterns, "config/.env", false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, matchAny(tt.patterns, tt.path))
		})
	}
}

// --- helpers ---

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func relPaths(t *testing.T, root string, files []string) []string {
	t.Helper()
	absRoot, err := filepath.Abs(root)
	require.NoError(t, err)
	out := make([]string, len(files))
	for i, f := range files {
		out[i] = relativeTo(absRoot, f)
	}
	return out
}
