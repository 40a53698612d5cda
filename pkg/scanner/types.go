// Package scanner discovers the routes, rendering strategies, API handlers,
// assets and environment files of a Next.js project.
package scanner

import (
	"time"

	"github.com/gnana997/nextscope/pkg/cache"
	"github.com/gnana997/nextscope/pkg/extractor"
	"github.com/gnana997/nextscope/pkg/routes"
	"github.com/gnana997/nextscope/pkg/strategy"
)

// ScanConfig selects files relative to the project root.
type ScanConfig struct {
	// Include glob patterns for file matching. Empty matches every file.
	Include []string
	// Exclude glob patterns, applied to directories and files.
	Exclude []string
}

// DefaultIgnore are the build output and dependency directories never scanned.
var DefaultIgnore = []string{
	"**/node_modules/**",
	"**/.next/**",
	"**/.git/**",
	"**/.turbo/**",
	"**/.vercel/**",
	"dist/**",
	"build/**",
	"out/**",
	"coverage/**",
}

// sourceExt matches the extensions the route conventions accept.
const sourceExt = "{js,jsx,ts,tsx}"

const imageExt = "{jpg,jpeg,png,gif,svg,webp,ico,bmp,tiff,avif}"

// Router roots, with and without the src/ directory.
var (
	appRoots   = []string{"app", "src/app"}
	pagesRoots = []string{"pages", "src/pages"}
)

var routePatterns = concat(
	under(appRoots, "**/{page,layout,loading,error,not-found,default,template}."+sourceExt),
	[]string{"middleware." + sourceExt, "src/middleware." + sourceExt},
	under(pagesRoots, "**/*."+sourceExt),
)

var apiPatterns = concat(
	under(appRoots, "**/route."+sourceExt),
	under(pagesRoots, "api/**/*."+sourceExt),
)

var assetPatterns = concat(
	[]string{
		"public/**/*." + imageExt,
		"public/**/*.{mp4,avi,mov,wmv,flv,webm,mkv,m4v}",
		"public/**/*.{mp3,wav,flac,aac,ogg,wma,m4a}",
		"public/**/*.{pdf,doc,docx,txt,rtf,odt,zip,rar,7z,tar,gz,bz2}",
		"public/**/*.{json,xml,webmanifest}",
	},
	under(appRoots, "**/*."+imageExt),
	under(appRoots, "**/{sitemap,robots,manifest}.{js,ts}"),
	under(appRoots, "**/*{icon,og-image,opengraph,twitter-image}*.{js,ts,tsx}"),
	under(pagesRoots, "**/*.{jpg,jpeg,png,gif,svg,webp,ico}"),
)

var envPatterns = []string{
	".env",
	".env.*",
	"src/.env",
	"src/.env.*",
}

func under(roots []string, rest string) []string {
	out := make([]string, len(roots))
	for i, root := range roots {
		out[i] = root + "/" + rest
	}
	return out
}

func concat(groups ...[]string) []string {
	var out []string
	for _, g := range groups {
		out = append(out, g...)
	}
	return out
}

// SkippedFile is a file a discovery could not analyze.
type SkippedFile struct {
	Path  string `json:"path" yaml:"path"`
	Error string `json:"error" yaml:"error"`
}

// FileStrategy is the rendering strategy of one route file.
type FileStrategy struct {
	Path             string                      `json:"path" yaml:"path"`
	Strategy         strategy.Strategy           `json:"strategy" yaml:"strategy"`
	Rationale        []string                    `json:"rationale" yaml:"rationale"`
	DetectedFeatures *extractor.DetectedFeatures `json:"detectedFeatures" yaml:"detectedFeatures"`
	PathFacts        *routes.PathFacts           `json:"pathAnalysis" yaml:"pathAnalysis"`
}

// FileReport is the full analysis of a single file.
type FileReport struct {
	FileStrategy `yaml:",inline"`

	Route   *routes.RouteInfo `json:"route,omitempty" yaml:"route,omitempty"`
	Methods []string          `json:"methods,omitempty" yaml:"methods,omitempty"`
	Imports []string          `json:"imports,omitempty" yaml:"imports,omitempty"`
}

// ScanStats tracks discovery performance.
type ScanStats struct {
	FilesDiscovered int         `json:"filesDiscovered" yaml:"filesDiscovered"`
	FilesAnalyzed   int         `json:"filesAnalyzed" yaml:"filesAnalyzed"`
	FilesSkipped    int         `json:"filesSkipped" yaml:"filesSkipped"`
	DiscoveryTimeMs int64       `json:"discoveryTimeMs" yaml:"discoveryTimeMs"`
	AnalysisTimeMs  int64       `json:"analysisTimeMs" yaml:"analysisTimeMs"`
	TotalTimeMs     int64       `json:"totalTimeMs" yaml:"totalTimeMs"`
	Cache           cache.Stats `json:"cache" yaml:"cache"`
}

// StrategyReport is the result of DiscoverStrategies. Files that could not be
// read or parsed are listed in Skipped; the rest of the batch is unaffected.
type StrategyReport struct {
	Files   []FileStrategy `json:"files" yaml:"files"`
	Skipped []SkippedFile  `json:"skipped" yaml:"skipped"`
	Stats   ScanStats      `json:"stats" yaml:"stats"`
}

// APIReport is the result of DiscoverAPIRoutes.
type APIReport struct {
	Routes  []routes.APIRouteInfo `json:"routes" yaml:"routes"`
	Skipped []SkippedFile         `json:"skipped" yaml:"skipped"`
	Stats   ScanStats             `json:"stats" yaml:"stats"`
}

// AssetType tells whether an asset is served as-is, generated, or not served.
type AssetType string

const (
	AssetStatic       AssetType = "static"
	AssetDynamic      AssetType = "dynamic"
	AssetInaccessible AssetType = "inaccessible"
)

// AssetInfo describes one asset file.
type AssetInfo struct {
	Path         string    `json:"path" yaml:"path"`
	Name         string    `json:"name" yaml:"name"`
	Size         int64     `json:"size" yaml:"size"`
	Extension    string    `json:"extension" yaml:"extension"`
	LastModified time.Time `json:"lastModified" yaml:"lastModified"`
	URL          *string   `json:"url" yaml:"url"`
	Type         AssetType `json:"type" yaml:"type"`
}

// EnvFileInfo is one parsed environment file.
type EnvFileInfo struct {
	Path   string            `json:"path" yaml:"path"`
	Values map[string]string `json:"content" yaml:"content"`
}

// Snapshot is the combined result of DiscoverAll.
type Snapshot struct {
	Root       string             `json:"root" yaml:"root"`
	Routes     []routes.RouteInfo `json:"routes" yaml:"routes"`
	Strategies *StrategyReport    `json:"strategies" yaml:"strategies"`
	API        *APIReport         `json:"api" yaml:"api"`
	Assets     []AssetInfo        `json:"assets" yaml:"assets"`
	Env        []EnvFileInfo      `json:"env" yaml:"env"`
	Package    map[string]any     `json:"package,omitempty" yaml:"package,omitempty"`
}
