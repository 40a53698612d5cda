package scanner

import (
	"os"
	"path"
	"strings"
	"time"
)

// Extensions Next.js accepts for icons and social images.
var (
	iconExts  = []string{"png", "jpg", "jpeg", "svg", "ico"}
	imageExts = []string{"png", "jpg", "jpeg"}
)

// dynamicAssetKeywords mark app files that Next.js turns into metadata routes.
var dynamicAssetKeywords = []string{
	"sitemap", "robots", "manifest", "icon", "og-image", "opengraph", "twitter-image",
}

// DiscoverAssets lists static files under public/ and metadata assets under
// the app and pages directories, sorted by path.
func (s *Scanner) DiscoverAssets(root string) ([]AssetInfo, error) {
	absRoot, files, err := s.discover(root, assetPatterns)
	if err != nil {
		return nil, err
	}

	assets := make([]AssetInfo, 0, len(files))
	for _, f := range files {
		rel := relativeTo(absRoot, f)
		info, err := os.Stat(f)
		if err != nil {
			s.log.Warn("skipping asset", "file", rel, "error", err)
			continue
		}
		assets = append(assets, AssetInfo{
			Path:         rel,
			Name:         path.Base(rel),
			Size:         info.Size(),
			Extension:    path.Ext(rel),
			LastModified: info.ModTime().UTC().Truncate(time.Millisecond),
			URL:          AssetURL(rel),
			Type:         AssetTypeOf(rel),
		})
	}
	return assets, nil
}

// AssetTypeOf classifies a project-relative asset path.
func AssetTypeOf(rel string) AssetType {
	if strings.HasPrefix(rel, "public/") {
		return AssetStatic
	}
	switch strings.ToLower(path.Ext(rel)) {
	case ".js", ".ts", ".tsx", ".ico":
		name := path.Base(rel)
		for _, kw := range dynamicAssetKeywords {
			if strings.Contains(name, kw) {
				return AssetDynamic
			}
		}
	}
	return AssetInaccessible
}

// AssetURL returns the URL an asset is served at, or nil when it is not
// directly addressable.
func AssetURL(rel string) *string {
	if strings.HasPrefix(rel, "public/") {
		return ptr(strings.TrimPrefix(rel, "public"))
	}

	dirs, ok := appDirs(rel)
	if !ok {
		return nil
	}

	name := path.Base(rel)
	switch {
	case strings.HasPrefix(name, "sitemap."):
		return ptr("/sitemap.xml")
	case strings.HasPrefix(name, "robots."):
		return ptr("/robots.txt")
	case strings.HasPrefix(name, "manifest."):
		return ptr("/manifest.json")
	case strings.HasPrefix(name, "favicon."):
		return ptr("/favicon." + extOr(name, iconExts, "ico"))
	case strings.Contains(name, "apple-touch-icon") || strings.Contains(name, "apple-icon"):
		return ptr("/apple-touch-icon." + extOr(name, imageExts, "png"))
	case strings.Contains(name, "icon."):
		return ptr("/icon." + extOr(name, iconExts, "png"))
	case strings.Contains(name, "opengraph") || strings.Contains(name, "og-image"):
		return ptr(routePrefix(dirs) + "/opengraph-image." + extOr(name, imageExts, "png"))
	case strings.Contains(name, "twitter-image"):
		return ptr(routePrefix(dirs) + "/twitter-image." + extOr(name, imageExts, "png"))
	}
	return nil
}

// appDirs returns the directories between the app root and the file.
func appDirs(rel string) ([]string, bool) {
	for _, root := range appRoots {
		if strings.HasPrefix(rel, root+"/") {
			dir := path.Dir(strings.TrimPrefix(rel, root+"/"))
			if dir == "." {
				return nil, true
			}
			return strings.Split(dir, "/"), true
		}
	}
	return nil, false
}

// routePrefix joins the URL-visible directories; route groups and parallel
// slots do not appear in URLs.
func routePrefix(dirs []string) string {
	var b strings.Builder
	for _, d := range dirs {
		if strings.HasPrefix(d, "@") || strings.HasPrefix(d, "(") && strings.HasSuffix(d, ")") {
			continue
		}
		b.WriteString("/")
		b.WriteString(d)
	}
	return b.String()
}

// extOr returns the file's extension when it is one of allowed, else def.
func extOr(name string, allowed []string, def string) string {
	ext := strings.TrimPrefix(path.Ext(name), ".")
	for _, a := range allowed {
		if strings.EqualFold(ext, a) {
			return ext
		}
	}
	return def
}

func ptr(s string) *string {
	return &s
}
