package scanner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAssetURL(t *testing.T) {
	tests := []struct {
		path string
		want string // "" means nil
	}{
		{"public/images/logo.png", "/images/logo.png"},
		{"public/robots.txt", "/robots.txt"},
		{"app/sitemap.ts", "/sitemap.xml"},
		{"src/app/robots.js", "/robots.txt"},
		{"app/manifest.ts", "/manifest.json"},
		{"app/favicon.ico", "/favicon.ico"},
		{"app/icon.svg", "/icon.svg"},
		{"app/icon.tsx", "/icon.png"},
		{"app/apple-icon.png", "/apple-touch-icon.png"},
		{"app/apple-icon.tsx", "/apple-touch-icon.png"},
		{"app/opengraph-image.jpg", "/opengraph-image.jpg"},
		{"app/blog/opengraph-image.tsx", "/blog/opengraph-image.png"},
		{"app/(marketing)/@modal/about/twitter-image.png", "/about/twitter-image.png"},
		{"app/hero.png", ""},
		{"pages/logo.png", ""},
		{"components/icon.tsx", ""},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got := AssetURL(tt.path)
			if tt.want == "" {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, tt.want, *got)
		})
	}
}

func TestAssetTypeOf(t *testing.T) {
	tests := []struct {
		path string
		want AssetType
	}{
		{"public/logo.png", AssetStatic},
		{"public/sitemap.ts", AssetStatic},
		{"app/sitemap.ts", AssetDynamic},
		{"app/icon.tsx", AssetDynamic},
		{"app/favicon.ico", AssetDynamic},
		{"app/blog/opengraph-image.tsx", AssetDynamic},
		{"app/twitter-image.js", AssetDynamic},
		{"app/hero.png", AssetInaccessible},
		{"app/icon.png", AssetInaccessible},
		{"pages/logo.png", AssetInaccessible},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, AssetTypeOf(tt.path))
		})
	}
}

func TestDiscoverAssets(t *testing.T) {
	root := writeProject(t, map[string]string{
		"public/logo.png":              "png-bytes",
		"public/docs/guide.pdf":        "pdf",
		"app/favicon.ico":              "ico",
		"app/blog/opengraph-image.tsx": "export default function Image() { return null }",
		"app/page.tsx":                 "export default function Home() { return null }",
		"node_modules/pkg/public/x.png": "x",
	})
	s := newTestScanner(t)

	assets, err := s.DiscoverAssets(root)
	require.NoError(t, err)

	var paths []string
	for _, a := range assets {
		paths = append(paths, a.Path)
	}
	assert.Equal(t, []string{
		"app/blog/opengraph-image.tsx",
		"app/favicon.ico",
		"public/docs/guide.pdf",
		"public/logo.png",
	}, paths)

	logo := assets[3]
	assert.Equal(t, "logo.png", logo.Name)
	assert.Equal(t, ".png", logo.Extension)
	assert.Equal(t, int64(len("png-bytes")), logo.Size)
	assert.False(t, logo.LastModified.IsZero())
	require.NotNil(t, logo.URL)
	assert.Equal(t, "/logo.png", *logo.URL)
	assert.Equal(t, AssetStatic, logo.Type)

	og := assets[0]
	require.NotNil(t, og.URL)
	assert.Equal(t, "/blog/opengraph-image.png", *og.URL)
	assert.Equal(t, AssetDynamic, og.Type)
}
