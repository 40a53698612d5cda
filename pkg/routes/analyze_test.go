package routes

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnalyzePath_OptionalCatchAllPage(t *testing.T) {
	facts, err := AnalyzePath("/app/[[...slug]]/page.tsx")
	require.NoError(t, err)

	assert.Equal(t, RouterApp, facts.Router)
	assert.Equal(t, RolePage, facts.Role)
	assert.True(t, facts.IsDynamic)
	require.Len(t, facts.DynamicSegments, 1)

	seg := facts.DynamicSegments[0]
	assert.Equal(t, "slug", seg.Name)
	assert.True(t, seg.CatchAll)
	assert.True(t, seg.Optional)
	assert.Equal(t, 1, seg.Position)
	assert.False(t, seg.IsFilename)
	assert.Equal(t, "[[...slug]]", seg.OriginalPattern)
	assert.Equal(t, []string{"app", "[[...slug]]"}, facts.Segments)
}

func TestAnalyzePath_PagesCatchAllFilename(t *testing.T) {
	facts, err := AnalyzePath("/pages/blog/[...params].tsx")
	require.NoError(t, err)

	assert.Equal(t, RouterPages, facts.Router)
	assert.Equal(t, RolePage, facts.Role)
	require.Len(t, facts.DynamicSegments, 1)

	seg := facts.DynamicSegments[0]
	assert.Equal(t, "params", seg.Name)
	assert.True(t, seg.CatchAll)
	assert.False(t, seg.Optional)
	assert.True(t, seg.IsFilename)
	assert.Equal(t, 2, seg.Position)
	assert.Equal(t, "[...params]", facts.BaseName)
	assert.Equal(t, ".tsx", facts.Extension)
	assert.Equal(t, []string{"pages", "blog"}, facts.Segments)
}

func TestAnalyzePath_Roles(t *testing.T) {
	tests := []struct {
		path   string
		router Router
		role   Role
	}{
		{"app/page.tsx", RouterApp, RolePage},
		{"src/app/dashboard/layout.tsx", RouterApp, RoleLayout},
		{"app/dashboard/loading.js", RouterApp, RoleLoading},
		{"app/error.jsx", RouterApp, RoleError},
		{"app/not-found.tsx", RouterApp, RoleNotFound},
		{"app/@modal/default.tsx", RouterApp, RoleDefault},
		{"app/template.tsx", RouterApp, RoleTemplate},
		{"app/api/users/route.ts", RouterApp, RoleAPIHandler},
		{"app/webhooks/route.ts", RouterApp, RoleAPIHandler},
		{"pages/api/hello.ts", RouterPages, RoleAPIHandler},
		{"pages/about.tsx", RouterPages, RolePage},
		{"pages/blog/index.js", RouterPages, RolePage},
		{"middleware.ts", RouterMiddleware, RoleMiddleware},
		{"src/middleware.js", RouterMiddleware, RoleMiddleware},
		{"app/middleware.ts", RouterMiddleware, RoleMiddleware},
		{"components/Button.tsx", RouterUnknown, RoleUnknown},
		{"lib/page.ts", RouterUnknown, RolePage},
		{"app/components/Card.tsx", RouterApp, RoleUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			facts, err := AnalyzePath(tt.path)
			require.NoError(t, err)
			assert.Equal(t, tt.router, facts.Router)
			assert.Equal(t, tt.role, facts.Role)
		})
	}
}

func TestAnalyzePath_OutermostRootWins(t *testing.T) {
	facts, err := AnalyzePath("src/app/pages/[id]/page.tsx")
	require.NoError(t, err)
	assert.Equal(t, RouterApp, facts.Router)

	facts, err = AnalyzePath("pages/app/settings.tsx")
	require.NoError(t, err)
	assert.Equal(t, RouterPages, facts.Router)
}

func TestAnalyzePath_CaseVariantRootIsUnknown(t *testing.T) {
	for _, path := range []string{"APP/page.tsx", "Pages/index.tsx", "app/Pages/page.tsx"} {
		t.Run(path, func(t *testing.T) {
			facts, err := AnalyzePath(path)
			require.NoError(t, err)
			assert.Equal(t, RoleUnknown, facts.Role)
		})
	}
}

func TestAnalyzePath_WindowsSeparators(t *testing.T) {
	facts, err := AnalyzePath(`C:\proj\app\shop\[category]\page.tsx`)
	require.NoError(t, err)

	assert.Equal(t, RouterApp, facts.Router)
	assert.Equal(t, RolePage, facts.Role)
	require.Len(t, facts.DynamicSegments, 1)
	assert.Equal(t, "category", facts.DynamicSegments[0].Name)
	assert.Equal(t, 4, facts.DynamicSegments[0].Position)
}

func TestAnalyzePath_DynamicSegmentForms(t *testing.T) {
	facts, err := AnalyzePath("app/[locale]/docs/[...path]/v[1]/[[...rest]]/[file.name]/page.tsx")
	require.NoError(t, err)

	require.Len(t, facts.DynamicSegments, 4)
	assert.Equal(t, DynamicSegment{Name: "locale", Position: 1, OriginalPattern: "[locale]"}, facts.DynamicSegments[0])
	assert.Equal(t, DynamicSegment{Name: "path", CatchAll: true, Position: 3, OriginalPattern: "[...path]"}, facts.DynamicSegments[1])
	assert.Equal(t, DynamicSegment{Name: "rest", CatchAll: true, Optional: true, Position: 5, OriginalPattern: "[[...rest]]"}, facts.DynamicSegments[2])
	assert.Equal(t, DynamicSegment{Name: "file.name", Position: 6, OriginalPattern: "[file.name]"}, facts.DynamicSegments[3])
}

func TestAnalyzePath_MalformedBracketsAreStatic(t *testing.T) {
	for _, path := range []string{"app/[]/page.tsx", "app/[...]/page.tsx", "app/[[...]]/page.tsx", "app/[[id]]/page.tsx", "app/[id/page.tsx"} {
		t.Run(path, func(t *testing.T) {
			facts, err := AnalyzePath(path)
			require.NoError(t, err)
			assert.False(t, facts.IsDynamic)
			assert.Empty(t, facts.DynamicSegments)
		})
	}
}

func TestAnalyzePath_FilenameWithoutExtension(t *testing.T) {
	facts, err := AnalyzePath("pages/docs/[...slug]")
	require.NoError(t, err)

	assert.Equal(t, "[...slug]", facts.BaseName)
	assert.Empty(t, facts.Extension)
	require.Len(t, facts.DynamicSegments, 1)
	assert.Equal(t, "slug", facts.DynamicSegments[0].Name)
	assert.True(t, facts.DynamicSegments[0].IsFilename)
}

func TestAnalyzePath_InvalidPath(t *testing.T) {
	for _, path := range []string{"", "/", `\\`, "///"} {
		facts, err := AnalyzePath(path)
		assert.Nil(t, facts)

		var invalid *InvalidPathError
		require.ErrorAs(t, err, &invalid)
		assert.Equal(t, path, invalid.Path)
	}
}

func TestAnalyzePath_Invariants(t *testing.T) {
	paths := []string{
		"app/page.tsx",
		"app/[id]/page.tsx",
		"app/(shop)/[[...cart]]/page.tsx",
		"pages/[...all].js",
		"pages/[[...opt]].js",
		"weird/[[...]]/x",
		"[a]/[b]/[c].ts",
		"middleware.ts",
		".env",
	}

	for _, path := range paths {
		facts, err := AnalyzePath(path)
		require.NoError(t, err, path)
		assert.Equal(t, len(facts.DynamicSegments) > 0, facts.IsDynamic, path)
		for _, seg := range facts.DynamicSegments {
			if seg.Optional {
				assert.True(t, seg.CatchAll, "%s: optional segment %q must be catch-all", path, seg.Name)
			}
		}
	}
}

func TestPathFacts_HasCatchAll(t *testing.T) {
	required, err := AnalyzePath("app/[...slug]/page.tsx")
	require.NoError(t, err)
	assert.True(t, required.HasCatchAll())

	optional, err := AnalyzePath("app/[[...slug]]/page.tsx")
	require.NoError(t, err)
	assert.False(t, optional.HasCatchAll())
}
