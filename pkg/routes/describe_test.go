package routes

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func urlOf(t *testing.T, path string) *string {
	t.Helper()
	info, err := Describe(path)
	require.NoError(t, err)
	return info.URL
}

func TestDescribe_AppURLs(t *testing.T) {
	tests := []struct {
		path string
		url  string
	}{
		{"app/page.tsx", "/"},
		{"src/app/page.tsx", "/"},
		{"app/blog/[slug]/page.tsx", "/blog/[slug]"},
		{"app/(marketing)/about/page.tsx", "/about"},
		{"app/dashboard/@analytics/page.tsx", "/dashboard"},
		{"app/docs/[[...slug]]/page.mdx", "/docs/[[...slug]]"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			url := urlOf(t, tt.path)
			require.NotNil(t, url)
			assert.Equal(t, tt.url, *url)
		})
	}
}

func TestDescribe_PagesURLs(t *testing.T) {
	tests := []struct {
		path string
		url  string
	}{
		{"pages/index.tsx", "/"},
		{"pages/about.tsx", "/about"},
		{"src/pages/blog/index.js", "/blog"},
		{"pages/blog/[...params].tsx", "/blog/[...params]"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			url := urlOf(t, tt.path)
			require.NotNil(t, url)
			assert.Equal(t, tt.url, *url)
		})
	}
}

func TestDescribe_NoURL(t *testing.T) {
	for _, path := range []string{
		"app/layout.tsx",
		"app/dashboard/loading.tsx",
		"app/error.tsx",
		"app/not-found.tsx",
		"app/@modal/default.tsx",
		"app/template.tsx",
		"middleware.ts",
		"pages/_app.tsx",
		"pages/_document.tsx",
		"pages/_error.tsx",
	} {
		t.Run(path, func(t *testing.T) {
			assert.Nil(t, urlOf(t, path))
		})
	}
}

func TestDescribe_GroupsAndFlags(t *testing.T) {
	info, err := Describe("app/(shop)/(checkout)/cart/[[...items]]/page.tsx")
	require.NoError(t, err)

	assert.Equal(t, "page.tsx", info.Name)
	assert.Equal(t, RolePage, info.Role)
	assert.Equal(t, RouterApp, info.Router)
	assert.Equal(t, []string{"(shop)", "(checkout)", "cart", "[[...items]]"}, info.Segments)
	assert.Equal(t, []string{"shop", "checkout"}, info.RouteGroups)
	assert.True(t, info.CatchAll)
	assert.True(t, info.Optional)
	require.NotNil(t, info.URL)
	assert.Equal(t, "/cart/[[...items]]", *info.URL)
}

func TestDescribe_MiddlewareHasNoSegments(t *testing.T) {
	info, err := Describe("src/middleware.ts")
	require.NoError(t, err)

	assert.Equal(t, RouterMiddleware, info.Router)
	assert.Equal(t, RoleMiddleware, info.Role)
	assert.Empty(t, info.Segments)
	assert.Empty(t, info.RouteGroups)
	assert.Nil(t, info.URL)
}

func TestDescribeAPI_Endpoints(t *testing.T) {
	tests := []struct {
		path     string
		endpoint string
		router   Router
		catchAll bool
		optional bool
	}{
		{"app/api/users/[id]/route.ts", "/api/users/[id]", RouterApp, false, false},
		{"pages/api/docs/[[...slug]].ts", "/api/docs/[...slug]", RouterPages, true, true},
		{"src/app/api/(v1)/health/route.js", "/api/health", RouterApp, false, false},
		{"app/webhooks/[...event]/route.ts", "/webhooks/[...event]", RouterApp, true, false},
		{"pages/api/index.ts", "/api", RouterPages, false, false},
		{"src/pages/api/auth/[...nextauth].js", "/api/auth/[...nextauth]", RouterPages, true, false},
		{"app/route.ts", "/", RouterApp, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			info, err := DescribeAPI(tt.path)
			require.NoError(t, err)
			assert.Equal(t, tt.endpoint, info.Endpoint)
			assert.Equal(t, tt.router, info.Router)
			assert.Equal(t, tt.catchAll, info.CatchAll)
			assert.Equal(t, tt.optional, info.Optional)
			assert.NotNil(t, info.Methods)
		})
	}
}

func TestDescribe_APIHandlerURLMatchesEndpoint(t *testing.T) {
	info, err := Describe("pages/api/docs/[[...slug]].ts")
	require.NoError(t, err)
	require.NotNil(t, info.URL)
	assert.Equal(t, "/api/docs/[...slug]", *info.URL)
}

func TestDescribe_InvalidPath(t *testing.T) {
	_, err := Describe("")
	var invalid *InvalidPathError
	assert.ErrorAs(t, err, &invalid)

	_, err = DescribeAPI("/")
	assert.ErrorAs(t, err, &invalid)
}
