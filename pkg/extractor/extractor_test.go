package extractor

import (
	"errors"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gnana997/nextscope/pkg/parser"
	"github.com/gnana997/nextscope/pkg/parser/queries"
)

// setupExtractor creates an extractor for testing
func setupExtractor(t *testing.T) (*Extractor, *parser.ParserManager) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	pm := parser.NewParserManager(logger)
	qm := queries.NewQueryManager(logger)
	t.Cleanup(func() {
		qm.Close()
		pm.Close()
	})
	return NewExtractor(pm, qm, logger), pm
}

func extract(t *testing.T, path, source string) *FileAnalysis {
	t.Helper()
	e, _ := setupExtractor(t)
	analysis, err := e.ExtractFile(path, []byte(source))
	require.NoError(t, err)
	require.NotNil(t, analysis)
	return analysis
}

func TestExtract_UseClientDirective(t *testing.T) {
	testCases := []struct {
		name   string
		source string
		client bool
	}{
		{"double quotes", `"use client"
export default function P() { return null }`, true},
		{"single quotes", `'use client';`, true},
		{"case and padding", `'  Use Client '`, true},
		{"after comment", `// client page
'use client'
export default function P() { return null }`, true},
		{"after other directive", `'use strict';
'use client';`, true},
		{"not leading", `import x from 'x'
'use client'`, false},
		{"use server", `'use server'`, false},
		{"plain string", `const mode = 'use client'`, false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			analysis := extract(t, "app/page.jsx", tc.source)
			assert.Equal(t, tc.client, analysis.Features.IsClientComponent)
		})
	}
}

func TestExtract_DataFetchingDeclarations(t *testing.T) {
	source := `export async function getStaticProps() { return { props: {} } }
export const getStaticPaths = async () => ({ paths: [], fallback: false })
export const generateStaticParams = function () { return [] }
function generateMetadata() { return {} }
export { generateMetadata }
`
	f := extract(t, "pages/blog/[slug].js", source).Features

	assert.True(t, f.HasGetStaticProps)
	assert.True(t, f.HasGetStaticPaths)
	assert.True(t, f.HasGenerateStaticParams)
	assert.True(t, f.HasGenerateMetadata)
	assert.False(t, f.HasGetServerSideProps)
}

func TestExtract_ReexportedDataFetching(t *testing.T) {
	source := `export { loadProps as getServerSideProps } from '../lib/props'
export default function Page() { return null }
`
	f := extract(t, "pages/account.js", source).Features
	assert.True(t, f.HasGetServerSideProps)
}

func TestExtract_NonFunctionDeclaratorIsNotDataFetching(t *testing.T) {
	f := extract(t, "pages/index.js", `export const getStaticProps = null`).Features
	assert.False(t, f.HasGetStaticProps)
}

func TestExtract_SegmentConfig(t *testing.T) {
	source := `export const revalidate = 3600
export const runtime = 'edge'
export const fetchCache = 'force-cache'
export const dynamic = 'force-static'
export const metadata = { title: 'Docs' }
`
	f := extract(t, "app/docs/page.tsx", source).Features

	assert.Equal(t, seconds(3600), f.Revalidate)
	assert.Equal(t, "edge", f.Runtime)
	assert.Equal(t, "force-cache", f.FetchCache)
	assert.Equal(t, "force-static", f.Dynamic)
	assert.True(t, f.HasMetadata)
}

func TestExtract_RevalidateValues(t *testing.T) {
	testCases := []struct {
		name   string
		source string
		want   Revalidate
	}{
		{"false", `export const revalidate = false`, Revalidate{Kind: RevalidateFalse}},
		{"zero", `export const revalidate = 0`, seconds(0)},
		{"separators", `export const revalidate = 1_000`, seconds(1000)},
		{"hex", `export const revalidate = 0x3C`, seconds(60)},
		{"arithmetic", `export const revalidate = 60 * 60 * 24`, seconds(86400)},
		{"parenthesized", `export const revalidate = (60)`, seconds(60)},
		{"as const", `export const revalidate = 60 as const`, seconds(60)},
		{"true", `export const revalidate = true`, Revalidate{Kind: RevalidateUnknown}},
		{"identifier", `const HOUR = 3600
export const revalidate = HOUR`, Revalidate{Kind: RevalidateUnknown}},
		{"string", `export const revalidate = '60'`, Revalidate{Kind: RevalidateUnknown}},
		{"division by zero", `export const revalidate = 1 / 0`, Revalidate{Kind: RevalidateUnknown}},
		{"absent", `export const dynamic = 'auto'`, Revalidate{}},
		{"lowest wins", `export const revalidate = 600
async function load() {
  return fetch('https://example.com', { next: { revalidate: 60 } })
}`, seconds(60)},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			f := extract(t, "app/page.ts", tc.source).Features
			assert.Equal(t, tc.want, f.Revalidate)
		})
	}
}

func TestExtract_NonStringModesIgnored(t *testing.T) {
	source := `const mode = 'force-dynamic'
export const dynamic = mode
export const runtime = 42
`
	f := extract(t, "app/page.js", source).Features
	assert.Empty(t, f.Dynamic)
	assert.Empty(t, f.Runtime)
}

func TestExtract_FetchCacheHints(t *testing.T) {
	source := `export default async function Page() {
  const a = await fetch('/a', { cache: 'no-store' })
  const b = await fetch('/b', { cache: 'force-cache', next: { tags: ['b'] } })
  const c = await fetch('/c', options)
  const d = await fetch('/d')
  return null
}
`
	f := extract(t, "app/page.js", source).Features
	assert.True(t, f.HasFetchNoStore)
	assert.True(t, f.HasFetchForceCache)
	assert.Empty(t, f.FetchCache, "fetch hints are tracked separately from fetchCache")
}

func TestExtract_ServerAPIsAndHooks(t *testing.T) {
	source := `import { cookies as readCookies, headers } from 'next/headers'
import { notFound, redirect, useSearchParams } from 'next/navigation'
import { unstable_cache } from 'next/cache'
import { useEffect, useLayoutEffect, useState } from 'react'

const getUser = unstable_cache.bind(null)
`
	f := extract(t, "app/page.js", source).Features

	assert.True(t, f.UsesCookies, "matched on the imported name")
	assert.True(t, f.UsesHeaders)
	assert.True(t, f.UsesNotFound)
	assert.True(t, f.UsesRedirect)
	assert.True(t, f.UsesSearchParams)
	assert.True(t, f.UsesUnstableCache, "member call on unstable_cache")
	assert.False(t, f.HasUseEffect, "importing a hook is not calling it")
}

func TestExtract_CallExpressions(t *testing.T) {
	source := `'use client'
export default function Widget() {
  const [open, setOpen] = useState(false)
  useEffect(() => {}, [])
  useLayoutEffect(() => {})
  if (!open) notFound()
  return null
}
async function action() {
  const jar = cookies()
  headers()
  redirect('/done')
  return unstable_cache(async () => 1)()
}
`
	f := extract(t, "app/widget/page.jsx", source).Features

	assert.True(t, f.IsClientComponent)
	assert.True(t, f.HasUseState)
	assert.True(t, f.HasUseEffect)
	assert.True(t, f.HasUseLayoutEffect)
	assert.True(t, f.UsesNotFound)
	assert.True(t, f.UsesCookies)
	assert.True(t, f.UsesHeaders)
	assert.True(t, f.UsesRedirect)
	assert.True(t, f.UsesUnstableCache)
	assert.False(t, f.UsesSearchParams)
}

func TestExtract_UnrelatedImportsIgnored(t *testing.T) {
	source := `import { cookies } from './cookies'
import { useSearchParams } from 'some-router'
`
	f := extract(t, "app/page.js", source).Features
	assert.False(t, f.UsesCookies)
	assert.False(t, f.UsesSearchParams)
}

func TestExtract_NestedKeysAtAnyDepth(t *testing.T) {
	source := `export default {
  config: { options: { dynamic: 'force-dynamic', cache: 'no-store' } },
}
`
	f := extract(t, "app/page.js", source).Features
	assert.Equal(t, "force-dynamic", f.Dynamic)
	assert.True(t, f.HasFetchNoStore)
}

func TestExtract_TypeScriptWrappers(t *testing.T) {
	source := `import type { Metadata } from 'next'

export const metadata: Metadata = { title: 'Home' }
export const dynamic = ('force-dynamic' as const)
export const revalidate = 300 satisfies number

export default async function Page(): Promise<JSX.Element> {
  const data = await fetch('/api', { cache: 'no-store' } as RequestInit)
  return <pre>{JSON.stringify(data)}</pre>
}
`
	f := extract(t, "app/page.tsx", source).Features
	assert.True(t, f.HasMetadata)
	assert.Equal(t, "force-dynamic", f.Dynamic)
	assert.Equal(t, seconds(300), f.Revalidate)
	assert.True(t, f.HasFetchNoStore)
}

func TestExtract_EmptyFileIsAllDefaults(t *testing.T) {
	analysis := extract(t, "app/page.js", "")
	assert.Equal(t, DetectedFeatures{}, *analysis.Features)
	assert.Empty(t, analysis.Methods)
	assert.Empty(t, analysis.Imports)
}

func TestExtractFeatures_Idempotent(t *testing.T) {
	_, pm := setupExtractor(t)
	source := []byte(`'use client'
import { useSearchParams } from 'next/navigation'
export const revalidate = 60
export default function P() { useState(); return fetch('/x', { cache: 'force-cache' }) }
`)
	tree, err := pm.ParseStrict(source, "app/page.jsx")
	require.NoError(t, err)
	defer tree.Close()

	first := ExtractFeatures(tree, source)
	second := ExtractFeatures(tree, source)
	assert.Equal(t, first, second)
}

func TestExtractFeatures_NilTree(t *testing.T) {
	assert.Equal(t, &DetectedFeatures{}, ExtractFeatures(nil, nil))
}

func TestExtract_RouteHandlerMethods(t *testing.T) {
	source := `import { NextResponse } from 'next/server'

export async function PUT(req: Request) {
  return NextResponse.json(await req.json())
}
export const GET = async () => NextResponse.json({})
const remove = () => new Response(null, { status: 204 })
export { remove as DELETE }
export function helper() {}
`
	analysis := extract(t, "app/api/users/[id]/route.ts", source)
	assert.Equal(t, []string{"GET", "PUT", "DELETE"}, analysis.Methods)
	assert.Equal(t, []string{"next/server"}, analysis.Imports)
	assert.Equal(t, "typescript", analysis.Language)
}

func TestExtract_MethodsDeduplicated(t *testing.T) {
	source := `export function POST(req: Request): Response;
export function POST(req: Request): Response { return new Response() }
`
	analysis := extract(t, "app/api/route.ts", source)
	assert.Equal(t, []string{"POST"}, analysis.Methods)
}

func TestExtractFile_Errors(t *testing.T) {
	e, _ := setupExtractor(t)

	_, err := e.ExtractFile("app/page.py", []byte("x = 1"))
	assert.Error(t, err)

	_, err = e.ExtractFile("app/page.js", []byte("export const = ;"))
	var parseErr *parser.ParseError
	require.True(t, errors.As(err, &parseErr))
	assert.Equal(t, "app/page.js", parseErr.Path)
}

func TestParseNumber(t *testing.T) {
	testCases := []struct {
		text string
		want float64
		ok   bool
	}{
		{"60", 60, true},
		{"1.5", 1.5, true},
		{".5", 0.5, true},
		{"1e3", 1000, true},
		{"1_000_000", 1000000, true},
		{"0x1F", 31, true},
		{"0o17", 15, true},
		{"0b101", 5, true},
		{"10n", 10, true},
		{"0xFFn", 255, true},
		{"nope", 0, false},
	}
	for _, tc := range testCases {
		got, ok := parseNumber(tc.text)
		assert.Equal(t, tc.ok, ok, tc.text)
		assert.Equal(t, tc.want, got, tc.text)
	}
}
