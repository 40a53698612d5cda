package strategy

import (
	"fmt"
	"strings"

	"github.com/gnana997/nextscope/pkg/extractor"
	"github.com/gnana997/nextscope/pkg/routes"
)

type input struct {
	f *extractor.DetectedFeatures
	p *routes.PathFacts
}

// rule is one step of a router cascade. The first rule whose predicate holds
// decides the strategy.
type rule struct {
	name     string
	when     func(in *input) bool
	strategy Strategy
	explain  func(in *input) []string
}

// forcedRule is a condition that forces per-request rendering on its own.
type forcedRule struct {
	name    string
	when    func(in *input) bool
	explain func(in *input) string
}

func always(*input) bool { return true }

func lines(s ...string) func(*input) []string {
	return func(*input) []string { return s }
}

// Shared predicates.

func usableRevalidate(in *input) bool {
	return in.f.Revalidate.Usable()
}

// revalidateEnabled is weaker than usableRevalidate: any revalidate setting
// other than false or 0, including ones we cannot evaluate.
func revalidateEnabled(in *input) bool {
	return in.f.Revalidate.Present() && !in.f.Revalidate.OptedOut()
}

func hasStaticGeneration(in *input) bool {
	f := in.f
	return f.HasGetStaticPaths ||
		f.HasGenerateStaticParams ||
		f.FetchCache == "force-cache" ||
		f.HasFetchForceCache ||
		f.Dynamic == "force-static"
}

func forceCache(in *input) bool {
	return in.f.FetchCache == "force-cache" || in.f.HasFetchForceCache
}

func isDynamic(in *input) bool {
	return in.p.IsDynamic
}

func usesServerContext(in *input) bool {
	return in.f.UsesCookies || in.f.UsesHeaders
}

func requiredCatchAlls(p *routes.PathFacts) []routes.DynamicSegment {
	var segs []routes.DynamicSegment
	for _, seg := range p.DynamicSegments {
		if seg.CatchAll && !seg.Optional {
			segs = append(segs, seg)
		}
	}
	return segs
}

// forcedDynamicRules are all evaluated; every match is reported.
var forcedDynamicRules = []forcedRule{
	{
		name:    "server-side-props",
		when:    func(in *input) bool { return in.f.HasGetServerSideProps },
		explain: func(*input) string { return "getServerSideProps detected" },
	},
	{
		name:    "cookies",
		when:    func(in *input) bool { return in.f.UsesCookies },
		explain: func(*input) string { return "Uses cookies() - requires server context" },
	},
	{
		name:    "headers",
		when:    func(in *input) bool { return in.f.UsesHeaders },
		explain: func(*input) string { return "Uses headers() - requires server context" },
	},
	{
		name:    "force-dynamic",
		when:    func(in *input) bool { return in.f.Dynamic == "force-dynamic" },
		explain: func(*input) string { return "dynamic: 'force-dynamic' - forces SSR" },
	},
	{
		name:    "fetch-cache-no-store",
		when:    func(in *input) bool { return in.f.FetchCache == "no-store" },
		explain: func(*input) string { return "fetchCache: 'no-store' - prevents caching" },
	},
	{
		name:    "fetch-no-store",
		when:    func(in *input) bool { return in.f.HasFetchNoStore },
		explain: func(*input) string { return "fetch with cache: 'no-store' - prevents caching" },
	},
	{
		name:    "edge-server-context",
		when:    func(in *input) bool { return in.f.Runtime == "edge" && usesServerContext(in) },
		explain: func(*input) string { return "Edge runtime with server context - requires SSR" },
	},
	{
		name:    "server-search-params",
		when:    func(in *input) bool { return in.f.UsesSearchParams && !in.f.IsClientComponent },
		explain: func(*input) string { return "Uses searchParams in server component - requires SSR" },
	},
	{
		name: "catch-all-without-static-generation",
		when: func(in *input) bool {
			return len(requiredCatchAlls(in.p)) > 0 && !hasStaticGeneration(in)
		},
		explain: func(in *input) string {
			segs := requiredCatchAlls(in.p)
			names := make([]string, len(segs))
			for i, seg := range segs {
				names[i] = seg.Name
			}
			return fmt.Sprintf("Catch-all routes (%s) without static generation - requires SSR", strings.Join(names, ", "))
		},
	},
}

func forcedDynamicReasons(in *input) []string {
	var reasons []string
	for _, r := range forcedDynamicRules {
		if r.when(in) {
			reasons = append(reasons, r.explain(in))
		}
	}
	return reasons
}

var pagesRules = []rule{
	{
		name:     "server-side-props",
		when:     func(in *input) bool { return in.f.HasGetServerSideProps },
		strategy: ServerRendered,
		explain: func(in *input) []string {
			return withSegments([]string{"getServerSideProps detected"}, in.p, "")
		},
	},
	{
		name:     "static-props-revalidate",
		when:     func(in *input) bool { return in.f.HasGetStaticProps && usableRevalidate(in) },
		strategy: Incremental,
		explain: func(in *input) []string {
			out := []string{"getStaticProps with revalidate: " + in.f.Revalidate.String()}
			if !in.p.IsDynamic {
				return out
			}
			if in.f.HasGetStaticPaths {
				return withSegments(out, in.p, "with getStaticPaths")
			}
			out = append(out, "Dynamic route without getStaticPaths - may fallback to SSR")
			return withSegments(out, in.p, "")
		},
	},
	{
		name: "static-props-unseeded-dynamic",
		when: func(in *input) bool {
			return in.f.HasGetStaticProps && in.p.IsDynamic && !in.f.HasGetStaticPaths
		},
		strategy: ServerRendered,
		explain: func(in *input) []string {
			out := []string{
				"getStaticProps without revalidate",
				"Dynamic route without getStaticPaths - will fallback to SSR for unknown paths",
			}
			return withSegments(out, in.p, "")
		},
	},
	{
		name:     "static-props",
		when:     func(in *input) bool { return in.f.HasGetStaticProps },
		strategy: Static,
		explain: func(in *input) []string {
			return withSegments([]string{"getStaticProps without revalidate"}, in.p, "with getStaticPaths")
		},
	},
	{
		name:     "dynamic-without-data-fetching",
		when:     isDynamic,
		strategy: ServerRendered,
		explain: func(in *input) []string {
			return withSegments(nil, in.p, "without static generation")
		},
	},
	{
		name:     "client-component",
		when:     func(in *input) bool { return in.f.IsClientComponent },
		strategy: Static,
		explain: func(in *input) []string {
			return withHooks([]string{"Client component in Pages Router"}, in.f)
		},
	},
	{
		name:     "default",
		when:     always,
		strategy: Static,
		explain:  lines("Pages Router without explicit data fetching - defaults to SSG"),
	},
}

var appRules = []rule{
	{
		name:     "client-component-revalidate",
		when:     func(in *input) bool { return in.f.IsClientComponent && usableRevalidate(in) },
		strategy: Incremental,
		explain: func(in *input) []string {
			return append(clientComponentLines(in), "Client component with revalidate: "+in.f.Revalidate.String())
		},
	},
	{
		name:     "client-component",
		when:     func(in *input) bool { return in.f.IsClientComponent },
		strategy: Static,
		explain:  clientComponentLines,
	},
	{
		name:     "static-params-revalidate",
		when:     func(in *input) bool { return in.f.HasGenerateStaticParams && usableRevalidate(in) },
		strategy: Incremental,
		explain: func(in *input) []string {
			out := []string{"generateStaticParams with revalidate: " + in.f.Revalidate.String()}
			return withSegments(out, in.p, "with static params")
		},
	},
	{
		name:     "static-params",
		when:     func(in *input) bool { return in.f.HasGenerateStaticParams },
		strategy: Static,
		explain: func(in *input) []string {
			return withSegments([]string{"generateStaticParams without revalidate"}, in.p, "with static generation")
		},
	},
	{
		name:     "revalidate",
		when:     usableRevalidate,
		strategy: Incremental,
		explain: func(in *input) []string {
			return withSegments([]string{"revalidate: " + in.f.Revalidate.String()}, in.p, "with ISR")
		},
	},
	{
		name:     "force-cache",
		when:     forceCache,
		strategy: Static,
		explain:  lines("Force cache configuration - static generation"),
	},
	{
		name:     "force-static",
		when:     func(in *input) bool { return in.f.Dynamic == "force-static" },
		strategy: Static,
		explain:  lines("dynamic: 'force-static' - forces SSG"),
	},
	{
		name:     "unstable-cache-revalidate",
		when:     func(in *input) bool { return in.f.UsesUnstableCache && revalidateEnabled(in) },
		strategy: Incremental,
		explain:  lines("Uses unstable_cache - enables caching"),
	},
	{
		name:     "unstable-cache",
		when:     func(in *input) bool { return in.f.UsesUnstableCache },
		strategy: Static,
		explain:  lines("Uses unstable_cache - enables caching"),
	},
	{
		name:     "dynamic-without-static-generation",
		when:     func(in *input) bool { return in.p.IsDynamic && !hasStaticGeneration(in) },
		strategy: ServerRendered,
		explain: func(in *input) []string {
			context := "without static generation"
			if in.p.HasCatchAll() {
				context = "without static generation - requires SSR"
			}
			return withSegments(nil, in.p, context)
		},
	},
	{
		name:     "layout",
		when:     func(in *input) bool { return in.p.Role == routes.RoleLayout },
		strategy: Static,
		explain:  lines("Layout component - typically static"),
	},
	{
		name:     "generate-metadata",
		when:     func(in *input) bool { return in.f.HasGenerateMetadata },
		strategy: ServerRendered,
		explain:  lines("generateMetadata function - may require server rendering"),
	},
	{
		name:     "static-metadata",
		when:     func(in *input) bool { return in.f.HasMetadata },
		strategy: Static,
		explain:  lines("Static metadata export"),
	},
	{
		name:     "edge-runtime",
		when:     func(in *input) bool { return in.f.Runtime == "edge" },
		strategy: Static,
		explain:  lines("Edge runtime without server context"),
	},
	{
		name:     "default",
		when:     always,
		strategy: Static,
		explain:  lines("App Router server component without explicit configuration - defaults to SSG"),
	},
}

// unknownRules run after the "Unknown router type" preamble line.
var unknownRules = []rule{
	{
		name:     "client-component",
		when:     func(in *input) bool { return in.f.IsClientComponent },
		strategy: Static,
		explain: func(in *input) []string {
			return withHooks([]string{"Client component"}, in.f)
		},
	},
	{
		name:     "revalidate",
		when:     usableRevalidate,
		strategy: Incremental,
		explain: func(in *input) []string {
			return []string{"Revalidate configuration: " + in.f.Revalidate.String()}
		},
	},
	{
		name:     "force-cache",
		when:     forceCache,
		strategy: Static,
		explain:  lines("Force cache configuration"),
	},
	{
		name:     "dynamic-without-static-generation",
		when:     func(in *input) bool { return in.p.IsDynamic && !hasStaticGeneration(in) },
		strategy: ServerRendered,
		explain: func(in *input) []string {
			return withSegments(nil, in.p, "without static generation")
		},
	},
	{
		name:     "default",
		when:     always,
		strategy: ServerRendered,
		explain:  lines("No explicit rendering strategy detected - defaulting to SSR"),
	},
}

func clientComponentLines(in *input) []string {
	out := withHooks([]string{"Client component detected"}, in.f)
	if in.f.UsesSearchParams {
		out = append(out, "Uses searchParams in client component - hydrated on client")
	}
	return withSegments(out, in.p, "in client component")
}

func withHooks(out []string, f *extractor.DetectedFeatures) []string {
	if f.HasClientHooks() {
		out = append(out, "Uses client-side React hooks")
	}
	return out
}

// withSegments appends the dynamic segment summary when the route has any.
func withSegments(out []string, p *routes.PathFacts, context string) []string {
	if desc := DescribeSegments(p.DynamicSegments, context); desc != "" {
		out = append(out, desc)
	}
	return out
}

// DescribeSegments renders dynamic segments in path order, e.g.
// "Dynamic segments: id, ...slug (catch-all) with ISR". It returns "" when
// there are no segments.
func DescribeSegments(segs []routes.DynamicSegment, context string) string {
	if len(segs) == 0 {
		return ""
	}

	descs := make([]string, len(segs))
	for i, seg := range segs {
		desc := seg.Name
		switch {
		case seg.CatchAll && seg.Optional:
			desc = "..." + seg.Name + "? (optional catch-all)"
		case seg.CatchAll:
			desc = "..." + seg.Name + " (catch-all)"
		}
		if seg.IsFilename {
			desc += " (filename)"
		}
		descs[i] = desc
	}

	out := "Dynamic segments: " + strings.Join(descs, ", ")
	if context != "" {
		out += " " + context
	}
	return out
}

// RuleNames lists the rule names of a router's cascade in evaluation order.
func RuleNames(router routes.Router) []string {
	var table []rule
	switch router {
	case routes.RouterPages:
		table = pagesRules
	case routes.RouterApp:
		table = appRules
	case routes.RouterMiddleware:
		return []string{"middleware"}
	default:
		table = unknownRules
	}
	names := make([]string, len(table))
	for i, r := range table {
		names[i] = r.name
	}
	return names
}
