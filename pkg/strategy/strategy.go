// Package strategy decides how a route file will be rendered: generated at
// build time, regenerated incrementally, or rendered on every request.
package strategy

import (
	"github.com/gnana997/nextscope/pkg/extractor"
	"github.com/gnana997/nextscope/pkg/routes"
)

// Strategy is a rendering strategy, encoded by its short name.
type Strategy string

const (
	Static         Strategy = "SSG"
	Incremental    Strategy = "ISR"
	ServerRendered Strategy = "SSR"
)

// Description returns the long name of the strategy.
func (s Strategy) Description() string {
	switch s {
	case Static:
		return "static"
	case Incremental:
		return "incremental"
	case ServerRendered:
		return "server-rendered"
	default:
		return string(s)
	}
}

// Result is a classification with the reasons behind it, earliest matching
// rule first. Rationale is never empty.
type Result struct {
	Strategy  Strategy `json:"strategy" yaml:"strategy"`
	Rationale []string `json:"rationale" yaml:"rationale"`
}

// Classify determines the rendering strategy of a file from its features and
// path facts. It never fails; nil arguments are treated as empty records.
func Classify(features *extractor.DetectedFeatures, facts *routes.PathFacts) Result {
	if features == nil {
		features = &extractor.DetectedFeatures{}
	}
	if facts == nil {
		facts = &routes.PathFacts{Router: routes.RouterUnknown, Role: routes.RoleUnknown}
	}
	in := &input{f: features, p: facts}

	if facts.Role == routes.RoleMiddleware {
		return Result{
			Strategy:  ServerRendered,
			Rationale: []string{"Middleware - always server-side rendered"},
		}
	}

	if reasons := forcedDynamicReasons(in); len(reasons) > 0 {
		return Result{Strategy: ServerRendered, Rationale: reasons}
	}

	var (
		table    []rule
		preamble []string
	)
	switch facts.Router {
	case routes.RouterPages:
		table = pagesRules
	case routes.RouterApp:
		table = appRules
	default:
		table = unknownRules
		preamble = []string{"Unknown router type - analyzing features"}
	}

	for _, r := range table {
		if r.when(in) {
			rationale := append(preamble, r.explain(in)...)
			return Result{Strategy: r.strategy, Rationale: rationale}
		}
	}

	// Unreachable: every table ends with an unconditional rule.
	return Result{Strategy: ServerRendered, Rationale: append(preamble, "No rule matched - defaulting to SSR")}
}
