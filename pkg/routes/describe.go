package routes

import (
	"strings"
)

// RouteInfo is the listing entry for a page-like route file.
type RouteInfo struct {
	Path            string           `json:"path" yaml:"path"`
	Name            string           `json:"name" yaml:"name"`
	Role            Role             `json:"routeRole" yaml:"routeRole"`
	Router          Router           `json:"router" yaml:"router"`
	URL             *string          `json:"url" yaml:"url"`
	Segments        []string         `json:"segments" yaml:"segments"`
	DynamicSegments []DynamicSegment `json:"dynamicSegments" yaml:"dynamicSegments"`
	RouteGroups     []string         `json:"routeGroups" yaml:"routeGroups"`
	CatchAll        bool             `json:"catchAll" yaml:"catchAll"`
	Optional        bool             `json:"optional" yaml:"optional"`
}

// APIRouteInfo is the listing entry for an API handler file.
type APIRouteInfo struct {
	Path            string           `json:"path" yaml:"path"`
	Endpoint        string           `json:"endpoint" yaml:"endpoint"`
	Router          Router           `json:"router" yaml:"router"`
	Methods         []string         `json:"methods" yaml:"methods"`
	DynamicSegments []DynamicSegment `json:"dynamicSegments" yaml:"dynamicSegments"`
	CatchAll        bool             `json:"catchAll" yaml:"catchAll"`
	Optional        bool             `json:"optional" yaml:"optional"`
}

// nonURLRoles never map to a URL of their own.
var nonURLRoles = map[Role]bool{
	RoleLayout:     true,
	RoleLoading:    true,
	RoleError:      true,
	RoleNotFound:   true,
	RoleDefault:    true,
	RoleTemplate:   true,
	RoleMiddleware: true,
}

// pagesSpecialFiles are pages-router files that render no route.
var pagesSpecialFiles = map[string]bool{
	"_app":      true,
	"_document": true,
	"_error":    true,
}

// Describe builds the RouteInfo for a project-relative path.
func Describe(relPath string) (*RouteInfo, error) {
	facts, err := AnalyzePath(relPath)
	if err != nil {
		return nil, err
	}

	routeSegs := routeSegments(facts)
	info := &RouteInfo{
		Path:            strings.ReplaceAll(relPath, `\`, "/"),
		Name:            facts.FileName,
		Role:            facts.Role,
		Router:          facts.Router,
		Segments:        routeSegs,
		DynamicSegments: facts.DynamicSegments,
		RouteGroups:     routeGroups(routeSegs),
	}
	info.CatchAll, info.Optional = catchAllFlags(facts.DynamicSegments)

	if url, ok := routeURL(facts, routeSegs); ok {
		info.URL = &url
	}
	return info, nil
}

// DescribeAPI builds the APIRouteInfo for a project-relative handler path.
// Methods are left empty; they come from the file's exports.
func DescribeAPI(relPath string) (*APIRouteInfo, error) {
	facts, err := AnalyzePath(relPath)
	if err != nil {
		return nil, err
	}

	info := &APIRouteInfo{
		Path:            strings.ReplaceAll(relPath, `\`, "/"),
		Router:          facts.Router,
		Methods:         []string{},
		DynamicSegments: facts.DynamicSegments,
	}
	info.CatchAll, info.Optional = catchAllFlags(facts.DynamicSegments)
	info.Endpoint = apiEndpoint(facts)
	return info, nil
}

// routeSegments returns the segments below the router root. App routes stop at
// the directory; pages routes include the base name.
func routeSegments(facts *PathFacts) []string {
	idx := routerRootIndex(facts.Segments)
	if idx < 0 || facts.Router == RouterMiddleware {
		return []string{}
	}

	segs := append([]string{}, facts.Segments[idx+1:]...)
	if facts.Router == RouterPages {
		segs = append(segs, facts.BaseName)
	}
	return segs
}

func isRouteGroup(seg string) bool {
	return len(seg) > 2 && strings.HasPrefix(seg, "(") && strings.HasSuffix(seg, ")")
}

func isParallelSlot(seg string) bool {
	return len(seg) > 1 && strings.HasPrefix(seg, "@")
}

func routeGroups(segs []string) []string {
	groups := []string{}
	for _, seg := range segs {
		if isRouteGroup(seg) {
			groups = append(groups, seg[1:len(seg)-1])
		}
	}
	return groups
}

func catchAllFlags(segs []DynamicSegment) (catchAll, optional bool) {
	for _, seg := range segs {
		if seg.CatchAll {
			catchAll = true
		}
		if seg.Optional {
			optional = true
		}
	}
	return catchAll, optional
}

func routeURL(facts *PathFacts, routeSegs []string) (string, bool) {
	if nonURLRoles[facts.Role] {
		return "", false
	}
	if facts.Role == RoleAPIHandler {
		return apiEndpoint(facts), true
	}

	switch facts.Router {
	case RouterApp:
		if facts.Role != RolePage {
			return "", false
		}
		return joinURL("", visibleSegments(routeSegs)), true

	case RouterPages:
		if pagesSpecialFiles[facts.BaseName] {
			return "", false
		}
		segs := routeSegs
		if len(segs) > 0 && segs[len(segs)-1] == "index" {
			segs = segs[:len(segs)-1]
		}
		return joinURL("", visibleSegments(segs)), true
	}

	return "", false
}

// apiEndpoint maps a handler file to the URL it serves. Optional catch-alls
// are written as plain catch-alls, matching how handlers are addressed.
func apiEndpoint(facts *PathFacts) string {
	segs := routeSegments(facts)
	switch facts.Router {
	case RouterApp:
		return joinURL("", normalizeOptional(visibleSegments(segs)))
	case RouterPages:
		if len(segs) > 0 && segs[0] == "api" {
			segs = segs[1:]
		}
		if len(segs) > 0 && segs[len(segs)-1] == "index" {
			segs = segs[:len(segs)-1]
		}
		return joinURL("/api", normalizeOptional(segs))
	}

	// No router root: fall back to the directory path.
	return joinURL("", normalizeOptional(facts.Segments))
}

func visibleSegments(segs []string) []string {
	out := make([]string, 0, len(segs))
	for _, seg := range segs {
		if isRouteGroup(seg) || isParallelSlot(seg) {
			continue
		}
		out = append(out, seg)
	}
	return out
}

func normalizeOptional(segs []string) []string {
	out := make([]string, len(segs))
	for i, seg := range segs {
		if ds, ok := parseDynamicSegment(seg, i); ok && ds.Optional {
			out[i] = "[..." + ds.Name + "]"
			continue
		}
		out[i] = seg
	}
	return out
}

func joinURL(prefix string, segs []string) string {
	if len(segs) == 0 {
		if prefix == "" {
			return "/"
		}
		return prefix
	}
	return prefix + "/" + strings.Join(segs, "/")
}
