package routes

import (
	"strings"
)

// AnalyzePath derives PathFacts from a file path.
//
// The only failure is a path with no segments (empty, or only separators),
// reported as *InvalidPathError. Any other input yields a best-effort result.
//
// Example:
//
//	facts, err := routes.AnalyzePath("app/blog/[[...slug]]/page.tsx")
//	// facts.Router == RouterApp, facts.Role == RolePage
//	// facts.DynamicSegments[0] == {Name: "slug", CatchAll: true, Optional: true, Position: 2}
func AnalyzePath(path string) (*PathFacts, error) {
	parts := splitPath(path)
	if len(parts) == 0 {
		return nil, &InvalidPathError{Path: path}
	}

	fileName := parts[len(parts)-1]
	dirs := parts[:len(parts)-1]
	baseName, ext := splitExtension(fileName)

	facts := &PathFacts{
		Segments:  append([]string{}, dirs...),
		FileName:  fileName,
		BaseName:  baseName,
		Extension: ext,
	}

	facts.Router = detectRouter(dirs, baseName)
	facts.Role = detectRole(dirs, baseName, facts.Router)
	facts.DynamicSegments = collectDynamicSegments(dirs, baseName)
	facts.IsDynamic = len(facts.DynamicSegments) > 0

	return facts, nil
}

// splitPath normalizes separators and drops empty and "." segments.
func splitPath(path string) []string {
	normalized := strings.ReplaceAll(path, `\`, "/")
	raw := strings.Split(normalized, "/")

	parts := make([]string, 0, len(raw))
	for _, p := range raw {
		if p == "" || p == "." {
			continue
		}
		parts = append(parts, p)
	}
	return parts
}

// splitExtension strips the extension from a file name. A name ending in "]"
// has no extension, so "[...slug]" keeps its dots.
func splitExtension(fileName string) (base, ext string) {
	if strings.HasSuffix(fileName, "]") {
		return fileName, ""
	}
	idx := strings.LastIndex(fileName, ".")
	if idx <= 0 {
		return fileName, ""
	}
	return fileName[:idx], fileName[idx:]
}

// routerRootIndex returns the index of the outermost exact "app" or "pages"
// directory segment, or -1.
func routerRootIndex(dirs []string) int {
	for i, seg := range dirs {
		if seg == "app" || seg == "pages" {
			return i
		}
	}
	return -1
}

func detectRouter(dirs []string, baseName string) Router {
	if baseName == "middleware" {
		return RouterMiddleware
	}
	idx := routerRootIndex(dirs)
	if idx < 0 {
		return RouterUnknown
	}
	if dirs[idx] == "app" {
		return RouterApp
	}
	return RouterPages
}

// hasCaseVariantRoot reports a directory like "App" or "PAGES": close to a
// router root but not one.
func hasCaseVariantRoot(dirs []string) bool {
	for _, seg := range dirs {
		if seg == "app" || seg == "pages" {
			continue
		}
		if strings.EqualFold(seg, "app") || strings.EqualFold(seg, "pages") {
			return true
		}
	}
	return false
}

func detectRole(dirs []string, baseName string, router Router) Role {
	if router == RouterMiddleware {
		return RoleMiddleware
	}
	if hasCaseVariantRoot(dirs) {
		return RoleUnknown
	}
	for _, seg := range dirs {
		if seg == "api" {
			return RoleAPIHandler
		}
	}
	if router == RouterApp && baseName == "route" {
		return RoleAPIHandler
	}
	if role, ok := reservedRoles[baseName]; ok {
		return role
	}
	if router == RouterPages {
		return RolePage
	}
	return RoleUnknown
}

func collectDynamicSegments(dirs []string, baseName string) []DynamicSegment {
	type key struct {
		name     string
		position int
	}
	seen := make(map[key]bool)
	var segments []DynamicSegment

	add := func(seg DynamicSegment) {
		k := key{seg.Name, seg.Position}
		if seen[k] {
			return
		}
		seen[k] = true
		segments = append(segments, seg)
	}

	for i, dir := range dirs {
		if seg, ok := parseDynamicSegment(dir, i); ok {
			add(seg)
		}
	}
	if seg, ok := parseDynamicSegment(baseName, len(dirs)); ok {
		seg.IsFilename = true
		add(seg)
	}

	return segments
}

// parseDynamicSegment classifies bracket syntax, most specific form first.
// Names may contain dots; empty names and stray brackets are static.
func parseDynamicSegment(segment string, position int) (DynamicSegment, bool) {
	seg := DynamicSegment{Position: position, OriginalPattern: segment}

	switch {
	case strings.HasPrefix(segment, "[[...") && strings.HasSuffix(segment, "]]"):
		seg.Name = segment[len("[[...") : len(segment)-len("]]")]
		seg.CatchAll = true
		seg.Optional = true
	case strings.HasPrefix(segment, "[...") && strings.HasSuffix(segment, "]"):
		seg.Name = segment[len("[...") : len(segment)-len("]")]
		seg.CatchAll = true
	case strings.HasPrefix(segment, "[") && strings.HasSuffix(segment, "]"):
		seg.Name = segment[1 : len(segment)-1]
	default:
		return DynamicSegment{}, false
	}

	if seg.Name == "" || strings.ContainsAny(seg.Name, "[]") {
		return DynamicSegment{}, false
	}
	return seg, true
}
