// Package routes derives routing topology from project-relative file paths.
//
// Everything here is a pure function of the path string: no file is opened and
// no filesystem state is consulted, so results are safe to compute for paths
// that do not exist yet (watch events for deleted files, MCP arguments).
package routes

import "fmt"

// Router identifies which routing system owns a file.
type Router string

const (
	RouterApp        Router = "app"
	RouterPages      Router = "pages"
	RouterMiddleware Router = "middleware"
	RouterUnknown    Router = "unknown"
)

// Role is the part a file plays in its router.
type Role string

const (
	RolePage       Role = "page"
	RoleLayout     Role = "layout"
	RoleLoading    Role = "loading"
	RoleError      Role = "error"
	RoleNotFound   Role = "not-found"
	RoleAPIHandler Role = "api-handler"
	RoleMiddleware Role = "middleware"
	RoleDefault    Role = "default"
	RoleTemplate   Role = "template"
	RoleUnknown    Role = "unknown"
)

// reservedRoles maps reserved base names to their role.
var reservedRoles = map[string]Role{
	"page":      RolePage,
	"layout":    RoleLayout,
	"loading":   RoleLoading,
	"error":     RoleError,
	"not-found": RoleNotFound,
	"default":   RoleDefault,
	"template":  RoleTemplate,
}

// DynamicSegment is one path segment that binds a route parameter.
//
// Optional is only ever set together with CatchAll.
type DynamicSegment struct {
	// Name is the parameter identifier without brackets or dots prefix.
	Name string `json:"name" yaml:"name"`

	// CatchAll segments bind one or more trailing path segments.
	CatchAll bool `json:"catchAll" yaml:"catchAll"`

	// Optional catch-alls also match zero segments.
	Optional bool `json:"optional" yaml:"optional"`

	// Position is the index in the full segment list (directories then filename).
	Position int `json:"position" yaml:"position"`

	// IsFilename is set when the parameter comes from the file's base name.
	IsFilename bool `json:"isFilename" yaml:"isFilename"`

	// OriginalPattern is the verbatim bracketed text, e.g. "[[...slug]]".
	OriginalPattern string `json:"originalPattern" yaml:"originalPattern"`
}

// PathFacts is the routing topology of one file path.
type PathFacts struct {
	Router          Router           `json:"router" yaml:"router"`
	Role            Role             `json:"routeRole" yaml:"routeRole"`
	IsDynamic       bool             `json:"isDynamic" yaml:"isDynamic"`
	DynamicSegments []DynamicSegment `json:"dynamicSegments" yaml:"dynamicSegments"`

	// Segments are the directory segments; the filename is excluded.
	Segments []string `json:"pathSegments" yaml:"pathSegments"`

	FileName  string `json:"fileName" yaml:"fileName"`
	BaseName  string `json:"baseName" yaml:"baseName"`
	Extension string `json:"extension,omitempty" yaml:"extension,omitempty"`
}

// HasCatchAll reports whether any dynamic segment is a required (non-optional) catch-all.
func (pf *PathFacts) HasCatchAll() bool {
	for _, seg := range pf.DynamicSegments {
		if seg.CatchAll && !seg.Optional {
			return true
		}
	}
	return false
}

// InvalidPathError is returned when a path has no usable segments.
type InvalidPathError struct {
	Path string
}

func (e *InvalidPathError) Error() string {
	return fmt.Sprintf("invalid path %q: no path segments", e.Path)
}
