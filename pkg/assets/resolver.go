package assets

import (
	"html/template"
	"strings"
)

// Resolver maps source asset names to URL paths.
type Resolver struct {
	manifest *Manifest
	prefix   string
}

// NewResolver creates a Resolver that prepends prefix to every resolved
// name. A nil manifest passes names through unchanged, which keeps
// development and production URLs consistent:
//
//	assets.NewResolver(nil, "/static/").Asset("app.js") // "/static/app.js"
//	assets.NewResolver(m, "/static/").Asset("app.js")   // "/static/app.a1b2c3d4.js"
func NewResolver(m *Manifest, prefix string) *Resolver {
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return &Resolver{manifest: m, prefix: prefix}
}

// Asset resolves a source asset path to its full URL path.
func (r *Resolver) Asset(source string) string {
	source = strings.TrimPrefix(source, "/")
	if r.manifest != nil {
		source = r.manifest.Resolve(source)
	}
	return r.prefix + source
}

// Funcs returns the template functions backed by r.
func (r *Resolver) Funcs() template.FuncMap {
	return template.FuncMap{"asset": r.Asset}
}
