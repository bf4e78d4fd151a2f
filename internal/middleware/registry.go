package middleware

import "net/http"

// Registry maps names to middleware. Build it once and treat it as read-only.
type Registry map[string]Middleware

// DefineRegistry returns defs unchanged. It exists so registry literals read
// as declarations at the call site.
func DefineRegistry(defs Registry) Registry {
	return defs
}

// ComposeNamed resolves names against reg and returns one Middleware applying
// them in order: names[0] is outermost. Unknown names are skipped.
func ComposeNamed(reg Registry, names ...string) Middleware {
	mws := make([]Middleware, 0, len(names))
	for _, n := range names {
		if mw, ok := reg[n]; ok && mw != nil {
			mws = append(mws, mw)
		}
	}
	return func(h http.Handler) http.Handler {
		return Chain(h, mws...)
	}
}
