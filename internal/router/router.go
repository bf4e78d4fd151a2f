// Package router dispatches requests by exact method and path.
//
// Routes are scanned in order and the first exact match wins. There are no
// path parameters, no normalisation (a trailing slash is a different path)
// and no 405: a path served under another method is simply not found.
package router

import (
	"net/http"
	"net/url"

	"github.com/menezmethod/macrofx/internal/apierror"
)

// Ctx is what a route handler receives: the base value bound at
// construction plus the request.
type Ctx[C any] struct {
	Base C
	Req  *http.Request
	URL  *url.URL
}

// HandlerFunc serves one route.
type HandlerFunc[C any] func(w http.ResponseWriter, c Ctx[C])

// Route pairs a method and exact path with a handler.
type Route[C any] struct {
	Method  string
	Path    string
	Handler HandlerFunc[C]
}

// New returns a constructor binding routes to a base value.
// The route slice is copied; later changes to it have no effect.
func New[C any](routes []Route[C]) func(base C) http.Handler {
	table := append([]Route[C](nil), routes...)
	return func(base C) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			for _, rt := range table {
				if rt.Method == r.Method && rt.Path == r.URL.Path {
					rt.Handler(w, Ctx[C]{Base: base, Req: r, URL: r.URL})
					return
				}
			}
			apierror.Write(w, apierror.NotFound())
		})
	}
}

// Std adapts a plain http.Handler to a route handler that ignores the base.
func Std[C any](h http.Handler) HandlerFunc[C] {
	return func(w http.ResponseWriter, c Ctx[C]) {
		h.ServeHTTP(w, c.Req)
	}
}
