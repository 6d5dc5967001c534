package kernel

import (
	"context"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
)

// RouteDef declares a route for ChiRouter.
type RouteDef struct {
	// Name identifies the route in logs and errors.
	Name string

	// Method is the HTTP method, e.g. http.MethodGet.
	Method string

	// Pattern is a chi pattern such as "/posts/{id}/{slug}".
	Pattern string

	// Controller is the name the controller was registered under.
	Controller string

	// Action is the action name; empty calls the controller's Invoke method.
	Action string
}

// ChiRouter is a Router backed by a chi tree. Path parameters come from the
// pattern placeholders; query parameters are merged in underneath them, so a
// path parameter wins over a query parameter of the same name.
//
// Add routes during startup. MatchRoute is safe for concurrent use.
type ChiRouter struct {
	mux *chi.Mux
}

// NewChiRouter returns a router with the given routes.
//
// Example:
//
//	router := kernel.NewChiRouter(
//	    kernel.RouteDef{Name: "home", Method: http.MethodGet, Pattern: "/", Controller: "home"},
//	    kernel.RouteDef{Name: "post", Method: http.MethodGet, Pattern: "/posts/{id}/{slug}", Controller: "post", Action: "show"},
//	)
//	loc.Set(kernel.RouterKey, router)
func NewChiRouter(defs ...RouteDef) *ChiRouter {
	r := &ChiRouter{mux: chi.NewRouter()}
	for _, def := range defs {
		r.Add(def)
	}
	return r
}

// matchKey carries the in-flight match through the chi tree.
type matchKey struct{}

type match struct {
	def    *RouteDef
	params map[string]string
}

// Add registers a route. It panics on an invalid pattern, as chi does.
func (r *ChiRouter) Add(def RouteDef) {
	r.mux.Method(def.Method, def.Pattern, http.HandlerFunc(func(_ http.ResponseWriter, req *http.Request) {
		m, ok := req.Context().Value(matchKey{}).(*match)
		if !ok {
			return
		}
		m.def = &def

		// The route context is pooled by chi; copy the params out. chi
		// matches on the raw path when one is set, so values may still be
		// escaped.
		rctx := chi.RouteContext(req.Context())
		for i, key := range rctx.URLParams.Keys {
			value := rctx.URLParams.Values[i]
			if unescaped, err := url.PathUnescape(value); err == nil {
				value = unescaped
			}
			m.params[key] = value
		}
	}))
}

// MatchRoute implements Router.
func (r *ChiRouter) MatchRoute(req *http.Request) (Route, error) {
	m := &match{params: make(map[string]string)}

	// Drop any route context left by an outer chi router so this tree
	// matches from the root.
	ctx := context.WithValue(req.Context(), chi.RouteCtxKey, (*chi.Context)(nil))
	ctx = context.WithValue(ctx, matchKey{}, m)
	r.mux.ServeHTTP(discardWriter{header: make(http.Header)}, req.WithContext(ctx))

	if m.def == nil {
		return Route{}, &RoutingError{Method: req.Method, Path: req.URL.Path}
	}

	params := make(map[string]string, len(m.params))
	for key, values := range req.URL.Query() {
		if len(values) > 0 {
			params[key] = values[0]
		}
	}
	for key, value := range m.params {
		params[key] = value
	}

	return Route{
		Name:       m.def.Name,
		Controller: m.def.Controller,
		Action:     m.def.Action,
		Params:     params,
	}, nil
}

// discardWriter swallows whatever chi writes for unmatched requests.
type discardWriter struct {
	header http.Header
}

func (w discardWriter) Header() http.Header         { return w.header }
func (w discardWriter) Write(b []byte) (int, error) { return len(b), nil }
func (w discardWriter) WriteHeader(int)             {}
