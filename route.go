package kernel

import "net/http"

// Route is the result of matching a request: which controller and action to
// run and the path and query parameters available to the action.
//
// An empty Action means the controller's Invoke method is called.
type Route struct {
	Name       string
	Controller string
	Action     string
	Params     map[string]string
}

// Param returns the named route parameter.
func (r Route) Param(name string) (string, bool) {
	v, ok := r.Params[name]
	return v, ok
}

// Router matches a request to a Route. Implementations return a *RoutingError
// when nothing matches.
type Router interface {
	MatchRoute(r *http.Request) (Route, error)
}

// RouterFunc adapts a function to the Router interface.
type RouterFunc func(r *http.Request) (Route, error)

// MatchRoute implements Router.
func (f RouterFunc) MatchRoute(r *http.Request) (Route, error) { return f(r) }
