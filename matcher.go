package kernel

// Matcher decides whether an after-router listener applies to a route.
// Matchers are cheap predicates over the route; they never touch the request
// body.
type Matcher interface {
	Match(r Route) bool
}

// MatcherFunc adapts a function to the Matcher interface.
type MatcherFunc func(r Route) bool

// Match implements Matcher.
func (f MatcherFunc) Match(r Route) bool { return f(r) }

// ControllerIs returns a Matcher that matches routes for any of the named
// controllers.
func ControllerIs(names ...string) Matcher {
	return oneOf{field: func(r Route) string { return r.Controller }, values: names}
}

// ActionIs returns a Matcher that matches routes for any of the named actions.
// The empty string matches invoke-style routes.
func ActionIs(names ...string) Matcher {
	return oneOf{field: func(r Route) string { return r.Action }, values: names}
}

type oneOf struct {
	field  func(Route) string
	values []string
}

func (m oneOf) Match(r Route) bool {
	got := m.field(r)
	for _, v := range m.values {
		if got == v {
			return true
		}
	}
	return false
}

// HasParams returns a Matcher that matches when all named parameters exist.
func HasParams(names ...string) Matcher {
	return hasParams{names: names}
}

type hasParams struct {
	names []string
}

func (m hasParams) Match(r Route) bool {
	for _, n := range m.names {
		if _, ok := r.Params[n]; !ok {
			return false
		}
	}
	return true
}

// ParamEquals returns a Matcher that matches when the parameter exists and
// equals value.
func ParamEquals(name, value string) Matcher {
	return paramEquals{name: name, value: value}
}

type paramEquals struct {
	name  string
	value string
}

func (m paramEquals) Match(r Route) bool {
	v, ok := r.Params[m.name]
	return ok && v == m.value
}

// And returns a Matcher that matches when all matchers match.
func And(ms ...Matcher) Matcher {
	return and{ms: ms}
}

type and struct {
	ms []Matcher
}

func (m and) Match(r Route) bool {
	for _, x := range m.ms {
		if !x.Match(r) {
			return false
		}
	}
	return true
}

// Or returns a Matcher that matches when any matcher matches.
func Or(ms ...Matcher) Matcher {
	return or{ms: ms}
}

type or struct {
	ms []Matcher
}

func (m or) Match(r Route) bool {
	for _, x := range m.ms {
		if x.Match(r) {
			return true
		}
	}
	return false
}
