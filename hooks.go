package kernel

import (
	"context"
	"fmt"
	"net/http"
)

// AfterRouterEvent is passed to after-router listeners once a route has been
// matched. Listeners may replace Route, or set Response to end dispatch
// without running a controller.
type AfterRouterEvent struct {
	Route    Route
	Response Response
	Request  *http.Request
}

// AfterControllerEvent is passed to after-controller listeners with the
// response the action returned. Listeners may replace Response; the
// dispatcher uses whatever the event holds once all listeners have run.
type AfterControllerEvent struct {
	Response Response
	Request  *http.Request
}

// AfterRouterFunc is called after route matching.
// Return an error to abort dispatch.
type AfterRouterFunc func(ctx context.Context, ev *AfterRouterEvent) error

// AfterControllerFunc is called after the controller action returns.
// Return an error to abort dispatch.
type AfterControllerFunc func(ctx context.Context, ev *AfterControllerEvent) error

type routerListener struct {
	fn      AfterRouterFunc
	matcher Matcher
}

// Events holds the after-router and after-controller listeners. It is passed
// to the Dispatcher explicitly; there is no package-level registry.
//
// Register listeners during startup. Dispatching is safe for concurrent use
// once registration is complete.
type Events struct {
	afterRouter     []routerListener
	afterController []AfterControllerFunc
}

// NewEvents returns an empty listener registry.
func NewEvents() *Events {
	return &Events{}
}

// OnAfterRouter adds an after-router listener. When matchers are given the
// listener only runs for routes matching all of them.
//
// Example:
//
//	events.OnAfterRouter(func(ctx context.Context, ev *kernel.AfterRouterEvent) error {
//	    if !authorized(ev.Request) {
//	        ev.Response = kernel.NewResponse("forbidden", http.StatusForbidden)
//	    }
//	    return nil
//	}, kernel.ControllerIs("admin"))
func (e *Events) OnAfterRouter(fn AfterRouterFunc, matchers ...Matcher) {
	l := routerListener{fn: fn}
	if len(matchers) > 0 {
		l.matcher = And(matchers...)
	}
	e.afterRouter = append(e.afterRouter, l)
}

// OnAfterController adds an after-controller listener.
// Multiple listeners are called in registration order.
func (e *Events) OnAfterController(fn AfterControllerFunc) {
	e.afterController = append(e.afterController, fn)
}

// DispatchAfterRouter runs after-router listeners in order and returns the
// event. Matchers are evaluated against the route as it stands when the
// listener is reached. Once a listener sets a Response the remaining
// listeners are skipped.
func (e *Events) DispatchAfterRouter(ctx context.Context, ev *AfterRouterEvent) (*AfterRouterEvent, error) {
	for _, l := range e.afterRouter {
		if ev.Response != nil {
			break
		}
		if l.matcher != nil && !l.matcher.Match(ev.Route) {
			continue
		}
		if err := l.fn(ctx, ev); err != nil {
			return ev, fmt.Errorf("after router listener: %w", err)
		}
	}
	return ev, nil
}

// DispatchAfterController runs all after-controller listeners in order and
// returns the response the event holds afterwards.
func (e *Events) DispatchAfterController(ctx context.Context, ev *AfterControllerEvent) (Response, error) {
	for _, fn := range e.afterController {
		if err := fn(ctx, ev); err != nil {
			return nil, fmt.Errorf("after controller listener: %w", err)
		}
	}
	return ev.Response, nil
}
