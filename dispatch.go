package kernel

import (
	"context"
	"fmt"
	"net/http"
	"reflect"
	"unicode"
	"unicode/utf8"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/bjaus/kernel/config"
)

// Env identifies the environment the kernel runs in.
type Env string

// Known environments. Only EnvDev changes dispatch behavior.
const (
	EnvDev  Env = "dev"
	EnvProd Env = "prod"
	EnvTest Env = "test"
)

// Action method naming conventions.
const (
	// InvokeMethod is called when a route names no action.
	InvokeMethod = "Invoke"

	// ActionSuffix is appended to a route's action name to form the method name.
	ActionSuffix = "Action"
)

// Dispatcher turns a request into a response: it matches a route, runs the
// after-router listeners, builds the controller, binds the action parameters,
// calls the action, runs the after-controller listeners and finalizes the
// response.
//
// Usage:
//  1. Create a Locator and register the Router under RouterKey plus any
//     services controllers depend on
//  2. Create a dispatcher with New
//  3. Register controllers with RegisterController
//  4. Dispatch requests with Execute, or mount the dispatcher as an http.Handler
//
// Dispatcher is safe for concurrent use after configuration. Do not call
// RegisterController or add listeners after dispatching has started.
type Dispatcher struct {
	env         Env
	config      *config.Config
	locator     *Locator
	events      *Events
	controllers map[string]*controller
	logger      *zap.Logger
	tracer      trace.Tracer
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithEvents sets the listener registry. Listeners added with
// WithAfterRouter or WithAfterController are kept and run after the
// registry's own listeners, whichever order the options are given in.
func WithEvents(e *Events) Option {
	return func(d *Dispatcher) {
		if e == d.events {
			return
		}
		e.afterRouter = append(e.afterRouter, d.events.afterRouter...)
		e.afterController = append(e.afterController, d.events.afterController...)
		d.events = e
	}
}

// WithAfterRouter adds an after-router listener, optionally scoped by matchers.
//
// Example:
//
//	kernel.WithAfterRouter(func(ctx context.Context, ev *kernel.AfterRouterEvent) error {
//	    if ev.Request.Header.Get("X-Maintenance") != "" {
//	        ev.Response = kernel.NewResponse("down for maintenance", http.StatusServiceUnavailable)
//	    }
//	    return nil
//	})
func WithAfterRouter(fn AfterRouterFunc, matchers ...Matcher) Option {
	return func(d *Dispatcher) {
		d.events.OnAfterRouter(fn, matchers...)
	}
}

// WithAfterController adds an after-controller listener.
func WithAfterController(fn AfterControllerFunc) Option {
	return func(d *Dispatcher) {
		d.events.OnAfterController(fn)
	}
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(d *Dispatcher) {
		d.logger = l
	}
}

// WithTracer sets the tracer used for dispatch spans. The default comes from
// the global OpenTelemetry tracer provider.
func WithTracer(t trace.Tracer) Option {
	return func(d *Dispatcher) {
		d.tracer = t
	}
}

// New creates a Dispatcher for env that resolves services from locator.
// cfg may be nil.
func New(env Env, cfg *config.Config, locator *Locator, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		env:         env,
		config:      cfg,
		locator:     locator,
		events:      NewEvents(),
		controllers: make(map[string]*controller),
		logger:      zap.NewNop(),
		tracer:      otel.Tracer("github.com/bjaus/kernel"),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Env returns the environment the dispatcher was created for.
func (d *Dispatcher) Env() Env { return d.env }

// Config returns the configuration handle, which may be nil.
func (d *Dispatcher) Config() *config.Config { return d.config }

// Locator returns the service locator.
func (d *Dispatcher) Locator() *Locator { return d.locator }

// Events returns the listener registry.
func (d *Dispatcher) Events() *Events { return d.events }

// Execute dispatches req and returns the finalized response.
//
// The dispatch flow:
//  1. Match the route with the Router registered under RouterKey
//  2. Run after-router listeners; adopt the route they leave on the event
//  3. Return the listeners' response as-is if one was set
//  4. Look up the route's controller
//  5. Build the controller, autowiring its constructor
//  6. Resolve the action method: Invoke, or the action name plus "Action"
//  7. Bind route parameters to the action's declared parameters and call it
//  8. Run after-controller listeners; adopt the response they leave
//  9. Prepare the response for the request
//  10. Pretty-print JSON responses in the dev environment
//
// Any failure aborts the remaining steps.
func (d *Dispatcher) Execute(ctx context.Context, req *http.Request) (resp Response, err error) {
	ctx, span := d.tracer.Start(ctx, "kernel.Execute", trace.WithAttributes(
		attribute.String("http.method", req.Method),
		attribute.String("url.path", req.URL.Path),
	))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	router, err := d.router()
	if err != nil {
		return nil, err
	}

	route, err := router.MatchRoute(req)
	if err != nil {
		return nil, err
	}
	d.logger.Debug("route matched",
		zap.String("route", route.Name),
		zap.String("controller", route.Controller),
		zap.String("action", route.Action),
	)

	routed, err := d.events.DispatchAfterRouter(ctx, &AfterRouterEvent{Route: route, Request: req})
	if err != nil {
		return nil, err
	}
	route = routed.Route

	if routed.Response != nil {
		d.logger.Debug("dispatch short-circuited by after router listener",
			zap.String("controller", route.Controller),
		)
		span.SetAttributes(attribute.Bool("kernel.short_circuit", true))
		return routed.Response, nil
	}

	if route.Controller == "" {
		return nil, &DispatchError{Controller: route.Name, Err: ErrInvalidController}
	}
	if _, ok := d.controllers[route.Controller]; !ok {
		return nil, &DispatchError{Controller: route.Controller, Err: ErrControllerNotFound}
	}

	ctrl, err := d.Instantiate(ctx, route.Controller)
	if err != nil {
		return nil, err
	}

	methodName := InvokeMethod
	if route.Action != "" {
		methodName = actionMethod(route.Action)
	}
	span.SetAttributes(
		attribute.String("kernel.controller", route.Controller),
		attribute.String("kernel.action", methodName),
	)

	method := reflect.ValueOf(ctrl).MethodByName(methodName)
	if !method.IsValid() {
		cause := ErrActionNotFound
		if route.Action == "" {
			cause = ErrNoAction
		}
		return nil, &DispatchError{Controller: route.Controller, Action: methodName, Err: cause}
	}

	args, err := bindParams(method, methodName, d.controllers[route.Controller].params[methodName], route)
	if err != nil {
		return nil, err
	}

	if !returnsResponse(method.Type()) {
		return nil, &DispatchError{Controller: route.Controller, Action: methodName, Err: ErrInvalidResponse}
	}

	d.logger.Debug("invoking action",
		zap.String("controller", route.Controller),
		zap.String("action", methodName),
	)
	resp, err = callAction(method, args)
	if err != nil {
		return nil, fmt.Errorf("%s::%s: %w", route.Controller, methodName, err)
	}
	if resp == nil {
		return nil, &DispatchError{Controller: route.Controller, Action: methodName, Err: ErrInvalidResponse}
	}

	resp, err = d.events.DispatchAfterController(ctx, &AfterControllerEvent{Response: resp, Request: req})
	if err != nil {
		return nil, err
	}
	if resp == nil {
		return nil, &DispatchError{Controller: route.Controller, Action: methodName, Err: ErrInvalidResponse}
	}

	resp.Prepare(req)

	if jr, ok := resp.(*JSONResponse); ok && d.env == EnvDev {
		jr.SetEncodingOptions(jr.EncodingOptions() | EncodePrettyPrint)
	}

	return resp, nil
}

// router returns the Router registered under RouterKey.
func (d *Dispatcher) router() (Router, error) {
	svc, err := d.locator.Get(RouterKey)
	if err != nil {
		return nil, err
	}
	router, ok := svc.(Router)
	if !ok {
		return nil, &ConfigurationError{Subject: RouterKey, Reason: fmt.Sprintf("%T does not implement Router", svc)}
	}
	return router, nil
}

// actionMethod returns the method name for a route action: the action with
// its first letter upper-cased, plus ActionSuffix.
func actionMethod(action string) string {
	r, size := utf8.DecodeRuneInString(action)
	return string(unicode.ToUpper(r)) + action[size:] + ActionSuffix
}

// returnsResponse reports whether a method returns Response or
// (Response, error).
func returnsResponse(typ reflect.Type) bool {
	switch typ.NumOut() {
	case 1:
		return typ.Out(0).Implements(responseType)
	case 2:
		return typ.Out(0).Implements(responseType) && typ.Out(1) == errorType
	default:
		return false
	}
}

// callAction calls method and unpacks its Response and optional error.
func callAction(method reflect.Value, args []reflect.Value) (Response, error) {
	out := method.Call(args)

	if len(out) == 2 && !out[1].IsNil() {
		err, _ := out[1].Interface().(error)
		return nil, err
	}

	if isNil(out[0]) {
		return nil, nil
	}
	resp, _ := out[0].Interface().(Response)
	return resp, nil
}

// isNil reports whether v holds a nil interface or nil pointer.
func isNil(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Interface, reflect.Ptr:
		return v.IsNil()
	default:
		return false
	}
}

var responseType = reflect.TypeOf((*Response)(nil)).Elem()
