package kernel

import (
	"context"
	"fmt"
	"reflect"
)

// controller describes a registered controller: its constructor and the
// declared parameter names of each action that takes arguments.
type controller struct {
	name     string
	ctor     reflect.Value
	ctorType reflect.Type
	ctorErr  bool
	params   map[string][]string
}

// ControllerOption configures a controller registration.
type ControllerOption func(*controller)

// WithAction declares the parameter names of an action method, in the order
// the method takes them. Go does not retain parameter names at runtime, so
// every action with parameters needs one. Actions without parameters need no
// declaration.
//
// Example:
//
//	kernel.WithAction("ShowAction", "id", "slug")
func WithAction(method string, params ...string) ControllerOption {
	return func(c *controller) {
		c.params[method] = params
	}
}

// RegisterController makes a controller available to routes under name.
//
// The constructor must be a function returning the controller, optionally
// followed by an error. Its parameters are autowired from the Locator when a
// request is dispatched to the controller; a fresh controller is built for
// every request.
//
// Example:
//
//	d.RegisterController("post", func(store *PostStore, log *zap.Logger) *PostController {
//	    return &PostController{store: store, log: log}
//	}, kernel.WithAction("ShowAction", "id", "slug"))
func (d *Dispatcher) RegisterController(name string, ctor any, opts ...ControllerOption) error {
	c := &controller{
		name:   name,
		ctor:   reflect.ValueOf(ctor),
		params: make(map[string][]string),
	}
	if !c.ctor.IsValid() || c.ctor.Kind() != reflect.Func {
		return &ConfigurationError{Subject: name, Reason: fmt.Sprintf("constructor is not a function: %T", ctor)}
	}

	c.ctorType = c.ctor.Type()
	if c.ctorType.IsVariadic() {
		return &ConfigurationError{Subject: name, Reason: "variadic constructors are not supported"}
	}

	switch {
	case c.ctorType.NumOut() == 1 && c.ctorType.Out(0) != errorType:
	case c.ctorType.NumOut() == 2 && c.ctorType.Out(1) == errorType:
		c.ctorErr = true
	default:
		return &ConfigurationError{Subject: name, Reason: fmt.Sprintf("unexpected constructor signature: %s", c.ctorType)}
	}

	for _, opt := range opts {
		opt(c)
	}

	d.controllers[name] = c
	return nil
}

// Instantiate builds a new instance of the named controller, resolving its
// constructor parameters:
//   - an `any` parameter cannot be resolved and is a *ConfigurationError
//   - a *Locator parameter receives the locator itself, and every parameter
//     after it receives its zero value without being resolved
//   - a context.Context parameter receives ctx
//   - any other type is looked up with Locator.FindByType; a nil service is a
//     *ConfigurationError
//
// A constructor returning a nil controller is a *DispatchError wrapping
// ErrNilController.
func (d *Dispatcher) Instantiate(ctx context.Context, name string) (any, error) {
	c, ok := d.controllers[name]
	if !ok {
		return nil, &DispatchError{Controller: name, Err: ErrControllerNotFound}
	}
	if ctx == nil {
		ctx = context.Background()
	}

	args, err := d.constructorArgs(ctx, c)
	if err != nil {
		return nil, err
	}

	out := c.ctor.Call(args)
	if c.ctorErr && !out[1].IsNil() {
		err, _ := out[1].Interface().(error)
		return nil, fmt.Errorf("construct controller %s: %w", name, err)
	}
	if isNil(out[0]) {
		return nil, &DispatchError{Controller: name, Err: ErrNilController}
	}
	return out[0].Interface(), nil
}

// constructorArgs resolves the constructor arguments of c in declared order.
func (d *Dispatcher) constructorArgs(ctx context.Context, c *controller) ([]reflect.Value, error) {
	n := c.ctorType.NumIn()

	// Reject untyped parameters before touching the locator.
	for i := 0; i < n; i++ {
		in := c.ctorType.In(i)
		if in == locatorType {
			break
		}
		if isEmptyInterface(in) {
			return nil, &ConfigurationError{
				Subject: c.name,
				Reason:  fmt.Sprintf("constructor parameter %d has no type to autowire", i),
			}
		}
	}

	args := make([]reflect.Value, 0, n)
	for i := 0; i < n; i++ {
		in := c.ctorType.In(i)

		switch {
		case in == locatorType:
			args = append(args, reflect.ValueOf(d.locator))
			for j := i + 1; j < n; j++ {
				args = append(args, reflect.Zero(c.ctorType.In(j)))
			}
			return args, nil

		case in == contextType:
			args = append(args, reflect.ValueOf(ctx))

		default:
			svc, err := d.locator.FindByType(in)
			if err != nil {
				return nil, fmt.Errorf("autowire %s parameter %d: %w", c.name, i, err)
			}
			if svc == nil {
				return nil, &ConfigurationError{
					Subject: c.name,
					Reason:  fmt.Sprintf("constructor parameter %d resolved to a nil %s", i, in),
				}
			}
			args = append(args, reflect.ValueOf(svc))
		}
	}

	return args, nil
}

var (
	errorType   = reflect.TypeOf((*error)(nil)).Elem()
	contextType = reflect.TypeOf((*context.Context)(nil)).Elem()
	locatorType = reflect.TypeOf((*Locator)(nil))
)
