package kernel

import (
	"errors"
	"fmt"
	"reflect"
)

// Sentinel causes carried by DispatchError. Use errors.Is to test for them.
var (
	// ErrInvalidController is returned when the matched route names no controller.
	ErrInvalidController = errors.New("route provides no controller")

	// ErrControllerNotFound is returned when the route's controller is not registered.
	ErrControllerNotFound = errors.New("controller class not found")

	// ErrNilController is returned when a controller constructor returns nil.
	ErrNilController = errors.New("constructor returned a nil controller")

	// ErrNoAction is returned when the route has no action and the controller
	// has no Invoke method.
	ErrNoAction = errors.New("no action or invoke method")

	// ErrActionNotFound is returned when the resolved action method does not
	// exist on the controller.
	ErrActionNotFound = errors.New("action not found")

	// ErrInvalidResponse is returned when an action does not produce a Response.
	ErrInvalidResponse = errors.New("action did not return a response")
)

// RoutingError is returned by a Router when no route matches the request.
type RoutingError struct {
	Method string
	Path   string
}

func (e *RoutingError) Error() string {
	return fmt.Sprintf("no route matched %s %s", e.Method, e.Path)
}

// ConfigurationError reports a controller or kernel wiring problem, such as a
// constructor parameter that has no concrete type to autowire against.
type ConfigurationError struct {
	Subject string
	Reason  string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error: %s: %s", e.Subject, e.Reason)
}

// ServiceNotFoundError is returned by the Locator when a key or type has no
// registered service.
type ServiceNotFoundError struct {
	Key  string
	Type reflect.Type
}

func (e *ServiceNotFoundError) Error() string {
	if e.Type != nil {
		return fmt.Sprintf("service not found for type %s", e.Type)
	}
	return fmt.Sprintf("service not found: %q", e.Key)
}

// DispatchError reports a failure to resolve or invoke the controller action
// for a route. Err is one of the sentinel causes above.
type DispatchError struct {
	Controller string
	Action     string
	Err        error
}

func (e *DispatchError) Error() string {
	if e.Action != "" {
		return fmt.Sprintf("dispatch %s::%s: %v", e.Controller, e.Action, e.Err)
	}
	return fmt.Sprintf("dispatch %s: %v", e.Controller, e.Err)
}

func (e *DispatchError) Unwrap() error { return e.Err }

// ParameterBindingError is returned when an action parameter cannot be
// satisfied from the route parameters.
type ParameterBindingError struct {
	Action string
	Param  string
	Err    error
}

func (e *ParameterBindingError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("bind %s parameter %q: %v", e.Action, e.Param, e.Err)
	}
	return fmt.Sprintf("bind %s parameter %q: missing from route", e.Action, e.Param)
}

func (e *ParameterBindingError) Unwrap() error { return e.Err }
