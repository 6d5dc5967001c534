package kernel

import (
	"fmt"
	"reflect"
	"sync"
)

// Well-known locator keys consulted by the Dispatcher.
const (
	RouterKey = "router"
)

// Locator is a keyed service registry. Services are looked up either by the
// key they were registered under or by type, which is how controller
// constructors are autowired.
//
// Register services during startup. Lookups are safe for concurrent use.
type Locator struct {
	mu      sync.RWMutex
	entries map[string]*entry
	order   []string
}

// entry holds one registered service. Lazily built services run their
// factory exactly once.
type entry struct {
	typ   reflect.Type
	once  sync.Once
	build func(*Locator) (any, error)
	value any
	err   error
}

func (e *entry) get(l *Locator) (any, error) {
	if e.build != nil {
		e.once.Do(func() {
			e.value, e.err = e.build(l)
		})
	}
	return e.value, e.err
}

// NewLocator returns an empty Locator.
func NewLocator() *Locator {
	return &Locator{entries: make(map[string]*entry)}
}

// Set registers a ready-made service under key, replacing any previous one.
//
// Example:
//
//	loc.Set(kernel.RouterKey, router)
//	loc.Set("db", db)
func (l *Locator) Set(key string, svc any) {
	l.add(key, &entry{typ: reflect.TypeOf(svc), value: svc})
}

// Provide registers a lazily built service of type T under key. The factory
// runs on first lookup and its result is kept. Factories may look up other
// services but must not depend on themselves.
//
// This is a package-level function because methods cannot have type parameters.
//
// Example:
//
//	kernel.Provide(loc, "posts", func(l *kernel.Locator) (*PostStore, error) {
//	    return NewPostStore(), nil
//	})
func Provide[T any](l *Locator, key string, factory func(*Locator) (T, error)) {
	l.add(key, &entry{
		typ: reflect.TypeOf((*T)(nil)).Elem(),
		build: func(l *Locator) (any, error) {
			return factory(l)
		},
	})
}

func (l *Locator) add(key string, e *entry) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, exists := l.entries[key]; !exists {
		l.order = append(l.order, key)
	}
	l.entries[key] = e
}

// Has reports whether a service is registered under key.
func (l *Locator) Has(key string) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()

	_, ok := l.entries[key]
	return ok
}

// Get returns the service registered under key.
func (l *Locator) Get(key string) (any, error) {
	l.mu.RLock()
	e, ok := l.entries[key]
	l.mu.RUnlock()

	if !ok {
		return nil, &ServiceNotFoundError{Key: key}
	}

	svc, err := e.get(l)
	if err != nil {
		return nil, fmt.Errorf("build service %q: %w", key, err)
	}
	return svc, nil
}

// FindByType returns the first registered service whose type is typ or, when
// typ is a non-empty interface, the first service implementing it. Services
// are searched in registration order.
func (l *Locator) FindByType(typ reflect.Type) (any, error) {
	l.mu.RLock()
	var found *entry
	var key string
	for _, k := range l.order {
		e := l.entries[k]
		if matchesType(e.typ, typ) {
			found, key = e, k
			break
		}
	}
	l.mu.RUnlock()

	if found == nil {
		return nil, &ServiceNotFoundError{Type: typ}
	}

	svc, err := found.get(l)
	if err != nil {
		return nil, fmt.Errorf("build service %q: %w", key, err)
	}
	return svc, nil
}

// Resolve returns the service assignable to T.
//
// Example:
//
//	router, err := kernel.Resolve[kernel.Router](loc)
func Resolve[T any](l *Locator) (T, error) {
	var zero T
	svc, err := l.FindByType(reflect.TypeOf((*T)(nil)).Elem())
	if err != nil {
		return zero, err
	}
	v, ok := svc.(T)
	if !ok {
		return zero, fmt.Errorf("service of type %T is not assignable to %T", svc, zero)
	}
	return v, nil
}

// matchesType reports whether a service of type have satisfies a dependency
// on type want.
func matchesType(have, want reflect.Type) bool {
	if have == nil {
		return false
	}
	if have == want {
		return true
	}
	return isNonEmptyInterface(want) && have.Implements(want)
}

// isNonEmptyInterface returns true when typ is an interface with methods.
func isNonEmptyInterface(typ reflect.Type) bool {
	return typ.Kind() == reflect.Interface && typ.NumMethod() > 0
}

// isEmptyInterface returns true when typ is the `any` interface.
func isEmptyInterface(typ reflect.Type) bool {
	return typ.Kind() == reflect.Interface && typ.NumMethod() == 0
}
