package kernel

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"testing"

	"github.com/stretchr/testify/suite"
)

type unregistered struct{}

type wiredController struct {
	ctx     context.Context
	loc     *Locator
	greeter *greeter
	namer   namer
	missing *unregistered
}

type AutowireSuite struct {
	suite.Suite
	loc    *Locator
	d      *Dispatcher
	builds int
}

func TestAutowireSuite(t *testing.T) {
	suite.Run(t, new(AutowireSuite))
}

func (s *AutowireSuite) SetupTest() {
	s.loc = NewLocator()
	s.builds = 0
	Provide(s.loc, "greeter", func(*Locator) (*greeter, error) {
		s.builds++
		return &greeter{greeting: "hello"}, nil
	})
	s.loc.Set("namer", &namedService{name: "svc"})
	s.d = New(EnvTest, nil, s.loc)
}

func (s *AutowireSuite) register(ctor any) {
	s.Require().NoError(s.d.RegisterController("c", ctor))
}

func (s *AutowireSuite) TestNoParameters() {
	s.register(func() *wiredController { return &wiredController{} })

	got, err := s.d.Instantiate(context.Background(), "c")

	s.Require().NoError(err)
	s.Assert().IsType(&wiredController{}, got)
}

func (s *AutowireSuite) TestResolvesByType() {
	s.register(func(g *greeter, n namer) *wiredController {
		return &wiredController{greeter: g, namer: n}
	})

	got, err := s.d.Instantiate(context.Background(), "c")

	s.Require().NoError(err)
	c := got.(*wiredController)
	s.Assert().Equal("hello", c.greeter.greeting)
	s.Assert().Equal("svc", c.namer.Name())
}

func (s *AutowireSuite) TestInjectsContext() {
	s.register(func(ctx context.Context) *wiredController {
		return &wiredController{ctx: ctx}
	})
	ctx := context.WithValue(context.Background(), contextKey("k"), "v")

	got, err := s.d.Instantiate(ctx, "c")

	s.Require().NoError(err)
	s.Assert().Equal("v", got.(*wiredController).ctx.Value(contextKey("k")))
}

func (s *AutowireSuite) TestNilContextBecomesBackground() {
	s.register(func(ctx context.Context) *wiredController {
		return &wiredController{ctx: ctx}
	})

	//nolint:staticcheck // nil context is accepted
	got, err := s.d.Instantiate(nil, "c")

	s.Require().NoError(err)
	s.Assert().NotNil(got.(*wiredController).ctx)
}

func (s *AutowireSuite) TestUntypedParameterFailsBeforeLookup() {
	s.register(func(g *greeter, x any) *wiredController {
		return &wiredController{greeter: g}
	})

	_, err := s.d.Instantiate(context.Background(), "c")

	var cerr *ConfigurationError
	s.Require().ErrorAs(err, &cerr)
	s.Assert().Equal("c", cerr.Subject)
	s.Assert().Equal(0, s.builds)
}

func (s *AutowireSuite) TestLocatorParameterStopsResolution() {
	s.register(func(l *Locator, missing *unregistered, g *greeter) *wiredController {
		return &wiredController{loc: l, missing: missing, greeter: g}
	})

	got, err := s.d.Instantiate(context.Background(), "c")

	s.Require().NoError(err)
	c := got.(*wiredController)
	s.Assert().Same(s.loc, c.loc)
	s.Assert().Nil(c.missing)
	s.Assert().Nil(c.greeter)
	s.Assert().Equal(0, s.builds)
}

func (s *AutowireSuite) TestUntypedParameterAfterLocatorIsIgnored() {
	s.register(func(g *greeter, l *Locator, x any) *wiredController {
		return &wiredController{greeter: g, loc: l}
	})

	got, err := s.d.Instantiate(context.Background(), "c")

	s.Require().NoError(err)
	c := got.(*wiredController)
	s.Assert().NotNil(c.greeter)
	s.Assert().Same(s.loc, c.loc)
}

func (s *AutowireSuite) TestMissingDependency() {
	s.register(func(u *unregistered) *wiredController {
		return &wiredController{missing: u}
	})

	_, err := s.d.Instantiate(context.Background(), "c")

	var nerr *ServiceNotFoundError
	s.Require().ErrorAs(err, &nerr)
	s.Assert().Equal(reflect.TypeOf(&unregistered{}), nerr.Type)
}

func (s *AutowireSuite) TestConstructorError() {
	wantErr := errors.New("no database")
	s.register(func() (*wiredController, error) {
		return nil, wantErr
	})

	_, err := s.d.Instantiate(context.Background(), "c")

	s.Assert().ErrorIs(err, wantErr)
}

func (s *AutowireSuite) TestConstructorWithNilError() {
	s.register(func() (*wiredController, error) {
		return &wiredController{}, nil
	})

	got, err := s.d.Instantiate(context.Background(), "c")

	s.Require().NoError(err)
	s.Assert().NotNil(got)
}

func (s *AutowireSuite) TestFreshInstancePerCall() {
	s.register(func(g *greeter) *wiredController {
		return &wiredController{greeter: g}
	})

	first, err := s.d.Instantiate(context.Background(), "c")
	s.Require().NoError(err)
	second, err := s.d.Instantiate(context.Background(), "c")
	s.Require().NoError(err)

	s.Assert().NotSame(first, second)
	s.Assert().Same(first.(*wiredController).greeter, second.(*wiredController).greeter)
	s.Assert().Equal(1, s.builds)
}

func (s *AutowireSuite) TestNilControllerFromConstructor() {
	tests := []struct {
		name string
		ctor any
	}{
		{"nil interface", func() namer { return nil }},
		{"nil any with error", func() (any, error) { return nil, nil }},
		{"nil pointer", func() *wiredController { return nil }},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			s.Require().NoError(s.d.RegisterController("nil", tt.ctor))

			got, err := s.d.Instantiate(context.Background(), "nil")

			s.Assert().Nil(got)
			s.Assert().ErrorIs(err, ErrNilController)
		})
	}
}

func (s *AutowireSuite) TestNilServiceIsAnError() {
	loc := NewLocator()
	Provide(loc, "stringer", func(*Locator) (fmt.Stringer, error) { return nil, nil })
	d := New(EnvTest, nil, loc)
	s.Require().NoError(d.RegisterController("c", func(st fmt.Stringer) *wiredController {
		return &wiredController{}
	}))

	_, err := d.Instantiate(context.Background(), "c")

	var cerr *ConfigurationError
	s.Require().ErrorAs(err, &cerr)
	s.Assert().Equal("c", cerr.Subject)
	s.Assert().Contains(cerr.Reason, "fmt.Stringer")
}

func (s *AutowireSuite) TestUnknownController() {
	_, err := s.d.Instantiate(context.Background(), "nope")

	s.Assert().ErrorIs(err, ErrControllerNotFound)
}

func (s *AutowireSuite) TestRegisterRejectsBadConstructors() {
	tests := []struct {
		name string
		ctor any
	}{
		{"nil", nil},
		{"not a function", &wiredController{}},
		{"variadic", func(gs ...*greeter) *wiredController { return nil }},
		{"no results", func() {}},
		{"only error", func() error { return nil }},
		{"second result not error", func() (*wiredController, int) { return nil, 0 }},
		{"too many results", func() (*wiredController, error, int) { return nil, nil, 0 }},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			err := s.d.RegisterController("bad", tt.ctor)

			var cerr *ConfigurationError
			s.Assert().ErrorAs(err, &cerr)
		})
	}
}
