package kernel_test

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"net/http/httptest"

	"github.com/bjaus/kernel"
)

// Greeter is a service controllers depend on.
type Greeter struct {
	Greeting string
}

// HelloController greets by name.
type HelloController struct {
	greeter *Greeter
}

func NewHelloController(g *Greeter) *HelloController {
	return &HelloController{greeter: g}
}

func (c *HelloController) Invoke() kernel.Response {
	return kernel.NewResponse(c.greeter.Greeting+", world", http.StatusOK)
}

func (c *HelloController) NameAction(name string) kernel.Response {
	return kernel.NewResponse(c.greeter.Greeting+", "+name, http.StatusOK)
}

func newExampleLocator() *kernel.Locator {
	loc := kernel.NewLocator()
	loc.Set("greeter", &Greeter{Greeting: "Hello"})
	loc.Set(kernel.RouterKey, kernel.NewChiRouter(
		kernel.RouteDef{Name: "hello", Method: http.MethodGet, Pattern: "/hello", Controller: "hello"},
		kernel.RouteDef{Name: "hello_name", Method: http.MethodGet, Pattern: "/hello/{name}", Controller: "hello", Action: "name"},
		kernel.RouteDef{Name: "admin", Method: http.MethodGet, Pattern: "/admin", Controller: "admin"},
	))
	return loc
}

func Example() {
	d := kernel.New(kernel.EnvProd, nil, newExampleLocator())

	if err := d.RegisterController("hello", NewHelloController, kernel.WithAction("NameAction", "name")); err != nil {
		log.Fatal(err)
	}

	for _, path := range []string{"/hello", "/hello/gopher"} {
		resp, err := d.Execute(context.Background(), httptest.NewRequest(http.MethodGet, path, nil))
		if err != nil {
			log.Fatal(err)
		}
		body, _ := resp.Body()
		fmt.Println(resp.StatusCode(), string(body))
	}

	// Output:
	// 200 Hello, world
	// 200 Hello, gopher
}

func Example_afterRouter() {
	d := kernel.New(kernel.EnvProd, nil, newExampleLocator(),
		kernel.WithAfterRouter(func(ctx context.Context, ev *kernel.AfterRouterEvent) error {
			if ev.Request.Header.Get("Authorization") == "" {
				ev.Response = kernel.NewResponse("unauthorized", http.StatusUnauthorized)
			}
			return nil
		}, kernel.ControllerIs("admin")),
	)

	// No "admin" controller is registered: the listener answers first.
	resp, err := d.Execute(context.Background(), httptest.NewRequest(http.MethodGet, "/admin", nil))
	if err != nil {
		log.Fatal(err)
	}
	body, _ := resp.Body()
	fmt.Println(resp.StatusCode(), string(body))

	// Output:
	// 401 unauthorized
}

func Example_devPrettyPrint() {
	loc := kernel.NewLocator()
	loc.Set(kernel.RouterKey, kernel.RouterFunc(func(*http.Request) (kernel.Route, error) {
		return kernel.Route{Controller: "status"}, nil
	}))

	d := kernel.New(kernel.EnvDev, nil, loc)
	if err := d.RegisterController("status", func() *StatusController { return &StatusController{} }); err != nil {
		log.Fatal(err)
	}

	resp, err := d.Execute(context.Background(), httptest.NewRequest(http.MethodGet, "/", nil))
	if err != nil {
		log.Fatal(err)
	}
	body, _ := resp.Body()
	fmt.Println(string(body))

	// Output:
	// {
	//     "status": "ok"
	// }
}

// StatusController reports service health.
type StatusController struct{}

func (c *StatusController) Invoke() kernel.Response {
	return kernel.NewJSONResponse(map[string]string{"status": "ok"}, http.StatusOK)
}

func ExampleDispatcher_ServeHTTP() {
	d := kernel.New(kernel.EnvProd, nil, newExampleLocator())
	if err := d.RegisterController("hello", NewHelloController, kernel.WithAction("NameAction", "name")); err != nil {
		log.Fatal(err)
	}

	srv := httptest.NewServer(d)
	defer srv.Close()

	for _, path := range []string{"/hello/gopher", "/missing"} {
		res, err := http.Get(srv.URL + path)
		if err != nil {
			log.Fatal(err)
		}
		_ = res.Body.Close()
		fmt.Println(path, res.StatusCode)
	}

	// Output:
	// /hello/gopher 200
	// /missing 404
}
