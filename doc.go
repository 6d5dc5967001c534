// Package kernel provides the request-dispatch core of a minimal web kernel.
//
// Given a request, the Dispatcher matches a route, builds the route's
// controller with its dependencies autowired from a service Locator, binds the
// route parameters to the action's parameters, calls the action and finalizes
// the response. Two listener points, after-router and after-controller, can
// intercept the flow.
//
// # Quick Start
//
// Define a controller and its constructor:
//
//	type PostController struct {
//	    store *PostStore
//	}
//
//	func NewPostController(store *PostStore) *PostController {
//	    return &PostController{store: store}
//	}
//
//	func (c *PostController) ShowAction(id int, slug string) (kernel.Response, error) {
//	    post, err := c.store.Get(id)
//	    if err != nil {
//	        return nil, err
//	    }
//	    return kernel.NewJSONResponse(post, http.StatusOK), nil
//	}
//
// Register services, routes and the controller, then serve:
//
//	loc := kernel.NewLocator()
//	loc.Set("posts", NewPostStore())
//	loc.Set(kernel.RouterKey, kernel.NewChiRouter(
//	    kernel.RouteDef{Method: http.MethodGet, Pattern: "/posts/{id}/{slug}", Controller: "post", Action: "show"},
//	))
//
//	d := kernel.New(kernel.EnvProd, cfg, loc)
//	d.RegisterController("post", NewPostController, kernel.WithAction("ShowAction", "id", "slug"))
//
//	http.ListenAndServe(":8080", d)
//
// # Routes and Actions
//
// A Route names a controller, an optional action and its parameters. The
// action "show" calls the method ShowAction; a route without an action calls
// Invoke. Actions return Response or (Response, error).
//
// Go keeps no parameter names at runtime, so actions that take parameters
// declare them with WithAction. Each declared name is looked up in the route
// parameters and converted to the method's parameter type. A missing name is a
// *ParameterBindingError and the action is not called.
//
// # Autowiring
//
// Controllers are built fresh for every request by calling their constructor
// with arguments resolved from the Locator by type. A concrete type matches a
// service of exactly that type; a non-empty interface matches the first
// service implementing it.
//
// Special cases:
//   - context.Context receives the dispatch context
//   - *Locator receives the locator itself; parameters after it are not
//     resolved and receive their zero values
//   - an `any` parameter cannot be resolved and fails with *ConfigurationError
//
// # Listeners
//
// Listeners live in an Events registry passed to the dispatcher:
//
//	d := kernel.New(env, cfg, loc,
//	    kernel.WithAfterRouter(func(ctx context.Context, ev *kernel.AfterRouterEvent) error {
//	        if ev.Request.Header.Get("Authorization") == "" {
//	            ev.Response = kernel.NewResponse("unauthorized", http.StatusUnauthorized)
//	        }
//	        return nil
//	    }, kernel.ControllerIs("admin")),
//	    kernel.WithAfterController(func(ctx context.Context, ev *kernel.AfterControllerEvent) error {
//	        ev.Response.Header().Set("X-Frame-Options", "DENY")
//	        return nil
//	    }),
//	)
//
// An after-router listener that sets Response ends dispatch: that response is
// returned as-is and no controller is built. After-controller listeners may
// replace the response; the dispatcher returns whatever the event holds.
//
// Matchers scope after-router listeners to routes:
//   - ControllerIs, ActionIs: route target
//   - HasParams, ParamEquals: route parameters
//   - And, Or: composition
//
// # Responses
//
// Responses are finalized with Prepare before they are returned, which sets
// Date and Content-Type and drops the body for HEAD requests and bodiless
// statuses. In the EnvDev environment JSONResponse values get the
// EncodePrettyPrint encoding option.
//
// # Errors
//
// Every failure is terminal for the request:
//   - *RoutingError: no route matched
//   - *ConfigurationError: a controller cannot be autowired or is misdeclared
//   - *ServiceNotFoundError: a dependency is not registered
//   - *DispatchError: controller missing or nil, action missing, or no Response
//     returned
//   - *ParameterBindingError: an action parameter is missing or malformed
//
// When mounted as an http.Handler, routing errors answer 404 and all other
// errors 500.
//
// # Thread Safety
//
// Dispatcher is safe for concurrent use after configuration is complete. Do
// not call RegisterController or add listeners after serving has started.
package kernel
