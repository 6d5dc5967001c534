// Package app is the demo application served by cmd/kernel: a small post
// catalogue wired through the dispatcher.
package app

import (
	"errors"
	"fmt"
	"net/http"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/bjaus/kernel"
)

// Post is a catalogue entry.
type Post struct {
	ID    int    `json:"id"`
	Slug  string `json:"slug"`
	Title string `json:"title"`
}

// ErrPostNotFound is returned by PostStore.Get for unknown ids.
var ErrPostNotFound = errors.New("post not found")

// PostStore is an in-memory post catalogue.
type PostStore struct {
	mu    sync.RWMutex
	posts map[int]Post
}

// NewPostStore returns a store seeded with posts.
func NewPostStore(posts ...Post) *PostStore {
	s := &PostStore{posts: make(map[int]Post, len(posts))}
	for _, p := range posts {
		s.posts[p.ID] = p
	}
	return s
}

// Get returns the post with id.
func (s *PostStore) Get(id int) (Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.posts[id]
	if !ok {
		return Post{}, fmt.Errorf("%w: %d", ErrPostNotFound, id)
	}
	return p, nil
}

// List returns all posts ordered by id.
func (s *PostStore) List() []Post {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Post, 0, len(s.posts))
	for _, p := range s.posts {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// HomeController answers the root path.
type HomeController struct{}

// Invoke answers with a plain status message.
func (c *HomeController) Invoke() kernel.Response {
	return kernel.NewResponse("kernel is running", http.StatusOK)
}

// PostController serves the catalogue.
type PostController struct {
	store *PostStore
	log   *zap.Logger
}

// NewPostController returns a controller serving posts from store.
func NewPostController(store *PostStore, log *zap.Logger) *PostController {
	return &PostController{store: store, log: log}
}

// ListAction returns every post as JSON.
func (c *PostController) ListAction() kernel.Response {
	return kernel.NewJSONResponse(c.store.List(), http.StatusOK)
}

// ShowAction returns one post, redirecting to its canonical slug when slug
// is stale.
func (c *PostController) ShowAction(id int, slug string) (kernel.Response, error) {
	p, err := c.store.Get(id)
	if errors.Is(err, ErrPostNotFound) {
		return kernel.NewJSONResponse(map[string]string{"error": "not found"}, http.StatusNotFound), nil
	}
	if err != nil {
		return nil, err
	}
	if p.Slug != slug {
		c.log.Debug("slug mismatch", zap.Int("id", id), zap.String("slug", slug))
		resp := kernel.NewResponse("", http.StatusMovedPermanently)
		resp.Header().Set("Location", fmt.Sprintf("/posts/%d/%s", p.ID, p.Slug))
		return resp, nil
	}
	return kernel.NewJSONResponse(p, http.StatusOK), nil
}

// Routes returns the demo route table.
func Routes() []kernel.RouteDef {
	return []kernel.RouteDef{
		{Name: "home", Method: http.MethodGet, Pattern: "/", Controller: "home"},
		{Name: "post_list", Method: http.MethodGet, Pattern: "/posts", Controller: "post", Action: "list"},
		{Name: "post_show", Method: http.MethodGet, Pattern: "/posts/{id}/{slug}", Controller: "post", Action: "show"},
	}
}

// Register adds the demo services to loc and the demo controllers to d.
func Register(d *kernel.Dispatcher, loc *kernel.Locator) error {
	loc.Set(kernel.RouterKey, kernel.NewChiRouter(Routes()...))
	kernel.Provide(loc, "posts", func(*kernel.Locator) (*PostStore, error) {
		return NewPostStore(
			Post{ID: 1, Slug: "hello-world", Title: "Hello, world"},
			Post{ID: 2, Slug: "dispatching", Title: "Dispatching requests"},
		), nil
	})

	if err := d.RegisterController("home", func() *HomeController { return &HomeController{} }); err != nil {
		return err
	}
	return d.RegisterController("post", NewPostController,
		kernel.WithAction("ShowAction", "id", "slug"),
	)
}
