package httpapi

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"

	"github.com/keyline-auth/keyline"
	"github.com/keyline-auth/keyline/store"
)

// Service is the orchestrator surface the HTTP layer depends on.
type Service interface {
	RegisterWithPassword(ctx context.Context, email, pass string) (*store.User, error)
	LoginWithPassword(ctx context.Context, email, pass string) (*keyline.TokenPair, error)
	LoginWithGoogle(ctx context.Context, code string) (*keyline.TokenPair, error)
	GoogleAuthURL(state string) (string, error)
	RefreshToken(ctx context.Context, provider, refreshToken string) (*keyline.TokenPair, error)
	CurrentUser(ctx context.Context, provider, bearer string) (*keyline.CurrentUser, error)
	Authorize(user *keyline.CurrentUser, object, action string) error
	Logout(ctx context.Context, provider, bearer string) error
	SeedSuperAdmin(ctx context.Context, email, pass string) (*store.User, error)
	ListRoles(ctx context.Context) ([]keyline.RoleView, error)
	PaginateRoles(ctx context.Context, page, limit int) (*keyline.RolePage, error)
	GetRole(ctx context.Context, id string) (*keyline.RoleView, error)
	CreateRole(ctx context.Context, in keyline.RoleInput) (*keyline.RoleView, error)
	UpdateRole(ctx context.Context, id string, in keyline.RoleInput) (*keyline.RoleView, error)
	DeleteRole(ctx context.Context, id string) error
}

// Config carries the HTTP-layer knobs.
type Config struct {
	SuperKey string
	// Local relaxes the Secure cookie flag.
	Local bool
	// Permissions is the object to actions catalog served by the listing
	// endpoint.
	Permissions map[string][]string
}

// Server routes the HTTP API onto a Service.
type Server struct {
	svc Service
	cfg Config
	log *logrus.Logger
	mux *chi.Mux
}

// NewServer assembles the router. log may be nil.
func NewServer(svc Service, cfg Config, log *logrus.Logger) *Server {
	if log == nil {
		log = logrus.New()
	}
	s := &Server{svc: svc, cfg: cfg, log: log}
	s.routes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) routes() {
	r := chi.NewRouter()
	r.Use(chimw.Recoverer)

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", s.handleRegister)
			r.Post("/login", s.handleLogin)
			r.Post("/refresh", s.handleRefresh)

			r.Group(func(r chi.Router) {
				r.Use(s.authenticate)
				r.Get("/current-user", s.handleCurrentUser)
				r.Delete("/logout", s.handleLogout)
			})
		})

		r.Route("/oauth/{provider}", func(r chi.Router) {
			r.Get("/get-url", s.handleOAuthURL)
			r.Get("/callback", s.handleOAuthCallback)
			r.Get("/intercept", s.handleOAuthIntercept)
		})

		r.Route("/roles", func(r chi.Router) {
			r.Use(s.authenticate)
			r.Get("/all", s.handleListRoles)
			r.Get("/", s.handlePaginateRoles)
			r.Post("/", s.handleCreateRole)
			r.Get("/{id}", s.handleGetRole)
			r.Put("/{id}", s.handleUpdateRole)
			r.Delete("/{id}", s.handleDeleteRole)
		})

		r.Route("/permissions", func(r chi.Router) {
			r.Use(s.authenticate)
			r.Get("/list", s.handleListPermissions)
		})

		r.Route("/super", func(r chi.Router) {
			r.Use(s.requireSuperKey)
			r.Post("/seed-super-user", s.handleSeedSuperUser)
		})
	})

	s.mux = r
}
