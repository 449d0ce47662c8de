// Package stub is an in-process fake of the remote ArcFit admin API. It
// serves the auth endpoints (login, me, refresh, logout) and a slice of
// the domain surface, so the SDK can be exercised end to end without the
// real backend.
package stub

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"

	"github.com/govindavashishtha/arcfit-admin/api"
	"github.com/govindavashishtha/arcfit-admin/internal/config"
)

// Server is the fake API server. It satisfies http.Handler, so tests can
// mount it on an httptest.Server and development runs can serve it
// directly.
type Server struct {
	env      string
	mux      *http.ServeMux
	routes   []string
	config   config.Config
	users    *userStore
	tokens   *tokenService
	fixtures *fixtureStore
	validate *validator.Validate
}

// Option configures a Server.
type Option func(*Server)

// WithAccessTokenExpiry overrides the issued expires_in. Tests use short
// expiries to exercise the refresh path quickly.
func WithAccessTokenExpiry(d time.Duration) Option {
	return func(s *Server) {
		s.tokens.accessExpiry = d
	}
}

// WithUser seeds an additional admin user.
func WithUser(password string, profile api.Profile) Option {
	return func(s *Server) {
		s.users.add(password, profile)
	}
}

// New creates a stub server with the default seed users.
func New(cfg config.Config) (*Server, error) {
	return NewWithOptions(cfg)
}

// NewWithOptions creates a stub server and applies options before routes
// are registered.
func NewWithOptions(cfg config.Config, options ...Option) (*Server, error) {
	users, err := defaultUsers()
	if err != nil {
		return nil, err
	}

	s := &Server{
		env:      cfg.GetEnv(),
		mux:      http.NewServeMux(),
		config:   cfg,
		users:    users,
		tokens:   newTokenService(cfg.GetAccessTokenExpiry(), cfg.GetRefreshTokenExpiry()),
		fixtures: newFixtureStore(),
		validate: validator.New(),
	}

	for _, opt := range options {
		opt(s)
	}

	s.initRoutes()
	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// RegisterRouteFunc registers a handler and records the pattern for
// startup logging.
func (s *Server) RegisterRouteFunc(pattern string, handler func(http.ResponseWriter, *http.Request)) {
	s.routes = append(s.routes, pattern)
	s.mux.HandleFunc(pattern, handler)
}

func (s *Server) initRoutes() {
	apiMW := s.APIMiddleware()

	s.RegisterRouteFunc("POST "+api.RouteAdminLogin, ChainMiddleware(s.AdminLoginHandler(), apiMW...))
	s.RegisterRouteFunc("GET "+api.RouteCurrentUser, ChainMiddleware(s.CurrentUserHandler(), apiMW...))
	s.RegisterRouteFunc("POST "+api.RouteRefresh, ChainMiddleware(s.RefreshHandler(), apiMW...))
	s.RegisterRouteFunc("POST "+api.RouteLogout, ChainMiddleware(s.LogoutHandler(), apiMW...))

	authMW := append(apiMW, s.RequireAuthMiddleware)
	s.RegisterRouteFunc("GET "+api.RouteMembers, ChainMiddleware(s.ListMembersHandler(), authMW...))
	s.RegisterRouteFunc("POST "+api.RouteMembersImport, ChainMiddleware(s.ImportMembersHandler(), authMW...))
	s.RegisterRouteFunc("GET "+api.RouteCenters, ChainMiddleware(s.ListCentersHandler(), authMW...))
	s.RegisterRouteFunc("GET "+api.RouteEvents, ChainMiddleware(s.ListEventsHandler(), authMW...))
}

// LogRoutes logs all registered routes, for the dev server startup banner.
func (s *Server) LogRoutes() {
	for _, route := range s.routes {
		log.Info().Str("route", route).Msg("registered")
	}
}

// responseEnvelope is the wire wrapper the real API uses for every
// response.
type responseEnvelope struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

func writeData(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, responseEnvelope{Success: true, Data: data})
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, responseEnvelope{Success: false, Message: message})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Err(err).Msg("failed to encode response")
	}
}
