package httpapi

import (
	"context"
	"io"
	"net/http"

	"github.com/MrEthical07/userauth"
	"github.com/MrEthical07/userauth/middleware"
	"github.com/MrEthical07/userauth/role"
	"github.com/MrEthical07/userauth/user"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
)

// Service is the engine surface the transport needs. *userauth.Engine
// satisfies it.
type Service interface {
	middleware.Authenticator
	Register(ctx context.Context, req userauth.RegisterRequest) (*userauth.Session, error)
	Login(ctx context.Context, email, password string) (*userauth.Session, error)
	Refresh(ctx context.Context, refreshToken string) (*userauth.Session, error)
	GetByID(ctx context.Context, id string) (user.View, error)
	ListDoctors(ctx context.Context) ([]user.View, error)
	UpdateProfile(ctx context.Context, id string, upd userauth.ProfileUpdate) (user.View, error)
}

var _ Service = (*userauth.Engine)(nil)

// Server owns the router and its middleware chain.
type Server struct {
	svc     Service
	cfg     Config
	logger  logrus.FieldLogger
	guard   *middleware.Guard
	router  *mux.Router
	metrics http.Handler
	reg     prometheus.Registerer
	stats   *httpMetrics
}

// Option customizes a Server.
type Option func(*Server)

// WithLogger sets the request and error logger.
func WithLogger(logger logrus.FieldLogger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMetricsHandler mounts h at GET /metrics.
func WithMetricsHandler(h http.Handler) Option {
	return func(s *Server) {
		s.metrics = h
	}
}

// WithRegisterer records per-route request counts and latencies on reg.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(s *Server) {
		s.reg = reg
	}
}

// New builds a Server around svc.
func New(svc Service, cfg Config, opts ...Option) *Server {
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	s := &Server{
		svc:    svc,
		cfg:    cfg,
		logger: logger,
		router: mux.NewRouter(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.reg != nil {
		s.stats = newHTTPMetrics(s.reg)
	}

	s.guard = middleware.New(svc, middleware.WithErrorWriter(s.writeError))
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeErrorMessage(w, http.StatusNotFound, "Not found")
	})
	s.router.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeErrorMessage(w, http.StatusMethodNotAllowed, "Method not allowed")
	})

	if s.stats != nil {
		s.router.Use(s.stats.middleware)
	}

	s.router.HandleFunc("/health", s.health).Methods(http.MethodGet)
	if s.metrics != nil {
		s.router.Handle("/metrics", s.metrics).Methods(http.MethodGet)
	}

	api := s.router.PathPrefix(s.cfg.BasePath).Subrouter()

	// Public routes
	api.HandleFunc("/register", s.register).Methods(http.MethodPost)
	api.HandleFunc("/login", s.login).Methods(http.MethodPost)
	api.HandleFunc("/refresh", s.refresh).Methods(http.MethodPost)
	api.HandleFunc("/logout", s.logout).Methods(http.MethodPost)

	// Protected routes
	api.Handle("/me", s.guard.Authenticate(http.HandlerFunc(s.me))).Methods(http.MethodGet)
	api.Handle("/doctors", s.guard.Authenticate(http.HandlerFunc(s.doctors))).Methods(http.MethodGet)
	api.Handle("/profile", s.guard.Authenticate(http.HandlerFunc(s.updateProfile))).Methods(http.MethodPatch)

	admin := s.guard.RequireRoles(role.Admin)
	api.Handle("/admin/users/{id}", admin(http.HandlerFunc(s.adminGetUser))).Methods(http.MethodGet)
}

// Router exposes the underlying router so callers can mount extra routes.
func (s *Server) Router() *mux.Router {
	return s.router
}

// Handler returns the router wrapped in the transport middleware chain.
func (s *Server) Handler() http.Handler {
	var h http.Handler = s.router
	h = s.clientInfo(h)
	h = s.cors(h)
	h = securityHeaders(h)
	h = s.logRequests(h)
	h = s.recoverPanics(h)
	h = requestID(h)
	return h
}
