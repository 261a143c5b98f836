// Package devserver is an in-memory implementation of the Taskee REST API.
// It backs local development and the end-to-end tests; it is not the
// production backend.
package devserver

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimid "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/Nathan-Yinka/Project-management-application/internal/infrastructure/metrics"
)

// Config configures a Server. Zero values are usable except JWTSecret.
type Config struct {
	JWTSecret string
	TokenTTL  time.Duration
	// RateLimit per client IP, e.g. "100-M". Empty disables.
	RateLimit string
	// CORSOrigins allowed to call the API from a browser. Empty allows any.
	CORSOrigins     []string
	LockoutAttempts int
	LockoutCooldown time.Duration
	// Mailer delivers notifications; nil logs them.
	Mailer Mailer
	// Redis is pinged by /health when set.
	Redis   *redis.Client
	Metrics bool
	Log     zerolog.Logger
}

// Server serves the API from memory.
type Server struct {
	cfg      Config
	log      zerolog.Logger
	data     *memory
	tokens   *issuer
	lockout  *lockout
	mailer   Mailer
	validate *validator.Validate
	handler  http.Handler
}

// New builds a server with an empty data set.
func New(cfg Config) (*Server, error) {
	if cfg.JWTSecret == "" {
		return nil, errors.New("devserver: jwt secret is required")
	}
	s := &Server{
		cfg:      cfg,
		log:      cfg.Log.With().Str("component", "devserver").Logger(),
		data:     newMemory(),
		tokens:   newIssuer(cfg.JWTSecret, cfg.TokenTTL),
		lockout:  newLockout(cfg.LockoutAttempts, cfg.LockoutCooldown),
		mailer:   cfg.Mailer,
		validate: newValidator(),
	}
	if s.mailer == nil {
		s.mailer = NewLogMailer(cfg.Log)
	}
	limit, err := rateLimiter(cfg.RateLimit)
	if err != nil {
		return nil, fmt.Errorf("devserver: rate limit: %w", err)
	}
	s.handler = s.routes(limit)
	return s, nil
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler { return s.handler }

func (s *Server) routes(limit func(http.Handler) http.Handler) http.Handler {
	origins := s.cfg.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	r := chi.NewRouter()
	r.Use(chimid.RequestID)
	r.Use(chimid.RealIP)
	r.Use(loggerMiddleware(s.log))
	r.Use(chimid.Recoverer)
	if s.cfg.Metrics {
		r.Use(metrics.Middleware)
	}
	r.Use(secureHeaders())
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Authorization", "Content-Type", "Accept", "X-Request-Id"},
		MaxAge:         300,
	}))
	r.Use(limit)

	r.Get("/health", s.health)
	if s.cfg.Metrics {
		r.Handle("/metrics", promhttp.Handler())
	}

	r.Route("/auth", func(r chi.Router) {
		r.Post("/login", s.login)
		r.Post("/register", s.register)
		r.With(s.requireToken).Get("/me/", s.me)
	})

	r.Group(func(r chi.Router) {
		r.Use(s.requireToken)

		r.Route("/organization", func(r chi.Router) {
			r.Get("/", s.listOrganizations)
			r.Post("/", s.createOrganization)
			r.Post("/add_member", s.addMembers)
			r.Post("/leave-organization", s.leaveOrganization)
			r.Get("/{id}", s.getOrganization)
			r.Get("/{id}/users", s.listMembers)
			r.Get("/{id}/non-members", s.listNonMembers)
		})
		r.Put("/organizations/{id}", s.updateOrganization)
		r.Delete("/organizations/{id}/remove-member/{memberId}", s.removeMember)

		r.Route("/project", func(r chi.Router) {
			r.Get("/", s.listTasks)
			r.Post("/", s.createTask)
			r.Delete("/{id}/", s.deleteTask)
			r.Patch("/{id}/update-status/", s.updateTaskStatus)
			r.Patch("/{id}/{orgId}/", s.updateTask)
		})
	})
	return r
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	checks := map[string]string{"memory": "ok"}
	code, status := http.StatusOK, "ok"
	if s.cfg.Redis != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()
		if err := s.cfg.Redis.Ping(ctx).Err(); err != nil {
			checks["redis"] = "down: " + err.Error()
			code, status = http.StatusServiceUnavailable, "unhealthy"
		} else {
			checks["redis"] = "ok"
		}
	}
	writeJSON(w, code, map[string]interface{}{"status": status, "checks": checks})
}

// ListenAndServe serves on addr until ctx is done, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", addr).Msg("dev server listening")
		errc <- srv.ListenAndServe()
	}()
	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return nil
	}
}
