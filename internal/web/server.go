package web

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/localwire/portal/internal/config"
	"github.com/localwire/portal/internal/contact"
	"github.com/localwire/portal/internal/guard"
	"github.com/localwire/portal/internal/metrics"
	"github.com/localwire/portal/internal/middleware"
	"github.com/localwire/portal/internal/repository"
	"github.com/localwire/portal/internal/session"
)

// Server is the customer-facing portal: marketing pages, auth flow,
// dashboards, contact form, and static legal/support content.
type Server struct {
	log        *zap.Logger
	server     *http.Server
	cfg        *config.Config
	sessions   *middleware.SessionManager
	registry   *session.Registry
	dispatcher *contact.Dispatcher
	repo       repository.Repository
}

type Params struct {
	fx.In

	Log        *zap.Logger
	Config     *config.Config
	Sessions   *middleware.SessionManager
	Registry   *session.Registry
	Dispatcher *contact.Dispatcher
	Limiter    *middleware.RateLimiter
	Collector  *metrics.Collector
	Repo       repository.Repository
}

func New(p Params) (*Server, error) {
	s := &Server{
		log:        p.Log,
		cfg:        p.Config,
		sessions:   p.Sessions,
		registry:   p.Registry,
		dispatcher: p.Dispatcher,
		repo:       p.Repo,
	}

	throttled := p.Limiter.Middleware(s.clientKey)

	root := chi.NewRouter()
	root.Use(middleware.RequestLogger(p.Log))
	root.Use(s.sessions.Wrap)

	// Public
	root.Group(func(r chi.Router) {
		r.Get("/", s.home)
		r.Get("/services", s.services)

		r.Get("/contact", s.contactForm)
		r.With(throttled).Post("/contact", s.contactSubmit)

		r.Get("/login", s.loginForm)
		r.With(throttled).Post("/login", s.login)
		r.Get("/register", s.registerForm)
		r.With(throttled).Post("/register", s.register)
		r.Post("/logout", s.logout)

		r.Get("/legal/{slug}", s.staticPage)
		r.Get("/support/{slug}", s.staticPage)
		r.Get("/company/{slug}", s.staticPage)
	})

	// Authenticated
	root.Group(func(r chi.Router) {
		r.Use(guard.Middleware(s.store, guard.AccessAuthenticated))
		r.Get("/dashboard", s.dashboard)
		r.Get("/profile", s.profileForm)
		r.Post("/profile", s.profileUpdate)
		r.Get("/password", s.passwordForm)
		r.Post("/password", s.passwordChange)
		r.Post("/session/refresh", s.refresh)
	})

	// Admin
	root.Group(func(r chi.Router) {
		r.Use(guard.Middleware(s.store, guard.AccessAdmin))
		r.Get("/admin", s.admin)
	})

	root.Handle("/metrics", p.Collector.Handler())
	root.Handle("/static/*", http.StripPrefix("/static", http.FileServer(http.Dir("web/static/"))))

	s.server = &http.Server{
		Addr:    fmt.Sprintf(":%d", p.Config.Server.Port),
		Handler: root,
	}

	return s, nil
}

func RegisterHooks(lc fx.Lifecycle, s *Server) {
	lc.Append(fx.Hook{
		OnStart: s.Start,
		OnStop:  s.server.Shutdown,
	})
}

func (s *Server) Start(_ context.Context) error {
	go func() {
		err := s.server.ListenAndServe()
		if err != nil && err != http.ErrServerClosed {
			s.log.Error("error shutting down server", zap.Error(err))
		}
	}()
	return nil
}

// store resolves the session store for the request's browser session.
func (s *Server) store(r *http.Request) *session.Store {
	return s.registry.For(r.Context(), s.sessions.SessionKey(r.Context()))
}

// clientKey identifies a client for rate limiting: the browser session
// when one exists, the remote address otherwise.
func (s *Server) clientKey(r *http.Request) string {
	if key := s.sessions.SessionKey(r.Context()); key != "" {
		return key
	}
	return r.RemoteAddr
}
