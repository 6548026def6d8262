package server

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/alexedwards/scs/v2"
	"gorm.io/gorm"

	"fourneau/internal/catalog"
	"fourneau/internal/handlers"
	applog "fourneau/internal/log"
)

const (
	defaultSessionLifetime = 12 * time.Hour
	defaultCookieName      = "fourneau_session"
)

// Config captures the runtime configuration for the HTTP server. Catalog is
// optional; when nil it is built on Database.
type Config struct {
	Addr     string
	Session  SessionConfig
	Database *gorm.DB
	Catalog  *catalog.Service
}

// SessionConfig controls session behavior for the HTTP server.
type SessionConfig struct {
	Lifetime     time.Duration
	CookieName   string
	CookieDomain string
	CookieSecure bool
}

// Server wraps an http.Server serving the cost API.
type Server struct {
	config     Config
	httpServer *http.Server
}

// New wires the session manager, the handlers and the router. A catalog
// service without a database is rejected since login and signup would then
// bypass it.
func New(cfg Config) (*Server, error) {
	ctx := context.Background()
	if cfg.Catalog != nil && cfg.Database == nil {
		return nil, errors.New("catalog service given without a database")
	}
	if cfg.Catalog == nil && cfg.Database != nil {
		cfg.Catalog = catalog.NewService(cfg.Database)
	}
	cfg.Session = cfg.Session.withDefaults()

	sessionManager := newSessionManager(cfg.Session)
	applog.Debug(ctx, "session manager configured",
		"lifetime", cfg.Session.Lifetime.String(),
		"cookieName", cfg.Session.CookieName,
		"cookieDomain", cfg.Session.CookieDomain,
		"cookieSecure", cfg.Session.CookieSecure,
	)

	handlers.Configure(sessionManager, cfg.Database, cfg.Catalog)
	applog.Debug(ctx, "handler dependencies configured", "api", cfg.Catalog != nil)

	return &Server{
		config: cfg,
		httpServer: &http.Server{
			Addr:              cfg.Addr,
			Handler:           sessionManager.LoadAndSave(newRouter()),
			ReadHeaderTimeout: 5 * time.Second,
		},
	}, nil
}

func (c SessionConfig) withDefaults() SessionConfig {
	if c.Lifetime <= 0 {
		c.Lifetime = defaultSessionLifetime
	}
	if strings.TrimSpace(c.CookieName) == "" {
		c.CookieName = defaultCookieName
	}
	return c
}

func newSessionManager(cfg SessionConfig) *scs.SessionManager {
	sm := scs.New()
	sm.Lifetime = cfg.Lifetime
	sm.Cookie.Name = cfg.CookieName
	sm.Cookie.Domain = cfg.CookieDomain
	sm.Cookie.HttpOnly = true
	sm.Cookie.Persist = true
	sm.Cookie.SameSite = http.SameSiteLaxMode
	sm.Cookie.Secure = cfg.CookieSecure
	return sm
}

// Start serves HTTP traffic until Stop is called.
func (s *Server) Start() error {
	applog.Debug(context.Background(), "server starting listener", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Stop gracefully shuts down the HTTP server with a timeout.
func (s *Server) Stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	applog.Debug(ctx, "server initiating graceful shutdown")
	return s.httpServer.Shutdown(ctx)
}

// Handler exposes the configured HTTP handler for integration tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}
