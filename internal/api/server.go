// Copyright (c) 2025 Jordan Hartwell

// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to
// deal in the Software without restriction, including without limitation the
// rights to use, copy, modify, merge, publish, distribute, sublicense, and/or
// sell copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:

// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.

// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING
// FROM, OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER
// DEALINGS IN THE SOFTWARE.

// Package api exposes the guest and admin HTTP surface: invitation and
// admin logins, RSVP reads and writes, guest administration, and the
// security event log.
package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	slogecho "github.com/samber/slog-echo"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"

	"github.com/hartwell/rsvpd/internal/audit"
	"github.com/hartwell/rsvpd/internal/authtoken"
	"github.com/hartwell/rsvpd/internal/config"
	"github.com/hartwell/rsvpd/internal/store"
)

// TokenService issues, validates, and refreshes tokens. Satisfied by
// authtoken.Token.
type TokenService interface {
	Issue(identity, role, eventID, groupID string) (*authtoken.Pair, error)
	Validate(tokenString string) (*authtoken.CustomClaims, error)
	Refresh(refreshToken string) (string, error)
}

// GuestStore is the guest record storage the handlers need. Satisfied by
// store.GuestStore.
type GuestStore interface {
	Put(ctx context.Context, guest *store.Guest) error
	Get(ctx context.Context, eventID, email string) (*store.Guest, error)
	List(ctx context.Context, eventID string) ([]store.Guest, error)
	Delete(ctx context.Context, eventID, email string) error
	FindByInvitationCode(ctx context.Context, eventID, code string) (*store.Guest, error)
}

// Throttle is the abuse limiter surface the handlers need. Satisfied by
// throttle.Limiter.
type Throttle interface {
	IsLockedOut(key string) bool
	RecordFailure(key string) (locked bool, remaining int)
	Clear(key string)
}

// Server wraps the Echo server and its collaborators.
type Server struct {
	Echo *echo.Echo

	logger     *slog.Logger
	appConfig  config.Config
	tokens     TokenService
	guests     GuestStore
	limiter    Throttle
	recorder   *audit.Recorder
	auditStore audit.Store

	metricsHandler http.Handler
}

// Option configures the Server.
type Option func(*Server)

// WithTokenService sets the token service.
func WithTokenService(tokens TokenService) Option {
	return func(s *Server) { s.tokens = tokens }
}

// WithGuestStore sets the guest store.
func WithGuestStore(guests GuestStore) Option {
	return func(s *Server) { s.guests = guests }
}

// WithThrottle sets the abuse limiter.
func WithThrottle(limiter Throttle) Option {
	return func(s *Server) { s.limiter = limiter }
}

// WithAudit sets the security event recorder and store.
func WithAudit(recorder *audit.Recorder, store audit.Store) Option {
	return func(s *Server) {
		s.recorder = recorder
		s.auditStore = store
	}
}

// WithMetricsHandler mounts a Prometheus scrape handler.
func WithMetricsHandler(h http.Handler) Option {
	return func(s *Server) { s.metricsHandler = h }
}

// New initializes a new Server and configures an Echo server.
func New(
	appConfig config.Config,
	logger *slog.Logger,
	opts ...Option,
) *Server {
	e := echo.New()
	e.HideBanner = true

	corsConfig := middleware.CORSConfig{}
	if origins := appConfig.API.Server.CORS.AllowOrigins; len(origins) > 0 {
		corsConfig.AllowOrigins = origins
	}

	e.Use(otelecho.Middleware("rsvpd-api"))
	e.Use(slogecho.New(logger))
	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(middleware.CORSWithConfig(corsConfig))

	s := &Server{
		Echo:      e,
		logger:    logger,
		appConfig: appConfig,
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.recorder != nil {
		e.Use(s.auditMiddleware())
	}

	s.registerRoutes()

	return s
}

// registerRoutes wires the HTTP surface.
func (s *Server) registerRoutes() {
	e := s.Echo

	e.GET("/health", s.handleHealth)
	if s.metricsHandler != nil {
		path := s.appConfig.Telemetry.Metrics.Path
		if path == "" {
			path = "/metrics"
		}
		e.GET(path, echo.WrapHandler(s.metricsHandler))
	}

	e.POST("/auth/invitation", s.handleInvitationLogin)
	e.POST("/auth/refresh", s.handleRefresh)

	e.GET("/rsvp", s.handleGetRSVP, s.guard(GuardOptions{
		RequiredRole:   authtoken.RoleGuest,
		RequiredTenant: s.appConfig.Event.ID,
	}))
	e.PUT("/rsvp", s.handlePutRSVP, s.guard(GuardOptions{
		RequiredRole:   authtoken.RoleGuest,
		RequiredTenant: s.appConfig.Event.ID,
	}))

	adminGuard := s.guard(GuardOptions{
		RequiredRole:   authtoken.RoleAdmin,
		RequiredTenant: s.appConfig.Event.ID,
	})

	e.POST("/admin/auth/login", s.handleAdminLogin)
	e.GET("/admin/guests", s.handleAdminListGuests, adminGuard)
	e.POST("/admin/guests", s.handleAdminPutGuest, adminGuard)
	e.GET("/admin/guests/:email", s.handleAdminGetGuest, adminGuard)
	e.PUT("/admin/guests/:email", s.handleAdminPutGuest, adminGuard)
	e.DELETE("/admin/guests/:email", s.handleAdminDeleteGuest, adminGuard)
	e.GET("/admin/audit", s.handleAdminAudit, adminGuard)
}

// record emits a security event when a recorder is configured.
func (s *Server) record(
	c echo.Context,
	eventType audit.EventType,
	details map[string]string,
) {
	if s.recorder == nil {
		return
	}

	subject, _ := c.Get(ContextKeySubject).(string)

	s.recorder.Record(
		c.Request().Context(),
		eventType,
		audit.Actor{
			Email:    subject,
			SourceIP: c.RealIP(),
		},
		c.Request().Method,
		c.Request().URL.Path,
		details,
	)
}

// recordAs emits a security event attributed to an explicit identity. Login
// handlers use it because the auth context is not populated until a token is
// verified.
func (s *Server) recordAs(
	c echo.Context,
	eventType audit.EventType,
	email string,
	details map[string]string,
) {
	if s.recorder == nil {
		return
	}

	s.recorder.Record(
		c.Request().Context(),
		eventType,
		audit.Actor{
			Email:    email,
			SourceIP: c.RealIP(),
		},
		c.Request().Method,
		c.Request().URL.Path,
		details,
	)
}

// Start starts the Echo server with the configured port.
func (s *Server) Start() {
	go func() {
		s.logger.Info("starting server")
		listenAddr := fmt.Sprintf(":%d", s.appConfig.API.Server.Port)
		if err := s.Echo.Start(listenAddr); err != nil && err != http.ErrServerClosed {
			s.logger.Error(
				"failed to start server",
				slog.String("error", err.Error()),
			)
		}
	}()
}

// Stop gracefully shuts down the Echo server.
func (s *Server) Stop(
	ctx context.Context,
) {
	s.logger.Info("stopping server")

	if err := s.Echo.Shutdown(ctx); err != nil {
		s.logger.Error(
			"server shutdown failed",
			slog.String("error", err.Error()),
		)
	} else {
		s.logger.Info("server stopped gracefully")
	}
}
