// Package api wires the HTTP surface of the relay: the contact pipeline,
// health endpoints, and the middleware stack in front of them.
package api

import (
	"context"

	sentryhttp "github.com/getsentry/sentry-go/http"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	customMiddleware "github.com/Wrecage/KamicoContactRelay/internal/api/middleware"
	"github.com/Wrecage/KamicoContactRelay/internal/mailer"
	"github.com/Wrecage/KamicoContactRelay/internal/ratelimit"
	"github.com/Wrecage/KamicoContactRelay/internal/tenant"
)

// Version identifies the service in the root payload.
const Version = "1.0.0"

// Pinger reports tenant-store reachability for the health endpoint.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server bundles the router with the pipeline's collaborators.
type Server struct {
	Router *chi.Mux

	resolver *tenant.Resolver
	store    tenant.Store
	limiter  *ratelimit.Window
	mailer   mailer.Deliverer

	pinger         Pinger
	mailConfigured bool
}

// NewServer assembles the middleware stack and routes. rpsLimiter guards
// every endpoint at flood scale; the hourly submission window is enforced
// inside the contact pipeline where ordering matters.
func NewServer(
	resolver *tenant.Resolver,
	store tenant.Store,
	limiter *ratelimit.Window,
	deliverer mailer.Deliverer,
	pinger Pinger,
	mailConfigured bool,
) *Server {
	s := &Server{
		resolver:       resolver,
		store:          store,
		limiter:        limiter,
		mailer:         deliverer,
		pinger:         pinger,
		mailConfigured: mailConfigured,
	}

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)

	// Sentry before recovery so panics reach it via Repanic.
	sentryHandler := sentryhttp.New(sentryhttp.Options{
		Repanic: true,
	})
	r.Use(sentryHandler.Handle)

	r.Use(customMiddleware.RequestLogger)
	r.Use(customMiddleware.PanicRecovery)

	rpsLimiter := customMiddleware.NewIPRateLimiter(5, 10) // 5 RPS, Burst 10
	r.Use(rpsLimiter.Middleware)

	r.Get("/", s.Root)
	r.Get("/health", s.Health)
	r.Post("/contact", s.Contact)

	s.Router = r
	return s
}
