package tenant

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/getsentry/sentry-go"
)

// Resolver authenticates callers by API key and authorizes their Origin
// against the tenant's allow-list.
type Resolver struct {
	store Store
}

func NewResolver(store Store) *Resolver {
	return &Resolver{store: store}
}

// Resolve looks up the tenant for the presented API key. Unknown keys and
// store errors both come back as ErrNotFound; the underlying store error
// is logged and reported so operators still see outages, but callers get a
// uniform "unauthorized" answer.
func (r *Resolver) Resolve(ctx context.Context, apiKey string) (Config, error) {
	if apiKey == "" {
		return Config{}, ErrNotFound
	}

	cfg, err := r.store.TenantByAPIKey(ctx, apiKey)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			slog.Error("tenant_lookup_failed", "error", err)
			sentry.CaptureException(err)
		}
		return Config{}, ErrNotFound
	}
	return cfg, nil
}

// AuthorizeOrigin reports whether the request's Origin header is a literal
// member of the tenant's allow-list. An absent header is rejected: the
// relay only serves browser traffic that carries one. No wildcard or
// subdomain matching.
//
// Rejections are operator-visible (log + Sentry) with the offending origin
// and tenant name, to support abuse triage.
func (r *Resolver) AuthorizeOrigin(tenant Config, origin string) bool {
	if origin != "" && slices.Contains(tenant.AllowedOrigins, origin) {
		return true
	}

	slog.Warn("origin_rejected",
		"tenant", tenant.Name,
		"origin", origin,
	)
	sentry.CaptureMessage(fmt.Sprintf("origin rejected: tenant=%s origin=%q", tenant.Name, origin))
	return false
}
