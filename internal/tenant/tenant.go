// Package tenant defines the registered API consumers of the relay and the
// lookup/authorization logic the request pipeline runs against them.
package tenant

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// ErrNotFound is returned when an API key does not map to a tenant. Store
// failures are deliberately reported the same way so callers cannot
// distinguish "unknown key" from "store down" (both map to 401).
var ErrNotFound = errors.New("tenant not found")

// Config represents one registered API consumer.
// API keys are opaque secrets presented by callers; SenderPassword is the
// AES-GCM ciphertext of the tenant's SMTP app-password and is only
// decrypted immediately before an SMTP transaction.
type Config struct {
	ID             uuid.UUID
	Name           string
	APIKey         string
	SenderEmail    string
	SenderPassword string
	RecipientEmail string
	AllowedOrigins []string
	SMTPServer     string
	SMTPPort       int
}

// DeliveryLog is the append-only record written after a successful send.
// The timestamp column is assigned by the store.
type DeliveryLog struct {
	TenantID    uuid.UUID
	Subject     string
	SenderEmail string
}

// Store is the external tenant/record store the pipeline depends on.
type Store interface {
	// TenantByAPIKey performs an equality lookup; implementations return
	// ErrNotFound for unknown keys.
	TenantByAPIKey(ctx context.Context, apiKey string) (Config, error)

	// InsertDeliveryLog appends a delivery record. Callers treat failures
	// as non-fatal.
	InsertDeliveryLog(ctx context.Context, rec DeliveryLog) error
}
