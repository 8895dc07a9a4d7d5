package tenant

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	tenants map[string]Config
	err     error
}

func (f *fakeStore) TenantByAPIKey(ctx context.Context, apiKey string) (Config, error) {
	if f.err != nil {
		return Config{}, f.err
	}
	cfg, ok := f.tenants[apiKey]
	if !ok {
		return Config{}, ErrNotFound
	}
	return cfg, nil
}

func (f *fakeStore) InsertDeliveryLog(ctx context.Context, rec DeliveryLog) error {
	return nil
}

func TestResolve_KnownKey(t *testing.T) {
	want := Config{ID: uuid.New(), Name: "Acme", APIKey: "k3y"}
	r := NewResolver(&fakeStore{tenants: map[string]Config{"k3y": want}})

	got, err := r.Resolve(context.Background(), "k3y")
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestResolve_UnknownKey(t *testing.T) {
	r := NewResolver(&fakeStore{tenants: map[string]Config{}})

	_, err := r.Resolve(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestResolve_EmptyKey(t *testing.T) {
	r := NewResolver(&fakeStore{tenants: map[string]Config{"": {Name: "oops"}}})

	// An empty key never reaches the store, even if a broken row exists.
	_, err := r.Resolve(context.Background(), "")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestResolve_StoreErrorConflatedToNotFound(t *testing.T) {
	r := NewResolver(&fakeStore{err: errors.New("connection refused")})

	_, err := r.Resolve(context.Background(), "k3y")
	assert.ErrorIs(t, err, ErrNotFound, "store errors must not be distinguishable from unknown keys")
}

func TestAuthorizeOrigin_ExactMatch(t *testing.T) {
	cfg := Config{
		Name:           "Acme",
		AllowedOrigins: []string{"https://good.com", "https://also-good.com"},
	}
	r := NewResolver(&fakeStore{})

	assert.True(t, r.AuthorizeOrigin(cfg, "https://good.com"))
	assert.True(t, r.AuthorizeOrigin(cfg, "https://also-good.com"))
}

func TestAuthorizeOrigin_Rejections(t *testing.T) {
	cfg := Config{Name: "Acme", AllowedOrigins: []string{"https://good.com"}}
	r := NewResolver(&fakeStore{})

	assert.False(t, r.AuthorizeOrigin(cfg, "https://evil.com"), "non-listed origin")
	assert.False(t, r.AuthorizeOrigin(cfg, ""), "absent Origin header")
	assert.False(t, r.AuthorizeOrigin(cfg, "https://GOOD.com"), "match is case-sensitive")
	assert.False(t, r.AuthorizeOrigin(cfg, "https://good.com/"), "match is the full literal string")
	assert.False(t, r.AuthorizeOrigin(cfg, "https://sub.good.com"), "no subdomain matching")
}
