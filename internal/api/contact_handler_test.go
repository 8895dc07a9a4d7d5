package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Wrecage/KamicoContactRelay/internal/ratelimit"
	"github.com/Wrecage/KamicoContactRelay/internal/tenant"
	"github.com/Wrecage/KamicoContactRelay/internal/validate"
)

type fakeStore struct {
	tenants map[string]tenant.Config
	logs    []tenant.DeliveryLog
	logErr  error
}

func (f *fakeStore) TenantByAPIKey(ctx context.Context, apiKey string) (tenant.Config, error) {
	cfg, ok := f.tenants[apiKey]
	if !ok {
		return tenant.Config{}, tenant.ErrNotFound
	}
	return cfg, nil
}

func (f *fakeStore) InsertDeliveryLog(ctx context.Context, rec tenant.DeliveryLog) error {
	if f.logErr != nil {
		return f.logErr
	}
	f.logs = append(f.logs, rec)
	return nil
}

type fakeDeliverer struct {
	err       error
	delivered []*validate.Submission
	tenants   []tenant.Config
}

func (f *fakeDeliverer) Deliver(ctx context.Context, sub *validate.Submission, t tenant.Config) error {
	if f.err != nil {
		return f.err
	}
	f.delivered = append(f.delivered, sub)
	f.tenants = append(f.tenants, t)
	return nil
}

const testAPIKey = "k7GpQ2vXn9LwRt4YcBmZa1JdHs8EfKu0"

func testTenant() tenant.Config {
	return tenant.Config{
		ID:             uuid.New(),
		Name:           "Acme Corp",
		APIKey:         testAPIKey,
		SenderEmail:    "forms@acme.example",
		SenderPassword: "enc:irrelevant-here",
		RecipientEmail: "leads@acme.example",
		AllowedOrigins: []string{"https://good.com"},
		SMTPServer:     "smtp.example.com",
		SMTPPort:       587,
	}
}

func newTestServer(store *fakeStore, deliverer *fakeDeliverer, maxPerHour int) *Server {
	return NewServer(
		tenant.NewResolver(store),
		store,
		ratelimit.NewWindow(maxPerHour, time.Hour),
		deliverer,
		nil,
		true,
	)
}

func validBody() map[string]any {
	return map[string]any{
		"first_name": "Ana",
		"last_name":  "García",
		"email":      "ana@example.com",
		"phone":      "+1 555 123 4567",
		"street":     "123 Main Street",
		"city":       "Springfield",
		"state":      "IL",
		"zip_code":   "62704",
		"subject":    "Quote request",
		"message":    "I would like a quote for my storefront.",
	}
}

func postContact(t *testing.T, srv *Server, body map[string]any, mutate func(*http.Request)) *httptest.ResponseRecorder {
	t.Helper()

	payload, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/contact", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-Key", testAPIKey)
	req.Header.Set("Origin", "https://good.com")
	if mutate != nil {
		mutate(req)
	}

	rr := httptest.NewRecorder()
	srv.Router.ServeHTTP(rr, req)
	return rr
}

func TestContact_Success(t *testing.T) {
	store := &fakeStore{tenants: map[string]tenant.Config{testAPIKey: testTenant()}}
	deliverer := &fakeDeliverer{}
	srv := newTestServer(store, deliverer, 5)

	rr := postContact(t, srv, validBody(), nil)

	assert.Equal(t, http.StatusOK, rr.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, true, resp["success"])
	assert.Equal(t, "Your message has been sent successfully!", resp["message"])

	// The mailer received the submission fields verbatim.
	require.Len(t, deliverer.delivered, 1)
	sub := deliverer.delivered[0]
	assert.Equal(t, "Ana", sub.FirstName)
	assert.Equal(t, "García", sub.LastName)
	assert.Equal(t, "ana@example.com", sub.Email)
	assert.Equal(t, "I would like a quote for my storefront.", sub.Message)
	assert.Equal(t, "Acme Corp", deliverer.tenants[0].Name)

	// A delivery log record was appended.
	require.Len(t, store.logs, 1)
	assert.Equal(t, "Quote request", store.logs[0].Subject)
	assert.Equal(t, "forms@acme.example", store.logs[0].SenderEmail)
}

func TestContact_MissingAPIKey(t *testing.T) {
	store := &fakeStore{tenants: map[string]tenant.Config{testAPIKey: testTenant()}}
	deliverer := &fakeDeliverer{}
	srv := newTestServer(store, deliverer, 5)

	rr := postContact(t, srv, validBody(), func(r *http.Request) {
		r.Header.Del("X-API-Key")
	})

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Empty(t, deliverer.delivered)
}

func TestContact_UnknownAPIKey(t *testing.T) {
	store := &fakeStore{tenants: map[string]tenant.Config{testAPIKey: testTenant()}}
	srv := newTestServer(store, &fakeDeliverer{}, 5)

	rr := postContact(t, srv, validBody(), func(r *http.Request) {
		r.Header.Set("X-API-Key", "definitely-not-a-registered-key-000")
	})

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestContact_WrongOriginIsForbiddenNotUnauthorized(t *testing.T) {
	// A valid key with a bad origin must produce 403, not 401: the caller
	// authenticated, then failed authorization.
	store := &fakeStore{tenants: map[string]tenant.Config{testAPIKey: testTenant()}}
	srv := newTestServer(store, &fakeDeliverer{}, 5)

	rr := postContact(t, srv, validBody(), func(r *http.Request) {
		r.Header.Set("Origin", "https://evil.com")
	})
	assert.Equal(t, http.StatusForbidden, rr.Code)

	rr = postContact(t, srv, validBody(), func(r *http.Request) {
		r.Header.Del("Origin")
	})
	assert.Equal(t, http.StatusForbidden, rr.Code, "absent Origin header is rejected")
}

func TestContact_HoneypotGenericRejection(t *testing.T) {
	store := &fakeStore{tenants: map[string]tenant.Config{testAPIKey: testTenant()}}
	deliverer := &fakeDeliverer{}
	srv := newTestServer(store, deliverer, 5)

	body := validBody()
	body["honeypot"] = "http://spam.example"

	rr := postContact(t, srv, body, nil)

	assert.Equal(t, http.StatusBadRequest, rr.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "Invalid submission", resp["detail"], "no hint that a honeypot exists")
	assert.Empty(t, deliverer.delivered)
}

func TestContact_HoneypotDoesNotConsumeRateBudget(t *testing.T) {
	store := &fakeStore{tenants: map[string]tenant.Config{testAPIKey: testTenant()}}
	srv := newTestServer(store, &fakeDeliverer{}, 1)

	body := validBody()
	body["honeypot"] = "bot"
	rr := postContact(t, srv, body, nil)
	require.Equal(t, http.StatusBadRequest, rr.Code)

	// The bot rejection happened before the limiter, so a legitimate
	// submission from the same IP still fits the budget of 1.
	rr = postContact(t, srv, validBody(), nil)
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestContact_RateLimited(t *testing.T) {
	store := &fakeStore{tenants: map[string]tenant.Config{testAPIKey: testTenant()}}
	deliverer := &fakeDeliverer{}
	srv := newTestServer(store, deliverer, 2)

	rr := postContact(t, srv, validBody(), nil)
	require.Equal(t, http.StatusOK, rr.Code)
	rr = postContact(t, srv, validBody(), nil)
	require.Equal(t, http.StatusOK, rr.Code)

	rr = postContact(t, srv, validBody(), nil)
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.Len(t, deliverer.delivered, 2, "over-budget request never reached the mailer")
}

func TestContact_RateLimitKeyedByForwardedFor(t *testing.T) {
	store := &fakeStore{tenants: map[string]tenant.Config{testAPIKey: testTenant()}}
	srv := newTestServer(store, &fakeDeliverer{}, 1)

	withIP := func(ip string) func(*http.Request) {
		return func(r *http.Request) { r.Header.Set("X-Forwarded-For", ip) }
	}

	rr := postContact(t, srv, validBody(), withIP("203.0.113.7"))
	require.Equal(t, http.StatusOK, rr.Code)
	rr = postContact(t, srv, validBody(), withIP("203.0.113.7"))
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)

	// A different client is unaffected.
	rr = postContact(t, srv, validBody(), withIP("198.51.100.9"))
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestContact_ValidationErrorSurfacesField(t *testing.T) {
	store := &fakeStore{tenants: map[string]tenant.Config{testAPIKey: testTenant()}}
	deliverer := &fakeDeliverer{}
	srv := newTestServer(store, deliverer, 5)

	body := validBody()
	body["first_name"] = "A"

	rr := postContact(t, srv, body, nil)

	assert.Equal(t, http.StatusBadRequest, rr.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Contains(t, resp["detail"], "first_name")
	assert.Empty(t, deliverer.delivered)
}

func TestContact_DeliveryFailure(t *testing.T) {
	store := &fakeStore{tenants: map[string]tenant.Config{testAPIKey: testTenant()}}
	deliverer := &fakeDeliverer{err: errors.New("smtp delivery failed")}
	srv := newTestServer(store, deliverer, 5)

	rr := postContact(t, srv, validBody(), nil)

	assert.Equal(t, http.StatusInternalServerError, rr.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "Failed to send message. Please try again.", resp["detail"])
	assert.Empty(t, store.logs, "no log record for a failed delivery")
}

func TestContact_LogFailureDoesNotChangeResponse(t *testing.T) {
	store := &fakeStore{
		tenants: map[string]tenant.Config{testAPIKey: testTenant()},
		logErr:  errors.New("log table unavailable"),
	}
	srv := newTestServer(store, &fakeDeliverer{}, 5)

	rr := postContact(t, srv, validBody(), nil)

	assert.Equal(t, http.StatusOK, rr.Code, "log-write failures are swallowed")
}

func TestContact_MalformedBody(t *testing.T) {
	store := &fakeStore{tenants: map[string]tenant.Config{testAPIKey: testTenant()}}
	srv := newTestServer(store, &fakeDeliverer{}, 5)

	req := httptest.NewRequest(http.MethodPost, "/contact", bytes.NewReader([]byte("{not json")))
	req.Header.Set("X-API-Key", testAPIKey)
	req.Header.Set("Origin", "https://good.com")
	rr := httptest.NewRecorder()
	srv.Router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestRootAndHealth(t *testing.T) {
	store := &fakeStore{tenants: map[string]tenant.Config{}}
	srv := newTestServer(store, &fakeDeliverer{}, 5)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rr := httptest.NewRecorder()
	srv.Router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	var root map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &root))
	assert.Equal(t, "online", root["status"])
	assert.Equal(t, Version, root["version"])

	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	rr = httptest.NewRecorder()
	srv.Router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	var health map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &health))
	assert.Equal(t, "healthy", health["status"])
	assert.Equal(t, true, health["smtp_configured"])
}
