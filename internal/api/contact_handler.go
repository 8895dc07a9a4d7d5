package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/Wrecage/KamicoContactRelay/internal/api/helpers"
	"github.com/Wrecage/KamicoContactRelay/internal/tenant"
	"github.com/Wrecage/KamicoContactRelay/internal/validate"
)

// Contact runs the submission pipeline. The stage order is a security
// contract:
//
//	key present -> tenant resolved -> origin authorized -> honeypot ->
//	rate limit -> field validation -> delivery -> best-effort log
//
// Authentication precedes rate limiting so anonymous probing cannot
// pollute the limiter's key space, and the limiter runs before validation
// and delivery so over-budget clients cannot burn SMTP work.
func (s *Server) Contact(w http.ResponseWriter, r *http.Request) {
	// 1. API key header present.
	apiKey := r.Header.Get("X-API-Key")
	if apiKey == "" {
		helpers.RespondError(w, http.StatusUnauthorized, "Invalid API key")
		return
	}

	// 2. Key maps to a tenant. Unknown and invalid keys are identical to
	// the caller.
	t, err := s.resolver.Resolve(r.Context(), apiKey)
	if err != nil {
		helpers.RespondError(w, http.StatusUnauthorized, "Invalid API key")
		return
	}

	// 3. Origin allow-listed for this tenant.
	if !s.resolver.AuthorizeOrigin(t, r.Header.Get("Origin")) {
		helpers.RespondError(w, http.StatusForbidden, "Origin not allowed")
		return
	}

	var sub validate.Submission
	if err := helpers.DecodeJSON(r, &sub); err != nil {
		slog.Warn("contact_body_rejected", "tenant", t.Name, "error", err)
		helpers.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	// 4. Honeypot. The response is the generic bad-request so automated
	// senders learn nothing about why they were rejected.
	if sub.IsBot() {
		slog.Warn("honeypot_tripped", "tenant", t.Name, "ip", helpers.ClientIP(r))
		helpers.RespondError(w, http.StatusBadRequest, "Invalid submission")
		return
	}

	// 5. Hourly submission budget per client IP.
	clientIP := helpers.ClientIP(r)
	if !s.limiter.Allow(clientIP) {
		helpers.RespondError(w, http.StatusTooManyRequests, "Too many requests. Please try again later.")
		return
	}

	// 6. Field validation; the first failure is surfaced verbatim.
	if err := sub.Validate(); err != nil {
		var verr *validate.Error
		if errors.As(err, &verr) {
			helpers.RespondError(w, http.StatusBadRequest, verr.Error())
			return
		}
		helpers.RespondError(w, http.StatusBadRequest, "Invalid submission")
		return
	}

	// 7. Synchronous single-attempt delivery.
	if err := s.mailer.Deliver(r.Context(), &sub, t); err != nil {
		slog.Error("delivery_failed", "tenant", t.Name, "error", err)
		helpers.RespondError(w, http.StatusInternalServerError, "Failed to send message. Please try again.")
		return
	}

	// 8. Best-effort delivery log; failure never changes the response.
	rec := tenant.DeliveryLog{
		TenantID:    t.ID,
		Subject:     sub.Subject,
		SenderEmail: t.SenderEmail,
	}
	if err := s.store.InsertDeliveryLog(r.Context(), rec); err != nil {
		slog.Warn("delivery_log_write_failed", "tenant", t.Name, "error", err)
	}

	helpers.RespondJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Your message has been sent successfully!",
	})
}
