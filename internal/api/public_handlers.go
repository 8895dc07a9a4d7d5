package api

import (
	"net/http"
	"time"

	"github.com/Wrecage/KamicoContactRelay/internal/api/helpers"
)

// Root returns the service identity payload.
func (s *Server) Root(w http.ResponseWriter, r *http.Request) {
	helpers.RespondJSON(w, http.StatusOK, map[string]any{
		"status":  "online",
		"service": "Contact Form Relay API",
		"version": Version,
		"endpoints": map[string]string{
			"contact": "/contact (POST)",
			"health":  "/health (GET)",
		},
	})
}

// Health reports liveness, store reachability and whether outbound mail is
// configured (master key present at startup).
func (s *Server) Health(w http.ResponseWriter, r *http.Request) {
	storeOK := true
	if s.pinger != nil {
		storeOK = s.pinger.Ping(r.Context()) == nil
	}

	status := "healthy"
	code := http.StatusOK
	if !storeOK {
		status = "degraded"
		code = http.StatusServiceUnavailable
	}

	helpers.RespondJSON(w, code, map[string]any{
		"status":          status,
		"timestamp":       time.Now().UTC().Format(time.RFC3339),
		"smtp_configured": s.mailConfigured,
		"store_reachable": storeOK,
	})
}
