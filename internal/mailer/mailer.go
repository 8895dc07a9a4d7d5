// Package mailer renders the inquiry notification and delivers it over the
// tenant's SMTP settings. Delivery is synchronous, best-effort and single
// attempt; any transport, authentication or decryption problem surfaces as
// a delivery failure, never as a panic or a validation error.
package mailer

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	gomail "github.com/go-mail/mail"

	"github.com/Wrecage/KamicoContactRelay/internal/crypto"
	"github.com/Wrecage/KamicoContactRelay/internal/tenant"
	"github.com/Wrecage/KamicoContactRelay/internal/validate"
)

// Deliverer is the delivery contract the request pipeline depends on.
type Deliverer interface {
	Deliver(ctx context.Context, sub *validate.Submission, t tenant.Config) error
}

// SMTPMailer delivers notifications via the tenant's own SMTP server.
//
// The stored app-password is decrypted in memory immediately before the
// SMTP transaction and never logged. The connection is upgraded with
// STARTTLS before authenticating when the server offers it; port 465 uses
// implicit TLS.
type SMTPMailer struct {
	cipher *crypto.SecretCipher
	now    func() time.Time

	// dialTimeout bounds the whole SMTP transaction so one slow tenant
	// server cannot pin a request handler indefinitely.
	dialTimeout time.Duration
}

func NewSMTPMailer(cipher *crypto.SecretCipher) *SMTPMailer {
	return &SMTPMailer{
		cipher:      cipher,
		now:         time.Now,
		dialTimeout: 15 * time.Second,
	}
}

// Deliver renders and sends the notification for a validated submission.
// Returns a generic error on any failure; the detail is logged server-side
// only.
func (m *SMTPMailer) Deliver(ctx context.Context, sub *validate.Submission, t tenant.Config) error {
	log := slog.With("tenant", t.Name, "smtp_host", t.SMTPServer)

	// Re-validated on every send, not just at provisioning, so a DNS
	// record repointed at an internal address is still caught.
	if err := ValidateSMTPConfig(t.SMTPServer, t.SMTPPort); err != nil {
		log.Error("smtp_config_rejected", "error", err)
		return fmt.Errorf("smtp configuration failed validation")
	}

	password, err := m.cipher.Decrypt(t.SenderPassword)
	if err != nil {
		log.Error("smtp_password_decrypt_failed", "error", err)
		return fmt.Errorf("smtp credential configuration error")
	}

	sender, err := safeAddress(t.SenderEmail)
	if err != nil {
		log.Error("sender_address_invalid", "error", err)
		return fmt.Errorf("smtp configuration error")
	}
	recipient, err := safeAddress(t.RecipientEmail)
	if err != nil {
		log.Error("recipient_address_invalid", "error", err)
		return fmt.Errorf("smtp configuration error")
	}
	replyTo, err := safeAddress(sub.Email)
	if err != nil {
		// The validator already accepted this address; treat a failure
		// here as an internal inconsistency rather than user error.
		log.Error("reply_to_address_invalid", "error", err)
		return fmt.Errorf("invalid reply address")
	}

	body, err := RenderBody(sub, m.now())
	if err != nil {
		log.Error("notification_render_failed", "error", err)
		return fmt.Errorf("failed to build notification")
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", sender)
	msg.SetHeader("To", recipient)
	msg.SetHeader("Reply-To", replyTo)
	msg.SetHeader("Subject", Subject(t.Name, sub.Subject))
	msg.SetBody("text/html", body)

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("delivery canceled: %w", err)
	}

	d := gomail.NewDialer(t.SMTPServer, t.SMTPPort, t.SenderEmail, password)
	d.Timeout = m.dialTimeout
	d.StartTLSPolicy = gomail.OpportunisticStartTLS
	d.TLSConfig = &tls.Config{
		ServerName: t.SMTPServer,
		MinVersion: tls.VersionTLS12,
	}
	if t.SMTPPort == 465 {
		d.SSL = true
	}

	if err := d.DialAndSend(msg); err != nil {
		log.Error("smtp_send_failed", "error", err)
		return fmt.Errorf("smtp delivery failed")
	}

	log.Info("notification_sent", "subject_len", len(sub.Subject))
	return nil
}

// safeAddress validates an address via net/mail and rejects CRLF so form
// content can never smuggle extra SMTP headers into the message.
func safeAddress(addr string) (string, error) {
	parsed, err := mail.ParseAddress(addr)
	if err != nil {
		return "", fmt.Errorf("invalid email format: %w", err)
	}
	if strings.ContainsAny(parsed.Address, "\r\n") || strings.ContainsAny(parsed.Name, "\r\n") {
		return "", fmt.Errorf("CRLF injection detected in email address")
	}
	return parsed.Address, nil
}
