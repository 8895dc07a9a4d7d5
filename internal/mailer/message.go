package mailer

import (
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/Wrecage/KamicoContactRelay/internal/validate"
)

// notificationBody is the fixed HTML envelope for the inquiry notification.
// User-supplied fields go through html/template so hostile markup in a form
// field renders inert.
var notificationBody = template.Must(template.New("notification").Parse(`<html>
  <body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333;">
    <div style="max-width: 600px; margin: auto; border: 1px solid #ddd; padding: 20px;">
      <h2 style="color: #2c3e50; border-bottom: 2px solid #eee; padding-bottom: 10px;">New Contact Submission</h2>

      <p><strong>Name:</strong> {{.FirstName}} {{.LastName}}</p>
      <p><strong>Email:</strong> {{.Email}}</p>
      <p><strong>Phone:</strong> {{.Phone}}</p>

      <h3 style="color: #7f8c8d; font-size: 16px;">Address Details</h3>
      <p style="background: #f9f9f9; padding: 10px; border-radius: 4px;">
        {{.Street}}<br>
        {{.City}}, {{.State}} {{.ZipCode}}
      </p>

      <hr style="border: 0; border-top: 1px solid #eee;">
      <p><strong>Subject:</strong> {{.Subject}}</p>
      <p><strong>Message:</strong></p>
      <div style="white-space: pre-wrap; background: #fdfdfd; padding: 15px; border-left: 4px solid #3498db;">{{.Message}}</div>

      <p style="color: #999; font-size: 11px; margin-top: 30px; text-align: center;">
        Received on {{.ReceivedAt}}
      </p>
    </div>
  </body>
</html>`))

type notificationData struct {
	FirstName  string
	LastName   string
	Email      string
	Phone      string
	Street     string
	City       string
	State      string
	ZipCode    string
	Subject    string
	Message    string
	ReceivedAt string
}

// Subject renders the notification subject line for a tenant.
func Subject(displayName, subject string) string {
	return fmt.Sprintf("[%s] New Inquiry: %s", displayName, subject)
}

// RenderBody produces the HTML notification body for a validated
// submission, stamped with the given server time.
func RenderBody(sub *validate.Submission, receivedAt time.Time) (string, error) {
	var out strings.Builder
	data := notificationData{
		FirstName:  sub.FirstName,
		LastName:   sub.LastName,
		Email:      sub.Email,
		Phone:      sub.Phone,
		Street:     sub.Street,
		City:       sub.City,
		State:      sub.State,
		ZipCode:    sub.ZipCode,
		Subject:    sub.Subject,
		Message:    sub.Message,
		ReceivedAt: receivedAt.Format("January 2, 2006 at 15:04:05"),
	}
	if err := notificationBody.Execute(&out, data); err != nil {
		return "", fmt.Errorf("render notification body: %w", err)
	}
	return out.String(), nil
}
