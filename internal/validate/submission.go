// Package validate normalizes and constrains incoming contact-form fields.
// All checks are pure functions over the raw field values; nothing here
// touches the network or the store.
package validate

import (
	"fmt"
	"net/mail"
	"regexp"
	"strings"
)

// Field length limits. These are part of the public contract with the
// frontend forms and must not drift.
const (
	NameMinLength    = 2
	NameMaxLength    = 50
	PhoneMinLength   = 7
	PhoneMaxLength   = 20
	StreetMinLength  = 5
	CityMinLength    = 2
	StateMinLength   = 2
	ZipMinLength     = 2
	ZipMaxLength     = 10
	SubjectMinLength = 3
	SubjectMaxLength = 200
	MessageMinLength = 10
	MessageMaxLength = 5000
)

// spamKeywords are rejected anywhere in the message body, case-insensitive.
var spamKeywords = []string{
	"viagra", "cialis", "crypto", "bitcoin",
	"lottery", "winner", "casino", "pills",
	"investment", "free money", "work from home",
}

var (
	// Letters including the accented Latin ranges, plus space, apostrophe
	// and hyphen. Mirrors what the frontend accepts for person names.
	namePattern  = regexp.MustCompile(`^[a-zA-Z\x{00C0}-\x{017F}\s'-]+$`)
	phonePattern = regexp.MustCompile(`^\+?[\d\s\-]{7,20}$`)
	zipPattern   = regexp.MustCompile(`^[a-zA-Z0-9\s-]+$`)
)

// Submission is a normalized, validated contact-form submission. It is
// request-scoped and never persisted directly.
type Submission struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Street    string `json:"street"`
	City      string `json:"city"`
	State     string `json:"state"`
	ZipCode   string `json:"zip_code"`
	Subject   string `json:"subject"`
	Message   string `json:"message"`
	Honeypot  string `json:"honeypot,omitempty"`
}

// Error reports the first offending field and a human-readable reason.
// The message is safe to surface verbatim in a 4xx response.
type Error struct {
	Field   string
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// IsBot reports whether the honeypot field was filled in. Legitimate users
// never see the field, so any non-blank value marks the submission as
// automated.
func (s *Submission) IsBot() bool {
	return strings.TrimSpace(s.Honeypot) != ""
}

// Validate checks every field against its constraints, trimming surrounding
// whitespace first. Fields are checked in a fixed order and the first
// failure wins. On success the submission holds the trimmed values.
func (s *Submission) Validate() error {
	s.FirstName = strings.TrimSpace(s.FirstName)
	s.LastName = strings.TrimSpace(s.LastName)
	s.Email = strings.TrimSpace(s.Email)
	s.Phone = strings.TrimSpace(s.Phone)
	s.Street = strings.TrimSpace(s.Street)
	s.City = strings.TrimSpace(s.City)
	s.State = strings.TrimSpace(s.State)
	s.ZipCode = strings.TrimSpace(s.ZipCode)
	s.Subject = strings.TrimSpace(s.Subject)
	s.Message = strings.TrimSpace(s.Message)

	if err := validateName("first_name", s.FirstName); err != nil {
		return err
	}
	if err := validateName("last_name", s.LastName); err != nil {
		return err
	}
	if err := validateEmail(s.Email); err != nil {
		return err
	}
	if err := validatePhone(s.Phone); err != nil {
		return err
	}
	if err := validateMinLength("street", s.Street, StreetMinLength, "Street address is too short"); err != nil {
		return err
	}
	if err := validateMinLength("city", s.City, CityMinLength, "City name is too short"); err != nil {
		return err
	}
	if err := validateMinLength("state", s.State, StateMinLength, "Please provide a valid State/Province"); err != nil {
		return err
	}
	if err := validateZip(s.ZipCode); err != nil {
		return err
	}
	if err := validateSubject(s.Subject); err != nil {
		return err
	}
	if err := validateMessage(s.Message); err != nil {
		return err
	}
	return nil
}

func validateName(field, v string) error {
	n := len([]rune(v))
	if n < NameMinLength || n > NameMaxLength {
		return &Error{
			Field:   field,
			Message: fmt.Sprintf("Name must be between %d and %d characters", NameMinLength, NameMaxLength),
		}
	}
	if !namePattern.MatchString(v) {
		return &Error{Field: field, Message: "Name contains invalid characters"}
	}
	return nil
}

func validateEmail(v string) error {
	addr, err := mail.ParseAddress(v)
	if err != nil || addr.Address != v {
		return &Error{Field: "email", Message: "Invalid email address"}
	}
	return nil
}

func validatePhone(v string) error {
	if !phonePattern.MatchString(v) {
		return &Error{Field: "phone", Message: "Invalid phone number format"}
	}
	return nil
}

func validateMinLength(field, v string, min int, msg string) error {
	if len([]rune(v)) < min {
		return &Error{Field: field, Message: msg}
	}
	return nil
}

func validateZip(v string) error {
	n := len([]rune(v))
	if n < ZipMinLength || n > ZipMaxLength {
		return &Error{
			Field:   "zip_code",
			Message: fmt.Sprintf("Zip code must be between %d and %d characters", ZipMinLength, ZipMaxLength),
		}
	}
	if !zipPattern.MatchString(v) {
		return &Error{Field: "zip_code", Message: "Invalid Zip/Postal code format"}
	}
	return nil
}

func validateSubject(v string) error {
	n := len([]rune(v))
	if n < SubjectMinLength || n > SubjectMaxLength {
		return &Error{
			Field:   "subject",
			Message: fmt.Sprintf("Subject must be between %d and %d characters", SubjectMinLength, SubjectMaxLength),
		}
	}
	return nil
}

func validateMessage(v string) error {
	n := len([]rune(v))
	if n < MessageMinLength || n > MessageMaxLength {
		return &Error{
			Field:   "message",
			Message: fmt.Sprintf("Message must be between %d and %d characters", MessageMinLength, MessageMaxLength),
		}
	}
	lower := strings.ToLower(v)
	for _, keyword := range spamKeywords {
		if strings.Contains(lower, keyword) {
			return &Error{Field: "message", Message: "Message contains spam content"}
		}
	}
	return nil
}
