package content

import (
	"context"
	"errors"
	"regexp"
	"strings"
)

var (
	ErrContactFieldsMissing = errors.New("content: missing required fields")
	ErrInvalidEmail         = errors.New("content: invalid email format")
)

// ContactRequiredFields are echoed back to callers on validation failure.
var ContactRequiredFields = []string{"name", "email", "message"}

const DefaultContactSubject = "No Subject"

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

type ContactSubmission struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Subject string `json:"subject"`
	Message string `json:"message"`
}

// Normalize trims every field and applies the default subject.
func (c ContactSubmission) Normalize() ContactSubmission {
	out := ContactSubmission{
		Name:    strings.TrimSpace(c.Name),
		Email:   strings.TrimSpace(c.Email),
		Subject: strings.TrimSpace(c.Subject),
		Message: strings.TrimSpace(c.Message),
	}
	if out.Subject == "" {
		out.Subject = DefaultContactSubject
	}
	return out
}

func (c ContactSubmission) Validate() error {
	if c.Name == "" || c.Email == "" || c.Message == "" {
		return ErrContactFieldsMissing
	}
	if !emailPattern.MatchString(c.Email) {
		return ErrInvalidEmail
	}
	return nil
}

// SubmitContact stores a visitor message as an unread document in the
// messages collection.
func (s *Service) SubmitContact(ctx context.Context, in ContactSubmission) (Document, error) {
	in = in.Normalize()
	if err := in.Validate(); err != nil {
		return Document{}, err
	}
	return s.store.Create(ctx, CollectionMessages, s.newID(), Fields{
		"name":    in.Name,
		"email":   in.Email,
		"subject": in.Subject,
		"message": in.Message,
		"read":    false,
	})
}
