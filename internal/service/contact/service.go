// Package contact handles contact form submissions: validate, persist, then
// notify by email best-effort. A stored message is a success even when the
// notification fails.
package contact

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ganjineh/ganjineh-backend/internal/domain"
)

type messageRepo interface {
	Create(ctx context.Context, msg *domain.ContactMessage) (*domain.ContactMessage, error)
}

type notifier interface {
	Send(ctx context.Context, msg *domain.ContactMessage) error
}

// Service implements the contact form flow.
type Service struct {
	log      *slog.Logger
	messages messageRepo
	mail     notifier
}

// NewService creates the contact service. mail may be nil to disable
// notifications.
func NewService(logger *slog.Logger, messages messageRepo, mail notifier) *Service {
	return &Service{
		log:      logger.With("service", "contact"),
		messages: messages,
		mail:     mail,
	}
}

// Submit validates and stores a contact message, then sends the notification.
func (s *Service) Submit(ctx context.Context, msg *domain.ContactMessage) (*domain.ContactMessage, error) {
	if err := validate(msg); err != nil {
		return nil, err
	}

	stored, err := s.messages.Create(ctx, msg)
	if err != nil {
		return nil, fmt.Errorf("store contact message: %w", err)
	}

	if s.mail != nil {
		if err := s.mail.Send(ctx, stored); err != nil {
			s.log.WarnContext(ctx, "contact notification failed, message is stored",
				slog.String("message_id", stored.ID.String()),
				slog.String("error", err.Error()),
			)
		}
	}

	s.log.InfoContext(ctx, "contact message received",
		slog.String("message_id", stored.ID.String()),
	)
	return stored, nil
}

func validate(msg *domain.ContactMessage) error {
	var fields []domain.FieldError

	name := strings.TrimSpace(msg.Name)
	switch {
	case name == "":
		fields = append(fields, domain.FieldError{Field: "name", Message: "required"})
	case len([]rune(name)) > domain.ContactNameMaxLen:
		fields = append(fields, domain.FieldError{Field: "name", Message: "too long"})
	}

	email := strings.TrimSpace(msg.Email)
	switch {
	case email == "":
		fields = append(fields, domain.FieldError{Field: "email", Message: "required"})
	case len([]rune(email)) > domain.ContactEmailMaxLen:
		fields = append(fields, domain.FieldError{Field: "email", Message: "too long"})
	case !looksLikeEmail(email):
		fields = append(fields, domain.FieldError{Field: "email", Message: "invalid"})
	}

	message := strings.TrimSpace(msg.Message)
	switch {
	case message == "":
		fields = append(fields, domain.FieldError{Field: "message", Message: "required"})
	case len([]rune(message)) > domain.ContactMessageMaxLen:
		fields = append(fields, domain.FieldError{Field: "message", Message: "too long"})
	}

	if len(fields) > 0 {
		return domain.NewValidationErrors(fields)
	}

	msg.Name, msg.Email, msg.Message = name, email, message
	return nil
}

// looksLikeEmail checks the minimal local@domain.tld shape; real validation
// happens when the notification bounces.
func looksLikeEmail(s string) bool {
	at := strings.Index(s, "@")
	if at <= 0 || at == len(s)-1 {
		return false
	}
	domainPart := s[at+1:]
	dot := strings.LastIndex(domainPart, ".")
	return dot > 0 && dot < len(domainPart)-1 && !strings.Contains(domainPart, "@") && !strings.ContainsAny(s, " \t\n")
}
