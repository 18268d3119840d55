package domain

import (
	"time"

	"github.com/google/uuid"
)

// Field length caps for contact messages.
const (
	ContactNameMaxLen    = 120
	ContactEmailMaxLen   = 200
	ContactMessageMaxLen = 5000
)

// ContactMessage is a message submitted through the contact form.
type ContactMessage struct {
	ID        uuid.UUID
	Name      string
	Email     string
	Message   string
	CreatedAt time.Time
}
