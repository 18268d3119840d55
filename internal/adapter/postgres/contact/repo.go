// Package contact implements the contact message repository using PostgreSQL.
package contact

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/ganjineh/ganjineh-backend/internal/adapter/postgres"
	"github.com/ganjineh/ganjineh-backend/internal/domain"
)

// Repo provides contact message persistence backed by PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new contact message repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

const createContactMessageSQL = `
INSERT INTO contact_messages (id, name, email, message, created_at)
VALUES ($1, $2, $3, $4, $5)
RETURNING created_at`

// Create stores a contact message and returns it with id and timestamp set.
func (r *Repo) Create(ctx context.Context, msg *domain.ContactMessage) (*domain.ContactMessage, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	stored := *msg
	stored.ID = uuid.New()

	err := querier.QueryRow(ctx, createContactMessageSQL,
		stored.ID, stored.Name, stored.Email, stored.Message, time.Now().UTC(),
	).Scan(&stored.CreatedAt)
	if err != nil {
		return nil, postgres.MapError(err, "contact_message", stored.ID)
	}

	return &stored, nil
}
