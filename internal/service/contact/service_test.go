package contact

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ganjineh/ganjineh-backend/internal/domain"
)

type mockRepo struct {
	create func(ctx context.Context, msg *domain.ContactMessage) (*domain.ContactMessage, error)
}

func (m *mockRepo) Create(ctx context.Context, msg *domain.ContactMessage) (*domain.ContactMessage, error) {
	return m.create(ctx, msg)
}

type mockNotifier struct {
	send func(ctx context.Context, msg *domain.ContactMessage) error
}

func (m *mockNotifier) Send(ctx context.Context, msg *domain.ContactMessage) error {
	return m.send(ctx, msg)
}

func storingRepo() *mockRepo {
	return &mockRepo{create: func(ctx context.Context, msg *domain.ContactMessage) (*domain.ContactMessage, error) {
		stored := *msg
		stored.ID = uuid.New()
		return &stored, nil
	}}
}

func validMessage() *domain.ContactMessage {
	return &domain.ContactMessage{
		Name:    "پریسا",
		Email:   "parisa@example.com",
		Message: "درباره دیوان حافظ سوال داشتم.",
	}
}

func TestService_Submit(t *testing.T) {
	t.Parallel()

	notified := false
	svc := NewService(slog.Default(), storingRepo(), &mockNotifier{
		send: func(ctx context.Context, msg *domain.ContactMessage) error {
			notified = true
			return nil
		},
	})

	stored, err := svc.Submit(context.Background(), validMessage())
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, stored.ID)
	assert.True(t, notified)
}

func TestService_Submit_EmailFailureStillSucceeds(t *testing.T) {
	t.Parallel()

	svc := NewService(slog.Default(), storingRepo(), &mockNotifier{
		send: func(ctx context.Context, msg *domain.ContactMessage) error {
			return errors.New("smtp relay down")
		},
	})

	stored, err := svc.Submit(context.Background(), validMessage())
	require.NoError(t, err, "notification failure must not fail the submission")
	assert.NotEqual(t, uuid.Nil, stored.ID)
}

func TestService_Submit_StoreFailureFails(t *testing.T) {
	t.Parallel()

	notified := false
	svc := NewService(slog.Default(), &mockRepo{
		create: func(ctx context.Context, msg *domain.ContactMessage) (*domain.ContactMessage, error) {
			return nil, errors.New("db down")
		},
	}, &mockNotifier{send: func(ctx context.Context, msg *domain.ContactMessage) error {
		notified = true
		return nil
	}})

	_, err := svc.Submit(context.Background(), validMessage())
	require.Error(t, err)
	assert.False(t, notified, "no notification for unstored messages")
}

func TestService_Submit_EmailLengthCountsRunes(t *testing.T) {
	t.Parallel()

	svc := NewService(slog.Default(), &mockRepo{
		create: func(_ context.Context, msg *domain.ContactMessage) (*domain.ContactMessage, error) {
			stored := *msg
			return &stored, nil
		},
	}, nil)

	msg := validMessage()
	// Well over the cap in bytes, but under it in runes.
	msg.Email = strings.Repeat("ن", 140) + "@example.com"

	_, err := svc.Submit(context.Background(), msg)
	require.NoError(t, err)
}

func TestService_Submit_Validation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(m *domain.ContactMessage)
		field  string
	}{
		{
			name:   "empty name",
			mutate: func(m *domain.ContactMessage) { m.Name = "  " },
			field:  "name",
		},
		{
			name:   "name too long",
			mutate: func(m *domain.ContactMessage) { m.Name = strings.Repeat("ن", domain.ContactNameMaxLen+1) },
			field:  "name",
		},
		{
			name:   "empty email",
			mutate: func(m *domain.ContactMessage) { m.Email = "" },
			field:  "email",
		},
		{
			name:   "malformed email",
			mutate: func(m *domain.ContactMessage) { m.Email = "not-an-email" },
			field:  "email",
		},
		{
			name:   "email missing tld",
			mutate: func(m *domain.ContactMessage) { m.Email = "a@b" },
			field:  "email",
		},
		{
			name:   "email too long",
			mutate: func(m *domain.ContactMessage) { m.Email = strings.Repeat("a", domain.ContactEmailMaxLen) + "@example.com" },
			field:  "email",
		},
		{
			name:   "empty message",
			mutate: func(m *domain.ContactMessage) { m.Message = "" },
			field:  "message",
		},
		{
			name:   "message too long",
			mutate: func(m *domain.ContactMessage) { m.Message = strings.Repeat("م", domain.ContactMessageMaxLen+1) },
			field:  "message",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			svc := NewService(slog.Default(), &mockRepo{
				create: func(ctx context.Context, msg *domain.ContactMessage) (*domain.ContactMessage, error) {
					t.Fatal("invalid message must not be stored")
					return nil, nil
				},
			}, nil)

			msg := validMessage()
			tc.mutate(msg)

			_, err := svc.Submit(context.Background(), msg)
			require.ErrorIs(t, err, domain.ErrValidation)

			var vErr *domain.ValidationError
			require.ErrorAs(t, err, &vErr)
			require.NotEmpty(t, vErr.Errors)
			assert.Equal(t, tc.field, vErr.Errors[0].Field)
		})
	}
}

func TestService_Submit_TrimsFields(t *testing.T) {
	t.Parallel()

	var stored *domain.ContactMessage
	svc := NewService(slog.Default(), &mockRepo{
		create: func(ctx context.Context, msg *domain.ContactMessage) (*domain.ContactMessage, error) {
			stored = msg
			out := *msg
			out.ID = uuid.New()
			return &out, nil
		},
	}, nil)

	msg := validMessage()
	msg.Name = "  پریسا  "

	_, err := svc.Submit(context.Background(), msg)
	require.NoError(t, err)
	assert.Equal(t, "پریسا", stored.Name)
}
