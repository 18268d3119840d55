package rest

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/ganjineh/ganjineh-backend/internal/domain"
)

type contactServiceMock struct {
	submit func(ctx context.Context, msg *domain.ContactMessage) (*domain.ContactMessage, error)
}

func (m *contactServiceMock) Submit(ctx context.Context, msg *domain.ContactMessage) (*domain.ContactMessage, error) {
	return m.submit(ctx, msg)
}

func TestContactSubmit_Created(t *testing.T) {
	t.Parallel()

	storedID := uuid.New()
	h := NewContactHandler(&contactServiceMock{
		submit: func(_ context.Context, msg *domain.ContactMessage) (*domain.ContactMessage, error) {
			stored := *msg
			stored.ID = storedID
			stored.CreatedAt = time.Now()
			return &stored, nil
		},
	})

	body := `{"name":"رضا","email":"reza@example.com","message":"سلام"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/contact", strings.NewReader(body))
	rec := httptest.NewRecorder()

	h.Submit(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d", rec.Code)
	}

	var resp contactResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.ID != storedID.String() {
		t.Errorf("expected stored id %s, got %s", storedID, resp.ID)
	}
	if resp.Email != "reza@example.com" {
		t.Errorf("unexpected email: %q", resp.Email)
	}
}

func TestContactSubmit_InvalidBody(t *testing.T) {
	t.Parallel()

	h := NewContactHandler(&contactServiceMock{
		submit: func(_ context.Context, _ *domain.ContactMessage) (*domain.ContactMessage, error) {
			t.Fatal("service must not be called for a malformed body")
			return nil, nil
		},
	})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/contact", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()

	h.Submit(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rec.Code)
	}
}

func TestContactSubmit_ValidationErrorsExposeFields(t *testing.T) {
	t.Parallel()

	h := NewContactHandler(&contactServiceMock{
		submit: func(_ context.Context, _ *domain.ContactMessage) (*domain.ContactMessage, error) {
			return nil, domain.NewValidationErrors([]domain.FieldError{
				{Field: "email", Message: "must be a valid email address"},
			})
		},
	})

	body := `{"name":"رضا","email":"nope","message":"سلام"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/contact", strings.NewReader(body))
	rec := httptest.NewRecorder()

	h.Submit(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rec.Code)
	}

	var resp errorResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Fields["email"] == "" {
		t.Errorf("expected a field error for email, got %+v", resp.Fields)
	}
}
