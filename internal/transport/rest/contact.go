package rest

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/ganjineh/ganjineh-backend/internal/domain"
)

type contactService interface {
	Submit(ctx context.Context, msg *domain.ContactMessage) (*domain.ContactMessage, error)
}

// ContactHandler serves the contact form endpoint.
type ContactHandler struct {
	svc contactService
}

// NewContactHandler creates a ContactHandler.
func NewContactHandler(svc contactService) *ContactHandler {
	return &ContactHandler{svc: svc}
}

type contactRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Message string `json:"message"`
}

// Submit handles POST /api/v1/contact.
func (h *ContactHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req contactRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	stored, err := h.svc.Submit(r.Context(), &domain.ContactMessage{
		Name:    req.Name,
		Email:   req.Email,
		Message: req.Message,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toContactResponse(stored))
}
