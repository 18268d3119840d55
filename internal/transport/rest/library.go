package rest

import (
	"context"
	"net/http"

	"github.com/ganjineh/ganjineh-backend/internal/domain"
	"github.com/ganjineh/ganjineh-backend/internal/service/library"
)

type libraryService interface {
	GetPoets(ctx context.Context) ([]domain.Poet, error)
	GetPoet(ctx context.Context, id int) (*domain.PoetProfile, error)
	GetCategory(ctx context.Context, id int) (*domain.Category, error)
	GetCategoryPoems(ctx context.Context, id int) ([]domain.Poem, error)
	GetChapter(ctx context.Context, id int) (*domain.Chapter, error)
	GetPoem(ctx context.Context, id int) (*domain.Poem, error)
	GetRandomPoem(ctx context.Context) (*domain.Poem, error)
	Metrics() *library.Metrics
}

// LibraryHandler serves the read endpoints of the poetry library.
type LibraryHandler struct {
	svc libraryService
}

// NewLibraryHandler creates a LibraryHandler.
func NewLibraryHandler(svc libraryService) *LibraryHandler {
	return &LibraryHandler{svc: svc}
}

// Poets handles GET /api/v1/poets.
func (h *LibraryHandler) Poets(w http.ResponseWriter, r *http.Request) {
	poets, err := h.svc.GetPoets(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toPoetResponses(poets))
}

// Poet handles GET /api/v1/poets/{id}.
func (h *LibraryHandler) Poet(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	profile, err := h.svc.GetPoet(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toPoetProfileResponse(profile))
}

// Category handles GET /api/v1/categories/{id}.
func (h *LibraryHandler) Category(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	cat, err := h.svc.GetCategory(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toCategoryResponse(*cat))
}

// CategoryPoems handles GET /api/v1/categories/{id}/poems.
func (h *LibraryHandler) CategoryPoems(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	poems, err := h.svc.GetCategoryPoems(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toPoemResponses(poems))
}

// Chapter handles GET /api/v1/chapters/{id}.
func (h *LibraryHandler) Chapter(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	ch, err := h.svc.GetChapter(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toChapterResponse(*ch))
}

// Poem handles GET /api/v1/poems/{id}.
func (h *LibraryHandler) Poem(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	poem, err := h.svc.GetPoem(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toPoemResponse(*poem))
}

// RandomPoem handles GET /api/v1/poems/random.
func (h *LibraryHandler) RandomPoem(w http.ResponseWriter, r *http.Request) {
	poem, err := h.svc.GetRandomPoem(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toPoemResponse(*poem))
}

// DatasourceMetrics handles GET /api/v1/metrics/datasource.
func (h *LibraryHandler) DatasourceMetrics(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.Metrics().Stats())
}
