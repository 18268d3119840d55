package rest

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ganjineh/ganjineh-backend/internal/domain"
)

func TestRouter_RoutesPoemByID(t *testing.T) {
	t.Parallel()

	svc := &libraryServiceMock{
		getPoem: func(_ context.Context, id int) (*domain.Poem, error) {
			if id != 2133 {
				t.Errorf("expected id 2133, got %d", id)
			}
			return &domain.Poem{ID: 2133, Title: "غزل"}, nil
		},
	}

	router := NewRouter(Handlers{
		Health:  NewHealthHandler(&dbPingerMock{}, "test"),
		Library: NewLibraryHandler(svc),
		Search:  NewSearchHandler(&searchServiceMock{}, nil),
		Contact: NewContactHandler(&contactServiceMock{}),
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/poems/2133", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
}

func TestRouter_RandomBeatsIDPattern(t *testing.T) {
	t.Parallel()

	svc := &libraryServiceMock{
		getRandomPoem: func(_ context.Context) (*domain.Poem, error) {
			return &domain.Poem{ID: 7, Title: "رباعی"}, nil
		},
		getPoem: func(_ context.Context, _ int) (*domain.Poem, error) {
			t.Fatal("the literal /random route must win over /{id}")
			return nil, nil
		},
	}

	router := NewRouter(Handlers{
		Health:  NewHealthHandler(&dbPingerMock{}, "test"),
		Library: NewLibraryHandler(svc),
		Search:  NewSearchHandler(&searchServiceMock{}, nil),
		Contact: NewContactHandler(&contactServiceMock{}),
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/poems/random", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
}

func TestRouter_MethodNotAllowed(t *testing.T) {
	t.Parallel()

	router := NewRouter(Handlers{
		Health:  NewHealthHandler(&dbPingerMock{}, "test"),
		Library: NewLibraryHandler(&libraryServiceMock{}),
		Search:  NewSearchHandler(&searchServiceMock{}, nil),
		Contact: NewContactHandler(&contactServiceMock{}),
	})

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/poets", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected status 405, got %d", rec.Code)
	}
}
