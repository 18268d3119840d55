package rest

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ganjineh/ganjineh-backend/internal/domain"
	"github.com/ganjineh/ganjineh-backend/internal/searchindex"
	"github.com/ganjineh/ganjineh-backend/internal/service/search"
)

type searchServiceMock struct {
	search func(ctx context.Context, q search.Query) (*search.Result, error)
}

func (m *searchServiceMock) Search(ctx context.Context, q search.Query) (*search.Result, error) {
	return m.search(ctx, q)
}

func emptyResult() *search.Result {
	return &search.Result{
		Poets:      []domain.Poet{},
		Categories: []domain.Category{},
		Poems:      []domain.Poem{},
	}
}

func TestSearch_PassesQueryParams(t *testing.T) {
	t.Parallel()

	var got search.Query
	h := NewSearchHandler(&searchServiceMock{
		search: func(_ context.Context, q search.Query) (*search.Result, error) {
			got = q
			return emptyResult(), nil
		},
	}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/search?q=%D8%AD%D8%A7%D9%81%D8%B8&type=poets&limit=10&offset=5&count=true", nil)
	rec := httptest.NewRecorder()

	h.Search(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	if got.Text != "حافظ" {
		t.Errorf("expected query text to pass through, got %q", got.Text)
	}
	if got.Type != search.TypePoets {
		t.Errorf("expected type poets, got %q", got.Type)
	}
	if got.Limit != 10 || got.Offset != 5 {
		t.Errorf("expected limit 10 offset 5, got %d/%d", got.Limit, got.Offset)
	}
	if !got.WithCount {
		t.Error("expected WithCount to be set")
	}
}

func TestSearch_InvalidType(t *testing.T) {
	t.Parallel()

	h := NewSearchHandler(&searchServiceMock{
		search: func(_ context.Context, _ search.Query) (*search.Result, error) {
			t.Fatal("service must not be called for an invalid type")
			return nil, nil
		},
	}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/search?q=abc&type=verses", nil)
	rec := httptest.NewRecorder()

	h.Search(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rec.Code)
	}

	var resp errorResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Fields["type"] == "" {
		t.Errorf("expected a field error for type, got %+v", resp.Fields)
	}
}

func TestSearch_EmptySlicesNotNull(t *testing.T) {
	t.Parallel()

	h := NewSearchHandler(&searchServiceMock{
		search: func(_ context.Context, _ search.Query) (*search.Result, error) {
			return emptyResult(), nil
		},
	}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/search?q=xx", nil)
	rec := httptest.NewRecorder()

	h.Search(rec, req)

	var raw map[string]json.RawMessage
	if err := json.NewDecoder(rec.Body).Decode(&raw); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	for _, key := range []string{"poets", "categories", "poems"} {
		if string(raw[key]) != "[]" {
			t.Errorf("expected %s to encode as [], got %s", key, raw[key])
		}
	}
	if _, ok := raw["totals"]; ok {
		t.Error("expected totals to be omitted without count=true")
	}
}

func TestIndexSearch_ReadyIndex(t *testing.T) {
	t.Parallel()

	ix := searchindex.New()
	ix.Add(searchindex.Document{Kind: searchindex.KindPoet, ID: 2, Title: "حافظ", Text: "حافظ", PoetID: 2, PoetName: "حافظ", Famous: true})
	ix.SetState(searchindex.StateReady)

	h := NewSearchHandler(&searchServiceMock{
		search: func(_ context.Context, _ search.Query) (*search.Result, error) {
			t.Fatal("datastore must not be queried when the index is ready")
			return nil, nil
		},
	}, ix)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/search/index?q=%D8%AD%D8%A7%D9%81%D8%B8", nil)
	rec := httptest.NewRecorder()

	h.IndexSearch(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	var resp indexSearchResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Source != "index" {
		t.Errorf("expected source index, got %q", resp.Source)
	}
	if resp.Status != "ready" {
		t.Errorf("expected status ready, got %q", resp.Status)
	}
	if len(resp.Poets) != 1 || resp.Poets[0].ID != 2 {
		t.Errorf("unexpected poets: %+v", resp.Poets)
	}
}

func TestIndexSearch_FallsBackWhenUnbuilt(t *testing.T) {
	t.Parallel()

	h := NewSearchHandler(&searchServiceMock{
		search: func(_ context.Context, q search.Query) (*search.Result, error) {
			if q.Type != search.TypeAll {
				t.Errorf("expected fallback to search all types, got %q", q.Type)
			}
			res := emptyResult()
			res.Poets = []domain.Poet{{ID: 2, Name: "حافظ"}}
			return res, nil
		},
	}, searchindex.New())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/search/index?q=%D8%AD%D8%A7%D9%81%D8%B8", nil)
	rec := httptest.NewRecorder()

	h.IndexSearch(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	var resp indexSearchResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Source != "datastore" {
		t.Errorf("expected source datastore, got %q", resp.Source)
	}
	if resp.Status != "unbuilt" {
		t.Errorf("expected status unbuilt, got %q", resp.Status)
	}
	if len(resp.Poets) != 1 || resp.Poets[0].Kind != searchindex.KindPoet {
		t.Errorf("unexpected poets: %+v", resp.Poets)
	}
}

func TestIndexSearch_NilIndexFallsBack(t *testing.T) {
	t.Parallel()

	h := NewSearchHandler(&searchServiceMock{
		search: func(_ context.Context, _ search.Query) (*search.Result, error) {
			return emptyResult(), nil
		},
	}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/search/index?q=xx", nil)
	rec := httptest.NewRecorder()

	h.IndexSearch(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	var resp indexSearchResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Source != "datastore" {
		t.Errorf("expected source datastore, got %q", resp.Source)
	}
}
