package rest

import (
	"context"
	"net/http"
	"strings"

	"github.com/ganjineh/ganjineh-backend/internal/searchindex"
	"github.com/ganjineh/ganjineh-backend/internal/service/search"
)

type searchService interface {
	Search(ctx context.Context, q search.Query) (*search.Result, error)
}

type indexSearcher interface {
	State() searchindex.State
	Search(query string, limit int) searchindex.Results
}

// SearchHandler serves the unified datastore search and the in-memory
// index search. The index may be nil when index building is disabled.
type SearchHandler struct {
	svc   searchService
	index indexSearcher
}

// NewSearchHandler creates a SearchHandler.
func NewSearchHandler(svc searchService, index indexSearcher) *SearchHandler {
	return &SearchHandler{svc: svc, index: index}
}

// Search handles GET /api/v1/search.
func (h *SearchHandler) Search(w http.ResponseWriter, r *http.Request) {
	typ, err := search.ParseTypeFilter(r.URL.Query().Get("type"))
	if err != nil {
		writeError(w, err)
		return
	}

	q := search.Query{
		Text:      r.URL.Query().Get("q"),
		Type:      typ,
		Limit:     queryInt(r, "limit", 0),
		Offset:    queryInt(r, "offset", 0),
		WithCount: queryBool(r, "count"),
	}

	res, err := h.svc.Search(r.Context(), q)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toSearchResponse(res))
}

type indexHitResponse struct {
	Kind     searchindex.Kind `json:"kind"`
	ID       int              `json:"id"`
	Title    string           `json:"title"`
	PoetID   int              `json:"poetId"`
	PoetName string           `json:"poetName"`
	Famous   bool             `json:"famous"`
}

type indexSearchResponse struct {
	Status     string             `json:"status"`
	Source     string             `json:"source"`
	Poets      []indexHitResponse `json:"poets"`
	Categories []indexHitResponse `json:"categories"`
	Poems      []indexHitResponse `json:"poems"`
}

const indexSearchLimit = 20

// IndexSearch handles GET /api/v1/search/index. While the index is still
// unbuilt or loading the query falls through to the datastore so callers
// always get an answer.
func (h *SearchHandler) IndexSearch(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))

	state := searchindex.StateUnbuilt
	if h.index != nil {
		state = h.index.State()
	}

	if state == searchindex.StateUnbuilt || state == searchindex.StateLoading {
		h.indexFallback(w, r, state, query)
		return
	}

	results := h.index.Search(query, indexSearchLimit)
	writeJSON(w, http.StatusOK, indexSearchResponse{
		Status:     state.String(),
		Source:     "index",
		Poets:      toIndexHits(results.Poets),
		Categories: toIndexHits(results.Categories),
		Poems:      toIndexHits(results.Poems),
	})
}

func (h *SearchHandler) indexFallback(w http.ResponseWriter, r *http.Request, state searchindex.State, query string) {
	res, err := h.svc.Search(r.Context(), search.Query{Text: query, Type: search.TypeAll, Limit: indexSearchLimit})
	if err != nil {
		writeError(w, err)
		return
	}

	out := indexSearchResponse{
		Status:     state.String(),
		Source:     "datastore",
		Poets:      []indexHitResponse{},
		Categories: []indexHitResponse{},
		Poems:      []indexHitResponse{},
	}
	for _, p := range res.Poets {
		out.Poets = append(out.Poets, indexHitResponse{
			Kind: searchindex.KindPoet, ID: p.ID, Title: p.Name, PoetID: p.ID, PoetName: p.Name,
		})
	}
	for _, c := range res.Categories {
		out.Categories = append(out.Categories, indexHitResponse{
			Kind: searchindex.KindCategory, ID: c.ID, Title: c.Title, PoetID: c.PoetID,
		})
	}
	for _, p := range res.Poems {
		out.Poems = append(out.Poems, indexHitResponse{
			Kind: searchindex.KindPoem, ID: p.ID, Title: p.Title, PoetID: p.PoetID, PoetName: p.PoetName,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func toIndexHits(docs []searchindex.Document) []indexHitResponse {
	out := make([]indexHitResponse, 0, len(docs))
	for _, d := range docs {
		out = append(out, indexHitResponse{
			Kind:     d.Kind,
			ID:       d.ID,
			Title:    d.Title,
			PoetID:   d.PoetID,
			PoetName: d.PoetName,
			Famous:   d.Famous,
		})
	}
	return out
}
