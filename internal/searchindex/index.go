// Package searchindex provides the in-memory full-text index over poets,
// categories, and poems, built incrementally from the remote corpus and
// persisted as a versioned SQLite snapshot. The index is searchable at every
// build stage; results simply grow as more of the corpus is indexed.
package searchindex

import (
	"sort"
	"strings"
	"sync"
)

// State is the index lifecycle stage.
type State int32

const (
	// StateUnbuilt means no data has been indexed or loaded yet.
	StateUnbuilt State = iota
	// StateLoading means a persisted snapshot is being restored.
	StateLoading
	// StatePartiallyReady means poets and categories are searchable.
	StatePartiallyReady
	// StateBuilding means poem text is being indexed in the background.
	StateBuilding
	// StateReady means the full build pass finished.
	StateReady
)

func (s State) String() string {
	switch s {
	case StateUnbuilt:
		return "unbuilt"
	case StateLoading:
		return "loading"
	case StatePartiallyReady:
		return "partially_ready"
	case StateBuilding:
		return "building"
	case StateReady:
		return "ready"
	default:
		return "unknown"
	}
}

// Kind discriminates indexed entity types.
type Kind string

const (
	KindPoet     Kind = "poet"
	KindCategory Kind = "category"
	KindPoem     Kind = "poem"
)

// Document is one indexed entity. Text is the searchable body the document
// was indexed under; it is retained so snapshots can rebuild the index.
type Document struct {
	Kind     Kind   `json:"kind"`
	ID       int    `json:"id"`
	Title    string `json:"title"`
	Text     string `json:"text"`
	PoetID   int    `json:"poetId"`
	PoetName string `json:"poetName"`
	Famous   bool   `json:"famous"`
}

// Results groups hits by entity type.
type Results struct {
	Poets      []Document
	Categories []Document
	Poems      []Document
}

// Search tuning: results below minHits trigger the whitespace-stripped
// retry, and the poem candidate pool is oversampled before truncation.
const (
	minHits            = 5
	minPoemCandidates  = 500
	poemOversampleMult = 10
)

// Index holds the three inverted indexes behind one lock.
type Index struct {
	mu    sync.RWMutex
	state State

	poets      *inverted
	categories *inverted
	poems      *inverted
}

// New creates an empty index in StateUnbuilt.
func New() *Index {
	return &Index{
		poets:      newInverted(),
		categories: newInverted(),
		poems:      newInverted(),
	}
}

// State returns the current lifecycle stage.
func (ix *Index) State() State {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.state
}

// SetState moves the index to the given lifecycle stage.
func (ix *Index) SetState(s State) {
	ix.mu.Lock()
	ix.state = s
	ix.mu.Unlock()
}

// Add indexes one document under its Text (title included by the builder).
func (ix *Index) Add(doc Document) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.bucket(doc.Kind).add(doc)
}

// Len reports per-kind document counts.
func (ix *Index) Len() (poets, categories, poems int) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.poets.docs), len(ix.categories.docs), len(ix.poems.docs)
}

// Documents returns every indexed document, for snapshotting.
func (ix *Index) Documents() []Document {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	out := make([]Document, 0, len(ix.poets.docs)+len(ix.categories.docs)+len(ix.poems.docs))
	out = append(out, ix.poets.documents()...)
	out = append(out, ix.categories.documents()...)
	out = append(out, ix.poems.documents()...)
	return out
}

func (ix *Index) bucket(k Kind) *inverted {
	switch k {
	case KindPoet:
		return ix.poets
	case KindCategory:
		return ix.categories
	default:
		return ix.poems
	}
}

// Search runs the query against all three indexes. Queries shorter than two
// runes return empty results. When a spaced query yields fewer than minHits
// total hits, the whitespace-stripped form is tried and the larger result
// wins. Famous-set entities sort before the rest, preserving relevance order
// within each group.
func (ix *Index) Search(query string, limit int) Results {
	if limit <= 0 {
		limit = 20
	}
	if len([]rune(strings.TrimSpace(query))) < 2 {
		return Results{Poets: []Document{}, Categories: []Document{}, Poems: []Document{}}
	}

	res := ix.searchTokens(tokenize(query), limit)
	if totalHits(res) < minHits {
		if stripped := stripWhitespace(query); stripped != "" {
			retry := ix.searchTokens([]string{stripped}, limit)
			if totalHits(retry) > totalHits(res) {
				res = retry
			}
		}
	}
	return res
}

func (ix *Index) searchTokens(tokens []string, limit int) Results {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	poemPool := limit * poemOversampleMult
	if poemPool < minPoemCandidates {
		poemPool = minPoemCandidates
	}

	// Poems are ranked over an oversized candidate pool before truncation so
	// famous-set hits deep in the pool still surface.
	poems := rank(ix.poems.match(tokens), poemPool)
	if len(poems) > limit {
		poems = poems[:limit]
	}

	return Results{
		Poets:      rank(ix.poets.match(tokens), limit),
		Categories: rank(ix.categories.match(tokens), limit),
		Poems:      poems,
	}
}

func totalHits(r Results) int {
	return len(r.Poets) + len(r.Categories) + len(r.Poems)
}

// ---------------------------------------------------------------------------
// Inverted index
// ---------------------------------------------------------------------------

type scoredDoc struct {
	doc   Document
	score int
	seq   int
}

type inverted struct {
	terms map[string][]int // term -> doc seq numbers
	docs  map[int]Document // entity id -> document
	seq   map[int]int      // entity id -> insertion order
	order []int            // seq -> entity id
}

func newInverted() *inverted {
	return &inverted{
		terms: map[string][]int{},
		docs:  map[int]Document{},
		seq:   map[int]int{},
	}
}

func (in *inverted) add(doc Document) {
	if _, exists := in.docs[doc.ID]; !exists {
		in.seq[doc.ID] = len(in.order)
		in.order = append(in.order, doc.ID)
	}
	in.docs[doc.ID] = doc

	s := in.seq[doc.ID]
	for _, tok := range tokenize(doc.Text) {
		postings := in.terms[tok]
		if len(postings) > 0 && postings[len(postings)-1] == s {
			continue
		}
		in.terms[tok] = append(postings, s)
	}
}

func (in *inverted) documents() []Document {
	out := make([]Document, 0, len(in.order))
	for _, id := range in.order {
		out = append(out, in.docs[id])
	}
	return out
}

// match scores documents by how many query tokens they contain. A query token
// matches an index term exactly or as a prefix, so partial words and the
// whitespace-stripped retry form still find their targets.
func (in *inverted) match(tokens []string) []scoredDoc {
	if len(tokens) == 0 {
		return nil
	}

	scores := map[int]int{} // seq -> score
	for _, qt := range tokens {
		matched := map[int]struct{}{}
		for term, postings := range in.terms {
			if !strings.HasPrefix(term, qt) && !strings.HasPrefix(qt, term) {
				continue
			}
			for _, s := range postings {
				matched[s] = struct{}{}
			}
		}
		for s := range matched {
			scores[s]++
		}
	}

	out := make([]scoredDoc, 0, len(scores))
	for s, score := range scores {
		id := in.order[s]
		out = append(out, scoredDoc{doc: in.docs[id], score: score, seq: s})
	}
	return out
}

// rank orders hits famous-first, then by score descending, then by insertion
// order, and truncates to limit.
func rank(hits []scoredDoc, limit int) []Document {
	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].doc.Famous != hits[j].doc.Famous {
			return hits[i].doc.Famous
		}
		if hits[i].score != hits[j].score {
			return hits[i].score > hits[j].score
		}
		return hits[i].seq < hits[j].seq
	})

	if len(hits) > limit {
		hits = hits[:limit]
	}
	out := make([]Document, len(hits))
	for i, h := range hits {
		out[i] = h.doc
	}
	return out
}
