package ganjoor

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ganjineh/ganjineh-backend/internal/domain"
)

// maxTreeDepth bounds category tree traversal. Real trees are a handful of
// levels deep; anything past this is treated as malformed and pruned.
const maxTreeDepth = 16

// chapterNode is the mutable form of a chapter used during traversal.
type chapterNode struct {
	id        int
	parentID  int
	title     string
	poemCount int
	children  []*chapterNode
}

// walkCategoryTree fetches the category rooted at rootID and every reachable
// sub-category using an explicit worklist. It returns the category with its
// assembled chapter tree and per-node direct poem counts, plus all poems
// found anywhere in the tree, each annotated with the owning category and the
// chapter it was found in (nil for poems directly under the root).
//
// A visited set guards against cyclic graphs from the upstream API, and
// depth is capped at maxTreeDepth; offending nodes are logged and skipped
// rather than failing the walk.
func (c *Client) walkCategoryTree(ctx context.Context, rootID int) (*domain.Category, []domain.Poem, error) {
	rootJSON, err := c.fetchCategory(ctx, rootID)
	if err != nil {
		return nil, nil, err
	}

	root := domain.Category{
		ID:          rootJSON.ID,
		PoetID:      rootJSON.PoetID,
		Title:       rootJSON.Title,
		Slug:        rootJSON.Slug,
		Description: rootJSON.Description,
	}

	poems := make([]domain.Poem, 0, len(rootJSON.Poems))
	root.PoemCount = c.collectPoems(ctx, &poems, rootJSON.Poems, &root, nil)

	visited := map[int]struct{}{rootID: {}}

	type frame struct {
		stub   categoryJSON
		depth  int
		parent *chapterNode // nil means direct child of the root category
	}

	var topChapters []*chapterNode

	stack := make([]frame, 0, len(rootJSON.Children))
	for i := len(rootJSON.Children) - 1; i >= 0; i-- {
		stack = append(stack, frame{stub: rootJSON.Children[i], depth: 1})
	}

	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if f.depth > maxTreeDepth {
			c.log.WarnContext(ctx, "category tree exceeds depth limit, pruning",
				slog.Int("category_id", f.stub.ID),
				slog.Int("depth", f.depth),
			)
			continue
		}
		if _, seen := visited[f.stub.ID]; seen {
			c.log.WarnContext(ctx, "category tree cycle detected, skipping node",
				slog.Int("category_id", f.stub.ID),
			)
			continue
		}
		visited[f.stub.ID] = struct{}{}

		node, err := c.fetchCategory(ctx, f.stub.ID)
		if err != nil {
			return nil, nil, fmt.Errorf("walk category %d: %w", f.stub.ID, err)
		}

		parentID := root.ID
		if f.parent != nil {
			parentID = f.parent.id
		}
		ch := &chapterNode{id: node.ID, parentID: parentID, title: node.Title}
		ch.poemCount = c.collectPoems(ctx, &poems, node.Poems, &root, ch)

		if f.parent != nil {
			f.parent.children = append(f.parent.children, ch)
		} else {
			topChapters = append(topChapters, ch)
		}

		for i := len(node.Children) - 1; i >= 0; i-- {
			stack = append(stack, frame{stub: node.Children[i], depth: f.depth + 1, parent: ch})
		}
	}

	root.Chapters = buildChapters(topChapters)
	return &root, poems, nil
}

// collectPoems appends the node's poems, annotated with category and chapter,
// and returns how many were appended. Poems whose text cannot be decoded at
// all are still included (empty Verses) so titles remain browsable.
func (c *Client) collectPoems(ctx context.Context, out *[]domain.Poem, raw []poemJSON, cat *domain.Category, ch *chapterNode) int {
	for _, p := range raw {
		poem := domain.Poem{
			ID:            p.ID,
			Title:         p.Title,
			PoetID:        p.PoetID,
			PoetName:      p.PoetName,
			CategoryID:    cat.ID,
			CategoryTitle: cat.Title,
		}
		if poem.PoetID == 0 {
			poem.PoetID = cat.PoetID
		}
		if ch != nil {
			id, title := ch.id, ch.title
			poem.ChapterID = &id
			poem.ChapterTitle = &title
		}

		lines, source := extractVerses(p)
		if source != "" && source != "verses" {
			c.log.DebugContext(ctx, "poem text decoded from fallback field",
				slog.Int("poem_id", p.ID),
				slog.String("field", source),
			)
		}
		poem.Verses = lines

		*out = append(*out, poem)
	}
	return len(raw)
}

// buildChapters converts the mutable traversal nodes into the domain tree.
func buildChapters(nodes []*chapterNode) []domain.Chapter {
	if len(nodes) == 0 {
		return nil
	}
	out := make([]domain.Chapter, len(nodes))
	for i, n := range nodes {
		out[i] = domain.Chapter{
			ID:        n.id,
			ParentID:  n.parentID,
			Title:     n.title,
			PoemCount: n.poemCount,
			Children:  buildChapters(n.children),
		}
	}
	return out
}
