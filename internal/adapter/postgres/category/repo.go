// Package category implements the category repository using PostgreSQL.
// Categories are the top-level sections of a poet's collected works; nested
// chapters live only on the remote API and are not persisted locally.
package category

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/ganjineh/ganjineh-backend/internal/adapter/postgres"
	"github.com/ganjineh/ganjineh-backend/internal/domain"
)

// Repo provides category persistence backed by PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new category repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

// ---------------------------------------------------------------------------
// Raw SQL
// ---------------------------------------------------------------------------

const listByPoetSQL = `
SELECT c.id, c.poet_id, c.title, c.url_slug, c.poem_count, p.name
FROM categories c
JOIN poets p ON p.id = c.poet_id
WHERE c.poet_id = $1 AND c.poem_count > 0
ORDER BY c.id`

const getCategoryByIDSQL = `
SELECT id, poet_id, title, url_slug, poem_count
FROM categories
WHERE id = $1`

const upsertCategorySQL = `
INSERT INTO categories (id, poet_id, title, url_slug, poem_count)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (id) DO UPDATE SET
    poet_id = EXCLUDED.poet_id,
    title = EXCLUDED.title,
    url_slug = EXCLUDED.url_slug,
    poem_count = EXCLUDED.poem_count`

// ---------------------------------------------------------------------------
// Read operations
// ---------------------------------------------------------------------------

// ListByPoet returns the poet's browsable categories ordered by id. Empty
// categories are excluded in SQL; categories whose title is just a restating
// of the poet's name (the corpus uses those as container nodes) are filtered
// out after scanning. Returns an empty slice (not nil) when nothing matches.
func (r *Repo) ListByPoet(ctx context.Context, poetID int) ([]domain.Category, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	rows, err := querier.Query(ctx, listByPoetSQL, poetID)
	if err != nil {
		return nil, fmt.Errorf("list categories by poet: %w", err)
	}
	defer rows.Close()

	result := []domain.Category{}
	for rows.Next() {
		var (
			c        domain.Category
			poetName string
		)
		if err := rows.Scan(&c.ID, &c.PoetID, &c.Title, &c.Slug, &c.PoemCount, &poetName); err != nil {
			return nil, fmt.Errorf("list categories by poet: %w", err)
		}
		if domain.TitleMatchesPoet(c.Title, poetName) {
			continue
		}
		result = append(result, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list categories by poet: %w", err)
	}

	return result, nil
}

// GetByID returns a category by primary key.
// Returns domain.ErrNotFound if the category does not exist.
func (r *Repo) GetByID(ctx context.Context, id int) (*domain.Category, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	row := querier.QueryRow(ctx, getCategoryByIDSQL, id)
	c, err := scanCategory(row)
	if err != nil {
		return nil, postgres.MapError(err, "category", id)
	}

	return &c, nil
}

// ---------------------------------------------------------------------------
// Write operations
// ---------------------------------------------------------------------------

// Upsert inserts or updates categories in a single batch.
func (r *Repo) Upsert(ctx context.Context, categories []domain.Category) error {
	if len(categories) == 0 {
		return nil
	}

	querier := postgres.QuerierFromCtx(ctx, r.pool)

	batch := &pgx.Batch{}
	for _, c := range categories {
		batch.Queue(upsertCategorySQL, c.ID, c.PoetID, c.Title, c.Slug, c.PoemCount)
	}

	results := querier.SendBatch(ctx, batch)
	defer results.Close()

	for i := range categories {
		if _, err := results.Exec(); err != nil {
			return postgres.MapError(err, "category", categories[i].ID)
		}
	}

	return nil
}

// ---------------------------------------------------------------------------
// Search
// ---------------------------------------------------------------------------

// Search returns categories whose title matches the query as a
// case-insensitive substring, ordered by title.
func (r *Repo) Search(ctx context.Context, query string, limit, offset int) ([]domain.Category, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	sql, args, err := sq.Select("id", "poet_id", "title", "url_slug", "poem_count").
		From("categories").
		Where(sq.ILike{"title": "%" + query + "%"}).
		OrderBy("title").
		Limit(uint64(limit)).
		Offset(uint64(offset)).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build category search query: %w", err)
	}

	rows, err := querier.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("search categories: %w", err)
	}
	defer rows.Close()

	result := []domain.Category{}
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("search categories: %w", err)
		}
		result = append(result, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("search categories: %w", err)
	}

	return result, nil
}

// CountSearch returns the total number of categories matching the query.
func (r *Repo) CountSearch(ctx context.Context, query string) (int, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	sql, args, err := sq.Select("count(*)").
		From("categories").
		Where(sq.ILike{"title": "%" + query + "%"}).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build category count query: %w", err)
	}

	var count int
	if err := querier.QueryRow(ctx, sql, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("count categories: %w", err)
	}

	return count, nil
}

// ---------------------------------------------------------------------------
// Row scanning helpers
// ---------------------------------------------------------------------------

func scanCategory(row pgx.Row) (domain.Category, error) {
	var c domain.Category
	if err := row.Scan(&c.ID, &c.PoetID, &c.Title, &c.Slug, &c.PoemCount); err != nil {
		return domain.Category{}, err
	}
	return c, nil
}
