// Package poem implements the poem repository using PostgreSQL.
// Verse text is stored twice: joined into a single verses column for
// substring search, and as a verses_array for lossless line reconstruction.
package poem

import (
	"context"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/ganjineh/ganjineh-backend/internal/adapter/postgres"
	"github.com/ganjineh/ganjineh-backend/internal/domain"
)

// Repo provides poem persistence backed by PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new poem repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

// ---------------------------------------------------------------------------
// Raw SQL
// ---------------------------------------------------------------------------

const getPoemByIDSQL = `
SELECT
    pm.id, pm.title, pm.verses_array, pm.poet_id, p.name, pm.category_id, c.title
FROM poems pm
JOIN poets p ON p.id = pm.poet_id
LEFT JOIN categories c ON c.id = pm.category_id
WHERE pm.id = $1`

const listByCategorySQL = `
SELECT
    pm.id, pm.title, pm.verses_array, pm.poet_id, p.name, pm.category_id, c.title
FROM poems pm
JOIN poets p ON p.id = pm.poet_id
LEFT JOIN categories c ON c.id = pm.category_id
WHERE pm.category_id = $1
ORDER BY pm.id`

const hasPoemSQL = `SELECT EXISTS (SELECT 1 FROM poems WHERE id = $1)`

const upsertPoemSQL = `
INSERT INTO poems (id, poet_id, category_id, title, verses, verses_array)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (id) DO UPDATE SET
    poet_id = EXCLUDED.poet_id,
    category_id = EXCLUDED.category_id,
    title = EXCLUDED.title,
    verses = EXCLUDED.verses,
    verses_array = EXCLUDED.verses_array`

// ---------------------------------------------------------------------------
// Read operations
// ---------------------------------------------------------------------------

// GetByID returns a poem with its poet name and category title resolved.
// Returns domain.ErrNotFound if the poem does not exist.
func (r *Repo) GetByID(ctx context.Context, id int) (*domain.Poem, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	row := querier.QueryRow(ctx, getPoemByIDSQL, id)
	p, err := scanPoem(row)
	if err != nil {
		return nil, postgres.MapError(err, "poem", id)
	}

	return &p, nil
}

// ListByCategory returns all poems in a category ordered by id.
// Returns an empty slice (not nil) when the category has no poems.
func (r *Repo) ListByCategory(ctx context.Context, categoryID int) ([]domain.Poem, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	rows, err := querier.Query(ctx, listByCategorySQL, categoryID)
	if err != nil {
		return nil, fmt.Errorf("list poems by category: %w", err)
	}
	defer rows.Close()

	poems, err := scanPoems(rows)
	if err != nil {
		return nil, fmt.Errorf("list poems by category: %w", err)
	}

	return poems, nil
}

// Has reports whether the poem exists locally.
func (r *Repo) Has(ctx context.Context, id int) (bool, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	var exists bool
	if err := querier.QueryRow(ctx, hasPoemSQL, id).Scan(&exists); err != nil {
		return false, fmt.Errorf("has poem %d: %w", id, err)
	}

	return exists, nil
}

// ---------------------------------------------------------------------------
// Write operations
// ---------------------------------------------------------------------------

// Upsert inserts or updates poems in a single batch. The searchable verses
// column is derived from the verse lines; a zero CategoryID is stored NULL.
func (r *Repo) Upsert(ctx context.Context, poems []domain.Poem) error {
	if len(poems) == 0 {
		return nil
	}

	querier := postgres.QuerierFromCtx(ctx, r.pool)

	batch := &pgx.Batch{}
	for _, p := range poems {
		var categoryID *int
		if p.CategoryID != 0 {
			id := p.CategoryID
			categoryID = &id
		}
		verses := p.Verses
		if verses == nil {
			verses = []string{}
		}
		batch.Queue(upsertPoemSQL, p.ID, p.PoetID, categoryID, p.Title, strings.Join(verses, "\n"), verses)
	}

	results := querier.SendBatch(ctx, batch)
	defer results.Close()

	for i := range poems {
		if _, err := results.Exec(); err != nil {
			return postgres.MapError(err, "poem", poems[i].ID)
		}
	}

	return nil
}

// ---------------------------------------------------------------------------
// Search
// ---------------------------------------------------------------------------

// Search returns poems whose title or verse text matches the query as a
// case-insensitive substring, ordered by id.
func (r *Repo) Search(ctx context.Context, query string, limit, offset int) ([]domain.Poem, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	sql, args, err := sq.Select(
		"pm.id", "pm.title", "pm.verses_array", "pm.poet_id", "p.name", "pm.category_id", "c.title").
		From("poems pm").
		Join("poets p ON p.id = pm.poet_id").
		LeftJoin("categories c ON c.id = pm.category_id").
		Where(sq.Or{
			sq.ILike{"pm.title": "%" + query + "%"},
			sq.ILike{"pm.verses": "%" + query + "%"},
		}).
		OrderBy("pm.id").
		Limit(uint64(limit)).
		Offset(uint64(offset)).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build poem search query: %w", err)
	}

	rows, err := querier.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("search poems: %w", err)
	}
	defer rows.Close()

	poems, err := scanPoems(rows)
	if err != nil {
		return nil, fmt.Errorf("search poems: %w", err)
	}

	return poems, nil
}

// CountSearch returns the total number of poems matching the query.
func (r *Repo) CountSearch(ctx context.Context, query string) (int, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	sql, args, err := sq.Select("count(*)").
		From("poems pm").
		Where(sq.Or{
			sq.ILike{"pm.title": "%" + query + "%"},
			sq.ILike{"pm.verses": "%" + query + "%"},
		}).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build poem count query: %w", err)
	}

	var count int
	if err := querier.QueryRow(ctx, sql, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("count poems: %w", err)
	}

	return count, nil
}

// ---------------------------------------------------------------------------
// Row scanning helpers
// ---------------------------------------------------------------------------

func scanPoems(rows pgx.Rows) ([]domain.Poem, error) {
	var result []domain.Poem
	for rows.Next() {
		p, err := scanPoem(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if result == nil {
		result = []domain.Poem{}
	}

	return result, nil
}

func scanPoem(row pgx.Row) (domain.Poem, error) {
	var (
		p             domain.Poem
		verses        []string
		categoryID    pgtype.Int4
		categoryTitle pgtype.Text
	)

	if err := row.Scan(&p.ID, &p.Title, &verses, &p.PoetID, &p.PoetName, &categoryID, &categoryTitle); err != nil {
		return domain.Poem{}, err
	}

	if verses == nil {
		verses = []string{}
	}
	p.Verses = verses

	if categoryID.Valid {
		p.CategoryID = int(categoryID.Int32)
	}
	if categoryTitle.Valid {
		p.CategoryTitle = categoryTitle.String
	}

	return p, nil
}
