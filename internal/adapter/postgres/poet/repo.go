// Package poet implements the poet repository using PostgreSQL.
// Poets keep their upstream integer ids so the local corpus and the remote
// API stay addressable by the same keys.
package poet

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/ganjineh/ganjineh-backend/internal/adapter/postgres"
	"github.com/ganjineh/ganjineh-backend/internal/domain"
)

// Repo provides poet persistence backed by PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new poet repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

// ---------------------------------------------------------------------------
// Raw SQL
// ---------------------------------------------------------------------------

const listPoetsSQL = `
SELECT id, name, slug, description, birth_year, death_year
FROM poets
ORDER BY name`

const getPoetByIDSQL = `
SELECT id, name, slug, description, birth_year, death_year
FROM poets
WHERE id = $1`

const hasPoetSQL = `SELECT EXISTS (SELECT 1 FROM poets WHERE id = $1)`

const upsertPoetSQL = `
INSERT INTO poets (id, name, slug, description, birth_year, death_year)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (id) DO UPDATE SET
    name = EXCLUDED.name,
    slug = EXCLUDED.slug,
    description = EXCLUDED.description,
    birth_year = EXCLUDED.birth_year,
    death_year = EXCLUDED.death_year`

// ---------------------------------------------------------------------------
// Read operations
// ---------------------------------------------------------------------------

// List returns all poets ordered by name.
// Returns an empty slice (not nil) when the table is empty.
func (r *Repo) List(ctx context.Context) ([]domain.Poet, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	rows, err := querier.Query(ctx, listPoetsSQL)
	if err != nil {
		return nil, fmt.Errorf("list poets: %w", err)
	}
	defer rows.Close()

	poets, err := scanPoets(rows)
	if err != nil {
		return nil, fmt.Errorf("list poets: %w", err)
	}

	return poets, nil
}

// GetByID returns a poet by primary key.
// Returns domain.ErrNotFound if the poet does not exist.
func (r *Repo) GetByID(ctx context.Context, id int) (*domain.Poet, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	row := querier.QueryRow(ctx, getPoetByIDSQL, id)
	p, err := scanPoet(row)
	if err != nil {
		return nil, postgres.MapError(err, "poet", id)
	}

	return &p, nil
}

// Has reports whether the poet exists locally.
func (r *Repo) Has(ctx context.Context, id int) (bool, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	var exists bool
	if err := querier.QueryRow(ctx, hasPoetSQL, id).Scan(&exists); err != nil {
		return false, fmt.Errorf("has poet %d: %w", id, err)
	}

	return exists, nil
}

// ---------------------------------------------------------------------------
// Write operations
// ---------------------------------------------------------------------------

// Upsert inserts or updates poets in a single batch.
func (r *Repo) Upsert(ctx context.Context, poets []domain.Poet) error {
	if len(poets) == 0 {
		return nil
	}

	querier := postgres.QuerierFromCtx(ctx, r.pool)

	batch := &pgx.Batch{}
	for _, p := range poets {
		batch.Queue(upsertPoetSQL, p.ID, p.Name, p.Slug, p.Description, p.BirthYear, p.DeathYear)
	}

	results := querier.SendBatch(ctx, batch)
	defer results.Close()

	for i := range poets {
		if _, err := results.Exec(); err != nil {
			return postgres.MapError(err, "poet", poets[i].ID)
		}
	}

	return nil
}

// ---------------------------------------------------------------------------
// Search
// ---------------------------------------------------------------------------

// Search returns poets whose name or description matches the query as a
// case-insensitive substring, ordered by name.
func (r *Repo) Search(ctx context.Context, query string, limit, offset int) ([]domain.Poet, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	sql, args, err := sq.Select("id", "name", "slug", "description", "birth_year", "death_year").
		From("poets").
		Where(sq.Or{
			sq.ILike{"name": "%" + query + "%"},
			sq.ILike{"description": "%" + query + "%"},
		}).
		OrderBy("name").
		Limit(uint64(limit)).
		Offset(uint64(offset)).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build poet search query: %w", err)
	}

	rows, err := querier.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("search poets: %w", err)
	}
	defer rows.Close()

	poets, err := scanPoets(rows)
	if err != nil {
		return nil, fmt.Errorf("search poets: %w", err)
	}

	return poets, nil
}

// CountSearch returns the total number of poets matching the query.
func (r *Repo) CountSearch(ctx context.Context, query string) (int, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	sql, args, err := sq.Select("count(*)").
		From("poets").
		Where(sq.Or{
			sq.ILike{"name": "%" + query + "%"},
			sq.ILike{"description": "%" + query + "%"},
		}).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build poet count query: %w", err)
	}

	var count int
	if err := querier.QueryRow(ctx, sql, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("count poets: %w", err)
	}

	return count, nil
}

// ---------------------------------------------------------------------------
// Row scanning helpers
// ---------------------------------------------------------------------------

func scanPoets(rows pgx.Rows) ([]domain.Poet, error) {
	var result []domain.Poet
	for rows.Next() {
		p, err := scanPoet(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if result == nil {
		result = []domain.Poet{}
	}

	return result, nil
}

func scanPoet(row pgx.Row) (domain.Poet, error) {
	var (
		p           domain.Poet
		description pgtype.Text
		birthYear   pgtype.Int4
		deathYear   pgtype.Int4
	)

	if err := row.Scan(&p.ID, &p.Name, &p.Slug, &description, &birthYear, &deathYear); err != nil {
		return domain.Poet{}, err
	}

	if description.Valid {
		p.Description = &description.String
	}
	if birthYear.Valid {
		v := int(birthYear.Int32)
		p.BirthYear = &v
	}
	if deathYear.Valid {
		v := int(deathYear.Int32)
		p.DeathYear = &v
	}

	return p, nil
}
