package testhelper

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ganjineh/ganjineh-backend/internal/domain"
)

// SeedPoet inserts a poet row and returns it. Tests share one database, so
// callers must pick ids that do not collide across parallel tests.
func SeedPoet(t *testing.T, pool *pgxpool.Pool, id int, name string) domain.Poet {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := pool.Exec(ctx,
		`INSERT INTO poets (id, name, slug) VALUES ($1, $2, $3) ON CONFLICT (id) DO NOTHING`,
		id, name, slugify(name),
	)
	if err != nil {
		t.Fatalf("testhelper: seed poet: %v", err)
	}

	return domain.Poet{ID: id, Name: name, Slug: slugify(name)}
}

// SeedCategory inserts a category row and returns it.
func SeedCategory(t *testing.T, pool *pgxpool.Pool, id, poetID int, title string, poemCount int) domain.Category {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := pool.Exec(ctx,
		`INSERT INTO categories (id, poet_id, title, poem_count) VALUES ($1, $2, $3, $4) ON CONFLICT (id) DO NOTHING`,
		id, poetID, title, poemCount,
	)
	if err != nil {
		t.Fatalf("testhelper: seed category: %v", err)
	}

	return domain.Category{ID: id, PoetID: poetID, Title: title, PoemCount: poemCount}
}

// SeedPoem inserts a poem row with its verse lines and returns it.
func SeedPoem(t *testing.T, pool *pgxpool.Pool, id, poetID, categoryID int, title string, verses []string) domain.Poem {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := pool.Exec(ctx,
		`INSERT INTO poems (id, poet_id, category_id, title, verses, verses_array)
		 VALUES ($1, $2, $3, $4, $5, $6) ON CONFLICT (id) DO NOTHING`,
		id, poetID, categoryID, title, strings.Join(verses, "\n"), verses,
	)
	if err != nil {
		t.Fatalf("testhelper: seed poem: %v", err)
	}

	return domain.Poem{ID: id, PoetID: poetID, CategoryID: categoryID, Title: title, Verses: verses}
}

func slugify(name string) string {
	return strings.ToLower(strings.ReplaceAll(name, " ", "-"))
}
