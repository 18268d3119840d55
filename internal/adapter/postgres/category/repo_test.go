package category_test

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ganjineh/ganjineh-backend/internal/adapter/postgres/category"
	"github.com/ganjineh/ganjineh-backend/internal/adapter/postgres/testhelper"
	"github.com/ganjineh/ganjineh-backend/internal/domain"
)

func newRepo(t *testing.T) (*category.Repo, *pgxpool.Pool) {
	t.Helper()
	pool := testhelper.SetupTestDB(t)
	return category.New(pool), pool
}

func TestRepo_ListByPoet_FiltersContainerAndEmptyCategories(t *testing.T) {
	t.Parallel()
	repo, pool := newRepo(t)
	ctx := context.Background()

	p := testhelper.SeedPoet(t, pool, 2001, "حافظ")
	testhelper.SeedCategory(t, pool, 2101, p.ID, "غزلیات", 495)
	// Container node titled after the poet, must be filtered.
	testhelper.SeedCategory(t, pool, 2102, p.ID, "حافظ", 600)
	// Empty category, must be filtered.
	testhelper.SeedCategory(t, pool, 2103, p.ID, "قطعات", 0)

	cats, err := repo.ListByPoet(ctx, p.ID)
	if err != nil {
		t.Fatalf("ListByPoet: unexpected error: %v", err)
	}

	if len(cats) != 1 {
		t.Fatalf("expected 1 category, got %d", len(cats))
	}
	if cats[0].ID != 2101 {
		t.Errorf("category ID mismatch: got %d, want 2101", cats[0].ID)
	}
	if cats[0].PoemCount != 495 {
		t.Errorf("PoemCount mismatch: got %d, want 495", cats[0].PoemCount)
	}
}

func TestRepo_ListByPoet_Empty(t *testing.T) {
	t.Parallel()
	repo, pool := newRepo(t)

	p := testhelper.SeedPoet(t, pool, 2002, "بیدل")

	cats, err := repo.ListByPoet(context.Background(), p.ID)
	if err != nil {
		t.Fatalf("ListByPoet: unexpected error: %v", err)
	}
	if cats == nil {
		t.Error("expected empty slice, got nil")
	}
	if len(cats) != 0 {
		t.Errorf("expected no categories, got %d", len(cats))
	}
}

func TestRepo_GetByID(t *testing.T) {
	t.Parallel()
	repo, pool := newRepo(t)
	ctx := context.Background()

	p := testhelper.SeedPoet(t, pool, 2003, "سعدی")
	testhelper.SeedCategory(t, pool, 2104, p.ID, "بوستان", 183)

	got, err := repo.GetByID(ctx, 2104)
	if err != nil {
		t.Fatalf("GetByID: unexpected error: %v", err)
	}
	if got.Title != "بوستان" {
		t.Errorf("Title mismatch: got %q, want %q", got.Title, "بوستان")
	}
	if got.PoetID != p.ID {
		t.Errorf("PoetID mismatch: got %d, want %d", got.PoetID, p.ID)
	}

	_, err = repo.GetByID(ctx, 999999)
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected domain.ErrNotFound, got %v", err)
	}
}

func TestRepo_Upsert_UpdatesInPlace(t *testing.T) {
	t.Parallel()
	repo, pool := newRepo(t)
	ctx := context.Background()

	p := testhelper.SeedPoet(t, pool, 2004, "خیام")

	err := repo.Upsert(ctx, []domain.Category{
		{ID: 2105, PoetID: p.ID, Title: "رباعیات", PoemCount: 100},
	})
	if err != nil {
		t.Fatalf("Upsert: unexpected error: %v", err)
	}

	err = repo.Upsert(ctx, []domain.Category{
		{ID: 2105, PoetID: p.ID, Title: "رباعیات", PoemCount: 178},
	})
	if err != nil {
		t.Fatalf("Upsert update: unexpected error: %v", err)
	}

	got, err := repo.GetByID(ctx, 2105)
	if err != nil {
		t.Fatalf("GetByID: unexpected error: %v", err)
	}
	if got.PoemCount != 178 {
		t.Errorf("PoemCount after update: got %d, want 178", got.PoemCount)
	}
}

func TestRepo_Upsert_MissingPoetIsNotFound(t *testing.T) {
	t.Parallel()
	repo, _ := newRepo(t)

	err := repo.Upsert(context.Background(), []domain.Category{
		{ID: 2106, PoetID: 888888, Title: "دیوان"},
	})
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected domain.ErrNotFound for FK violation, got %v", err)
	}
}

func TestRepo_Search(t *testing.T) {
	t.Parallel()
	repo, pool := newRepo(t)
	ctx := context.Background()

	p := testhelper.SeedPoet(t, pool, 2005, "نظامی")
	testhelper.SeedCategory(t, pool, 2107, p.ID, "خسرو و شیرین", 120)

	cats, err := repo.Search(ctx, "شیرین", 10, 0)
	if err != nil {
		t.Fatalf("Search: unexpected error: %v", err)
	}
	if len(cats) != 1 || cats[0].ID != 2107 {
		t.Fatalf("expected category 2107, got %v", cats)
	}

	count, err := repo.CountSearch(ctx, "شیرین")
	if err != nil {
		t.Fatalf("CountSearch: unexpected error: %v", err)
	}
	if count != 1 {
		t.Errorf("count mismatch: got %d, want 1", count)
	}
}
