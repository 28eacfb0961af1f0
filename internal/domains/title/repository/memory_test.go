package repository

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"library-backend/internal/domains/title/model"
)

func newTitle(isbn string, total, available int) *model.Title {
	return &model.Title{
		ID:              uuid.New(),
		ISBN:            isbn,
		Name:            "Title " + isbn,
		Author:          "Author",
		CopiesTotal:     total,
		CopiesAvailable: available,
		Version:         1,
	}
}

func Test_MemoryRepository_AdjustAvailable(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()
	title := newTitle("9780000000001", 2, 1)
	require.NoError(t, repo.Create(ctx, title))

	got, err := repo.AdjustAvailable(ctx, title.ID, -1)
	require.NoError(t, err)
	assert.Equal(t, 0, got.CopiesAvailable)
	assert.Equal(t, 2, got.Version)

	_, err = repo.AdjustAvailable(ctx, title.ID, -1)
	assert.ErrorIs(t, err, model.ErrInventoryExhausted)

	_, err = repo.AdjustAvailable(ctx, title.ID, 2)
	require.NoError(t, err)

	_, err = repo.AdjustAvailable(ctx, title.ID, 1)
	assert.ErrorIs(t, err, model.ErrInventoryFull)

	_, err = repo.AdjustAvailable(ctx, uuid.New(), -1)
	assert.ErrorIs(t, err, model.ErrTitleNotFound)

	stored, err := repo.GetByID(ctx, title.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, stored.CopiesAvailable)
}

func Test_MemoryRepository_AdjustAvailable_Concurrent(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()
	title := newTitle("9780000000002", 5, 5)
	require.NoError(t, repo.Create(ctx, title))

	const workers = 50
	var ok, exhausted int32
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := repo.AdjustAvailable(ctx, title.ID, -1)
			switch {
			case err == nil:
				atomic.AddInt32(&ok, 1)
			case errors.Is(err, model.ErrInventoryExhausted):
				atomic.AddInt32(&exhausted, 1)
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(5), ok)
	assert.Equal(t, int32(workers-5), exhausted)

	stored, err := repo.GetByID(ctx, title.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, stored.CopiesAvailable)
	assert.Equal(t, 1+5, stored.Version)
}

func Test_MemoryRepository_AdjustAvailable_MixedStaysInRange(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()
	title := newTitle("9780000000003", 3, 3)
	require.NoError(t, repo.Create(ctx, title))

	var wg sync.WaitGroup
	var net int32
	for i := 0; i < 200; i++ {
		delta := -1
		if i%2 == 1 {
			delta = 1
		}
		wg.Add(1)
		go func(delta int) {
			defer wg.Done()
			got, err := repo.AdjustAvailable(ctx, title.ID, delta)
			if err != nil {
				return
			}
			atomic.AddInt32(&net, int32(delta))
			assert.GreaterOrEqual(t, got.CopiesAvailable, 0)
			assert.LessOrEqual(t, got.CopiesAvailable, 3)
		}(delta)
	}
	wg.Wait()

	stored, err := repo.GetByID(ctx, title.ID)
	require.NoError(t, err)
	assert.Equal(t, 3+int(net), stored.CopiesAvailable)
}

func Test_MemoryRepository_CreateRejectsDuplicateISBN(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()
	require.NoError(t, repo.Create(ctx, newTitle("9780000000004", 1, 1)))

	err := repo.Create(ctx, newTitle("9780000000004", 1, 1))
	assert.ErrorIs(t, err, model.ErrISBNExists)
}

func Test_MemoryRepository_UpdateVersionCheck(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()
	title := newTitle("9780000000005", 2, 2)
	require.NoError(t, repo.Create(ctx, title))

	edit, err := repo.GetByID(ctx, title.ID)
	require.NoError(t, err)
	edit.Name = "Renamed"

	// a borrow lands between read and write
	_, err = repo.AdjustAvailable(ctx, title.ID, -1)
	require.NoError(t, err)

	err = repo.Update(ctx, edit, edit.Version)
	assert.ErrorIs(t, err, model.ErrOptimisticLockFailed)

	fresh, err := repo.GetByID(ctx, title.ID)
	require.NoError(t, err)
	fresh.Name = "Renamed"
	require.NoError(t, repo.Update(ctx, fresh, fresh.Version))

	stored, err := repo.GetByID(ctx, title.ID)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", stored.Name)
	assert.Equal(t, 1, stored.CopiesAvailable)
	assert.Equal(t, 3, stored.Version)
}

func Test_MemoryRepository_DeleteGuard(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()
	title := newTitle("9780000000006", 1, 1)
	require.NoError(t, repo.Create(ctx, title))

	_, err := repo.AdjustAvailable(ctx, title.ID, -1)
	require.NoError(t, err)
	assert.ErrorIs(t, repo.Delete(ctx, title.ID), model.ErrTitleHasActiveLoans)

	_, err = repo.AdjustAvailable(ctx, title.ID, 1)
	require.NoError(t, err)
	require.NoError(t, repo.Delete(ctx, title.ID))

	_, err = repo.GetByID(ctx, title.ID)
	assert.ErrorIs(t, err, model.ErrTitleNotFound)
	_, err = repo.AdjustAvailable(ctx, title.ID, -1)
	assert.ErrorIs(t, err, model.ErrTitleNotFound)

	// isbn is free again
	require.NoError(t, repo.Create(ctx, newTitle("9780000000006", 1, 1)))
}

func Test_MemoryRepository_ListFilters(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()

	a := newTitle("9780000000010", 1, 1)
	a.Name, a.Author, a.Categories = "Dune", "Frank Herbert", []string{"scifi"}
	b := newTitle("9780000000011", 1, 0)
	b.Name, b.Author, b.Categories = "Emma", "Jane Austen", []string{"classic"}
	c := newTitle("9780000000012", 2, 2)
	c.Name, c.Author, c.Categories = "Hyperion", "Dan Simmons", []string{"scifi"}
	for _, tt := range []*model.Title{a, b, c} {
		require.NoError(t, repo.Create(ctx, tt))
	}

	titles, total, err := repo.List(ctx, model.ListTitlesRequest{})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	assert.Equal(t, []string{"Dune", "Emma", "Hyperion"}, names(titles))

	titles, total, err = repo.List(ctx, model.ListTitlesRequest{Search: "austen"})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, []string{"Emma"}, names(titles))

	titles, _, err = repo.List(ctx, model.ListTitlesRequest{Category: "scifi", AvailableOnly: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"Dune", "Hyperion"}, names(titles))

	titles, total, err = repo.List(ctx, model.ListTitlesRequest{Page: 2, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	assert.Equal(t, []string{"Hyperion"}, names(titles))
}

func names(titles []model.Title) []string {
	out := make([]string, 0, len(titles))
	for _, t := range titles {
		out = append(out, t.Name)
	}
	return out
}
