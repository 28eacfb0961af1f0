package repository

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"library-backend/internal/domains/title/model"
)

// titleEntry guards one title. Mutations of different titles never share a lock.
type titleEntry struct {
	mu      sync.Mutex
	title   *model.Title
	deleted bool
}

// MemoryRepository keeps titles in process memory.
// The map lock only guards membership and the isbn index; counters are
// protected by the per-title entry lock.
type MemoryRepository struct {
	mu      sync.RWMutex
	entries map[uuid.UUID]*titleEntry
	isbns   map[string]uuid.UUID
	now     func() time.Time
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		entries: make(map[uuid.UUID]*titleEntry),
		isbns:   make(map[string]uuid.UUID),
		now:     time.Now,
	}
}

var _ RepositoryInterface = (*MemoryRepository)(nil)

func (r *MemoryRepository) entry(id uuid.UUID) (*titleEntry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[id]
	return e, ok
}

func (r *MemoryRepository) AdjustAvailable(ctx context.Context, titleID uuid.UUID, delta int) (*model.Title, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	e, ok := r.entry(titleID)
	if !ok {
		return nil, model.NewTitleNotFoundError(titleID)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.deleted {
		return nil, model.NewTitleNotFoundError(titleID)
	}

	next := e.title.CopiesAvailable + delta
	if next < 0 {
		return nil, model.NewExhaustedError(titleID)
	}
	if next > e.title.CopiesTotal {
		return nil, model.NewInventoryFullError(titleID)
	}

	e.title.CopiesAvailable = next
	e.title.Version++
	e.title.UpdatedAt = r.now()

	return e.title.Clone(), nil
}

func (r *MemoryRepository) Create(ctx context.Context, t *model.Title) error {
	if t.CopiesAvailable > t.CopiesTotal || t.CopiesAvailable < 0 {
		return model.ErrAvailableExceedsTotal
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.isbns[t.ISBN]; ok {
		return model.ErrISBNExists
	}
	if _, ok := r.entries[t.ID]; ok {
		return fmt.Errorf("title %s already exists", t.ID)
	}

	now := r.now()
	t.CreatedAt = now
	t.UpdatedAt = now

	r.entries[t.ID] = &titleEntry{title: t.Clone()}
	r.isbns[t.ISBN] = t.ID
	return nil
}

func (r *MemoryRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Title, error) {
	e, ok := r.entry(id)
	if !ok {
		return nil, model.NewTitleNotFoundError(id)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.deleted {
		return nil, model.NewTitleNotFoundError(id)
	}
	return e.title.Clone(), nil
}

func (r *MemoryRepository) GetByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*model.Title, error) {
	result := make(map[uuid.UUID]*model.Title, len(ids))
	for _, id := range ids {
		t, err := r.GetByID(ctx, id)
		if err != nil {
			if model.IsNotFoundError(err) {
				continue
			}
			return nil, err
		}
		result[id] = t
	}
	return result, nil
}

func (r *MemoryRepository) snapshot() []model.Title {
	r.mu.RLock()
	entries := make([]*titleEntry, 0, len(r.entries))
	for _, e := range r.entries {
		entries = append(entries, e)
	}
	r.mu.RUnlock()

	titles := make([]model.Title, 0, len(entries))
	for _, e := range entries {
		e.mu.Lock()
		if !e.deleted {
			titles = append(titles, *e.title.Clone())
		}
		e.mu.Unlock()
	}
	return titles
}

func (r *MemoryRepository) List(ctx context.Context, filter model.ListTitlesRequest) ([]model.Title, int, error) {
	filter.SetDefaults()
	search := strings.ToLower(filter.Search)

	matched := make([]model.Title, 0)
	for _, t := range r.snapshot() {
		if search != "" &&
			!strings.Contains(strings.ToLower(t.Name), search) &&
			!strings.Contains(strings.ToLower(t.Author), search) &&
			!strings.Contains(strings.ToLower(t.ISBN), search) {
			continue
		}
		if filter.Category != "" && !containsString(t.Categories, filter.Category) {
			continue
		}
		if filter.AvailableOnly && t.CopiesAvailable <= 0 {
			continue
		}
		matched = append(matched, t)
	}

	sort.Slice(matched, func(i, j int) bool {
		if matched[i].Name != matched[j].Name {
			return matched[i].Name < matched[j].Name
		}
		return matched[i].ID.String() < matched[j].ID.String()
	})

	total := len(matched)
	start := filter.Offset()
	if start > total {
		start = total
	}
	end := start + filter.Limit
	if end > total {
		end = total
	}

	return matched[start:end], total, nil
}

func (r *MemoryRepository) ListAll(ctx context.Context) ([]model.Title, error) {
	titles := r.snapshot()
	sort.Slice(titles, func(i, j int) bool { return titles[i].ID.String() < titles[j].ID.String() })
	return titles, nil
}

func (r *MemoryRepository) Update(ctx context.Context, t *model.Title, expectedVersion int) error {
	if t.CopiesAvailable > t.CopiesTotal || t.CopiesAvailable < 0 {
		return model.ErrAvailableExceedsTotal
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[t.ID]
	if !ok {
		return model.NewTitleNotFoundError(t.ID)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.title.Version != expectedVersion {
		return model.NewOptimisticLockError(t.ID, expectedVersion)
	}

	oldISBN := e.title.ISBN
	if t.ISBN != oldISBN {
		if _, taken := r.isbns[t.ISBN]; taken {
			return model.ErrISBNExists
		}
		delete(r.isbns, oldISBN)
		r.isbns[t.ISBN] = t.ID
	}

	t.Version = expectedVersion + 1
	t.CreatedAt = e.title.CreatedAt
	t.UpdatedAt = r.now()
	e.title = t.Clone()
	return nil
}

func (r *MemoryRepository) Delete(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[id]
	if !ok {
		return model.NewTitleNotFoundError(id)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.title.CopiesAvailable != e.title.CopiesTotal {
		return fmt.Errorf("%w: id=%s", model.ErrTitleHasActiveLoans, id)
	}

	e.deleted = true
	delete(r.entries, id)
	delete(r.isbns, e.title.ISBN)
	return nil
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
