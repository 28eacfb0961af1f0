package repository

import (
	"context"

	"github.com/google/uuid"

	"library-backend/internal/domains/title/model"
)

// Mutator is the only path that changes copies_available on the lending side.
type Mutator interface {
	// AdjustAvailable applies delta to copies_available as one indivisible step and
	// returns the title after the change. The write happens only when the result stays
	// within [0, copies_total]; otherwise nothing changes and the error says why:
	// ErrTitleNotFound, ErrInventoryExhausted (delta < 0) or ErrInventoryFull (delta > 0).
	AdjustAvailable(ctx context.Context, titleID uuid.UUID, delta int) (*model.Title, error)
}

// RepositoryInterface defines the contract for title data access
type RepositoryInterface interface {
	Mutator

	// Create inserts t. Returns ErrISBNExists on a duplicate isbn.
	Create(ctx context.Context, t *model.Title) error

	GetByID(ctx context.Context, id uuid.UUID) (*model.Title, error)

	// GetByIDs returns the titles that exist; missing ids are absent from the map
	GetByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*model.Title, error)

	// List returns one page of titles ordered by name and the total match count
	List(ctx context.Context, filter model.ListTitlesRequest) ([]model.Title, int, error)

	// ListAll returns every title, used by the reconciliation job
	ListAll(ctx context.Context) ([]model.Title, error)

	// Update writes every field of t when the stored version equals expectedVersion,
	// bumping the version. Returns ErrOptimisticLockFailed otherwise.
	Update(ctx context.Context, t *model.Title, expectedVersion int) error

	// Delete removes the title when every copy is on the shelf.
	// Returns ErrTitleHasActiveLoans otherwise.
	Delete(ctx context.Context, id uuid.UUID) error
}
