package service

import (
	"context"

	"github.com/google/uuid"

	"library-backend/internal/domains/title/model"
)

// ServiceInterface is the catalog admin and read surface for titles
type ServiceInterface interface {
	// Create adds a title. CopiesAvailable defaults to CopiesTotal.
	// Returns ErrISBNExists on duplicate isbn.
	Create(ctx context.Context, req model.CreateTitleRequest) (*model.Title, error)

	Get(ctx context.Context, id uuid.UUID) (*model.Title, error)

	List(ctx context.Context, req model.ListTitlesRequest) ([]model.Title, int, error)

	// Update applies an admin edit guarded by req.Version.
	// Changing copies_total alone shifts copies_available by the same amount.
	Update(ctx context.Context, id uuid.UUID, req model.UpdateTitleRequest) (*model.Title, error)

	// Delete removes a title with no active loans
	Delete(ctx context.Context, id uuid.UUID) error
}

// ActiveLoanCounter reports how many loans of a title are still open
type ActiveLoanCounter interface {
	CountActiveByTitle(ctx context.Context, titleID uuid.UUID) (int, error)
}

// AvailabilitySyncer schedules a refresh of the cached availability snapshot
type AvailabilitySyncer interface {
	EnqueueAvailabilitySync(ctx context.Context, titleID uuid.UUID, source string) error
}
