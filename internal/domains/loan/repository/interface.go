package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"library-backend/internal/domains/loan/model"
)

// RepositoryInterface defines the contract for loan data access.
// At most one loan per (member, title) may be active; the store enforces it.
type RepositoryInterface interface {
	// Create inserts an active loan. Returns ErrDuplicateActiveLoan when the
	// member already holds an active loan of the same title.
	Create(ctx context.Context, loan *model.Loan) error

	HasActive(ctx context.Context, memberID, titleID uuid.UUID) (bool, error)

	// MarkReturned sets returned_date on the loan if it is active and owned by memberID.
	// Returns ErrActiveLoanNotFound otherwise.
	MarkReturned(ctx context.Context, loanID, memberID uuid.UUID, at time.Time) (*model.Loan, error)

	// ListByMember returns active loans first, then by creation time, newest first
	ListByMember(ctx context.Context, memberID uuid.UUID) ([]model.Loan, error)

	ListActiveByTitle(ctx context.Context, titleID uuid.UUID) ([]model.Loan, error)

	CountActiveByTitle(ctx context.Context, titleID uuid.UUID) (int, error)

	// ActiveCounts returns the number of active loans per title
	ActiveCounts(ctx context.Context) (map[uuid.UUID]int, error)
}
