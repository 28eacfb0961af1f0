package service

import (
	"context"

	"github.com/google/uuid"

	"library-backend/internal/domains/loan/model"
	titleModel "library-backend/internal/domains/title/model"
	titleRepo "library-backend/internal/domains/title/repository"
	"library-backend/internal/shared"
)

// ServiceInterface is the lending ledger
type ServiceInterface interface {
	// Borrow checks out one copy of titleID for the caller.
	// Errors: ErrUnauthorized, ErrDuplicateActiveLoan, title ErrInventoryExhausted,
	// title ErrTitleNotFound, ErrStoreUnavailable.
	Borrow(ctx context.Context, id shared.Identity, titleID uuid.UUID) (*model.BorrowResult, error)

	// Return closes the caller's active loan and puts the copy back.
	// Errors: ErrUnauthorized, ErrActiveLoanNotFound, ErrStoreUnavailable.
	Return(ctx context.Context, id shared.Identity, loanID uuid.UUID) (*model.ReturnResult, error)

	// ListMyLoans returns the caller's loans, active first then newest first
	ListMyLoans(ctx context.Context, id shared.Identity) ([]model.LoanView, error)

	// ListTitleLoans returns the active loans of a title
	ListTitleLoans(ctx context.Context, titleID uuid.UUID) ([]model.Loan, error)
}

// TitleStore is the part of the title repository the ledger needs
type TitleStore interface {
	titleRepo.Mutator
	GetByID(ctx context.Context, id uuid.UUID) (*titleModel.Title, error)
	GetByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*titleModel.Title, error)
}

// AvailabilitySyncer schedules a refresh of the cached availability snapshot
type AvailabilitySyncer interface {
	EnqueueAvailabilitySync(ctx context.Context, titleID uuid.UUID, source string) error
}
