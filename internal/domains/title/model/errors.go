package model

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var (
	ErrTitleNotFound = errors.New("title not found")

	// ErrInventoryExhausted is returned when a decrement would take available below zero
	ErrInventoryExhausted = errors.New("no copies available")

	// ErrInventoryFull is returned when an increment would take available above total
	ErrInventoryFull = errors.New("all copies already on shelf")

	ErrISBNExists = errors.New("a title with this isbn already exists")

	ErrAvailableExceedsTotal = errors.New("copies_available cannot exceed copies_total")

	// ErrCopiesBelowOnLoan is returned when an edit would leave fewer copies than are lent out
	ErrCopiesBelowOnLoan = errors.New("copies_total cannot drop below copies on loan")

	ErrOptimisticLockFailed = errors.New("title was modified concurrently")

	ErrTitleHasActiveLoans = errors.New("title has active loans")
)

// Error codes
const (
	ErrCodeTitleNotFound   = "TTL001"
	ErrCodeExhausted       = "TTL002"
	ErrCodeISBNExists      = "TTL003"
	ErrCodeInvalidCounts   = "TTL004"
	ErrCodeVersionConflict = "TTL005"
	ErrCodeHasActiveLoans  = "TTL006"
	ErrCodeValidation      = "TTL007"
	ErrCodeInternal        = "TTL999"
)

func NewTitleNotFoundError(id uuid.UUID) error {
	return fmt.Errorf("%w: id=%s", ErrTitleNotFound, id)
}

func NewExhaustedError(id uuid.UUID) error {
	return fmt.Errorf("%w: id=%s", ErrInventoryExhausted, id)
}

func NewInventoryFullError(id uuid.UUID) error {
	return fmt.Errorf("%w: id=%s", ErrInventoryFull, id)
}

func NewOptimisticLockError(id uuid.UUID, expected int) error {
	return fmt.Errorf("%w: id=%s expected version %d", ErrOptimisticLockFailed, id, expected)
}

func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrTitleNotFound)
}
