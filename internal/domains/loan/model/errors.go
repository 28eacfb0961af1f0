package model

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var (
	// ErrUnauthorized is returned when the caller identity is missing or unverified
	ErrUnauthorized = errors.New("unauthorized")

	// ErrDuplicateActiveLoan is returned when the member already holds an active loan of the title
	ErrDuplicateActiveLoan = errors.New("you already have an active loan for this title")

	// ErrActiveLoanNotFound is returned when no active loan matches the id and member
	ErrActiveLoanNotFound = errors.New("active loan not found")

	// ErrStoreUnavailable wraps infrastructure failures of the backing store
	ErrStoreUnavailable = errors.New("store unavailable")
)

// Error codes
const (
	ErrCodeUnauthorized  = "LOAN001"
	ErrCodeDuplicate     = "LOAN002"
	ErrCodeExhausted     = "LOAN003"
	ErrCodeLoanNotFound  = "LOAN004"
	ErrCodeTitleNotFound = "LOAN005"
	ErrCodeValidation    = "LOAN006"
	ErrCodeStore         = "LOAN999"
)

func NewActiveLoanNotFoundError(loanID uuid.UUID) error {
	return fmt.Errorf("%w: id=%s", ErrActiveLoanNotFound, loanID)
}

func NewDuplicateActiveLoanError(memberID, titleID uuid.UUID) error {
	return fmt.Errorf("%w: member=%s title=%s", ErrDuplicateActiveLoan, memberID, titleID)
}

// NewStoreError marks err as a backing store failure during op
func NewStoreError(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrStoreUnavailable, op, err)
}
