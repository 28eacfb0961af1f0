package model

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
)

// BorrowRequest - POST /api/v1/loans/borrow
type BorrowRequest struct {
	TitleID string `json:"title_id"`
}

func (r BorrowRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.TitleID,
			validation.Required.Error("title_id is required"),
			validation.By(func(value interface{}) error {
				s, _ := value.(string)
				if _, err := uuid.Parse(s); err != nil {
					return validation.NewError("validation_is_uuid", "must be a valid UUID")
				}
				return nil
			}),
		),
	)
}

// ParsedTitleID is only meaningful after Validate succeeded
func (r BorrowRequest) ParsedTitleID() uuid.UUID {
	id, _ := uuid.Parse(r.TitleID)
	return id
}

// BorrowResult is what a successful borrow reports back
type BorrowResult struct {
	LoanID          uuid.UUID `json:"loan_id"`
	TitleID         uuid.UUID `json:"title_id"`
	DueDate         time.Time `json:"due_date"`
	CopiesAvailable int       `json:"copies_available"`
}

// ReturnResult is what a successful return reports back
type ReturnResult struct {
	LoanID          uuid.UUID `json:"loan_id"`
	TitleID         uuid.UUID `json:"title_id"`
	ReturnedDate    time.Time `json:"returned_date"`
	CopiesAvailable int       `json:"copies_available"`
}

// TitleSummary is the catalog data shown next to a loan
type TitleSummary struct {
	ID     uuid.UUID `json:"id"`
	Name   string    `json:"title"`
	Author string    `json:"author"`
	ISBN   string    `json:"isbn"`
}

// LoanView is a loan enriched for display. Title is nil when the title no longer exists.
type LoanView struct {
	Loan
	Status  string        `json:"status"` // active | returned
	Overdue bool          `json:"overdue"`
	Title   *TitleSummary `json:"title,omitempty"`
}

const (
	StatusActive   = "active"
	StatusReturned = "returned"
)
