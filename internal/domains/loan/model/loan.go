package model

import (
	"time"

	"github.com/google/uuid"
)

// Loan is one checkout of one copy. Loans are never deleted; a returned loan
// keeps its history with ReturnedDate set.
type Loan struct {
	ID           uuid.UUID  `json:"id"`
	TitleID      uuid.UUID  `json:"title_id"`
	MemberID     uuid.UUID  `json:"member_id"`
	LoanDate     time.Time  `json:"loan_date"`
	DueDate      time.Time  `json:"due_date"`
	ReturnedDate *time.Time `json:"returned_date,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

func (l *Loan) IsActive() bool {
	return l.ReturnedDate == nil
}

// IsOverdue is informational only
func (l *Loan) IsOverdue(now time.Time) bool {
	return l.IsActive() && now.After(l.DueDate)
}
