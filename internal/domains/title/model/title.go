package model

import (
	"time"

	"github.com/google/uuid"
)

// Title is a catalog entry together with its copy counters.
// 0 <= CopiesAvailable <= CopiesTotal holds after every committed write.
type Title struct {
	ID              uuid.UUID `json:"id"`
	ISBN            string    `json:"isbn"`
	Name            string    `json:"title"`
	Author          string    `json:"author"`
	Categories      []string  `json:"categories"`
	Description     string    `json:"description,omitempty"`
	CoverImageURL   string    `json:"cover_image_url,omitempty"`
	CopiesTotal     int       `json:"copies_total"`
	CopiesAvailable int       `json:"copies_available"`
	Version         int       `json:"version"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// OnLoan is the number of copies currently checked out according to the counters
func (t *Title) OnLoan() int {
	return t.CopiesTotal - t.CopiesAvailable
}

// Clone returns a deep copy
func (t *Title) Clone() *Title {
	if t == nil {
		return nil
	}
	c := *t
	if t.Categories != nil {
		c.Categories = append([]string(nil), t.Categories...)
	}
	return &c
}
