package model

import (
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// CreateTitleRequest - admin request to add a title to the catalog
type CreateTitleRequest struct {
	ISBN            string   `json:"isbn"`
	Name            string   `json:"title"`
	Author          string   `json:"author"`
	Categories      []string `json:"categories"`
	Description     string   `json:"description"`
	CoverImageURL   string   `json:"cover_image_url"`
	CopiesTotal     int      `json:"copies_total"`
	CopiesAvailable *int     `json:"copies_available"` // defaults to CopiesTotal
}

func (r CreateTitleRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.ISBN, validation.Required, validation.Length(10, 17)),
		validation.Field(&r.Name, validation.Required, validation.Length(1, 500)),
		validation.Field(&r.Author, validation.Required, validation.Length(1, 255)),
		validation.Field(&r.Categories, validation.Length(0, 20)),
		validation.Field(&r.CoverImageURL, validation.Length(0, 1000)),
		validation.Field(&r.CopiesTotal, validation.Min(0)),
		validation.Field(&r.CopiesAvailable,
			validation.Min(0),
			validation.Max(r.CopiesTotal).Error("must not exceed copies_total"),
		),
	)
}

// Normalize trims text fields and drops blank categories
func (r *CreateTitleRequest) Normalize() {
	r.ISBN = strings.TrimSpace(r.ISBN)
	r.Name = strings.TrimSpace(r.Name)
	r.Author = strings.TrimSpace(r.Author)
	r.Categories = normalizeCategories(r.Categories)
}

// UpdateTitleRequest - admin edit. Nil fields are left unchanged.
// Version must match the stored version.
type UpdateTitleRequest struct {
	ISBN            *string   `json:"isbn"`
	Name            *string   `json:"title"`
	Author          *string   `json:"author"`
	Categories      *[]string `json:"categories"`
	Description     *string   `json:"description"`
	CoverImageURL   *string   `json:"cover_image_url"`
	CopiesTotal     *int      `json:"copies_total"`
	CopiesAvailable *int      `json:"copies_available"`
	Version         int       `json:"version"`
}

func (r UpdateTitleRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.ISBN, validation.NilOrNotEmpty, validation.Length(10, 17)),
		validation.Field(&r.Name, validation.NilOrNotEmpty, validation.Length(1, 500)),
		validation.Field(&r.Author, validation.NilOrNotEmpty, validation.Length(1, 255)),
		validation.Field(&r.CopiesTotal, validation.Min(0)),
		validation.Field(&r.CopiesAvailable, validation.Min(0)),
		validation.Field(&r.Version, validation.Required, validation.Min(1)),
	)
}

// Apply copies the set fields onto t
func (r UpdateTitleRequest) Apply(t *Title) {
	if r.ISBN != nil {
		t.ISBN = strings.TrimSpace(*r.ISBN)
	}
	if r.Name != nil {
		t.Name = strings.TrimSpace(*r.Name)
	}
	if r.Author != nil {
		t.Author = strings.TrimSpace(*r.Author)
	}
	if r.Categories != nil {
		t.Categories = normalizeCategories(*r.Categories)
	}
	if r.Description != nil {
		t.Description = *r.Description
	}
	if r.CoverImageURL != nil {
		t.CoverImageURL = *r.CoverImageURL
	}
	if r.CopiesTotal != nil {
		t.CopiesTotal = *r.CopiesTotal
	}
	if r.CopiesAvailable != nil {
		t.CopiesAvailable = *r.CopiesAvailable
	}
}

// ListTitlesRequest - query params for GET /titles
type ListTitlesRequest struct {
	Search        string `form:"search"`
	Category      string `form:"category"`
	AvailableOnly bool   `form:"available_only"`
	Page          int    `form:"page"`
	Limit         int    `form:"limit"`
}

func (r *ListTitlesRequest) SetDefaults() {
	if r.Page < 1 {
		r.Page = 1
	}
	if r.Limit < 1 {
		r.Limit = 20
	}
	if r.Limit > 100 {
		r.Limit = 100
	}
	r.Search = strings.TrimSpace(r.Search)
}

func (r ListTitlesRequest) Offset() int {
	return (r.Page - 1) * r.Limit
}

func normalizeCategories(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, c := range in {
		c = strings.TrimSpace(c)
		if c == "" {
			continue
		}
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	return out
}
