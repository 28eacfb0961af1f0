package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"library-backend/internal/domains/loan/model"
)

type activeKey struct {
	member uuid.UUID
	title  uuid.UUID
}

// MemoryRepository keeps loans in process memory. The active index plays the
// role of the partial unique index in Postgres.
type MemoryRepository struct {
	mu     sync.RWMutex
	loans  map[uuid.UUID]*model.Loan
	active map[activeKey]uuid.UUID
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		loans:  make(map[uuid.UUID]*model.Loan),
		active: make(map[activeKey]uuid.UUID),
	}
}

var _ RepositoryInterface = (*MemoryRepository)(nil)

func (r *MemoryRepository) Create(ctx context.Context, loan *model.Loan) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	key := activeKey{member: loan.MemberID, title: loan.TitleID}
	if _, ok := r.active[key]; ok {
		return model.NewDuplicateActiveLoanError(loan.MemberID, loan.TitleID)
	}

	stored := *loan
	stored.ReturnedDate = nil
	r.loans[loan.ID] = &stored
	r.active[key] = loan.ID
	return nil
}

func (r *MemoryRepository) HasActive(ctx context.Context, memberID, titleID uuid.UUID) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.active[activeKey{member: memberID, title: titleID}]
	return ok, nil
}

func (r *MemoryRepository) MarkReturned(ctx context.Context, loanID, memberID uuid.UUID, at time.Time) (*model.Loan, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	l, ok := r.loans[loanID]
	if !ok || l.MemberID != memberID || !l.IsActive() {
		return nil, model.NewActiveLoanNotFoundError(loanID)
	}

	returned := at
	l.ReturnedDate = &returned
	l.UpdatedAt = at
	delete(r.active, activeKey{member: l.MemberID, title: l.TitleID})

	out := *l
	return &out, nil
}

func (r *MemoryRepository) ListByMember(ctx context.Context, memberID uuid.UUID) ([]model.Loan, error) {
	loans := r.filter(func(l *model.Loan) bool { return l.MemberID == memberID })

	sort.SliceStable(loans, func(i, j int) bool {
		ai, aj := loans[i].IsActive(), loans[j].IsActive()
		if ai != aj {
			return ai
		}
		if !loans[i].CreatedAt.Equal(loans[j].CreatedAt) {
			return loans[i].CreatedAt.After(loans[j].CreatedAt)
		}
		return loans[i].ID.String() < loans[j].ID.String()
	})
	return loans, nil
}

func (r *MemoryRepository) ListActiveByTitle(ctx context.Context, titleID uuid.UUID) ([]model.Loan, error) {
	loans := r.filter(func(l *model.Loan) bool { return l.TitleID == titleID && l.IsActive() })

	sort.SliceStable(loans, func(i, j int) bool {
		if !loans[i].LoanDate.Equal(loans[j].LoanDate) {
			return loans[i].LoanDate.Before(loans[j].LoanDate)
		}
		return loans[i].ID.String() < loans[j].ID.String()
	})
	return loans, nil
}

func (r *MemoryRepository) CountActiveByTitle(ctx context.Context, titleID uuid.UUID) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	n := 0
	for key := range r.active {
		if key.title == titleID {
			n++
		}
	}
	return n, nil
}

func (r *MemoryRepository) ActiveCounts(ctx context.Context) (map[uuid.UUID]int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	counts := make(map[uuid.UUID]int)
	for key := range r.active {
		counts[key.title]++
	}
	return counts, nil
}

func (r *MemoryRepository) filter(keep func(*model.Loan) bool) []model.Loan {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]model.Loan, 0)
	for _, l := range r.loans {
		if keep(l) {
			out = append(out, *l)
		}
	}
	return out
}
