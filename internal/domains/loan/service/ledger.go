package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"library-backend/internal/domains/loan/model"
	"library-backend/internal/domains/loan/repository"
	"library-backend/internal/domains/realtime"
	titleModel "library-backend/internal/domains/title/model"
	"library-backend/internal/shared"
	"library-backend/pkg/logger"
)

const (
	DefaultLoanPeriod = 14 * 24 * time.Hour

	syncSourceBorrow = "borrow"
	syncSourceReturn = "return"
)

// Ledger coordinates the loan records, the title counters and the fan-out.
//
// A borrow decrements the counter before the loan row exists and a return
// closes the loan before the counter is incremented. The two writes are not
// one transaction: a crash between them leaves a drift between
// copies_total - copies_available and the active loan count, which the
// reconciliation job reports.
type Ledger struct {
	loans      repository.RepositoryInterface
	titles     TitleStore
	publisher  realtime.Publisher
	syncer     AvailabilitySyncer
	loanPeriod time.Duration
	now        func() time.Time
}

// Option configures a Ledger
type Option func(*Ledger)

// WithLoanPeriod sets the due date offset. Non-positive values are ignored.
func WithLoanPeriod(d time.Duration) Option {
	return func(l *Ledger) {
		if d > 0 {
			l.loanPeriod = d
		}
	}
}

// WithClock replaces time.Now
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) { l.now = now }
}

// WithSyncer enqueues a cache refresh after every committed count change
func WithSyncer(s AvailabilitySyncer) Option {
	return func(l *Ledger) { l.syncer = s }
}

func NewLedger(
	loans repository.RepositoryInterface,
	titles TitleStore,
	publisher realtime.Publisher,
	opts ...Option,
) *Ledger {
	l := &Ledger{
		loans:      loans,
		titles:     titles,
		publisher:  publisher,
		loanPeriod: DefaultLoanPeriod,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

var _ ServiceInterface = (*Ledger)(nil)

func (l *Ledger) Borrow(ctx context.Context, id shared.Identity, titleID uuid.UUID) (*model.BorrowResult, error) {
	if !id.Verified() {
		return nil, model.ErrUnauthorized
	}

	// 1. one active loan per (member, title)
	has, err := l.loans.HasActive(ctx, id.MemberID, titleID)
	if err != nil {
		return nil, model.NewStoreError("check active loan", err)
	}
	if has {
		return nil, model.NewDuplicateActiveLoanError(id.MemberID, titleID)
	}

	// 2. take a copy
	title, err := l.titles.AdjustAvailable(ctx, titleID, -1)
	if err != nil {
		if errors.Is(err, titleModel.ErrInventoryExhausted) || errors.Is(err, titleModel.ErrTitleNotFound) {
			return nil, err
		}
		return nil, model.NewStoreError("decrement availability", err)
	}

	// 3. record the loan
	now := l.now().UTC()
	loan := &model.Loan{
		ID:        uuid.New(),
		TitleID:   titleID,
		MemberID:  id.MemberID,
		LoanDate:  now,
		DueDate:   now.Add(l.loanPeriod),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := l.loans.Create(ctx, loan); err != nil {
		// a concurrent borrow by the same member won the unique index, or the store failed
		l.restoreCopy(ctx, titleID, err)
		if errors.Is(err, model.ErrDuplicateActiveLoan) {
			return nil, err
		}
		return nil, model.NewStoreError("create loan", err)
	}

	logger.Info("loan created", map[string]interface{}{
		"loan_id":          loan.ID.String(),
		"title_id":         titleID.String(),
		"member_id":        id.MemberID.String(),
		"copies_available": title.CopiesAvailable,
	})

	// 4. announce
	l.announce(ctx, title, syncSourceBorrow)

	return &model.BorrowResult{
		LoanID:          loan.ID,
		TitleID:         titleID,
		DueDate:         loan.DueDate,
		CopiesAvailable: title.CopiesAvailable,
	}, nil
}

// restoreCopy undoes the decrement of a borrow whose loan could not be recorded
func (l *Ledger) restoreCopy(ctx context.Context, titleID uuid.UUID, cause error) {
	ctx = context.WithoutCancel(ctx)

	title, err := l.titles.AdjustAvailable(ctx, titleID, +1)
	if err != nil {
		logger.ErrorWithFields("failed to restore copy after aborted borrow", err, map[string]interface{}{
			"title_id": titleID.String(),
			"cause":    cause.Error(),
		})
		return
	}

	logger.Warn("borrow aborted, copy restored", map[string]interface{}{
		"title_id": titleID.String(),
		"cause":    cause.Error(),
	})
	l.announce(ctx, title, syncSourceBorrow)
}

func (l *Ledger) Return(ctx context.Context, id shared.Identity, loanID uuid.UUID) (*model.ReturnResult, error) {
	if !id.Verified() {
		return nil, model.ErrUnauthorized
	}

	// 1. close the loan; only one caller can win this
	now := l.now().UTC()
	loan, err := l.loans.MarkReturned(ctx, loanID, id.MemberID, now)
	if err != nil {
		if errors.Is(err, model.ErrActiveLoanNotFound) {
			return nil, err
		}
		return nil, model.NewStoreError("mark loan returned", err)
	}

	result := &model.ReturnResult{
		LoanID:       loan.ID,
		TitleID:      loan.TitleID,
		ReturnedDate: now,
	}

	// 2. put the copy back. The loan is already closed, so a caller going away
	// must not stop the increment.
	ctx = context.WithoutCancel(ctx)
	title, err := l.titles.AdjustAvailable(ctx, loan.TitleID, +1)
	switch {
	case err == nil:
	case errors.Is(err, titleModel.ErrInventoryFull):
		// counters were edited while the loan was out; keep the return, report current state
		logger.Warn("return found every copy on shelf", map[string]interface{}{
			"loan_id":  loan.ID.String(),
			"title_id": loan.TitleID.String(),
		})
		title, err = l.titles.GetByID(ctx, loan.TitleID)
		if err != nil {
			return nil, model.NewStoreError("load title", err)
		}
	case errors.Is(err, titleModel.ErrTitleNotFound):
		logger.Warn("returned loan references a missing title", map[string]interface{}{
			"loan_id":  loan.ID.String(),
			"title_id": loan.TitleID.String(),
		})
		return result, nil
	default:
		logger.ErrorWithFields("loan closed but copy not restored", err, map[string]interface{}{
			"loan_id":  loan.ID.String(),
			"title_id": loan.TitleID.String(),
		})
		return nil, model.NewStoreError("increment availability", err)
	}

	logger.Info("loan returned", map[string]interface{}{
		"loan_id":          loan.ID.String(),
		"title_id":         loan.TitleID.String(),
		"member_id":        id.MemberID.String(),
		"copies_available": title.CopiesAvailable,
	})

	// 3. announce
	l.announce(ctx, title, syncSourceReturn)

	result.CopiesAvailable = title.CopiesAvailable
	return result, nil
}

func (l *Ledger) ListMyLoans(ctx context.Context, id shared.Identity) ([]model.LoanView, error) {
	if !id.Verified() {
		return nil, model.ErrUnauthorized
	}

	loans, err := l.loans.ListByMember(ctx, id.MemberID)
	if err != nil {
		return nil, model.NewStoreError("list loans", err)
	}

	ids := make([]uuid.UUID, 0, len(loans))
	seen := make(map[uuid.UUID]struct{}, len(loans))
	for _, loan := range loans {
		if _, ok := seen[loan.TitleID]; ok {
			continue
		}
		seen[loan.TitleID] = struct{}{}
		ids = append(ids, loan.TitleID)
	}

	titles, err := l.titles.GetByIDs(ctx, ids)
	if err != nil {
		return nil, model.NewStoreError("load titles", err)
	}

	now := l.now()
	views := make([]model.LoanView, 0, len(loans))
	for _, loan := range loans {
		view := model.LoanView{
			Loan:    loan,
			Status:  model.StatusReturned,
			Overdue: loan.IsOverdue(now),
		}
		if loan.IsActive() {
			view.Status = model.StatusActive
		}
		if t, ok := titles[loan.TitleID]; ok {
			view.Title = &model.TitleSummary{ID: t.ID, Name: t.Name, Author: t.Author, ISBN: t.ISBN}
		}
		views = append(views, view)
	}
	return views, nil
}

func (l *Ledger) ListTitleLoans(ctx context.Context, titleID uuid.UUID) ([]model.Loan, error) {
	if _, err := l.titles.GetByID(ctx, titleID); err != nil {
		if errors.Is(err, titleModel.ErrTitleNotFound) {
			return nil, err
		}
		return nil, model.NewStoreError("load title", err)
	}

	loans, err := l.loans.ListActiveByTitle(ctx, titleID)
	if err != nil {
		return nil, model.NewStoreError("list title loans", err)
	}
	return loans, nil
}

// announce publishes the committed count. Failures are logged, never returned:
// the ledger change already happened and observers reconcile by refetching.
func (l *Ledger) announce(ctx context.Context, title *titleModel.Title, source string) {
	evt := realtime.AvailabilityChanged(title.ID, title.CopiesAvailable, title.Version)
	if err := l.publisher.Publish(ctx, evt); err != nil {
		logger.ErrorWithFields("failed to publish availability", err, map[string]interface{}{
			"title_id": title.ID.String(),
		})
	}

	if l.syncer == nil {
		return
	}
	if err := l.syncer.EnqueueAvailabilitySync(ctx, title.ID, source); err != nil {
		logger.ErrorWithFields("failed to enqueue availability sync", err, map[string]interface{}{
			"title_id": title.ID.String(),
		})
	}
}
