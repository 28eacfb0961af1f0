package job

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"library-backend/internal/domains/loan/model"
	loanRepo "library-backend/internal/domains/loan/repository"
	titleModel "library-backend/internal/domains/title/model"
	titleRepo "library-backend/internal/domains/title/repository"
	"library-backend/internal/shared"
)

func Test_Reconcile_FindsDrift(t *testing.T) {
	ctx := context.Background()
	titles := titleRepo.NewMemoryRepository()
	loans := loanRepo.NewMemoryRepository()

	healthy := &titleModel.Title{ID: uuid.New(), ISBN: "9780441013593", Name: "Dune", Author: "Frank Herbert", CopiesTotal: 2, CopiesAvailable: 1, Version: 1}
	drifting := &titleModel.Title{ID: uuid.New(), ISBN: "9780553293357", Name: "Foundation", Author: "Isaac Asimov", CopiesTotal: 3, CopiesAvailable: 1, Version: 1}
	require.NoError(t, titles.Create(ctx, healthy))
	require.NoError(t, titles.Create(ctx, drifting))

	now := time.Now()
	for _, titleID := range []uuid.UUID{healthy.ID, drifting.ID} {
		require.NoError(t, loans.Create(ctx, &model.Loan{
			ID: uuid.New(), MemberID: uuid.New(), TitleID: titleID,
			LoanDate: now, DueDate: now.Add(time.Hour), CreatedAt: now,
		}))
	}

	h := NewReconcileHandler(titles, loans)
	report, err := h.Reconcile(ctx)
	require.NoError(t, err)

	assert.Equal(t, 2, report.Checked)
	require.Len(t, report.Drifts, 1)
	assert.Equal(t, Drift{TitleID: drifting.ID, OnLoan: 2, ActiveLoans: 1}, report.Drifts[0])

	assert.NoError(t, h.ProcessTask(ctx, asynq.NewTask(shared.TypeReconcileInventory, []byte(`{"limit":1}`))))
}

type failingLoans struct{}

func (failingLoans) ActiveCounts(context.Context) (map[uuid.UUID]int, error) {
	return nil, errors.New("connection refused")
}

func Test_Reconcile_StoreFailure(t *testing.T) {
	h := NewReconcileHandler(titleRepo.NewMemoryRepository(), failingLoans{})

	err := h.ProcessTask(context.Background(), asynq.NewTask(shared.TypeReconcileInventory, nil))
	assert.ErrorContains(t, err, "count active loans")

	err = h.ProcessTask(context.Background(), asynq.NewTask(shared.TypeReconcileInventory, []byte("nope")))
	assert.True(t, errors.Is(err, asynq.SkipRetry))
}
