package job

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/rs/zerolog/log"

	titleModel "library-backend/internal/domains/title/model"
	"library-backend/internal/shared"
)

type titleLister interface {
	ListAll(ctx context.Context) ([]titleModel.Title, error)
}

type activeCounter interface {
	ActiveCounts(ctx context.Context) (map[uuid.UUID]int, error)
}

// Drift is a title whose on-loan count disagrees with its active loans
type Drift struct {
	TitleID     uuid.UUID `json:"title_id"`
	OnLoan      int       `json:"on_loan"`
	ActiveLoans int       `json:"active_loans"`
}

// ReconcileReport summarizes one reconciliation run
type ReconcileReport struct {
	Checked int     `json:"checked"`
	Drifts  []Drift `json:"drifts"`
}

// ReconcileHandler compares copies_total - copies_available against the active
// loans of every title and logs the titles that disagree. It never writes.
type ReconcileHandler struct {
	titles titleLister
	loans  activeCounter
}

func NewReconcileHandler(titles titleLister, loans activeCounter) *ReconcileHandler {
	return &ReconcileHandler{titles: titles, loans: loans}
}

func (h *ReconcileHandler) ProcessTask(ctx context.Context, task *asynq.Task) error {
	var payload shared.ReconcilePayload
	if len(task.Payload()) > 0 {
		if err := json.Unmarshal(task.Payload(), &payload); err != nil {
			return fmt.Errorf("unmarshal payload: %v: %w", err, asynq.SkipRetry)
		}
	}

	report, err := h.Reconcile(ctx)
	if err != nil {
		return err
	}

	for i, d := range report.Drifts {
		if payload.Limit > 0 && i >= payload.Limit {
			log.Warn().Int("omitted", len(report.Drifts)-i).Msg("Too many drifting titles, rest omitted")
			break
		}
		log.Warn().
			Str("title_id", d.TitleID.String()).
			Int("on_loan", d.OnLoan).
			Int("active_loans", d.ActiveLoans).
			Msg("Inventory drift")
	}

	log.Info().
		Int("checked", report.Checked).
		Int("drifts", len(report.Drifts)).
		Msg("Inventory reconciliation finished")

	return nil
}

// Reconcile reads both sides and returns the mismatches
func (h *ReconcileHandler) Reconcile(ctx context.Context) (*ReconcileReport, error) {
	titles, err := h.titles.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list titles: %w", err)
	}

	counts, err := h.loans.ActiveCounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("count active loans: %w", err)
	}

	report := &ReconcileReport{Checked: len(titles), Drifts: []Drift{}}
	for _, t := range titles {
		active := counts[t.ID]
		if t.OnLoan() != active {
			report.Drifts = append(report.Drifts, Drift{TitleID: t.ID, OnLoan: t.OnLoan(), ActiveLoans: active})
		}
	}

	return report, nil
}
