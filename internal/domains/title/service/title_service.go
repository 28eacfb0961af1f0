package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"library-backend/internal/domains/realtime"
	"library-backend/internal/domains/title/model"
	"library-backend/internal/domains/title/repository"
	"library-backend/pkg/logger"
)

const syncSourceAdmin = "admin"

type TitleService struct {
	repo      repository.RepositoryInterface
	loans     ActiveLoanCounter
	publisher realtime.Publisher
	syncer    AvailabilitySyncer
}

// NewService creates the title service. syncer may be nil when no queue is configured.
func NewService(
	repo repository.RepositoryInterface,
	loans ActiveLoanCounter,
	publisher realtime.Publisher,
	syncer AvailabilitySyncer,
) ServiceInterface {
	return &TitleService{
		repo:      repo,
		loans:     loans,
		publisher: publisher,
		syncer:    syncer,
	}
}

func (s *TitleService) Create(ctx context.Context, req model.CreateTitleRequest) (*model.Title, error) {
	req.Normalize()

	available := req.CopiesTotal
	if req.CopiesAvailable != nil {
		available = *req.CopiesAvailable
	}
	if available > req.CopiesTotal {
		return nil, model.ErrAvailableExceedsTotal
	}

	t := &model.Title{
		ID:              uuid.New(),
		ISBN:            req.ISBN,
		Name:            req.Name,
		Author:          req.Author,
		Categories:      req.Categories,
		Description:     req.Description,
		CoverImageURL:   req.CoverImageURL,
		CopiesTotal:     req.CopiesTotal,
		CopiesAvailable: available,
		Version:         1,
	}

	if err := s.repo.Create(ctx, t); err != nil {
		return nil, err
	}

	logger.Info("title created", map[string]interface{}{
		"title_id": t.ID.String(),
		"isbn":     t.ISBN,
		"copies":   t.CopiesTotal,
	})

	s.publishTitle(ctx, realtime.EventTitleCreated, t)
	s.sync(ctx, t.ID)
	return t, nil
}

func (s *TitleService) Get(ctx context.Context, id uuid.UUID) (*model.Title, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *TitleService) List(ctx context.Context, req model.ListTitlesRequest) ([]model.Title, int, error) {
	req.SetDefaults()
	return s.repo.List(ctx, req)
}

func (s *TitleService) Update(ctx context.Context, id uuid.UUID, req model.UpdateTitleRequest) (*model.Title, error) {
	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if current.Version != req.Version {
		return nil, model.NewOptimisticLockError(id, req.Version)
	}

	updated := current.Clone()
	req.Apply(updated)

	if req.CopiesTotal != nil && req.CopiesAvailable == nil {
		updated.CopiesAvailable = current.CopiesAvailable + (updated.CopiesTotal - current.CopiesTotal)
		if updated.CopiesAvailable < 0 {
			return nil, model.ErrCopiesBelowOnLoan
		}
	}
	if updated.CopiesAvailable > updated.CopiesTotal {
		return nil, model.ErrAvailableExceedsTotal
	}

	countsChanged := updated.CopiesTotal != current.CopiesTotal ||
		updated.CopiesAvailable != current.CopiesAvailable
	if countsChanged {
		active, err := s.loans.CountActiveByTitle(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("failed to count active loans: %w", err)
		}
		if updated.OnLoan() < active {
			return nil, fmt.Errorf("%w: %d on loan", model.ErrCopiesBelowOnLoan, active)
		}
	}

	if err := s.repo.Update(ctx, updated, req.Version); err != nil {
		return nil, err
	}

	s.publishTitle(ctx, realtime.EventTitleUpdated, updated)
	if countsChanged {
		s.publish(ctx, realtime.AvailabilityChanged(updated.ID, updated.CopiesAvailable, updated.Version))
		s.sync(ctx, updated.ID)
	}
	return updated, nil
}

func (s *TitleService) Delete(ctx context.Context, id uuid.UUID) error {
	active, err := s.loans.CountActiveByTitle(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to count active loans: %w", err)
	}
	if active > 0 {
		return fmt.Errorf("%w: %d active", model.ErrTitleHasActiveLoans, active)
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	logger.Info("title deleted", map[string]interface{}{"title_id": id.String()})

	evt, err := realtime.TitleChanged(realtime.EventTitleDeleted, id, 0, nil)
	if err == nil {
		s.publish(ctx, evt)
	}
	s.sync(ctx, id)
	return nil
}

func (s *TitleService) publishTitle(ctx context.Context, name string, t *model.Title) {
	evt, err := realtime.TitleChanged(name, t.ID, t.Version, t)
	if err != nil {
		logger.Error("failed to encode title event", err)
		return
	}
	s.publish(ctx, evt)
}

// publish never fails the caller; the write is already committed
func (s *TitleService) publish(ctx context.Context, evt realtime.Event) {
	if err := s.publisher.Publish(ctx, evt); err != nil {
		logger.ErrorWithFields("failed to publish realtime event", err, map[string]interface{}{
			"event":    evt.Name,
			"title_id": evt.TitleID,
		})
	}
}

func (s *TitleService) sync(ctx context.Context, id uuid.UUID) {
	if s.syncer == nil {
		return
	}
	if err := s.syncer.EnqueueAvailabilitySync(ctx, id, syncSourceAdmin); err != nil {
		logger.ErrorWithFields("failed to enqueue availability sync", err, map[string]interface{}{
			"title_id": id.String(),
		})
	}
}
