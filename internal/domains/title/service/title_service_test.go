package service

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"library-backend/internal/domains/realtime"
	"library-backend/internal/domains/title/model"
	"library-backend/internal/domains/title/repository"
)

type fakeCounter struct {
	active map[uuid.UUID]int
}

func (f *fakeCounter) CountActiveByTitle(ctx context.Context, titleID uuid.UUID) (int, error) {
	return f.active[titleID], nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []realtime.Event
}

func (p *recordingPublisher) Publish(ctx context.Context, evt realtime.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, evt)
	return nil
}

func (p *recordingPublisher) names() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Name)
	}
	return out
}

type recordingSyncer struct {
	ids []uuid.UUID
}

func (s *recordingSyncer) EnqueueAvailabilitySync(ctx context.Context, titleID uuid.UUID, source string) error {
	s.ids = append(s.ids, titleID)
	return nil
}

type fixture struct {
	svc     ServiceInterface
	repo    *repository.MemoryRepository
	counter *fakeCounter
	pub     *recordingPublisher
	syncer  *recordingSyncer
}

func newFixture() fixture {
	f := fixture{
		repo:    repository.NewMemoryRepository(),
		counter: &fakeCounter{active: map[uuid.UUID]int{}},
		pub:     &recordingPublisher{},
		syncer:  &recordingSyncer{},
	}
	f.svc = NewService(f.repo, f.counter, f.pub, f.syncer)
	return f
}

func intPtr(v int) *int { return &v }

func Test_TitleService_Create(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	created, err := f.svc.Create(ctx, model.CreateTitleRequest{
		ISBN:        " 9780441013593 ",
		Name:        "Dune",
		Author:      "Frank Herbert",
		Categories:  []string{"scifi", " ", "scifi"},
		CopiesTotal: 3,
	})
	require.NoError(t, err)

	assert.Equal(t, "9780441013593", created.ISBN)
	assert.Equal(t, 3, created.CopiesAvailable)
	assert.Equal(t, []string{"scifi"}, created.Categories)
	assert.Equal(t, 1, created.Version)
	assert.Equal(t, []string{realtime.EventTitleCreated}, f.pub.names())
	assert.Equal(t, []uuid.UUID{created.ID}, f.syncer.ids)

	_, err = f.svc.Create(ctx, model.CreateTitleRequest{
		ISBN: "9780441013593", Name: "Dune again", Author: "x", CopiesTotal: 1,
	})
	assert.ErrorIs(t, err, model.ErrISBNExists)

	_, err = f.svc.Create(ctx, model.CreateTitleRequest{
		ISBN: "9780000000001", Name: "Bad", Author: "x", CopiesTotal: 1, CopiesAvailable: intPtr(2),
	})
	assert.ErrorIs(t, err, model.ErrAvailableExceedsTotal)
}

func Test_TitleService_UpdateShiftsAvailableWithTotal(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	created, err := f.svc.Create(ctx, model.CreateTitleRequest{
		ISBN: "9780000000002", Name: "Emma", Author: "Jane Austen", CopiesTotal: 3,
	})
	require.NoError(t, err)

	_, err = f.repo.AdjustAvailable(ctx, created.ID, -2) // two copies out
	require.NoError(t, err)
	f.counter.active[created.ID] = 2

	current, err := f.svc.Get(ctx, created.ID)
	require.NoError(t, err)

	updated, err := f.svc.Update(ctx, created.ID, model.UpdateTitleRequest{
		CopiesTotal: intPtr(5),
		Version:     current.Version,
	})
	require.NoError(t, err)
	assert.Equal(t, 5, updated.CopiesTotal)
	assert.Equal(t, 3, updated.CopiesAvailable)
	assert.Equal(t, current.Version+1, updated.Version)
	assert.Contains(t, f.pub.names(), realtime.EventAvailability)

	_, err = f.svc.Update(ctx, created.ID, model.UpdateTitleRequest{
		CopiesTotal: intPtr(1),
		Version:     updated.Version,
	})
	assert.ErrorIs(t, err, model.ErrCopiesBelowOnLoan)

	_, err = f.svc.Update(ctx, created.ID, model.UpdateTitleRequest{
		CopiesAvailable: intPtr(5),
		Version:         updated.Version,
	})
	assert.ErrorIs(t, err, model.ErrCopiesBelowOnLoan)
}

func Test_TitleService_UpdateStaleVersion(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	created, err := f.svc.Create(ctx, model.CreateTitleRequest{
		ISBN: "9780000000003", Name: "Hyperion", Author: "Dan Simmons", CopiesTotal: 1,
	})
	require.NoError(t, err)

	name := "Hyperion (2nd ed.)"
	_, err = f.svc.Update(ctx, created.ID, model.UpdateTitleRequest{Name: &name, Version: created.Version + 3})
	assert.ErrorIs(t, err, model.ErrOptimisticLockFailed)

	_, err = f.svc.Update(ctx, uuid.New(), model.UpdateTitleRequest{Name: &name, Version: 1})
	assert.ErrorIs(t, err, model.ErrTitleNotFound)
}

func Test_TitleService_DeleteGuard(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	created, err := f.svc.Create(ctx, model.CreateTitleRequest{
		ISBN: "9780000000004", Name: "Solaris", Author: "Stanislaw Lem", CopiesTotal: 1,
	})
	require.NoError(t, err)

	f.counter.active[created.ID] = 1
	assert.ErrorIs(t, f.svc.Delete(ctx, created.ID), model.ErrTitleHasActiveLoans)

	f.counter.active[created.ID] = 0
	require.NoError(t, f.svc.Delete(ctx, created.ID))
	assert.Equal(t, realtime.EventTitleDeleted, f.pub.names()[len(f.pub.names())-1])

	_, err = f.svc.Get(ctx, created.ID)
	assert.ErrorIs(t, err, model.ErrTitleNotFound)
}

func Test_CreateTitleRequest_Validate(t *testing.T) {
	valid := model.CreateTitleRequest{ISBN: "9780000000005", Name: "n", Author: "a", CopiesTotal: 2}
	assert.NoError(t, valid.Validate())

	missing := model.CreateTitleRequest{CopiesTotal: 1}
	assert.Error(t, missing.Validate())

	negative := valid
	negative.CopiesTotal = -1
	assert.Error(t, negative.Validate())

	tooMany := valid
	tooMany.CopiesAvailable = intPtr(3)
	assert.Error(t, tooMany.Validate())
}
