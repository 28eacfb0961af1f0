package job

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/rs/zerolog/log"

	"library-backend/internal/domains/title/model"
	"library-backend/internal/shared"
	"library-backend/pkg/cache"
)

// AvailabilitySnapshot is what the worker stores under shared.AvailabilityCacheKey
type AvailabilitySnapshot struct {
	TitleID         uuid.UUID `json:"title_id"`
	CopiesTotal     int       `json:"copies_total"`
	CopiesAvailable int       `json:"copies_available"`
	Version         int       `json:"version"`
	SyncedAt        time.Time `json:"synced_at"`
}

type titleReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.Title, error)
}

// AvailabilitySyncHandler refreshes the cached availability of one title
type AvailabilitySyncHandler struct {
	titles titleReader
	cache  cache.Cache
	ttl    time.Duration
}

func NewAvailabilitySyncHandler(titles titleReader, c cache.Cache, ttl time.Duration) *AvailabilitySyncHandler {
	return &AvailabilitySyncHandler{titles: titles, cache: c, ttl: ttl}
}

func (h *AvailabilitySyncHandler) ProcessTask(ctx context.Context, task *asynq.Task) error {
	var payload shared.AvailabilitySyncPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		log.Error().Err(err).Msg("Failed to unmarshal AvailabilitySync payload")
		return fmt.Errorf("unmarshal payload: %v: %w", err, asynq.SkipRetry)
	}
	if payload.TitleID == uuid.Nil {
		return fmt.Errorf("missing title_id: %w", asynq.SkipRetry)
	}

	key := shared.AvailabilityCacheKey(payload.TitleID)

	title, err := h.titles.GetByID(ctx, payload.TitleID)
	if err != nil {
		if model.IsNotFoundError(err) {
			log.Info().
				Str("title_id", payload.TitleID.String()).
				Str("source", payload.Source).
				Msg("Title gone, dropping cached availability")
			return h.cache.Delete(ctx, key)
		}
		return fmt.Errorf("load title: %w", err)
	}

	snapshot := AvailabilitySnapshot{
		TitleID:         title.ID,
		CopiesTotal:     title.CopiesTotal,
		CopiesAvailable: title.CopiesAvailable,
		Version:         title.Version,
		SyncedAt:        time.Now().UTC(),
	}

	// an older task may land after a newer one; keep the higher version
	var cached AvailabilitySnapshot
	found, err := h.cache.Get(ctx, key, &cached)
	if err != nil {
		log.Warn().Err(err).Str("key", key).Msg("Cache read failed, overwriting")
	} else if found && cached.Version > snapshot.Version {
		log.Debug().Str("title_id", title.ID.String()).Msg("Cached availability is newer, skipping")
		return nil
	}

	if err := h.cache.Set(ctx, key, snapshot, h.ttl); err != nil {
		return fmt.Errorf("write cache: %w", err)
	}

	log.Debug().
		Str("title_id", title.ID.String()).
		Str("source", payload.Source).
		Int("copies_available", title.CopiesAvailable).
		Msg("Availability synced")

	return nil
}
