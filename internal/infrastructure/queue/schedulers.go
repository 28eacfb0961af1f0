package queue

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"

	"library-backend/internal/shared"
	"library-backend/pkg/logger"
)

type Scheduler struct {
	scheduler     *asynq.Scheduler
	reconcileCron string
	reportLimit   int
}

func NewScheduler(redisOpt asynq.RedisClientOpt, reconcileCron string, reportLimit int) *Scheduler {
	scheduler := asynq.NewScheduler(
		redisOpt,
		&asynq.SchedulerOpts{
			Location: time.UTC,
			LogLevel: asynq.InfoLevel,
		},
	)

	return &Scheduler{
		scheduler:     scheduler,
		reconcileCron: reconcileCron,
		reportLimit:   reportLimit,
	}
}

func (s *Scheduler) RegisterJobs() error {
	return s.registerReconcileInventoryJob()
}

// registerReconcileInventoryJob compares on-loan counts with active loans.
// It only reports; nothing is repaired automatically.
func (s *Scheduler) registerReconcileInventoryJob() error {
	payload, err := json.Marshal(shared.ReconcilePayload{Limit: s.reportLimit})
	if err != nil {
		return err
	}

	task := asynq.NewTask(shared.TypeReconcileInventory, payload)

	_, err = s.scheduler.Register(
		s.reconcileCron,
		task,
		asynq.Queue(shared.QueueMaintenance),
		asynq.MaxRetry(1),
		asynq.Timeout(5*time.Minute),
	)
	if err != nil {
		logger.Error("Failed to register ReconcileInventory job", err)
		return err
	}

	logger.Info("Registered ReconcileInventory", map[string]interface{}{"cron": s.reconcileCron})
	return nil
}

func (s *Scheduler) Start() error {
	return s.scheduler.Start()
}

func (s *Scheduler) Shutdown() {
	s.scheduler.Shutdown()
}
