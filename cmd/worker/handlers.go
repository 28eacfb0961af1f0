package main

import (
	"github.com/hibiken/asynq"

	loanJob "library-backend/internal/domains/loan/job"
	titleJob "library-backend/internal/domains/title/job"
	"library-backend/internal/shared"
	"library-backend/pkg/container"
)

// HandlerRegistry holds all job handlers
type HandlerRegistry struct {
	availabilitySync *titleJob.AvailabilitySyncHandler
	reconcile        *loanJob.ReconcileHandler
}

func initializeHandlers(c *container.Container) *HandlerRegistry {
	return &HandlerRegistry{
		availabilitySync: titleJob.NewAvailabilitySyncHandler(c.TitleRepo, c.Cache, c.Config.Worker.CacheTTL),
		reconcile:        loanJob.NewReconcileHandler(c.TitleRepo, c.LoanRepo),
	}
}

// RegisterHandlers registers all handlers with the mux
func (h *HandlerRegistry) RegisterHandlers(mux *asynq.ServeMux) {
	mux.HandleFunc(shared.TypeAvailabilitySync, h.availabilitySync.ProcessTask)
	mux.HandleFunc(shared.TypeReconcileInventory, h.reconcile.ProcessTask)
}
