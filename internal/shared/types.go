package shared

import "github.com/google/uuid"

// Task types
const (
	TypeAvailabilitySync   = "title:availability_sync"
	TypeReconcileInventory = "title:reconcile_inventory"
)

// Queues
const (
	QueueLedger      = "ledger"
	QueueMaintenance = "maintenance"
)

// AvailabilitySyncPayload asks the worker to refresh the cached availability of one title
type AvailabilitySyncPayload struct {
	TitleID uuid.UUID `json:"title_id"`
	Source  string    `json:"source"` // borrow, return, admin
}

// ReconcilePayload is the scheduled drift check
type ReconcilePayload struct {
	Limit int `json:"limit"`
}

// AvailabilityCacheKey is where the worker writes a title's availability snapshot
func AvailabilityCacheKey(titleID uuid.UUID) string {
	return "title:" + titleID.String() + ":availability"
}
