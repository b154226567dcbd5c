// internal/core/domain/sync.go
package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// SyncStatus is the lifecycle state of a sync run.
type SyncStatus string

const (
	SyncStatusRunning SyncStatus = "running"
	SyncStatusSuccess SyncStatus = "success"
	SyncStatusPartial SyncStatus = "partial"
	SyncStatusFailed  SyncStatus = "failed"
)

// AllLocations labels an outcome that covers every requested location of an item.
const AllLocations = "all"

// EmptyInventoryMessage explains a run where the warehouse reported nothing.
const EmptyInventoryMessage = "warehouse returned no inventory; check the warehouse endpoint and location configuration"

// SyncOutcome is the immutable result of reconciling one (item, location) pair.
type SyncOutcome struct {
	SKU              string `json:"sku"`
	Location         string `json:"location"`
	Success          bool   `json:"success"`
	Skipped          bool   `json:"skipped"`
	PreviousQuantity *int   `json:"previous_quantity,omitempty"`
	NewQuantity      *int   `json:"new_quantity,omitempty"`
	Delta            *int   `json:"delta,omitempty"`
	WasActivated     bool   `json:"was_activated,omitempty"`
	Error            string `json:"error,omitempty"`
	Message          string `json:"message"`
}

// Updated reports whether the outcome changed stock on the commerce platform.
func (o SyncOutcome) Updated() bool {
	return o.Success && !o.Skipped
}

// ItemError is an unexpected, item-level failure caught by the aggregator.
type ItemError struct {
	SKU   string `json:"sku"`
	Error string `json:"error"`
}

// SyncRunSummary is derived by folding over all outcomes of one run.
type SyncRunSummary struct {
	RunID            uuid.UUID     `json:"run_id"`
	Shop             string        `json:"shop"`
	Status           SyncStatus    `json:"status"`
	TotalItems       int           `json:"total_items"`
	SuccessCount     int           `json:"success_count"`
	FailedCount      int           `json:"failed_count"`
	SkippedCount     int           `json:"skipped_count"`
	UnmatchedCount   int           `json:"unmatched_count"`
	LocationFailures int           `json:"location_failures"`
	TotalLocationOps int           `json:"total_location_ops"`
	Duration         time.Duration `json:"-"`
	DurationMs       int64         `json:"duration_ms"`
	StartedAt        time.Time     `json:"started_at"`
	CompletedAt      time.Time     `json:"completed_at"`
	Message          string        `json:"message,omitempty"`
}

// SyncResult is what both the manual trigger and the scheduler receive.
type SyncResult struct {
	Summary  SyncRunSummary `json:"summary"`
	Outcomes []SyncOutcome  `json:"outcomes"`
	Errors   []ItemError    `json:"errors"`
}

// Summarize folds the outcomes and item errors of a run into a summary.
// emptyInventory marks a run where the warehouse reported no items.
func Summarize(totalItems int, outcomes []SyncOutcome, itemErrors []ItemError, startedAt, completedAt time.Time, emptyInventory bool) SyncRunSummary {
	s := SyncRunSummary{
		TotalItems:       totalItems,
		FailedCount:      len(itemErrors),
		TotalLocationOps: len(outcomes),
		StartedAt:        startedAt,
		CompletedAt:      completedAt,
		Duration:         completedAt.Sub(startedAt),
	}
	s.DurationMs = s.Duration.Milliseconds()

	for _, o := range outcomes {
		switch {
		case o.Updated():
			s.SuccessCount++
		case o.Skipped:
			s.SkippedCount++
			if !o.Success {
				s.UnmatchedCount++
			}
		default:
			s.LocationFailures++
		}
	}

	s.Status = DeriveStatus(len(itemErrors), s.SuccessCount, emptyInventory)
	if emptyInventory {
		s.Message = EmptyInventoryMessage
	}
	return s
}

// DeriveStatus applies the run status rules: failed when hard errors occurred
// and nothing was updated, partial when hard errors occurred alongside updates
// or the warehouse reported nothing, success otherwise.
func DeriveStatus(hardErrors, updates int, emptyInventory bool) SyncStatus {
	switch {
	case hardErrors > 0 && updates == 0:
		return SyncStatusFailed
	case hardErrors > 0, emptyInventory:
		return SyncStatusPartial
	default:
		return SyncStatusSuccess
	}
}

// SyncLogEntry is the durable record of a run.
type SyncLogEntry struct {
	ID           uuid.UUID       `json:"id"`
	Shop         string          `json:"shop"`
	Status       SyncStatus      `json:"status"`
	Trigger      string          `json:"trigger"`
	TotalItems   int             `json:"total_items"`
	SuccessCount int             `json:"success_count"`
	FailedCount  int             `json:"failed_count"`
	SkippedCount int             `json:"skipped_count"`
	DurationMs   int64           `json:"duration_ms"`
	Summary      json.RawMessage `json:"summary,omitempty"`
	Error        string          `json:"error,omitempty"`
	StartedAt    time.Time       `json:"started_at"`
	CompletedAt  *time.Time      `json:"completed_at,omitempty"`
}

// ShopSession is the persisted admin session of an installed shop.
type ShopSession struct {
	Shop        string    `json:"shop"`
	AccessToken string    `json:"-"`
	Scope       string    `json:"scope"`
	IsActive    bool      `json:"is_active"`
	InstalledAt time.Time `json:"installed_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Trigger sources recorded in the run log.
const (
	TriggerManual    = "manual"
	TriggerScheduled = "scheduled"
)

// IntPtr returns a pointer to v.
func IntPtr(v int) *int {
	return &v
}
