package provlog

import "time"

// Entry statuses mirror the orchestrator's step lifecycle.
const (
	StatusStarted   = "started"
	StatusSucceeded = "succeeded"
	StatusFailed    = "failed"
)

type Entry struct {
	ID          int64
	WorkspaceID string
	Step        string
	Status      string
	Detail      string
	Timestamp   time.Time
}
