package dto

import "time"

type AppendLogRequest struct {
	Step   string `json:"step" binding:"required"`
	Status string `json:"status" binding:"required,oneof=started succeeded failed"`
	Detail string `json:"detail"`
}

type LogEntryResponse struct {
	ID          int64     `json:"id"`
	WorkspaceID string    `json:"workspace_id"`
	Step        string    `json:"step"`
	Status      string    `json:"status"`
	Detail      string    `json:"detail,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

type ListLogsResponse struct {
	Logs  []LogEntryResponse `json:"logs"`
	Count int                `json:"count"`
}
