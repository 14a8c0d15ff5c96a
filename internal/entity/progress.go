package entity

import (
	"time"

	"github.com/kozichsergey/SmetaAI/constants"
)

// ProgressState is the persisted state of the current or last long-running task.
type ProgressState struct {
	IsRunning       bool                 `json:"is_running"`
	CurrentTask     constants.TaskName   `json:"current_task,omitempty"`
	Status          constants.TaskStatus `json:"status"`
	Message         string               `json:"message"`
	ProgressPercent int                  `json:"progress_percent"`
	StartTime       *time.Time           `json:"start_time,omitempty"`
	LastUpdate      *time.Time           `json:"last_update,omitempty"`
}

// IdleProgress is the state before any task ran or after a reset.
func IdleProgress() ProgressState {
	return ProgressState{Status: constants.TaskStatusIdle, Message: "Ready"}
}

// TaskLogEntry is one line of the persisted task log.
type TaskLogEntry struct {
	Timestamp time.Time           `json:"timestamp"`
	TaskName  constants.TaskName  `json:"task_name"`
	Status    constants.LogStatus `json:"status"`
	Message   string              `json:"message"`
}

// SystemStatus is the aggregate view returned by the status operation.
type SystemStatus struct {
	Progress       ProgressState `json:"progress"`
	InputFiles     int           `json:"input_files"`
	RawRecords     int           `json:"raw_records"`
	ProcessedFiles int           `json:"processed_files"`
	CatalogEntries int           `json:"catalog_entries"`
	AIEnabled      bool          `json:"ai_enabled"`
}
