package constants

// TaskName identifies one of the long-running workflows.
type TaskName string

const (
	TaskIngest    TaskName = "ingest"
	TaskOptimize  TaskName = "optimize"
	TaskCalculate TaskName = "calculate"
)

// TaskStatus is the progress status stored in the progress document.
type TaskStatus string

// Stable values (store these exact strings).
const (
	TaskStatusIdle    TaskStatus = "idle"
	TaskStatusRunning TaskStatus = "running"
	TaskStatusSuccess TaskStatus = "success"
	TaskStatusError   TaskStatus = "error"
)

// LogStatus is the status of a single task log entry.
type LogStatus string

const (
	LogStart   LogStatus = "start"
	LogSuccess LogStatus = "success"
	LogError   LogStatus = "error"
)

// MaxTaskLogEntries bounds the persisted task log.
const MaxTaskLogEntries = 100
