package pipeline

import "time"

type RunStatus string

const (
	StatusRunning   RunStatus = "running"
	StatusCompleted RunStatus = "completed"
	StatusFailed    RunStatus = "failed"
)

type Trigger string

const (
	TriggerManual Trigger = "manual"
	TriggerAPI    Trigger = "api"
)

// RunCounts accumulates per-stage totals for one pipeline run.
type RunCounts struct {
	Listed     int
	Downloaded int
	Processed  int
	Summarized int
	Failed     int
}

// Run is the bookkeeping row for one end-to-end pipeline execution.
type Run struct {
	RunID        string
	Trigger      Trigger
	Status       RunStatus
	TargetDate   time.Time
	Counts       RunCounts
	ErrorMessage string
	StartedAt    time.Time
	FinishedAt   *time.Time
}
