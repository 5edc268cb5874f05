package model

import "time"

// RunStatus represents the current state of a sweep run.
type RunStatus string

const (
	RunStatusRunning  RunStatus = "running"
	RunStatusComplete RunStatus = "complete"
	RunStatusPartial  RunStatus = "partial"  // finished with per-point failures
	RunStatusAborted  RunStatus = "aborted"  // fail-fast or interrupted
	RunStatusFailed   RunStatus = "failed"
)

// Run is the bookkeeping record for one invocation of the parameter sweep.
type Run struct {
	ID         string     `json:"id" yaml:"id"`
	Status     RunStatus  `json:"status" yaml:"status"`
	Points     int        `json:"points" yaml:"points"`
	Succeeded  int        `json:"succeeded" yaml:"succeeded"`
	Failed     int        `json:"failed" yaml:"failed"`
	StartedAt  time.Time  `json:"started_at" yaml:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty" yaml:"finished_at,omitempty"`
}
