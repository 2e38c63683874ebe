package entity

import "time"

type TaskStatus string

const (
	TaskStatusPending   TaskStatus = "pending"
	TaskStatusRunning   TaskStatus = "running"
	TaskStatusCompleted TaskStatus = "completed"
	TaskStatusFailed    TaskStatus = "failed"
)

func (s TaskStatus) Terminal() bool {
	return s == TaskStatusCompleted || s == TaskStatusFailed
}

// TrackingRequest is one live watch on a PA case's approval status.
type TrackingRequest struct {
	RequestID  string        `json:"request_id"`
	TrackingID string        `json:"tracking_id"`
	Interval   time.Duration `json:"-"`
	Status     TaskStatus    `json:"status"`
	StartedAt  time.Time     `json:"started_at"`
	FinishedAt *time.Time    `json:"finished_at,omitempty"`
	Error      string        `json:"error,omitempty"`
}

// RunState is a state of the form-fill or tracker controller.
type RunState string

const (
	RunStateInit         RunState = "init"
	RunStateDataMerged   RunState = "data_merged"
	RunStatePromptBuilt  RunState = "prompt_built"
	RunStateAgentRunning RunState = "agent_running"
	RunStateCompleted    RunState = "completed"
	RunStateApproved     RunState = "approved"
	RunStateCancelled    RunState = "cancelled"
	RunStateFailed       RunState = "failed"
)

func (s RunState) Terminal() bool {
	switch s {
	case RunStateCompleted, RunStateApproved, RunStateCancelled, RunStateFailed:
		return true
	}
	return false
}

type LedgerEntry struct {
	Timestamp time.Time `json:"timestamp"`
	Action    string    `json:"action"`
	Detail    string    `json:"detail,omitempty"`
}
