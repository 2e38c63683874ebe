package httpapi

import (
	"time"

	"pa-agent/internal/domain/entity"
)

type submitFormRequest struct {
	AccountID  string         `json:"account_id,omitempty"`
	CustomData map[string]any `json:"custom_data,omitempty"`
}

type startTrackingRequest struct {
	CustomTrackingID string `json:"custom_tracking_id,omitempty"`
	// CustomInterval is in seconds.
	CustomInterval float64 `json:"custom_interval,omitempty"`
}

type envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

type errorResponse struct {
	Success bool     `json:"success"`
	Error   string   `json:"error"`
	Missing []string `json:"missing,omitempty"`
}

type trackingStatus struct {
	RequestID       string     `json:"request_id"`
	TrackingID      string     `json:"tracking_id"`
	IntervalSeconds int        `json:"interval_seconds"`
	Status          string     `json:"status"`
	StartedAt       time.Time  `json:"started_at"`
	FinishedAt      *time.Time `json:"finished_at,omitempty"`
	Error           string     `json:"error,omitempty"`
}

func toTrackingStatus(r entity.TrackingRequest) trackingStatus {
	return trackingStatus{
		RequestID:       r.RequestID,
		TrackingID:      r.TrackingID,
		IntervalSeconds: int(r.Interval / time.Second),
		Status:          string(r.Status),
		StartedAt:       r.StartedAt,
		FinishedAt:      r.FinishedAt,
		Error:           r.Error,
	}
}

type ledgerEntry struct {
	Timestamp string `json:"timestamp"`
	Action    string `json:"action"`
	Detail    string `json:"detail,omitempty"`
}
