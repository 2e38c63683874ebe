package input

import (
	"context"
	"time"

	"pa-agent/internal/domain/entity"
)

type TrackRequest struct {
	TrackingID string
	Interval   time.Duration
}

type TrackStarted struct {
	RequestID  string
	TrackingID string
	Interval   time.Duration
}

type Tracker interface {
	Start(ctx context.Context, req TrackRequest) (*TrackStarted, error)
	Status(requestID string) (entity.TrackingRequest, bool)
	Active() []entity.TrackingRequest
	Cancel(requestID string) error
}
