package input

import (
	"context"

	"pa-agent/internal/domain/entity"
)

type SubmitRequest struct {
	AccountID  string
	CustomData entity.CaseRecord
}

type SubmitAccepted struct {
	RequestID string
}

type FormSubmitter interface {
	Submit(ctx context.Context, req SubmitRequest) (*SubmitAccepted, error)
}
