package output

import (
	"context"

	"pa-agent/internal/domain/entity"
)

type EngineRequest struct {
	Task    string
	Browser BrowserPort
	// Actions is optional; when set its operations are offered to the model.
	Actions       FileActions
	MaxIterations int
}

type EngineResult struct {
	FinalAnswer string
	Iterations  int
	Usage       entity.TokenUsage
}

// Engine runs one goal-directed browser task to completion. Any returned
// error is unrecoverable for the run.
type Engine interface {
	Run(ctx context.Context, req EngineRequest) (*EngineResult, error)
}
