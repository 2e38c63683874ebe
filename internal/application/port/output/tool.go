package output

import (
	"context"

	"pa-agent/internal/domain/entity"
)

// ToolPort is one operation the model may call. Execute receives the raw
// JSON arguments; a returned error becomes the observation for that call.
type ToolPort interface {
	Name() entity.ToolName
	Description() string
	Parameters() map[string]any
	Execute(ctx context.Context, arguments string) (string, error)
}

// ToolSet is the per-run catalogue offered to the model.
type ToolSet interface {
	Lookup(name entity.ToolName) (ToolPort, bool)
	Definitions() []entity.ToolDefinition
	Len() int
}
