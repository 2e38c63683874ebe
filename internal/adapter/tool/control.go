package tool

import (
	"context"
	"fmt"
	"time"

	"pa-agent/internal/domain/entity"
)

const DefaultMaxWait = 10 * time.Minute

type WaitTool struct {
	max   time.Duration
	sleep func(ctx context.Context, d time.Duration) error
}

// NewWaitTool returns a wait tool that refuses waits longer than max.
func NewWaitTool(max time.Duration) *WaitTool {
	if max <= 0 {
		max = DefaultMaxWait
	}
	return &WaitTool{max: max, sleep: sleepContext}
}

func (t *WaitTool) Name() entity.ToolName { return entity.ToolWait }
func (t *WaitTool) Description() string {
	return "Pauses for the given number of seconds before the next step"
}
func (t *WaitTool) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"seconds": map[string]any{
				"type":        "integer",
				"description": "Seconds to wait",
			},
		},
		"required": []string{"seconds"},
	}
}

func (t *WaitTool) Execute(ctx context.Context, args string) (string, error) {
	var input struct {
		Seconds float64 `json:"seconds"`
	}
	if err := decode(args, &input); err != nil {
		return "", err
	}
	if input.Seconds <= 0 {
		return "", fmt.Errorf("invalid arguments: seconds must be positive")
	}

	d := time.Duration(input.Seconds * float64(time.Second))
	if d > t.max {
		d = t.max
	}
	if err := t.sleep(ctx, d); err != nil {
		return "", err
	}
	return fmt.Sprintf("Waited %s", d), nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// DoneTool ends the run. The engine intercepts it before Execute.
type DoneTool struct{}

func (DoneTool) Name() entity.ToolName { return entity.ToolDone }
func (DoneTool) Description() string {
	return "Finishes the task. Set success=false only when the task cannot be completed."
}
func (DoneTool) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"success": map[string]any{
				"type":        "boolean",
				"description": "Whether the task was completed",
			},
			"text": map[string]any{
				"type":        "string",
				"description": "Final summary",
			},
		},
		"required": []string{"success", "text"},
	}
}

func (DoneTool) Execute(ctx context.Context, args string) (string, error) {
	d, err := ParseDone(args)
	if err != nil {
		return "", err
	}
	return d.Text, nil
}

type DoneSignal struct {
	Success bool
	Text    string
}

// ParseDone reads the done arguments. A missing success flag counts as
// success.
func ParseDone(args string) (DoneSignal, error) {
	var input struct {
		Success *bool  `json:"success"`
		Text    string `json:"text"`
	}
	if err := decode(args, &input); err != nil {
		return DoneSignal{}, err
	}
	sig := DoneSignal{Success: true, Text: input.Text}
	if input.Success != nil {
		sig.Success = *input.Success
	}
	return sig, nil
}
