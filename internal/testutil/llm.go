package testutil

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"

	"pa-agent/internal/application/port/output"
	"pa-agent/internal/domain/entity"
)

var _ output.LLMPort = (*ScriptedLLM)(nil)

// ScriptedLLM replays canned assistant messages in order. Once the script
// runs out it keeps returning Fallback, or a plain text reply when unset.
type ScriptedLLM struct {
	mu       sync.Mutex
	Script   []entity.Message
	Fallback *entity.Message
	Err      error
	// Usage is reported on every response.
	Usage    entity.TokenUsage
	Requests []output.ChatRequest
}

func (l *ScriptedLLM) Chat(ctx context.Context, req output.ChatRequest) (*output.ChatResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	msgs := append([]entity.Message(nil), req.Messages...)
	req.Messages = msgs
	l.Requests = append(l.Requests, req)

	if l.Err != nil {
		return nil, l.Err
	}
	if len(l.Script) > 0 {
		msg := l.Script[0]
		l.Script = l.Script[1:]
		return &output.ChatResponse{Message: msg, Usage: l.Usage}, nil
	}
	if l.Fallback != nil {
		return &output.ChatResponse{Message: *l.Fallback, Usage: l.Usage}, nil
	}
	return &output.ChatResponse{
		Message: entity.Message{Role: entity.RoleAssistant, Content: "nothing left to do"},
		Usage:   l.Usage,
	}, nil
}

func (l *ScriptedLLM) Calls() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.Requests)
}

// LastRequest returns the most recent request; ok is false before any call.
func (l *ScriptedLLM) LastRequest() (output.ChatRequest, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.Requests) == 0 {
		return output.ChatRequest{}, false
	}
	return l.Requests[len(l.Requests)-1], true
}

var callSeq atomic.Int64

// Call builds an assistant message requesting a single tool call.
func Call(name entity.ToolName, args map[string]any) entity.Message {
	raw, _ := json.Marshal(args)
	if args == nil {
		raw = []byte("{}")
	}
	id := callSeq.Add(1)
	return entity.Message{
		Role: entity.RoleAssistant,
		ToolCalls: []entity.ToolCall{{
			ID:        fmt.Sprintf("call_%d", id),
			Name:      name,
			Arguments: string(raw),
		}},
	}
}

func Done(success bool, text string) entity.Message {
	return Call(entity.ToolDone, map[string]any{"success": success, "text": text})
}
