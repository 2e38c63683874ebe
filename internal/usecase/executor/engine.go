package executor

import (
	"context"
	"encoding/base64"
	"fmt"
	"time"
	"unicode/utf8"

	"pa-agent/internal/adapter/tool"
	"pa-agent/internal/application/port/output"
	"pa-agent/internal/application/service"
	"pa-agent/internal/domain/entity"
)

var _ output.Engine = (*Engine)(nil)

const (
	defaultMaxIterations = 50
	maxObservationLen    = 20000
	// keepRecentMessages bounds the history sent per step; the system prompt
	// and the task are always kept.
	keepRecentMessages = 40
	// maxTextReplies is how many replies in a row may carry no tool call
	// before the run is abandoned.
	maxTextReplies = 3

	continuePrompt = "No tool was called. Continue the task with the available tools, " +
		"or call done with success and your final result when the task is finished."
)

type Config struct {
	SystemPrompt string
	// Vision attaches a screenshot of the page after every step.
	Vision  bool
	MaxWait time.Duration
}

type Engine struct {
	llm    output.LLMPort
	logger output.LoggerPort
	cfg    Config
}

func New(llm output.LLMPort, logger output.LoggerPort, cfg Config) *Engine {
	return &Engine{llm: llm, logger: logger, cfg: cfg}
}

func (e *Engine) tools(req output.EngineRequest) *service.ToolSet {
	set := service.NewToolSet(tool.BrowserTools(req.Browser, e.logger)...)
	if req.Actions != nil {
		set.Add(tool.ActionTools(req.Actions)...)
	}
	set.Add(tool.NewWaitTool(e.cfg.MaxWait), tool.DoneTool{})
	return set
}

// Run drives the model until it calls done or runs out of iterations. Tool
// failures are fed back as observations.
func (e *Engine) Run(ctx context.Context, req output.EngineRequest) (*output.EngineResult, error) {
	if req.Browser == nil {
		return nil, &entity.EngineError{Reason: "no browser session"}
	}
	maxIterations := req.MaxIterations
	if maxIterations <= 0 {
		maxIterations = defaultMaxIterations
	}

	registry := e.tools(req)
	toolDefs := registry.Definitions()
	var usage entity.TokenUsage
	textReplies := 0

	messages := []entity.Message{
		{Role: entity.RoleSystem, Content: e.cfg.SystemPrompt},
		{Role: entity.RoleUser, Content: req.Task},
	}

	for iteration := 1; iteration <= maxIterations; iteration++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		e.logger.Debug("Starting iteration", "iteration", iteration)

		resp, err := e.llm.Chat(ctx, output.ChatRequest{
			Messages:    trimHistory(messages, keepRecentMessages),
			Tools:       toolDefs,
			Temperature: 0.0,
		})
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, &entity.EngineError{Reason: "llm request failed", Err: err}
		}

		messages = append(messages, resp.Message)
		usage = usage.Add(resp.Usage)

		// Only done ends a run; a bare text reply is answered with a nudge.
		if len(resp.Message.ToolCalls) == 0 {
			textReplies++
			if textReplies >= maxTextReplies {
				return nil, &entity.EngineError{Reason: fmt.Sprintf("no tool call in %d consecutive replies", textReplies)}
			}
			e.logger.Warn("Reply without tool call", "iteration", iteration)
			messages = append(messages, entity.Message{Role: entity.RoleUser, Content: continuePrompt})
			continue
		}
		textReplies = 0

		for _, tc := range resp.Message.ToolCalls {
			if tc.Name == entity.ToolDone {
				return e.finish(tc, iteration, usage)
			}

			observation := e.executeTool(ctx, registry, tc)
			messages = append(messages, entity.Message{
				Role:       entity.RoleTool,
				ToolCallID: tc.ID,
				Name:       tc.Name.String(),
				Content:    observation,
			})
		}

		if e.cfg.Vision {
			messages = e.attachScreenshot(ctx, req.Browser, messages)
		}
	}

	return nil, &entity.EngineError{Reason: fmt.Sprintf("max iterations (%d) exceeded", maxIterations)}
}

func (e *Engine) finish(tc entity.ToolCall, iteration int, usage entity.TokenUsage) (*output.EngineResult, error) {
	done, err := tool.ParseDone(tc.Arguments)
	if err != nil {
		return nil, &entity.EngineError{Reason: "malformed done call", Err: err}
	}
	if !done.Success {
		e.logger.Warn("Agent reported failure", "text", done.Text)
		return nil, &entity.EngineError{Reason: "agent reported failure: " + done.Text}
	}
	e.logger.Info("Agent finished", "iterations", iteration, "totalTokens", usage.Total())
	return &output.EngineResult{FinalAnswer: done.Text, Iterations: iteration, Usage: usage}, nil
}

func (e *Engine) executeTool(ctx context.Context, registry output.ToolSet, tc entity.ToolCall) string {
	t, ok := registry.Lookup(tc.Name)
	if !ok {
		e.logger.Warn("Unknown tool called", "name", tc.Name)
		return fmt.Sprintf("Error: unknown tool '%s'", tc.Name)
	}

	// Arguments are not logged: fill carries credentials.
	e.logger.Info("Executing tool", "name", tc.Name)

	result, err := t.Execute(ctx, tc.Arguments)
	if err != nil {
		e.logger.Warn("Tool execution failed", "name", tc.Name, "error", err)
		return "Error: " + err.Error()
	}

	if len(result) > maxObservationLen {
		result = truncateUTF8(result, maxObservationLen) + "\n... (truncated)"
	}

	e.logger.Debug("Tool completed", "name", tc.Name, "resultLen", len(result))
	return result
}

// attachScreenshot adds the current page as an image message. Earlier
// screenshots are dropped so only one image is ever in flight.
func (e *Engine) attachScreenshot(ctx context.Context, browser output.BrowserPort, messages []entity.Message) []entity.Message {
	shot, err := browser.Screenshot(ctx)
	if err != nil {
		e.logger.Debug("Screenshot skipped", "error", err)
		return messages
	}

	for i := range messages {
		messages[i].Images = nil
	}
	url := fmt.Sprintf("data:image/%s;base64,%s", shot.Format, base64.StdEncoding.EncodeToString(shot.Data))
	return append(messages, entity.Message{
		Role:    entity.RoleUser,
		Content: "Screenshot of the current page.",
		Images:  []string{url},
	})
}

// trimHistory keeps the first two messages and the last keep messages,
// never starting the tail with tool results whose call was cut off.
func trimHistory(messages []entity.Message, keep int) []entity.Message {
	if len(messages) <= 2+keep {
		return messages
	}
	start := len(messages) - keep
	for start < len(messages) && messages[start].Role == entity.RoleTool {
		start++
	}
	out := make([]entity.Message, 0, 2+len(messages)-start)
	out = append(out, messages[:2]...)
	return append(out, messages[start:]...)
}

// truncateUTF8 cuts s to at most n bytes without splitting a rune.
func truncateUTF8(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
