package openaichat

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"pa-agent/internal/application/port/output"
	"pa-agent/internal/domain/entity"

	"github.com/sashabaranov/go-openai"
)

var _ output.LLMPort = (*Adapter)(nil)

var ErrNoChoices = errors.New("no choices in response")

const defaultAzureAPIVersion = "2024-10-21"

type Config struct {
	APIKey  string
	Model   string
	BaseURL string

	// AzureEndpoint switches the client to Azure OpenAI. The model name is
	// used as the deployment name.
	AzureEndpoint   string
	AzureAPIVersion string

	HTTPClient *http.Client
	Logger     output.LoggerPort
}

type Adapter struct {
	client *openai.Client
	model  string
	logger output.LoggerPort
}

type loggingTransport struct {
	base   http.RoundTripper
	logger output.LoggerPort
}

// RoundTrip logs request metadata only; bodies carry portal credentials and
// case data.
func (t *loggingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	var size int
	if req.Body != nil {
		body, err := io.ReadAll(req.Body)
		if err != nil {
			return nil, err
		}
		size = len(body)
		req.Body = io.NopCloser(bytes.NewReader(body))
	}

	t.logger.Debug("LLM request", "method", req.Method, "path", req.URL.Path, "bytes", size)

	resp, err := t.base.RoundTrip(req)
	if err != nil {
		t.logger.Warn("LLM request failed", "error", err)
		return nil, err
	}

	t.logger.Debug("LLM response", "status", resp.StatusCode)
	return resp, nil
}

func New(cfg Config) *Adapter {
	var config openai.ClientConfig
	if cfg.AzureEndpoint != "" {
		config = openai.DefaultAzureConfig(cfg.APIKey, cfg.AzureEndpoint)
		config.APIVersion = defaultAzureAPIVersion
		if cfg.AzureAPIVersion != "" {
			config.APIVersion = cfg.AzureAPIVersion
		}
		config.AzureModelMapperFunc = func(model string) string { return model }
	} else {
		config = openai.DefaultConfig(cfg.APIKey)
		if cfg.BaseURL != "" {
			config.BaseURL = cfg.BaseURL
		}
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	if cfg.Logger != nil {
		base := httpClient.Transport
		if base == nil {
			base = http.DefaultTransport
		}
		wrapped := *httpClient
		wrapped.Transport = &loggingTransport{base: base, logger: cfg.Logger}
		httpClient = &wrapped
	}
	config.HTTPClient = httpClient

	return &Adapter{
		client: openai.NewClientWithConfig(config),
		model:  cfg.Model,
		logger: cfg.Logger,
	}
}

func (a *Adapter) Chat(ctx context.Context, req output.ChatRequest) (*output.ChatResponse, error) {
	resp, err := a.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       a.model,
		Messages:    convertMessages(req.Messages),
		Tools:       convertTools(req.Tools),
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("chat completion failed: %w", err)
	}

	if len(resp.Choices) == 0 {
		return nil, ErrNoChoices
	}

	if a.logger != nil {
		a.logger.Debug("LLM usage",
			"promptTokens", resp.Usage.PromptTokens,
			"completionTokens", resp.Usage.CompletionTokens,
			"finishReason", resp.Choices[0].FinishReason)
	}

	return &output.ChatResponse{
		Message: convertResponseMessage(resp.Choices[0].Message),
		Usage: entity.TokenUsage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
		},
		FinishReason: string(resp.Choices[0].FinishReason),
	}, nil
}

func convertMessages(messages []entity.Message) []openai.ChatCompletionMessage {
	result := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, msg := range messages {
		oaiMsg := openai.ChatCompletionMessage{
			Role:       string(msg.Role),
			ToolCallID: msg.ToolCallID,
			Name:       msg.Name,
		}

		// Content and MultiContent are mutually exclusive in the request.
		if len(msg.Images) > 0 {
			parts := []openai.ChatMessagePart{{
				Type: openai.ChatMessagePartTypeText,
				Text: msg.Content,
			}}
			for _, img := range msg.Images {
				parts = append(parts, openai.ChatMessagePart{
					Type: openai.ChatMessagePartTypeImageURL,
					ImageURL: &openai.ChatMessageImageURL{
						URL:    img,
						Detail: openai.ImageURLDetailLow,
					},
				})
			}
			oaiMsg.MultiContent = parts
		} else {
			oaiMsg.Content = msg.Content
		}

		for _, tc := range msg.ToolCalls {
			oaiMsg.ToolCalls = append(oaiMsg.ToolCalls, openai.ToolCall{
				ID:   tc.ID,
				Type: openai.ToolTypeFunction,
				Function: openai.FunctionCall{
					Name:      tc.Name.String(),
					Arguments: tc.Arguments,
				},
			})
		}

		result = append(result, oaiMsg)
	}
	return result
}

func convertTools(tools []entity.ToolDefinition) []openai.Tool {
	if len(tools) == 0 {
		return nil
	}
	result := make([]openai.Tool, 0, len(tools))
	for _, t := range tools {
		params := t.Parameters
		if params == nil {
			params = map[string]any{"type": "object", "properties": map[string]any{}}
		}
		raw, _ := json.Marshal(params)
		result = append(result, openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        t.Name.String(),
				Description: t.Description,
				Parameters:  json.RawMessage(raw),
			},
		})
	}
	return result
}

func convertResponseMessage(msg openai.ChatCompletionMessage) entity.Message {
	result := entity.Message{
		Role:    entity.MessageRole(msg.Role),
		Content: msg.Content,
	}

	for _, tc := range msg.ToolCalls {
		result.ToolCalls = append(result.ToolCalls, entity.ToolCall{
			ID:        tc.ID,
			Name:      entity.ToolName(tc.Function.Name),
			Arguments: tc.Function.Arguments,
		})
	}

	return result
}
