package entity

type MessageRole string

const (
	RoleSystem    MessageRole = "system"
	RoleUser      MessageRole = "user"
	RoleAssistant MessageRole = "assistant"
	RoleTool      MessageRole = "tool"
)

// Message is one turn of an agent conversation. Tool messages answer the
// assistant call named by ToolCallID.
type Message struct {
	Role       MessageRole
	Content    string
	ToolCalls  []ToolCall
	ToolCallID string
	Name       string
	// Images are data URLs attached to a user message for vision models.
	Images []string
}

type ToolCall struct {
	ID        string
	Name      ToolName
	Arguments string
}

type ToolDefinition struct {
	Name        ToolName
	Description string
	// Parameters is a JSON schema object.
	Parameters map[string]any
}

type TokenUsage struct {
	PromptTokens     int
	CompletionTokens int
}

func (u TokenUsage) Add(o TokenUsage) TokenUsage {
	return TokenUsage{
		PromptTokens:     u.PromptTokens + o.PromptTokens,
		CompletionTokens: u.CompletionTokens + o.CompletionTokens,
	}
}

func (u TokenUsage) Total() int {
	return u.PromptTokens + u.CompletionTokens
}
