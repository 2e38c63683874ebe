package tool

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"pa-agent/internal/application/port/output"
	"pa-agent/internal/domain/entity"
	"pa-agent/internal/infrastructure/browser/pagetext"
)

const maxExtractLen = 15000

var indexParam = map[string]any{
	"type":        "integer",
	"description": "Element index from the latest observe result",
}

// BrowserTools returns the browser tool set bound to one session.
func BrowserTools(browser output.BrowserPort, logger output.LoggerPort) []output.ToolPort {
	return []output.ToolPort{
		NewNavigateTool(browser, logger),
		NewObserveTool(browser, logger),
		NewClickTool(browser, logger),
		NewFillTool(browser, logger),
		NewSelectOptionTool(browser, logger),
		NewScrollTool(browser, logger),
		NewPressEnterTool(browser, logger),
		NewExtractTool(browser, logger),
	}
}

type NavigateTool struct {
	browser output.BrowserPort
	logger  output.LoggerPort
}

func NewNavigateTool(browser output.BrowserPort, logger output.LoggerPort) *NavigateTool {
	return &NavigateTool{browser: browser, logger: logger}
}

func (t *NavigateTool) Name() entity.ToolName { return entity.ToolBrowserNavigate }
func (t *NavigateTool) Description() string  { return "Navigates browser to URL" }
func (t *NavigateTool) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"url": map[string]any{
				"type":        "string",
				"description": "URL to navigate to",
			},
		},
		"required": []string{"url"},
	}
}

func (t *NavigateTool) Execute(ctx context.Context, args string) (string, error) {
	var input struct {
		URL string `json:"url"`
	}
	if err := decode(args, &input); err != nil {
		return "", err
	}
	if err := t.browser.Navigate(ctx, input.URL); err != nil {
		return "", err
	}
	return fmt.Sprintf("Navigated to %s. Call observe before interacting.", t.browser.CurrentURL()), nil
}

type ObserveTool struct {
	browser output.BrowserPort
	logger  output.LoggerPort
}

func NewObserveTool(browser output.BrowserPort, logger output.LoggerPort) *ObserveTool {
	return &ObserveTool{browser: browser, logger: logger}
}

func (t *ObserveTool) Name() entity.ToolName { return entity.ToolBrowserObserve }
func (t *ObserveTool) Description() string {
	return "Lists the interactive elements of the current page with their indexes. Indexes change after every observe."
}
func (t *ObserveTool) Parameters() map[string]any {
	return map[string]any{
		"type":       "object",
		"properties": map[string]any{},
	}
}

func (t *ObserveTool) Execute(ctx context.Context, args string) (string, error) {
	elements, err := t.browser.GetUIElements(ctx)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "URL: %s\n", t.browser.CurrentURL())
	if len(elements) == 0 {
		sb.WriteString("No interactive elements visible.")
		return sb.String(), nil
	}
	for _, el := range elements {
		sb.WriteString(FormatElement(el))
		sb.WriteByte('\n')
	}
	return strings.TrimRight(sb.String(), "\n"), nil
}

// FormatElement renders el as a single line, e.g.
// [3] <input type=text name=member_id placeholder="Member ID">.
func FormatElement(el entity.UIElement) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "[%d] <%s", el.Index, el.Tag)
	attr := func(k, v string) {
		if v == "" {
			return
		}
		if strings.ContainsAny(v, " \t\"") {
			fmt.Fprintf(&sb, " %s=%q", k, v)
			return
		}
		fmt.Fprintf(&sb, " %s=%s", k, v)
	}
	attr("type", el.Type)
	attr("name", el.Name)
	attr("placeholder", el.Placeholder)
	attr("aria-label", el.AriaLabel)
	attr("value", el.Value)
	sb.WriteByte('>')
	if el.Text != "" {
		sb.WriteByte(' ')
		sb.WriteString(el.Text)
	}
	return sb.String()
}

type ClickTool struct {
	browser output.BrowserPort
	logger  output.LoggerPort
}

func NewClickTool(browser output.BrowserPort, logger output.LoggerPort) *ClickTool {
	return &ClickTool{browser: browser, logger: logger}
}

func (t *ClickTool) Name() entity.ToolName { return entity.ToolBrowserClick }
func (t *ClickTool) Description() string  { return "Clicks the element with the given index" }
func (t *ClickTool) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"index": indexParam,
		},
		"required": []string{"index"},
	}
}

func (t *ClickTool) Execute(ctx context.Context, args string) (string, error) {
	var input struct {
		Index *int `json:"index"`
	}
	if err := decode(args, &input); err != nil {
		return "", err
	}
	if input.Index == nil {
		return "", errMissing("index")
	}
	if err := t.browser.Click(ctx, *input.Index); err != nil {
		return "", err
	}
	return fmt.Sprintf("Clicked element %d", *input.Index), nil
}

type FillTool struct {
	browser output.BrowserPort
	logger  output.LoggerPort
}

func NewFillTool(browser output.BrowserPort, logger output.LoggerPort) *FillTool {
	return &FillTool{browser: browser, logger: logger}
}

func (t *FillTool) Name() entity.ToolName { return entity.ToolBrowserFill }
func (t *FillTool) Description() string  { return "Replaces the value of a text field" }
func (t *FillTool) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"index": indexParam,
			"text": map[string]any{
				"type":        "string",
				"description": "Text to input",
			},
		},
		"required": []string{"index", "text"},
	}
}

func (t *FillTool) Execute(ctx context.Context, args string) (string, error) {
	var input struct {
		Index *int   `json:"index"`
		Text  string `json:"text"`
	}
	if err := decode(args, &input); err != nil {
		return "", err
	}
	if input.Index == nil {
		return "", errMissing("index")
	}
	if err := t.browser.Fill(ctx, *input.Index, input.Text); err != nil {
		return "", err
	}
	return fmt.Sprintf("Filled element %d", *input.Index), nil
}

type SelectOptionTool struct {
	browser output.BrowserPort
	logger  output.LoggerPort
}

func NewSelectOptionTool(browser output.BrowserPort, logger output.LoggerPort) *SelectOptionTool {
	return &SelectOptionTool{browser: browser, logger: logger}
}

func (t *SelectOptionTool) Name() entity.ToolName { return entity.ToolBrowserSelect }
func (t *SelectOptionTool) Description() string {
	return "Chooses an option of a <select> element by its visible text"
}
func (t *SelectOptionTool) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"index": indexParam,
			"option": map[string]any{
				"type":        "string",
				"description": "Visible option text",
			},
		},
		"required": []string{"index", "option"},
	}
}

func (t *SelectOptionTool) Execute(ctx context.Context, args string) (string, error) {
	var input struct {
		Index  *int   `json:"index"`
		Option string `json:"option"`
	}
	if err := decode(args, &input); err != nil {
		return "", err
	}
	if input.Index == nil {
		return "", errMissing("index")
	}
	if input.Option == "" {
		return "", errMissing("option")
	}
	if err := t.browser.SelectOption(ctx, *input.Index, input.Option); err != nil {
		return "", err
	}
	return fmt.Sprintf("Selected %q in element %d", input.Option, *input.Index), nil
}

type ScrollTool struct {
	browser output.BrowserPort
	logger  output.LoggerPort
}

func NewScrollTool(browser output.BrowserPort, logger output.LoggerPort) *ScrollTool {
	return &ScrollTool{browser: browser, logger: logger}
}

func (t *ScrollTool) Name() entity.ToolName { return entity.ToolBrowserScroll }
func (t *ScrollTool) Description() string  { return "Scrolls page in direction" }
func (t *ScrollTool) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"direction": map[string]any{
				"type":        "string",
				"enum":        []string{"up", "down", "top", "bottom"},
				"description": "Scroll direction",
			},
		},
		"required": []string{"direction"},
	}
}

func (t *ScrollTool) Execute(ctx context.Context, args string) (string, error) {
	var input struct {
		Direction string `json:"direction"`
	}
	if err := decode(args, &input); err != nil {
		return "", err
	}
	if err := t.browser.Scroll(ctx, input.Direction); err != nil {
		return "", err
	}
	return fmt.Sprintf("Scrolled %s", input.Direction), nil
}

type PressEnterTool struct {
	browser output.BrowserPort
	logger  output.LoggerPort
}

func NewPressEnterTool(browser output.BrowserPort, logger output.LoggerPort) *PressEnterTool {
	return &PressEnterTool{browser: browser, logger: logger}
}

func (t *PressEnterTool) Name() entity.ToolName { return entity.ToolBrowserPressEnter }
func (t *PressEnterTool) Description() string  { return "Presses Enter key" }
func (t *PressEnterTool) Parameters() map[string]any {
	return map[string]any{
		"type":       "object",
		"properties": map[string]any{},
	}
}

func (t *PressEnterTool) Execute(ctx context.Context, args string) (string, error) {
	if err := t.browser.PressEnter(ctx); err != nil {
		return "", err
	}
	return "Enter pressed", nil
}

type ExtractTool struct {
	browser output.BrowserPort
	logger  output.LoggerPort
}

func NewExtractTool(browser output.BrowserPort, logger output.LoggerPort) *ExtractTool {
	return &ExtractTool{browser: browser, logger: logger}
}

func (t *ExtractTool) Name() entity.ToolName { return entity.ToolBrowserExtract }
func (t *ExtractTool) Description() string {
	return "Returns the visible text of the current page, e.g. to read a case status or a confirmation number"
}
func (t *ExtractTool) Parameters() map[string]any {
	return map[string]any{
		"type":       "object",
		"properties": map[string]any{},
	}
}

func (t *ExtractTool) Execute(ctx context.Context, args string) (string, error) {
	content, err := t.browser.GetPageContent(ctx)
	if err != nil {
		return "", err
	}
	text, err := pagetext.Text(content.HTML, maxExtractLen)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Title: %s\nURL: %s\n\n%s", content.Title, content.URL, text), nil
}

func decode(args string, v any) error {
	if strings.TrimSpace(args) == "" {
		args = "{}"
	}
	if err := json.Unmarshal([]byte(args), v); err != nil {
		return fmt.Errorf("invalid arguments: %w", err)
	}
	return nil
}

func errMissing(field string) error {
	return fmt.Errorf("invalid arguments: %s is required", field)
}
