package tool

import (
	"context"
	"errors"
	"testing"

	"pa-agent/internal/domain/entity"
	"pa-agent/internal/infrastructure/logger"
	"pa-agent/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBrowser() *testutil.FakeBrowser {
	b := testutil.NewFakeBrowser()
	b.URL = "https://portal.example.com/intake"
	b.Elements = []entity.UIElement{
		{Index: 0, Tag: "input", Type: "text", Name: "member_id", Placeholder: "Member ID"},
		{Index: 1, Tag: "select", Name: "plan"},
		{Index: 2, Tag: "button", Text: "Next", AriaLabel: "Next step"},
	}
	return b
}

func TestBrowserTools_Names(t *testing.T) {
	tools := BrowserTools(newBrowser(), logger.NewNop())

	var names []entity.ToolName
	for _, tl := range tools {
		names = append(names, tl.Name())
		assert.NotEmpty(t, tl.Description())
		assert.Equal(t, "object", tl.Parameters()["type"])
	}
	assert.Equal(t, []entity.ToolName{
		entity.ToolBrowserNavigate, entity.ToolBrowserObserve, entity.ToolBrowserClick,
		entity.ToolBrowserFill, entity.ToolBrowserSelect, entity.ToolBrowserScroll,
		entity.ToolBrowserPressEnter, entity.ToolBrowserExtract,
	}, names)
}

func TestObserveTool(t *testing.T) {
	b := newBrowser()
	out, err := NewObserveTool(b, logger.NewNop()).Execute(context.Background(), "")
	require.NoError(t, err)

	assert.Contains(t, out, "URL: https://portal.example.com/intake")
	assert.Contains(t, out, `[0] <input type=text name=member_id placeholder="Member ID">`)
	assert.Contains(t, out, "[1] <select name=plan>")
	assert.Contains(t, out, `[2] <button aria-label="Next step"> Next`)
}

func TestObserveTool_Empty(t *testing.T) {
	b := testutil.NewFakeBrowser()
	out, err := NewObserveTool(b, logger.NewNop()).Execute(context.Background(), "{}")
	require.NoError(t, err)
	assert.Contains(t, out, "No interactive elements")
}

func TestClickTool(t *testing.T) {
	b := newBrowser()
	tl := NewClickTool(b, logger.NewNop())

	out, err := tl.Execute(context.Background(), `{"index":2}`)
	require.NoError(t, err)
	assert.Equal(t, "Clicked element 2", out)

	_, err = tl.Execute(context.Background(), `{"index":7}`)
	assert.ErrorIs(t, err, entity.ErrElementNotFound)

	_, err = tl.Execute(context.Background(), `{}`)
	assert.ErrorContains(t, err, "index is required")

	_, err = tl.Execute(context.Background(), `not json`)
	assert.ErrorContains(t, err, "invalid arguments")
}

func TestClickTool_IndexZeroIsValid(t *testing.T) {
	b := newBrowser()
	_, err := NewClickTool(b, logger.NewNop()).Execute(context.Background(), `{"index":0}`)
	require.NoError(t, err)
	assert.Equal(t, []string{"click 0"}, b.CallLog())
}

func TestFillAndSelectTools(t *testing.T) {
	b := newBrowser()
	ctx := context.Background()

	_, err := NewFillTool(b, logger.NewNop()).Execute(ctx, `{"index":0,"text":"H123456789"}`)
	require.NoError(t, err)

	_, err = NewSelectOptionTool(b, logger.NewNop()).Execute(ctx, `{"index":1,"option":"Medicare PPO"}`)
	require.NoError(t, err)

	_, err = NewSelectOptionTool(b, logger.NewNop()).Execute(ctx, `{"index":1}`)
	assert.ErrorContains(t, err, "option is required")

	assert.Equal(t, []string{"fill 0 H123456789", "select_option 1 Medicare PPO"}, b.CallLog())
}

func TestNavigateTool(t *testing.T) {
	b := newBrowser()
	out, err := NewNavigateTool(b, logger.NewNop()).Execute(context.Background(), `{"url":"https://portal.example.com"}`)
	require.NoError(t, err)
	assert.Contains(t, out, "Navigated to https://portal.example.com")

	b.Err["navigate"] = errors.New("net::ERR_NAME_NOT_RESOLVED")
	_, err = NewNavigateTool(b, logger.NewNop()).Execute(context.Background(), `{"url":"https://nowhere"}`)
	assert.ErrorContains(t, err, "ERR_NAME_NOT_RESOLVED")
}

func TestScrollAndEnter(t *testing.T) {
	b := newBrowser()
	ctx := context.Background()

	out, err := NewScrollTool(b, logger.NewNop()).Execute(ctx, `{"direction":"down"}`)
	require.NoError(t, err)
	assert.Equal(t, "Scrolled down", out)

	out, err = NewPressEnterTool(b, logger.NewNop()).Execute(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, "Enter pressed", out)
}

func TestExtractTool(t *testing.T) {
	b := newBrowser()
	b.Page = entity.PageContent{
		Title: "Case Status",
		HTML:  `<body><h2>PA-14091005229</h2><p>Status: <b>Approved</b></p><script>x()</script></body>`,
	}

	out, err := NewExtractTool(b, logger.NewNop()).Execute(context.Background(), "")
	require.NoError(t, err)

	assert.Contains(t, out, "Title: Case Status")
	assert.Contains(t, out, "PA-14091005229\nStatus: Approved")
	assert.NotContains(t, out, "x()")
}

func TestFormatElement_Minimal(t *testing.T) {
	assert.Equal(t, "[4] <a> Home", FormatElement(entity.UIElement{Index: 4, Tag: "a", Text: "Home"}))
}
