package userinteraction

import (
	"io"
	"os"
	"strings"

	"pa-agent/internal/application/port/output"
	"pa-agent/internal/domain/entity"

	"github.com/fatih/color"
)

var _ output.ProgressPort = (*Console)(nil)

const maxDetailLen = 160

type Console struct {
	out io.Writer

	header  *color.Color
	stamp   *color.Color
	success *color.Color
	failure *color.Color
	dim     *color.Color
}

func NewConsole() *Console {
	return NewConsoleWriter(os.Stdout)
}

func NewConsoleWriter(out io.Writer) *Console {
	return &Console{
		out:     out,
		header:  color.New(color.FgCyan, color.Bold),
		stamp:   color.New(color.Faint),
		success: color.New(color.FgGreen),
		failure: color.New(color.FgRed),
		dim:     color.New(color.Faint),
	}
}

func (c *Console) ShowStarted(kind, requestID, detail string) {
	c.header.Fprintf(c.out, "━━━ %s %s ━━━\n", kind, requestID)
	if detail != "" {
		c.dim.Fprintf(c.out, "   %s\n", detail)
	}
}

func (c *Console) ShowEntry(e entity.LedgerEntry) {
	c.stamp.Fprintf(c.out, "[%s] ", e.Timestamp.Format("15:04:05"))

	action := c.actionColor(e.Action)
	if e.Detail == "" {
		action.Fprintln(c.out, e.Action)
		return
	}
	action.Fprintf(c.out, "%s: ", e.Action)
	c.dim.Fprintln(c.out, truncate(e.Detail, maxDetailLen))
}

func (c *Console) ShowOutcome(requestID string, ok bool) {
	if ok {
		c.success.Fprintf(c.out, "✓ %s finished\n", requestID)
		return
	}
	c.failure.Fprintf(c.out, "✗ %s failed\n", requestID)
}

func (c *Console) actionColor(action string) *color.Color {
	lower := strings.ToLower(action)
	switch {
	case strings.Contains(lower, "fail"), strings.Contains(lower, "error"):
		return c.failure
	case strings.Contains(lower, "completed"):
		return c.success
	}
	return color.New(color.Reset)
}

func truncate(s string, maxLen int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
