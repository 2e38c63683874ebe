package userinteraction

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"pa-agent/internal/domain/entity"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
)

func newTestConsole() (*Console, *bytes.Buffer) {
	color.NoColor = true
	var buf bytes.Buffer
	return NewConsoleWriter(&buf), &buf
}

func TestConsole_ShowStarted(t *testing.T) {
	c, buf := newTestConsole()

	c.ShowStarted("form", "abc12345", "account: A-1")

	assert.Equal(t, "━━━ form abc12345 ━━━\n   account: A-1\n", buf.String())
}

func TestConsole_ShowEntry(t *testing.T) {
	c, buf := newTestConsole()
	ts := time.Date(2025, 3, 1, 9, 30, 5, 0, time.UTC)

	c.ShowEntry(entity.LedgerEntry{Timestamp: ts, Action: "Validating configuration"})
	c.ShowEntry(entity.LedgerEntry{Timestamp: ts, Action: "Form filling failed", Detail: "engine:\nmax iterations"})

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Equal(t, []string{
		"[09:30:05] Validating configuration",
		"[09:30:05] Form filling failed: engine: max iterations",
	}, lines)
}

func TestConsole_TruncatesLongDetail(t *testing.T) {
	c, buf := newTestConsole()

	c.ShowEntry(entity.LedgerEntry{Action: "Form data fetched", Detail: strings.Repeat("x", 500)})

	assert.Contains(t, buf.String(), strings.Repeat("x", maxDetailLen)+"...")
	assert.NotContains(t, buf.String(), strings.Repeat("x", maxDetailLen+1))
}

func TestConsole_ShowOutcome(t *testing.T) {
	c, buf := newTestConsole()

	c.ShowOutcome("a", true)
	c.ShowOutcome("b", false)

	assert.Equal(t, "✓ a finished\n✗ b failed\n", buf.String())
}
