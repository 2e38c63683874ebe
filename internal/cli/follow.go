package cli

import (
	"slices"
	"time"

	"pa-agent/internal/application/port/output"
)

const followInterval = 500 * time.Millisecond

// follow shows ledger entries for requestID as they are written until done
// is closed. It reports whether the ledger holds the want action.
func follow(progress output.ProgressPort, requestID string, done <-chan struct{}, want string) bool {
	seen := 0
	var actions []string
	flush := func() {
		entries, err := container.Ledger.Entries(requestID)
		if err != nil || len(entries) <= seen {
			return
		}
		for _, e := range entries[seen:] {
			progress.ShowEntry(e)
			actions = append(actions, e.Action)
		}
		seen = len(entries)
	}

	ticker := time.NewTicker(followInterval)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			flush()
			ok := slices.Contains(actions, want)
			progress.ShowOutcome(requestID, ok)
			return ok
		case <-ticker.C:
			flush()
		}
	}
}
