package testutil

import (
	"context"
	"sync"
	"time"

	"pa-agent/internal/application/port/output"
	"pa-agent/internal/domain/entity"
)

var (
	_ output.Ledger           = (*MemoryLedger)(nil)
	_ output.CaseDataProvider = (*StaticCaseData)(nil)
)

type MemoryLedger struct {
	mu      sync.Mutex
	entries map[string][]entity.LedgerEntry
}

func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{entries: map[string][]entity.LedgerEntry{}}
}

func (l *MemoryLedger) Create(requestID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.entries[requestID]; !ok {
		l.entries[requestID] = []entity.LedgerEntry{}
	}
	return nil
}

func (l *MemoryLedger) Append(requestID, action, detail string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries[requestID] = append(l.entries[requestID], entity.LedgerEntry{
		Timestamp: time.Now(),
		Action:    action,
		Detail:    detail,
	})
	return nil
}

func (l *MemoryLedger) Entries(requestID string) ([]entity.LedgerEntry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	e, ok := l.entries[requestID]
	if !ok {
		return nil, entity.ErrRequestNotFound
	}
	return append([]entity.LedgerEntry(nil), e...), nil
}

// Actions returns the action names logged for requestID, in order.
func (l *MemoryLedger) Actions(requestID string) []string {
	entries, _ := l.Entries(requestID)
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Action)
	}
	return out
}

// StaticCaseData serves Record or Err. When Gate is non-nil Fetch blocks
// until it is closed or ctx ends.
type StaticCaseData struct {
	mu       sync.Mutex
	Record   entity.CaseRecord
	Err      error
	Gate     chan struct{}
	Accounts []string
}

func (s *StaticCaseData) Fetch(ctx context.Context, accountID string) (entity.CaseRecord, error) {
	s.mu.Lock()
	s.Accounts = append(s.Accounts, accountID)
	gate := s.Gate
	s.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if s.Err != nil {
		return nil, s.Err
	}
	return s.Record, nil
}
