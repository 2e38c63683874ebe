package output

import "pa-agent/internal/domain/entity"

// Ledger is the append-only per-request activity log.
type Ledger interface {
	Create(requestID string) error
	Append(requestID, action, detail string) error
	Entries(requestID string) ([]entity.LedgerEntry, error)
}
