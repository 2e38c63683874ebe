package output

import "pa-agent/internal/domain/entity"

// ProgressPort shows a foreground run to the operator.
type ProgressPort interface {
	ShowStarted(kind, requestID, detail string)
	ShowEntry(entry entity.LedgerEntry)
	ShowOutcome(requestID string, ok bool)
}
