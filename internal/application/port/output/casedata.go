package output

import (
	"context"

	"pa-agent/internal/domain/entity"
)

type CaseDataProvider interface {
	// Fetch returns the case record for accountID, or for the configured
	// default account when accountID is empty.
	Fetch(ctx context.Context, accountID string) (entity.CaseRecord, error)
}
