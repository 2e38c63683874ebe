package entity

// CaseRecord is the structured case data driving one form-fill run. It has no
// enforced schema: top-level keys are field groups ("account", "contacts",
// "Member", "Diagnosis", ...).
type CaseRecord map[string]any

// MergeCaseRecord returns a new record holding every key of fetched and
// every key of overrides, with overrides winning on collision. The merge is
// shallow and neither argument is modified.
func MergeCaseRecord(fetched, overrides CaseRecord) CaseRecord {
	merged := make(CaseRecord, len(fetched)+len(overrides))
	for k, v := range fetched {
		merged[k] = v
	}
	for k, v := range overrides {
		merged[k] = v
	}
	return merged
}
