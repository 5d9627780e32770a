package model

import "time"

// CheckRecord is a persisted verification outcome, keyed by the normalized
// query. Records are append-only: a repeated query writes a new row rather
// than updating an old one, and lookups prefer the newest match.
//
// VerdictStatus, SmokeLevel and Title duplicate fields inside Verdict so the
// recent-checks feed can sort and filter without re-parsing the verdict JSON.
type CheckRecord struct {
	ID            string    `json:"id"`
	QueryKey      string    `json:"query_key"`
	OriginalInput string    `json:"original_input"`
	Verdict       Verdict   `json:"verdict"`
	VerdictStatus string    `json:"verdict_status"`
	SmokeLevel    int       `json:"smoke_level"`
	Title         string    `json:"title"`
	CreatedAt     time.Time `json:"created_at"`
}

// NewCheckRecord builds a record from a verdict, filling the denormalized
// feed columns from the verdict itself.
func NewCheckRecord(key, originalInput string, v Verdict) CheckRecord {
	return CheckRecord{
		QueryKey:      key,
		OriginalInput: originalInput,
		Verdict:       v,
		VerdictStatus: string(v.Verdict),
		SmokeLevel:    v.SmokeLevel,
		Title:         v.Title,
	}
}
