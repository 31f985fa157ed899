package models

import "time"

// RunReport is the audit record stored for every ledger rebuild.
type RunReport struct {
	RunID       string         `bson:"run_id" json:"run_id"`
	AsOf        time.Time      `bson:"as_of" json:"as_of"`
	Trigger     string         `bson:"trigger" json:"trigger"`
	Events      int            `bson:"events" json:"events"`
	LedgerRows  int            `bson:"ledger_rows" json:"ledger_rows"`
	Items       int            `bson:"items" json:"items"`
	ShortItems  int            `bson:"short_items" json:"short_items"`
	Violations  int            `bson:"violations" json:"violations"`
	Adjustments int            `bson:"adjustments" json:"adjustments"`
	DroppedRows map[string]int `bson:"dropped_rows,omitempty" json:"dropped_rows,omitempty"`
	Duration    time.Duration  `bson:"duration" json:"duration"`
	CreatedAt   time.Time      `bson:"created_at" json:"created_at"`
}

// ShortageDigest is the condensed view pushed to planners after a rebuild.
type ShortageDigest struct {
	RunID      string        `json:"run_id"`
	AsOf       time.Time     `json:"as_of"`
	Violations []LedgerEntry `json:"violations"`
	Short      []ItemSummary `json:"short"`
}
