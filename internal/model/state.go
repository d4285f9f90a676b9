package model

import "time"

// SymbolState is the ingest checkpoint of a single symbol.
type SymbolState struct {
	LastTimestamp int64     `json:"last_timestamp"` // newest stored candle
	Candles       int       `json:"candles"`        // rows written by the last successful batch
	Runs          int       `json:"runs"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// IngestState is persisted between restarts so /status survives them.
type IngestState struct {
	Symbols   map[string]SymbolState `json:"symbols"`
	LastRun   *RunReport             `json:"last_run,omitempty"`
	TotalRuns int                    `json:"total_runs"`
	UpdatedAt time.Time              `json:"updated_at"`
}
