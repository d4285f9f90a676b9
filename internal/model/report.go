package model

import (
	"sort"
	"time"
)

// RunReport summarizes one ingest run over the configured symbols.
type RunReport struct {
	Started   time.Time         `json:"started"`
	Finished  time.Time         `json:"finished"`
	Provider  string            `json:"provider"`
	Range     string            `json:"range"`
	Interval  string            `json:"interval"`
	Symbols   int               `json:"symbols"`
	Succeeded int               `json:"succeeded"`
	Failed    map[string]string `json:"failed,omitempty"` // symbol -> error
	Rows      int               `json:"rows"`
}

func (r *RunReport) Duration() time.Duration { return r.Finished.Sub(r.Started) }

// FailedSymbols returns the failed symbols in sorted order.
func (r *RunReport) FailedSymbols() []string {
	out := make([]string, 0, len(r.Failed))
	for sym := range r.Failed {
		out = append(out, sym)
	}
	sort.Strings(out)
	return out
}
