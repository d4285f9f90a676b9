package checkpoint

import (
	"log"
	"maps"
	"sync"
	"time"

	"CandleKeeper/internal/model"
)

// Manager tracks per-symbol ingest progress with concurrency safety.
// An empty file path keeps the state in memory only.
type Manager struct {
	mu       sync.Mutex
	state    *model.IngestState
	filePath string
}

// NewManager creates a Manager, loading state from disk when filePath is set.
func NewManager(filePath string) (*Manager, error) {
	state := &model.IngestState{Symbols: map[string]model.SymbolState{}}
	if filePath != "" {
		loaded, err := LoadState(filePath)
		if err != nil {
			return nil, err
		}
		state = loaded
	}
	return &Manager{state: state, filePath: filePath}, nil
}

// GetState returns a copy of the current state.
func (m *Manager) GetState() model.IngestState {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := *m.state
	s.Symbols = maps.Clone(m.state.Symbols)
	if s.LastRun != nil {
		r := *s.LastRun
		r.Failed = maps.Clone(s.LastRun.Failed)
		s.LastRun = &r
	}
	return s
}

// Symbol returns the checkpoint of one symbol.
func (m *Manager) Symbol(symbol string) (model.SymbolState, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	st, ok := m.state.Symbols[symbol]
	return st, ok
}

// RecordBatch notes a committed batch for symbol. The stored last timestamp
// never moves backwards.
func (m *Manager) RecordBatch(symbol string, candles []model.Candlestick) {
	m.mu.Lock()
	defer m.mu.Unlock()

	st := m.state.Symbols[symbol]
	for _, c := range candles {
		if c.Timestamp > st.LastTimestamp {
			st.LastTimestamp = c.Timestamp
		}
	}
	st.Candles = len(candles)
	st.Runs++
	st.UpdatedAt = time.Now()
	m.state.Symbols[symbol] = st

	if err := m.save(); err != nil {
		log.Printf("[ERROR] failed to save ingest state for %s: %v", symbol, err)
	}
}

// RecordRun stores the report of a finished run.
func (m *Manager) RecordRun(report *model.RunReport) {
	m.mu.Lock()
	defer m.mu.Unlock()

	r := *report
	r.Failed = maps.Clone(report.Failed)
	m.state.LastRun = &r
	m.state.TotalRuns++

	if err := m.save(); err != nil {
		log.Printf("[ERROR] failed to save ingest state after run: %v", err)
	}
}

func (m *Manager) save() error {
	if m.filePath == "" {
		return nil
	}
	return SaveState(m.filePath, m.state)
}
