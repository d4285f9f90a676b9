package checkpoint

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"CandleKeeper/internal/model"
)

func TestLoadState_MissingFile(t *testing.T) {
	st, err := LoadState(filepath.Join(t.TempDir(), "none.json"))
	require.NoError(t, err)
	assert.NotNil(t, st.Symbols)
	assert.Nil(t, st.LastRun)
}

func TestLoadState_Corrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0644))
	_, err := LoadState(path)
	assert.Error(t, err)

	_, err = NewManager(path)
	assert.Error(t, err)
}

func TestManager_PersistsAcrossRestart(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "state.json")

	m, err := NewManager(path)
	require.NoError(t, err)
	m.RecordBatch("AAPL", []model.Candlestick{{Timestamp: 300}, {Timestamp: 100}, {Timestamp: 200}})
	m.RecordRun(&model.RunReport{
		Started:   time.Unix(1000, 0),
		Finished:  time.Unix(1005, 0),
		Symbols:   2,
		Succeeded: 1,
		Failed:    map[string]string{"MSFT": "fetch error"},
		Rows:      3,
	})

	reloaded, err := NewManager(path)
	require.NoError(t, err)
	st, ok := reloaded.Symbol("AAPL")
	require.True(t, ok)
	assert.Equal(t, int64(300), st.LastTimestamp)
	assert.Equal(t, 3, st.Candles)
	assert.Equal(t, 1, st.Runs)

	state := reloaded.GetState()
	require.NotNil(t, state.LastRun)
	assert.Equal(t, 1, state.TotalRuns)
	assert.Equal(t, 3, state.LastRun.Rows)
	assert.Equal(t, "fetch error", state.LastRun.Failed["MSFT"])

	_, err = os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err))
}

func TestManager_LastTimestampNeverMovesBack(t *testing.T) {
	m, err := NewManager("")
	require.NoError(t, err)

	m.RecordBatch("SPX500", []model.Candlestick{{Timestamp: 500}})
	m.RecordBatch("SPX500", []model.Candlestick{{Timestamp: 400}, {Timestamp: 450}})

	st, _ := m.Symbol("SPX500")
	assert.Equal(t, int64(500), st.LastTimestamp)
	assert.Equal(t, 2, st.Candles)
	assert.Equal(t, 2, st.Runs)
}

func TestManager_GetStateIsACopy(t *testing.T) {
	m, err := NewManager("")
	require.NoError(t, err)
	m.RecordBatch("AAPL", []model.Candlestick{{Timestamp: 1}})
	m.RecordRun(&model.RunReport{Failed: map[string]string{"X": "boom"}})

	s := m.GetState()
	s.Symbols["AAPL"] = model.SymbolState{LastTimestamp: 99}
	s.LastRun.Failed["X"] = "changed"

	st, _ := m.Symbol("AAPL")
	assert.Equal(t, int64(1), st.LastTimestamp)
	assert.Equal(t, "boom", m.GetState().LastRun.Failed["X"])
}
