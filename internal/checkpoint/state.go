package checkpoint

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"CandleKeeper/internal/model"
)

// LoadState reads the ingest state from a JSON file. Returns a zero state if the file doesn't exist.
func LoadState(filePath string) (*model.IngestState, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return &model.IngestState{Symbols: map[string]model.SymbolState{}}, nil
		}
		return nil, err
	}
	var state model.IngestState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, err
	}
	if state.Symbols == nil {
		state.Symbols = map[string]model.SymbolState{}
	}
	return &state, nil
}

// SaveState writes the ingest state to a JSON file, creating its directory.
// The file is replaced via rename so a crash never leaves it half written.
func SaveState(filePath string, state *model.IngestState) error {
	state.UpdatedAt = time.Now()
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return err
	}
	if dir := filepath.Dir(filePath); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	tmp := filePath + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}
	return os.Rename(tmp, filePath)
}
