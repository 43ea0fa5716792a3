package recorder

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// AppState is remembered between runs. It never holds cube state.
type AppState struct {
	LastSessionID  string `json:"last_session_id,omitempty"`
	LastLogPath    string `json:"last_log_path,omitempty"`
	LastDeviceID   string `json:"last_device_id,omitempty"`
	LastDeviceName string `json:"last_device_name,omitempty"`
}

// StateFile is a JSON file holding AppState.
type StateFile struct {
	path  string
	state AppState
}

// OpenStateFile loads path, starting empty if it does not exist yet.
func OpenStateFile(path string) (*StateFile, error) {
	sf := &StateFile{path: path}
	if err := sf.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}
	return sf, nil
}

// Load reads the file.
func (sf *StateFile) Load() error {
	data, err := os.ReadFile(sf.path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, &sf.state); err != nil {
		return fmt.Errorf("failed to parse state file %s: %w", sf.path, err)
	}
	return nil
}

// Save writes the file, creating its directory.
func (sf *StateFile) Save() error {
	data, err := json.MarshalIndent(sf.state, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(sf.path), 0o755); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}
	if err := os.WriteFile(sf.path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write state file: %w", err)
	}
	return nil
}

// State returns a copy of the state.
func (sf *StateFile) State() AppState {
	return sf.state
}

// SetLastSession remembers the most recent journal session.
func (sf *StateFile) SetLastSession(id string) error {
	sf.state.LastSessionID = id
	return sf.Save()
}

// SetLastLog remembers the most recent stimulus log.
func (sf *StateFile) SetLastLog(path string) error {
	sf.state.LastLogPath = path
	return sf.Save()
}

// SetLastDevice remembers the last smart cube connected.
func (sf *StateFile) SetLastDevice(id, name string) error {
	sf.state.LastDeviceID = id
	sf.state.LastDeviceName = name
	return sf.Save()
}
