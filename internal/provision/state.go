package provision

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// CurrentVersion is the provisioning schema version. Bump it when the
// provisioning steps change in a way that requires re-running them on
// bundles provisioned by an older release.
const CurrentVersion = 1

// State records what provisioning has already been applied to a bundle.
type State struct {
	// InitializedVersion is the provisioning version that completed last.
	// Zero means the bundle has never been provisioned.
	InitializedVersion int `json:"initialized_version"`

	// ProvisionedAt is when provisioning last completed.
	ProvisionedAt time.Time `json:"provisioned_at,omitempty"`
}

// StateManager persists provisioning state to a JSON file.
type StateManager struct {
	mu    sync.RWMutex
	path  string
	state State
}

// NewStateManager creates a state manager backed by state.json inside dir.
func NewStateManager(dir string) *StateManager {
	return &StateManager{
		path: filepath.Join(dir, "state.json"),
	}
}

// Load reads the state file from disk. A missing file is not an error:
// the manager starts from the zero state, meaning never provisioned.
func (m *StateManager) Load() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	data, err := os.ReadFile(m.path)
	if err != nil {
		if os.IsNotExist(err) {
			m.state = State{}
			return nil
		}
		return fmt.Errorf("failed to read state file: %w", err)
	}

	var s State
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("failed to parse state file: %w", err)
	}

	m.state = s
	return nil
}

// Save writes the current state to disk.
func (m *StateManager) Save() error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	dir := filepath.Dir(m.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}

	data, err := json.MarshalIndent(m.state, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}

	if err := os.WriteFile(m.path, data, 0644); err != nil {
		return fmt.Errorf("failed to write state file: %w", err)
	}

	return nil
}

// Get returns a copy of the current state.
func (m *StateManager) Get() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// IsProvisioned reports whether the bundle has been provisioned at the
// current version or newer.
func (m *StateManager) IsProvisioned() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state.InitializedVersion >= CurrentVersion
}

// MarkProvisioned records that provisioning at the current version has
// completed, and persists the state. This must be the last step of a
// provisioning run so a failed run stays re-runnable.
func (m *StateManager) MarkProvisioned() error {
	m.mu.Lock()
	m.state.InitializedVersion = CurrentVersion
	m.state.ProvisionedAt = time.Now()
	m.mu.Unlock()
	return m.Save()
}

// Reset clears the persisted state so the next run provisions from scratch.
func (m *StateManager) Reset() error {
	m.mu.Lock()
	m.state = State{}
	m.mu.Unlock()

	if err := os.Remove(m.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove state file: %w", err)
	}
	return nil
}

// Path returns the location of the backing state file.
func (m *StateManager) Path() string {
	return m.path
}
