package simstate

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

const defaultStateDir = "./wal/simulate"

// Store persists the simulated balance ledger so restarts keep the as-if balances.
type Store struct {
	path string
}

func getStateDir(dir string) string {
	if dir != "" {
		return dir
	}
	if stateDir := os.Getenv("WRAPSIM_STATE_DIR"); stateDir != "" {
		return stateDir
	}
	return defaultStateDir
}

// NewStore creates a ledger state store under dir, scoped by the given name.
func NewStore(dir, scope string) (*Store, error) {
	stateDir := getStateDir(dir)
	if err := os.MkdirAll(stateDir, 0o755); err != nil {
		return nil, errors.Wrap(err, "create simulate state dir")
	}

	storeFileName := sanitizeScope(scope)
	if storeFileName == "" {
		storeFileName = "ledger"
	}

	fullName := fmt.Sprintf("%s.json", storeFileName)

	return &Store{path: filepath.Join(stateDir, fullName)}, nil
}

// State represents all persisted ledger data.
type State struct {
	Session string        `json:"session"`
	Entries []StoredEntry `json:"entries"`
}

// StoredEntry is a serializable ledger entry.
type StoredEntry struct {
	ChainID  int64  `json:"chain_id"`
	Native   bool   `json:"native"`
	Address  string `json:"address,omitempty"`
	Balance  string `json:"balance"`
	Decimals int32  `json:"decimals"`
}

// Path returns the state file location.
func (s *Store) Path() string {
	if s == nil {
		return ""
	}
	return s.path
}

// Load reads ledger state from disk.
func (s *Store) Load() (*State, error) {
	if s == nil || s.path == "" {
		return nil, nil
	}

	payload, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}

		return nil, errors.Wrap(err, "read simulate state")
	}

	if len(payload) == 0 {
		return nil, nil
	}

	var state State
	if err := json.Unmarshal(payload, &state); err != nil {
		return nil, errors.Wrap(err, "decode simulate state")
	}

	return &state, nil
}

// Save writes ledger state to disk atomically via temp file.
func (s *Store) Save(state State) error {
	if s == nil || s.path == "" {
		return nil
	}

	payload, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return errors.Wrap(err, "encode simulate state")
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, payload, 0o644); err != nil {
		return errors.Wrap(err, "write simulate state temp file")
	}

	if err := os.Rename(tmp, s.path); err != nil {
		return errors.Wrap(err, "persist simulate state")
	}

	return nil
}

// Reset removes the persisted state.
func (s *Store) Reset() error {
	if s == nil || s.path == "" {
		return nil
	}
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return errors.Wrap(err, "remove simulate state")
	}
	return nil
}

func sanitizeScope(value string) string {
	value = strings.TrimSpace(strings.ToLower(value))
	if value == "" {
		return ""
	}

	var b strings.Builder

	prevUnderscore := false

	for _, r := range value {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)

			prevUnderscore = false

			continue
		}

		if !prevUnderscore {
			b.WriteByte('_')

			prevUnderscore = true
		}
	}

	return strings.Trim(b.String(), "_")
}
