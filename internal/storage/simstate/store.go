// Package simstate persists the simulated wallet so restarts keep balances.
package simstate

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

const defaultStateDir = "./wal/simulate"

// Store is a JSON file holding the simulated wallet.
type Store struct {
	path string
}

func getStateDir() string {
	if stateDir := os.Getenv("VOLDCA_SIMULATE_STATE_DIR"); stateDir != "" {
		return stateDir
	}
	return defaultStateDir
}

// NewStore creates a simulator state store named after scope.
func NewStore(dir, scope string) (*Store, error) {
	if dir == "" {
		dir = getStateDir()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrap(err, "create simulate state dir")
	}

	name := sanitizeScope(scope)
	if name == "" {
		name = "wallet"
	}

	return &Store{path: filepath.Join(dir, name+".json")}, nil
}

// State is the persisted simulator data.
type State struct {
	Wallet    map[string]string `json:"wallet"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// Balances decodes the wallet.
func (s State) Balances() (map[string]decimal.Decimal, error) {
	out := make(map[string]decimal.Decimal, len(s.Wallet))
	for currency, amount := range s.Wallet {
		d, err := decimal.NewFromString(amount)
		if err != nil {
			return nil, errors.Wrapf(err, "decode %s balance", currency)
		}
		out[strings.ToUpper(currency)] = d
	}
	return out, nil
}

// NewState encodes balances.
func NewState(balances map[string]decimal.Decimal, now time.Time) State {
	wallet := make(map[string]string, len(balances))
	for currency, amount := range balances {
		wallet[strings.ToUpper(currency)] = amount.String()
	}
	return State{Wallet: wallet, UpdatedAt: now.UTC()}
}

// Load reads simulator state from disk. Missing state returns nil.
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

// Save writes simulator state to disk atomically via temp file.
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

func sanitizeScope(value string) string {
	value = strings.TrimSpace(strings.ToLower(value))

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
