// Package riskstate persists the shared risk state as a small JSON file.
//
// Two independent processes write this file without coordination: the trading
// loop owns peak_equity and auto_paused, the dashboard owns user_paused. Each
// mutation re-reads the file and rewrites only the fields its caller owns, so
// concurrent writers lose at most each other's simultaneous write
// (last-writer-wins), never a field they do not share. Writes are atomic via
// temp file + rename so readers never observe a partial file.
package riskstate

import (
	"encoding/json"
	"os"
	"sync"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/vadiminshakov/crossma/internal/domain"
)

// Store reads and writes the risk state file.
type Store struct {
	path string
	mu   sync.Mutex
}

// persistedState is the on-disk JSON shape. peak_equity is a plain JSON
// number so other tooling can read the file without decimal handling.
type persistedState struct {
	PeakEquity float64 `json:"peak_equity"`
	AutoPaused bool    `json:"auto_paused"`
	UserPaused bool    `json:"user_paused"`
}

// NewStore creates a store backed by the given file path.
func NewStore(path string) (*Store, error) {
	if path == "" {
		return nil, errors.New("risk state path is required")
	}
	return &Store{path: path}, nil
}

// Load reads the persisted risk state. A missing or unreadable file is a
// first run, not an error: the zero-value state is returned and the next
// write recreates the file.
func (s *Store) Load() (domain.RiskState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(), nil
}

// Save persists the full state. Only the trading loop should call this;
// the dashboard mutates single fields via SetUserPaused/ClearAutoPause.
func (s *Store) Save(state domain.RiskState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save(toPersisted(state))
}

// UpdateRisk rewrites the loop-owned fields (peak_equity, auto_paused),
// preserving whatever user_paused currently is on disk.
func (s *Store) UpdateRisk(peakEquity decimal.Decimal, autoPaused bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current := s.loadPersisted()
	current.PeakEquity, _ = peakEquity.Float64()
	current.AutoPaused = autoPaused
	return s.save(current)
}

// SetUserPaused rewrites only the dashboard-owned user_paused field.
func (s *Store) SetUserPaused(paused bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current := s.loadPersisted()
	current.UserPaused = paused
	return s.save(current)
}

// ClearAutoPause resets the sticky auto-pause flag. This is the explicit
// operator action; nothing in the trading loop ever clears it.
func (s *Store) ClearAutoPause() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current := s.loadPersisted()
	current.AutoPaused = false
	return s.save(current)
}

func (s *Store) load() domain.RiskState {
	return fromPersisted(s.loadPersisted())
}

func (s *Store) loadPersisted() persistedState {
	var state persistedState

	payload, err := os.ReadFile(s.path)
	if err != nil {
		return state
	}

	if err := json.Unmarshal(payload, &state); err != nil {
		// corrupt file: fall back to defaults, the next save rewrites it
		return persistedState{}
	}

	return state
}

func (s *Store) save(state persistedState) error {
	payload, err := json.Marshal(state)
	if err != nil {
		return errors.Wrap(err, "encode risk state")
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, payload, 0o644); err != nil {
		return errors.Wrap(err, "write risk state temp file")
	}

	if err := os.Rename(tmp, s.path); err != nil {
		return errors.Wrap(err, "persist risk state")
	}

	return nil
}

func toPersisted(state domain.RiskState) persistedState {
	peak, _ := state.PeakEquity.Float64()
	return persistedState{
		PeakEquity: peak,
		AutoPaused: state.AutoPaused,
		UserPaused: state.UserPaused,
	}
}

func fromPersisted(state persistedState) domain.RiskState {
	return domain.RiskState{
		PeakEquity: decimal.NewFromFloat(state.PeakEquity),
		AutoPaused: state.AutoPaused,
		UserPaused: state.UserPaused,
	}
}
