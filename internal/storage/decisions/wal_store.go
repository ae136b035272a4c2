// Package decisions journals every purchase cycle outcome in a write-ahead log.
package decisions

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"github.com/vadiminshakov/gowal"
	"github.com/vadiminshakov/voldca/internal/domain"
)

const (
	DefaultDir   = "./wal/decisions"
	segmentLimit = 100
	maxSegments  = 10

	cycleKeyPrefix = "cycle_"
)

// Record is a journaled cycle with its WAL index.
type Record struct {
	Index uint64
	Event domain.CycleEvent
}

// WALStore persists cycle events in a WAL.
type WALStore struct {
	wal *gowal.Wal
	mu  sync.RWMutex
}

// NewWALStore initializes a WAL-backed decision journal.
func NewWALStore(dir string) (*WALStore, error) {
	if dir == "" {
		dir = DefaultDir
	}

	cfg := gowal.Config{
		Dir:              dir,
		Prefix:           "decision_",
		SegmentThreshold: segmentLimit,
		MaxSegments:      maxSegments,
		IsInSyncDiskMode: true,
	}

	wal, err := gowal.NewWAL(cfg)
	if err != nil {
		return nil, errors.Wrap(err, "init decision WAL")
	}

	return &WALStore{wal: wal}, nil
}

// SaveCycle writes the cycle event to the WAL.
func (s *WALStore) SaveCycle(event domain.CycleEvent) error {
	if s == nil || s.wal == nil {
		return errors.New("decision store is not initialized")
	}
	if event.Asset == "" {
		return fmt.Errorf("cycle event asset is required")
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return errors.Wrap(err, "marshal cycle event")
	}

	key := cycleKeyPrefix + strings.ToLower(event.Asset)

	s.mu.Lock()
	defer s.mu.Unlock()

	nextIndex := s.wal.CurrentIndex() + 1
	return s.wal.Write(nextIndex, key, payload)
}

// EventsAfter returns cycle events written after the provided WAL index,
// optionally filtered by asset.
func (s *WALStore) EventsAfter(index uint64, asset string) ([]Record, error) {
	if s == nil || s.wal == nil {
		return nil, errors.New("decision store is not initialized")
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	current := s.wal.CurrentIndex()
	if current <= index {
		return nil, nil
	}

	wantKey := ""
	if asset != "" {
		wantKey = cycleKeyPrefix + strings.ToLower(asset)
	}

	records := make([]Record, 0, current-index)
	for idx := index + 1; idx <= current; idx++ {
		key, payload, err := s.wal.Get(idx)
		if err != nil {
			// segment may have been rotated away
			continue
		}
		if !strings.HasPrefix(key, cycleKeyPrefix) || (wantKey != "" && key != wantKey) {
			continue
		}

		var event domain.CycleEvent
		if err := json.Unmarshal(payload, &event); err != nil {
			return nil, errors.Wrap(err, "decode cycle event")
		}
		records = append(records, Record{Index: idx, Event: event})
	}

	return records, nil
}

// LastCycle returns the most recent journaled cycle of asset.
func (s *WALStore) LastCycle(asset string) (domain.CycleEvent, bool, error) {
	records, err := s.EventsAfter(0, asset)
	if err != nil {
		return domain.CycleEvent{}, false, err
	}
	if len(records) == 0 {
		return domain.CycleEvent{}, false, nil
	}
	return records[len(records)-1].Event, true, nil
}

// CurrentIndex returns the latest WAL index stored.
func (s *WALStore) CurrentIndex() uint64 {
	if s == nil || s.wal == nil {
		return 0
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.wal.CurrentIndex()
}

// Close closes the underlying WAL.
func (s *WALStore) Close() error {
	if s == nil || s.wal == nil {
		return errors.New("decision store is not initialized")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.wal.Close()
}
