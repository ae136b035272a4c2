// Package history persists the append-only ledger of executed trades.
package history

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"github.com/vadiminshakov/voldca/internal/domain"
	"go.uber.org/zap"
)

const (
	DefaultDir   = "./data/history"
	backupSuffix = ".backup"
)

// JSONStore keeps one JSON array file per asset. Every append rewrites the whole
// file; the previous file is kept as a backup and restored if the write fails.
type JSONStore struct {
	l   *zap.Logger
	dir string
	mu  sync.Mutex
}

// NewJSONStore creates a file-backed history store in dir.
func NewJSONStore(l *zap.Logger, dir string) (*JSONStore, error) {
	if dir == "" {
		dir = DefaultDir
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrap(err, "create history dir")
	}

	return &JSONStore{l: l, dir: dir}, nil
}

// Path returns the history file for asset.
func (s *JSONStore) Path(asset string) string {
	return filepath.Join(s.dir, fmt.Sprintf("%s.json", strings.ToLower(asset)))
}

// Load returns the asset history in append order. A missing file is an empty history.
// A corrupt file falls back to the backup copy.
func (s *JSONStore) Load(_ context.Context, asset string) ([]domain.TradeRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.load(asset)
}

// Append adds rec to the asset history.
func (s *JSONStore) Append(_ context.Context, asset string, rec domain.TradeRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.load(asset)
	if err != nil {
		return errors.Wrapf(err, "load %s history before append", asset)
	}

	return s.save(asset, append(records, rec))
}

func (s *JSONStore) load(asset string) ([]domain.TradeRecord, error) {
	path := s.Path(asset)

	records, err := readRecords(path)
	if err == nil {
		return records, nil
	}

	backup, backupErr := readRecords(path + backupSuffix)
	if backupErr == nil {
		s.l.Warn("history file unreadable, using backup",
			zap.String("asset", asset),
			zap.String("path", path),
			zap.Error(err))

		return backup, nil
	}

	if errors.Is(err, os.ErrNotExist) && errors.Is(backupErr, os.ErrNotExist) {
		return []domain.TradeRecord{}, nil
	}

	return nil, errors.Wrapf(err, "read %s history", asset)
}

func (s *JSONStore) save(asset string, records []domain.TradeRecord) error {
	path := s.Path(asset)
	backup := path + backupSuffix

	payload, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return errors.Wrap(err, "encode history")
	}

	hadFile := true
	if err := os.Rename(path, backup); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return errors.Wrap(err, "back up history")
		}
		hadFile = false
	}

	tmp := path + ".tmp"
	writeErr := os.WriteFile(tmp, payload, 0o644)
	if writeErr == nil {
		writeErr = os.Rename(tmp, path)
	}
	if writeErr == nil {
		return nil
	}

	_ = os.Remove(tmp)
	if hadFile {
		if err := os.Rename(backup, path); err != nil {
			s.l.Error("failed to restore history backup",
				zap.String("asset", asset),
				zap.String("backup", backup),
				zap.Error(err))
		}
	}

	return errors.Wrapf(writeErr, "write %s history", asset)
}

func readRecords(path string) ([]domain.TradeRecord, error) {
	payload, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if len(strings.TrimSpace(string(payload))) == 0 {
		return []domain.TradeRecord{}, nil
	}

	var records []domain.TradeRecord
	if err := json.Unmarshal(payload, &records); err != nil {
		return nil, errors.Wrap(err, "decode history")
	}
	if records == nil {
		records = []domain.TradeRecord{}
	}

	return records, nil
}
