// Package filestore persists one JSON file per device.
package filestore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"wifitracker/internal/logger"
	"wifitracker/pkg/models"
)

const suffix = ".json"

// Store keeps device records under a directory.
type Store struct {
	dir string
}

// New creates the directory if needed and returns a store rooted there.
func New(dir string) (*Store, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, fmt.Errorf("device store directory is empty")
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create device store directory: %w", err)
	}
	logger.Infof("Device file store initialized: %s", dir)
	return &Store{dir: dir}, nil
}

// Put replaces the device's file. The record is written to a temporary file
// and renamed into place, so a crash leaves either the old or the new record.
func (s *Store) Put(_ context.Context, rec models.DeviceRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to encode device record: %w", err)
	}

	tmp, err := os.CreateTemp(s.dir, ".device-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write device record: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to sync device record: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close device record: %w", err)
	}
	if err := os.Rename(tmpName, s.path(rec.DeviceMAC)); err != nil {
		return fmt.Errorf("failed to replace device record: %w", err)
	}
	return nil
}

// Get reads one device record.
func (s *Store) Get(_ context.Context, mac string) (models.DeviceRecord, bool, error) {
	data, err := os.ReadFile(s.path(mac))
	if errors.Is(err, os.ErrNotExist) {
		return models.DeviceRecord{}, false, nil
	}
	if err != nil {
		return models.DeviceRecord{}, false, fmt.Errorf("failed to read device record: %w", err)
	}
	var rec models.DeviceRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return models.DeviceRecord{}, false, fmt.Errorf("failed to decode device record %s: %w", mac, err)
	}
	return rec, true, nil
}

// All reads every device record, skipping unreadable files.
func (s *Store) All(_ context.Context) ([]models.DeviceRecord, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list device store: %w", err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), suffix) || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)

	out := make([]models.DeviceRecord, 0, len(names))
	for _, name := range names {
		data, err := os.ReadFile(filepath.Join(s.dir, name))
		if err != nil {
			logger.Warnf("Skipping unreadable device record %s: %v", name, err)
			continue
		}
		var rec models.DeviceRecord
		if err := json.Unmarshal(data, &rec); err != nil {
			logger.Warnf("Skipping corrupt device record %s: %v", name, err)
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}

// Close is a no-op.
func (s *Store) Close() error {
	return nil
}

func (s *Store) path(mac string) string {
	return filepath.Join(s.dir, strings.ReplaceAll(mac, ":", "-")+suffix)
}
