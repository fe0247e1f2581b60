package checkpoint

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/Stevem319/Stevechatravel/models"
)

var (
	// ErrCheckpointNotFound is returned by Load when no checkpoint file exists
	ErrCheckpointNotFound = errors.New("checkpoint not found")
	// ErrCorruptCheckpoint is returned when a checkpoint file exists but cannot be decoded
	ErrCorruptCheckpoint = errors.New("corrupt checkpoint")
)

type fileFormat struct {
	Mode      models.Mode       `json:"mode"`
	CreatedAt time.Time         `json:"created_at"`
	Items     []models.WorkItem `json:"items"`
}

// DefaultPath names the checkpoint for a mode started on date, e.g. logs/2025-01-02_intl.json
func DefaultPath(dir string, mode models.Mode, date models.Date) string {
	return filepath.Join(dir, fmt.Sprintf("%s_%s.json", date, mode))
}

// Load reads a checkpoint. A missing file is ErrCheckpointNotFound;
// a file that cannot be decoded is ErrCorruptCheckpoint.
func Load(path string) (*Store, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrCheckpointNotFound, path)
		}
		return nil, fmt.Errorf("failed to read checkpoint %s: %w", path, err)
	}
	return decode(path, data)
}

// LoadOrNew loads path, or returns an empty store for mode if the file does not exist.
// An existing file recorded for another mode is rejected.
func LoadOrNew(path string, mode models.Mode, now time.Time) (*Store, error) {
	s, err := Load(path)
	if errors.Is(err, ErrCheckpointNotFound) {
		return New(mode, now), nil
	}
	if err != nil {
		return nil, err
	}
	if s.mode != mode {
		return nil, fmt.Errorf("checkpoint %s holds %s keys, not %s", path, s.mode, mode)
	}
	return s, nil
}

func decode(path string, data []byte) (*Store, error) {
	var f fileFormat
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCorruptCheckpoint, path, err)
	}
	mode, err := models.ParseMode(string(f.Mode))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCorruptCheckpoint, path, err)
	}

	s := New(mode, f.CreatedAt)
	for i := range f.Items {
		item := f.Items[i]
		if err := item.Key.Validate(); err != nil {
			return nil, fmt.Errorf("%w: %s: item %d: %v", ErrCorruptCheckpoint, path, i, err)
		}
		if item.Key.IsRoundTrip() != mode.RoundTrip() {
			return nil, fmt.Errorf("%w: %s: item %d: %s key in %s checkpoint",
				ErrCorruptCheckpoint, path, i, tripKind(item.Key), mode)
		}
		id := item.Key.String()
		if _, dup := s.items[id]; dup {
			return nil, fmt.Errorf("%w: %s: duplicate key %s", ErrCorruptCheckpoint, path, id)
		}
		if item.IsPending() {
			item.Flights = nil
		} else if item.Flights == nil {
			item.Flights = models.ResultSet{}
		}
		s.order = append(s.order, id)
		s.items[id] = &item
	}
	return s, nil
}

func tripKind(k models.WorkKey) string {
	if k.IsRoundTrip() {
		return "round-trip"
	}
	return "one-way"
}

func encode(s *Store) ([]byte, error) {
	f := fileFormat{
		Mode:      s.mode,
		CreatedAt: s.createdAt,
		Items:     make([]models.WorkItem, len(s.order)),
	}
	for i, id := range s.order {
		f.Items[i] = *s.items[id]
	}
	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// Save writes the store to path through a temp file in the same directory,
// so readers only ever see the old or the new complete file.
func Save(path string, s *Store) error {
	data, err := encode(s)
	if err != nil {
		return fmt.Errorf("failed to encode checkpoint: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create checkpoint directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp checkpoint: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		if err != nil {
			_ = os.Remove(tmpName)
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write temp checkpoint: %w", err)
	}
	if err = tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to sync temp checkpoint: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp checkpoint: %w", err)
	}
	if err = os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("failed to replace checkpoint: %w", err)
	}
	return nil
}
