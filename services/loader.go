package services

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/hashicorp/go-multierror"

	"github.com/Stevem319/Stevechatravel/checkpoint"
	"github.com/Stevem319/Stevechatravel/models"
	"github.com/Stevem319/Stevechatravel/storage"
	"github.com/Stevem319/Stevechatravel/utils"
)

// LoadResult counts what a LoadFiles call appended
type LoadResult struct {
	Files   []string `json:"files"`
	Loaded  int      `json:"loaded"`
	Failed  int      `json:"failed"`
	Records int      `json:"records"`
}

// Loader appends completed checkpoint records to the flight table of one mode
type Loader struct {
	writer storage.FlightWriter
	logger *utils.Logger
}

// NewLoader creates a new Loader
func NewLoader(writer storage.FlightWriter, logger *utils.Logger) *Loader {
	return &Loader{writer: writer, logger: logger}
}

// CheckpointFiles lists the checkpoint files in dir belonging to mode:
// names containing "intl" for international, every other .json for domestic
func CheckpointFiles(dir string, mode models.Mode) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read checkpoint directory: %w", err)
	}

	var files []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || filepath.Ext(name) != ".json" {
			continue
		}
		isIntl := strings.Contains(name, string(models.ModeInternational))
		if isIntl == (mode == models.ModeInternational) {
			files = append(files, filepath.Join(dir, name))
		}
	}
	sort.Strings(files)
	return files, nil
}

// LoadFiles appends the completed records of every checkpoint file for mode in dir,
// one transaction per file. A failing file does not stop the others; all failures
// are returned together. Loading is append-only, so loading a file twice duplicates its rows.
func (l *Loader) LoadFiles(ctx context.Context, dir string, mode models.Mode) (*LoadResult, error) {
	files, err := CheckpointFiles(dir, mode)
	if err != nil {
		return nil, err
	}

	result := &LoadResult{Files: files}
	if len(files) == 0 {
		l.logger.Warn("No %s checkpoint files found in %s", mode, dir)
		return result, nil
	}

	if err := l.writer.CreateTable(ctx); err != nil {
		return nil, err
	}

	var errs *multierror.Error
	for _, path := range files {
		if err := ctx.Err(); err != nil {
			errs = multierror.Append(errs, err)
			break
		}

		n, err := l.loadFile(ctx, path, mode)
		if err != nil {
			l.logger.Error("Failed to load %s: %v", path, err)
			result.Failed++
			errs = multierror.Append(errs, fmt.Errorf("%s: %w", filepath.Base(path), err))
			continue
		}
		result.Loaded++
		result.Records += n
		l.logger.Info("Loaded %d records from %s", n, path)
	}

	return result, errs.ErrorOrNil()
}

func (l *Loader) loadFile(ctx context.Context, path string, mode models.Mode) (int, error) {
	store, err := checkpoint.Load(path)
	if err != nil {
		return 0, err
	}
	if store.Mode() != mode {
		return 0, fmt.Errorf("checkpoint mode is %s, want %s", store.Mode(), mode)
	}

	records := store.Records()
	if err := l.writer.BatchInsert(ctx, records); err != nil {
		return 0, err
	}
	return len(records), nil
}
