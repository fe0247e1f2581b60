package services

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Stevem319/Stevechatravel/checkpoint"
	"github.com/Stevem319/Stevechatravel/models"
	"github.com/Stevem319/Stevechatravel/utils"
)

type fakeWriter struct {
	created  int
	batches  [][]models.FlightRecord
	failWith error
}

func (w *fakeWriter) CreateTable(ctx context.Context) error {
	w.created++
	return nil
}

func (w *fakeWriter) BatchInsert(ctx context.Context, records []models.FlightRecord) error {
	if w.failWith != nil {
		return w.failWith
	}
	w.batches = append(w.batches, records)
	return nil
}

func writeCheckpoint(t *testing.T, path string, mode models.Mode, completed, pending int) {
	t.Helper()
	s := checkpoint.New(mode, runDay)
	dep := models.NewDate(2025, time.June, 2)
	for i := 0; i < completed+pending; i++ {
		key := models.OneWayKey("ATL", "SEA", dep.AddDays(i))
		if mode.RoundTrip() {
			key = models.RoundTripKey("ATL", "SEA", dep.AddDays(i), dep.AddDays(i+7))
		}
		s.Add(key)
		if i < completed {
			require.NoError(t, s.MarkCompleted(key, models.ResultSet{
				{Origin: "ATL", Destination: "SEA", Name: "Delta", Price: "$200", DepartureDate: key.DepartureDate},
			}))
		}
	}
	require.NoError(t, checkpoint.Save(path, s))
}

func TestCheckpointFilesSplitsByMode(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"2025-06-01_domestic.json", "2025-06-01_intl.json", "notes.txt", "old.json"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("{}"), 0644))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "archive.json"), 0755))

	domestic, err := CheckpointFiles(dir, models.ModeDomestic)
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "2025-06-01_domestic.json"), filepath.Join(dir, "old.json")}, domestic)

	intl, err := CheckpointFiles(dir, models.ModeInternational)
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "2025-06-01_intl.json")}, intl)

	_, err = CheckpointFiles(filepath.Join(dir, "missing"), models.ModeDomestic)
	assert.Error(t, err)
}

func TestLoadFilesAppendsCompletedRecordsPerFile(t *testing.T) {
	dir := t.TempDir()
	writeCheckpoint(t, filepath.Join(dir, "2025-06-01_domestic.json"), models.ModeDomestic, 3, 2)
	writeCheckpoint(t, filepath.Join(dir, "2025-06-02_domestic.json"), models.ModeDomestic, 1, 0)
	writeCheckpoint(t, filepath.Join(dir, "2025-06-01_intl.json"), models.ModeInternational, 4, 0)

	w := &fakeWriter{}
	result, err := NewLoader(w, utils.NewNopLogger()).LoadFiles(context.Background(), dir, models.ModeDomestic)
	require.NoError(t, err)

	assert.Equal(t, 1, w.created)
	require.Len(t, w.batches, 2)
	assert.Len(t, w.batches[0], 3)
	assert.Len(t, w.batches[1], 1)
	assert.Equal(t, 2, result.Loaded)
	assert.Equal(t, 4, result.Records)
	assert.Zero(t, result.Failed)
}

func TestLoadFilesContinuesPastBadFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "2025-06-01_domestic.json"), []byte(`{"mode":`), 0644))
	writeCheckpoint(t, filepath.Join(dir, "2025-06-02_domestic.json"), models.ModeDomestic, 2, 0)
	writeCheckpoint(t, filepath.Join(dir, "2025-06-03_domestic.json"), models.ModeInternational, 1, 0)

	w := &fakeWriter{}
	result, err := NewLoader(w, utils.NewNopLogger()).LoadFiles(context.Background(), dir, models.ModeDomestic)
	require.Error(t, err)
	assert.ErrorIs(t, err, checkpoint.ErrCorruptCheckpoint)
	assert.Contains(t, err.Error(), "2025-06-03_domestic.json")

	assert.Equal(t, 1, result.Loaded)
	assert.Equal(t, 2, result.Failed)
	assert.Equal(t, 2, result.Records)
}

func TestLoadFilesWriterFailure(t *testing.T) {
	dir := t.TempDir()
	writeCheckpoint(t, filepath.Join(dir, "a_domestic.json"), models.ModeDomestic, 1, 0)
	writeCheckpoint(t, filepath.Join(dir, "b_domestic.json"), models.ModeDomestic, 1, 0)

	w := &fakeWriter{failWith: errors.New("connection reset")}
	result, err := NewLoader(w, utils.NewNopLogger()).LoadFiles(context.Background(), dir, models.ModeDomestic)
	require.Error(t, err)
	assert.Equal(t, 2, result.Failed)
	assert.Zero(t, result.Records)
}

func TestLoadFilesEmptyDirectory(t *testing.T) {
	w := &fakeWriter{}
	result, err := NewLoader(w, utils.NewNopLogger()).LoadFiles(context.Background(), t.TempDir(), models.ModeInternational)
	require.NoError(t, err)
	assert.Empty(t, result.Files)
	assert.Zero(t, w.created)
}
