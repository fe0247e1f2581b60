package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Stevem319/Stevechatravel/checkpoint"
	"github.com/Stevem319/Stevechatravel/metrics"
	"github.com/Stevem319/Stevechatravel/models"
	"github.com/Stevem319/Stevechatravel/scraper"
	"github.com/Stevem319/Stevechatravel/utils"
)

// RunnerConfig controls checkpoint cadence and lookup bounds
type RunnerConfig struct {
	FlushInterval int           // completions between checkpoint writes
	LookupTimeout time.Duration // bound on a single provider call
}

// Runner resolves every pending key of a checkpoint, one at a time
type Runner struct {
	provider   scraper.Provider
	normalizer *Normalizer
	metrics    *metrics.Metrics
	logger     *utils.Logger
	cfg        RunnerConfig
	now        func() time.Time
}

// RunnerOption configures a Runner
type RunnerOption func(*Runner)

// WithRunnerClock overrides the source of the query date
func WithRunnerClock(now func() time.Time) RunnerOption {
	return func(r *Runner) { r.now = now }
}

// NewRunner creates a Runner. m may be nil.
func NewRunner(provider scraper.Provider, cfg RunnerConfig, logger *utils.Logger, m *metrics.Metrics, opts ...RunnerOption) *Runner {
	if cfg.FlushInterval < 1 {
		cfg.FlushInterval = 10
	}
	if cfg.LookupTimeout <= 0 {
		cfg.LookupTimeout = 30 * time.Second
	}
	r := &Runner{
		provider:   provider,
		normalizer: NewNormalizer(logger),
		metrics:    m,
		logger:     logger,
		cfg:        cfg,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run visits the store's keys in order, skipping completed ones.
//
// A non-empty lookup completes its key. An empty lookup or a provider error leaves the
// key pending for the next run and counts as unfinished. The checkpoint is written as
// soon as FlushInterval keys have completed since the last write, and always on return.
// Cancelling ctx stops the loop between keys; the checkpoint is still written and
// the returned error wraps ctx.Err().
func (r *Runner) Run(ctx context.Context, store *checkpoint.Store, path string) (*models.RunReport, error) {
	report := &models.RunReport{
		RunID:          uuid.NewString(),
		Mode:           store.Mode(),
		CheckpointPath: path,
		TotalKeys:      store.Len(),
		StartedAt:      r.now(),
	}
	log := r.logger.With("run_id", report.RunID, "provider", r.provider.Name())
	today := models.DateOf(report.StartedAt)

	pending := store.Counts().Pending
	r.metrics.SetPending(pending)
	log.Info("Starting %s run: %d keys, %d pending, checkpoint %s", report.Mode, report.TotalKeys, pending, path)

	completedSinceSave := 0
	save := func() error {
		if err := checkpoint.Save(path, store); err != nil {
			return err
		}
		report.CheckpointSaves++
		r.metrics.CheckpointSaved()
		return nil
	}

	keys := store.Keys()
	for i, key := range keys {
		if ctx.Err() != nil {
			report.Interrupted = true
			break
		}
		if !store.IsPending(key) {
			report.AlreadyCompleted++
			continue
		}

		daysAhead := key.DepartureDate.DaysSince(today)
		itineraries, err := r.lookup(ctx, key)
		report.ProviderCalls++

		if err != nil {
			if ctx.Err() != nil {
				report.Interrupted = true
				break
			}
			log.Warn("Lookup failed for %s: %v", key, err)
			_ = store.RecordAttempt(key)
			report.Failed++
			report.Unfinished++
			r.metrics.KeyFailed()
			continue
		}

		records := r.normalizer.Normalize(key, itineraries, today, daysAhead)
		if len(records) == 0 {
			log.Debug("No flights for %s, leaving it pending", key)
			_ = store.RecordAttempt(key)
			report.Unfinished++
			r.metrics.KeyEmpty()
			continue
		}

		if err := store.MarkCompleted(key, records); err != nil {
			return report, fmt.Errorf("failed to record %s: %w", key, err)
		}
		pending--
		report.Resolved++
		report.FlightsFound += len(records)
		r.metrics.KeyResolved(len(records))
		r.metrics.SetPending(pending)
		completedSinceSave++

		log.Info("[%d/%d] %s: %d flights (%.1f avg over %d routes)",
			i+1, len(keys), key, len(records), report.AverageFlights(), report.Resolved)

		if completedSinceSave >= r.cfg.FlushInterval {
			if err := save(); err != nil {
				return report, fmt.Errorf("checkpoint save failed: %w", err)
			}
			completedSinceSave = 0
		}
	}

	if err := save(); err != nil {
		return report, fmt.Errorf("final checkpoint save failed: %w", err)
	}
	report.FinishedAt = r.now()

	log.Info("Run finished: %d resolved, %d unfinished (%d failed), %d flights, %d saves",
		report.Resolved, report.Unfinished, report.Failed, report.FlightsFound, report.CheckpointSaves)

	if report.Interrupted {
		return report, fmt.Errorf("run interrupted: %w", ctx.Err())
	}
	return report, nil
}

// lookup calls the provider under the per-lookup timeout
func (r *Runner) lookup(ctx context.Context, key models.WorkKey) ([]models.Itinerary, error) {
	lookupCtx, cancel := context.WithTimeout(ctx, r.cfg.LookupTimeout)
	defer cancel()

	start := time.Now()
	itineraries, err := r.provider.Search(lookupCtx, models.NewSearchRequest(key))
	r.metrics.ObserveLookup(time.Since(start))
	return itineraries, err
}
