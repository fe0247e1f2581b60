package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/Stevem319/Stevechatravel/checkpoint"
	"github.com/Stevem319/Stevechatravel/config"
	"github.com/Stevem319/Stevechatravel/itinerary"
	"github.com/Stevem319/Stevechatravel/metrics"
	"github.com/Stevem319/Stevechatravel/models"
	"github.com/Stevem319/Stevechatravel/scraper"
	"github.com/Stevem319/Stevechatravel/scraper/googleflights"
	"github.com/Stevem319/Stevechatravel/server"
	"github.com/Stevem319/Stevechatravel/services"
	"github.com/Stevem319/Stevechatravel/storage"
	"github.com/Stevem319/Stevechatravel/utils"
)

const metricsNamespace = "flight_scraper"

type app struct {
	cfg    *config.Config
	logger *utils.Logger
}

func newFlagSet(name string) *flag.FlagSet {
	return flag.NewFlagSet(name, flag.ContinueOnError)
}

// parse returns false when the command should stop without error (-h)
func parse(fs *flag.FlagSet, args []string) (bool, error) {
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// ================== generate ====================

func (a *app) generate(ctx context.Context, args []string) error {
	fs := newFlagSet("generate")
	modeFlag := fs.String("mode", "domestic", "domestic or intl")
	path := fs.String("checkpoint", "", "checkpoint file (default <CHECKPOINT_DIR>/<today>_<mode>.json)")
	seed := fs.Int64("seed", 0, "random seed for international date sampling (0 = time based)")
	if ok, err := parse(fs, args); !ok {
		return err
	}

	_, err := a.generateKeys(*modeFlag, *path, *seed)
	return err
}

func (a *app) generateKeys(modeName, path string, seed int64) (string, error) {
	mode, err := models.ParseMode(modeName)
	if err != nil {
		return "", err
	}
	routes, err := config.LoadRoutes(a.cfg.RoutesFile)
	if err != nil {
		return "", err
	}

	var opts []itinerary.Option
	if seed != 0 {
		opts = append(opts, itinerary.WithRand(rand.New(rand.NewSource(seed))))
	}
	gen := itinerary.NewGenerator(opts...)

	var keys []models.WorkKey
	switch mode {
	case models.ModeDomestic:
		keys, err = gen.Domestic(routes.Domestic(), a.cfg.DomesticDays)
	case models.ModeInternational:
		keys, err = gen.International(routes.International(), a.cfg.IntlDays, a.cfg.IntlSamples)
	}
	if err != nil {
		return "", fmt.Errorf("failed to generate %s keys: %w", mode, err)
	}

	if path == "" {
		path = checkpoint.DefaultPath(a.cfg.CheckpointDir, mode, gen.Today())
	}

	store, err := checkpoint.LoadOrNew(path, mode, time.Now())
	if err != nil {
		return "", err
	}
	added := store.AddAll(keys)
	if err := checkpoint.Save(path, store); err != nil {
		return "", err
	}

	c := store.Counts()
	a.logger.Info("Generated %d %s keys, %d new | checkpoint %s holds %d (%d pending)",
		len(keys), mode, added, path, c.Total, c.Pending)
	return path, nil
}

// ================== run ====================

func (a *app) run(ctx context.Context, args []string) error {
	fs := newFlagSet("run")
	path := fs.String("checkpoint", "", "checkpoint file to resume (required)")
	if ok, err := parse(fs, args); !ok {
		return err
	}
	if *path == "" {
		return errors.New("-checkpoint is required")
	}
	return a.runCheckpoint(ctx, *path)
}

func (a *app) runCheckpoint(ctx context.Context, path string) error {
	store, err := checkpoint.Load(path)
	if err != nil {
		return err
	}

	m := metrics.NewMetrics(metricsNamespace)
	if a.cfg.MetricsPort != "" {
		shutdown := a.serveMetrics(m)
		defer shutdown()
	}

	// =============== Provider ===================================
	flights := googleflights.NewScraper(a.cfg, a.logger)
	defer flights.Close()

	cache := a.lookupCache()
	defer cache.Close()
	provider := scraper.NewCachedProvider(flights, cache, a.logger)

	// =============== Batch run ===================================
	runner := services.NewRunner(provider, services.RunnerConfig{
		FlushInterval: a.cfg.FlushInterval,
		LookupTimeout: a.cfg.LookupTimeout,
	}, a.logger, m)

	report, runErr := runner.Run(ctx, store, path)
	if report != nil {
		services.PrintRunReport(os.Stdout, report)
		a.recordRun(report)
	}
	return runErr
}

// lookupCache returns the redis lookup cache, or a no-op cache when caching
// is disabled or redis cannot be reached
func (a *app) lookupCache() scraper.Cache {
	if !a.cfg.CacheEnabled {
		return scraper.NewNoOpCache()
	}

	rc := scraper.DefaultRedisConfig()
	if a.cfg.RedisHost != "" {
		rc.Host = a.cfg.RedisHost
	}
	if a.cfg.RedisPort != "" {
		rc.Port = a.cfg.RedisPort
	}
	if a.cfg.CacheTTL > 0 {
		rc.TTL = a.cfg.CacheTTL
	}
	rc.Password = a.cfg.RedisPassword
	rc.DB = a.cfg.RedisDB

	cache, err := scraper.NewRedisCache(rc)
	if err != nil {
		a.logger.Warn("Redis unavailable, running without lookup cache: %v", err)
		return scraper.NewNoOpCache()
	}
	a.logger.Info("Lookup cache enabled (%s:%s, TTL %v)", rc.Host, rc.Port, rc.TTL)
	return cache
}

// recordRun stores the run in scrape_runs; a missing database only costs the history entry
func (a *app) recordRun(report *models.RunReport) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	db, dialect, err := storage.Open(a.cfg.DatabaseDriver, a.cfg.DatabaseURL, a.logger)
	if err != nil {
		a.logger.Warn("Run %s not recorded: %v", report.RunID, err)
		return
	}
	defer db.Close()

	repo, err := storage.NewRunRepository(db, dialect)
	if err == nil {
		err = repo.Migrate(ctx)
	}
	if err == nil {
		err = repo.Save(ctx, report)
	}
	if err != nil {
		a.logger.Warn("Run %s not recorded: %v", report.RunID, err)
	}
}

func (a *app) serveMetrics(m *metrics.Metrics) func() {
	srv := &http.Server{
		Addr:              ":" + a.cfg.MetricsPort,
		Handler:           m.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		a.logger.Info("Serving metrics on :%s/metrics", a.cfg.MetricsPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Warn("Metrics server stopped: %v", err)
		}
	}()
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}
}

// ================== scrape ====================

func (a *app) scrape(ctx context.Context, args []string) error {
	fs := newFlagSet("scrape")
	modeFlag := fs.String("mode", "domestic", "domestic or intl")
	path := fs.String("checkpoint", "", "checkpoint file (default <CHECKPOINT_DIR>/<today>_<mode>.json)")
	seed := fs.Int64("seed", 0, "random seed for international date sampling (0 = time based)")
	if ok, err := parse(fs, args); !ok {
		return err
	}

	resolved, err := a.generateKeys(*modeFlag, *path, *seed)
	if err != nil {
		return err
	}
	return a.runCheckpoint(ctx, resolved)
}

// ================== load ====================

func (a *app) load(ctx context.Context, args []string) error {
	fs := newFlagSet("load")
	modeFlag := fs.String("mode", "domestic", "domestic or intl")
	dir := fs.String("dir", a.cfg.CheckpointDir, "directory holding checkpoint files")
	if ok, err := parse(fs, args); !ok {
		return err
	}

	mode, err := models.ParseMode(*modeFlag)
	if err != nil {
		return err
	}

	db, dialect, err := storage.Open(a.cfg.DatabaseDriver, a.cfg.DatabaseURL, a.logger)
	if err != nil {
		return err
	}
	defer db.Close()

	table := storage.NewFlightTable(db, dialect, mode, a.logger)
	result, err := services.NewLoader(table, a.logger).LoadFiles(ctx, *dir, mode)
	if result != nil {
		a.logger.Info("Loaded %d of %d files into %s (%d records, %d failed)",
			result.Loaded, len(result.Files), table.Name(), result.Records, result.Failed)
	}
	return err
}

// ================== query / export ====================

type filterFlags struct {
	origin      string
	destination string
	filter      models.FlightFilter
}

func (f *filterFlags) register(fs *flag.FlagSet, defaultLimit int) {
	fs.StringVar(&f.origin, "origin", "", "origin airport (required)")
	fs.StringVar(&f.destination, "destination", "", "destination airport (required)")
	fs.StringVar(&f.filter.Name, "name", "", "exact carrier name")
	fs.IntVar(&f.filter.Limit, "limit", defaultLimit, "maximum rows returned")
	fs.Func("from", "earliest departure date (YYYY-MM-DD)", func(v string) error {
		t, err := time.Parse(models.DateLayout, v)
		f.filter.DateFrom = &t
		return err
	})
	fs.Func("to", "latest departure date (YYYY-MM-DD)", func(v string) error {
		t, err := time.Parse(models.DateLayout, v)
		f.filter.DateTo = &t
		return err
	})
	fs.Func("min-price", "minimum price", func(v string) error {
		p, err := strconv.ParseFloat(v, 64)
		f.filter.PriceMin = &p
		return err
	})
	fs.Func("max-price", "maximum price", func(v string) error {
		p, err := strconv.ParseFloat(v, 64)
		f.filter.PriceMax = &p
		return err
	})
	fs.Func("max-stops", "maximum number of stops", func(v string) error {
		n, err := strconv.Atoi(v)
		f.filter.MaxStops = &n
		return err
	})
	fs.Func("trip-length", "trip length in days (round trips only)", func(v string) error {
		n, err := strconv.Atoi(v)
		f.filter.TripLength = &n
		return err
	})
}

// rows resolves the route's data set and reads its rows
func (a *app) rows(ctx context.Context, f *filterFlags) ([]models.FlightRow, error) {
	f.origin = strings.ToUpper(strings.TrimSpace(f.origin))
	f.destination = strings.ToUpper(strings.TrimSpace(f.destination))
	if f.origin == "" || f.destination == "" {
		return nil, errors.New("-origin and -destination are required")
	}

	routes, err := config.LoadRoutes(a.cfg.RoutesFile)
	if err != nil {
		return nil, err
	}
	mode, ok := routes.ModeFor(f.origin, f.destination)
	if !ok {
		return nil, fmt.Errorf("no configured route between %s and %s", f.origin, f.destination)
	}

	db, dialect, err := storage.Open(a.cfg.DatabaseDriver, a.cfg.DatabaseURL, a.logger)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	table := storage.NewFlightTable(db, dialect, mode, a.logger)
	if err := table.CreateTable(ctx); err != nil {
		return nil, err
	}
	return table.Query(ctx, f.origin, f.destination)
}

func (a *app) query(ctx context.Context, args []string) error {
	fs := newFlagSet("query")
	var f filterFlags
	f.register(fs, a.cfg.ResultLimit)
	maxRows := fs.Int("rows", 25, "rows printed to the terminal")
	if ok, err := parse(fs, args); !ok {
		return err
	}

	rows, err := a.rows(ctx, &f)
	if err != nil {
		return err
	}

	report := services.NewInsightService(a.logger).Generate(rows, f.filter)
	services.PrintInsightReport(os.Stdout, fmt.Sprintf("%s ⇄ %s", f.origin, f.destination), report, *maxRows)
	return nil
}

func (a *app) export(ctx context.Context, args []string) error {
	fs := newFlagSet("export")
	var f filterFlags
	f.register(fs, a.cfg.ResultLimit)
	out := fs.String("out", a.cfg.CSVFilePath, "CSV file to write")
	if ok, err := parse(fs, args); !ok {
		return err
	}

	rows, err := a.rows(ctx, &f)
	if err != nil {
		return err
	}

	insights := services.NewInsightService(a.logger)
	priced, _ := insights.Prepare(rows)
	return storage.NewCSVWriter(a.logger).WriteFile(*out, insights.Apply(priced, f.filter))
}

// ================== serve ====================

func (a *app) serve(ctx context.Context, args []string) error {
	fs := newFlagSet("serve")
	port := fs.String("port", a.cfg.Port, "HTTP port")
	if ok, err := parse(fs, args); !ok {
		return err
	}

	routes, err := config.LoadRoutes(a.cfg.RoutesFile)
	if err != nil {
		return err
	}

	db, dialect, err := storage.Open(a.cfg.DatabaseDriver, a.cfg.DatabaseURL, a.logger)
	if err != nil {
		return err
	}
	defer db.Close()

	readers, err := a.flightTables(ctx, db, dialect)
	if err != nil {
		return err
	}

	var runs storage.RunStore
	repo, err := storage.NewRunRepository(db, dialect)
	if err == nil {
		err = repo.Migrate(ctx)
	}
	if err != nil {
		a.logger.Warn("Run history unavailable: %v", err)
	} else {
		runs = repo
	}

	h := server.NewFlightHandler(routes, readers, runs, a.cfg.ResultLimit, a.logger)
	e := server.New(h, metrics.NewMetrics(metricsNamespace))
	return server.Run(ctx, e, server.Config{
		Port:         *port,
		ReadTimeout:  a.cfg.ReadTimeout,
		WriteTimeout: a.cfg.WriteTimeout,
	}, a.logger)
}

// flightTables makes sure both flight tables exist so a fresh database serves empty results
func (a *app) flightTables(ctx context.Context, db *sql.DB, dialect storage.Dialect) (map[models.Mode]storage.FlightReader, error) {
	readers := map[models.Mode]storage.FlightReader{}
	for _, mode := range []models.Mode{models.ModeDomestic, models.ModeInternational} {
		table := storage.NewFlightTable(db, dialect, mode, a.logger)
		if err := table.CreateTable(ctx); err != nil {
			return nil, err
		}
		readers[mode] = table
	}
	return readers, nil
}
