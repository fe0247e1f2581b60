package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/Stevem319/Stevechatravel/models"
)

// RunRecord GORM model for the scrape_runs table
type RunRecord struct {
	ID               string    `gorm:"column:id;primaryKey;size:36"`
	Mode             string    `gorm:"column:mode;size:16;index"`
	CheckpointPath   string    `gorm:"column:checkpoint_path"`
	TotalKeys        int       `gorm:"column:total_keys"`
	AlreadyCompleted int       `gorm:"column:already_completed"`
	ProviderCalls    int       `gorm:"column:provider_calls"`
	Resolved         int       `gorm:"column:resolved"`
	Unfinished       int       `gorm:"column:unfinished"`
	Failed           int       `gorm:"column:failed"`
	FlightsFound     int       `gorm:"column:flights_found"`
	CheckpointSaves  int       `gorm:"column:checkpoint_saves"`
	Interrupted      bool      `gorm:"column:interrupted"`
	StartedAt        time.Time `gorm:"column:started_at;index"`
	FinishedAt       time.Time `gorm:"column:finished_at"`
}

// TableName overrides the default table name
func (RunRecord) TableName() string {
	return "scrape_runs"
}

// RunRepository keeps the history of batch runs
type RunRepository struct {
	db *gorm.DB
}

// NewRunRepository wraps an open connection of the flight store in GORM
func NewRunRepository(db *sql.DB, dialect Dialect) (*RunRepository, error) {
	var dialector gorm.Dialector
	switch dialect {
	case DialectPostgres:
		dialector = postgres.New(postgres.Config{Conn: db})
	case DialectSQLite:
		dialector = &sqlite.Dialector{DriverName: string(DialectSQLite), Conn: db}
	default:
		return nil, fmt.Errorf("unsupported dialect %q", dialect)
	}

	gormDB, err := gorm.Open(dialector, &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize gorm: %w", err)
	}
	return &RunRepository{db: gormDB}, nil
}

// Migrate creates or updates the scrape_runs table
func (r *RunRepository) Migrate(ctx context.Context) error {
	if err := r.db.WithContext(ctx).AutoMigrate(&RunRecord{}); err != nil {
		return fmt.Errorf("failed to migrate scrape_runs: %w", err)
	}
	return nil
}

// Save records a finished run
func (r *RunRepository) Save(ctx context.Context, report *models.RunReport) error {
	rec := RunRecord{
		ID:               report.RunID,
		Mode:             string(report.Mode),
		CheckpointPath:   report.CheckpointPath,
		TotalKeys:        report.TotalKeys,
		AlreadyCompleted: report.AlreadyCompleted,
		ProviderCalls:    report.ProviderCalls,
		Resolved:         report.Resolved,
		Unfinished:       report.Unfinished,
		Failed:           report.Failed,
		FlightsFound:     report.FlightsFound,
		CheckpointSaves:  report.CheckpointSaves,
		Interrupted:      report.Interrupted,
		StartedAt:        report.StartedAt,
		FinishedAt:       report.FinishedAt,
	}
	if err := r.db.WithContext(ctx).Create(&rec).Error; err != nil {
		return fmt.Errorf("failed to save run %s: %w", report.RunID, err)
	}
	return nil
}

// List returns the most recent runs, newest first
func (r *RunRepository) List(ctx context.Context, limit int) ([]models.RunReport, error) {
	if limit <= 0 {
		limit = 20
	}

	var records []RunRecord
	result := r.db.WithContext(ctx).Order("started_at DESC").Limit(limit).Find(&records)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to list runs: %w", result.Error)
	}

	out := make([]models.RunReport, 0, len(records))
	for _, rec := range records {
		out = append(out, models.RunReport{
			RunID:            rec.ID,
			Mode:             models.Mode(rec.Mode),
			CheckpointPath:   rec.CheckpointPath,
			TotalKeys:        rec.TotalKeys,
			AlreadyCompleted: rec.AlreadyCompleted,
			ProviderCalls:    rec.ProviderCalls,
			Resolved:         rec.Resolved,
			Unfinished:       rec.Unfinished,
			Failed:           rec.Failed,
			FlightsFound:     rec.FlightsFound,
			CheckpointSaves:  rec.CheckpointSaves,
			Interrupted:      rec.Interrupted,
			StartedAt:        rec.StartedAt,
			FinishedAt:       rec.FinishedAt,
		})
	}
	return out, nil
}
