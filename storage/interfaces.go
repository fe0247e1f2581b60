package storage

import (
	"context"

	"github.com/Stevem319/Stevechatravel/models"
)

// FlightWriter appends normalized records to a flight table
type FlightWriter interface {
	CreateTable(ctx context.Context) error
	BatchInsert(ctx context.Context, records []models.FlightRecord) error
}

// FlightReader reads rows back for the dashboard
type FlightReader interface {
	Query(ctx context.Context, origin, destination string) ([]models.FlightRow, error)
}

// RunStore persists run history
type RunStore interface {
	Save(ctx context.Context, report *models.RunReport) error
	List(ctx context.Context, limit int) ([]models.RunReport, error)
}

var (
	_ FlightWriter = (*FlightTable)(nil)
	_ FlightReader = (*FlightTable)(nil)
	_ RunStore     = (*RunRepository)(nil)
)
