package storage

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/Stevem319/Stevechatravel/models"
	"github.com/Stevem319/Stevechatravel/utils"
)

var csvHeader = []string{
	"id", "origin", "destination", "name", "days", "price", "price_value",
	"today", "days_ahead", "flight_duration", "flight_depart", "flight_arrive",
	"stops", "stops_info", "departure_date",
}

// CSVWriter exports filtered flight rows as CSV
type CSVWriter struct {
	logger *utils.Logger
}

// NewCSVWriter creates a new CSVWriter
func NewCSVWriter(logger *utils.Logger) *CSVWriter {
	return &CSVWriter{logger: logger}
}

// WriteFile writes flights to filePath, creating its directory
func (w *CSVWriter) WriteFile(filePath string, flights []models.PricedFlight) error {
	dir := filepath.Dir(filePath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	file, err := os.Create(filePath)
	if err != nil {
		return fmt.Errorf("failed to create CSV file: %w", err)
	}
	defer file.Close()

	if err := w.Write(file, flights); err != nil {
		return err
	}

	w.logger.Info("Flights written to: %s (%d rows)", filePath, len(flights))
	return nil
}

// Write streams flights as CSV to out
func (w *CSVWriter) Write(out io.Writer, flights []models.PricedFlight) error {
	writer := csv.NewWriter(out)

	if err := writer.Write(csvHeader); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, f := range flights {
		days := ""
		if f.Days != nil {
			days = strconv.Itoa(*f.Days)
		}
		row := []string{
			strconv.FormatInt(f.ID, 10),
			f.Origin,
			f.Destination,
			f.Name,
			days,
			f.Price,
			strconv.FormatFloat(f.PriceValue, 'f', -1, 64),
			f.Today,
			strconv.Itoa(f.DaysAhead),
			f.FlightDuration,
			f.FlightDepart,
			f.FlightArrive,
			f.Stops,
			f.StopsInfo,
			f.DepartureDate,
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write CSV row %d: %w", f.ID, err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("failed to flush CSV: %w", err)
	}
	return nil
}
