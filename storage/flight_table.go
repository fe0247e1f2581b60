package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/Stevem319/Stevechatravel/models"
	"github.com/Stevem319/Stevechatravel/utils"
)

var flightColumns = []string{
	"origin", "destination", "name", "days", "price", "today", "days_ahead",
	"flight_duration", "flight_depart", "flight_arrive", "stops", "stops_info", "departure_date",
}

// TableName returns the flight table holding a mode's records
func TableName(mode models.Mode) string {
	return "flights_" + string(mode)
}

// FlightTable is the append-only flight table of one mode
type FlightTable struct {
	db      *sql.DB
	dialect Dialect
	table   string
	logger  *utils.Logger
}

// NewFlightTable binds to the table of mode
func NewFlightTable(db *sql.DB, dialect Dialect, mode models.Mode, logger *utils.Logger) *FlightTable {
	return &FlightTable{db: db, dialect: dialect, table: TableName(mode), logger: logger}
}

func (t *FlightTable) Name() string {
	return t.table
}

// CreateTable creates the table and its route index if they don't exist
func (t *FlightTable) CreateTable(ctx context.Context) error {
	idType := "INTEGER PRIMARY KEY"
	if t.dialect == DialectPostgres {
		idType = "BIGSERIAL PRIMARY KEY"
	}

	stmts := []string{
		fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id              %s,
			origin          TEXT NOT NULL,
			destination     TEXT NOT NULL,
			name            TEXT,
			days            INTEGER,
			price           TEXT,
			today           TEXT,
			days_ahead      INTEGER,
			flight_duration TEXT,
			flight_depart   TEXT,
			flight_arrive   TEXT,
			stops           TEXT,
			stops_info      TEXT,
			departure_date  TEXT
		)`, t.table, idType),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS idx_%s_route ON %s (origin, destination)`, t.table, t.table),
	}

	for _, stmt := range stmts {
		if _, err := t.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create table %s: %w", t.table, err)
		}
	}
	t.logger.Info("Table '%s' is ready", t.table)
	return nil
}

// BatchInsert appends records in a single transaction. Any failing row rolls back the batch.
func (t *FlightTable) BatchInsert(ctx context.Context, records []models.FlightRecord) (err error) {
	if len(records) == 0 {
		return nil
	}

	tx, err := t.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		t.table, strings.Join(flightColumns, ", "), t.dialect.placeholders(len(flightColumns)))
	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, r := range records {
		var days interface{}
		if r.Days != nil {
			days = int64(*r.Days)
		}
		_, err = stmt.ExecContext(ctx,
			r.Origin,
			r.Destination,
			r.Name,
			days,
			r.Price,
			r.Today.String(),
			r.DaysAhead,
			r.FlightDuration,
			r.FlightDepart,
			r.FlightArrive,
			r.Stops,
			r.StopsInfo,
			r.DepartureDate.String(),
		)
		if err != nil {
			return fmt.Errorf("failed to insert %s-%s %s: %w", r.Origin, r.Destination, r.DepartureDate, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	t.logger.Debug("Inserted %d rows into %s", len(records), t.table)
	return nil
}

// Query returns every row matching the given origin and destination; empty values are not filtered on
func (t *FlightTable) Query(ctx context.Context, origin, destination string) ([]models.FlightRow, error) {
	query := fmt.Sprintf("SELECT id, %s FROM %s WHERE 1=1", strings.Join(flightColumns, ", "), t.table)
	var args []interface{}
	if origin != "" {
		args = append(args, origin)
		query += " AND origin = " + t.dialect.Placeholder(len(args))
	}
	if destination != "" {
		args = append(args, destination)
		query += " AND destination = " + t.dialect.Placeholder(len(args))
	}
	query += " ORDER BY id"

	rows, err := t.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", t.table, err)
	}
	defer rows.Close()

	var out []models.FlightRow
	for rows.Next() {
		var row models.FlightRow
		var days, daysAhead sql.NullInt64
		var name, price, today, duration, depart, arrive, stops, stopsInfo, departureDate sql.NullString
		if err := rows.Scan(&row.ID, &row.Origin, &row.Destination, &name, &days, &price, &today, &daysAhead,
			&duration, &depart, &arrive, &stops, &stopsInfo, &departureDate); err != nil {
			return nil, fmt.Errorf("failed to scan %s row: %w", t.table, err)
		}
		if days.Valid {
			d := int(days.Int64)
			row.Days = &d
		}
		row.Name = name.String
		row.Price = price.String
		row.Today = today.String
		row.DaysAhead = int(daysAhead.Int64)
		row.FlightDuration = duration.String
		row.FlightDepart = depart.String
		row.FlightArrive = arrive.String
		row.Stops = stops.String
		row.StopsInfo = stopsInfo.String
		row.DepartureDate = departureDate.String
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read %s rows: %w", t.table, err)
	}
	return out, nil
}
