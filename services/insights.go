package services

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/Stevem319/Stevechatravel/models"
	"github.com/Stevem319/Stevechatravel/utils"
)

var (
	currencyRegex   = regexp.MustCompile(`^([^\d]+)`)
	nonNumericRegex = regexp.MustCompile(`[^\d.]`)
	defaultRowLimit = 1000
)

// InsightService applies the dashboard's post-load filters to flight rows
type InsightService struct {
	logger *utils.Logger
}

// NewInsightService creates a new InsightService
func NewInsightService(logger *utils.Logger) *InsightService {
	return &InsightService{logger: logger}
}

// Prepare parses price and departure date of every row. Rows where either
// fails to parse are dropped, not reported as errors.
func (s *InsightService) Prepare(rows []models.FlightRow) ([]models.PricedFlight, int) {
	out := make([]models.PricedFlight, 0, len(rows))
	dropped := 0
	for _, row := range rows {
		price, currency, ok := parsePrice(row.Price)
		if !ok {
			dropped++
			continue
		}
		dep, err := time.Parse(models.DateLayout, strings.TrimSpace(row.DepartureDate))
		if err != nil {
			dropped++
			continue
		}
		out = append(out, models.PricedFlight{
			FlightRow:  row,
			Currency:   currency,
			PriceValue: price,
			Departure:  dep,
		})
	}
	if dropped > 0 {
		s.logger.Debug("Dropped %d of %d rows with malformed price or date", dropped, len(rows))
	}
	return out, dropped
}

// parsePrice reads "$1,234" as 1234 with currency "$"
func parsePrice(raw string) (float64, string, bool) {
	numeric := nonNumericRegex.ReplaceAllString(raw, "")
	if numeric == "" {
		return 0, "", false
	}
	val, err := strconv.ParseFloat(numeric, 64)
	if err != nil {
		return 0, "", false
	}
	var currency string
	if m := currencyRegex.FindStringSubmatch(raw); len(m) == 2 {
		currency = m[1]
	}
	return val, currency, true
}

// Options reports the value ranges available for filtering
func (s *InsightService) Options(flights []models.PricedFlight) models.FilterOptions {
	opts := models.FilterOptions{
		Names:       []string{},
		TripLengths: []int{},
		Stops:       []int{},
	}
	if len(flights) == 0 {
		return opts
	}

	opts.MinPrice, opts.MaxPrice = flights[0].PriceValue, flights[0].PriceValue
	minDate, maxDate := flights[0].Departure, flights[0].Departure
	names := map[string]bool{}
	days := map[int]bool{}
	stops := map[int]bool{}

	for _, f := range flights {
		if f.PriceValue < opts.MinPrice {
			opts.MinPrice = f.PriceValue
		}
		if f.PriceValue > opts.MaxPrice {
			opts.MaxPrice = f.PriceValue
		}
		if f.Departure.Before(minDate) {
			minDate = f.Departure
		}
		if f.Departure.After(maxDate) {
			maxDate = f.Departure
		}
		if f.Name != "" && !names[f.Name] {
			names[f.Name] = true
			opts.Names = append(opts.Names, f.Name)
		}
		if f.Days != nil && !days[*f.Days] {
			days[*f.Days] = true
			opts.TripLengths = append(opts.TripLengths, *f.Days)
		}
		if n, ok := numericStops(f.Stops); ok && !stops[n] {
			stops[n] = true
			opts.Stops = append(opts.Stops, n)
		}
	}

	sort.Strings(opts.Names)
	sort.Ints(opts.TripLengths)
	sort.Ints(opts.Stops)
	opts.MinDate = minDate.Format(models.DateLayout)
	opts.MaxDate = maxDate.Format(models.DateLayout)
	return opts
}

func numericStops(s string) (int, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	n, err := strconv.Atoi(s)
	return n, err == nil
}

// Apply filters flights, sorts them by price ascending and truncates to the filter limit
func (s *InsightService) Apply(flights []models.PricedFlight, f models.FlightFilter) []models.PricedFlight {
	return limitRows(s.match(flights, f), f.Limit)
}

func limitRows(flights []models.PricedFlight, limit int) []models.PricedFlight {
	if limit <= 0 {
		limit = defaultRowLimit
	}
	if len(flights) > limit {
		return flights[:limit]
	}
	return flights
}

// match returns every flight passing f, cheapest first
func (s *InsightService) match(flights []models.PricedFlight, f models.FlightFilter) []models.PricedFlight {
	out := make([]models.PricedFlight, 0, len(flights))
	for _, fl := range flights {
		if f.PriceMin != nil && fl.PriceValue < *f.PriceMin {
			continue
		}
		if f.PriceMax != nil && fl.PriceValue > *f.PriceMax {
			continue
		}
		if f.DateFrom != nil && fl.Departure.Before(*f.DateFrom) {
			continue
		}
		if f.DateTo != nil && fl.Departure.After(*f.DateTo) {
			continue
		}
		if f.MaxStops != nil {
			n, ok := numericStops(fl.Stops)
			if !ok || n > *f.MaxStops {
				continue
			}
		}
		if f.Name != "" && fl.Name != f.Name {
			continue
		}
		if f.TripLength != nil && (fl.Days == nil || *fl.Days != *f.TripLength) {
			continue
		}
		out = append(out, fl)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].PriceValue < out[j].PriceValue
	})
	return out
}

type summaryKey struct {
	name     string
	date     string
	depart   string
	arrive   string
	duration string
	stops    string
	days     int
	hasDays  bool
}

// Summarize groups flights by itinerary and reports min and max price per group,
// ordered by departure date then departure time
func (s *InsightService) Summarize(flights []models.PricedFlight) []models.PriceSummary {
	index := map[summaryKey]int{}
	var out []models.PriceSummary

	for _, f := range flights {
		k := summaryKey{
			name:     f.Name,
			date:     f.Departure.Format(models.DateLayout),
			depart:   f.FlightDepart,
			arrive:   f.FlightArrive,
			duration: f.FlightDuration,
			stops:    f.Stops,
		}
		if f.Days != nil {
			k.days, k.hasDays = *f.Days, true
		}

		if i, ok := index[k]; ok {
			if f.PriceValue < out[i].MinPrice {
				out[i].MinPrice = f.PriceValue
			}
			if f.PriceValue > out[i].MaxPrice {
				out[i].MaxPrice = f.PriceValue
			}
			continue
		}
		index[k] = len(out)
		out = append(out, models.PriceSummary{
			Name:           f.Name,
			DepartureDate:  k.date,
			FlightDepart:   f.FlightDepart,
			FlightArrive:   f.FlightArrive,
			FlightDuration: f.FlightDuration,
			Stops:          f.Stops,
			Days:           f.Days,
			MinPrice:       f.PriceValue,
			MaxPrice:       f.PriceValue,
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].DepartureDate != out[j].DepartureDate {
			return out[i].DepartureDate < out[j].DepartureDate
		}
		return out[i].FlightDepart < out[j].FlightDepart
	})
	return out
}

// Generate runs the full dashboard pipeline over rows loaded from the flight table.
// The summary covers every match; only the row listing is truncated.
func (s *InsightService) Generate(rows []models.FlightRow, f models.FlightFilter) *models.InsightReport {
	priced, dropped := s.Prepare(rows)
	matched := s.match(priced, f)

	report := &models.InsightReport{
		Loaded:  len(rows),
		Dropped: dropped,
		Matched: len(matched),
		Flights: limitRows(matched, f.Limit),
		Summary: s.Summarize(matched),
	}
	if len(priced) > 0 {
		report.Currency = priced[0].Currency
	}

	if len(rows) == 0 {
		s.logger.Warn("No flight rows to generate insights from")
	}
	return report
}
