package services

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/Stevem319/Stevechatravel/models"
)

func TestPrintRunReport(t *testing.T) {
	var buf bytes.Buffer
	start := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)
	PrintRunReport(&buf, &models.RunReport{
		RunID:        "abc",
		Mode:         models.ModeDomestic,
		TotalKeys:    20,
		Resolved:     4,
		FlightsFound: 10,
		Unfinished:   2,
		Failed:       1,
		Interrupted:  true,
		StartedAt:    start,
		FinishedAt:   start.Add(90 * time.Second),
	})

	out := buf.String()
	assert.Contains(t, out, "FLIGHT PRICE COLLECTION RUN")
	assert.Contains(t, out, "Avg flights per route   : 2.5")
	assert.Contains(t, out, "Unfinished              : 2 (1 failed)")
	assert.Contains(t, out, "1m30s")
	assert.Contains(t, out, "rerun to resume")
}

func TestPrintInsightReport(t *testing.T) {
	var buf bytes.Buffer
	days := 7
	PrintInsightReport(&buf, "ATL → FCO", &models.InsightReport{
		Loaded:   3,
		Matched:  2,
		Currency: "$",
		Flights: []models.PricedFlight{
			{FlightRow: models.FlightRow{Name: "A very long airline name that overflows", DepartureDate: "2025-03-10", Days: &days}, PriceValue: 399},
			{FlightRow: models.FlightRow{Name: "Delta", DepartureDate: "2025-03-11"}, PriceValue: 432},
		},
		Summary: []models.PriceSummary{{Name: "Delta", DepartureDate: "2025-03-11", MinPrice: 400, MaxPrice: 432}},
	}, 1)

	out := buf.String()
	assert.Contains(t, out, "CHEAPEST FLIGHTS (1 of 2)")
	assert.Contains(t, out, "A very long airline...")
	assert.Contains(t, out, "$399")
	assert.Contains(t, out, "7d trip")
	assert.Contains(t, out, "$400 - $432")

	buf.Reset()
	PrintInsightReport(&buf, "empty", &models.InsightReport{}, 10)
	assert.Contains(t, buf.String(), "No flights match")
}
