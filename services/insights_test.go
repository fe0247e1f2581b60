package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Stevem319/Stevechatravel/models"
	"github.com/Stevem319/Stevechatravel/utils"
)

func intPtr(v int) *int { return &v }
func floatPtr(v float64) *float64 { return &v }
func timePtr(v time.Time) *time.Time { return &v }

func sampleRows() []models.FlightRow {
	return []models.FlightRow{
		{ID: 1, Name: "Delta", Price: "$432", Stops: "0", DepartureDate: "2025-03-10", FlightDepart: "8:00 AM", Days: intPtr(7)},
		{ID: 2, Name: "ITA", Price: "$1,250", Stops: "1", DepartureDate: "2025-03-12", FlightDepart: "6:00 PM", Days: intPtr(9)},
		{ID: 3, Name: "Delta", Price: "$399", Stops: "0", DepartureDate: "2025-03-10", FlightDepart: "8:00 AM", Days: intPtr(7)},
		{ID: 4, Name: "Air France", Price: "$610", Stops: "Unknown", DepartureDate: "2025-03-11", Days: intPtr(7)},
		{ID: 5, Name: "Broken", Price: "Price unavailable", Stops: "0", DepartureDate: "2025-03-11"},
		{ID: 6, Name: "Broken", Price: "$100", Stops: "0", DepartureDate: "not a date"},
		{ID: 7, Name: "Lufthansa", Price: "$2", Stops: "2", DepartureDate: "2025-03-15", Days: intPtr(9)},
	}
}

func TestPrepareDropsMalformedRows(t *testing.T) {
	svc := NewInsightService(utils.NewNopLogger())
	priced, dropped := svc.Prepare(sampleRows())

	assert.Equal(t, 2, dropped)
	require.Len(t, priced, 5)
	assert.Equal(t, 1250.0, priced[1].PriceValue)
	assert.Equal(t, "$", priced[1].Currency)
	assert.Equal(t, time.Date(2025, 3, 12, 0, 0, 0, 0, time.UTC), priced[1].Departure)
}

func TestParsePrice(t *testing.T) {
	v, cur, ok := parsePrice("€1.234")
	require.True(t, ok)
	assert.Equal(t, 1.234, v)
	assert.Equal(t, "€", cur)

	_, _, ok = parsePrice("1.2.3")
	assert.False(t, ok)
	_, _, ok = parsePrice("")
	assert.False(t, ok)
}

func TestOptions(t *testing.T) {
	svc := NewInsightService(utils.NewNopLogger())
	priced, _ := svc.Prepare(sampleRows())
	opts := svc.Options(priced)

	assert.Equal(t, 2.0, opts.MinPrice)
	assert.Equal(t, 1250.0, opts.MaxPrice)
	assert.Equal(t, "2025-03-10", opts.MinDate)
	assert.Equal(t, "2025-03-15", opts.MaxDate)
	assert.Equal(t, []string{"Air France", "Delta", "ITA", "Lufthansa"}, opts.Names)
	assert.Equal(t, []int{7, 9}, opts.TripLengths)
	assert.Equal(t, []int{0, 1, 2}, opts.Stops)

	empty := svc.Options(nil)
	assert.Empty(t, empty.Names)
}

func TestApplyFiltersAndSortsByPrice(t *testing.T) {
	svc := NewInsightService(utils.NewNopLogger())
	priced, _ := svc.Prepare(sampleRows())

	all := svc.Apply(priced, models.FlightFilter{})
	require.Len(t, all, 5)
	assert.Equal(t, int64(7), all[0].ID)
	assert.Equal(t, int64(2), all[4].ID)

	got := svc.Apply(priced, models.FlightFilter{MaxStops: intPtr(1)})
	ids := []int64{}
	for _, f := range got {
		ids = append(ids, f.ID)
	}
	assert.Equal(t, []int64{3, 1, 2}, ids, "non-numeric stops never match a stop filter")

	got = svc.Apply(priced, models.FlightFilter{PriceMin: floatPtr(400), PriceMax: floatPtr(700)})
	require.Len(t, got, 2)
	assert.Equal(t, int64(1), got[0].ID)

	got = svc.Apply(priced, models.FlightFilter{
		DateFrom: timePtr(time.Date(2025, 3, 11, 0, 0, 0, 0, time.UTC)),
		DateTo:   timePtr(time.Date(2025, 3, 12, 0, 0, 0, 0, time.UTC)),
	})
	require.Len(t, got, 2)

	got = svc.Apply(priced, models.FlightFilter{Name: "Delta", TripLength: intPtr(7)})
	require.Len(t, got, 2)
	got = svc.Apply(priced, models.FlightFilter{TripLength: intPtr(9), Limit: 1})
	require.Len(t, got, 1)
	assert.Equal(t, "Lufthansa", got[0].Name)
}

func TestSummarizeGroupsMinMax(t *testing.T) {
	svc := NewInsightService(utils.NewNopLogger())
	priced, _ := svc.Prepare(sampleRows())
	summary := svc.Summarize(priced)

	require.Len(t, summary, 4)
	assert.Equal(t, "Delta", summary[0].Name)
	assert.Equal(t, 399.0, summary[0].MinPrice)
	assert.Equal(t, 432.0, summary[0].MaxPrice)
	assert.Equal(t, "2025-03-11", summary[1].DepartureDate)
	assert.Equal(t, "2025-03-15", summary[3].DepartureDate)
}

func TestGenerateSummarisesBeyondRowLimit(t *testing.T) {
	svc := NewInsightService(utils.NewNopLogger())
	report := svc.Generate(sampleRows(), models.FlightFilter{Limit: 2})

	assert.Equal(t, 7, report.Loaded)
	assert.Equal(t, 2, report.Dropped)
	assert.Equal(t, 5, report.Matched)
	assert.Len(t, report.Flights, 2)
	assert.Len(t, report.Summary, 4)
	assert.Equal(t, "$", report.Currency)
}
