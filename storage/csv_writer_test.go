package storage

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Stevem319/Stevechatravel/models"
	"github.com/Stevem319/Stevechatravel/utils"
)

func sampleFlights() []models.PricedFlight {
	days := 9
	return []models.PricedFlight{
		{
			FlightRow:  models.FlightRow{ID: 3, Origin: "ATL", Destination: "FCO", Name: "Delta, ITA", Days: &days, Price: "$1,250", Stops: "1", DepartureDate: "2025-03-12"},
			PriceValue: 1250,
		},
		{
			FlightRow:  models.FlightRow{ID: 4, Origin: "ATL", Destination: "FCO", Name: "Delta", Price: "$399", Stops: "0", DepartureDate: "2025-03-10"},
			PriceValue: 399,
		},
	}
}

func TestCSVWriter_Write(t *testing.T) {
	var buf bytes.Buffer
	w := NewCSVWriter(utils.NewNopLogger())
	require.NoError(t, w.Write(&buf, sampleFlights()))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, csvHeader, records[0])
	assert.Equal(t, "Delta, ITA", records[1][3])
	assert.Equal(t, "9", records[1][4])
	assert.Equal(t, "$1,250", records[1][5])
	assert.Equal(t, "1250", records[1][6])
	assert.Equal(t, "", records[2][4])
}

func TestCSVWriter_WriteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "exports", "atl_fco.csv")
	w := NewCSVWriter(utils.NewNopLogger())
	require.NoError(t, w.WriteFile(path, sampleFlights()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "id,origin,destination")
	assert.Contains(t, string(data), "2025-03-10")
}
