package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Stevem319/Stevechatravel/models"
	"github.com/Stevem319/Stevechatravel/utils"
)

func TestCleanCarrierName(t *testing.T) {
	cases := []struct {
		raw  string
		want string
	}{
		{"Learn moreeasyJet", "easyJet"},
		{"Delta", "Delta"},
		{"DeltaAir France", "Delta, Air France"},
		{"Delta, Air France", "Delta,  Air France"},
		{"Learn moreDeltaKLM", "Delta, KLM"},
		{"JetBlue", "JetBlue"},
		{"WestJet", "WestJet"},
		{"easyJetWizz Air", "easyJetWizz Air"},
		{"United, JetBlue", "United,  JetBlue"},
		{"SpiritAmericanUnited", "Spirit, AmericanUnited"},
		{"", ""},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, CleanCarrierName(c.raw), "raw %q", c.raw)
	}
}

func TestCleanCarrierNameRepairsKnownMisSplits(t *testing.T) {
	// each repair table entry is applied wherever the substring shows up
	assert.Equal(t, "Delta, easyJet", CleanCarrierName("Delta,easyJet"))
	assert.Equal(t, "JetBlue, Spirit", CleanCarrierName("JetBlue,Spirit"))
	assert.Equal(t, "WestJetAir", CleanCarrierName("WestJetAir"))
}

func TestCleanCarrierNameKeepsTextBetweenMarkers(t *testing.T) {
	assert.Equal(t, "Delta", CleanCarrierName("Details Learn moreDelta"))
	assert.Equal(t, "Delta", CleanCarrierName("Learn moreDeltaLearn more"))
	assert.Equal(t, "Delta", CleanCarrierName("Learn moreDeltaLearn moreKLM"))
	assert.Equal(t, "Delta, KLM", CleanCarrierName("Learn moreDeltaKLMLearn moreUnited"))
}

func TestNormalizeOneWay(t *testing.T) {
	n := NewNormalizer(utils.NewNopLogger())
	today := models.NewDate(2025, time.March, 1)
	key := models.OneWayKey("ATL", "SEA", today.AddDays(7))

	rs := n.Normalize(key, []models.Itinerary{
		models.RawItinerary{Name: "Learn moreDelta", RawPrice: "$432", Length: "5 hr", Depart: "8:00 AM", Arrive: "10:00 AM", StopCount: "0", StopInfo: "Nonstop"},
		nil,
		models.RawItinerary{Name: "Alaska", RawPrice: "$350", StopCount: "1"},
	}, today, 7)

	require.Len(t, rs, 2)
	first := rs[0]
	assert.Equal(t, "ATL", first.Origin)
	assert.Equal(t, "SEA", first.Destination)
	assert.Equal(t, "Delta", first.Name)
	assert.Nil(t, first.Days)
	assert.Equal(t, "$432", first.Price)
	assert.Equal(t, today, first.Today)
	assert.Equal(t, 7, first.DaysAhead)
	assert.Equal(t, "5 hr", first.FlightDuration)
	assert.Equal(t, "Nonstop", first.StopsInfo)
	assert.Equal(t, key.DepartureDate, first.DepartureDate)
	assert.Equal(t, "Alaska", rs[1].Name)
}

func TestNormalizeRoundTripCarriesTripLength(t *testing.T) {
	n := NewNormalizer(utils.NewNopLogger())
	today := models.NewDate(2025, time.March, 1)
	dep := today.AddDays(30)
	key := models.RoundTripKey("ATL", "FCO", dep, dep.AddDays(9))

	rs := n.Normalize(key, []models.Itinerary{models.RawItinerary{Name: "ITA", RawPrice: "$980"}}, today, 30)
	require.Len(t, rs, 1)
	require.NotNil(t, rs[0].Days)
	assert.Equal(t, 9, *rs[0].Days)
	assert.Equal(t, 30, rs[0].DaysAhead)
}

func TestNormalizeEmptyInput(t *testing.T) {
	n := NewNormalizer(utils.NewNopLogger())
	rs := n.Normalize(models.OneWayKey("ATL", "SEA", models.NewDate(2025, 1, 2)), nil, models.NewDate(2025, 1, 1), 1)
	assert.NotNil(t, rs)
	assert.Empty(t, rs)
}
