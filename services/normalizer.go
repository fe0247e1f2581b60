package services

import (
	"strings"

	"github.com/Stevem319/Stevechatravel/models"
	"github.com/Stevem319/Stevechatravel/utils"
)

// boilerplateMarker precedes the carrier list in some provider names
const boilerplateMarker = "Learn more"

// misSplits repairs names the camel-case split breaks apart. Applied in order.
var misSplits = []struct{ broken, fixed string }{
	{"easy, Jet", "easyJet"},
	{"Jet, Blue", "JetBlue"},
	{"West, Jet", "WestJet"},
}

// Normalizer reshapes provider itineraries into flight records
type Normalizer struct {
	logger *utils.Logger
}

// NewNormalizer creates a new Normalizer
func NewNormalizer(logger *utils.Logger) *Normalizer {
	return &Normalizer{logger: logger}
}

// Normalize builds one FlightRecord per itinerary, all sharing key's route and dates.
// Days is set only for round-trip keys.
func (n *Normalizer) Normalize(key models.WorkKey, itineraries []models.Itinerary, queryDate models.Date, daysAhead int) models.ResultSet {
	var days *int
	if length, ok := key.TripLength(); ok {
		days = &length
	}

	records := make(models.ResultSet, 0, len(itineraries))
	for _, it := range itineraries {
		if it == nil {
			continue
		}
		records = append(records, models.FlightRecord{
			Origin:         key.Origin,
			Destination:    key.Destination,
			Name:           CleanCarrierName(it.CarrierName()),
			Days:           days,
			Price:          it.Price(),
			Today:          queryDate,
			DaysAhead:      daysAhead,
			FlightDuration: it.Duration(),
			FlightDepart:   it.DepartureTime(),
			FlightArrive:   it.ArrivalTime(),
			Stops:          it.Stops(),
			StopsInfo:      it.StopsText(),
			DepartureDate:  key.DepartureDate,
		})
	}

	if dropped := len(itineraries) - len(records); dropped > 0 {
		n.logger.Debug("Dropped %d nil itineraries for %s", dropped, key)
	}
	return records
}

// CleanCarrierName untangles the concatenated multi-carrier names the provider returns.
// The steps run in a fixed order: keep the text between the first and second
// boilerplate markers, split on commas, split each part at its first camel-case
// boundary, rejoin with ", ", then repair known mis-splits. Whitespace is left as found.
func CleanCarrierName(raw string) string {
	name := raw
	if parts := strings.SplitN(name, boilerplateMarker, 3); len(parts) > 1 {
		name = parts[1]
	}

	var pieces []string
	for _, part := range strings.Split(name, ",") {
		pieces = append(pieces, splitCamelCase(part)...)
	}
	name = strings.Join(pieces, ", ")

	for _, r := range misSplits {
		name = strings.ReplaceAll(name, r.broken, r.fixed)
	}
	return name
}

// splitCamelCase splits s in two at the first ASCII lowercase-to-uppercase transition
func splitCamelCase(s string) []string {
	for i := 1; i < len(s); i++ {
		if isUpper(s[i]) && isLower(s[i-1]) {
			return []string{s[:i], s[i:]}
		}
	}
	return []string{s}
}

func isUpper(b byte) bool { return b >= 'A' && b <= 'Z' }

func isLower(b byte) bool { return b >= 'a' && b <= 'z' }
