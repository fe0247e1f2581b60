package models

import (
	"errors"
	"fmt"
	"strings"
)

// KeySeparator joins WorkKey components into their string form
const KeySeparator = "_"

// ErrInvalidKey is returned for malformed work keys or airport codes
var ErrInvalidKey = errors.New("invalid work key")

// Mode selects the itinerary family being collected
type Mode string

const (
	ModeDomestic      Mode = "domestic"
	ModeInternational Mode = "intl"
)

// ParseMode accepts "domestic" or "intl" (also "international")
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "domestic":
		return ModeDomestic, nil
	case "intl", "international":
		return ModeInternational, nil
	}
	return "", fmt.Errorf("unknown mode %q (want domestic or intl)", s)
}

// RoundTrip reports whether keys of this mode carry a return date
func (m Mode) RoundTrip() bool {
	return m == ModeInternational
}

// RoutePair is a domestic city pair; both directions are collected
type RoutePair struct {
	Origin      string `yaml:"origin" json:"origin"`
	Destination string `yaml:"destination" json:"destination"`
}

// IntlRoute is an international round-trip route with candidate trip lengths in days
type IntlRoute struct {
	Origin      string `yaml:"origin" json:"origin"`
	Destination string `yaml:"destination" json:"destination"`
	TripLengths []int  `yaml:"trip_lengths" json:"trip_lengths"`
}

// WorkKey identifies one pricing query
type WorkKey struct {
	Origin        string `json:"origin"`
	Destination   string `json:"destination"`
	DepartureDate Date   `json:"departure_date"`
	ReturnDate    *Date  `json:"return_date,omitempty"`
}

// OneWayKey builds a key with no return date
func OneWayKey(origin, destination string, departure Date) WorkKey {
	return WorkKey{Origin: origin, Destination: destination, DepartureDate: departure}
}

// RoundTripKey builds a key with a return date
func RoundTripKey(origin, destination string, departure, ret Date) WorkKey {
	return WorkKey{Origin: origin, Destination: destination, DepartureDate: departure, ReturnDate: &ret}
}

// IsRoundTrip reports whether the key carries a return date
func (k WorkKey) IsRoundTrip() bool {
	return k.ReturnDate != nil && !k.ReturnDate.IsZero()
}

// TripLength returns the number of days between departure and return; ok is false for one-way keys
func (k WorkKey) TripLength() (int, bool) {
	if !k.IsRoundTrip() {
		return 0, false
	}
	return k.ReturnDate.DaysSince(k.DepartureDate), true
}

// String joins the key components with KeySeparator
func (k WorkKey) String() string {
	parts := []string{k.Origin, k.Destination, k.DepartureDate.String()}
	if k.IsRoundTrip() {
		parts = append(parts, k.ReturnDate.String())
	}
	return strings.Join(parts, KeySeparator)
}

// Validate checks airport codes and dates
func (k WorkKey) Validate() error {
	if err := ValidateAirport(k.Origin); err != nil {
		return err
	}
	if err := ValidateAirport(k.Destination); err != nil {
		return err
	}
	if k.DepartureDate.IsZero() {
		return fmt.Errorf("%w: missing departure date", ErrInvalidKey)
	}
	if k.IsRoundTrip() && k.ReturnDate.Before(k.DepartureDate) {
		return fmt.Errorf("%w: return %s before departure %s", ErrInvalidKey, k.ReturnDate, k.DepartureDate)
	}
	return nil
}

// ParseWorkKey parses the joined string form of a key
func ParseWorkKey(s string) (WorkKey, error) {
	parts := strings.Split(s, KeySeparator)
	if len(parts) != 3 && len(parts) != 4 {
		return WorkKey{}, fmt.Errorf("%w: %q has %d components", ErrInvalidKey, s, len(parts))
	}
	dep, err := ParseDate(parts[2])
	if err != nil {
		return WorkKey{}, fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}
	key := OneWayKey(parts[0], parts[1], dep)
	if len(parts) == 4 {
		ret, err := ParseDate(parts[3])
		if err != nil {
			return WorkKey{}, fmt.Errorf("%w: %v", ErrInvalidKey, err)
		}
		key.ReturnDate = &ret
	}
	if err := key.Validate(); err != nil {
		return WorkKey{}, err
	}
	return key, nil
}

// ValidateAirport accepts three-letter uppercase IATA-style codes
func ValidateAirport(code string) error {
	if len(code) != 3 {
		return fmt.Errorf("%w: airport code %q must be 3 letters", ErrInvalidKey, code)
	}
	for i := 0; i < len(code); i++ {
		if code[i] < 'A' || code[i] > 'Z' {
			return fmt.Errorf("%w: airport code %q must be uppercase letters", ErrInvalidKey, code)
		}
	}
	return nil
}

// Status is the progress state of a work item
type Status int

const (
	StatusPending Status = iota
	StatusCompleted
)

func (s Status) String() string {
	if s == StatusCompleted {
		return "completed"
	}
	return "pending"
}

func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Status) UnmarshalText(b []byte) error {
	switch string(b) {
	case "pending":
		*s = StatusPending
	case "completed":
		*s = StatusCompleted
	default:
		return fmt.Errorf("unknown status %q", string(b))
	}
	return nil
}

// ResultSet is the ordered sequence of flights found for one key
type ResultSet []FlightRecord

// WorkItem is a key plus its progress status. Flights is only meaningful when completed;
// a completed item may hold an empty result set.
type WorkItem struct {
	Key      WorkKey   `json:"key"`
	Status   Status    `json:"status"`
	Attempts int       `json:"attempts,omitempty"`
	Flights  ResultSet `json:"flights,omitempty"`
}

// IsPending reports whether the item still needs a lookup
func (w WorkItem) IsPending() bool {
	return w.Status == StatusPending
}
