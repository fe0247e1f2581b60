package models

import "time"

// PricedFlight is a flight row whose price and departure date parsed cleanly
type PricedFlight struct {
	FlightRow
	Currency   string    `json:"currency"`
	PriceValue float64   `json:"price_value"`
	Departure  time.Time `json:"-"`
}

// FlightFilter holds the dashboard's post-load filters; nil fields are not applied
type FlightFilter struct {
	DateFrom   *time.Time
	DateTo     *time.Time
	PriceMin   *float64
	PriceMax   *float64
	MaxStops   *int
	Name       string
	TripLength *int
	Limit      int
}

// FilterOptions describes the value ranges available in a loaded data set
type FilterOptions struct {
	MinPrice    float64  `json:"min_price"`
	MaxPrice    float64  `json:"max_price"`
	MinDate     string   `json:"min_date"`
	MaxDate     string   `json:"max_date"`
	Names       []string `json:"names"`
	TripLengths []int    `json:"trip_lengths"`
	Stops       []int    `json:"stops"`
}

// PriceSummary is the min/max price of one flight grouping
type PriceSummary struct {
	Name           string  `json:"name"`
	DepartureDate  string  `json:"departure_date"`
	FlightDepart   string  `json:"flight_depart"`
	FlightArrive   string  `json:"flight_arrive"`
	FlightDuration string  `json:"flight_duration"`
	Stops          string  `json:"stops"`
	Days           *int    `json:"days,omitempty"`
	MinPrice       float64 `json:"min_price"`
	MaxPrice       float64 `json:"max_price"`
}

// InsightReport holds the filtered rows and their grouped price summary
type InsightReport struct {
	Loaded   int            `json:"loaded"`
	Dropped  int            `json:"dropped"`
	Matched  int            `json:"matched"`
	Flights  []PricedFlight `json:"flights"`
	Summary  []PriceSummary `json:"summary"`
	Currency string         `json:"currency,omitempty"`
}
