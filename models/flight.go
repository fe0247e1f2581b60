package models

import "time"

// Itinerary is what a pricing provider exposes for one priced itinerary
type Itinerary interface {
	CarrierName() string
	Price() string // currency-prefixed, e.g. "$432"
	Duration() string
	DepartureTime() string
	ArrivalTime() string
	Stops() string // a count, or a provider-specific word such as "Unknown"
	StopsText() string
}

// RawItinerary is a plain snapshot of an Itinerary, used by caches and fakes
type RawItinerary struct {
	Name      string `json:"name"`
	RawPrice  string `json:"price"`
	Length    string `json:"duration"`
	Depart    string `json:"depart"`
	Arrive    string `json:"arrive"`
	StopCount string `json:"stops"`
	StopInfo  string `json:"stops_info"`
}

func (r RawItinerary) CarrierName() string   { return r.Name }
func (r RawItinerary) Price() string         { return r.RawPrice }
func (r RawItinerary) Duration() string      { return r.Length }
func (r RawItinerary) DepartureTime() string { return r.Depart }
func (r RawItinerary) ArrivalTime() string   { return r.Arrive }
func (r RawItinerary) Stops() string         { return r.StopCount }
func (r RawItinerary) StopsText() string     { return r.StopInfo }

// SnapshotItinerary copies any Itinerary into a RawItinerary
func SnapshotItinerary(it Itinerary) RawItinerary {
	return RawItinerary{
		Name:      it.CarrierName(),
		RawPrice:  it.Price(),
		Length:    it.Duration(),
		Depart:    it.DepartureTime(),
		Arrive:    it.ArrivalTime(),
		StopCount: it.Stops(),
		StopInfo:  it.StopsText(),
	}
}

// SearchRequest is the fixed-configuration query sent to a pricing provider
type SearchRequest struct {
	Origin        string `json:"origin"`
	Destination   string `json:"destination"`
	DepartureDate Date   `json:"departure_date"`
	ReturnDate    *Date  `json:"return_date,omitempty"`
	Trip          string `json:"trip"`
	Seat          string `json:"seat"`
	Adults        int    `json:"adults"`
	CarryOnBags   int    `json:"carry_on_bags"`
	CheckedBags   int    `json:"checked_bags"`
}

// NewSearchRequest builds the request for a key: one adult in economy with one carry-on
func NewSearchRequest(key WorkKey) SearchRequest {
	req := SearchRequest{
		Origin:        key.Origin,
		Destination:   key.Destination,
		DepartureDate: key.DepartureDate,
		Trip:          "one-way",
		Seat:          "economy",
		Adults:        1,
		CarryOnBags:   1,
		CheckedBags:   0,
	}
	if key.IsRoundTrip() {
		ret := *key.ReturnDate
		req.ReturnDate = &ret
		req.Trip = "round-trip"
	}
	return req
}

// FlightRecord is one priced itinerary for a WorkKey, in persistence shape
type FlightRecord struct {
	Origin         string `json:"origin"`
	Destination    string `json:"destination"`
	Name           string `json:"name"`
	Days           *int   `json:"days,omitempty"` // trip length; nil for one-way
	Price          string `json:"price"`
	Today          Date   `json:"today"`
	DaysAhead      int    `json:"days_ahead"`
	FlightDuration string `json:"flight_duration"`
	FlightDepart   string `json:"flight_depart"`
	FlightArrive   string `json:"flight_arrive"`
	Stops          string `json:"stops"`
	StopsInfo      string `json:"stops_info"`
	DepartureDate  Date   `json:"departure_date"`
}

// FlightRow is a flight table row as read back for the dashboard
type FlightRow struct {
	ID             int64  `json:"id"`
	Origin         string `json:"origin"`
	Destination    string `json:"destination"`
	Name           string `json:"name"`
	Days           *int   `json:"days,omitempty"`
	Price          string `json:"price"`
	Today          string `json:"today"`
	DaysAhead      int    `json:"days_ahead"`
	FlightDuration string `json:"flight_duration"`
	FlightDepart   string `json:"flight_depart"`
	FlightArrive   string `json:"flight_arrive"`
	Stops          string `json:"stops"`
	StopsInfo      string `json:"stops_info"`
	DepartureDate  string `json:"departure_date"`
}

// RunReport summarises one batch run
type RunReport struct {
	RunID            string    `json:"run_id"`
	Mode             Mode      `json:"mode"`
	CheckpointPath   string    `json:"checkpoint_path"`
	TotalKeys        int       `json:"total_keys"`
	AlreadyCompleted int       `json:"already_completed"`
	ProviderCalls    int       `json:"provider_calls"`
	Resolved         int       `json:"resolved"`
	Unfinished       int       `json:"unfinished"` // empty results plus provider failures
	Failed           int       `json:"failed"`
	FlightsFound     int       `json:"flights_found"`
	CheckpointSaves  int       `json:"checkpoint_saves"`
	Interrupted      bool      `json:"interrupted"`
	StartedAt        time.Time `json:"started_at"`
	FinishedAt       time.Time `json:"finished_at"`
}

// AverageFlights returns flights found per resolved route
func (r *RunReport) AverageFlights() float64 {
	if r.Resolved == 0 {
		return 0
	}
	return float64(r.FlightsFound) / float64(r.Resolved)
}

// ErrorResponse is the JSON error body returned by the HTTP API
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}
