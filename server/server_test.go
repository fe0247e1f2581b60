package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Stevem319/Stevechatravel/config"
	"github.com/Stevem319/Stevechatravel/metrics"
	"github.com/Stevem319/Stevechatravel/models"
	"github.com/Stevem319/Stevechatravel/storage"
	"github.com/Stevem319/Stevechatravel/utils"
)

type fakeReader struct {
	rows  []models.FlightRow
	err   error
	calls [][2]string
}

func (r *fakeReader) Query(ctx context.Context, origin, destination string) ([]models.FlightRow, error) {
	r.calls = append(r.calls, [2]string{origin, destination})
	return r.rows, r.err
}

type fakeRuns struct {
	runs      []models.RunReport
	lastLimit int
}

func (f *fakeRuns) Save(ctx context.Context, report *models.RunReport) error {
	f.runs = append(f.runs, *report)
	return nil
}

func (f *fakeRuns) List(ctx context.Context, limit int) ([]models.RunReport, error) {
	f.lastLimit = limit
	return f.runs, nil
}

type testServer struct {
	handler  http.Handler
	domestic *fakeReader
	intl     *fakeReader
	runs     *fakeRuns
}

func newTestServer(t *testing.T, withRuns bool) *testServer {
	t.Helper()
	routes, err := config.LoadRoutes("")
	require.NoError(t, err)

	days := 7
	ts := &testServer{
		domestic: &fakeReader{rows: []models.FlightRow{
			{ID: 1, Origin: "ATL", Destination: "SEA", Name: "Delta", Price: "$250", Stops: "0", DepartureDate: "2025-06-02"},
			{ID: 2, Origin: "ATL", Destination: "SEA", Name: "Alaska", Price: "$199", Stops: "1", DepartureDate: "2025-06-03"},
			{ID: 3, Origin: "ATL", Destination: "SEA", Name: "Broken", Price: "n/a", Stops: "0", DepartureDate: "2025-06-03"},
		}},
		intl: &fakeReader{rows: []models.FlightRow{
			{ID: 1, Origin: "ATL", Destination: "FCO", Name: "ITA", Price: "$900", Stops: "1", DepartureDate: "2025-07-01", Days: &days},
		}},
	}
	readers := map[models.Mode]storage.FlightReader{
		models.ModeDomestic:      ts.domestic,
		models.ModeInternational: ts.intl,
	}

	var runs storage.RunStore
	if withRuns {
		ts.runs = &fakeRuns{runs: []models.RunReport{{RunID: "run-1", Mode: models.ModeDomestic, Resolved: 3}}}
		runs = ts.runs
	}

	h := NewFlightHandler(routes, readers, runs, 1000, utils.NewNopLogger())
	ts.handler = New(h, metrics.NewMetrics("test"))
	return ts
}

func (ts *testServer) get(path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) models.ErrorResponse {
	t.Helper()
	var body models.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t, false)
	rec := ts.get("/health")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestFlightsRequiresBothAirports(t *testing.T) {
	ts := newTestServer(t, false)
	rec := ts.get("/api/v1/flights?origin=ATL")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeError(t, rec)
	assert.Equal(t, "invalid_request", body.Error)
	assert.Equal(t, http.StatusBadRequest, body.Code)
	assert.Empty(t, ts.domestic.calls)
}

func TestFlightsRejectsUnknownRoute(t *testing.T) {
	ts := newTestServer(t, false)
	rec := ts.get("/api/v1/flights?origin=ATL&destination=JFK")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decodeError(t, rec).Message, "ATL and JFK")
}

func TestFlightsResolvesModeInEitherDirection(t *testing.T) {
	ts := newTestServer(t, false)
	rec := ts.get("/api/v1/flights?origin=sea&destination=atl")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Mode    models.Mode           `json:"mode"`
		Loaded  int                   `json:"loaded"`
		Dropped int                   `json:"dropped"`
		Matched int                   `json:"matched"`
		Flights []models.PricedFlight `json:"flights"`
		Summary []models.PriceSummary `json:"summary"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))

	assert.Equal(t, models.ModeDomestic, body.Mode)
	assert.Equal(t, [][2]string{{"SEA", "ATL"}}, ts.domestic.calls)
	assert.Equal(t, 3, body.Loaded)
	assert.Equal(t, 1, body.Dropped)
	require.Len(t, body.Flights, 2)
	assert.Equal(t, "Alaska", body.Flights[0].Name)
	assert.Len(t, body.Summary, 2)
}

func TestFlightsAppliesFilters(t *testing.T) {
	ts := newTestServer(t, false)
	rec := ts.get("/api/v1/flights?origin=ATL&destination=SEA&max_stops=0&date_from=2025-06-01&limit=5")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"matched":1`)

	rec = ts.get("/api/v1/flights?origin=ATL&destination=FCO&trip_length=7")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"mode":"intl"`)
	assert.Len(t, ts.intl.calls, 1)
}

func TestFlightsRejectsMalformedFilters(t *testing.T) {
	ts := newTestServer(t, false)
	for _, q := range []string{"price_min=cheap", "date_to=06/01/2025", "max_stops=one"} {
		rec := ts.get("/api/v1/flights?origin=ATL&destination=SEA&" + q)
		assert.Equal(t, http.StatusBadRequest, rec.Code, q)
	}
}

func TestFlightsReaderFailure(t *testing.T) {
	ts := newTestServer(t, false)
	ts.domestic.err = errors.New("database is locked")

	rec := ts.get("/api/v1/flights?origin=ATL&destination=SEA")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "query_error", decodeError(t, rec).Error)
}

func TestFlightsMissingTable(t *testing.T) {
	routes, err := config.LoadRoutes("")
	require.NoError(t, err)
	h := NewFlightHandler(routes, map[models.Mode]storage.FlightReader{}, nil, 1000, utils.NewNopLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/flights?origin=ATL&destination=SEA", nil)
	rec := httptest.NewRecorder()
	New(h, nil).ServeHTTP(rec, req)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestOptions(t *testing.T) {
	ts := newTestServer(t, false)
	rec := ts.get("/api/v1/flights/options?origin=ATL&destination=SEA")
	require.Equal(t, http.StatusOK, rec.Code)

	var opts models.FilterOptions
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &opts))
	assert.Equal(t, 199.0, opts.MinPrice)
	assert.Equal(t, 250.0, opts.MaxPrice)
	assert.Equal(t, []string{"Alaska", "Delta"}, opts.Names)
	assert.Equal(t, []int{0, 1}, opts.Stops)
}

func TestExportCSV(t *testing.T) {
	ts := newTestServer(t, false)
	rec := ts.get("/api/v1/flights/export.csv?origin=ATL&destination=SEA")
	require.Equal(t, http.StatusOK, rec.Code)

	assert.True(t, strings.HasPrefix(rec.Header().Get("Content-Type"), "text/csv"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "atl_sea.csv")
	lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "id,origin,destination"))
	assert.True(t, strings.HasPrefix(lines[1], "2,ATL,SEA,Alaska"))
}

func TestRoutesAndPoints(t *testing.T) {
	ts := newTestServer(t, false)

	rec := ts.get("/api/v1/routes")
	require.Equal(t, http.StatusOK, rec.Code)
	var routes RoutesResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &routes))
	assert.Len(t, routes.Domestic, 10)
	assert.Len(t, routes.International, 9)

	rec = ts.get("/api/v1/points?program=hilton")
	require.Equal(t, http.StatusOK, rec.Code)
	var points PointsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &points))
	require.Contains(t, points.Transfers, "hilton")
	assert.Equal(t, "amex", points.Transfers["hilton"][0].Bank)
	assert.Equal(t, 2465, points.Balances["bilt"])
}

func TestRuns(t *testing.T) {
	ts := newTestServer(t, false)
	assert.Equal(t, http.StatusServiceUnavailable, ts.get("/api/v1/runs").Code)

	ts = newTestServer(t, true)
	rec := ts.get("/api/v1/runs?limit=5")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 5, ts.runs.lastLimit)
	assert.Contains(t, rec.Body.String(), `"run_id":"run-1"`)

	assert.Equal(t, http.StatusBadRequest, ts.get("/api/v1/runs?limit=0").Code)
}

func TestMetricsEndpoint(t *testing.T) {
	ts := newTestServer(t, false)
	rec := ts.get("/metrics")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "test_")
}

func TestRunStopsOnCancel(t *testing.T) {
	e := New(NewFlightHandler(nil, nil, nil, 1000, utils.NewNopLogger()), nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- Run(ctx, e, Config{Port: "0", ReadTimeout: time.Second, WriteTimeout: time.Second}, utils.NewNopLogger())
	}()

	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
