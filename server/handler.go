package server

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Stevem319/Stevechatravel/config"
	"github.com/Stevem319/Stevechatravel/models"
	"github.com/Stevem319/Stevechatravel/services"
	"github.com/Stevem319/Stevechatravel/storage"
	"github.com/Stevem319/Stevechatravel/utils"
)

// FlightsResponse is the body of GET /api/v1/flights
type FlightsResponse struct {
	Mode        models.Mode `json:"mode"`
	Origin      string      `json:"origin"`
	Destination string      `json:"destination"`
	*models.InsightReport
}

// PointsResponse is the body of GET /api/v1/points
type PointsResponse struct {
	Balances  map[string]int               `json:"balances"`
	Transfers map[string][]config.Transfer `json:"transfers"`
}

// RoutesResponse is the body of GET /api/v1/routes
type RoutesResponse struct {
	Domestic      []models.RoutePair `json:"domestic"`
	International []models.IntlRoute `json:"international"`
}

// FlightHandler serves the dashboard's read-only API
type FlightHandler struct {
	routes      *config.Routes
	readers     map[models.Mode]storage.FlightReader
	runs        storage.RunStore
	insights    *services.InsightService
	csv         *storage.CSVWriter
	resultLimit int
	logger      *utils.Logger
}

// NewFlightHandler creates a FlightHandler. runs may be nil when run history is unavailable.
func NewFlightHandler(routes *config.Routes, readers map[models.Mode]storage.FlightReader, runs storage.RunStore, resultLimit int, logger *utils.Logger) *FlightHandler {
	return &FlightHandler{
		routes:      routes,
		readers:     readers,
		runs:        runs,
		insights:    services.NewInsightService(logger),
		csv:         storage.NewCSVWriter(logger),
		resultLimit: resultLimit,
		logger:      logger,
	}
}

func HealthHandler(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status": "ok",
	})
}

// Flights returns filtered rows with their price summary
func (h *FlightHandler) Flights(c echo.Context) error {
	q, err := h.parseQuery(c)
	if err != nil {
		return badRequest(c, err)
	}

	rows, apiErr := h.load(c, q)
	if apiErr != nil {
		return c.JSON(apiErr.Code, apiErr)
	}

	return c.JSON(http.StatusOK, FlightsResponse{
		Mode:          q.mode,
		Origin:        q.origin,
		Destination:   q.destination,
		InsightReport: h.insights.Generate(rows, q.filter),
	})
}

// Options returns the filter ranges available for a route
func (h *FlightHandler) Options(c echo.Context) error {
	q, err := h.parseRoute(c)
	if err != nil {
		return badRequest(c, err)
	}

	rows, apiErr := h.load(c, q)
	if apiErr != nil {
		return c.JSON(apiErr.Code, apiErr)
	}

	priced, _ := h.insights.Prepare(rows)
	return c.JSON(http.StatusOK, h.insights.Options(priced))
}

// ExportCSV streams the filtered rows as a CSV attachment
func (h *FlightHandler) ExportCSV(c echo.Context) error {
	q, err := h.parseQuery(c)
	if err != nil {
		return badRequest(c, err)
	}

	rows, apiErr := h.load(c, q)
	if apiErr != nil {
		return c.JSON(apiErr.Code, apiErr)
	}

	priced, _ := h.insights.Prepare(rows)
	flights := h.insights.Apply(priced, q.filter)

	res := c.Response()
	res.Header().Set(echo.HeaderContentType, "text/csv; charset=utf-8")
	res.Header().Set(echo.HeaderContentDisposition,
		fmt.Sprintf("attachment; filename=%q", strings.ToLower(q.origin+"_"+q.destination)+".csv"))
	res.WriteHeader(http.StatusOK)
	if err := h.csv.Write(res, flights); err != nil {
		h.logger.Error("CSV export for %s-%s failed midway: %v", q.origin, q.destination, err)
	}
	return nil
}

// Routes lists the configured routes of both modes
func (h *FlightHandler) Routes(c echo.Context) error {
	return c.JSON(http.StatusOK, RoutesResponse{
		Domestic:      h.routes.Domestic(),
		International: h.routes.International(),
	})
}

// Points returns balances and transfer options, optionally for a single program
func (h *FlightHandler) Points(c echo.Context) error {
	points := h.routes.Points()

	programs := points.Programs()
	if p := c.QueryParam("program"); p != "" {
		programs = []string{p}
	}

	transfers := make(map[string][]config.Transfer, len(programs))
	for _, p := range programs {
		if opts := points.TransferOptions(p); len(opts) > 0 {
			transfers[p] = opts
		}
	}

	return c.JSON(http.StatusOK, PointsResponse{
		Balances:  points.Balances(),
		Transfers: transfers,
	})
}

// Runs lists recent batch runs
func (h *FlightHandler) Runs(c echo.Context) error {
	if h.runs == nil {
		return c.JSON(http.StatusServiceUnavailable, models.ErrorResponse{
			Error:   "unavailable",
			Message: "Run history is not configured",
			Code:    http.StatusServiceUnavailable,
		})
	}

	limit := 20
	if v := c.QueryParam("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return badRequest(c, fmt.Errorf("limit must be a positive integer"))
		}
		limit = n
	}

	runs, err := h.runs.List(c.Request().Context(), limit)
	if err != nil {
		h.logger.Error("Failed to list runs: %v", err)
		return c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "query_error",
			Message: "Failed to list runs: " + err.Error(),
			Code:    http.StatusInternalServerError,
		})
	}
	return c.JSON(http.StatusOK, runs)
}

type flightQuery struct {
	mode        models.Mode
	origin      string
	destination string
	filter      models.FlightFilter
}

func (h *FlightHandler) load(c echo.Context, q flightQuery) ([]models.FlightRow, *models.ErrorResponse) {
	reader, ok := h.readers[q.mode]
	if !ok {
		return nil, &models.ErrorResponse{
			Error:   "unavailable",
			Message: fmt.Sprintf("No %s flight table is configured", q.mode),
			Code:    http.StatusServiceUnavailable,
		}
	}

	rows, err := reader.Query(c.Request().Context(), q.origin, q.destination)
	if err != nil {
		h.logger.Error("Failed to query %s-%s: %v", q.origin, q.destination, err)
		return nil, &models.ErrorResponse{
			Error:   "query_error",
			Message: "Failed to read flights: " + err.Error(),
			Code:    http.StatusInternalServerError,
		}
	}
	return rows, nil
}

// parseRoute resolves origin and destination to the data set holding them
func (h *FlightHandler) parseRoute(c echo.Context) (flightQuery, error) {
	q := flightQuery{
		origin:      strings.ToUpper(strings.TrimSpace(c.QueryParam("origin"))),
		destination: strings.ToUpper(strings.TrimSpace(c.QueryParam("destination"))),
	}
	if q.origin == "" || q.destination == "" {
		return q, errors.New("origin and destination are required")
	}

	mode, ok := h.routes.ModeFor(q.origin, q.destination)
	if !ok {
		return q, fmt.Errorf("no configured route between %s and %s", q.origin, q.destination)
	}
	q.mode = mode
	return q, nil
}

func (h *FlightHandler) parseQuery(c echo.Context) (flightQuery, error) {
	q, err := h.parseRoute(c)
	if err != nil {
		return q, err
	}

	f := models.FlightFilter{
		Name:  c.QueryParam("name"),
		Limit: h.resultLimit,
	}
	if f.DateFrom, err = queryDate(c, "date_from"); err != nil {
		return q, err
	}
	if f.DateTo, err = queryDate(c, "date_to"); err != nil {
		return q, err
	}
	if f.PriceMin, err = queryFloat(c, "price_min"); err != nil {
		return q, err
	}
	if f.PriceMax, err = queryFloat(c, "price_max"); err != nil {
		return q, err
	}
	if f.MaxStops, err = queryInt(c, "max_stops"); err != nil {
		return q, err
	}
	if f.TripLength, err = queryInt(c, "trip_length"); err != nil {
		return q, err
	}
	limit, err := queryInt(c, "limit")
	if err != nil {
		return q, err
	}
	if limit != nil && *limit > 0 && *limit < f.Limit {
		f.Limit = *limit
	}

	q.filter = f
	return q, nil
}

func queryDate(c echo.Context, name string) (*time.Time, error) {
	v := c.QueryParam(name)
	if v == "" {
		return nil, nil
	}
	t, err := time.Parse(models.DateLayout, v)
	if err != nil {
		return nil, fmt.Errorf("%s must be YYYY-MM-DD", name)
	}
	return &t, nil
}

func queryFloat(c echo.Context, name string) (*float64, error) {
	v := c.QueryParam(name)
	if v == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return nil, fmt.Errorf("%s must be a number", name)
	}
	return &f, nil
}

func queryInt(c echo.Context, name string) (*int, error) {
	v := c.QueryParam(name)
	if v == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return nil, fmt.Errorf("%s must be an integer", name)
	}
	return &n, nil
}

func badRequest(c echo.Context, err error) error {
	return c.JSON(http.StatusBadRequest, models.ErrorResponse{
		Error:   "invalid_request",
		Message: err.Error(),
		Code:    http.StatusBadRequest,
	})
}
