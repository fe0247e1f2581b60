package config

import (
	_ "embed"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/Stevem319/Stevechatravel/models"
)

// defaultRoutes is the route and points reference data compiled into the binary
//
//go:embed routes.yaml
var defaultRoutes []byte

type routesFile struct {
	Domestic      []models.RoutePair `yaml:"domestic"`
	International []models.IntlRoute `yaml:"international"`
	Points        pointsFile         `yaml:"points"`
}

type pointsFile struct {
	Banks     []string                      `yaml:"banks"`
	Airlines  []string                      `yaml:"airlines"`
	Hotels    []string                      `yaml:"hotels"`
	Balances  map[string]int                `yaml:"balances"`
	Transfers map[string]map[string]float64 `yaml:"transfers"`
}

// Routes is the immutable reference data loaded at startup. Accessors return copies.
type Routes struct {
	domestic      []models.RoutePair
	international []models.IntlRoute
	points        Points
}

// LoadRoutes reads the reference tables from path, or the embedded defaults when path is empty
func LoadRoutes(path string) (*Routes, error) {
	data := defaultRoutes
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read routes file: %w", err)
		}
		data = b
	}
	return ParseRoutes(data)
}

// ParseRoutes decodes and validates YAML reference tables
func ParseRoutes(data []byte) (*Routes, error) {
	var f routesFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse routes: %w", err)
	}

	for _, p := range f.Domestic {
		if err := validatePair(p.Origin, p.Destination); err != nil {
			return nil, fmt.Errorf("domestic route %s-%s: %w", p.Origin, p.Destination, err)
		}
	}
	for _, r := range f.International {
		if err := validatePair(r.Origin, r.Destination); err != nil {
			return nil, fmt.Errorf("international route %s-%s: %w", r.Origin, r.Destination, err)
		}
		if len(r.TripLengths) == 0 {
			return nil, fmt.Errorf("international route %s-%s has no trip lengths", r.Origin, r.Destination)
		}
		for _, days := range r.TripLengths {
			if days < 1 {
				return nil, fmt.Errorf("international route %s-%s: trip length %d must be positive", r.Origin, r.Destination, days)
			}
		}
	}

	return &Routes{
		domestic:      f.Domestic,
		international: f.International,
		points: Points{
			banks:     f.Points.Banks,
			airlines:  f.Points.Airlines,
			hotels:    f.Points.Hotels,
			balances:  f.Points.Balances,
			transfers: f.Points.Transfers,
		},
	}, nil
}

func validatePair(origin, destination string) error {
	if err := models.ValidateAirport(origin); err != nil {
		return err
	}
	if err := models.ValidateAirport(destination); err != nil {
		return err
	}
	if origin == destination {
		return fmt.Errorf("origin and destination are the same")
	}
	return nil
}

// Domestic returns the domestic city pairs
func (r *Routes) Domestic() []models.RoutePair {
	return append([]models.RoutePair(nil), r.domestic...)
}

// International returns the international routes
func (r *Routes) International() []models.IntlRoute {
	out := make([]models.IntlRoute, len(r.international))
	for i, route := range r.international {
		route.TripLengths = append([]int(nil), route.TripLengths...)
		out[i] = route
	}
	return out
}

// Points returns the points reference tables
func (r *Routes) Points() Points {
	return r.points
}

// ModeFor resolves which data set holds a route, matching either direction
func (r *Routes) ModeFor(origin, destination string) (models.Mode, bool) {
	for _, p := range r.domestic {
		if matchesRoute(p.Origin, p.Destination, origin, destination) {
			return models.ModeDomestic, true
		}
	}
	for _, route := range r.international {
		if matchesRoute(route.Origin, route.Destination, origin, destination) {
			return models.ModeInternational, true
		}
	}
	return "", false
}

func matchesRoute(a, b, origin, destination string) bool {
	return (a == origin && b == destination) || (a == destination && b == origin)
}

// Points holds balances and bank-to-program transfer ratios
type Points struct {
	banks     []string
	airlines  []string
	hotels    []string
	balances  map[string]int
	transfers map[string]map[string]float64
}

// Transfer is one way to move points from a bank into a program
type Transfer struct {
	Bank    string  `json:"bank"`
	Program string  `json:"program"`
	Ratio   float64 `json:"ratio"`
	Balance int     `json:"bank_balance"`
}

// Balance returns the current balance for a bank or program
func (p Points) Balance(program string) int {
	return p.balances[program]
}

// Balances returns a copy of all balances
func (p Points) Balances() map[string]int {
	out := make(map[string]int, len(p.balances))
	for k, v := range p.balances {
		out[k] = v
	}
	return out
}

// TransferOptions lists the banks that transfer into program, best ratio first
func (p Points) TransferOptions(program string) []Transfer {
	var out []Transfer
	for bank, partners := range p.transfers {
		if ratio, ok := partners[program]; ok {
			out = append(out, Transfer{Bank: bank, Program: program, Ratio: ratio, Balance: p.balances[bank]})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Ratio != out[j].Ratio {
			return out[i].Ratio > out[j].Ratio
		}
		return out[i].Bank < out[j].Bank
	})
	return out
}

// Programs returns the airline and hotel programs in reference order
func (p Points) Programs() []string {
	out := append([]string(nil), p.airlines...)
	return append(out, p.hotels...)
}
