package itinerary

import (
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/Stevem319/Stevechatravel/models"
)

// ErrSampleTooLarge is returned when more departure dates are requested than the horizon holds
var ErrSampleTooLarge = errors.New("sample size exceeds departure offset range")

// Generator enumerates the work keys to be priced
type Generator struct {
	now func() time.Time
	rng *rand.Rand
}

// Option configures a Generator
type Option func(*Generator)

// WithClock overrides the source of "today"
func WithClock(now func() time.Time) Option {
	return func(g *Generator) { g.now = now }
}

// WithRand overrides the random source used for international sampling
func WithRand(rng *rand.Rand) Option {
	return func(g *Generator) { g.rng = rng }
}

// NewGenerator creates a Generator using the wall clock and a time-seeded random source
func NewGenerator(opts ...Option) *Generator {
	g := &Generator{
		now: time.Now,
		rng: rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Today returns the calendar date the generator counts offsets from
func (g *Generator) Today() models.Date {
	return models.DateOf(g.now())
}

// Domestic emits, for every pair and every offset d in [1, numDays),
// the outbound key then the reverse key departing today+d.
func (g *Generator) Domestic(pairs []models.RoutePair, numDays int) ([]models.WorkKey, error) {
	if numDays < 1 {
		return nil, fmt.Errorf("numDays must be at least 1, got %d", numDays)
	}
	today := g.Today()
	keys := make([]models.WorkKey, 0, 2*len(pairs)*(numDays-1))

	for _, p := range pairs {
		for d := 1; d < numDays; d++ {
			dep := today.AddDays(d)
			keys = append(keys,
				models.OneWayKey(p.Origin, p.Destination, dep),
				models.OneWayKey(p.Destination, p.Origin, dep),
			)
		}
	}
	return keys, nil
}

// International draws numItins distinct departure offsets from [1, numDays) for each
// trip length of each route and emits one round-trip key per draw.
// Every call samples afresh, so repeated runs cover different dates.
func (g *Generator) International(routes []models.IntlRoute, numDays, numItins int) ([]models.WorkKey, error) {
	if numDays < 1 {
		return nil, fmt.Errorf("numDays must be at least 1, got %d", numDays)
	}
	if numItins < 0 {
		return nil, fmt.Errorf("numItins must not be negative, got %d", numItins)
	}
	if numItins > numDays-1 {
		return nil, fmt.Errorf("%w: %d samples from %d offsets", ErrSampleTooLarge, numItins, numDays-1)
	}

	today := g.Today()
	var keys []models.WorkKey
	for _, r := range routes {
		for _, tripLength := range r.TripLengths {
			for _, idx := range g.rng.Perm(numDays - 1)[:numItins] {
				dep := today.AddDays(idx + 1)
				keys = append(keys, models.RoundTripKey(r.Origin, r.Destination, dep, dep.AddDays(tripLength)))
			}
		}
	}
	return keys, nil
}
