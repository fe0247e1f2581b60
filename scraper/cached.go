package scraper

import (
	"context"

	"github.com/Stevem319/Stevechatravel/models"
	"github.com/Stevem319/Stevechatravel/utils"
)

// CachedProvider serves repeated requests from a Cache before asking the wrapped provider.
// Empty results are never cached so a later lookup gets another chance.
type CachedProvider struct {
	next   Provider
	cache  Cache
	logger *utils.Logger
}

func NewCachedProvider(next Provider, cache Cache, logger *utils.Logger) *CachedProvider {
	return &CachedProvider{next: next, cache: cache, logger: logger}
}

func (p *CachedProvider) Name() string {
	return p.next.Name()
}

func (p *CachedProvider) Search(ctx context.Context, req models.SearchRequest) ([]models.Itinerary, error) {
	if cached, ok := p.cache.Get(ctx, req); ok && len(cached) > 0 {
		p.logger.Debug("Cache hit for %s-%s %s", req.Origin, req.Destination, req.DepartureDate)
		out := make([]models.Itinerary, len(cached))
		for i := range cached {
			out[i] = cached[i]
		}
		return out, nil
	}

	itineraries, err := p.next.Search(ctx, req)
	if err != nil || len(itineraries) == 0 {
		return itineraries, err
	}

	snapshot := make([]models.RawItinerary, len(itineraries))
	for i, it := range itineraries {
		snapshot[i] = models.SnapshotItinerary(it)
	}
	if err := p.cache.Set(ctx, req, snapshot); err != nil {
		p.logger.Warn("Failed to cache result for %s-%s: %v", req.Origin, req.Destination, err)
	}
	return itineraries, nil
}
