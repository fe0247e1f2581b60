package scraper

import (
	"context"

	"github.com/Stevem319/Stevechatravel/models"
)

// Provider prices one request. An empty result with a nil error means the
// source had no itineraries for the request.
type Provider interface {
	Name() string
	Search(ctx context.Context, req models.SearchRequest) ([]models.Itinerary, error)
}

type ProviderError struct {
	Provider string
	Err      error
}

func (e *ProviderError) Error() string {
	return e.Provider + ": " + e.Err.Error()
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

func NewProviderError(provider string, err error) *ProviderError {
	return &ProviderError{
		Provider: provider,
		Err:      err,
	}
}
