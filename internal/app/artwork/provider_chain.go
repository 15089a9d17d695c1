package artwork

import (
	"context"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"
)

// ProviderWithMetadata wraps a provider with its metadata.
type ProviderWithMetadata struct {
	Provider    Provider
	DisplayName string
}

// ProviderChain tries providers in order; the first URL found wins.
type ProviderChain struct {
	providers []ProviderWithMetadata
}

// NewProviderChain creates a new provider chain.
func NewProviderChain(providers []ProviderWithMetadata) *ProviderChain {
	return &ProviderChain{
		providers: providers,
	}
}

// Lookup implements Provider.
func (c *ProviderChain) Lookup(ctx context.Context, q Query) (string, error) {
	if q.IsEmpty() {
		return "", errors.Wrap(ErrNotFound, "empty query")
	}

	for i, pm := range c.providers {
		if ctx.Err() != nil {
			return "", errors.Wrap(ctx.Err(), "artwork lookup cancelled")
		}

		zlog.Debug().Msgf("artwork: trying provider: index=%d total=%d name=%s provider_type=%s",
			i+1, len(c.providers), pm.DisplayName, pm.Provider.Name())

		url, err := pm.Provider.Lookup(ctx, q)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				zlog.Debug().Msgf("artwork: provider has no artwork: provider=%s", pm.DisplayName)
			} else {
				zlog.Warn().Msgf("artwork: provider failed, trying next: provider=%s error=%v", pm.DisplayName, err)
			}
			continue
		}
		if url == "" {
			continue
		}

		zlog.Info().Msgf("artwork: found: provider=%s artist=%s title=%s", pm.DisplayName, q.Artist, q.Title)
		return url, nil
	}

	return "", errors.Wrapf(ErrNotFound, "artist=%q title=%q", q.Artist, q.Title)
}

// Name returns the chain name.
func (c *ProviderChain) Name() string {
	return "provider_chain"
}

// Len returns the number of providers.
func (c *ProviderChain) Len() int {
	return len(c.providers)
}
