package artwork

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
)

type StationProviderConfig struct {
	DefaultURL string `yaml:"default_url" mapstructure:"default_url" validate:"omitempty,url"`
}

// StationProvider falls back to the station logo, then to a fixed image.
// It is meant to be the last provider in a chain.
type StationProvider struct {
	config *StationProviderConfig
}

// NewStationProvider creates a new StationProvider.
func NewStationProvider(settings map[string]any) (*StationProvider, error) {
	var config StationProviderConfig
	if err := mapstructure.Decode(settings, &config); err != nil {
		return nil, errors.Wrap(err, "failed to decode settings")
	}
	if err := defaults.Set(&config); err != nil {
		return nil, errors.Wrap(err, "failed to set defaults")
	}
	if err := validator.New().Struct(config); err != nil {
		return nil, errors.Wrap(err, "validation failed")
	}
	return &StationProvider{config: &config}, nil
}

// Lookup implements Provider.
func (p *StationProvider) Lookup(_ context.Context, q Query) (string, error) {
	if q.Station != nil && q.Station.ArtworkURL != "" {
		return q.Station.ArtworkURL, nil
	}
	if p.config.DefaultURL != "" {
		return p.config.DefaultURL, nil
	}
	return "", ErrNotFound
}

// Name returns the provider name.
func (p *StationProvider) Name() string {
	return "station"
}
