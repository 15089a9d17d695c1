package artwork

import (
	"context"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"

	"github.com/osa030/19radio/internal/infra/lastfm"
)

type LastFmProviderConfig struct {
	APIKey    string `yaml:"api_key" mapstructure:"api_key" validate:"required"`
	TimeoutMs int    `yaml:"timeout_ms" mapstructure:"timeout_ms" default:"5000" validate:"gte=100"`
}

// LastFmProvider looks artwork up with Last.fm track.getInfo.
type LastFmProvider struct {
	lastfm LastFmClient
	config *LastFmProviderConfig
}

// NewLastFmProvider creates a new LastFmProvider with its own Last.fm client.
func NewLastFmProvider(settings map[string]any) (*LastFmProvider, error) {
	if len(settings) == 0 {
		return nil, errors.New("settings are required")
	}

	var config LastFmProviderConfig
	if err := mapstructure.Decode(settings, &config); err != nil {
		return nil, errors.Wrap(err, "failed to decode settings")
	}
	if err := defaults.Set(&config); err != nil {
		return nil, errors.Wrap(err, "failed to set defaults")
	}
	if err := validator.New().Struct(config); err != nil {
		return nil, errors.Wrap(err, "validation failed")
	}

	client, err := lastfm.New(lastfm.Config{
		APIKey:  config.APIKey,
		Timeout: time.Duration(config.TimeoutMs) * time.Millisecond,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to create last.fm client")
	}

	return newLastFmProvider(client, &config), nil
}

func newLastFmProvider(client LastFmClient, config *LastFmProviderConfig) *LastFmProvider {
	return &LastFmProvider{lastfm: client, config: config}
}

// Lookup implements Provider.
func (p *LastFmProvider) Lookup(ctx context.Context, q Query) (string, error) {
	artist, title := strings.TrimSpace(q.Artist), strings.TrimSpace(q.Title)
	if artist == "" || title == "" {
		return "", ErrNotFound
	}

	info, err := p.lastfm.GetTrackInfo(ctx, title, artist)
	if errors.Is(err, lastfm.ErrTrackNotFound) {
		return "", errors.Wrap(ErrNotFound, err.Error())
	}
	if err != nil {
		return "", err
	}

	url, ok := info.LargestImage()
	if !ok {
		return "", ErrNotFound
	}
	return url, nil
}

// Name returns the provider name.
func (p *LastFmProvider) Name() string {
	return "lastfm"
}
