package artwork

import (
	"context"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
	"github.com/samber/lo"

	"github.com/osa030/19radio/internal/infra/spotify"
)

type SpotifyProviderConfig struct {
	// Titles containing any of these (case-insensitive) are never looked up,
	// e.g. station jingles or ad breaks.
	SkipKeywords   []string `yaml:"skip_keywords" mapstructure:"skip_keywords"`
	AllowTitleOnly bool     `yaml:"allow_title_only" mapstructure:"allow_title_only"`
}

// SpotifyProvider looks artwork up with the Spotify search API.
type SpotifyProvider struct {
	spotify SpotifyClient
	config  *SpotifyProviderConfig
}

// NewSpotifyProvider creates a new SpotifyProvider.
func NewSpotifyProvider(client SpotifyClient, settings map[string]any) (*SpotifyProvider, error) {
	if client == nil {
		return nil, errors.New("spotify client is required")
	}

	var config SpotifyProviderConfig
	if err := mapstructure.Decode(settings, &config); err != nil {
		return nil, errors.Wrap(err, "failed to decode settings")
	}
	if err := defaults.Set(&config); err != nil {
		return nil, errors.Wrap(err, "failed to set defaults")
	}
	if err := validator.New().Struct(config); err != nil {
		return nil, errors.Wrap(err, "validation failed")
	}

	config.SkipKeywords = lo.Map(config.SkipKeywords, func(k string, _ int) string {
		return strings.ToLower(strings.TrimSpace(k))
	})

	return &SpotifyProvider{spotify: client, config: &config}, nil
}

// Lookup implements Provider.
func (p *SpotifyProvider) Lookup(ctx context.Context, q Query) (string, error) {
	if !p.config.AllowTitleOnly && strings.TrimSpace(q.Artist) == "" {
		return "", ErrNotFound
	}
	if p.skipped(q) {
		return "", ErrNotFound
	}

	url, err := p.spotify.FindAlbumArt(ctx, q.Artist, q.Title)
	if errors.Is(err, spotify.ErrNoMatch) {
		return "", errors.Wrap(ErrNotFound, err.Error())
	}
	if err != nil {
		return "", err
	}
	return url, nil
}

func (p *SpotifyProvider) skipped(q Query) bool {
	text := strings.ToLower(q.Artist + " " + q.Title)
	return lo.SomeBy(p.config.SkipKeywords, func(k string) bool {
		return k != "" && strings.Contains(text, k)
	})
}

// Name returns the provider name.
func (p *SpotifyProvider) Name() string {
	return "spotify"
}
