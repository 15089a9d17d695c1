// Package artwork resolves album artwork for stream titles.
package artwork

import (
	"context"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/osa030/19radio/internal/domain/station"
	"github.com/osa030/19radio/internal/infra/lastfm"
)

// ErrNotFound is returned when no provider has artwork for a query.
var ErrNotFound = errors.New("artwork not found")

// Query identifies the title artwork is looked up for.
type Query struct {
	Station *station.URLStation // Station the title was announced on, may be nil
	Artist  string
	Title   string
}

// IsEmpty reports whether the query has neither artist nor title.
func (q Query) IsEmpty() bool {
	return strings.TrimSpace(q.Artist) == "" && strings.TrimSpace(q.Title) == ""
}

// Provider is the interface for artwork providers.
type Provider interface {
	// Lookup returns an artwork URL for q, or ErrNotFound.
	Lookup(ctx context.Context, q Query) (string, error)

	// Name returns the provider name (used in config).
	Name() string
}

// SpotifyClient defines the Spotify operations needed by providers.
type SpotifyClient interface {
	FindAlbumArt(ctx context.Context, artist, title string) (string, error)
}

// LastFmClient defines the Last.fm operations needed by providers.
type LastFmClient interface {
	GetTrackInfo(ctx context.Context, trackName, artistName string) (*lastfm.TrackInfo, error)
}
