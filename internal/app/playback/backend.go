package playback

import (
	"context"

	"github.com/osa030/19radio/internal/domain/player"
	"github.com/osa030/19radio/internal/domain/station"
)

// URLBackend is the capability set required from the URL stream backend.
type URLBackend interface {
	// Subscribe returns the backend status stream. The channel is closed when ctx ends.
	Subscribe(ctx context.Context) <-chan player.URLStatus
	// SubscribeArtwork returns the artwork stream. The channel is closed when ctx ends.
	SubscribeArtwork(ctx context.Context) <-chan player.ArtworkUpdate
	// Play starts streaming s. Failures are also reported as URLError.
	Play(ctx context.Context, s station.URLStation) error
	// Stop resets the backend. Must not block.
	Stop()
}

// StationBackend is the capability set required from the managed station backend.
type StationBackend interface {
	// Subscribe returns the backend status stream. The channel is closed when ctx ends.
	Subscribe(ctx context.Context) <-chan player.StationStatus
	// Play starts s. Failures are also reported as StationNone.
	Play(ctx context.Context, s station.PlayolaStation) error
	// Stop resets the backend. Must not block.
	Stop()
}

// backendKind identifies which backend is engaged.
type backendKind int

const (
	backendNone backendKind = iota
	backendURL
	backendStation
)

// String returns the string representation of the backend kind.
func (b backendKind) String() string {
	switch b {
	case backendNone:
		return "none"
	case backendURL:
		return "url"
	case backendStation:
		return "station"
	default:
		return "unknown"
	}
}
