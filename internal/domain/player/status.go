// Package player defines the status values emitted by the two audio backends.
//
// The zero value of each status kind means "absent": the backend reported
// nothing meaningful (no URL set, no state).
package player

import (
	"github.com/osa030/19radio/internal/domain/station"
	"github.com/osa030/19radio/internal/domain/track"
)

// URLStatusKind represents the state of the URL stream backend.
type URLStatusKind int

const (
	URLNotSet          URLStatusKind = iota // No URL set (absent)
	URLLoading                              // Connecting / buffering
	URLReadyToPlay                          // Stream opened
	URLLoadingFinished                      // Buffering finished, metadata refreshed
	URLError                                // Stream failed
)

// String returns the string representation of the kind.
func (k URLStatusKind) String() string {
	switch k {
	case URLNotSet:
		return "url_not_set"
	case URLLoading:
		return "loading"
	case URLReadyToPlay:
		return "ready_to_play"
	case URLLoadingFinished:
		return "loading_finished"
	case URLError:
		return "error"
	default:
		return "unknown"
	}
}

// URLStatus is a status change of the URL stream backend.
type URLStatus struct {
	Kind    URLStatusKind
	Station *station.URLStation // Station the status is about (nil when not set)
	Artist  string              // Stream metadata artist, if any
	Title   string              // Stream metadata title, if any
	Err     error               // Cause for URLError
}

// ArtworkUpdate carries artwork resolved by the URL stream backend.
// It is delivered on its own channel, separate from URLStatus.
type ArtworkUpdate struct {
	Station *station.URLStation
	URL     string
}

// StationStatusKind represents the state of the managed station backend.
type StationStatusKind int

const (
	StationNone    StationStatusKind = iota // No state (absent)
	StationIdle                             // Not playing
	StationLoading                          // Preparing the station
	StationPlaying                          // On air
)

// String returns the string representation of the kind.
func (k StationStatusKind) String() string {
	switch k {
	case StationNone:
		return "none"
	case StationIdle:
		return "idle"
	case StationLoading:
		return "loading"
	case StationPlaying:
		return "playing"
	default:
		return "unknown"
	}
}

// StationStatus is a status change of the managed station backend.
type StationStatus struct {
	Kind       StationStatusKind
	Station    *station.PlayolaStation // Station the status is about (nil when idle)
	Progress   *float64                // Loading progress in [0,1], if known
	NowPlaying track.NowPlaying        // Populated for StationPlaying
	Err        error                   // Cause for StationNone after a failure
}
