// Package playback unifies the two audio backends into one canonical playback state.
package playback

import (
	"fmt"

	"github.com/osa030/19radio/internal/domain/station"
)

// StatusKind represents the unified playback status variant.
type StatusKind int

const (
	StatusStopped            StatusKind = iota // Nothing playing
	StatusStartingNewStation                   // Transient, set right before loading
	StatusLoading                              // Backend is preparing the station
	StatusPlaying                              // Station is on air
	StatusError                                // Backend failed
)

// String returns the string representation of the kind.
func (k StatusKind) String() string {
	switch k {
	case StatusStopped:
		return "stopped"
	case StatusStartingNewStation:
		return "starting_new_station"
	case StatusLoading:
		return "loading"
	case StatusPlaying:
		return "playing"
	case StatusError:
		return "error"
	default:
		return "unknown"
	}
}

// Status is the unified playback status. Only one variant is active at a time
// and a Status is always replaced wholesale.
type Status struct {
	Kind     StatusKind
	Station  station.Station // Set for starting, loading and playing
	Progress *float64        // Loading progress in [0,1], loading only
}

// Stopped returns the stopped status.
func Stopped() Status {
	return Status{Kind: StatusStopped}
}

// Errored returns the error status.
func Errored() Status {
	return Status{Kind: StatusError}
}

// StartingNewStation returns the transient status set before loading s.
func StartingNewStation(s station.Station) Status {
	return Status{Kind: StatusStartingNewStation, Station: s}
}

// Loading returns the loading status for s. Progress is clamped to [0,1].
func Loading(s station.Station, progress *float64) Status {
	if progress != nil {
		p := *progress
		if p < 0 {
			p = 0
		}
		if p > 1 {
			p = 1
		}
		progress = &p
	}
	return Status{Kind: StatusLoading, Station: s, Progress: progress}
}

// Playing returns the playing status for s.
func Playing(s station.Station) Status {
	return Status{Kind: StatusPlaying, Station: s}
}

// CurrentStation returns the station the status refers to.
// Stopped and error statuses have no station.
func (s Status) CurrentStation() (station.Station, bool) {
	switch s.Kind {
	case StatusStartingNewStation, StatusLoading, StatusPlaying:
		if s.Station == nil {
			return nil, false
		}
		return s.Station, true
	default:
		return nil, false
	}
}

// IsPlaying reports whether the status is playing.
func (s Status) IsPlaying() bool {
	return s.Kind == StatusPlaying
}

// Equal compares kind, station identity and progress.
func (s Status) Equal(o Status) bool {
	if s.Kind != o.Kind {
		return false
	}
	if station.ID(s.Station) != station.ID(o.Station) {
		return false
	}
	switch {
	case s.Progress == nil && o.Progress == nil:
		return true
	case s.Progress == nil || o.Progress == nil:
		return false
	default:
		return *s.Progress == *o.Progress
	}
}

// String returns a short description for logs.
func (s Status) String() string {
	st, ok := s.CurrentStation()
	if !ok {
		return s.Kind.String()
	}
	if s.Progress != nil {
		return fmt.Sprintf("%s(%s, %.2f)", s.Kind, st.Info().ID, *s.Progress)
	}
	return fmt.Sprintf("%s(%s)", s.Kind, st.Info().ID)
}
