package playback

import "github.com/osa030/19radio/internal/domain/track"

// State is the unified, observable playback state.
// Artist, Title and ArtworkURL are empty when unknown and are cleared
// whenever the status becomes stopped or error.
type State struct {
	Status      Status
	Artist      string
	Title       string
	ArtworkURL  string
	ProgramUnit *track.ProgramUnit
}

// withStatusOnly returns a state carrying status and no metadata.
func withStatusOnly(s Status) State {
	return State{Status: s}
}

// clearsMetadata reports whether entering s must drop now-playing metadata.
func clearsMetadata(s Status) bool {
	return s.Kind == StatusStopped || s.Kind == StatusError
}
