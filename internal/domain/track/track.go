// Package track provides now-playing metadata and catalog track entities.
package track

import (
	"strings"
	"time"
)

// Track represents a track returned by a catalog search.
// Only used to resolve artwork for stream metadata.
type Track struct {
	ID          string        // Catalog track ID
	Name        string        // Track name
	Artists     []string      // Artist names
	Album       string        // Album name
	AlbumArtURL string        // Album art URL
	Duration    time.Duration // Track duration
	URL         string        // Catalog URL
}

// PrimaryArtist returns the first artist, or "" when none.
func (t *Track) PrimaryArtist() string {
	if len(t.Artists) == 0 {
		return ""
	}
	return t.Artists[0]
}

// MatchesArtist reports whether any of the track artists matches name (case-insensitive).
func (t *Track) MatchesArtist(name string) bool {
	name = strings.TrimSpace(name)
	if name == "" {
		return false
	}
	for _, a := range t.Artists {
		if strings.EqualFold(a, name) {
			return true
		}
	}
	return false
}

// ProgramUnit is the unit of programming a managed station is airing
// (a song, a voice track, a commercial block). Opaque to the playback core.
type ProgramUnit struct {
	ID       string        // Unit ID
	Type     string        // "song", "voicetrack", "commercialblock", ...
	Title    string        // Title, if any
	AiringAt time.Time     // Scheduled air time
	Duration time.Duration // Scheduled length
}

// NowPlaying is the metadata a backend reports for what is on air.
type NowPlaying struct {
	Artist      string
	Title       string
	Album       string
	ArtworkURL  string
	ProgramUnit *ProgramUnit
}

// IsEmpty reports whether no artist or title is known.
func (n NowPlaying) IsEmpty() bool {
	return n.Artist == "" && n.Title == ""
}
