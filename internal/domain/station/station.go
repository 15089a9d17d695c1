// Package station provides the Station domain entity.
//
// A station is one of two variants: a URLStation (plain internet radio stream)
// or a PlayolaStation (catalog-hosted station driven by the managed backend).
// Identity is the station ID only, regardless of variant.
package station

import "time"

// Kind represents the station variant.
type Kind int

const (
	KindURL     Kind = iota // Internet radio stream URL
	KindPlayola             // Catalog-hosted managed station
)

// String returns the string representation of the kind.
func (k Kind) String() string {
	switch k {
	case KindURL:
		return "url"
	case KindPlayola:
		return "playola"
	default:
		return "unknown"
	}
}

// Info is the minimal projection of a station used by analytics.
type Info struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Station is the closed union of URLStation and PlayolaStation.
type Station interface {
	Info() Info
	Kind() Kind
	isStation()
}

// URLStation represents an internet radio station played from a stream URL.
type URLStation struct {
	ID          string    // Station ID
	Name        string    // Display name
	StreamURL   string    // Audio stream URL
	ArtworkURL  string    // Station logo URL
	Description string    // Description
	Website     string    // Station website
	Location    string    // City / country
	Active      bool      // Listed in the catalog
	CreatedAt   time.Time // Creation time
	UpdatedAt   time.Time // Last update time
}

// Info returns the id/name projection.
func (s URLStation) Info() Info { return Info{ID: s.ID, Name: s.Name} }

// Kind returns KindURL.
func (s URLStation) Kind() Kind { return KindURL }

func (URLStation) isStation() {}

// PlayolaStation represents a station hosted by the managed station catalog.
type PlayolaStation struct {
	ID          string    // Catalog station ID
	Name        string    // Display name
	CuratorName string    // Curator display name
	ImageURL    string    // Station image URL
	Description string    // Description
	Active      bool      // Listed in the catalog
	CreatedAt   time.Time // Creation time
	UpdatedAt   time.Time // Last update time
}

// Info returns the id/name projection.
func (s PlayolaStation) Info() Info { return Info{ID: s.ID, Name: s.Name} }

// Kind returns KindPlayola.
func (s PlayolaStation) Kind() Kind { return KindPlayola }

func (PlayolaStation) isStation() {}

// ID returns the station ID, or "" for nil.
func ID(s Station) string {
	if s == nil {
		return ""
	}
	return s.Info().ID
}

// Same reports whether a and b are the same logical station.
// Stations match by ID across variants. Two nil stations are not the same.
func Same(a, b Station) bool {
	if a == nil || b == nil {
		return false
	}
	return a.Info().ID == b.Info().ID
}
