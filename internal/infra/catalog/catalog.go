// Package catalog loads the station catalog file and keeps it current.
package catalog

import (
	"os"
	"strings"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/go-playground/validator/v10"
	"github.com/samber/lo"
	"gopkg.in/yaml.v3"

	"github.com/osa030/19radio/internal/domain/station"
)

// File is the on-disk catalog layout.
type File struct {
	Stations []Entry `yaml:"stations" validate:"dive"`
}

// Entry is one station in the catalog file.
type Entry struct {
	ID          string `yaml:"id" validate:"required"`
	Type        string `yaml:"type" validate:"required,oneof=url playola"`
	Name        string `yaml:"name" validate:"required"`
	StreamURL   string `yaml:"stream_url" validate:"omitempty,url"`
	ArtworkURL  string `yaml:"artwork_url" validate:"omitempty,url"`
	Website     string `yaml:"website" validate:"omitempty,url"`
	Location    string `yaml:"location"`
	CuratorName string `yaml:"curator_name"`
	ImageURL    string `yaml:"image_url" validate:"omitempty,url"`
	Description string `yaml:"description"`
	Active      *bool  `yaml:"active"` // Defaults to true
}

// Load reads and parses a catalog file.
func Load(path string) (*station.Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read catalog file")
	}
	return Parse(data)
}

// Parse parses catalog YAML into a station catalog.
func Parse(data []byte) (*station.Catalog, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, errors.Wrap(err, "failed to parse catalog file")
	}
	if err := f.Validate(); err != nil {
		return nil, errors.Wrap(err, "catalog validation failed")
	}

	return &station.Catalog{
		Stations: lo.Map(f.Stations, func(e Entry, _ int) station.Station { return e.toStation() }),
	}, nil
}

// Validate checks field rules, per-type requirements and id uniqueness.
func (f *File) Validate() error {
	if err := validator.New().Struct(f); err != nil {
		return errors.Wrap(err, "struct validation failed")
	}

	for _, e := range f.Stations {
		if e.Type == "url" && e.StreamURL == "" {
			return errors.Newf("station %s: stream_url is required for url stations", e.ID)
		}
	}

	dups := lo.FindDuplicatesBy(f.Stations, func(e Entry) string { return e.ID })
	if len(dups) > 0 {
		ids := lo.Map(dups, func(e Entry, _ int) string { return e.ID })
		return errors.Newf("duplicate station ids: %s", strings.Join(ids, ", "))
	}
	return nil
}

func (e Entry) toStation() station.Station {
	active := lo.FromPtrOr(e.Active, true)
	if e.Type == "playola" {
		return station.PlayolaStation{
			ID:          e.ID,
			Name:        e.Name,
			CuratorName: e.CuratorName,
			ImageURL:    e.ImageURL,
			Description: e.Description,
			Active:      active,
		}
	}
	return station.URLStation{
		ID:          e.ID,
		Name:        e.Name,
		StreamURL:   e.StreamURL,
		ArtworkURL:  e.ArtworkURL,
		Description: e.Description,
		Website:     e.Website,
		Location:    e.Location,
		Active:      active,
	}
}

// Store holds the current catalog and is safe for concurrent use.
type Store struct {
	mu      sync.RWMutex
	catalog *station.Catalog
}

// NewStore creates a store holding c.
func NewStore(c *station.Catalog) *Store {
	if c == nil {
		c = &station.Catalog{}
	}
	return &Store{catalog: c}
}

// Catalog returns the current catalog.
func (s *Store) Catalog() *station.Catalog {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.catalog
}

// Replace swaps in a new catalog.
func (s *Store) Replace(c *station.Catalog) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.catalog = c
}

// Find returns the station with the given id from the current catalog.
func (s *Store) Find(id string) (station.Station, bool) {
	return s.Catalog().Find(id)
}
