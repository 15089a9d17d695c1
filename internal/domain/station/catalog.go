package station

import "github.com/samber/lo"

// Catalog is an ordered list of stations.
type Catalog struct {
	Stations []Station
}

// IDs returns all station IDs in catalog order.
func (c *Catalog) IDs() []string {
	return lo.Map(c.Stations, func(s Station, _ int) string {
		return s.Info().ID
	})
}

// Find returns the station with the given ID.
func (c *Catalog) Find(id string) (Station, bool) {
	return lo.Find(c.Stations, func(s Station) bool {
		return s.Info().ID == id
	})
}

// Active returns the stations flagged as active.
func (c *Catalog) Active() []Station {
	return lo.Filter(c.Stations, func(s Station, _ int) bool {
		switch v := s.(type) {
		case URLStation:
			return v.Active
		case PlayolaStation:
			return v.Active
		default:
			return false
		}
	})
}
