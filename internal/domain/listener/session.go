// Package listener provides the ListeningSession domain entity.
package listener

import (
	"time"

	"github.com/google/uuid"

	"github.com/osa030/19radio/internal/domain/station"
)

// Session represents an interval during which a station counts as being listened to.
type Session struct {
	ID        string          // UUID
	Station   station.Station // Station being listened to
	StartedAt time.Time       // Session start time
}

// NewSession creates a new listening session for st starting at startedAt.
func NewSession(st station.Station, startedAt time.Time) *Session {
	return &Session{
		ID:        uuid.New().String(),
		Station:   st,
		StartedAt: startedAt,
	}
}

// Info returns the station projection for analytics.
func (s *Session) Info() station.Info {
	if s.Station == nil {
		return station.Info{}
	}
	return s.Station.Info()
}

// Elapsed returns the session length at now, never negative.
func (s *Session) Elapsed(now time.Time) time.Duration {
	d := now.Sub(s.StartedAt)
	if d < 0 {
		return 0
	}
	return d
}

// ElapsedSeconds returns Elapsed in seconds.
func (s *Session) ElapsedSeconds(now time.Time) float64 {
	return s.Elapsed(now).Seconds()
}

// IsFor reports whether the session is for the same station as st.
func (s *Session) IsFor(st station.Station) bool {
	return station.Same(s.Station, st)
}
