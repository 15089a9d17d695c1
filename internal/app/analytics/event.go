// Package analytics derives listening-session analytics events from playback
// status transitions and delivers them to reporters.
package analytics

import (
	"time"

	"github.com/osa030/19radio/internal/domain/listener"
	"github.com/osa030/19radio/internal/domain/station"
)

// EventType identifies an analytics event.
type EventType string

const (
	EventSessionStarted  EventType = "listening_session_started"
	EventSessionEnded    EventType = "listening_session_ended"
	EventSwitchedStation EventType = "switched_station"
	EventPlaybackError   EventType = "playback_error"
)

// SwitchReason explains a station switch. New reasons are new constants.
type SwitchReason string

const (
	SwitchReasonUserInitiated SwitchReason = "user_initiated"
)

// Event is a single analytics event.
type Event struct {
	Type                EventType     `json:"type"`
	SessionID           string        `json:"session_id,omitempty"`
	Station             station.Info  `json:"station"` // Subject, or the "from" station of a switch
	ToStation           *station.Info `json:"to_station,omitempty"`
	SessionLengthSec    float64       `json:"session_length_sec,omitempty"`
	TimeBeforeSwitchSec float64       `json:"time_before_switch_sec,omitempty"`
	Reason              SwitchReason  `json:"reason,omitempty"`
	Message             string        `json:"message,omitempty"`
	OccurredAt          time.Time     `json:"occurred_at"`
	Sequence            uint64        `json:"sequence"` // Assigned by the Dispatcher
}

// Sink receives analytics events. Track must not block.
type Sink interface {
	Track(ev Event)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ev Event)

// Track calls f(ev).
func (f SinkFunc) Track(ev Event) {
	f(ev)
}

// SessionStarted returns the event emitted when s opens.
func SessionStarted(s *listener.Session) Event {
	return Event{
		Type:       EventSessionStarted,
		SessionID:  s.ID,
		Station:    s.Info(),
		OccurredAt: s.StartedAt,
	}
}

// SessionEnded returns the event emitted when s closes at now.
func SessionEnded(s *listener.Session, now time.Time) Event {
	return Event{
		Type:             EventSessionEnded,
		SessionID:        s.ID,
		Station:          s.Info(),
		SessionLengthSec: s.ElapsedSeconds(now),
		OccurredAt:       now,
	}
}

// SwitchedStation returns the event emitted when the listener leaves s for to.
func SwitchedStation(s *listener.Session, to station.Info, reason SwitchReason, now time.Time) Event {
	return Event{
		Type:                EventSwitchedStation,
		SessionID:           s.ID,
		Station:             s.Info(),
		ToStation:           &to,
		TimeBeforeSwitchSec: s.ElapsedSeconds(now),
		Reason:              reason,
		OccurredAt:          now,
	}
}

// PlaybackError returns the event emitted for an error outside any session.
func PlaybackError(st station.Info, message string, now time.Time) Event {
	return Event{
		Type:       EventPlaybackError,
		Station:    st,
		Message:    message,
		OccurredAt: now,
	}
}
