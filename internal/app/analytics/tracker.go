package analytics

import (
	"time"

	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/19radio/internal/app/playback"
	"github.com/osa030/19radio/internal/domain/listener"
	"github.com/osa030/19radio/internal/domain/station"
)

// DefaultErrorMessage is the message carried by playback error events.
const DefaultErrorMessage = "Playback error occurred"

// Tracker turns playback status transitions into listening-session events.
//
// A Tracker is not safe for concurrent use. Its single caller, the playback
// orchestrator, serializes every call.
type Tracker struct {
	sink         Sink
	now          func() time.Time
	errorMessage string

	session    *listener.Session // Open session, nil when none
	lastPlayed station.Station   // Station of the last session closed by an error
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithClock sets the time source.
func WithClock(now func() time.Time) Option {
	return func(t *Tracker) {
		if now != nil {
			t.now = now
		}
	}
}

// WithErrorMessage sets the message of playback error events.
func WithErrorMessage(msg string) Option {
	return func(t *Tracker) {
		if msg != "" {
			t.errorMessage = msg
		}
	}
}

// NewTracker creates a new tracker delivering to sink.
func NewTracker(sink Sink, opts ...Option) *Tracker {
	t := &Tracker{
		sink:         sink,
		now:          time.Now,
		errorMessage: DefaultErrorMessage,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Observe implements playback.StatusObserver.
func (t *Tracker) Observe(previous, current playback.Status) {
	for _, ev := range t.Transition(previous, current) {
		if t.sink != nil {
			t.sink.Track(ev)
		}
	}
}

// Transition applies one status change and returns the events it produces,
// in emission order.
func (t *Tracker) Transition(previous, current playback.Status) []Event {
	switch current.Kind {
	case playback.StatusPlaying:
		return t.enterPlaying(previous, current)
	case playback.StatusStopped:
		return t.closeSession()
	case playback.StatusError:
		return t.enterError()
	default:
		return nil
	}
}

// ActiveSession returns a copy of the open session.
func (t *Tracker) ActiveSession() (listener.Session, bool) {
	if t.session == nil {
		return listener.Session{}, false
	}
	return *t.session, true
}

func (t *Tracker) enterPlaying(previous, current playback.Status) []Event {
	st, ok := current.CurrentStation()
	if !ok {
		return nil
	}

	if previous.IsPlaying() && station.Same(previous.Station, st) {
		return nil
	}

	if t.session == nil {
		return []Event{t.openSession(st)}
	}

	if t.session.IsFor(st) {
		zlog.Debug().Msgf("analytics: session already open, not re-announcing: station=%s", station.ID(st))
		return nil
	}

	now := t.now()
	from := t.session
	t.session = nil
	return []Event{
		SessionEnded(from, now),
		SwitchedStation(from, st.Info(), SwitchReasonUserInitiated, now),
		t.openSessionAt(st, now),
	}
}

func (t *Tracker) enterError() []Event {
	if t.session != nil {
		st := t.session.Station
		events := t.closeSession()
		t.lastPlayed = st
		return events
	}
	if t.lastPlayed == nil {
		return nil
	}
	return []Event{PlaybackError(t.lastPlayed.Info(), t.errorMessage, t.now())}
}

func (t *Tracker) openSession(st station.Station) Event {
	return t.openSessionAt(st, t.now())
}

func (t *Tracker) openSessionAt(st station.Station, now time.Time) Event {
	t.session = listener.NewSession(st, now)
	zlog.Debug().Msgf("analytics: session opened: id=%s station=%s", t.session.ID, station.ID(st))
	return SessionStarted(t.session)
}

func (t *Tracker) closeSession() []Event {
	if t.session == nil {
		return nil
	}
	s := t.session
	t.session = nil
	ev := SessionEnded(s, t.now())
	zlog.Debug().Msgf("analytics: session closed: id=%s station=%s length=%.1fs", s.ID, ev.Station.ID, ev.SessionLengthSec)
	return []Event{ev}
}
