package playback_test

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osa030/19radio/internal/app/analytics"
	"github.com/osa030/19radio/internal/app/playback"
	"github.com/osa030/19radio/internal/domain/player"
)

type eventLog struct {
	mu     sync.Mutex
	events []analytics.Event
}

func (l *eventLog) Track(ev analytics.Event) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, ev)
}

func (l *eventLog) types() []analytics.EventType {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []analytics.EventType
	for _, ev := range l.events {
		out = append(out, ev.Type)
	}
	return out
}

func TestOrchestrator_DrivesSessionTracking(t *testing.T) {
	url := newFakeURLBackend()
	stn := newFakeStationBackend()
	log := &eventLog{}
	tracker := analytics.NewTracker(log)
	orch := playback.NewOrchestrator(playback.Config{}, url, stn, tracker)
	orch.Start()
	defer orch.Close()

	orch.Play(jazz)
	url.statusCh <- player.URLStatus{Kind: player.URLReadyToPlay, Station: &jazz, Artist: "A", Title: "T"}
	require.Eventually(t, func() bool { return orch.State().Status.IsPlaying() }, waitFor, tick)
	assert.Equal(t, []analytics.EventType{analytics.EventSessionStarted}, log.types())

	// Re-announcements and a repeated play of the same station are silent.
	url.statusCh <- player.URLStatus{Kind: player.URLLoadingFinished, Station: &jazz, Artist: "A2", Title: "T2"}
	require.Eventually(t, func() bool { return orch.State().Title == "T2" }, waitFor, tick)
	orch.Play(jazz)
	assert.Len(t, log.types(), 1)

	progress := 1.0
	orch.Play(bri)
	stn.statusCh <- player.StationStatus{Kind: player.StationLoading, Station: &bri, Progress: &progress}
	stn.statusCh <- player.StationStatus{Kind: player.StationPlaying, Station: &bri}
	require.Eventually(t, func() bool {
		return orch.State().Status.Equal(playback.Playing(bri))
	}, waitFor, tick)

	orch.Stop()

	assert.Equal(t, []analytics.EventType{
		analytics.EventSessionStarted,
		analytics.EventSessionEnded,
		analytics.EventSwitchedStation,
		analytics.EventSessionStarted,
		analytics.EventSessionEnded,
	}, log.types())

	_, open := tracker.ActiveSession()
	assert.False(t, open)
}

func TestOrchestrator_BackendErrorEndsSession(t *testing.T) {
	url := newFakeURLBackend()
	stn := newFakeStationBackend()
	log := &eventLog{}
	orch := playback.NewOrchestrator(playback.Config{ResubscribeDelay: time.Millisecond}, url, stn, analytics.NewTracker(log))
	orch.Start()
	defer orch.Close()

	orch.Play(jazz)
	url.statusCh <- player.URLStatus{Kind: player.URLReadyToPlay, Station: &jazz}
	require.Eventually(t, func() bool { return orch.State().Status.IsPlaying() }, waitFor, tick)

	url.statusCh <- player.URLStatus{Kind: player.URLError, Station: &jazz}
	require.Eventually(t, func() bool {
		return orch.State().Status.Kind == playback.StatusError
	}, waitFor, tick)

	// Retrying and failing again reports a bare playback error.
	orch.Play(jazz)
	url.statusCh <- player.URLStatus{Kind: player.URLError, Station: &jazz}
	require.Eventually(t, func() bool { return len(log.types()) == 3 }, waitFor, tick)

	assert.Equal(t, []analytics.EventType{
		analytics.EventSessionStarted,
		analytics.EventSessionEnded,
		analytics.EventPlaybackError,
	}, log.types())
}
