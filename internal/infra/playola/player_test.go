package playola

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osa030/19radio/internal/domain/player"
	"github.com/osa030/19radio/internal/domain/station"
	"github.com/osa030/19radio/internal/domain/track"
)

const (
	waitFor = time.Second
	tick    = 5 * time.Millisecond
)

var bri = station.PlayolaStation{ID: "bri", Name: "Bri's Picks"}

// scriptedSource answers successive NowPlaying calls from a script, then
// repeats the last answer.
type scriptedSource struct {
	mu     sync.Mutex
	script []sourceResult
	calls  int
}

type sourceResult struct {
	np  track.NowPlaying
	err error
}

func (s *scriptedSource) NowPlaying(_ context.Context, _ string) (track.NowPlaying, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := min(s.calls, len(s.script)-1)
	s.calls++
	return s.script[i].np, s.script[i].err
}

type statusLog struct {
	mu    sync.Mutex
	items []player.StationStatus
}

func record(ch <-chan player.StationStatus) *statusLog {
	l := &statusLog{}
	go func() {
		for st := range ch {
			l.mu.Lock()
			l.items = append(l.items, st)
			l.mu.Unlock()
		}
	}()
	return l
}

func (l *statusLog) snapshot() []player.StationStatus {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]player.StationStatus(nil), l.items...)
}

func (l *statusLog) kinds() []player.StationStatusKind {
	out := []player.StationStatusKind{}
	for _, st := range l.snapshot() {
		out = append(out, st.Kind)
	}
	return out
}

func song(id, artist, title string) track.NowPlaying {
	return track.NowPlaying{Artist: artist, Title: title, ProgramUnit: &track.ProgramUnit{ID: id, Type: "song"}}
}

func newTestPlayer(t *testing.T, source NowPlayingSource) (*Player, *statusLog) {
	t.Helper()
	p := NewPlayer(source, PlayerConfig{PollInterval: 10 * time.Millisecond, MaxFailures: 2})
	ctx, cancel := context.WithCancel(context.Background())
	log := record(p.Subscribe(ctx))
	t.Cleanup(func() {
		p.Close()
		cancel()
	})
	return p, log
}

func TestPlayer_PlayPublishesNowPlaying(t *testing.T) {
	source := &scriptedSource{script: []sourceResult{
		{np: song("1", "Cher", "Believe")},
		{np: song("1", "Cher", "Believe")},
		{np: song("2", "Madonna", "Vogue")},
	}}
	p, log := newTestPlayer(t, source)

	require.NoError(t, p.Play(context.Background(), bri))

	require.Eventually(t, func() bool { return len(log.snapshot()) >= 3 }, waitFor, tick)
	got := log.snapshot()
	assert.Equal(t, []player.StationStatusKind{player.StationLoading, player.StationPlaying, player.StationPlaying}, log.kinds()[:3])
	require.NotNil(t, got[0].Progress)
	assert.Zero(t, *got[0].Progress)
	assert.Equal(t, "Believe", got[1].NowPlaying.Title)
	assert.Equal(t, "Vogue", got[2].NowPlaying.Title, "unchanged polls are not republished")
	assert.Equal(t, "bri", got[2].Station.ID)
}

func TestPlayer_InitialFetchFailure(t *testing.T) {
	source := &scriptedSource{script: []sourceResult{{err: ErrStationNotFound}}}
	p, log := newTestPlayer(t, source)

	err := p.Play(context.Background(), bri)
	assert.True(t, errors.Is(err, ErrStationNotFound))

	require.Eventually(t, func() bool { return len(log.snapshot()) == 2 }, waitFor, tick)
	got := log.snapshot()
	assert.Equal(t, player.StationNone, got[1].Kind)
	assert.Error(t, got[1].Err)
	assert.Equal(t, "bri", got[1].Station.ID)
}

func TestPlayer_RepeatedPollFailuresLoseStation(t *testing.T) {
	boom := errors.New("boom")
	source := &scriptedSource{script: []sourceResult{
		{np: song("1", "Cher", "Believe")},
		{err: boom},
		{np: song("1", "Cher", "Believe")},
		{err: boom},
		{err: boom},
	}}
	p, log := newTestPlayer(t, source)

	require.NoError(t, p.Play(context.Background(), bri))

	assert.Eventually(t, func() bool {
		kinds := log.kinds()
		return len(kinds) > 0 && kinds[len(kinds)-1] == player.StationNone
	}, waitFor, tick)
	assert.Equal(t, []player.StationStatusKind{player.StationLoading, player.StationPlaying, player.StationNone}, log.kinds(),
		"a single failure followed by success does not lose the station")
}

func TestPlayer_StopPublishesIdle(t *testing.T) {
	source := &scriptedSource{script: []sourceResult{{np: song("1", "Cher", "Believe")}}}
	p, log := newTestPlayer(t, source)

	p.Stop()
	require.NoError(t, p.Play(context.Background(), bri))
	p.Stop()
	p.Stop()

	require.Eventually(t, func() bool { return len(log.snapshot()) == 3 }, waitFor, tick)
	got := log.snapshot()
	assert.Equal(t, player.StationIdle, got[2].Kind)
	assert.Equal(t, "bri", got[2].Station.ID)

	time.Sleep(30 * time.Millisecond)
	assert.Len(t, log.snapshot(), 3, "no polling after stop")
}

func TestPlayer_CancelledContext(t *testing.T) {
	p, log := newTestPlayer(t, &scriptedSource{script: []sourceResult{{}}})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Error(t, p.Play(ctx, bri))

	time.Sleep(20 * time.Millisecond)
	assert.Empty(t, log.snapshot())
}

func TestSameNowPlaying(t *testing.T) {
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	unit := func(id string) *track.ProgramUnit { return &track.ProgramUnit{ID: id, AiringAt: at} }

	tests := []struct {
		name string
		a, b track.NowPlaying
		want bool
	}{
		{name: "both empty", want: true},
		{name: "same unit", a: track.NowPlaying{Title: "x", ProgramUnit: unit("1")}, b: track.NowPlaying{Title: "x", ProgramUnit: unit("1")}, want: true},
		{name: "different unit", a: track.NowPlaying{Title: "x", ProgramUnit: unit("1")}, b: track.NowPlaying{Title: "x", ProgramUnit: unit("2")}},
		{name: "unit appears", a: track.NowPlaying{Title: "x"}, b: track.NowPlaying{Title: "x", ProgramUnit: unit("1")}},
		{name: "artwork changes", a: track.NowPlaying{ArtworkURL: "a"}, b: track.NowPlaying{ArtworkURL: "b"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, sameNowPlaying(tt.a, tt.b))
		})
	}
}
