package playback_test

import (
	"context"
	"sync"

	"github.com/osa030/19radio/internal/app/playback"
	"github.com/osa030/19radio/internal/domain/player"
	"github.com/osa030/19radio/internal/domain/station"
)

// forward relays src to a fresh channel that is closed when ctx ends.
func forward[T any](ctx context.Context, src <-chan T) <-chan T {
	out := make(chan T)
	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case v := <-src:
				select {
				case out <- v:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out
}

type fakeURLBackend struct {
	mu        sync.Mutex
	statusCh  chan player.URLStatus
	artworkCh chan player.ArtworkUpdate
	played    []station.URLStation
	stops     int
	playErr   error
}

func newFakeURLBackend() *fakeURLBackend {
	return &fakeURLBackend{
		statusCh:  make(chan player.URLStatus, 16),
		artworkCh: make(chan player.ArtworkUpdate, 16),
	}
}

func (f *fakeURLBackend) Subscribe(ctx context.Context) <-chan player.URLStatus {
	return forward(ctx, f.statusCh)
}

func (f *fakeURLBackend) SubscribeArtwork(ctx context.Context) <-chan player.ArtworkUpdate {
	return forward(ctx, f.artworkCh)
}

func (f *fakeURLBackend) Play(_ context.Context, s station.URLStation) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.played = append(f.played, s)
	return f.playErr
}

func (f *fakeURLBackend) Stop() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stops++
}

func (f *fakeURLBackend) playCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.played)
}

func (f *fakeURLBackend) stopCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stops
}

type fakeStationBackend struct {
	mu       sync.Mutex
	statusCh chan player.StationStatus
	played   []station.PlayolaStation
	stops    int
}

func newFakeStationBackend() *fakeStationBackend {
	return &fakeStationBackend{statusCh: make(chan player.StationStatus, 16)}
}

func (f *fakeStationBackend) Subscribe(ctx context.Context) <-chan player.StationStatus {
	return forward(ctx, f.statusCh)
}

func (f *fakeStationBackend) Play(_ context.Context, s station.PlayolaStation) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.played = append(f.played, s)
	return nil
}

func (f *fakeStationBackend) Stop() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stops++
}

func (f *fakeStationBackend) playCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.played)
}

func (f *fakeStationBackend) stopCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stops
}

type transition struct {
	from, to playback.Status
}

type recordingObserver struct {
	mu          sync.Mutex
	transitions []transition
}

func (r *recordingObserver) Observe(previous, current playback.Status) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.transitions = append(r.transitions, transition{from: previous, to: current})
}

func (r *recordingObserver) snapshot() []transition {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]transition, len(r.transitions))
	copy(out, r.transitions)
	return out
}

// kinds returns the destination kinds of the recorded transitions.
func (r *recordingObserver) kinds() []playback.StatusKind {
	var out []playback.StatusKind
	for _, tr := range r.snapshot() {
		out = append(out, tr.to.Kind)
	}
	return out
}
