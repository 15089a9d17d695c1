package playback

import (
	"context"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/19radio/internal/domain/player"
	"github.com/osa030/19radio/internal/domain/station"
)

// Config holds orchestrator configuration.
type Config struct {
	UpdateBuffer     int           // Capacity of the Updates channel
	ResubscribeDelay time.Duration // Delay before re-subscribing to an ended backend stream
}

// Orchestrator owns both backends and presents one unified playback state.
// Every mutation of the state, and every observer call, happens under mu.
type Orchestrator struct {
	mu sync.Mutex

	// Unified state
	state  State
	active backendKind

	// Backends
	urlBackend     URLBackend
	stationBackend StationBackend

	// Status observer (listening session tracker)
	observer StatusObserver

	// Ordered backend dispatch
	pending    []func()
	wake       chan struct{}
	playCancel context.CancelFunc // Cancels the in-flight backend play

	// Configuration
	config Config

	// Updates
	updateCh chan Update

	// Lifecycle
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	started bool
	closed  bool
}

// NewOrchestrator creates a new orchestrator in the stopped state.
// observer may be nil.
func NewOrchestrator(config Config, urlBackend URLBackend, stationBackend StationBackend, observer StatusObserver) *Orchestrator {
	if config.UpdateBuffer <= 0 {
		config.UpdateBuffer = 16
	}
	if config.ResubscribeDelay <= 0 {
		config.ResubscribeDelay = time.Second
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Orchestrator{
		state:          withStatusOnly(Stopped()),
		active:         backendNone,
		urlBackend:     urlBackend,
		stationBackend: stationBackend,
		observer:       observer,
		wake:           make(chan struct{}, 1),
		config:         config,
		updateCh:       make(chan Update, config.UpdateBuffer),
		ctx:            ctx,
		cancel:         cancel,
	}
}

// Start subscribes to both backends and starts the dispatch worker.
// Calling Start more than once has no effect.
func (o *Orchestrator) Start() {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.started || o.closed {
		return
	}
	o.started = true

	o.wg.Add(4)
	go o.dispatchLoop()
	go func() {
		defer o.wg.Done()
		pumpLoop(o.ctx, "url status", o.config.ResubscribeDelay, o.urlBackend.Subscribe, o.applyURLStatus)
	}()
	go func() {
		defer o.wg.Done()
		pumpLoop(o.ctx, "url artwork", o.config.ResubscribeDelay, o.urlBackend.SubscribeArtwork, o.applyArtwork)
	}()
	go func() {
		defer o.wg.Done()
		pumpLoop(o.ctx, "station status", o.config.ResubscribeDelay, o.stationBackend.Subscribe, o.applyStationStatus)
	}()
}

// Updates returns the state update channel.
// Updates are dropped when the channel is full.
func (o *Orchestrator) Updates() <-chan Update {
	return o.updateCh
}

// State returns a snapshot of the unified state.
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// Play switches playback to s. It is a no-op when s is already the current
// station. The status is updated before Play returns; the backend is engaged
// asynchronously and its failures surface as an error status.
func (o *Orchestrator) Play(s station.Station) {
	if s == nil {
		zlog.Warn().Msg("playback: play called without a station")
		return
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	if o.closed {
		return
	}

	if cur, ok := o.state.Status.CurrentStation(); ok && station.Same(cur, s) {
		zlog.Debug().Msgf("playback: already on station, ignoring play: station=%s", station.ID(s))
		return
	}

	o.resetBackendsLocked()

	o.setStateLocked(withStatusOnly(StartingNewStation(s)))
	o.setStateLocked(withStatusOnly(Loading(s, nil)))

	playCtx, cancel := context.WithCancel(o.ctx)
	o.playCancel = cancel

	switch v := s.(type) {
	case station.URLStation:
		o.engageURLLocked(playCtx, v)
	case *station.URLStation:
		o.engageURLLocked(playCtx, *v)
	case station.PlayolaStation:
		o.engageStationLocked(playCtx, v)
	case *station.PlayolaStation:
		o.engageStationLocked(playCtx, *v)
	default:
		zlog.Error().Msgf("playback: unsupported station type: %T", s)
		o.setStateLocked(withStatusOnly(Errored()))
	}
}

// Stop resets both backends and sets the status to stopped. It never fails
// and may be called any number of times.
func (o *Orchestrator) Stop() {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.resetBackendsLocked()
	o.setStateLocked(withStatusOnly(Stopped()))
}

// Close stops playback and releases resources.
func (o *Orchestrator) Close() {
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return
	}
	o.resetBackendsLocked()
	o.setStateLocked(withStatusOnly(Stopped()))
	o.closed = true
	o.mu.Unlock()

	o.cancel()
	o.wg.Wait()

	o.mu.Lock()
	close(o.updateCh)
	o.mu.Unlock()
}

func (o *Orchestrator) engageURLLocked(ctx context.Context, s station.URLStation) {
	o.active = backendURL
	o.enqueueLocked(func() {
		if err := o.urlBackend.Play(ctx, s); err != nil && ctx.Err() == nil {
			zlog.Warn().Msgf("playback: url backend play failed: station=%s error=%v", s.ID, err)
		}
	})
}

func (o *Orchestrator) engageStationLocked(ctx context.Context, s station.PlayolaStation) {
	o.active = backendStation
	o.enqueueLocked(func() {
		if err := o.stationBackend.Play(ctx, s); err != nil && ctx.Err() == nil {
			zlog.Warn().Msgf("playback: station backend play failed: station=%s error=%v", s.ID, err)
		}
	})
}

// resetBackendsLocked stops both backends and abandons queued or in-flight plays.
// Must be called with lock held.
func (o *Orchestrator) resetBackendsLocked() {
	if o.playCancel != nil {
		o.playCancel()
		o.playCancel = nil
	}
	o.pending = nil
	o.urlBackend.Stop()
	o.stationBackend.Stop()
	o.active = backendNone
}

func (o *Orchestrator) applyURLStatus(ev player.URLStatus) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.active != backendURL {
		logDropped("url", ev.Kind.String(), ErrInactiveBackend)
		return
	}
	next, err := foldURLStatus(o.state, ev)
	if err != nil {
		logDropped("url", ev.Kind.String(), err)
		return
	}
	if ev.Kind == player.URLError && ev.Err != nil {
		zlog.Warn().Msgf("playback: url backend error: %v", ev.Err)
	}
	o.setStateLocked(next)
}

func (o *Orchestrator) applyArtwork(ev player.ArtworkUpdate) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.active != backendURL {
		logDropped("url", "artwork", ErrInactiveBackend)
		return
	}
	next, err := foldArtwork(o.state, ev)
	if err != nil {
		logDropped("url", "artwork", err)
		return
	}
	o.setStateLocked(next)
}

func (o *Orchestrator) applyStationStatus(ev player.StationStatus) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.active != backendStation {
		logDropped("station", ev.Kind.String(), ErrInactiveBackend)
		return
	}
	next, err := foldStationStatus(o.state, ev)
	if err != nil {
		logDropped("station", ev.Kind.String(), err)
		return
	}
	if ev.Kind == player.StationNone && ev.Err != nil {
		zlog.Warn().Msgf("playback: station backend error: %v", ev.Err)
	}
	o.setStateLocked(next)
}

// setStateLocked replaces the state, notifies the observer on status changes
// and publishes an update. Must be called with lock held.
func (o *Orchestrator) setStateLocked(next State) {
	if clearsMetadata(next.Status) {
		next = withStatusOnly(next.Status)
	}

	prev := o.state
	statusChanged := !prev.Status.Equal(next.Status)
	if !statusChanged && sameMetadata(prev, next) {
		return
	}
	o.state = next

	if statusChanged {
		zlog.Debug().Msgf("playback: status changed: from=%s to=%s", prev.Status, next.Status)
		if o.observer != nil {
			o.observer.Observe(prev.Status, next.Status)
		}
	}

	o.sendUpdateLocked(Update{
		Previous:      prev.Status,
		State:         next,
		StatusChanged: statusChanged,
	})
}

// sendUpdateLocked sends an update without blocking.
// Must be called with lock held.
func (o *Orchestrator) sendUpdateLocked(u Update) {
	if o.closed {
		return
	}
	select {
	case o.updateCh <- u:
	default:
		zlog.Debug().Msgf("playback: update channel full, dropping update: status=%s", u.State.Status)
	}
}

// enqueueLocked queues a backend task for the dispatch worker.
// Must be called with lock held.
func (o *Orchestrator) enqueueLocked(task func()) {
	o.pending = append(o.pending, task)
	select {
	case o.wake <- struct{}{}:
	default:
	}
}

// dispatchLoop runs queued backend tasks one at a time, in order.
func (o *Orchestrator) dispatchLoop() {
	defer o.wg.Done()

	for {
		select {
		case <-o.ctx.Done():
			return
		case <-o.wake:
		}

		for {
			o.mu.Lock()
			if len(o.pending) == 0 {
				o.mu.Unlock()
				break
			}
			task := o.pending[0]
			o.pending = o.pending[1:]
			o.mu.Unlock()

			task()
		}
	}
}

// pumpLoop feeds a backend stream into apply, re-subscribing when the stream
// ends before ctx is done.
func pumpLoop[T any](ctx context.Context, name string, delay time.Duration, subscribe func(context.Context) <-chan T, apply func(T)) {
	for {
		for ev := range subscribe(ctx) {
			apply(ev)
		}

		if ctx.Err() != nil {
			return
		}
		zlog.Warn().Msgf("playback: %s stream ended, resubscribing in %v", name, delay)
		select {
		case <-ctx.Done():
			return
		case <-time.After(delay):
		}
	}
}

func logDropped(backend, kind string, err error) {
	switch {
	case errors.Is(err, ErrStationUnresolved):
		zlog.Warn().Msgf("playback: dropping %s update: kind=%s reason=%v", backend, kind, err)
	default:
		zlog.Debug().Msgf("playback: dropping %s update: kind=%s reason=%v", backend, kind, err)
	}
}

func sameMetadata(a, b State) bool {
	if a.Artist != b.Artist || a.Title != b.Title || a.ArtworkURL != b.ArtworkURL {
		return false
	}
	switch {
	case a.ProgramUnit == nil && b.ProgramUnit == nil:
		return true
	case a.ProgramUnit == nil || b.ProgramUnit == nil:
		return false
	default:
		return *a.ProgramUnit == *b.ProgramUnit
	}
}
