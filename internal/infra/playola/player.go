package playola

import (
	"context"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"
	"github.com/samber/lo"

	"github.com/osa030/19radio/internal/domain/player"
	"github.com/osa030/19radio/internal/domain/station"
	"github.com/osa030/19radio/internal/domain/track"
	"github.com/osa030/19radio/internal/infra/statushub"
)

// NowPlayingSource reports what a station is airing.
type NowPlayingSource interface {
	NowPlaying(ctx context.Context, stationID string) (track.NowPlaying, error)
}

// PlayerConfig holds managed station backend configuration.
type PlayerConfig struct {
	PollInterval time.Duration
	MaxFailures  int // Consecutive poll failures before the station is reported lost
}

// Player is the managed station backend. It polls now-playing information
// for the engaged station and reports it as station status.
type Player struct {
	mu sync.Mutex

	source NowPlayingSource
	config PlayerConfig
	status *statushub.Hub[player.StationStatus]

	current *station.PlayolaStation
	cancel  context.CancelFunc
	playID  uint64

	wg sync.WaitGroup
}

// NewPlayer creates a new managed station player.
func NewPlayer(source NowPlayingSource, config PlayerConfig) *Player {
	if config.PollInterval <= 0 {
		config.PollInterval = 5 * time.Second
	}
	if config.MaxFailures <= 0 {
		config.MaxFailures = 3
	}
	return &Player{
		source: source,
		config: config,
		status: statushub.New[player.StationStatus]("station status", 32),
	}
}

// Subscribe returns the status stream.
func (p *Player) Subscribe(ctx context.Context) <-chan player.StationStatus {
	return p.status.Subscribe(ctx)
}

// Play engages the station: the first now-playing fetch happens before Play
// returns, later ones on the poll interval.
func (p *Player) Play(ctx context.Context, s station.PlayolaStation) error {
	p.mu.Lock()
	if err := ctx.Err(); err != nil {
		p.mu.Unlock()
		return errors.Wrap(err, "play cancelled")
	}
	p.cancelLocked()

	p.playID++
	id := p.playID
	pollCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.current = &s
	p.status.Publish(player.StationStatus{Kind: player.StationLoading, Station: &s, Progress: lo.ToPtr(0.0)})
	p.mu.Unlock()

	zlog.Info().Msgf("playola: tuning in: station=%s", s.ID)

	np, err := p.source.NowPlaying(pollCtx, s.ID)
	if err != nil {
		p.fail(id, s, err)
		return err
	}
	if !p.publishIfCurrent(id, playing(s, np)) {
		return nil
	}

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		p.poll(pollCtx, id, s, np)
	}()
	return nil
}

// Stop disengages the station. It reports idle for the stopped station and
// does nothing when idle.
func (p *Player) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.current == nil {
		return
	}
	prev := p.current
	p.cancelLocked()
	p.playID++
	p.current = nil

	zlog.Info().Msgf("playola: stopped: station=%s", prev.ID)
	p.status.Publish(player.StationStatus{Kind: player.StationIdle, Station: prev})
}

// Close stops polling and closes the status stream.
func (p *Player) Close() {
	p.Stop()
	p.wg.Wait()
	p.status.Close()
}

func (p *Player) poll(ctx context.Context, id uint64, s station.PlayolaStation, last track.NowPlaying) {
	ticker := time.NewTicker(p.config.PollInterval)
	defer ticker.Stop()

	failures := 0
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		np, err := p.source.NowPlaying(ctx, s.ID)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			failures++
			zlog.Warn().Msgf("playola: poll failed: station=%s failures=%d error=%v", s.ID, failures, err)
			if failures >= p.config.MaxFailures {
				p.fail(id, s, err)
				return
			}
			continue
		}
		failures = 0

		if sameNowPlaying(np, last) {
			continue
		}
		last = np
		zlog.Info().Msgf("playola: now playing: station=%s artist=%s title=%s", s.ID, np.Artist, np.Title)
		if !p.publishIfCurrent(id, playing(s, np)) {
			return
		}
	}
}

// fail reports the station as lost if id is still current.
func (p *Player) fail(id uint64, s station.PlayolaStation, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.playID != id {
		return
	}
	zlog.Warn().Msgf("playola: station lost: station=%s error=%v", s.ID, err)
	p.cancelLocked()
	p.current = nil
	p.status.Publish(player.StationStatus{Kind: player.StationNone, Station: &s, Err: err})
}

func (p *Player) publishIfCurrent(id uint64, st player.StationStatus) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.playID != id {
		return false
	}
	p.status.Publish(st)
	return true
}

// cancelLocked cancels polling. Must be called with lock held.
func (p *Player) cancelLocked() {
	if p.cancel != nil {
		p.cancel()
		p.cancel = nil
	}
}

func playing(s station.PlayolaStation, np track.NowPlaying) player.StationStatus {
	return player.StationStatus{Kind: player.StationPlaying, Station: &s, NowPlaying: np}
}

func sameNowPlaying(a, b track.NowPlaying) bool {
	if a.Artist != b.Artist || a.Title != b.Title || a.Album != b.Album || a.ArtworkURL != b.ArtworkURL {
		return false
	}
	if a.ProgramUnit == nil || b.ProgramUnit == nil {
		return a.ProgramUnit == b.ProgramUnit
	}
	return a.ProgramUnit.ID == b.ProgramUnit.ID && a.ProgramUnit.AiringAt.Equal(b.ProgramUnit.AiringAt)
}
