// Package icystream implements the URL stream backend: it streams an internet
// radio station over HTTP and reports ICY metadata as playback status.
package icystream

import (
	"context"
	"io"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/19radio/internal/app/artwork"
	"github.com/osa030/19radio/internal/domain/player"
	"github.com/osa030/19radio/internal/domain/station"
	"github.com/osa030/19radio/internal/infra/statushub"
)

// ArtworkResolver looks up artwork for a stream title.
type ArtworkResolver interface {
	Lookup(ctx context.Context, q artwork.Query) (string, error)
}

// Config holds stream backend configuration.
type Config struct {
	UserAgent      string
	ConnectTimeout time.Duration // Time allowed until response headers arrive
	Charset        string        // Title charset label; empty detects
	ArtworkTimeout time.Duration // Per-title artwork lookup timeout
	Output         io.Writer     // Receives the audio bytes; defaults to io.Discard
}

// Player is the URL stream backend.
type Player struct {
	mu sync.Mutex

	config   Config
	client   *http.Client
	resolver ArtworkResolver

	status  *statushub.Hub[player.URLStatus]
	artwork *statushub.Hub[player.ArtworkUpdate]

	// Current playback
	current *station.URLStation
	cancel  context.CancelFunc
	playID  uint64 // Incremented on every Play and Stop; guards stale goroutines

	wg sync.WaitGroup
}

// New creates a new stream player. resolver may be nil.
func New(config Config, resolver ArtworkResolver) *Player {
	if config.ConnectTimeout <= 0 {
		config.ConnectTimeout = 10 * time.Second
	}
	if config.ArtworkTimeout <= 0 {
		config.ArtworkTimeout = 5 * time.Second
	}
	if config.Output == nil {
		config.Output = io.Discard
	}

	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DisableCompression:    true,
		ResponseHeaderTimeout: config.ConnectTimeout,
		ExpectContinueTimeout: 1 * time.Second,
	}

	return &Player{
		config: config,
		// No total timeout for streaming
		client:   &http.Client{Transport: transport},
		resolver: resolver,
		status:   statushub.New[player.URLStatus]("url status", 32),
		artwork:  statushub.New[player.ArtworkUpdate]("url artwork", 8),
	}
}

// Subscribe returns the status stream.
func (p *Player) Subscribe(ctx context.Context) <-chan player.URLStatus {
	return p.status.Subscribe(ctx)
}

// SubscribeArtwork returns the artwork stream.
func (p *Player) SubscribeArtwork(ctx context.Context) <-chan player.ArtworkUpdate {
	return p.artwork.Subscribe(ctx)
}

// Play connects to the station stream and starts reading it in the background.
// Streaming stops when ctx is done or Stop is called.
func (p *Player) Play(ctx context.Context, s station.URLStation) error {
	p.mu.Lock()
	if err := ctx.Err(); err != nil {
		p.mu.Unlock()
		return errors.Wrap(err, "play cancelled")
	}
	p.cancelLocked()

	p.playID++
	id := p.playID
	streamCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.current = &s
	p.status.Publish(player.URLStatus{Kind: player.URLLoading, Station: &s})
	p.mu.Unlock()

	zlog.Info().Msgf("icystream: connecting: station=%s url=%s", s.ID, s.StreamURL)

	resp, err := p.connect(streamCtx, s.StreamURL)
	if err != nil {
		p.fail(id, s, err)
		return err
	}

	metaint, _ := strconv.Atoi(resp.Header.Get("icy-metaint"))
	zlog.Debug().Msgf("icystream: connected: station=%s metaint=%d content_type=%s", s.ID, metaint, resp.Header.Get("Content-Type"))

	if !p.publishIfCurrent(id, player.URLStatus{Kind: player.URLReadyToPlay, Station: &s}) {
		resp.Body.Close()
		return nil
	}

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		defer resp.Body.Close()
		p.stream(streamCtx, id, s, resp.Body, metaint)
	}()

	return nil
}

// Stop stops the current stream. It reports url_not_set for the stopped
// station, and does nothing when nothing is playing.
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

	zlog.Info().Msgf("icystream: stopped: station=%s", prev.ID)
	p.status.Publish(player.URLStatus{Kind: player.URLNotSet, Station: prev})
}

// Close stops playback, waits for background work and closes the streams.
func (p *Player) Close() {
	p.Stop()
	p.wg.Wait()
	p.status.Close()
	p.artwork.Close()
}

func (p *Player) connect(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create request")
	}

	// Ask for in-band metadata
	req.Header.Set("Icy-MetaData", "1")
	if p.config.UserAgent != "" {
		req.Header.Set("User-Agent", p.config.UserAgent)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect")
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, errors.Newf("unexpected status: %d", resp.StatusCode)
	}
	return resp, nil
}

// stream reads audio until the stream ends or ctx is done, reporting title changes.
func (p *Player) stream(ctx context.Context, id uint64, s station.URLStation, body io.Reader, metaint int) {
	var err error
	if metaint <= 0 {
		_, err = io.Copy(p.config.Output, body)
	} else {
		err = p.streamWithMetadata(ctx, id, s, body, metaint)
	}

	if ctx.Err() != nil {
		return
	}
	if err == nil {
		err = errors.New("stream ended")
	}
	p.fail(id, s, err)
}

func (p *Player) streamWithMetadata(ctx context.Context, id uint64, s station.URLStation, body io.Reader, metaint int) error {
	reader := newICYReader(body, metaint)
	var lastTitle string

	for {
		if ctx.Err() != nil {
			return nil
		}
		block, err := reader.next(p.config.Output)
		if err != nil {
			return err
		}
		if block == nil {
			continue
		}

		raw, ok := parseStreamTitle(block)
		if !ok {
			continue
		}
		text := decodeTitle(raw, p.config.Charset)
		if text == lastTitle {
			continue
		}
		lastTitle = text

		artist, title := splitTitle(text)
		zlog.Info().Msgf("icystream: now playing: station=%s artist=%s title=%s", s.ID, artist, title)
		if !p.publishIfCurrent(id, player.URLStatus{
			Kind:    player.URLLoadingFinished,
			Station: &s,
			Artist:  artist,
			Title:   title,
		}) {
			return nil
		}
		p.lookupArtwork(ctx, id, s, artist, title)
	}
}

// lookupArtwork resolves artwork in the background and publishes it if the
// stream is still current.
func (p *Player) lookupArtwork(ctx context.Context, id uint64, s station.URLStation, artist, title string) {
	if p.resolver == nil {
		return
	}

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		lookupCtx, cancel := context.WithTimeout(ctx, p.config.ArtworkTimeout)
		defer cancel()

		url, err := p.resolver.Lookup(lookupCtx, artwork.Query{Station: &s, Artist: artist, Title: title})
		if err != nil {
			if !errors.Is(err, artwork.ErrNotFound) && ctx.Err() == nil {
				zlog.Warn().Msgf("icystream: artwork lookup failed: station=%s error=%v", s.ID, err)
			}
			url = ""
		}

		p.mu.Lock()
		defer p.mu.Unlock()
		if p.playID != id {
			return
		}
		p.artwork.Publish(player.ArtworkUpdate{Station: &s, URL: url})
	}()
}

// fail reports err for the stream id if it is still current.
func (p *Player) fail(id uint64, s station.URLStation, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.playID != id {
		return
	}
	zlog.Warn().Msgf("icystream: stream failed: station=%s error=%v", s.ID, err)
	p.cancelLocked()
	p.current = nil
	p.status.Publish(player.URLStatus{Kind: player.URLError, Station: &s, Err: err})
}

func (p *Player) publishIfCurrent(id uint64, st player.URLStatus) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.playID != id {
		return false
	}
	p.status.Publish(st)
	return true
}

// cancelLocked cancels the running stream. Must be called with lock held.
func (p *Player) cancelLocked() {
	if p.cancel != nil {
		p.cancel()
		p.cancel = nil
	}
}
