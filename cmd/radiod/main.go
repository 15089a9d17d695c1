// Package main provides the radiod entry point: it plays a station from the
// catalog and reports listening-session analytics.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"github.com/cockroachdb/errors"
	"github.com/joho/godotenv"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/19radio/internal/app/analytics"
	"github.com/osa030/19radio/internal/app/artwork"
	"github.com/osa030/19radio/internal/app/playback"
	"github.com/osa030/19radio/internal/domain/station"
	"github.com/osa030/19radio/internal/infra/auth"
	"github.com/osa030/19radio/internal/infra/catalog"
	"github.com/osa030/19radio/internal/infra/config"
	"github.com/osa030/19radio/internal/infra/icystream"
	"github.com/osa030/19radio/internal/infra/logger"
	"github.com/osa030/19radio/internal/infra/playola"
	"github.com/osa030/19radio/internal/infra/spotify"
)

var (
	app        = kingpin.New("radiod", "19radio playback daemon")
	configPath = app.Flag("config", "Path to config file").Default("config/radiod.yaml").String()
	verbose    = app.Flag("verbose", "Enable verbose (DEBUG) logging").Short('v').Bool()
	logfile    = app.Flag("logfile", "Path to log file (default: stdout)").String()

	// play command
	playCmd      = app.Command("play", "Play a station from the catalog")
	playStation  = playCmd.Arg("station-id", "Station ID").Required().String()
	playDuration = playCmd.Flag("duration", "Stop after this long (0 plays until interrupted)").Default("0s").Duration()
	playOutput   = playCmd.Flag("output", "Write the raw stream audio to this file").String()

	// stations command
	stationsCmd    = app.Command("stations", "List catalog stations")
	stationsRemote = stationsCmd.Flag("remote", "Also list stations from the Playola API").Bool()

	// token command
	tokenCmd = app.Command("token", "Fetch a Playola access token and show its expiry")
)

func main() {
	// Load .env file if it exists (errors are ignored)
	_ = godotenv.Load()

	command := kingpin.MustParse(app.Parse(os.Args[1:]))

	loggerConfig := logger.Config{Output: "stdout", Level: "info"}
	if *verbose {
		loggerConfig.Level = "debug"
	}
	if *logfile != "" {
		loggerConfig.Output = "file"
		loggerConfig.File = *logfile
	}
	closer, err := logger.Init(loggerConfig)
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer closer.Close()

	zlog.Info().Msgf("radiod: loading config: path=%s", *configPath)
	cfg, err := config.Load(*configPath)
	if err != nil {
		zlog.Fatal().Msgf("radiod: failed to load config: error=%v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	switch command {
	case playCmd.FullCommand():
		err = runPlay(ctx, cfg, *playStation, *playDuration, *playOutput)
	case stationsCmd.FullCommand():
		err = runStations(ctx, cfg, *stationsRemote)
	case tokenCmd.FullCommand():
		err = runToken(ctx, cfg)
	}
	if err != nil {
		zlog.Error().Msgf("radiod: %v", err)
		closer.Close()
		os.Exit(1)
	}
}

// runPlay wires the backends, analytics and orchestrator, plays stationID
// and blocks until interrupted or duration elapses.
func runPlay(ctx context.Context, cfg *config.Config, stationID string, duration time.Duration, output string) error {
	store, err := loadCatalog(cfg)
	if err != nil {
		return err
	}
	target, ok := store.Find(stationID)
	if !ok {
		return errors.Newf("station not found in catalog: %s", stationID)
	}

	if cfg.Catalog.Watch {
		go func() {
			if err := catalog.Watch(ctx, cfg.Catalog.Path, store, catalog.DefaultDebounce); err != nil {
				zlog.Error().Msgf("catalog: watch stopped: error=%v", err)
			}
		}()
	}

	// Analytics
	reporters, err := analytics.NewReportersFromConfig(cfg)
	if err != nil {
		return errors.Wrap(err, "failed to create reporters")
	}
	dispatcher := analytics.NewDispatcher(analytics.DispatcherConfig{
		QueueSize:     cfg.Analytics.QueueSize,
		ReportTimeout: cfg.Analytics.ReportTimeout(),
	})
	for _, r := range reporters {
		dispatcher.Subscribe(r)
	}
	dispatcher.Start()
	defer dispatcher.Close()

	tracker := analytics.NewTracker(dispatcher, analytics.WithErrorMessage(cfg.Analytics.ErrorMessage))

	// URL stream backend
	resolver, err := newArtworkChain(ctx, cfg)
	if err != nil {
		return err
	}
	var audioOut io.Writer
	if output != "" {
		f, err := os.Create(output)
		if err != nil {
			return errors.Wrap(err, "failed to create output file")
		}
		defer f.Close()
		audioOut = f
	}
	urlPlayer := icystream.New(icystream.Config{
		UserAgent:      cfg.Stream.UserAgent,
		ConnectTimeout: cfg.Stream.ConnectTimeout(),
		Charset:        cfg.Stream.Charset,
		ArtworkTimeout: cfg.Stream.ArtworkTimeout(),
		Output:         audioOut,
	}, resolver)
	defer urlPlayer.Close()

	// Managed station backend
	client, err := newPlayolaClient(cfg)
	if err != nil {
		return err
	}
	stationPlayer := playola.NewPlayer(client, playola.PlayerConfig{PollInterval: cfg.Playola.PollInterval()})
	defer stationPlayer.Close()

	orchestrator := playback.NewOrchestrator(playback.Config{
		UpdateBuffer:     cfg.Playback.UpdateBuffer,
		ResubscribeDelay: cfg.Playback.ResubscribeDelay(),
	}, urlPlayer, stationPlayer, tracker)
	orchestrator.Start()
	defer orchestrator.Close()

	go logUpdates(orchestrator.Updates())

	orchestrator.Play(target)

	var timeout <-chan time.Time
	if duration > 0 {
		timer := time.NewTimer(duration)
		defer timer.Stop()
		timeout = timer.C
	}

	select {
	case <-ctx.Done():
		zlog.Info().Msg("radiod: received shutdown signal")
	case <-timeout:
		zlog.Info().Msgf("radiod: duration elapsed: duration=%s", duration)
	}

	// Stop first so the open listening session is reported as ended.
	orchestrator.Stop()
	return nil
}

func logUpdates(updates <-chan playback.Update) {
	for u := range updates {
		st := u.State
		if u.StatusChanged {
			zlog.Info().Msgf("radiod: status: %s -> %s", u.Previous, st.Status)
			continue
		}
		zlog.Info().Msgf("radiod: now playing: artist=%s title=%s artwork=%s", st.Artist, st.Title, st.ArtworkURL)
	}
}

func runStations(ctx context.Context, cfg *config.Config, remote bool) error {
	store, err := loadCatalog(cfg)
	if err != nil {
		return err
	}

	fmt.Println("Catalog stations:")
	for _, s := range store.Catalog().Stations {
		printStation(s)
	}

	if !remote {
		return nil
	}
	client, err := newPlayolaClient(cfg)
	if err != nil {
		return err
	}
	stations, err := client.Stations(ctx)
	if err != nil {
		return err
	}
	fmt.Println("\nPlayola stations:")
	for _, s := range stations {
		printStation(s)
	}
	return nil
}

func printStation(s station.Station) {
	marker := " "
	switch v := s.(type) {
	case station.URLStation:
		if v.Active {
			marker = "*"
		}
	case station.PlayolaStation:
		if v.Active {
			marker = "*"
		}
	}
	info := s.Info()
	fmt.Printf("  %s %-20s %-8s %s\n", marker, info.ID, s.Kind(), info.Name)
}

func runToken(ctx context.Context, cfg *config.Config) error {
	tokens, err := newTokenProvider(cfg)
	if err != nil {
		return err
	}

	token, ok := tokens.CurrentToken()
	if !ok {
		if token, ok = tokens.RefreshToken(ctx); !ok {
			return errors.New("no access token available")
		}
	}

	fmt.Println("Access token obtained.")
	if exp, ok := auth.TokenExpiry(token); ok {
		fmt.Printf("Expires: %s (in %s)\n", exp.Format(time.RFC3339), time.Until(exp).Round(time.Second))
	} else {
		fmt.Println("Expires: unknown (opaque token)")
	}
	return nil
}

func loadCatalog(cfg *config.Config) (*catalog.Store, error) {
	c, err := catalog.Load(cfg.Catalog.Path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load catalog")
	}
	zlog.Info().Msgf("catalog: loaded: path=%s stations=%d", cfg.Catalog.Path, len(c.Stations))
	return catalog.NewStore(c), nil
}

func newTokenProvider(cfg *config.Config) (playola.TokenProvider, error) {
	if cfg.Playola.ClientID != "" {
		return auth.NewClientCredentials(auth.ClientCredentialsConfig{
			ClientID:     cfg.Playola.ClientID,
			ClientSecret: cfg.Playola.ClientSecret,
			TokenURL:     cfg.Playola.TokenURL,
		})
	}
	return auth.NewStatic(cfg.Playola.AccessToken), nil
}

func newPlayolaClient(cfg *config.Config) (*playola.Client, error) {
	tokens, err := newTokenProvider(cfg)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create token provider")
	}
	return playola.NewClient(playola.ClientConfig{
		BaseURL: cfg.Playola.BaseURL,
		Timeout: cfg.Playola.Timeout(),
	}, tokens)
}

// newArtworkChain builds the artwork provider chain. The Spotify client is
// only created when credentials are configured.
func newArtworkChain(ctx context.Context, cfg *config.Config) (*artwork.ProviderChain, error) {
	var spotifyClient artwork.SpotifyClient
	if cfg.HasSpotify() {
		c, err := spotify.New(ctx, spotify.Config{
			ClientID:     cfg.Spotify.ClientID,
			ClientSecret: cfg.Spotify.ClientSecret,
			Market:       cfg.Spotify.Market,
		})
		if err != nil {
			return nil, errors.Wrap(err, "failed to create Spotify client")
		}
		spotifyClient = c
	}

	chain, err := artwork.NewProviderChainFromConfig(cfg, spotifyClient)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create artwork providers")
	}
	return chain, nil
}
