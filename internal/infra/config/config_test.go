package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() Config {
	return Config{
		Playback: PlaybackConfig{UpdateBuffer: 16, ResubscribeDelayMs: 1000},
		Stream:   StreamConfig{ConnectTimeoutMs: 10000, ArtworkTimeoutMs: 5000},
		Playola: PlayolaConfig{
			BaseURL:        "https://admin-api.playola.fm",
			PollIntervalMs: 5000,
			TimeoutMs:      10000,
		},
		Analytics: AnalyticsConfig{QueueSize: 64, ReportTimeoutMs: 500},
		Spotify:   SpotifyConfig{Market: "US"},
		Catalog:   CatalogConfig{Path: "stations.yaml"},
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
		errMsg  string
	}{
		{
			name:    "valid config",
			mutate:  func(c *Config) {},
			wantErr: false,
		},
		{
			name:    "missing catalog path",
			mutate:  func(c *Config) { c.Catalog.Path = "" },
			wantErr: true,
			errMsg:  "Path",
		},
		{
			name:    "spotify client id without secret",
			mutate:  func(c *Config) { c.Spotify.ClientID = "id" },
			wantErr: true,
			errMsg:  "ClientSecret",
		},
		{
			name: "spotify credentials complete",
			mutate: func(c *Config) {
				c.Spotify.ClientID = "id"
				c.Spotify.ClientSecret = "secret"
			},
			wantErr: false,
		},
		{
			name:    "invalid market length",
			mutate:  func(c *Config) { c.Spotify.Market = "JAPAN" },
			wantErr: true,
			errMsg:  "Market",
		},
		{
			name:    "invalid playola base url",
			mutate:  func(c *Config) { c.Playola.BaseURL = "not a url" },
			wantErr: true,
			errMsg:  "BaseURL",
		},
		{
			name:    "poll interval too short",
			mutate:  func(c *Config) { c.Playola.PollIntervalMs = 10 },
			wantErr: true,
			errMsg:  "PollIntervalMs",
		},
		{
			name:    "playola client id without secret",
			mutate:  func(c *Config) { c.Playola.ClientID = "id" },
			wantErr: true,
			errMsg:  "client_secret",
		},
		{
			name: "playola client credentials without token url",
			mutate: func(c *Config) {
				c.Playola.ClientID = "id"
				c.Playola.ClientSecret = "secret"
			},
			wantErr: true,
			errMsg:  "token_url",
		},
		{
			name:    "unknown reporter type",
			mutate:  func(c *Config) { c.Analytics.Reporters = []ReporterConfig{{Type: "kafka"}} },
			wantErr: true,
			errMsg:  "Type",
		},
		{
			name: "artwork provider without display name",
			mutate: func(c *Config) {
				c.Artwork.Providers = []ProviderConfig{{Type: "spotify"}}
			},
			wantErr: true,
			errMsg:  "DisplayName",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()

			if tt.wantErr {
				require.Error(t, err, "expected validation to fail")
				assert.Contains(t, err.Error(), tt.errMsg,
					"error message should mention the problematic field")
			} else {
				assert.NoError(t, err, "expected validation to pass")
			}
		})
	}
}

func TestParse_Defaults(t *testing.T) {
	cfg, err := Parse([]byte(`
catalog:
  path: ./stations.yaml
`))
	require.NoError(t, err)

	assert.Equal(t, 16, cfg.Playback.UpdateBuffer)
	assert.Equal(t, time.Second, cfg.Playback.ResubscribeDelay())
	assert.Equal(t, "19radio/1.0", cfg.Stream.UserAgent)
	assert.Equal(t, 10*time.Second, cfg.Stream.ConnectTimeout())
	assert.Equal(t, "https://admin-api.playola.fm", cfg.Playola.BaseURL)
	assert.Equal(t, 5*time.Second, cfg.Playola.PollInterval())
	assert.Equal(t, 64, cfg.Analytics.QueueSize)
	assert.Equal(t, 500*time.Millisecond, cfg.Analytics.ReportTimeout())
	assert.Equal(t, "Playback error occurred", cfg.Analytics.ErrorMessage)
	assert.Equal(t, "US", cfg.Spotify.Market)
	assert.False(t, cfg.HasSpotify())
}

func TestParse_FileValuesWin(t *testing.T) {
	cfg, err := Parse([]byte(`
playback:
  update_buffer: 4
playola:
  base_url: http://localhost:9000
  poll_interval_ms: 1000
analytics:
  error_message: boom
  reporters:
    - type: log
      settings:
        level: debug
artwork:
  providers:
    - type: spotify
      display_name: Spotify
catalog:
  path: ./stations.yaml
  watch: true
`))
	require.NoError(t, err)

	assert.Equal(t, 4, cfg.Playback.UpdateBuffer)
	assert.Equal(t, "http://localhost:9000", cfg.Playola.BaseURL)
	assert.Equal(t, time.Second, cfg.Playola.PollInterval())
	assert.Equal(t, "boom", cfg.Analytics.ErrorMessage)
	require.Len(t, cfg.Analytics.Reporters, 1)
	assert.Equal(t, "debug", cfg.Analytics.Reporters[0].Settings["level"])
	require.Len(t, cfg.Artwork.Providers, 1)
	assert.True(t, cfg.Catalog.Watch)
}

func TestParse_EnvOverrides(t *testing.T) {
	t.Setenv("PLAYOLA_ACCESS_TOKEN", "env-token")
	t.Setenv("SPOTIFY_CLIENT_ID", "env-id")
	t.Setenv("SPOTIFY_CLIENT_SECRET", "env-secret")
	t.Setenv("LASTFM_API_KEY", "env-lastfm")
	t.Setenv("ANALYTICS_API_KEY", "env-collector")

	cfg, err := Parse([]byte(`
playola:
  access_token: file-token
spotify:
  client_id: file-id
  client_secret: file-secret
artwork:
  providers:
    - type: lastfm
      display_name: Last.fm
analytics:
  reporters:
    - type: http
      settings:
        endpoint: https://collector.example.com/events
catalog:
  path: ./stations.yaml
`))
	require.NoError(t, err)

	assert.Equal(t, "env-token", cfg.Playola.AccessToken)
	assert.Equal(t, "env-id", cfg.Spotify.ClientID)
	assert.Equal(t, "env-secret", cfg.Spotify.ClientSecret)
	assert.True(t, cfg.HasSpotify())
	assert.Equal(t, "env-lastfm", cfg.Artwork.Providers[0].Settings["api_key"])
	assert.Equal(t, "env-collector", cfg.Analytics.Reporters[0].Settings["api_key"])
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{name: "malformed yaml", data: "catalog: [\n"},
		{name: "missing catalog", data: "playback:\n  update_buffer: 4\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.data))
			assert.Error(t, err)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/config.yaml")
	assert.Error(t, err)
}
