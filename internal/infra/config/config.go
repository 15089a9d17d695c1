// Package config provides configuration loading from YAML files.
package config

import (
	"os"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration.
type Config struct {
	Playback  PlaybackConfig  `yaml:"playback"`
	Stream    StreamConfig    `yaml:"stream"`
	Playola   PlayolaConfig   `yaml:"playola"`
	Analytics AnalyticsConfig `yaml:"analytics"`
	Artwork   ArtworkConfig   `yaml:"artwork"`
	Spotify   SpotifyConfig   `yaml:"spotify"`
	Catalog   CatalogConfig   `yaml:"catalog"`
}

// PlaybackConfig represents playback orchestration configuration.
type PlaybackConfig struct {
	UpdateBuffer       int `yaml:"update_buffer" default:"16" validate:"gte=1,lte=1024"`
	ResubscribeDelayMs int `yaml:"resubscribe_delay_ms" default:"1000" validate:"gte=10,lte=60000"`
}

// StreamConfig represents the URL stream backend configuration.
type StreamConfig struct {
	UserAgent        string `yaml:"user_agent" default:"19radio/1.0"`
	ConnectTimeoutMs int    `yaml:"connect_timeout_ms" default:"10000" validate:"gte=100"`
	Charset          string `yaml:"charset"` // Fallback charset for stream titles; empty detects
	ArtworkTimeoutMs int    `yaml:"artwork_timeout_ms" default:"5000" validate:"gte=100"`
}

// PlayolaConfig represents the managed station backend configuration.
type PlayolaConfig struct {
	BaseURL        string `yaml:"base_url" default:"https://admin-api.playola.fm" validate:"required,url"`
	PollIntervalMs int    `yaml:"poll_interval_ms" default:"5000" validate:"gte=250"`
	TimeoutMs      int    `yaml:"timeout_ms" default:"10000" validate:"gte=100"`
	AccessToken    string `yaml:"access_token"`
	ClientID       string `yaml:"client_id"`
	ClientSecret   string `yaml:"client_secret"`
	TokenURL       string `yaml:"token_url" validate:"omitempty,url"`
}

// AnalyticsConfig represents analytics delivery configuration.
type AnalyticsConfig struct {
	QueueSize       int              `yaml:"queue_size" default:"64" validate:"gte=1"`
	ReportTimeoutMs int              `yaml:"report_timeout_ms" default:"500" validate:"gte=10"`
	ErrorMessage    string           `yaml:"error_message" default:"Playback error occurred"`
	Reporters       []ReporterConfig `yaml:"reporters" validate:"dive"`
}

// ReporterConfig represents a single analytics reporter configuration.
type ReporterConfig struct {
	Type     string         `yaml:"type" validate:"required,oneof=log http"`
	Settings map[string]any `yaml:"settings"`
}

// ArtworkConfig represents artwork lookup configuration.
type ArtworkConfig struct {
	Providers []ProviderConfig `yaml:"providers" validate:"dive"`
}

// ProviderConfig represents a single artwork provider configuration.
type ProviderConfig struct {
	Type        string         `yaml:"type" validate:"required"`
	DisplayName string         `yaml:"display_name" validate:"required"`
	Settings    map[string]any `yaml:"settings"`
}

// SpotifyConfig represents Spotify API configuration.
type SpotifyConfig struct {
	ClientID     string `yaml:"client_id" validate:"required_with=ClientSecret"`
	ClientSecret string `yaml:"client_secret" validate:"required_with=ClientID"`
	Market       string `yaml:"market" validate:"omitempty,len=2" default:"US"`
}

// CatalogConfig represents station catalog configuration.
type CatalogConfig struct {
	Path  string `yaml:"path" validate:"required"`
	Watch bool   `yaml:"watch"`
}

// Load loads configuration from a YAML file.
// Environment variables take precedence over file values for sensitive fields.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read config file")
	}
	return Parse(data)
}

// Parse parses configuration from YAML bytes, then applies environment
// overrides, defaults and validation.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Wrap(err, "failed to parse config file")
	}

	// Override with environment variables
	cfg.overrideFromEnv()

	// Set defaults using creasty/defaults
	if err := defaults.Set(&cfg); err != nil {
		return nil, errors.Wrap(err, "failed to set defaults")
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "config validation failed")
	}

	return &cfg, nil
}

// overrideFromEnv overrides config values with environment variables.
func (c *Config) overrideFromEnv() {
	if v := os.Getenv("PLAYOLA_ACCESS_TOKEN"); v != "" {
		c.Playola.AccessToken = v
	}
	if v := os.Getenv("PLAYOLA_CLIENT_ID"); v != "" {
		c.Playola.ClientID = v
	}
	if v := os.Getenv("PLAYOLA_CLIENT_SECRET"); v != "" {
		c.Playola.ClientSecret = v
	}
	if v := os.Getenv("SPOTIFY_CLIENT_ID"); v != "" {
		c.Spotify.ClientID = v
	}
	if v := os.Getenv("SPOTIFY_CLIENT_SECRET"); v != "" {
		c.Spotify.ClientSecret = v
	}
	if v := os.Getenv("LASTFM_API_KEY"); v != "" {
		for i := range c.Artwork.Providers {
			if c.Artwork.Providers[i].Type == "lastfm" {
				if c.Artwork.Providers[i].Settings == nil {
					c.Artwork.Providers[i].Settings = make(map[string]any)
				}
				c.Artwork.Providers[i].Settings["api_key"] = v
				break
			}
		}
	}
	if v := os.Getenv("ANALYTICS_API_KEY"); v != "" {
		for i := range c.Analytics.Reporters {
			if c.Analytics.Reporters[i].Type == "http" {
				if c.Analytics.Reporters[i].Settings == nil {
					c.Analytics.Reporters[i].Settings = make(map[string]any)
				}
				c.Analytics.Reporters[i].Settings["api_key"] = v
			}
		}
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(err, "struct validation failed")
	}

	if err := c.validatePlayolaAuth(); err != nil {
		return err
	}

	return nil
}

// validatePlayolaAuth checks that client credentials come as a complete set.
func (c *Config) validatePlayolaAuth() error {
	p := c.Playola
	hasID, hasSecret := p.ClientID != "", p.ClientSecret != ""
	if hasID != hasSecret {
		return errors.New("playola client_id and client_secret must be set together")
	}
	if hasID && p.TokenURL == "" {
		return errors.New("playola token_url is required with client credentials")
	}
	return nil
}

// HasSpotify reports whether Spotify credentials are configured.
func (c *Config) HasSpotify() bool {
	return c.Spotify.ClientID != "" && c.Spotify.ClientSecret != ""
}

// ResubscribeDelay returns the backend resubscribe delay.
func (p PlaybackConfig) ResubscribeDelay() time.Duration {
	return time.Duration(p.ResubscribeDelayMs) * time.Millisecond
}

// ConnectTimeout returns the stream connect timeout.
func (s StreamConfig) ConnectTimeout() time.Duration {
	return time.Duration(s.ConnectTimeoutMs) * time.Millisecond
}

// ArtworkTimeout returns the per-title artwork lookup timeout.
func (s StreamConfig) ArtworkTimeout() time.Duration {
	return time.Duration(s.ArtworkTimeoutMs) * time.Millisecond
}

// PollInterval returns the now-playing poll interval.
func (p PlayolaConfig) PollInterval() time.Duration {
	return time.Duration(p.PollIntervalMs) * time.Millisecond
}

// Timeout returns the HTTP timeout for the managed station API.
func (p PlayolaConfig) Timeout() time.Duration {
	return time.Duration(p.TimeoutMs) * time.Millisecond
}

// ReportTimeout returns the per-reporter delivery timeout.
func (a AnalyticsConfig) ReportTimeout() time.Duration {
	return time.Duration(a.ReportTimeoutMs) * time.Millisecond
}
