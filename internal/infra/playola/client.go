// Package playola implements the managed station backend on top of the
// Playola station API.
package playola

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"
	"github.com/samber/lo"

	"github.com/osa030/19radio/internal/domain/station"
	"github.com/osa030/19radio/internal/domain/track"
)

var (
	// ErrStationNotFound is returned when the API does not know the station.
	ErrStationNotFound = errors.New("playola: station not found")
	// ErrUnauthorized is returned when no valid token could be obtained.
	ErrUnauthorized = errors.New("playola: unauthorized")
)

// TokenProvider supplies bearer tokens for API requests.
type TokenProvider interface {
	// CurrentToken returns a cached token, if one is usable.
	CurrentToken() (string, bool)
	// RefreshToken obtains a fresh token.
	RefreshToken(ctx context.Context) (string, bool)
}

// Client is a Playola API client.
type Client struct {
	baseURL    string
	tokens     TokenProvider
	httpClient *http.Client
}

// ClientConfig represents Playola client configuration.
type ClientConfig struct {
	BaseURL string
	Timeout time.Duration
}

// NewClient creates a new Playola API client.
func NewClient(cfg ClientConfig, tokens TokenProvider) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("playola base url is required")
	}
	if tokens == nil {
		return nil, errors.New("playola token provider is required")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		tokens:     tokens,
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}

type stationResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	CuratorName string    `json:"curatorName"`
	ImageURL    string    `json:"imageUrl"`
	Description string    `json:"description"`
	Active      bool      `json:"active"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type audioBlockResponse struct {
	ID         string `json:"id"`
	Type       string `json:"type"`
	Title      string `json:"title"`
	Artist     string `json:"artist"`
	Album      string `json:"album"`
	ImageURL   string `json:"imageUrl"`
	DurationMS int64  `json:"durationMS"`
}

type nowPlayingResponse struct {
	StationID  string `json:"stationId"`
	NowPlaying *struct {
		AudioBlock audioBlockResponse `json:"audioBlock"`
		Airtime    time.Time          `json:"airtime"`
	} `json:"nowPlaying"`
}

// Stations lists the stations in the catalog.
func (c *Client) Stations(ctx context.Context) ([]station.PlayolaStation, error) {
	var resp []stationResponse
	if err := c.get(ctx, "/v1/stations", &resp); err != nil {
		return nil, errors.Wrap(err, "failed to list stations")
	}
	return lo.Map(resp, func(s stationResponse, _ int) station.PlayolaStation {
		return station.PlayolaStation{
			ID:          s.ID,
			Name:        s.Name,
			CuratorName: s.CuratorName,
			ImageURL:    s.ImageURL,
			Description: s.Description,
			Active:      s.Active,
			CreatedAt:   s.CreatedAt,
			UpdatedAt:   s.UpdatedAt,
		}
	}), nil
}

// NowPlaying returns what the station is airing. An empty NowPlaying means
// the station is on air with nothing scheduled.
func (c *Client) NowPlaying(ctx context.Context, stationID string) (track.NowPlaying, error) {
	if stationID == "" {
		return track.NowPlaying{}, errors.New("station id is required")
	}

	var resp nowPlayingResponse
	path := fmt.Sprintf("/v1/stations/%s/now-playing", url.PathEscape(stationID))
	if err := c.get(ctx, path, &resp); err != nil {
		return track.NowPlaying{}, errors.Wrapf(err, "failed to get now playing: station=%s", stationID)
	}
	if resp.NowPlaying == nil {
		return track.NowPlaying{}, nil
	}

	block := resp.NowPlaying.AudioBlock
	return track.NowPlaying{
		Artist:     block.Artist,
		Title:      block.Title,
		Album:      block.Album,
		ArtworkURL: block.ImageURL,
		ProgramUnit: &track.ProgramUnit{
			ID:       block.ID,
			Type:     block.Type,
			Title:    block.Title,
			AiringAt: resp.NowPlaying.Airtime,
			Duration: time.Duration(block.DurationMS) * time.Millisecond,
		},
	}, nil
}

// get performs an authorized GET, refreshing the token once on 401.
func (c *Client) get(ctx context.Context, path string, out any) error {
	token, ok := c.tokens.CurrentToken()
	if !ok {
		if token, ok = c.tokens.RefreshToken(ctx); !ok {
			return ErrUnauthorized
		}
	}

	resp, err := c.do(ctx, path, token)
	if err != nil {
		return err
	}
	if resp.StatusCode == http.StatusUnauthorized {
		resp.Body.Close()
		zlog.Debug().Msgf("playola: token rejected, refreshing: path=%s", path)

		if token, ok = c.tokens.RefreshToken(ctx); !ok {
			return ErrUnauthorized
		}
		if resp, err = c.do(ctx, path, token); err != nil {
			return err
		}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return ErrUnauthorized
	case resp.StatusCode == http.StatusNotFound:
		return ErrStationNotFound
	case resp.StatusCode != http.StatusOK:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return errors.Newf("playola returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.Wrap(err, "failed to decode response")
	}
	return nil
}

func (c *Client) do(ctx context.Context, path, token string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create request")
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "failed to execute request")
	}
	return resp, nil
}
