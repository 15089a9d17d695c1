// Package lastfm provides a client for the Last.fm API.
package lastfm

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"
	"github.com/samber/lo"
)

// ErrTrackNotFound is returned when Last.fm has no entry for a track.
var ErrTrackNotFound = errors.New("last.fm: track not found")

// Last.fm API error codes.
const (
	errCodeInvalidParameters = 6
)

// Client is a Last.fm API client.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client

	// Cache for track info, keyed by normalized artist and title.
	// Misses are cached as nil.
	trackInfoCache map[string]*TrackInfo
	cacheMu        sync.RWMutex
}

// Config represents Last.fm client configuration.
type Config struct {
	APIKey  string
	Timeout time.Duration
}

// Image is a sized album image.
type Image struct {
	URL  string
	Size string // small, medium, large, extralarge, mega
}

// TrackInfo is the subset of track.getInfo used for artwork.
type TrackInfo struct {
	Name     string
	Artist   string
	Album    string
	Duration time.Duration
	Images   []Image
}

// LargestImage returns the URL of the largest non-empty image.
func (t *TrackInfo) LargestImage() (string, bool) {
	order := []string{"mega", "extralarge", "large", "medium", "small"}
	for _, size := range order {
		img, ok := lo.Find(t.Images, func(i Image) bool { return i.Size == size && i.URL != "" })
		if ok {
			return img.URL, true
		}
	}
	img, ok := lo.Find(t.Images, func(i Image) bool { return i.URL != "" })
	return img.URL, ok
}

// getInfoResponse represents the response from track.getInfo API.
type getInfoResponse struct {
	Track struct {
		Name     string `json:"name"`
		Duration string `json:"duration"`
		Artist   struct {
			Name string `json:"name"`
		} `json:"artist"`
		Album struct {
			Title string `json:"title"`
			Image []struct {
				Text string `json:"#text"`
				Size string `json:"size"`
			} `json:"image"`
		} `json:"album"`
	} `json:"track"`
}

// apiError represents an error response from Last.fm API.
type apiError struct {
	Error   int    `json:"error"`
	Message string `json:"message"`
}

// New creates a new Last.fm client.
func New(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("last.fm API key is required")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &Client{
		apiKey:         cfg.APIKey,
		baseURL:        "https://ws.audioscrobbler.com/2.0/",
		httpClient:     &http.Client{Timeout: timeout},
		trackInfoCache: make(map[string]*TrackInfo),
	}, nil
}

// GetTrackInfo retrieves track metadata, including album images.
// Reference: https://www.last.fm/api/show/track.getInfo
func (c *Client) GetTrackInfo(ctx context.Context, trackName, artistName string) (*TrackInfo, error) {
	if trackName == "" || artistName == "" {
		return nil, errors.New("track name and artist name are required")
	}

	cacheKey := fmt.Sprintf("trackinfo:%s:%s", strings.ToLower(artistName), strings.ToLower(trackName))
	c.cacheMu.RLock()
	cached, ok := c.trackInfoCache[cacheKey]
	c.cacheMu.RUnlock()
	if ok {
		zlog.Debug().Msgf("lastfm: track info cache hit: artist=%s track=%s", artistName, trackName)
		if cached == nil {
			return nil, ErrTrackNotFound
		}
		return cached, nil
	}

	params := url.Values{}
	params.Set("method", "track.getInfo")
	params.Set("artist", artistName)
	params.Set("track", trackName)
	params.Set("autocorrect", "1")

	var response getInfoResponse
	err := c.get(ctx, params, &response)
	if errors.Is(err, ErrTrackNotFound) {
		c.storeTrackInfo(cacheKey, nil)
		return nil, err
	}
	if err != nil {
		return nil, err
	}

	info := &TrackInfo{
		Name:   response.Track.Name,
		Artist: response.Track.Artist.Name,
		Album:  response.Track.Album.Title,
	}
	if ms, err := strconv.Atoi(response.Track.Duration); err == nil {
		info.Duration = time.Duration(ms) * time.Millisecond
	}
	for _, img := range response.Track.Album.Image {
		info.Images = append(info.Images, Image{URL: img.Text, Size: img.Size})
	}

	c.storeTrackInfo(cacheKey, info)
	return info, nil
}

func (c *Client) storeTrackInfo(key string, info *TrackInfo) {
	c.cacheMu.Lock()
	defer c.cacheMu.Unlock()
	c.trackInfoCache[key] = info
}

// get calls the API with params and decodes the JSON body into out.
func (c *Client) get(ctx context.Context, params url.Values, out any) error {
	params.Set("api_key", c.apiKey)
	params.Set("format", "json")

	reqURL := c.baseURL + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return errors.Wrap(err, "failed to create request")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.Wrap(err, "failed to send request")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.Wrap(err, "failed to read response body")
	}

	// Check for Last.fm API errors
	var apiErr apiError
	if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Error != 0 {
		if apiErr.Error == errCodeInvalidParameters {
			return errors.Wrapf(ErrTrackNotFound, "%s", apiErr.Message)
		}
		return errors.Errorf("last.fm API error %d: %s", apiErr.Error, apiErr.Message)
	}
	if resp.StatusCode != http.StatusOK {
		return errors.Newf("last.fm returned status %d", resp.StatusCode)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return errors.Wrap(err, "failed to parse response")
	}
	return nil
}
