package playola

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTokens struct {
	mu        sync.Mutex
	current   string
	refreshed []string // Tokens handed out by successive refreshes
	refreshes int
}

func (f *fakeTokens) CurrentToken() (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.current, f.current != ""
}

func (f *fakeTokens) RefreshToken(context.Context) (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.refreshes >= len(f.refreshed) {
		return "", false
	}
	f.current = f.refreshed[f.refreshes]
	f.refreshes++
	return f.current, true
}

const nowPlayingBody = `{
	"stationId": "bri",
	"nowPlaying": {
		"audioBlock": {
			"id": "ab-1",
			"type": "song",
			"title": "Believe",
			"artist": "Cher",
			"album": "Believe",
			"imageUrl": "https://img.example.com/believe.jpg",
			"durationMS": 239000
		},
		"airtime": "2026-03-01T12:00:00Z"
	}
}`

// newAPIServer accepts only validToken.
func newAPIServer(t *testing.T, validToken string) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	auth := func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("Authorization") != "Bearer "+validToken {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			next(w, r)
		}
	}
	mux.HandleFunc("/v1/stations/bri/now-playing", auth(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, nowPlayingBody)
	}))
	mux.HandleFunc("/v1/stations/quiet/now-playing", auth(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"stationId":"quiet","nowPlaying":null}`)
	}))
	mux.HandleFunc("/v1/stations/broken/now-playing", auth(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream exploded", http.StatusBadGateway)
	}))
	mux.HandleFunc("/v1/stations", auth(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[
			{"id":"bri","name":"Bri's Picks","curatorName":"Bri","active":true,"createdAt":"2025-01-01T00:00:00Z"},
			{"id":"old","name":"Old","active":false}
		]`)
	}))
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func newTestClient(t *testing.T, server *httptest.Server, tokens TokenProvider) *Client {
	t.Helper()
	c, err := NewClient(ClientConfig{BaseURL: server.URL + "/", Timeout: time.Second}, tokens)
	require.NoError(t, err)
	return c
}

func TestClient_NowPlaying(t *testing.T) {
	server := newAPIServer(t, "good")
	c := newTestClient(t, server, &fakeTokens{current: "good"})

	np, err := c.NowPlaying(context.Background(), "bri")
	require.NoError(t, err)

	assert.Equal(t, "Cher", np.Artist)
	assert.Equal(t, "Believe", np.Title)
	assert.Equal(t, "https://img.example.com/believe.jpg", np.ArtworkURL)
	require.NotNil(t, np.ProgramUnit)
	assert.Equal(t, "ab-1", np.ProgramUnit.ID)
	assert.Equal(t, "song", np.ProgramUnit.Type)
	assert.Equal(t, 239*time.Second, np.ProgramUnit.Duration)
	assert.True(t, time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC).Equal(np.ProgramUnit.AiringAt))
}

func TestClient_NowPlayingEmpty(t *testing.T) {
	server := newAPIServer(t, "good")
	c := newTestClient(t, server, &fakeTokens{current: "good"})

	np, err := c.NowPlaying(context.Background(), "quiet")
	require.NoError(t, err)
	assert.True(t, np.IsEmpty())
	assert.Nil(t, np.ProgramUnit)
}

func TestClient_TokenHandling(t *testing.T) {
	tests := []struct {
		name          string
		tokens        *fakeTokens
		wantErr       error
		wantRefreshes int
	}{
		{name: "current token accepted", tokens: &fakeTokens{current: "good"}},
		{name: "no token refreshes first", tokens: &fakeTokens{refreshed: []string{"good"}}, wantRefreshes: 1},
		{name: "rejected token refreshes once", tokens: &fakeTokens{current: "stale", refreshed: []string{"good"}}, wantRefreshes: 1},
		{name: "refresh unavailable", tokens: &fakeTokens{current: "stale"}, wantErr: ErrUnauthorized},
		{name: "refreshed token also rejected", tokens: &fakeTokens{current: "stale", refreshed: []string{"worse", "good"}}, wantErr: ErrUnauthorized, wantRefreshes: 1},
		{name: "no token at all", tokens: &fakeTokens{}, wantErr: ErrUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := newAPIServer(t, "good")
			c := newTestClient(t, server, tt.tokens)

			_, err := c.NowPlaying(context.Background(), "bri")
			if tt.wantErr != nil {
				assert.True(t, errors.Is(err, tt.wantErr), "unexpected error: %v", err)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.wantRefreshes, tt.tokens.refreshes)
		})
	}
}

func TestClient_Errors(t *testing.T) {
	server := newAPIServer(t, "good")
	c := newTestClient(t, server, &fakeTokens{current: "good"})

	_, err := c.NowPlaying(context.Background(), "missing")
	assert.True(t, errors.Is(err, ErrStationNotFound))

	_, err = c.NowPlaying(context.Background(), "broken")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
	assert.Contains(t, err.Error(), "upstream exploded")

	_, err = c.NowPlaying(context.Background(), "")
	assert.Error(t, err)
}

func TestClient_Stations(t *testing.T) {
	server := newAPIServer(t, "good")
	c := newTestClient(t, server, &fakeTokens{current: "good"})

	stations, err := c.Stations(context.Background())
	require.NoError(t, err)
	require.Len(t, stations, 2)
	assert.Equal(t, "bri", stations[0].ID)
	assert.Equal(t, "Bri", stations[0].CuratorName)
	assert.True(t, stations[0].Active)
	assert.False(t, stations[1].Active)
}

func TestNewClient_Validation(t *testing.T) {
	_, err := NewClient(ClientConfig{}, &fakeTokens{})
	assert.Error(t, err)

	_, err = NewClient(ClientConfig{BaseURL: "http://x"}, nil)
	assert.Error(t, err)
}
