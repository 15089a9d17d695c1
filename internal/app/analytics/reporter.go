package analytics

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"
)

// LogReporter writes events to a zerolog logger.
type LogReporter struct {
	logger zerolog.Logger
	level  zerolog.Level
}

// NewLogReporter creates a reporter logging to the global logger at level.
func NewLogReporter(level zerolog.Level) *LogReporter {
	return &LogReporter{logger: zlog.Logger, level: level}
}

// NewLogReporterWithLogger creates a reporter logging to logger.
func NewLogReporterWithLogger(logger zerolog.Logger, level zerolog.Level) *LogReporter {
	return &LogReporter{logger: logger, level: level}
}

// Report implements Reporter.
func (r *LogReporter) Report(_ context.Context, ev Event) error {
	e := r.logger.WithLevel(r.level).
		Uint64("sequence", ev.Sequence).
		Str("type", string(ev.Type)).
		Str("station_id", ev.Station.ID).
		Str("station_name", ev.Station.Name).
		Time("occurred_at", ev.OccurredAt)

	if ev.SessionID != "" {
		e = e.Str("session_id", ev.SessionID)
	}

	switch ev.Type {
	case EventSessionEnded:
		e = e.Float64("session_length_sec", ev.SessionLengthSec)
	case EventSwitchedStation:
		e = e.Float64("time_before_switch_sec", ev.TimeBeforeSwitchSec).
			Str("reason", string(ev.Reason))
		if ev.ToStation != nil {
			e = e.Str("to_station_id", ev.ToStation.ID).Str("to_station_name", ev.ToStation.Name)
		}
	case EventPlaybackError:
		e = e.Str("error_message", ev.Message)
	}

	e.Msg("analytics: event")
	return nil
}

// HTTPReporterConfig holds HTTP collector configuration.
type HTTPReporterConfig struct {
	Endpoint string        // Collector URL receiving POSTed JSON events
	APIKey   string        // Sent as a bearer token when set
	Timeout  time.Duration // Client timeout
}

// HTTPReporter posts events as JSON to a collector endpoint.
type HTTPReporter struct {
	endpoint   string
	apiKey     string
	httpClient *http.Client
}

// NewHTTPReporter creates a new HTTP collector reporter.
func NewHTTPReporter(config HTTPReporterConfig) (*HTTPReporter, error) {
	if config.Endpoint == "" {
		return nil, errors.New("collector endpoint is required")
	}
	timeout := config.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &HTTPReporter{
		endpoint:   config.Endpoint,
		apiKey:     config.APIKey,
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}

// Report implements Reporter.
func (r *HTTPReporter) Report(ctx context.Context, ev Event) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return errors.Wrap(err, "failed to marshal event")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.endpoint, bytes.NewReader(body))
	if err != nil {
		return errors.Wrap(err, "failed to create request")
	}
	req.Header.Set("Content-Type", "application/json")
	if r.apiKey != "" {
		req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", r.apiKey))
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return errors.Wrap(err, "failed to post event")
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return errors.Newf("collector returned status %d", resp.StatusCode)
	}
	return nil
}
