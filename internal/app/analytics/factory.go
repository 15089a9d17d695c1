package analytics

import (
	"time"

	"github.com/cockroachdb/errors"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/19radio/internal/infra/config"
	"github.com/osa030/19radio/internal/infra/logger"
)

type logReporterSettings struct {
	Level string `mapstructure:"level" default:"info" validate:"oneof=trace debug info warn warning error"`
}

type httpReporterSettings struct {
	Endpoint  string `mapstructure:"endpoint" validate:"required,url"`
	APIKey    string `mapstructure:"api_key"`
	TimeoutMs int    `mapstructure:"timeout_ms" default:"5000" validate:"gte=100"`
}

// NewReportersFromConfig creates the configured reporters in order.
func NewReportersFromConfig(cfg *config.Config) ([]Reporter, error) {
	var reporters []Reporter

	for i, rcfg := range cfg.Analytics.Reporters {
		var reporter Reporter
		var err error

		switch rcfg.Type {
		case "log":
			var s logReporterSettings
			if err = decodeSettings(rcfg.Settings, &s); err == nil {
				reporter = NewLogReporter(logger.ParseLevel(s.Level))
			}

		case "http":
			var s httpReporterSettings
			if err = decodeSettings(rcfg.Settings, &s); err == nil {
				reporter, err = NewHTTPReporter(HTTPReporterConfig{
					Endpoint: s.Endpoint,
					APIKey:   s.APIKey,
					Timeout:  time.Duration(s.TimeoutMs) * time.Millisecond,
				})
			}

		default:
			return nil, errors.Newf("unsupported reporter type: %s (reporter index %d)", rcfg.Type, i)
		}

		if err != nil {
			return nil, errors.Wrapf(err, "failed to create reporter (index %d, type %s)", i, rcfg.Type)
		}
		reporters = append(reporters, reporter)
		zlog.Info().Msgf("analytics: registered reporter: index=%d type=%s", i+1, rcfg.Type)
	}

	return reporters, nil
}

func decodeSettings(settings map[string]any, out any) error {
	if err := mapstructure.Decode(settings, out); err != nil {
		return errors.Wrap(err, "failed to decode settings")
	}
	if err := defaults.Set(out); err != nil {
		return errors.Wrap(err, "failed to set defaults")
	}
	if err := validator.New().Struct(out); err != nil {
		return errors.Wrap(err, "validation failed")
	}
	return nil
}
