package cli

import (
	"net/http"

	"github.com/brendan.keane/stackcheck/internal/config"
	"github.com/brendan.keane/stackcheck/internal/errors"
	"github.com/brendan.keane/stackcheck/pkg/apiclient"
	"github.com/brendan.keane/stackcheck/pkg/transport"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// NewAPIClient builds the request client for cfg: Lambda-aware transport,
// optional SigV4 signing, bearer and -H headers as defaults.
func NewAPIClient(cfg *config.Config, logger zerolog.Logger) (*apiclient.Client, error) {
	headers, err := cfg.DefaultHeaders()
	if err != nil {
		return nil, err
	}

	var doer apiclient.Doer = transport.NewClient(
		transport.WithHTTPClient(&http.Client{Timeout: cfg.Timeout}),
		transport.WithLogger(logger),
	)
	if cfg.SigV4Enabled {
		doer = transport.NewSigV4Signer(doer, cfg.SigV4Service, transport.WithSignerLogger(logger))
	}

	logger.Debug().
		Str("api_url", cfg.APIURL).
		Bool("sigv4", cfg.SigV4Enabled).
		Int("headers", len(headers)).
		Dur("timeout", cfg.Timeout).
		Msg("api client configured")

	return apiclient.New(apiclient.Config{
		BaseURL:        cfg.APIURL,
		HTTPClient:     doer,
		DefaultHeaders: headers,
		Logger:         &logger,
	}), nil
}

// loadConfig returns the config stored by the root command, or loads and
// validates it from cmd's flags.
func loadConfig(cmd *cobra.Command, logger zerolog.Logger) (*config.Config, error) {
	if ctx := cmd.Context(); ctx != nil {
		if cfg, ok := config.FromContext(ctx); ok {
			return cfg, nil
		}
	}

	cfg, err := config.LoadFromFlags(cmd.Flags())
	if err != nil {
		logger.Error().Err(err).Msg("failed to load configuration")
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		logger.Error().Err(err).Msg("configuration validation failed")
		return nil, err
	}
	return cfg, nil
}

// clientFor loads config and builds a client in one step.
func clientFor(cmd *cobra.Command, logger zerolog.Logger) (*apiclient.Client, error) {
	cfg, err := loadConfig(cmd, logger)
	if err != nil {
		return nil, err
	}
	client, err := NewAPIClient(cfg, logger)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConfig, "failed to create API client")
	}
	return client, nil
}
