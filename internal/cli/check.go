package cli

import (
	"fmt"

	"github.com/brendan.keane/stackcheck/internal/check"
	"github.com/brendan.keane/stackcheck/internal/display"
	"github.com/brendan.keane/stackcheck/internal/errors"
	"github.com/brendan.keane/stackcheck/pkg/service"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// CheckHandler runs the connectivity suite
type CheckHandler struct {
	logger zerolog.Logger
}

// NewCheckHandler creates a new check command handler
func NewCheckHandler(logger zerolog.Logger) *CheckHandler {
	return &CheckHandler{
		logger: logger.With().Str("handler", "check").Logger(),
	}
}

// Execute runs every check and prints the report. It returns an error when
// any check failed so the process exits non-zero.
func (h *CheckHandler) Execute(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, h.logger)
	if err != nil {
		return err
	}
	client, err := NewAPIClient(cfg, h.logger)
	if err != nil {
		return err
	}

	cacheKey, _ := cmd.Flags().GetString("cache-key")
	asJSON, _ := cmd.Flags().GetBool("json")

	h.logger.Debug().
		Str("api_url", client.BaseURL()).
		Str("cache_key", cacheKey).
		Msg("running checks")

	checker := check.New(service.New(client),
		check.WithLogger(h.logger),
		check.WithCacheKey(cacheKey),
	)
	report := checker.Run(cmd.Context())

	if asJSON {
		if err := display.WriteJSON(cmd.OutOrStdout(), report); err != nil {
			return errors.Wrap(err, errors.ErrorTypeInternal, "failed to write report")
		}
	} else {
		fmt.Fprint(cmd.OutOrStdout(), display.RenderReport(report, display.ReportOptions{Details: cfg.Verbose}))
	}

	if !report.OK() {
		return errors.Newf(errors.ErrorTypeAPI, "%d of %d checks failed", report.Count(check.StatusFail), len(report.Results)).
			WithContext("url", report.URL)
	}
	return nil
}

// HealthHandler prints the /health response
type HealthHandler struct {
	logger zerolog.Logger
}

// NewHealthHandler creates a new health command handler
func NewHealthHandler(logger zerolog.Logger) *HealthHandler {
	return &HealthHandler{
		logger: logger.With().Str("handler", "health").Logger(),
	}
}

func (h *HealthHandler) Execute(cmd *cobra.Command, args []string) error {
	client, err := clientFor(cmd, h.logger)
	if err != nil {
		return err
	}

	health, err := service.New(client).Health(cmd.Context())
	if err != nil {
		h.logger.Debug().Err(err).Msg("health request failed")
		return errors.FromClientError(err)
	}

	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		return display.WriteJSON(cmd.OutOrStdout(), health)
	}
	fmt.Fprint(cmd.OutOrStdout(), display.RenderHealth(health))
	return nil
}
