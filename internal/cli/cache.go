package cli

import (
	"github.com/brendan.keane/stackcheck/internal/display"
	"github.com/brendan.keane/stackcheck/internal/errors"
	"github.com/brendan.keane/stackcheck/pkg/service"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// CacheHandler drives the /redis/cache endpoints
type CacheHandler struct {
	logger zerolog.Logger
}

// NewCacheHandler creates a new cache command handler
func NewCacheHandler(logger zerolog.Logger) *CacheHandler {
	return &CacheHandler{
		logger: logger.With().Str("handler", "cache").Logger(),
	}
}

// Set handles `cache set <key> <value>`. A --ttl of 0 keeps the server default.
func (h *CacheHandler) Set(cmd *cobra.Command, args []string) error {
	ttl, _ := cmd.Flags().GetInt("ttl")
	if ttl < 0 {
		return errors.New(errors.ErrorTypeValidation, "must not be negative").
			WithContext("field", "ttl")
	}
	return h.run(cmd, func(svc *service.Service) (any, error) {
		return svc.SetCache(cmd.Context(), args[0], args[1], ttl)
	})
}

// Get handles `cache get <key>`
func (h *CacheHandler) Get(cmd *cobra.Command, args []string) error {
	return h.run(cmd, func(svc *service.Service) (any, error) {
		return svc.GetCache(cmd.Context(), args[0])
	})
}

// Delete handles `cache delete <key>`
func (h *CacheHandler) Delete(cmd *cobra.Command, args []string) error {
	return h.run(cmd, func(svc *service.Service) (any, error) {
		return svc.DeleteCache(cmd.Context(), args[0])
	})
}

func (h *CacheHandler) run(cmd *cobra.Command, call func(*service.Service) (any, error)) error {
	client, err := clientFor(cmd, h.logger)
	if err != nil {
		return err
	}

	h.logger.Debug().Str("action", cmd.Name()).Msg("cache request")

	result, err := call(service.New(client))
	if err != nil {
		return errors.FromClientError(err)
	}
	return display.WriteJSON(cmd.OutOrStdout(), result)
}
