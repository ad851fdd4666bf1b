package cli

import (
	"fmt"

	"github.com/brendan.keane/stackcheck/internal/errors"
	"github.com/brendan.keane/stackcheck/pkg/apiclient"
	"github.com/brendan.keane/stackcheck/pkg/openapi"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// RoutesHandler lists the operations in the API's OpenAPI document
type RoutesHandler struct {
	logger zerolog.Logger
}

// NewRoutesHandler creates a new routes command handler
func NewRoutesHandler(logger zerolog.Logger) *RoutesHandler {
	return &RoutesHandler{
		logger: logger.With().Str("handler", "routes").Logger(),
	}
}

// Execute handles `routes [filter]`. An exact path match shows the single
// route view.
func (h *RoutesHandler) Execute(cmd *cobra.Command, args []string) error {
	filter := "*"
	if len(args) > 0 && args[0] != "" {
		filter = args[0]
	}
	method, _ := cmd.Flags().GetString("method")

	client, err := clientFor(cmd, h.logger)
	if err != nil {
		return err
	}

	h.logger.Debug().
		Str("filter", filter).
		Str("method", method).
		Msg("fetching OpenAPI document")

	doc, err := openapi.Fetch(cmd.Context(), client)
	if err != nil {
		if _, ok := apiclient.AsError(err); ok {
			return errors.FromClientError(err)
		}
		return errors.Wrap(err, errors.ErrorTypeOpenAPI, "failed to read OpenAPI document").
			WithContext("url", client.BaseURL()+openapi.SpecPath)
	}

	fmt.Fprintln(cmd.OutOrStdout(), openapi.Render(doc, doc.Routes(filter, method), filter))
	return nil
}

func routesCompletion(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	doc, err := fetchDocument(cmd)
	if err != nil {
		return nil, cobra.ShellCompDirectiveError
	}
	method, _ := cmd.Flags().GetString("method")
	return doc.PathCompletions(method), cobra.ShellCompDirectiveNoFileComp
}
