package cli

import (
	"context"
	"encoding/json"
	"slices"
	"strings"
	"time"

	"github.com/brendan.keane/stackcheck/internal/config"
	"github.com/brendan.keane/stackcheck/internal/display"
	"github.com/brendan.keane/stackcheck/internal/errors"
	"github.com/brendan.keane/stackcheck/pkg/apiclient"
	"github.com/brendan.keane/stackcheck/pkg/openapi"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// Methods accepted by the request command.
var requestMethods = []string{
	string(apiclient.MethodGet),
	string(apiclient.MethodPost),
	string(apiclient.MethodPut),
	string(apiclient.MethodPatch),
	string(apiclient.MethodDelete),
}

// RequestHandler sends one raw call and prints the decoded JSON
type RequestHandler struct {
	logger zerolog.Logger
}

// NewRequestHandler creates a new request command handler
func NewRequestHandler(logger zerolog.Logger) *RequestHandler {
	return &RequestHandler{
		logger: logger.With().Str("handler", "request").Logger(),
	}
}

// Execute handles `request <METHOD> <path>`
func (h *RequestHandler) Execute(cmd *cobra.Command, args []string) error {
	if len(args) != 2 {
		return errors.New(errors.ErrorTypeValidation, "expected a method and a path").
			WithContext("suggestion", "e.g. stackcheck request GET /health")
	}

	method := strings.ToUpper(args[0])
	if !slices.Contains(requestMethods, method) {
		return errors.Newf(errors.ErrorTypeValidation, "unsupported method %q", args[0]).
			WithContext("field", "method").
			WithContext("suggestion", "use one of "+strings.Join(requestMethods, ", "))
	}

	path := args[1]
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}

	var body []byte
	if data, _ := cmd.Flags().GetString("data"); data != "" {
		if !json.Valid([]byte(data)) {
			return errors.New(errors.ErrorTypeValidation, "request body is not valid JSON").
				WithContext("field", "data")
		}
		body = []byte(data)
	}

	client, err := clientFor(cmd, h.logger)
	if err != nil {
		return err
	}

	h.logger.Debug().
		Str("method", method).
		Str("path", path).
		Int("body_length", len(body)).
		Msg("executing request")

	result, err := apiclient.Request[any](cmd.Context(), client, apiclient.Descriptor{
		Path:   path,
		Method: apiclient.Method(method),
		Body:   body,
	})
	if err != nil {
		return errors.FromClientError(err)
	}

	query, _ := cmd.Flags().GetString("query")
	filtered, err := display.Filter(result, query)
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeValidation, "failed to apply query").
			WithContext("field", "query")
	}

	return display.WriteJSON(cmd.OutOrStdout(), filtered)
}

// requestCompletion suggests a method first, then the document's paths for
// that method.
func requestCompletion(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	switch len(args) {
	case 0:
		return requestMethods, cobra.ShellCompDirectiveNoFileComp
	case 1:
		doc, err := fetchDocument(cmd)
		if err != nil {
			return nil, cobra.ShellCompDirectiveError
		}
		return doc.PathCompletions(strings.ToUpper(args[0])), cobra.ShellCompDirectiveNoFileComp
	default:
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
}

// fetchDocument loads the OpenAPI document during shell completion, where the
// root command's setup has not run.
func fetchDocument(cmd *cobra.Command) (*openapi.Document, error) {
	cfg, err := config.LoadFromFlags(cmd.Flags())
	if err != nil {
		return nil, err
	}
	client, err := NewAPIClient(cfg, zerolog.Nop())
	if err != nil {
		return nil, err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	return openapi.Fetch(ctx, client)
}
