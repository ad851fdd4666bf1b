// Package cli wires the stackcheck commands to their handlers.
package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/brendan.keane/stackcheck/internal/check"
	"github.com/brendan.keane/stackcheck/internal/config"
	"github.com/brendan.keane/stackcheck/internal/errors"
	"github.com/brendan.keane/stackcheck/internal/logger"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// app carries state set up once flags are parsed.
type app struct {
	logger zerolog.Logger
	debug  bool
}

// NewRootCommand builds the command tree.
func NewRootCommand() *cobra.Command {
	return newRootCommand(&app{logger: zerolog.Nop()})
}

func newRootCommand(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "stackcheck",
		Short: "Check and call a Next.js + FastAPI template deployment",
		Long: `stackcheck talks to the template API over HTTP (or lambda:// for direct
Lambda invocation). It can run the Redis and Supabase connectivity suite,
send typed or raw requests, and list the routes in the API's OpenAPI document.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
	}
	config.RegisterFlags(root.PersistentFlags())

	checkCmd := &cobra.Command{
		Use:   "check",
		Short: "Run the connectivity checks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return NewCheckHandler(a.logger).Execute(cmd, args)
		},
	}
	checkCmd.Flags().Bool("json", false, "Print the report as JSON")
	checkCmd.Flags().String("cache-key", check.DefaultCacheKey, "Key used by the cache round trip")

	healthCmd := &cobra.Command{
		Use:   "health",
		Short: "Show the API health status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return NewHealthHandler(a.logger).Execute(cmd, args)
		},
	}
	healthCmd.Flags().Bool("json", false, "Print the raw response as JSON")

	requestCmd := &cobra.Command{
		Use:   "request <METHOD> <path>",
		Short: "Send a request and print the JSON response",
		Example: `  stackcheck request GET /health
  stackcheck request POST /items -d '{"name":"x"}'
  stackcheck request GET /health --query redis`,
		Args:              cobra.ExactArgs(2),
		ValidArgsFunction: requestCompletion,
		RunE: func(cmd *cobra.Command, args []string) error {
			return NewRequestHandler(a.logger).Execute(cmd, args)
		},
	}
	requestCmd.Flags().StringP("data", "d", "", "JSON request body")
	requestCmd.Flags().StringP("query", "q", "", "JMESPath expression applied to the response")

	routesCmd := &cobra.Command{
		Use:               "routes [filter]",
		Short:             "List routes from the OpenAPI document",
		Long:              "List routes from the API's OpenAPI document. A filter ending in * matches by prefix.",
		Args:              cobra.MaximumNArgs(1),
		ValidArgsFunction: routesCompletion,
		RunE: func(cmd *cobra.Command, args []string) error {
			return NewRoutesHandler(a.logger).Execute(cmd, args)
		},
	}
	routesCmd.Flags().StringP("method", "X", "ANY", "Only show these methods (comma-separated)")
	routesCmd.RegisterFlagCompletionFunc("method", methodCompletion)

	root.AddCommand(checkCmd, healthCmd, requestCmd, newCacheCommand(a), routesCmd, newCompletionCommand())
	return root
}

func newCacheCommand(a *app) *cobra.Command {
	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Set, read and delete Redis cache entries",
	}

	setCmd := &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Store a value",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return NewCacheHandler(a.logger).Set(cmd, args)
		},
	}
	setCmd.Flags().Int("ttl", 0, "Time-to-live in seconds (0 keeps the server default of 300)")

	getCmd := &cobra.Command{
		Use:   "get <key>",
		Short: "Read a value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return NewCacheHandler(a.logger).Get(cmd, args)
		},
	}

	deleteCmd := &cobra.Command{
		Use:   "delete <key>",
		Short: "Delete a value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return NewCacheHandler(a.logger).Delete(cmd, args)
		},
	}

	cacheCmd.AddCommand(setCmd, getCmd, deleteCmd)
	return cacheCmd
}

// setup loads and validates configuration, builds the logger and stores the
// config on the command context.
func (a *app) setup(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadFromFlags(cmd.Flags())
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	a.debug = cfg.Debug
	a.logger = logger.SetupFromFlags(cfg.Verbose, cfg.Debug, cfg.LogFormat, cmd.ErrOrStderr())
	a.logger.Debug().
		Str("command", cmd.CommandPath()).
		Str("api_url", cfg.APIURL).
		Msg("configuration loaded")

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	cmd.SetContext(config.WithConfig(ctx, cfg))
	return nil
}

// Run executes the CLI with args and returns the process exit code.
func Run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	a := &app{logger: zerolog.Nop()}
	root := newRootCommand(a)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.ExecuteContext(ctx)
	if err == nil {
		return 0
	}

	if a.debug {
		errors.Present(a.logger, err)
	}
	fmt.Fprintf(stderr, "Error: %s\n", errors.UserMessage(err))
	if suggestion, ok := errors.GetContext(err)["suggestion"]; ok {
		fmt.Fprintf(stderr, "Hint: %v\n", suggestion)
	}
	return 1
}

func methodCompletion(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	return requestMethods, cobra.ShellCompDirectiveNoFileComp
}

func newCompletionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate completion script",
		Long: `To load completions:

Bash:

  $ source <(stackcheck completion bash)

Zsh:

  $ source <(stackcheck completion zsh)

Fish:

  $ stackcheck completion fish | source

PowerShell:

  PS> stackcheck completion powershell | Out-String | Invoke-Expression
`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		PersistentPreRunE:     func(cmd *cobra.Command, args []string) error { return nil },
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletion(out)
			case "zsh":
				return cmd.Root().GenZshCompletion(out)
			case "fish":
				return cmd.Root().GenFishCompletion(out, true)
			default:
				return cmd.Root().GenPowerShellCompletionWithDesc(out)
			}
		},
	}
}
