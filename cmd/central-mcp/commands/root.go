// Package commands implements the central-mcp command line.
package commands

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/tphakala/go-central"
	"github.com/tphakala/go-central/internal/config"
)

// Exit codes.
const (
	ExitOK          = 0
	ExitError       = 1
	ExitAuth        = 2
	ExitRateLimited = 3
)

// BuildInfo is stamped in at link time.
type BuildInfo struct {
	Version string
	Commit  string
	Date    string
}

// app carries state shared by all subcommands.
type app struct {
	info    BuildInfo
	v       *viper.Viper
	cfgFile string
	output  string
}

// flagKeys maps config keys to the persistent flags that set them.
var flagKeys = map[string]string{
	config.KeyClientID:     "client-id",
	config.KeyClientSecret: "client-secret",
	config.KeyTenantID:     "tenant-id",
	config.KeyAPIURL:       "api-url",
	config.KeyGlobalURL:    "global-url",
	config.KeyAuthURL:      "auth-url",
	config.KeyTimeout:      "timeout",
	config.KeyLogLevel:     "log-level",
	config.KeyLogFormat:    "log-format",
}

// bindFlags binds each flag into v under its config key. A missing flag is
// an error rather than a silently unbound key.
func bindFlags(v *viper.Viper, flags *pflag.FlagSet, keys map[string]string) error {
	for key, name := range keys {
		flag := flags.Lookup(name)
		if flag == nil {
			return fmt.Errorf("binding %s: no flag named --%s", key, name)
		}
		if err := v.BindPFlag(key, flag); err != nil {
			return fmt.Errorf("binding %s: %w", key, err)
		}
	}
	return nil
}

// NewRootCommand builds the command tree.
func NewRootCommand(info BuildInfo) *cobra.Command {
	a := &app{info: info, v: config.New()}

	cmd := &cobra.Command{
		Use:   "central-mcp",
		Short: "Sophos Central API client and MCP server",
		Long: `central-mcp talks to the Sophos Central API with OAuth2 client credentials.

Run "central-mcp serve" to expose the API to an agent over MCP on stdio, or use
the listing commands directly. Settings come from flags, CENTRAL_* environment
variables and an optional YAML config file.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := cmd.PersistentFlags()
	flags.StringVarP(&a.cfgFile, "config", "c", "", "YAML config file")
	flags.StringVarP(&a.output, "output", "o", "", "output format: table, json, yaml (default table on a terminal, json otherwise)")
	flags.String("client-id", "", "OAuth2 client ID")
	flags.String("client-secret", "", "OAuth2 client secret")
	flags.String("tenant-id", "", "tenant ID; with --api-url skips discovery")
	flags.String("api-url", "", "data-region API host")
	flags.String("global-url", "", "global API host")
	flags.String("auth-url", "", "OAuth2 token endpoint")
	flags.Duration("timeout", 0, "per-request timeout (default 30s)")
	flags.String("log-level", "", "log level: trace, debug, info, warn, error")
	flags.String("log-format", "", "log format: text or json")

	if err := bindFlags(a.v, flags, flagKeys); err != nil {
		panic(err)
	}

	cmd.AddCommand(
		newServeCommand(a),
		newWhoAmICommand(a),
		newTenantsCommand(a),
		newEndpointsCommand(a),
		newAlertsCommand(a),
		newVersionCommand(a),
	)
	return cmd
}

// Execute runs the command line and returns the process exit code.
func Execute(info BuildInfo, args []string) int {
	cmd := NewRootCommand(info)
	cmd.SetArgs(args)

	err := cmd.Execute()
	if err != nil {
		fmt.Fprintln(cmd.ErrOrStderr(), "Error:", err)
	}
	return ExitCode(err)
}

// ExitCode maps an error onto the documented exit codes.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	var ae *central.AuthError
	var rl *central.RateLimitError
	switch {
	case errors.As(err, &rl):
		return ExitRateLimited
	case errors.As(err, &ae):
		return ExitAuth
	default:
		return ExitError
	}
}

// setup loads and validates configuration and builds a logger and client.
// Logs go to stderr; stdout is reserved for results and the MCP stream.
func (a *app) setup(stderr io.Writer) (*central.Client, hclog.Logger, error) {
	cfg, err := config.Load(a.v, a.cfgFile)
	if err != nil {
		return nil, nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("invalid configuration: %w", err)
	}

	if stderr == nil {
		stderr = os.Stderr
	}
	logger := cfg.NewLogger("central-mcp", stderr)

	client, err := central.NewClient(cfg.ClientOptions(logger)...)
	if err != nil {
		return nil, nil, err
	}
	return client, logger, nil
}
