package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var verbose bool

// exitError carries a process exit code without printing anything further.
type exitError struct {
	code int
}

func (e *exitError) Error() string {
	return fmt.Sprintf("exit status %d", e.code)
}

// rootCmd is the application entry point.
var rootCmd = &cobra.Command{
	Use:   "has-permission",
	Short: "Query and manage the process permission model",
	Long: `has-permission checks whether a permission scope (fs.read, fs.write,
child, worker, net, ...) is granted, optionally for a specific reference such
as a file path or host.

When the permission model is disabled every check is granted. Enable it with
"permission.enabled: true" in the config file or HAS_PERMISSION_ENABLED=true.`,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		setupLogging()
	},
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	if err == nil {
		return 0
	}

	var exitErr *exitError
	if errors.As(err, &exitErr) {
		return exitErr.code
	}

	fmt.Fprintln(rootCmd.ErrOrStderr(), "Error:", err)
	return 1
}

func init() {
	cobra.OnInitialize(initConfig)

	flags := rootCmd.PersistentFlags()
	flags.String("config", "", "system config file (default is $HOME/.has-permission/config.yaml)")
	flags.String("grants", "", "grants file (default is grants.yaml next to the config file)")
	flags.String("security-level", "", "security level for new grants: strict, standard, permissive")
	flags.Bool("enabled", false, "enforce the permission model regardless of the config file")
	flags.BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")

	for _, name := range []string{"config", "grants", "security-level", "enabled"} {
		_ = viper.BindPFlag(name, flags.Lookup(name))
	}
}

// initConfig binds configuration from flags and HAS_PERMISSION_* environment variables.
func initConfig() {
	viper.SetEnvPrefix("HAS_PERMISSION")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

func setupLogging() {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}

	// Using TextHandler for CLI friendliness
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)
}
