package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mstuart/has-permission/internal/infrastructure/container"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// CommandContext provides common command dependencies.
type CommandContext struct {
	Container *container.Container
	Logger    *slog.Logger
	Context   context.Context
}

// CommandHandler is a function that executes with initialized dependencies.
type CommandHandler func(*CommandContext, *cobra.Command, []string) error

// withContainer wraps a command handler with container initialization.
// Handles common setup: config loading, logger creation, dependency injection.
func withContainer(handler CommandHandler) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		logger := slog.Default()

		c, err := container.New(containerOptions(logger))
		if err != nil {
			return fmt.Errorf("failed to initialize application: %w", err)
		}

		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}

		return handler(&CommandContext{
			Container: c,
			Logger:    logger,
			Context:   ctx,
		}, cmd, args)
	}
}

// containerOptions maps viper settings onto container options.
func containerOptions(logger *slog.Logger) container.Options {
	opts := container.Options{
		Logger:           logger,
		SystemConfigPath: viper.GetString("config"),
		GrantsPath:       viper.GetString("grants"),
		SecurityLevel:    viper.GetString("security-level"),
	}
	if viper.IsSet("enabled") {
		enabled := viper.GetBool("enabled")
		opts.Enabled = &enabled
	}
	return opts
}
