package main

import (
	"errors"
	"fmt"
	"os"
	"os/exec"

	haspermission "github.com/mstuart/has-permission"
	"github.com/mstuart/has-permission/internal/domain/capabilities"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(newRunCmd())
}

func newRunCmd() *cobra.Command {
	var allow []string

	cmd := &cobra.Command{
		Use:   "run [--allow capability]... -- <command> [args...]",
		Short: "Run a command if spawning it is permitted",
		Long: `Install the permission model for this process, assert the "child"
permission for the resolved command path and run it. Extra capabilities passed
with --allow apply to this run only, unless confirmed with "remember".`,
		Example: `  has-permission run -- git status
  has-permission run --allow child:/usr/bin/make -- make build`,
		Args: cobra.MinimumNArgs(1),
		RunE: withContainer(func(ctx *CommandContext, cmd *cobra.Command, args []string) error {
			extra, err := parseCapabilities(allow)
			if err != nil {
				return err
			}

			if len(extra) > 0 && ctx.Container.Enabled() {
				extra, err = ctx.Container.Gatekeeper().GrantCapabilities(extra, false)
				if err != nil {
					return err
				}
			}

			oracle, err := ctx.Container.Oracle(ctx.Context, extra)
			if err != nil {
				return err
			}
			haspermission.Install(oracle)
			defer haspermission.Install(nil)

			path, err := exec.LookPath(args[0])
			if err != nil {
				return fmt.Errorf("command not found: %w", err)
			}

			if err := haspermission.Assert(string(capabilities.ScopeChild), path); err != nil {
				fmt.Fprintln(cmd.ErrOrStderr(), err.Error())
				return &exitError{code: 126}
			}

			ctx.Logger.Debug("running command", "path", path, "args", args[1:])

			//nolint:gosec // G204: running the user's command is the purpose of this subcommand
			child := exec.CommandContext(ctx.Context, path, args[1:]...)
			child.Stdin = cmd.InOrStdin()
			child.Stdout = cmd.OutOrStdout()
			child.Stderr = cmd.ErrOrStderr()
			child.Env = os.Environ()

			if err := child.Run(); err != nil {
				var exitErr *exec.ExitError
				if errors.As(err, &exitErr) {
					return &exitError{code: exitErr.ExitCode()}
				}
				return fmt.Errorf("failed to run %s: %w", path, err)
			}
			return nil
		}),
	}

	cmd.Flags().StringArrayVar(&allow, "allow", nil, "additional capability for this run (scope or scope:pattern)")

	return cmd
}
