package main

import (
	"errors"
	"fmt"

	haspermission "github.com/mstuart/has-permission"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(newAssertCmd())
}

func newAssertCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "assert <scope> [reference]",
		Short: "Fail unless a permission is granted",
		Long: `Exit silently when the permission is granted. Otherwise print the
permission error to stderr and exit with status 1. Useful as a guard in scripts.`,
		Example: `  has-permission assert fs.write /var/lib/app && ./migrate`,
		Args:    cobra.RangeArgs(1, 2),
		RunE: withContainer(func(ctx *CommandContext, cmd *cobra.Command, args []string) error {
			gate, err := ctx.Container.Gate(ctx.Context)
			if err != nil {
				return err
			}

			err = gate.Assert(args[0], args[1:]...)
			var permErr *haspermission.PermissionError
			if errors.As(err, &permErr) {
				fmt.Fprintln(cmd.ErrOrStderr(), permErr.Error())
				return &exitError{code: 1}
			}
			return err
		}),
	}
}
