package main

import (
	"fmt"
	"text/tabwriter"

	apperrors "github.com/mstuart/has-permission/internal/application/errors"
	"github.com/mstuart/has-permission/internal/domain/capabilities"
	"github.com/spf13/cobra"
)

// grantCmd groups grant management subcommands.
var grantCmd = &cobra.Command{
	Use:   "grant",
	Short: "Manage stored permission grants",
}

func init() {
	grantCmd.AddCommand(newGrantAddCmd())
	grantCmd.AddCommand(newGrantListCmd())
	grantCmd.AddCommand(newGrantRemoveCmd())
	rootCmd.AddCommand(grantCmd)
}

func newGrantAddCmd() *cobra.Command {
	var when string

	cmd := &cobra.Command{
		Use:   "add <capability>...",
		Short: "Grant capabilities",
		Long: `Add capabilities to the grants file. A capability is a scope, optionally
followed by ":" and a pattern. Broad capabilities are subject to the security
level: denied when strict, confirmed interactively when standard.`,
		Example: `  has-permission grant add fs.read:/srv/app/**
  has-permission grant add child:/usr/bin/git worker
  has-permission grant add net:*.example.com --when 'env["CI"] == "true"'`,
		Args: cobra.MinimumNArgs(1),
		RunE: withContainer(func(ctx *CommandContext, cmd *cobra.Command, args []string) error {
			requested, err := parseCapabilities(args)
			if err != nil {
				return err
			}
			for i := range requested {
				requested[i].When = when
			}

			if _, err := ctx.Container.Gatekeeper().GrantCapabilities(requested, true); err != nil {
				return err
			}

			for _, capability := range requested {
				fmt.Fprintf(cmd.OutOrStdout(), "granted %s\n", capability.String())
			}
			return nil
		}),
	}

	cmd.Flags().StringVar(&when, "when", "", "condition expression limiting when the grant applies")

	return cmd
}

func newGrantListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored grants",
		Args:  cobra.NoArgs,
		RunE: withContainer(func(ctx *CommandContext, cmd *cobra.Command, _ []string) error {
			grants, err := ctx.Container.Gatekeeper().ListCapabilities()
			if err != nil {
				return err
			}

			if len(grants) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No grants found.")
				return nil
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 3, ' ', 0)
			if _, err := fmt.Fprintln(w, "SCOPE\tPATTERN\tWHEN\tRISK"); err != nil {
				return fmt.Errorf("failed to write header: %w", err)
			}
			for _, capability := range grants {
				pattern := capability.Pattern
				if pattern == "" {
					pattern = "*"
				}
				when := capability.When
				if when == "" {
					when = "-"
				}
				if _, err := fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
					capability.Scope, pattern, when, capability.RiskLevel()); err != nil {
					return fmt.Errorf("failed to write grant: %w", err)
				}
			}
			if err := w.Flush(); err != nil {
				return fmt.Errorf("failed to flush writer: %w", err)
			}
			return nil
		}),
	}
}

func newGrantRemoveCmd() *cobra.Command {
	var when string

	cmd := &cobra.Command{
		Use:     "remove <capability>...",
		Aliases: []string{"rm", "revoke"},
		Short:   "Remove stored grants",
		Long: `Remove capabilities from the grants file. Without --when every grant with
the given scope and pattern is removed, whatever its condition.`,
		Args: cobra.MinimumNArgs(1),
		RunE: withContainer(func(ctx *CommandContext, cmd *cobra.Command, args []string) error {
			revoked, err := parseCapabilities(args)
			if err != nil {
				return err
			}
			for i := range revoked {
				revoked[i].When = when
			}

			removed, err := ctx.Container.Gatekeeper().RevokeCapabilities(revoked)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "removed %d grant(s)\n", removed)
			return nil
		}),
	}

	cmd.Flags().StringVar(&when, "when", "", "only remove the grant with this condition")

	return cmd
}

// parseCapabilities parses "scope[:pattern]" arguments.
func parseCapabilities(args []string) (capabilities.Grant, error) {
	grants := capabilities.NewGrant()
	var details []string
	for _, arg := range args {
		capability, err := capabilities.ParseCapability(arg)
		if err != nil {
			details = append(details, err.Error())
			continue
		}
		grants.Add(capability)
	}
	if len(details) > 0 {
		return nil, apperrors.NewValidationError("capability", details[0], details...)
	}
	return grants, nil
}
