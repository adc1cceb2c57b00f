package main

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	haspermission "github.com/mstuart/has-permission"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(newCheckCmd())
}

func newCheckCmd() *cobra.Command {
	var batch bool

	cmd := &cobra.Command{
		Use:   "check <scope> [reference]",
		Short: "Report whether a permission is granted",
		Long: `Report whether a permission scope is granted, optionally for a reference
such as a file path or host. Prints "granted" or "denied"; the exit code is 1
when denied.

With --batch, requests are read from stdin as JSON lines of the form
{"scope": "fs.read", "reference": "/tmp"} and one JSON result is written per line.`,
		Example: `  has-permission check fs.read /etc/passwd
  has-permission check child
  echo '{"scope":"worker"}' | has-permission check --batch`,
		Args: func(cmd *cobra.Command, args []string) error {
			if batch {
				return cobra.NoArgs(cmd, args)
			}
			return cobra.RangeArgs(1, 2)(cmd, args)
		},
		RunE: withContainer(func(ctx *CommandContext, cmd *cobra.Command, args []string) error {
			gate, err := ctx.Container.Gate(ctx.Context)
			if err != nil {
				return err
			}

			if batch {
				return checkBatch(gate, cmd.InOrStdin(), cmd.OutOrStdout())
			}

			if gate.Check(args[0], args[1:]...) {
				fmt.Fprintln(cmd.OutOrStdout(), "granted")
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), "denied")
			return &exitError{code: 1}
		}),
	}

	cmd.Flags().BoolVar(&batch, "batch", false, "read JSON-lines requests from stdin")

	return cmd
}

type checkRequest struct {
	Scope     any     `json:"scope"`
	Reference *string `json:"reference,omitempty"`
}

type checkResult struct {
	Scope     any     `json:"scope"`
	Reference *string `json:"reference,omitempty"`
	Granted   bool    `json:"granted"`
	Error     string  `json:"error,omitempty"`
}

// checkBatch answers one request per input line. A malformed line or a
// non-string scope yields a result with an error instead of aborting.
// It returns an exitError when any request was denied or invalid.
func checkBatch(gate *haspermission.Gate, in io.Reader, out io.Writer) error {
	scanner := bufio.NewScanner(in)
	encoder := json.NewEncoder(out)
	failed := false

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var req checkRequest
		result := checkResult{}
		if err := json.Unmarshal(line, &req); err != nil {
			result.Error = fmt.Sprintf("malformed request: %v", err)
		} else {
			result.Scope = req.Scope
			result.Reference = req.Reference

			var refs []string
			if req.Reference != nil {
				refs = append(refs, *req.Reference)
			}
			granted, err := gate.CheckValue(req.Scope, refs...)
			result.Granted = granted
			if err != nil {
				result.Error = err.Error()
			}
		}

		if !result.Granted {
			failed = true
		}
		if err := encoder.Encode(result); err != nil {
			return fmt.Errorf("failed to write result: %w", err)
		}
	}
	if err := scanner.Err(); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("failed to read requests: %w", err)
	}

	if failed {
		return &exitError{code: 1}
	}
	return nil
}
