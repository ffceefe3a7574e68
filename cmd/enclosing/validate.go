package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// errInvalidSource makes validate exit non-zero after printing its result.
var errInvalidSource = errors.New("source does not parse")

var validateCmd = &cobra.Command{
	Use:   "validate <file>",
	Short: "Check that a Python file parses",
	Long:  "Parses the file and reports whether it is syntactically valid. Exits 1 when it is not.",
	Args:  cobra.ExactArgs(1),
	RunE:  runValidate,
}

func runValidate(cmd *cobra.Command, args []string) error {
	file := args[0]
	src, err := os.ReadFile(file)
	if err != nil {
		return outputError(cmd, "validate", fmt.Errorf("reading %s: %w", file, err))
	}

	parser, err := newParser(cfg.Logger(cmd.ErrOrStderr()))
	if err != nil {
		return outputError(cmd, "validate", err)
	}

	ctx, cancel := queryContext(cmd.Context())
	defer cancel()
	res := parser.Validate(ctx, string(src))

	if err := outputResult(cmd.OutOrStdout(), CLIResult{
		Command: "validate",
		File:    file,
		Backend: parser.Backend().Name(),
		Results: res,
	}); err != nil {
		return err
	}
	if !res.Valid {
		errorHandled = true
		return errInvalidSource
	}
	return nil
}
