package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/RohanNethala/enclosing"
)

// outputResult writes a CLIResult to w in the selected format.
func outputResult(w io.Writer, result CLIResult) error {
	if cfg != nil && cfg.Format == "text" {
		return outputResultText(w, result)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

// outputError writes an error in the selected format and returns it so RunE
// can propagate it to Cobra. In JSON mode the error is written to stdout as a
// CLIResult envelope. In text mode it goes to stderr.
func outputError(cmd *cobra.Command, command string, err error) error {
	errorHandled = true
	if cfg != nil && cfg.Format == "text" {
		fmt.Fprintf(cmd.ErrOrStderr(), "Error: %s\n", err)
		return err
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	_ = enc.Encode(CLIResult{Command: command, Error: err.Error()})
	return err
}

// outputResultText dispatches to the text formatter for the result type.
func outputResultText(w io.Writer, result CLIResult) error {
	switch v := result.Results.(type) {
	case []CLIFind:
		formatFindText(w, v)
	case enclosing.ValidationResult:
		formatValidationText(w, result.File, v)
	case nil:
	default:
		return fmt.Errorf("unsupported result type for text format: %T", v)
	}
	return nil
}

// formatFindText formats find results as aligned columns. Ranges with no
// enclosing construct show "-".
func formatFindText(w io.Writer, finds []CLIFind) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "LINES\tTYPE\tSTART\tEND")
	for _, f := range finds {
		lines := fmt.Sprintf("%d:%d", f.Lines.Start, f.Lines.End)
		if f.EnclosingContext == nil {
			fmt.Fprintf(tw, "%s\t-\t-\t-\n", lines)
			continue
		}
		ec := f.EnclosingContext
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\n", lines, ec.Kind, ec.StartLine, ec.EndLine)
	}
	tw.Flush()
}

// formatValidationText prints "file: valid" or "file: invalid: <message>".
func formatValidationText(w io.Writer, file string, res enclosing.ValidationResult) {
	if res.Valid {
		fmt.Fprintf(w, "%s: valid\n", file)
		return
	}
	fmt.Fprintf(w, "%s: invalid: %s\n", file, strings.TrimSpace(res.Error))
}
