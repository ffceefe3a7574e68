package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/RohanNethala/enclosing/internal/config"
)

var (
	flagConfig   string
	flagBackend  string
	flagPython   string
	flagFormat   string
	flagTimeout  string
	flagLogLevel string
)

// cfg is loaded in PersistentPreRunE, before any subcommand runs.
var cfg *config.Config

// errorHandled is set by outputError so main() doesn't double-print.
var errorHandled bool

func main() {
	if err := rootCmd.Execute(); err != nil {
		if !errorHandled {
			fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		}
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:               "enclosing",
	Short:             "Find the Python construct enclosing a line range",
	Long:              "Parses a Python file and reports the function, class or block that contains a line range, or checks that the file parses.",
	SilenceErrors:     true,
	SilenceUsage:      true,
	PersistentPreRunE: loadConfig,
	// No Run: prints help by default.
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flagConfig, "config", "", "config file (default: ./.enclosing.yaml)")
	pf.StringVar(&flagBackend, "backend", "python", "parse backend: python (CPython ast) or treesitter (faster, lenient)")
	pf.StringVar(&flagPython, "python", "python3", "interpreter for the python backend")
	pf.StringVar(&flagFormat, "format", "json", "output format: json|text")
	pf.StringVar(&flagTimeout, "timeout", "30s", "per-query timeout, 0 disables")
	pf.StringVar(&flagLogLevel, "log-level", "warn", "log level: debug|info|warn|error")

	rootCmd.AddCommand(findCmd)
	rootCmd.AddCommand(validateCmd)
}

// flagKeys maps config keys to the flags that override them.
var flagKeys = map[string]string{
	"backend":   "backend",
	"python":    "python",
	"format":    "format",
	"timeout":   "timeout",
	"log.level": "log-level",
	"strategy":  "strategy",
}

func loadConfig(cmd *cobra.Command, args []string) error {
	v := config.NewViper(flagConfig)
	for key, name := range flagKeys {
		f := cmd.Flags().Lookup(name)
		if f == nil {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return fmt.Errorf("binding --%s: %w", name, err)
		}
	}

	loaded, err := config.Load(v)
	if err != nil {
		return err
	}
	cfg = loaded
	return nil
}
