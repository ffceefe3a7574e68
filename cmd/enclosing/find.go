package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/RohanNethala/enclosing"
)

var (
	flagLines     []string
	flagStrategy  string
	flagKinds     string
	flagCompound  bool
	flagWhere     string
	flagWhereFile string
)

var findCmd = &cobra.Command{
	Use:   "find <file>",
	Short: "Report the construct enclosing each line range",
	Long:  "Parses the file once per range and prints the construct whose line span contains it. Line numbers are 1-based and inclusive.",
	Args:  cobra.ExactArgs(1),
	RunE:  runFind,
}

func init() {
	findCmd.Flags().StringArrayVar(&flagLines, "lines", nil, "line range START[:END], repeatable")
	findCmd.Flags().StringVar(&flagStrategy, "strategy", "widest", "pick the widest or narrowest enclosing node")
	findCmd.Flags().StringVar(&flagKinds, "kinds", "", "comma-separated node kinds eligible as context")
	findCmd.Flags().BoolVar(&flagCompound, "compound", false, "only definitions and compound statements are eligible")
	findCmd.Flags().StringVar(&flagWhere, "where", "", "Risor predicate over kind, start_line, end_line")
	findCmd.Flags().StringVar(&flagWhereFile, "where-file", "", "read the Risor predicate from a file")
	_ = findCmd.MarkFlagRequired("lines")
}

func runFind(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	file := args[0]

	ranges, err := parseLineRanges(flagLines)
	if err != nil {
		return outputError(cmd, "find", err)
	}
	src, err := os.ReadFile(file)
	if err != nil {
		return outputError(cmd, "find", fmt.Errorf("reading %s: %w", file, err))
	}

	logger := cfg.Logger(cmd.ErrOrStderr())
	if _, ok := enclosing.LanguageForFile(file); !ok {
		logger.Warn("file does not have a Python extension", slog.String("file", file))
	}

	opts, err := findOptions(ctx)
	if err != nil {
		return outputError(cmd, "find", err)
	}
	parser, err := newParser(logger, opts...)
	if err != nil {
		return outputError(cmd, "find", err)
	}

	// Each range is an independent query; run them concurrently and keep
	// argument order in the output.
	results := make([]CLIFind, len(ranges))
	g, gctx := errgroup.WithContext(ctx)
	for i, r := range ranges {
		g.Go(func() error {
			qctx, cancel := queryContext(gctx)
			defer cancel()
			results[i] = CLIFind{
				Lines:            r,
				EnclosingContext: parser.FindEnclosingContext(qctx, string(src), r),
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return outputError(cmd, "find", err)
	}

	return outputResult(cmd.OutOrStdout(), CLIResult{
		Command: "find",
		File:    file,
		Backend: parser.Backend().Name(),
		Results: results,
	})
}

// findOptions builds the selection options from flags and config.
func findOptions(ctx context.Context) ([]enclosing.Option, error) {
	strategy, err := enclosing.ParseStrategy(cfg.Strategy)
	if err != nil {
		return nil, err
	}
	opts := []enclosing.Option{enclosing.WithStrategy(strategy)}

	var kinds []string
	if flagCompound {
		kinds = append(kinds, enclosing.CompoundKinds()...)
	}
	for _, k := range strings.Split(flagKinds, ",") {
		if k = strings.TrimSpace(k); k != "" {
			kinds = append(kinds, k)
		}
	}
	if len(kinds) > 0 {
		opts = append(opts, enclosing.WithKinds(kinds...))
	}

	if flagWhere != "" && flagWhereFile != "" {
		return nil, fmt.Errorf("--where and --where-file are mutually exclusive")
	}
	var pred *enclosing.Predicate
	switch {
	case flagWhere != "":
		pred, err = enclosing.NewPredicate(ctx, flagWhere)
	case flagWhereFile != "":
		pred, err = enclosing.LoadPredicate(ctx, flagWhereFile)
	}
	if err != nil {
		return nil, err
	}
	if pred != nil {
		opts = append(opts, enclosing.WithPredicate(pred))
	}
	return opts, nil
}

// parseLineRanges parses "START" or "START:END" values.
func parseLineRanges(values []string) ([]enclosing.LineRange, error) {
	if len(values) == 0 {
		return nil, fmt.Errorf("at least one --lines range is required")
	}
	ranges := make([]enclosing.LineRange, 0, len(values))
	for _, v := range values {
		r, err := parseLineRange(v)
		if err != nil {
			return nil, err
		}
		ranges = append(ranges, r)
	}
	return ranges, nil
}

func parseLineRange(value string) (enclosing.LineRange, error) {
	startStr, endStr, hasEnd := strings.Cut(strings.TrimSpace(value), ":")
	start, err := strconv.Atoi(startStr)
	if err != nil {
		return enclosing.LineRange{}, fmt.Errorf("invalid --lines %q: start must be an integer", value)
	}
	end := start
	if hasEnd {
		end, err = strconv.Atoi(endStr)
		if err != nil {
			return enclosing.LineRange{}, fmt.Errorf("invalid --lines %q: end must be an integer", value)
		}
	}
	if start < 1 || end < 1 {
		return enclosing.LineRange{}, fmt.Errorf("invalid --lines %q: lines are 1-based", value)
	}
	return enclosing.LineRange{Start: start, End: end}, nil
}
