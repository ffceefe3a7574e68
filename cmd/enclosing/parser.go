package main

import (
	"context"
	"log/slog"

	"github.com/RohanNethala/enclosing"
)

// newParser builds a PythonParser from the loaded config.
func newParser(logger *slog.Logger, opts ...enclosing.Option) (*enclosing.PythonParser, error) {
	backend, err := enclosing.NewBackend(cfg.Backend, cfg.Python)
	if err != nil {
		return nil, err
	}
	logger.Debug("using backend", slog.String("backend", backend.Name()))

	all := append([]enclosing.Option{
		enclosing.WithBackend(backend),
		enclosing.WithLogger(logger),
	}, opts...)
	return enclosing.NewPythonParser(all...), nil
}

// queryContext bounds one query by the configured timeout.
func queryContext(parent context.Context) (context.Context, context.CancelFunc) {
	if cfg.Timeout <= 0 {
		return context.WithCancel(parent)
	}
	return context.WithTimeout(parent, cfg.Timeout)
}
