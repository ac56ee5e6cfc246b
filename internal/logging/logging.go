// Package logging sets up the slog logger used by the commands.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	slogctx "github.com/veqryn/slog-context"
)

// New returns a logger writing to w at level in format ("text" or "json").
// Attributes added to a context with slogctx.Prepend or slogctx.Append are
// included in records logged with that context.
func New(w io.Writer, level, format string) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("log level %q: %w", level, err)
	}

	opts := &slog.HandlerOptions{Level: lvl}

	var handler slog.Handler
	switch strings.ToLower(format) {
	case "", "text":
		handler = slog.NewTextHandler(w, opts)
	case "json":
		handler = slog.NewJSONHandler(w, opts)
	default:
		return nil, fmt.Errorf("unknown log format %q", format)
	}

	return slog.New(slogctx.NewHandler(handler, nil)), nil
}

// Init is New followed by slog.SetDefault.
func Init(w io.Writer, level, format string) error {
	logger, err := New(w, level, format)
	if err != nil {
		return err
	}

	slog.SetDefault(logger)
	return nil
}
