package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
)

// levelRouter sends records at or above split to errs and the rest to out.
// Records below min are dropped before either handler sees them.
type levelRouter struct {
	min   slog.Level
	split slog.Level
	out   slog.Handler
	errs  slog.Handler
}

func (h *levelRouter) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.min
}

func (h *levelRouter) Handle(ctx context.Context, r slog.Record) error {
	target := h.out
	if r.Level >= h.split {
		target = h.errs
	}
	return target.Handle(ctx, r)
}

func (h *levelRouter) derive(fn func(slog.Handler) slog.Handler) *levelRouter {
	return &levelRouter{min: h.min, split: h.split, out: fn(h.out), errs: fn(h.errs)}
}

func (h *levelRouter) WithAttrs(attrs []slog.Attr) slog.Handler {
	return h.derive(func(s slog.Handler) slog.Handler { return s.WithAttrs(attrs) })
}

func (h *levelRouter) WithGroup(name string) slog.Handler {
	return h.derive(func(s slog.Handler) slog.Handler { return s.WithGroup(name) })
}

// parseLevel accepts slog level names ("debug", "warn", "error+2"); empty
// means info.
func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if s == "" {
		return slog.LevelInfo, nil
	}
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("parsing log level: %w", err)
	}
	return level, nil
}

// newLogger builds the process logger for command. Records below ERROR go to
// stdout, ERROR and above to stderr, and everything is also appended to
// logPath when set. The returned cleanup is never nil.
func newLogger(stdout, stderr io.Writer, logPath, level, command string) (*slog.Logger, func(), error) {
	threshold, err := parseLevel(level)
	if err != nil {
		return nil, nil, err
	}

	cleanup := func() {}
	if logPath != "" {
		f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("opening log file: %w", err)
		}
		cleanup = func() { f.Close() }
		stdout = io.MultiWriter(stdout, f)
		stderr = io.MultiWriter(stderr, f)
	}

	opts := &slog.HandlerOptions{Level: threshold}
	var handler slog.Handler = &levelRouter{
		min:   threshold,
		split: slog.LevelError,
		out:   slog.NewTextHandler(stdout, opts),
		errs:  slog.NewTextHandler(stderr, opts),
	}
	if command != "" {
		handler = handler.WithAttrs([]slog.Attr{slog.String("cmd", command)})
	}
	return slog.New(handler), cleanup, nil
}
