// Package logging configures the slog based logging of the service. Loggers can
// be created at any time, they switch to the configured handler as soon as
// Init has run.
package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync/atomic"

	"github.com/samber/do/v2"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Config of the logging
type Config struct {
	Level      string         `yaml:"level"`
	Filename   string         `yaml:"filename"`
	MaxSize    int            `yaml:"maxsize"` // in MB
	MaxBackups int            `yaml:"maxbackups"`
	MaxAge     int            `yaml:"maxage"` // in days
	Compress   bool           `yaml:"compress"`
	Gelfurl    string         `yaml:"gelf-url"`
	Attrs      map[string]any `yaml:"attrs"`
}

var (
	current atomic.Pointer[slog.Handler]
	level   = new(slog.LevelVar)
	closers []io.Closer

	// Root logger of the service
	Root = slog.New(&switchHandler{})
)

func init() {
	var h slog.Handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	current.Store(&h)
}

// New creates a named logger
func New(name string) *slog.Logger {
	return Root.With("logger", name)
}

// Init configures the logging from the config in the injector
func Init(inj do.Injector) {
	cfg, err := do.Invoke[*Config](inj)
	if err != nil || cfg == nil {
		cfg = &Config{}
	}
	Configure(*cfg)
}

// Configure replaces the handlers of all loggers
func Configure(cfg Config) {
	level.Set(ParseLevel(cfg.Level))
	opts := &slog.HandlerOptions{Level: level}

	handlers := []slog.Handler{slog.NewTextHandler(os.Stdout, opts)}
	if cfg.Filename != "" {
		lj := &lumberjack.Logger{
			Filename:   cfg.Filename,
			MaxSize:    cfg.MaxSize,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAge,
			Compress:   cfg.Compress,
		}
		closers = append(closers, lj)
		handlers = append(handlers, slog.NewJSONHandler(lj, opts))
	}
	if cfg.Gelfurl != "" {
		gh, err := newGelfHandler(cfg.Gelfurl, cfg.Attrs, level)
		if err != nil {
			Root.Error("can't connect to gelf server", "url", cfg.Gelfurl, "error", err)
		} else {
			closers = append(closers, gh)
			handlers = append(handlers, gh)
		}
	}
	var h slog.Handler = handlers[0]
	if len(handlers) > 1 {
		h = multiHandler(handlers)
	}
	current.Store(&h)
}

// Close closes all log sinks
func Close() {
	for _, c := range closers {
		_ = c.Close()
	}
	closers = nil
}

// ParseLevel converts the config level, unknown levels are info
func ParseLevel(l string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(l)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

// switchHandler delegates to the currently configured handler
type switchHandler struct {
	attrs  []slog.Attr
	groups []string
}

func (s *switchHandler) handler() slog.Handler {
	h := *current.Load()
	if len(s.attrs) > 0 {
		h = h.WithAttrs(s.attrs)
	}
	for _, g := range s.groups {
		h = h.WithGroup(g)
	}
	return h
}

func (s *switchHandler) Enabled(ctx context.Context, l slog.Level) bool {
	return (*current.Load()).Enabled(ctx, l)
}

func (s *switchHandler) Handle(ctx context.Context, r slog.Record) error {
	return s.handler().Handle(ctx, r)
}

func (s *switchHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(s.groups) > 0 {
		// attributes after a group belong to it, resolve against the current handler
		return s.handler().WithAttrs(attrs)
	}
	return &switchHandler{attrs: append(append([]slog.Attr{}, s.attrs...), attrs...)}
}

func (s *switchHandler) WithGroup(name string) slog.Handler {
	return &switchHandler{attrs: s.attrs, groups: append(append([]string{}, s.groups...), name)}
}

type multiHandler []slog.Handler

func (m multiHandler) Enabled(ctx context.Context, l slog.Level) bool {
	for _, h := range m {
		if h.Enabled(ctx, l) {
			return true
		}
	}
	return false
}

func (m multiHandler) Handle(ctx context.Context, r slog.Record) error {
	var first error
	for _, h := range m {
		if !h.Enabled(ctx, r.Level) {
			continue
		}
		if err := h.Handle(ctx, r.Clone()); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func (m multiHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	hs := make(multiHandler, len(m))
	for i, h := range m {
		hs[i] = h.WithAttrs(attrs)
	}
	return hs
}

func (m multiHandler) WithGroup(name string) slog.Handler {
	hs := make(multiHandler, len(m))
	for i, h := range m {
		hs[i] = h.WithGroup(name)
	}
	return hs
}
