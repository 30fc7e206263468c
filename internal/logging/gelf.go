package logging

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/aphistic/golf"
)

// gelfHandler sends the log records to a graylog server
type gelfHandler struct {
	client *golf.Client
	logger *golf.Logger
	level  slog.Leveler
	attrs  map[string]any
	prefix string
}

func newGelfHandler(url string, attrs map[string]any, level slog.Leveler) (*gelfHandler, error) {
	c, err := golf.NewClient()
	if err != nil {
		return nil, err
	}
	if err := c.Dial(url); err != nil {
		return nil, err
	}
	l, err := c.NewLogger()
	if err != nil {
		return nil, err
	}
	for k, v := range attrs {
		l.SetAttr(k, v)
	}
	return &gelfHandler{
		client: c,
		logger: l,
		level:  level,
		attrs:  make(map[string]any),
	}, nil
}

func (g *gelfHandler) Enabled(_ context.Context, l slog.Level) bool {
	return l >= g.level.Level()
}

func (g *gelfHandler) Handle(_ context.Context, r slog.Record) error {
	attrs := make(map[string]any, len(g.attrs)+r.NumAttrs())
	for k, v := range g.attrs {
		attrs[k] = v
	}
	r.Attrs(func(a slog.Attr) bool {
		attrs[g.prefix+a.Key] = a.Value.Resolve().Any()
		return true
	})
	switch {
	case r.Level >= slog.LevelError:
		return g.logger.Errm(attrs, "%s", r.Message)
	case r.Level >= slog.LevelWarn:
		return g.logger.Warnm(attrs, "%s", r.Message)
	case r.Level >= slog.LevelInfo:
		return g.logger.Infom(attrs, "%s", r.Message)
	}
	return g.logger.Dbgm(attrs, "%s", r.Message)
}

func (g *gelfHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	ng := g.clone()
	for _, a := range attrs {
		ng.attrs[g.prefix+a.Key] = a.Value.Resolve().Any()
	}
	return ng
}

func (g *gelfHandler) WithGroup(name string) slog.Handler {
	ng := g.clone()
	ng.prefix = fmt.Sprintf("%s%s_", g.prefix, strings.ReplaceAll(name, ".", "_"))
	return ng
}

func (g *gelfHandler) clone() *gelfHandler {
	attrs := make(map[string]any, len(g.attrs))
	for k, v := range g.attrs {
		attrs[k] = v
	}
	return &gelfHandler{
		client: g.client,
		logger: g.logger,
		level:  g.level,
		attrs:  attrs,
		prefix: g.prefix,
	}
}

func (g *gelfHandler) Close() error {
	return g.client.Close()
}
