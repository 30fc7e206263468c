package provider

import (
	"context"
	"io"
	"log/slog"

	"github.com/willie68/go_vendortiles/internal/model"
	"github.com/willie68/go_vendortiles/internal/tilesource"
)

var (
	_ Service      = (*urlProvider)(nil)
	_ URLResolver  = (*urlProvider)(nil)
	_ MetaProvider = (*urlProvider)(nil)
)

// urlProvider serves tms, xyz and baidu tiles, the tile source resolves the url
type urlProvider struct {
	name  string
	log   *slog.Logger
	src   tilesource.Source
	fetch *fetcher
}

func (s *urlProvider) Tile(ctx context.Context, tile model.Tile) (io.ReadCloser, error) {
	u := s.TileURL(tile)
	s.log.Debug("requesting tile", "url", u)
	return s.fetch.get(ctx, u)
}

func (s *urlProvider) TileURL(tile model.Tile) string {
	return s.src.TileURL(tile)
}

func (s *urlProvider) Meta() tilesource.Meta {
	if md, ok := s.src.(tilesource.Metadata); ok {
		return md.Meta()
	}
	return tilesource.Meta{MaxZoom: tilesource.DefaultMaxZoom, Bounds: tilesource.WebMercator}
}
