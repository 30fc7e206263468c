package provider

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/url"

	"github.com/pkg/errors"
	"github.com/willie68/go_vendortiles/internal/mercantile"
	"github.com/willie68/go_vendortiles/internal/model"
	"github.com/willie68/go_vendortiles/internal/tilesource"
)

var (
	_ URLResolver  = (*wmsProvider)(nil)
	_ MetaProvider = (*wmsProvider)(nil)
)

type wmsProvider struct {
	name   string
	log    *slog.Logger
	config Config
	fetch  *fetcher
}

func (s *wmsProvider) Tile(ctx context.Context, tile model.Tile) (io.ReadCloser, error) {
	wmsURL, err := s.buildWMSUrl(s.tileToBBox(tile))
	if err != nil {
		return nil, err
	}
	s.log.Debug(fmt.Sprintf("Requesting WMS tile from %s", wmsURL))
	return s.fetch.get(ctx, wmsURL)
}

func (s *wmsProvider) TileURL(tile model.Tile) string {
	wmsURL, err := s.buildWMSUrl(s.tileToBBox(tile))
	if err != nil {
		return ""
	}
	return tilesource.WithProxy(s.config.TileProxy, wmsURL)
}

func (s *wmsProvider) Meta() tilesource.Meta {
	m := tilesource.Meta{
		MaxZoom:     s.config.MaxZoom,
		Bounds:      s.config.Bounds,
		Attribution: s.config.Attribution,
	}
	if s.config.MinZoom != nil {
		m.MinZoom = *s.config.MinZoom
	}
	if m.MaxZoom == 0 {
		m.MaxZoom = tilesource.DefaultMaxZoom
	}
	if m.Bounds.IsZero() {
		m.Bounds = tilesource.WebMercator
	}
	return m
}

func (s *wmsProvider) buildWMSUrl(bb mercantile.Bbox) (string, error) {
	base, err := url.Parse(s.config.URL)
	if err != nil {
		return "", errors.Wrap(err, "invalid wms url")
	}

	params := url.Values{}
	params.Add("service", "WMS")
	params.Add("request", "GetMap")
	params.Add("layers", s.config.Layers)
	params.Add("format", s.config.Format)
	params.Add("bbox", fmt.Sprintf("%.9f,%.9f,%.9f,%.9f", bb.Left, bb.Bottom, bb.Right, bb.Top))
	params.Add("width", "256")
	params.Add("height", "256")
	params.Add("srs", "EPSG:3857")
	params.Add("crs", "EPSG:3857")
	params.Add("transparent", "true")
	if s.config.Version != "" {
		params.Add("version", s.config.Version)
	} else {
		params.Add("version", "1.3.0")
	}
	params.Add("styles", s.config.Styles)

	base.RawQuery = params.Encode()
	return base.String(), nil
}

func (s *wmsProvider) tileToBBox(tile model.Tile) mercantile.Bbox {
	return mercantile.XyBounds(mercantile.TileID{X: tile.X, Y: tile.Y, Z: tile.Z})
}
