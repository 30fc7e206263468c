package provider

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/i0tool5/mbtiles-go"
	"github.com/pkg/errors"
	"github.com/samber/do/v2"

	"github.com/willie68/go_vendortiles/internal/logging"
	"github.com/willie68/go_vendortiles/internal/mercantile"
	"github.com/willie68/go_vendortiles/internal/model"
	"github.com/willie68/go_vendortiles/internal/tilesource"
)

var _ MetaProvider = (*mbtilesProvider)(nil)

type metadata struct {
	Name        string
	Format      string
	Attribution string
	Maxzoom     int
	Minzoom     int
	BBox        *mercantile.Bbox
}

type mbtilesProvider struct {
	name string
	log  *slog.Logger
	db   *mbtiles.MBtiles
	fb   string
	meta metadata
	inj  do.Injector
}

func NewMBTilesProvider(name string, config Config, inj do.Injector) (*mbtilesProvider, error) {
	log := logging.New(fmt.Sprintf("mbtiles: %s", name))
	db, err := mbtiles.Open(config.Path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open mbtiles database %s", config.Path)
	}
	tf := db.GetTileFormat()
	log.Info(fmt.Sprintf("mbtiles format: %s", tf.String()))
	meta, err := db.ReadMetadata()
	if err != nil {
		log.Error(fmt.Sprintf("failed to read mbtiles metadata: %v", err))
	}
	mbt := &mbtilesProvider{
		name: name,
		log:  log,
		db:   db,
		fb:   config.Fallback,
		inj:  inj,
	}
	mbt.parseMetadata(meta)
	log.Info(fmt.Sprintf("mbtiles metadata: %+v", mbt.meta))
	return mbt, nil
}

func (s *mbtilesProvider) Tile(ctx context.Context, tile model.Tile) (io.ReadCloser, error) {
	var data []byte
	if tile.Z == 0 && s.fb != "" {
		return s.fallback(ctx, tile)
	}
	if tile.Z < s.meta.Minzoom || tile.Z > s.meta.Maxzoom {
		return nil, errors.Wrapf(ErrNoTile, "zoom level %d out of bounds (%d - %d)", tile.Z, s.meta.Minzoom, s.meta.Maxzoom)
	}
	if s.meta.BBox != nil {
		tbox := mercantile.ULBounds(mercantile.TileID{X: tile.X, Y: tile.Y, Z: tile.Z})
		if tbox.Left > s.meta.BBox.Right || tbox.Right < s.meta.BBox.Left || tbox.Top < s.meta.BBox.Bottom || tbox.Bottom > s.meta.BBox.Top {
			return nil, errors.Wrapf(ErrNoTile, "tile %d/%d/%d out of bounds", tile.Z, tile.X, tile.Y)
		}
	}
	// mbtiles rows count from the bottom
	y := (1 << tile.Z) - tile.Y - 1
	err := s.db.ReadTile(int64(tile.Z), int64(tile.X), int64(y), &data)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read tile")
	}
	if len(data) == 0 {
		return nil, errors.Wrapf(ErrNoTile, "tile %d/%d/%d is empty", tile.Z, tile.X, tile.Y)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (s *mbtilesProvider) Meta() tilesource.Meta {
	m := tilesource.Meta{
		MinZoom:     s.meta.Minzoom,
		MaxZoom:     s.meta.Maxzoom,
		Attribution: s.meta.Attribution,
		Bounds:      tilesource.WebMercator,
	}
	if bb := s.meta.BBox; bb != nil {
		m.Bounds = tilesource.Bounds{West: bb.Left, South: bb.Bottom, East: bb.Right, North: bb.Top}
	}
	return m
}

func (s *mbtilesProvider) fallback(ctx context.Context, tile model.Tile) (io.ReadCloser, error) {
	ts, err := do.InvokeNamed[Service](s.inj, s.fb)
	if err != nil {
		s.log.Error(fmt.Sprintf("System error: %v", err))
		return nil, err
	}
	return ts.Tile(ctx, tile)
}

func (s *mbtilesProvider) parseMetadata(meta map[string]any) {
	s.meta.Name, _ = meta["name"].(string)
	s.meta.Format, _ = meta["format"].(string)
	s.meta.Attribution, _ = meta["attribution"].(string)
	if maxzoom, ok := meta["maxzoom"].(int); ok {
		s.meta.Maxzoom = maxzoom
	}
	if minzoom, ok := meta["minzoom"].(int); ok {
		s.meta.Minzoom = minzoom
	}
	if bbox, ok := meta["bounds"].([]float64); ok {
		if len(bbox) == 4 {
			s.meta.BBox = &mercantile.Bbox{Left: bbox[0], Bottom: bbox[1], Right: bbox[2], Top: bbox[3]}
		}
	}
	if s.meta.Maxzoom == 0 {
		s.meta.Maxzoom = 22
	}
}
