package tiles

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/pkg/errors"
	"github.com/samber/do/v2"
	"golang.org/x/sync/singleflight"

	"github.com/willie68/go_vendortiles/internal/logging"
	"github.com/willie68/go_vendortiles/internal/model"
	"github.com/willie68/go_vendortiles/internal/provider"
	"github.com/willie68/go_vendortiles/internal/tilecache"
	"github.com/willie68/go_vendortiles/internal/tilesource"
	"github.com/willie68/go_vendortiles/internal/utils/measurement"
)

var (
	// ErrNoURL the provider does not fetch its tiles from a tile url
	ErrNoURL = errors.New("provider has no tile url")
)

type providerFactory interface {
	HasProvider(providerName string) bool
	IsCached(providerName string) bool
	IsPrefetchable(providerName string) bool
	Names() []string
	Config(providerName string) (provider.Config, bool)
}

// Service is the tile service: cache first, then the provider
type Service struct {
	inj     do.Injector
	log     *slog.Logger
	cache   tilecache.TileCache
	tssf    providerFactory
	metrics *measurement.Service
	group   singleflight.Group
}

func Init(inj do.Injector) {
	do.ProvideValue(inj, New(inj))
}

func New(inj do.Injector) *Service {
	return &Service{
		inj:     inj,
		log:     logging.New("tiles"),
		cache:   do.MustInvoke[tilecache.TileCache](inj),
		tssf:    do.MustInvokeAs[providerFactory](inj),
		metrics: do.MustInvoke[*measurement.Service](inj),
	}
}

// FTile returns the tile, from the cache if present, otherwise from the provider
func (s *Service) FTile(ctx context.Context, tile model.Tile) (io.ReadCloser, error) {
	if !s.HasProvider(tile.Provider) {
		return nil, provider.ErrNotFound
	}

	cached := s.IsCached(tile.Provider) && s.cache.IsActive()
	if cached {
		td := s.metrics.Start("getTileFromCache")
		if tr, ok := s.cache.Tile(tile); ok {
			td.Stop()
			s.log.Debug(fmt.Sprintf("tile found in cache: %s", tile.String()))
			return tr, nil
		}
		td.Stop()
	}

	// concurrent requests of the same tile share one upstream request, so it
	// must not die with the first requester
	v, err, _ := s.group.Do(tile.Key(), func() (any, error) {
		return s.load(context.WithoutCancel(ctx), tile, cached)
	})
	if err != nil {
		return nil, err
	}
	return io.NopCloser(bytes.NewReader(v.([]byte))), nil
}

func (s *Service) load(ctx context.Context, tile model.Tile, cached bool) ([]byte, error) {
	ts, err := s.provider(tile.Provider)
	if err != nil {
		return nil, err
	}

	td := s.metrics.Start("getTileFromProvider")
	tsd := s.metrics.Start(fmt.Sprintf("getTileFromProvider:%s", tile.Provider))
	defer td.Stop()
	defer tsd.Stop()
	rd, err := ts.Tile(ctx, tile)
	if err != nil {
		tsd.SetError()
		s.log.Error(fmt.Sprintf("error getting tile from provider: %v", err))
		return nil, err
	}
	defer rd.Close()

	data, err := io.ReadAll(rd)
	if err != nil {
		tsd.SetError()
		return nil, errors.Wrap(err, "error reading tile data")
	}
	if cached {
		go func() {
			td := s.metrics.Start("saveTileToCache")
			defer td.Stop()
			if err := s.cache.Save(tile, bytes.NewReader(data)); err != nil {
				td.SetError()
				s.log.Error(fmt.Sprintf("error saving tile to cache: %v", err))
			}
		}()
	}
	return data, nil
}

// Prefetch loads the tile into the cache, if not already present
func (s *Service) Prefetch(ctx context.Context, tile model.Tile) error {
	if s.cache.Has(tile) {
		return nil
	}
	ts, err := s.provider(tile.Provider)
	if err != nil {
		return err
	}
	rd, err := ts.Tile(ctx, tile)
	if err != nil {
		return err
	}
	defer rd.Close()
	return s.cache.Save(tile, rd)
}

// TileURL returns the upstream url of the tile. The coordinates are not validated.
func (s *Service) TileURL(tile model.Tile) (string, error) {
	ts, err := s.provider(tile.Provider)
	if err != nil {
		return "", err
	}
	ur, ok := ts.(provider.URLResolver)
	if !ok {
		return "", ErrNoURL
	}
	return ur.TileURL(tile), nil
}

// Meta returns the layer description of the provider
func (s *Service) Meta(providerName string) (tilesource.Meta, error) {
	ts, err := s.provider(providerName)
	if err != nil {
		return tilesource.Meta{}, err
	}
	if mp, ok := ts.(provider.MetaProvider); ok {
		return mp.Meta(), nil
	}
	return tilesource.Meta{MaxZoom: tilesource.DefaultMaxZoom, Bounds: tilesource.WebMercator}, nil
}

// EmptyOnError true if the provider answers failing tiles with an empty tile
func (s *Service) EmptyOnError(providerName string) bool {
	cfg, ok := s.tssf.Config(providerName)
	return ok && cfg.EmptyOnError
}

func (s *Service) provider(providerName string) (provider.Service, error) {
	if !s.HasProvider(providerName) {
		return nil, provider.ErrNotFound
	}
	ts, err := do.InvokeNamed[provider.Service](s.inj, providerName)
	if err != nil {
		s.log.Error(fmt.Sprintf("System error: %v", err))
		return nil, err
	}
	return ts, nil
}

func (s *Service) HasProvider(providerName string) bool {
	return s.tssf.HasProvider(providerName)
}

func (s *Service) IsCached(providerName string) bool {
	return s.tssf.IsCached(providerName)
}

func (s *Service) IsPrefetchable(providerName string) bool {
	return s.tssf.IsPrefetchable(providerName)
}

// Providers names of all providers
func (s *Service) Providers() []string {
	return s.tssf.Names()
}
