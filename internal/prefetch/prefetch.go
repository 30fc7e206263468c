package prefetch

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/pkg/errors"
	"github.com/samber/do/v2"
	"github.com/schollz/progressbar/v3"
	"golang.org/x/sync/errgroup"

	"github.com/willie68/go_vendortiles/internal/logging"
	"github.com/willie68/go_vendortiles/internal/mercantile"
	"github.com/willie68/go_vendortiles/internal/model"
	"github.com/willie68/go_vendortiles/internal/tilecache"
	"github.com/willie68/go_vendortiles/internal/tiles"
	"github.com/willie68/go_vendortiles/internal/tilesource"
	"github.com/willie68/go_vendortiles/pkg/extstrgutils"
)

const defaultWorkers = 16 // Anzahl paralleler Worker

var (
	ErrCacheInactive = errors.New("prefetching needs an active tile cache")
)

// Options of a prefetch run
type Options struct {
	Providers string // csv of provider names
	MaxZoom   int
	Workers   int
	Progress  bool
}

type prefetcher struct {
	log   *slog.Logger
	tiles *tiles.Service
	cache tilecache.TileCache
	opts  Options
}

// Prefetch loads all tiles of the providers up to the max zoom into the cache.
// Tile errors are logged and skipped, only a cancelled context stops the run.
func Prefetch(ctx context.Context, inj do.Injector, opts Options) error {
	syss := extstrgutils.SplitMultiValueParam(opts.Providers)
	if len(syss) == 0 {
		return nil
	}
	if opts.Workers <= 0 {
		opts.Workers = defaultWorkers
	}
	p := &prefetcher{
		log:   logging.New("prefetch"),
		tiles: do.MustInvoke[*tiles.Service](inj),
		cache: do.MustInvoke[tilecache.TileCache](inj),
		opts:  opts,
	}
	if !p.cache.IsActive() {
		return ErrCacheInactive
	}
	for _, sys := range syss {
		if err := p.provider(ctx, sys); err != nil {
			return err
		}
	}
	return nil
}

func (p *prefetcher) provider(ctx context.Context, name string) error {
	if !p.tiles.HasProvider(name) {
		p.log.Error("unknown provider", "provider", name)
		return nil
	}
	if !p.tiles.IsCached(name) || !p.tiles.IsPrefetchable(name) {
		p.log.Warn("provider is not cached or not prefetchable", "provider", name)
		return nil
	}
	meta, err := p.tiles.Meta(name)
	if err != nil {
		return err
	}
	maxzoom := min(p.opts.MaxZoom, meta.MaxZoom)
	p.log.Info(fmt.Sprintf("prefetching %s zoom %d - %d", name, meta.MinZoom, maxzoom))

	var bar *progressbar.ProgressBar
	if p.opts.Progress {
		bar = progressbar.Default(Count(meta, maxzoom), name)
		defer bar.Finish()
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.opts.Workers)
	Tiles(name, meta, maxzoom, func(tile model.Tile) bool {
		if gctx.Err() != nil {
			return false
		}
		g.Go(func() error {
			if err := p.tiles.Prefetch(gctx, tile); err != nil {
				p.log.Error(fmt.Sprintf("error prefetching tile %s: %v", tile.String(), err))
			}
			if bar != nil {
				_ = bar.Add(1)
			}
			return nil
		})
		return true
	})
	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}

// Tiles calls fn for every tile of the layer between min zoom and max zoom, fn
// returns false to stop
func Tiles(name string, meta tilesource.Meta, maxzoom int, fn func(tile model.Tile) bool) {
	bb := bbox(meta)
	for z := max(meta.MinZoom, 0); z <= maxzoom; z++ {
		ul, lr := mercantile.TileRange(bb, z)
		for x := ul.X; x <= lr.X; x++ {
			for y := ul.Y; y <= lr.Y; y++ {
				if !fn(model.Tile{Provider: name, X: x, Y: y, Z: z}) {
					return
				}
			}
		}
	}
}

// Count number of tiles of the layer between min zoom and max zoom
func Count(meta tilesource.Meta, maxzoom int) int64 {
	bb := bbox(meta)
	var c int64
	for z := max(meta.MinZoom, 0); z <= maxzoom; z++ {
		ul, lr := mercantile.TileRange(bb, z)
		c += int64(lr.X-ul.X+1) * int64(lr.Y-ul.Y+1)
	}
	return c
}

func bbox(meta tilesource.Meta) mercantile.Bbox {
	b := meta.Bounds
	if b.IsZero() {
		b = tilesource.WebMercator
	}
	return mercantile.Bbox{Left: b.West, Bottom: b.South, Right: b.East, Top: b.North}
}
