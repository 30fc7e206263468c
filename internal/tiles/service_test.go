package tiles

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/samber/do/v2"
	"github.com/stretchr/testify/assert"
	"github.com/willie68/go_vendortiles/internal/model"
	"github.com/willie68/go_vendortiles/internal/provider"
	"github.com/willie68/go_vendortiles/internal/tilecache"
	"github.com/willie68/go_vendortiles/internal/utils/measurement"
)

type upstream struct {
	srv     *httptest.Server
	count   atomic.Int32
	release chan struct{}
}

func newUpstream(t *testing.T) *upstream {
	u := &upstream{release: make(chan struct{})}
	close(u.release)
	u.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u.count.Add(1)
		<-u.release
		fmt.Fprintf(w, "tile %s", r.URL.Path)
	}))
	t.Cleanup(u.srv.Close)
	return u
}

func newService(t *testing.T, cm provider.ConfigMap) (*Service, tilecache.TileCache) {
	inj := do.New()
	do.ProvideValue(inj, cm)
	do.ProvideValue(inj, &tilecache.Config{Active: true, Path: t.TempDir()})
	do.ProvideValue(inj, measurement.New(true))
	assert.NoError(t, provider.Init(inj))
	assert.NoError(t, tilecache.Init(inj))
	Init(inj)
	tc := do.MustInvoke[tilecache.TileCache](inj)
	t.Cleanup(func() { tc.Close() })
	return do.MustInvoke[*Service](inj), tc
}

func readAll(t *testing.T, rd io.ReadCloser) string {
	defer rd.Close()
	data, err := io.ReadAll(rd)
	assert.NoError(t, err)
	return string(data)
}

func TestFTileCached(t *testing.T) {
	ast := assert.New(t)
	up := newUpstream(t)
	s, tc := newService(t, provider.ConfigMap{
		"osm": provider.Config{Type: "xyz", URL: up.srv.URL},
	})
	tile := model.Tile{Provider: "osm", Z: 2, X: 1, Y: 3}

	rd, err := s.FTile(context.Background(), tile)
	ast.NoError(err)
	ast.Equal("tile /2/1/3.png", readAll(t, rd))
	ast.Equal(int32(1), up.count.Load())

	ast.Eventually(func() bool { return tc.Has(tile) }, 2*time.Second, 10*time.Millisecond)

	rd, err = s.FTile(context.Background(), tile)
	ast.NoError(err)
	ast.Equal("tile /2/1/3.png", readAll(t, rd))
	ast.Equal(int32(1), up.count.Load())
}

func TestFTileNotCached(t *testing.T) {
	ast := assert.New(t)
	up := newUpstream(t)
	s, tc := newService(t, provider.ConfigMap{
		"osm": provider.Config{Type: "xyz", URL: up.srv.URL, NoCached: true},
	})
	tile := model.Tile{Provider: "osm", Z: 1, X: 1, Y: 1}

	for range 2 {
		rd, err := s.FTile(context.Background(), tile)
		ast.NoError(err)
		readAll(t, rd)
	}
	ast.Equal(int32(2), up.count.Load())
	ast.False(tc.Has(tile))
}

func TestFTileCollapsed(t *testing.T) {
	ast := assert.New(t)
	up := newUpstream(t)
	up.release = make(chan struct{})
	s, _ := newService(t, provider.ConfigMap{
		"osm": provider.Config{Type: "xyz", URL: up.srv.URL, NoCached: true},
	})
	tile := model.Tile{Provider: "osm", Z: 3, X: 2, Y: 1}

	var wg sync.WaitGroup
	for range 5 {
		wg.Go(func() {
			rd, err := s.FTile(context.Background(), tile)
			if ast.NoError(err) {
				ast.Equal("tile /3/2/1.png", readAll(t, rd))
			}
		})
	}
	ast.Eventually(func() bool { return up.count.Load() == 1 }, 2*time.Second, 5*time.Millisecond)
	time.Sleep(100 * time.Millisecond)
	close(up.release)
	wg.Wait()
	ast.Equal(int32(1), up.count.Load())
}

func TestUnknownProvider(t *testing.T) {
	ast := assert.New(t)
	s, _ := newService(t, provider.ConfigMap{})
	_, err := s.FTile(context.Background(), model.Tile{Provider: "mars"})
	ast.True(errors.Is(err, provider.ErrNotFound))
	_, err = s.TileURL(model.Tile{Provider: "mars"})
	ast.True(errors.Is(err, provider.ErrNotFound))
}

func TestTileURLAndMeta(t *testing.T) {
	ast := assert.New(t)
	s, _ := newService(t, provider.ConfigMap{
		"baidu": provider.Config{Type: "baidu", Retina: true, EmptyOnError: true},
	})
	u, err := s.TileURL(model.Tile{Provider: "baidu", Z: 10, X: 3, Y: 5})
	ast.NoError(err)
	ast.Equal("http://online1.map.bdimg.com/onlinelabel/?qt=tile&x=3&y=-6&z=10&styles=ph&udt=20150815&scaler=1", u)

	m, err := s.Meta("baidu")
	ast.NoError(err)
	ast.Equal(3, m.MinZoom)
	ast.Equal(18, m.MaxZoom)

	ast.True(s.EmptyOnError("baidu"))
	ast.False(s.EmptyOnError("mars"))
	ast.Equal([]string{"baidu"}, s.Providers())
}

func TestPrefetchTile(t *testing.T) {
	ast := assert.New(t)
	up := newUpstream(t)
	s, tc := newService(t, provider.ConfigMap{
		"local": provider.Config{Type: "xyz", URL: up.srv.URL},
	})
	tile := model.Tile{Provider: "local", Z: 1, X: 0, Y: 1}
	ast.NoError(s.Prefetch(context.Background(), tile))
	ast.True(tc.Has(tile))
	ast.NoError(s.Prefetch(context.Background(), tile))
	ast.Equal(int32(1), up.count.Load())
}
