package provider

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/samber/do/v2"
	"github.com/stretchr/testify/assert"
	"github.com/willie68/go_vendortiles/internal/model"
)

func newUpstream(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}

func initFactory(t *testing.T, cm ConfigMap) do.Injector {
	inj := do.New()
	do.ProvideValue(inj, cm)
	assert.NoError(t, Init(inj))
	return inj
}

func TestBaiduProvider(t *testing.T) {
	ast := assert.New(t)
	var query atomic.Value
	srv := newUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		query.Store(r.URL.RawQuery)
		ast.Equal("https://map.baidu.com/", r.Header.Get("Referer"))
		w.Header().Set("Content-Type", "image/png")
		fmt.Fprint(w, "png")
	})

	inj := initFactory(t, ConfigMap{
		"baidu": Config{
			Type:    "baidu",
			URL:     srv.URL + "/tile?num={num}&x={x}&y={y}&z={z}&styles={styles}",
			Headers: map[string]string{"Referer": "https://map.baidu.com/"},
		},
	})
	ts := do.MustInvokeNamed[Service](inj, "baidu")
	rd, err := ts.Tile(context.Background(), model.Tile{Provider: "baidu", X: 3, Y: 5, Z: 10})
	ast.NoError(err)
	defer rd.Close()
	data, err := io.ReadAll(rd)
	ast.NoError(err)
	ast.Equal("png", string(data))
	ast.Equal("num=1&x=3&y=-6&z=10&styles=pl", query.Load())

	ur, ok := ts.(URLResolver)
	ast.True(ok)
	ast.Equal(srv.URL+"/tile?num=1&x=3&y=-6&z=10&styles=pl", ur.TileURL(model.Tile{X: 3, Y: 5, Z: 10}))

	mp, ok := ts.(MetaProvider)
	ast.True(ok)
	ast.Equal(3, mp.Meta().MinZoom)
}

func TestRetryOnServerError(t *testing.T) {
	ast := assert.New(t)
	var count atomic.Int32
	srv := newUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		if count.Add(1) < 3 {
			http.Error(w, "busy", http.StatusServiceUnavailable)
			return
		}
		fmt.Fprint(w, "ok")
	})

	f := newFetcher(Config{Retries: 2})
	f.backoff = time.Millisecond
	rd, err := f.get(context.Background(), srv.URL)
	ast.NoError(err)
	rd.Close()
	ast.Equal(int32(3), count.Load())

	// first attempt plus two retries, then give up
	count.Store(-10)
	_, err = f.get(context.Background(), srv.URL)
	ast.Error(err)
	ast.Equal(int32(-7), count.Load())
}

func TestNoBackoffAfterLastAttempt(t *testing.T) {
	ast := assert.New(t)
	var count atomic.Int32
	srv := newUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		count.Add(1)
		http.Error(w, "down", http.StatusBadGateway)
	})

	f := newFetcher(Config{Retries: 1})
	f.backoff = 300 * time.Millisecond
	start := time.Now()
	_, err := f.get(context.Background(), srv.URL)
	ast.Error(err)
	ast.Equal(int32(2), count.Load())
	// one backoff between the two attempts, none after the last one
	ast.Less(time.Since(start), 800*time.Millisecond)
	ast.GreaterOrEqual(time.Since(start), 300*time.Millisecond)
}

func TestDefaultRetries(t *testing.T) {
	ast := assert.New(t)
	ast.Equal(defaultRetries, newFetcher(Config{}).retries)
	ast.Equal(5, newFetcher(Config{Retries: 5}).retries)
}

func TestNotFound(t *testing.T) {
	ast := assert.New(t)
	var count atomic.Int32
	srv := newUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		count.Add(1)
		http.NotFound(w, r)
	})

	f := newFetcher(Config{})
	_, err := f.get(context.Background(), srv.URL)
	ast.True(errors.Is(err, ErrNoTile))
	ast.Equal(int32(1), count.Load())
}

func TestXYZProvider(t *testing.T) {
	ast := assert.New(t)
	var path atomic.Value
	srv := newUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		path.Store(r.URL.Path)
		fmt.Fprint(w, "png")
	})

	inj := initFactory(t, ConfigMap{
		"osm": Config{Type: "xyz", URL: srv.URL},
		"tms": Config{Type: "tms", URL: srv.URL + "/tms/{z}/{x}/{y}.png"},
	})
	ts := do.MustInvokeNamed[Service](inj, "osm")
	rd, err := ts.Tile(context.Background(), model.Tile{X: 1, Y: 2, Z: 3})
	ast.NoError(err)
	rd.Close()
	ast.Equal("/3/1/2.png", path.Load())

	ts = do.MustInvokeNamed[Service](inj, "tms")
	rd, err = ts.Tile(context.Background(), model.Tile{X: 1, Y: 2, Z: 3})
	ast.NoError(err)
	rd.Close()
	ast.Equal("/tms/3/1/5.png", path.Load())
}

func TestWMSProvider(t *testing.T) {
	ast := assert.New(t)
	srv := newUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		ast.Equal("GetMap", q.Get("request"))
		ast.Equal("gebco", q.Get("layers"))
		ast.Equal("EPSG:3857", q.Get("srs"))
		ast.Equal("1.1.1", q.Get("version"))
		ast.NotEmpty(q.Get("bbox"))
		fmt.Fprint(w, "png")
	})
	inj := initFactory(t, ConfigMap{
		"gebco": Config{Type: "wms", URL: srv.URL + "/wms", Layers: "gebco", Format: "image/png", Version: "1.1.1"},
	})
	ts := do.MustInvokeNamed[Service](inj, "gebco")
	rd, err := ts.Tile(context.Background(), model.Tile{X: 0, Y: 0, Z: 0})
	ast.NoError(err)
	rd.Close()
}

func TestFactory(t *testing.T) {
	ast := assert.New(t)
	inj := initFactory(t, ConfigMap{
		"osm":   Config{Type: "xyz", URL: "https://tile.openstreetmap.org/{z}/{x}/{y}.png"},
		"baidu": Config{Type: "baidu", NoCached: true},
		"local": Config{Type: "xyz", URL: "http://localhost:8000", NoPrefetch: false},
		"nopf":  Config{Type: "xyz", URL: "http://localhost:8000", NoPrefetch: true},
	})
	f := do.MustInvoke[*pFactory](inj)
	ast.True(f.HasProvider("osm"))
	ast.False(f.HasProvider("unknown"))
	ast.Equal([]string{"baidu", "local", "nopf", "osm"}, f.Names())

	ast.True(f.IsCached("osm"))
	ast.False(f.IsCached("baidu"))
	ast.False(f.IsCached("unknown"))

	ast.False(f.IsPrefetchable("osm"))
	ast.False(f.IsPrefetchable("baidu"))
	ast.True(f.IsPrefetchable("local"))
	ast.False(f.IsPrefetchable("nopf"))
	ast.False(f.IsPrefetchable("unknown"))

	cfg, ok := f.Config("baidu")
	ast.True(ok)
	ast.Equal("baidu", cfg.Type)
}

func TestUnknownType(t *testing.T) {
	inj := do.New()
	do.ProvideValue(inj, ConfigMap{"x": Config{Type: "ftp"}})
	err := Init(inj)
	assert.Error(t, err)
}
