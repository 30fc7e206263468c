package api

import (
	"encoding/json"
	"fmt"
	"image/png"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/samber/do/v2"
	"github.com/stretchr/testify/assert"
	"github.com/willie68/go_vendortiles/internal/apiv1"
	"github.com/willie68/go_vendortiles/internal/mapservice"
	"github.com/willie68/go_vendortiles/internal/provider"
	"github.com/willie68/go_vendortiles/internal/tilecache"
	"github.com/willie68/go_vendortiles/internal/tiles"
	"github.com/willie68/go_vendortiles/internal/tilesource"
	"github.com/willie68/go_vendortiles/internal/utils/measurement"
)

func newRouter(t *testing.T) http.Handler {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/missing/1/0/0.png", "/maps/Gone.json":
			http.NotFound(w, r)
		case "/broken/1/0/0.png":
			http.Error(w, "forbidden", http.StatusForbidden)
		case "/maps/World.json":
			fmt.Fprint(w, `{"name":"World","prjCoordSys":{"epsgCode":3857}}`)
		case "/maps/World/tilesets.json":
			fmt.Fprint(w, `[{"name":"t1","metaData":{"tileFormat":"PNG"}}]`)
		default:
			w.Header().Set("Content-Type", "image/png")
			fmt.Fprintf(w, "tile %s", r.URL.Path)
		}
	}))
	t.Cleanup(upstream.Close)

	inj := do.New()
	do.ProvideValue(inj, provider.ConfigMap{
		"osm":     provider.Config{Type: "xyz", URL: upstream.URL},
		"baidu":   provider.Config{Type: "baidu"},
		"missing": provider.Config{Type: "xyz", URL: upstream.URL + "/missing"},
		"broken":  provider.Config{Type: "xyz", URL: upstream.URL + "/broken"},
		"empty":   provider.Config{Type: "xyz", URL: upstream.URL + "/missing", EmptyOnError: true},
		"tms":     provider.Config{Type: "tms", URL: "http://tms.example.org/{z}/{x}/{y}.png"},
	})
	do.ProvideValue(inj, &tilecache.Config{})
	do.ProvideValue(inj, measurement.New(false))
	do.ProvideValue(inj, mapservice.NewRegistry(mapservice.ConfigMap{
		"world": mapservice.Config{URL: upstream.URL + "/maps/World"},
		"gone":  mapservice.Config{URL: upstream.URL + "/maps/Gone"},
	}))
	assert.NoError(t, provider.Init(inj))
	assert.NoError(t, tilecache.Init(inj))
	tiles.Init(inj)

	router, err := APIRoutes(inj)
	assert.NoError(t, err)
	return router
}

func get(router http.Handler, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

const tileserver = apiv1.BaseURL + apiv1.TileserverPrefix

func TestGetTile(t *testing.T) {
	ast := assert.New(t)
	router := newRouter(t)

	rec := get(router, tileserver+"/osm/xyz/2/1/3.png")
	ast.Equal(http.StatusOK, rec.Code)
	ast.Equal("image/png", rec.Header().Get("Content-Type"))
	ast.Equal("tile /2/1/3.png", rec.Body.String())

	tt := []struct {
		path   string
		status int
	}{
		{"/osm/xyz/a/1/3.png", http.StatusBadRequest},
		{"/osm/xyz/2/1/4.png", http.StatusBadRequest},
		{"/osm/xyz/2/-1/0.png", http.StatusBadRequest},
		{"/mars/xyz/2/1/3.png", http.StatusNotFound},
		{"/missing/xyz/1/0/0.png", http.StatusNotFound},
		{"/broken/xyz/1/0/0.png", http.StatusInternalServerError},
	}
	for _, tc := range tt {
		rec := get(router, tileserver+tc.path)
		ast.Equal(tc.status, rec.Code, tc.path)
	}

	rec = get(router, tileserver+"/empty/xyz/1/0/0.png")
	ast.Equal(http.StatusOK, rec.Code)
	_, err := png.Decode(rec.Body)
	ast.NoError(err)
}

func TestGetTileURL(t *testing.T) {
	ast := assert.New(t)
	router := newRouter(t)

	rec := get(router, tileserver+"/baidu/url/10/3/5")
	ast.Equal(http.StatusOK, rec.Code)
	var ur apiv1.URLResponse
	ast.NoError(json.Unmarshal(rec.Body.Bytes(), &ur))
	ast.Equal("http://online1.map.bdimg.com/onlinelabel/?qt=tile&x=3&y=-6&z=10&styles=pl&udt=20150815&scaler=1", ur.URL)
	ast.Equal(5, ur.Y)

	// the resolver does not validate the coordinates
	rec = get(router, tileserver+"/baidu/url/-1/-3/99")
	ast.Equal(http.StatusOK, rec.Code)
	ast.NoError(json.Unmarshal(rec.Body.Bytes(), &ur))
	ast.Equal("http://online1.map.bdimg.com/onlinelabel/?qt=tile&x=-3&y=-100&z=-1&styles=pl&udt=20150815&scaler=1", ur.URL)

	ast.Equal(http.StatusNotFound, get(router, tileserver+"/mars/url/1/1/1").Code)
	ast.Equal(http.StatusBadRequest, get(router, tileserver+"/baidu/url/1/x/1").Code)
}

func TestGetTMSTileURL(t *testing.T) {
	ast := assert.New(t)
	router := newRouter(t)

	tt := []struct {
		path string
		exp  string
	}{
		{"/tms/url/2/1/0", "http://tms.example.org/2/1/3.png"},
		{"/tms/url/-1/0/0", "http://tms.example.org/-1/0/0.png"},
		{"/tms/url/-3/-2/5", "http://tms.example.org/-3/-2/5.png"},
		{"/tms/url/64/1/1", "http://tms.example.org/64/1/1.png"},
	}
	for _, tc := range tt {
		rec := get(router, tileserver+tc.path)
		ast.Equal(http.StatusOK, rec.Code, tc.path)
		var ur apiv1.URLResponse
		ast.NoError(json.Unmarshal(rec.Body.Bytes(), &ur))
		ast.Equal(tc.exp, ur.URL, tc.path)
	}
	// the tile endpoint validates before fetching
	ast.Equal(http.StatusBadRequest, get(router, tileserver+"/tms/xyz/-1/0/0.png").Code)
}

func TestGetTileJSON(t *testing.T) {
	ast := assert.New(t)
	router := newRouter(t)

	rec := get(router, tileserver+"/baidu/tilejson")
	ast.Equal(http.StatusOK, rec.Code)
	var tj tilesource.TileJSON
	ast.NoError(json.Unmarshal(rec.Body.Bytes(), &tj))
	ast.Equal("baidu", tj.Name)
	ast.Equal(3, tj.Minzoom)
	ast.Equal(19, tj.Maxzoom)
	ast.Equal([]string{"http://example.com/api/v1/tileserver/baidu/xyz/{z}/{x}/{y}.png"}, tj.Tiles)

	ast.Equal(http.StatusNotFound, get(router, tileserver+"/mars/tilejson").Code)
}

func TestGetProviders(t *testing.T) {
	ast := assert.New(t)
	router := newRouter(t)
	rec := get(router, tileserver+"/")
	ast.Equal(http.StatusOK, rec.Code)
	var names []string
	ast.NoError(json.Unmarshal(rec.Body.Bytes(), &names))
	ast.Equal([]string{"baidu", "broken", "empty", "missing", "osm", "tms"}, names)
}

func TestMapServices(t *testing.T) {
	ast := assert.New(t)
	router := newRouter(t)
	base := apiv1.BaseURL + apiv1.MapservicesPrefix

	rec := get(router, base+"/world/mapinfo")
	ast.Equal(http.StatusOK, rec.Code)
	var mi mapservice.MapInfo
	ast.NoError(json.Unmarshal(rec.Body.Bytes(), &mi))
	ast.Equal("World", mi.Name)
	ast.Equal(3857, mi.PrjCoordSys.EpsgCode)

	rec = get(router, base+"/world/tilesets")
	ast.Equal(http.StatusOK, rec.Code)
	var ts []mapservice.Tileset
	ast.NoError(json.Unmarshal(rec.Body.Bytes(), &ts))
	ast.Len(ts, 1)
	ast.Equal("PNG", ts[0].Metadata.TileFormat)

	ast.Equal(http.StatusNotFound, get(router, base+"/mars/mapinfo").Code)
	ast.Equal(http.StatusNotFound, get(router, base+"/gone/mapinfo").Code)
}

func TestMetricsRoute(t *testing.T) {
	router := newRouter(t)
	rec := get(router, apiv1.BaseURL+apiv1.MetricsPrefix+"/")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHealthRoutes(t *testing.T) {
	ast := assert.New(t)
	inj := do.New()
	router := HealthRoutes(inj)
	ast.Equal(http.StatusOK, get(router, "/livez").Code)
	ast.Equal(http.StatusServiceUnavailable, get(router, "/readyz").Code)
}
