package apiv1

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/pkg/errors"
	"github.com/samber/do/v2"
	"github.com/willie68/go_vendortiles/internal/assets"
	"github.com/willie68/go_vendortiles/internal/logging"
	"github.com/willie68/go_vendortiles/internal/model"
	"github.com/willie68/go_vendortiles/internal/provider"
	"github.com/willie68/go_vendortiles/internal/tiles"
	"github.com/willie68/go_vendortiles/internal/tilesource"
	"github.com/willie68/go_vendortiles/internal/utils/measurement"
	"github.com/willie68/go_vendortiles/pkg/fileutils"
)

type providerService interface {
	HasProvider(providerName string) bool
	FTile(ctx context.Context, tile model.Tile) (io.ReadCloser, error)
	TileURL(tile model.Tile) (string, error)
	Meta(providerName string) (tilesource.Meta, error)
	EmptyOnError(providerName string) bool
	Providers() []string
}

var _ providerService = (*tiles.Service)(nil)

type XYZHandler struct {
	log     *slog.Logger
	tiles   providerService
	metrics *measurement.Service
}

// URLResponse the resolved upstream url of a tile
type URLResponse struct {
	Provider string `json:"provider"`
	Z        int    `json:"z"`
	X        int    `json:"x"`
	Y        int    `json:"y"`
	URL      string `json:"url"`
}

func NewXYZHandler(inj do.Injector) *XYZHandler {
	return &XYZHandler{
		log:     logging.New("api"),
		tiles:   do.MustInvoke[*tiles.Service](inj),
		metrics: do.MustInvoke[*measurement.Service](inj),
	}
}

func (h *XYZHandler) Routes() (string, *chi.Mux) {
	router := chi.NewRouter()
	router.Get("/", h.GetProvidersHandler)
	router.Get("/{provider}/xyz/{z}/{x}/{y}.png", h.GetTileHandler)
	router.Get("/{provider}/url/{z}/{x}/{y}", h.GetTileURLHandler)
	router.Get("/{provider}/tilejson", h.GetTileJSONHandler)
	return TileserverPrefix, router
}

// GetTileHandler URL: /api/v1/tileserver/{provider}/xyz/{z}/{x}/{y}.png
func (h *XYZHandler) GetTileHandler(w http.ResponseWriter, r *http.Request) {
	td := h.metrics.Start("getTile")
	defer td.Stop()

	h.log.Debug(fmt.Sprintf("path: %s", r.URL.Path))
	tile, err := h.getRequestParameter(r)
	if err != nil {
		td.SetError()
		httpError(w, r, http.StatusBadRequest, "Path error: %s", err.Error())
		return
	}
	if !h.tiles.HasProvider(tile.Provider) {
		httpError(w, r, http.StatusNotFound, "unknown provider: %s", tile.Provider)
		return
	}
	if !tile.IsValid() {
		httpError(w, r, http.StatusBadRequest, "Path error: invalid tile coordinates")
		return
	}

	rd, err := h.tiles.FTile(r.Context(), tile)
	if err != nil {
		td.SetError()
		if h.tiles.EmptyOnError(tile.Provider) {
			h.log.Warn("serving empty tile", "tile", tile.Key(), "error", err)
			rd = assets.EmptyPNG()
		} else if errors.Is(err, provider.ErrNoTile) {
			httpError(w, r, http.StatusNotFound, "no tile: %s", tile.Key())
			return
		} else {
			httpError(w, r, http.StatusInternalServerError, "System error: %s", err.Error())
			return
		}
	}
	defer rd.Close()

	w.Header().Set("Content-Type", "image/png")
	if _, err := io.Copy(w, rd); err != nil {
		h.log.Error(fmt.Sprintf("error writing tile: %v", err))
	}
}

// GetTileURLHandler URL: /api/v1/tileserver/{provider}/url/{z}/{x}/{y}
// The coordinates are passed to the resolver as they are.
func (h *XYZHandler) GetTileURLHandler(w http.ResponseWriter, r *http.Request) {
	tile, err := h.getRequestParameter(r)
	if err != nil {
		httpError(w, r, http.StatusBadRequest, "Path error: %s", err.Error())
		return
	}
	u, err := h.tiles.TileURL(tile)
	switch {
	case errors.Is(err, provider.ErrNotFound):
		httpError(w, r, http.StatusNotFound, "unknown provider: %s", tile.Provider)
		return
	case errors.Is(err, tiles.ErrNoURL):
		httpError(w, r, http.StatusNotFound, "provider %s has no tile url", tile.Provider)
		return
	case err != nil:
		httpError(w, r, http.StatusInternalServerError, "System error: %s", err.Error())
		return
	}
	render.JSON(w, r, URLResponse{
		Provider: tile.Provider,
		Z:        tile.Z,
		X:        tile.X,
		Y:        tile.Y,
		URL:      u,
	})
}

// GetTileJSONHandler URL: /api/v1/tileserver/{provider}/tilejson
func (h *XYZHandler) GetTileJSONHandler(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "provider")
	meta, err := h.tiles.Meta(name)
	if errors.Is(err, provider.ErrNotFound) {
		httpError(w, r, http.StatusNotFound, "unknown provider: %s", name)
		return
	}
	if err != nil {
		httpError(w, r, http.StatusInternalServerError, "System error: %s", err.Error())
		return
	}
	tmpl := fmt.Sprintf("%s://%s%s%s/%s/xyz/{z}/{x}/{y}.png", scheme(r), r.Host, BaseURL, TileserverPrefix, name)
	render.JSON(w, r, tilesource.NewTileJSON(name, tmpl, meta))
}

// GetProvidersHandler URL: /api/v1/tileserver/
func (h *XYZHandler) GetProvidersHandler(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, h.tiles.Providers())
}

func (h *XYZHandler) getRequestParameter(r *http.Request) (tile model.Tile, err error) {
	tile.Provider = chi.URLParam(r, "provider")
	zs := chi.URLParam(r, "z")
	xs := chi.URLParam(r, "x")
	ys := chi.URLParam(r, "y")

	tile.Z, err = strconv.Atoi(zs)
	if err != nil {
		return tile, errors.New("error in zoom level")
	}
	tile.X, err = strconv.Atoi(xs)
	if err != nil {
		return tile, errors.New("error in x axis")
	}
	tile.Y, err = strconv.Atoi(fileutils.FileNameWithoutExtension(ys))
	if err != nil {
		return tile, errors.New("error in y axis")
	}
	return tile, nil
}

func scheme(r *http.Request) string {
	if p := r.Header.Get("X-Forwarded-Proto"); p != "" {
		return p
	}
	if r.TLS != nil {
		return "https"
	}
	return "http"
}
