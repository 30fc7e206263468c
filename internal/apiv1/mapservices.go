package apiv1

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/pkg/errors"
	"github.com/samber/do/v2"
	"github.com/willie68/go_vendortiles/internal/mapservice"
)

// MapServiceHandler passes map service requests through to the map server
type MapServiceHandler struct {
	services *mapservice.Registry
}

func NewMapServiceHandler(inj do.Injector) *MapServiceHandler {
	return &MapServiceHandler{
		services: do.MustInvoke[*mapservice.Registry](inj),
	}
}

func (h *MapServiceHandler) Routes() (string, *chi.Mux) {
	router := chi.NewRouter()
	router.Get("/", h.GetMapServicesHandler)
	router.Get("/{name}/mapinfo", h.GetMapInfoHandler)
	router.Get("/{name}/tilesets", h.GetTilesetsHandler)
	return MapservicesPrefix, router
}

// GetMapServicesHandler URL: /api/v1/mapservices/
func (h *MapServiceHandler) GetMapServicesHandler(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, h.services.Names())
}

// GetMapInfoHandler URL: /api/v1/mapservices/{name}/mapinfo
func (h *MapServiceHandler) GetMapInfoHandler(w http.ResponseWriter, r *http.Request) {
	c, ok := h.client(w, r)
	if !ok {
		return
	}
	mi, err := c.MapInfo(r.Context())
	if err != nil {
		upstreamError(w, r, err)
		return
	}
	render.JSON(w, r, mi)
}

// GetTilesetsHandler URL: /api/v1/mapservices/{name}/tilesets
func (h *MapServiceHandler) GetTilesetsHandler(w http.ResponseWriter, r *http.Request) {
	c, ok := h.client(w, r)
	if !ok {
		return
	}
	ts, err := c.Tilesets(r.Context())
	if err != nil {
		upstreamError(w, r, err)
		return
	}
	render.JSON(w, r, ts)
}

func (h *MapServiceHandler) client(w http.ResponseWriter, r *http.Request) (*mapservice.Client, bool) {
	name := chi.URLParam(r, "name")
	c, ok := h.services.Client(name)
	if !ok {
		httpError(w, r, http.StatusNotFound, "unknown map service: %s", name)
	}
	return c, ok
}

func upstreamError(w http.ResponseWriter, r *http.Request, err error) {
	var se *mapservice.StatusError
	if errors.As(err, &se) && se.Code == http.StatusNotFound {
		httpError(w, r, http.StatusNotFound, "%s", se.Error())
		return
	}
	httpError(w, r, http.StatusBadGateway, "map service error: %s", err.Error())
}
