package apiv1

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/samber/do/v2"
	"github.com/willie68/go_vendortiles/internal/logging"
	"github.com/willie68/go_vendortiles/internal/utils/measurement"
)

// defining all sub pathes for api v1
const (
	// APIVersion the actual implemented api version
	APIVersion = "1"
	// BaseURL the base url of all api v1 routes
	BaseURL = "/api/v" + APIVersion

	TileserverPrefix  = "/tileserver"
	MapservicesPrefix = "/mapservices"
	MetricsPrefix     = "/metrics"
)

var logger = logging.New("apiv1")

// Handler a http REST interface handler
type Handler interface {
	// Routes get the routes
	Routes() (string, *chi.Mux)
}

type metricsHandler struct {
	inj do.Injector
}

func (h *metricsHandler) Routes() (string, *chi.Mux) {
	return MetricsPrefix, measurement.Routes(h.inj)
}

// Handlers all api v1 handlers
func Handlers(inj do.Injector) []Handler {
	return []Handler{
		NewXYZHandler(inj),
		NewMapServiceHandler(inj),
		&metricsHandler{inj: inj},
	}
}

// ErrorResponse json body of all api errors
type ErrorResponse struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
}

func httpError(w http.ResponseWriter, r *http.Request, status int, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	if status >= http.StatusInternalServerError {
		logger.Error(msg, "path", r.URL.Path)
	}
	render.Status(r, status)
	render.JSON(w, r, ErrorResponse{Status: status, Message: msg})
}
