package tilesource

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/willie68/go_vendortiles/internal/model"
)

// maxShiftZoom largest zoom whose row count 1<<z fits into an int. The tms
// row flip is only defined from zoom 0 up to this zoom, other rows stay as they are.
const maxShiftZoom = 62

var _ Source = (*XYZ)(nil)

// XYZ is a template based source for xyz and tms tile servers
type XYZ struct {
	url        string
	isTMS      bool
	subdomains []string
	cfg        Config
}

// NewXYZ creates a source for a xyz tile server
func NewXYZ(cfg Config) *XYZ {
	return newTemplateSource(cfg, false)
}

// NewTMS creates a source for a tms tile server, the row counts from the bottom
func NewTMS(cfg Config) *XYZ {
	return newTemplateSource(cfg, true)
}

func newTemplateSource(cfg Config, isTMS bool) *XYZ {
	u := cfg.URL
	if !strings.Contains(u, "{z}") {
		// plain base url, tiles live at <base>/z/x/y.png
		u = strings.TrimSuffix(u, "/") + "/{z}/{x}/{y}.png"
	}
	if cfg.MaxZoom == 0 {
		cfg.MaxZoom = DefaultMaxZoom
	}
	if cfg.Bounds.IsZero() {
		cfg.Bounds = WebMercator
	}
	return &XYZ{
		url:        u,
		isTMS:      isTMS,
		subdomains: strings.Split(cfg.Subdomains, ""),
		cfg:        cfg,
	}
}

// TileURL resolves the tile into the url of the tile server
func (s *XYZ) TileURL(tile model.Tile) string {
	y := tile.Y
	if s.isTMS && tile.Z >= 0 && tile.Z <= maxShiftZoom {
		y = (1 << tile.Z) - y - 1
	}
	values := map[string]string{
		"x": strconv.Itoa(tile.X),
		"y": strconv.Itoa(y),
		"z": strconv.Itoa(tile.Z),
	}
	if len(s.subdomains) > 0 && s.subdomains[0] != "" {
		i := (tile.X + tile.Y) % len(s.subdomains)
		if i < 0 {
			i = -i
		}
		values["s"] = s.subdomains[i]
	}
	return WithProxy(s.cfg.TileProxy, Template(s.url, values))
}

// Meta returns the layer description
func (s *XYZ) Meta() Meta {
	return Meta{
		MinZoom:     zoomOr(s.cfg.MinZoom, 0),
		MaxZoom:     s.cfg.MaxZoom,
		Bounds:      s.cfg.Bounds,
		Attribution: s.cfg.Attribution,
	}
}

func (s *XYZ) String() string {
	if s.isTMS {
		return fmt.Sprintf("tms: %s", s.url)
	}
	return fmt.Sprintf("xyz: %s", s.url)
}
