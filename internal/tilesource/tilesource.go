// Package tilesource resolves tile coordinates into upstream tile urls.
//
// A Source is the capability a tile consumer needs from a tile provider: turning
// a tile address into the url of the image. Sources are created with the
// explicit factory functions of this package, there is no global registry.
package tilesource

import (
	"errors"
	"fmt"
	"strings"

	"github.com/willie68/go_vendortiles/internal/model"
)

// Source resolves a tile to the url of the upstream tile image
type Source interface {
	TileURL(tile model.Tile) string
}

// Metadata gives access to the layer description of a source
type Metadata interface {
	Meta() Meta
}

// Meta describes the layer behind a source
type Meta struct {
	MinZoom     int
	MaxZoom     int
	Bounds      Bounds
	Attribution string
}

// Bounds in lon/lat degrees
type Bounds struct {
	West  float64 `yaml:"west"`
	South float64 `yaml:"south"`
	East  float64 `yaml:"east"`
	North float64 `yaml:"north"`
}

// IsZero true if no bound is set
func (b Bounds) IsZero() bool {
	return b == Bounds{}
}

// DefaultMaxZoom max zoom of a source without a configured max zoom
const DefaultMaxZoom = 19

// WebMercator is the full extent of the web mercator tile pyramid
var WebMercator = Bounds{West: -180, South: -85.0511287798, East: 180, North: 85.0511287798}

// Config is the common configuration of all url based sources
type Config struct {
	URL         string
	Retina      bool
	TileProxy   string
	Subdomains  string
	MinZoom     *int // nil for the default of the kind
	MaxZoom     int
	Bounds      Bounds
	Attribution string
}

var (
	ErrUnknownKind = errors.New("unknown tile source kind")
)

// New creates the source for the given kind. Kinds are baidu, xyz and tms.
func New(kind string, cfg Config) (Source, error) {
	switch strings.ToLower(kind) {
	case "baidu":
		return NewBaidu(cfg.URL, BaiduOptions{
			MinZoom:     cfg.MinZoom,
			MaxZoom:     cfg.MaxZoom,
			Bounds:      cfg.Bounds,
			Retina:      cfg.Retina,
			Attribution: cfg.Attribution,
			TileProxy:   cfg.TileProxy,
		}), nil
	case "xyz":
		return NewXYZ(cfg), nil
	case "tms":
		return NewTMS(cfg), nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownKind, kind)
}

func zoomOr(z *int, def int) int {
	if z == nil {
		return def
	}
	return *z
}

// Template substitutes all {key} placeholders of tmpl with the values. Unknown
// placeholders stay in the result as they are.
func Template(tmpl string, values map[string]string) string {
	var sb strings.Builder
	sb.Grow(len(tmpl) + 16)
	for {
		start := strings.IndexByte(tmpl, '{')
		if start < 0 {
			break
		}
		end := strings.IndexByte(tmpl[start:], '}')
		if end < 0 {
			break
		}
		end += start
		key := strings.TrimSpace(tmpl[start+1 : end])
		sb.WriteString(tmpl[:start])
		if v, ok := values[key]; ok {
			sb.WriteString(v)
		} else {
			sb.WriteString(tmpl[start : end+1])
		}
		tmpl = tmpl[end+1:]
	}
	sb.WriteString(tmpl)
	return sb.String()
}

// WithProxy wraps the url for the tile proxy. An empty proxy returns the url
// unchanged.
func WithProxy(proxy, u string) string {
	if proxy == "" {
		return u
	}
	return proxy + EncodeURIComponent(u)
}

const upperhex = "0123456789ABCDEF"

// EncodeURIComponent escapes s the way the ECMAScript function of the same name
// does. Only letters, digits and -_.!~*'() are kept.
func EncodeURIComponent(s string) string {
	var sb strings.Builder
	sb.Grow(len(s) * 3)
	for i := 0; i < len(s); i++ {
		c := s[i]
		if isUnreserved(c) {
			sb.WriteByte(c)
			continue
		}
		sb.WriteByte('%')
		sb.WriteByte(upperhex[c>>4])
		sb.WriteByte(upperhex[c&15])
	}
	return sb.String()
}

func isUnreserved(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return true
	}
	switch c {
	case '-', '_', '.', '!', '~', '*', '\'', '(', ')':
		return true
	}
	return false
}
