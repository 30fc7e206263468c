package provider

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strings"

	"github.com/pkg/errors"
	"github.com/samber/do/v2"
	"github.com/willie68/go_vendortiles/configs"
	"github.com/willie68/go_vendortiles/internal/logging"
	"github.com/willie68/go_vendortiles/internal/model"
	"github.com/willie68/go_vendortiles/internal/tilesource"
)

// Service delivers the tiles of one provider
type Service interface {
	Tile(ctx context.Context, tile model.Tile) (io.ReadCloser, error)
}

// URLResolver is implemented by providers fetching their tiles from a tile url
type URLResolver interface {
	TileURL(tile model.Tile) string
}

// MetaProvider is implemented by providers knowing their zoom range and bounds
type MetaProvider interface {
	Meta() tilesource.Meta
}

type ConfigMap map[string]Config

// GetProviderConfig returns the map itself, so a plain map can be used as provider config
func (c ConfigMap) GetProviderConfig() ConfigMap {
	return c
}

type Config struct {
	URL          string            `yaml:"url"`
	Type         string            `yaml:"type"` // wms, tms, xyz, baidu, mbtiles
	NoCached     bool              `yaml:"nocache"`
	Layers       string            `yaml:"layers"`
	Format       string            `yaml:"format"`
	Styles       string            `yaml:"styles"`
	Version      string            `yaml:"version"`
	Headers      map[string]string `yaml:"headers"`
	Path         string            `yaml:"path"` // for file based providers
	Fallback     string            `yaml:"fallback"`
	NoPrefetch   bool              `yaml:"noprefetch"` // disable any prefetching of tiles
	Retina       bool              `yaml:"retina"`
	TileProxy    string            `yaml:"tileproxy"`
	Subdomains   string            `yaml:"subdomains"`
	MinZoom      *int              `yaml:"minzoom"` // nil for the default of the type
	MaxZoom      int               `yaml:"maxzoom"`
	Bounds       tilesource.Bounds `yaml:"bounds"`
	Attribution  string            `yaml:"attribution"`
	Timeout      int               `yaml:"timeout"` // in seconds
	Retries      int               `yaml:"retries"`
	EmptyOnError bool              `yaml:"emptyonerror"`
}

// SourceConfig the part of the config the url resolver needs
func (c Config) SourceConfig() tilesource.Config {
	return tilesource.Config{
		URL:         c.URL,
		Retina:      c.Retina,
		TileProxy:   c.TileProxy,
		Subdomains:  c.Subdomains,
		MinZoom:     c.MinZoom,
		MaxZoom:     c.MaxZoom,
		Bounds:      c.Bounds,
		Attribution: c.Attribution,
	}
}

type pFactory struct {
	log      *slog.Logger
	configs  ConfigMap
	services []string
	inj      do.Injector
}

var (
	ErrNotFound = errors.New("service not found")
	// ErrNoTile the provider has no tile for the requested address
	ErrNoTile = errors.New("tile not available")
)

type providerConfig interface {
	GetProviderConfig() ConfigMap
}

func Init(inj do.Injector) error {
	sf := pFactory{
		log:      logging.New("factory"),
		configs:  do.MustInvokeAs[providerConfig](inj).GetProviderConfig(),
		services: make([]string, 0),
		inj:      inj,
	}
	do.ProvideValue(inj, &sf)
	for sname, config := range sf.configs {
		s, err := sf.create(sname, config)
		if err != nil {
			return errors.Wrapf(err, "provider %s", sname)
		}
		do.ProvideNamedValue(inj, sname, s)
		sf.services = append(sf.services, sname)
	}
	slices.Sort(sf.services)
	return nil
}

func (f *pFactory) create(sname string, config Config) (Service, error) {
	switch strings.ToLower(config.Type) {
	case "wms":
		return &wmsProvider{
			name:   sname,
			log:    logging.New(fmt.Sprintf("wms: %s", sname)),
			config: config,
			fetch:  newFetcher(config),
		}, nil
	case "tms", "xyz", "baidu":
		src, err := tilesource.New(config.Type, config.SourceConfig())
		if err != nil {
			return nil, err
		}
		return &urlProvider{
			name:  sname,
			log:   logging.New(fmt.Sprintf("%s: %s", config.Type, sname)),
			src:   src,
			fetch: newFetcher(config),
		}, nil
	case "mbtiles":
		return NewMBTilesProvider(sname, config, f.inj)
	}
	return nil, fmt.Errorf("unknown service type: %s", config.Type)
}

func (f *pFactory) HasProvider(providerName string) bool {
	_, ok := f.configs[providerName]
	return ok
}

// Names all provider names, sorted
func (f *pFactory) Names() []string {
	return slices.Clone(f.services)
}

// Config returns the config of the provider
func (f *pFactory) Config(providerName string) (Config, bool) {
	config, ok := f.configs[providerName]
	return config, ok
}

func (f *pFactory) IsCached(providerName string) bool {
	config, ok := f.configs[providerName]
	if !ok {
		return false
	}
	return !config.NoCached
}

func (f *pFactory) IsPrefetchable(providerName string) bool {
	config, ok := f.configs[providerName]
	if !ok {
		return false
	}
	u := config.URL
	if u == "" && strings.EqualFold(config.Type, "baidu") {
		u = tilesource.BaiduURL
	}
	for _, b := range configs.PrefetchBlacklist() {
		if strings.Contains(strings.ToLower(u), strings.ToLower(b)) {
			return false
		}
	}
	return !config.NoPrefetch
}
