package tilesource

import (
	"strconv"

	"github.com/willie68/go_vendortiles/internal/model"
)

const (
	// BaiduURL is the default tile url of the baidu online map, udt is the fixed cache busting token
	BaiduURL = "http://online{num}.map.bdimg.com/onlinelabel/?qt=tile&x={x}&y={y}&z={z}&styles={styles}&udt=20150815&scaler=1"
	// BaiduAttribution default copyright of the baidu tiles
	BaiduAttribution = "Map Data © 2017 Baidu - GS(2016)2089号 - Data © 长地万方"

	// StyleNormal style token for normal density displays
	StyleNormal = "pl"
	// StyleRetina style token for high density displays
	StyleRetina = "ph"

	baiduShards     = 8
	baiduMinZoom    = 3
	baiduMaxZoom    = DefaultMaxZoom
	baiduRetinaZoom = 18
)

var _ Source = (*Baidu)(nil)

// BaiduOptions options of the baidu tile source, zero values get the defaults.
// MinZoom nil means the default, an explicit 0 is kept.
type BaiduOptions struct {
	MinZoom     *int
	MaxZoom     int
	Bounds      Bounds
	Retina      bool
	Attribution string
	TileProxy   string
}

// Baidu tile source with inverted rows and 8 load balanced subdomains
type Baidu struct {
	url     string
	opts    BaiduOptions
	minZoom int
}

// NewBaidu creates a new baidu tile source. An empty url uses BaiduURL.
func NewBaidu(url string, opts BaiduOptions) *Baidu {
	if url == "" {
		url = BaiduURL
	}
	if opts.MaxZoom == 0 {
		opts.MaxZoom = baiduMaxZoom
	}
	if opts.Retina {
		opts.MaxZoom = baiduRetinaZoom
	}
	if opts.Bounds.IsZero() {
		opts.Bounds = WebMercator
	}
	if opts.Attribution == "" {
		opts.Attribution = BaiduAttribution
	}
	return &Baidu{
		url:     url,
		opts:    opts,
		minZoom: zoomOr(opts.MinZoom, baiduMinZoom),
	}
}

// Shard returns the subdomain number (1..8) for the tile column and row
func Shard(x, y int) int {
	s := (x + y) % baiduShards
	if s < 0 {
		s = -s
	}
	return s + 1
}

// Row converts the xyz row into the baidu row
func Row(y int) int {
	return -y - 1
}

// Style returns the style token for the display density
func Style(retina bool) string {
	if retina {
		return StyleRetina
	}
	return StyleNormal
}

// TileURL resolves the tile into the baidu url. Coordinates are not validated.
func (b *Baidu) TileURL(tile model.Tile) string {
	u := Template(b.url, map[string]string{
		"num":    strconv.Itoa(Shard(tile.X, tile.Y)),
		"x":      strconv.Itoa(tile.X),
		"y":      strconv.Itoa(Row(tile.Y)),
		"z":      strconv.Itoa(tile.Z),
		"styles": Style(b.opts.Retina),
	})
	return WithProxy(b.opts.TileProxy, u)
}

// Meta returns the layer description
func (b *Baidu) Meta() Meta {
	return Meta{
		MinZoom:     b.minZoom,
		MaxZoom:     b.opts.MaxZoom,
		Bounds:      b.opts.Bounds,
		Attribution: b.opts.Attribution,
	}
}

// Retina true if the source delivers high density tiles
func (b *Baidu) Retina() bool {
	return b.opts.Retina
}
