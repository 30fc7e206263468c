package tilesource

// TileJSON layer description document, see https://github.com/mapbox/tilejson-spec
type TileJSON struct {
	Tilejson    string    `json:"tilejson"`
	Name        string    `json:"name,omitempty"`
	Attribution string    `json:"attribution,omitempty"`
	Scheme      string    `json:"scheme"`
	Tiles       []string  `json:"tiles"`
	Minzoom     int       `json:"minzoom"`
	Maxzoom     int       `json:"maxzoom"`
	Bounds      []float64 `json:"bounds,omitempty"`
	Center      []float64 `json:"center,omitempty"`
}

// NewTileJSON builds the tilejson for a layer served under the tiles url template
func NewTileJSON(name, tiles string, meta Meta) TileJSON {
	tj := TileJSON{
		Tilejson:    "2.2.0",
		Name:        name,
		Attribution: meta.Attribution,
		Scheme:      "xyz",
		Tiles:       []string{tiles},
		Minzoom:     meta.MinZoom,
		Maxzoom:     meta.MaxZoom,
	}
	b := meta.Bounds
	if !b.IsZero() {
		tj.Bounds = []float64{b.West, b.South, b.East, b.North}
		tj.Center = []float64{(b.West + b.East) / 2, (b.South + b.North) / 2, float64(meta.MinZoom)}
	}
	return tj
}
