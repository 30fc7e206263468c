package mapservice

// Rectangle2D bounds of a map
type Rectangle2D struct {
	LeftBottom Point2D `json:"leftBottom"`
	RightTop   Point2D `json:"rightTop"`
}

// Point2D a point in map units
type Point2D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// PrjCoordSys projection of a map
type PrjCoordSys struct {
	EpsgCode int    `json:"epsgCode"`
	Name     string `json:"name"`
	Type     string `json:"type"`
}

// MapInfo map status of a map service, unknown fields are dropped
type MapInfo struct {
	Name          string      `json:"name"`
	Scale         float64     `json:"scale"`
	Center        Point2D     `json:"center"`
	Bounds        Rectangle2D `json:"bounds"`
	ViewBounds    Rectangle2D `json:"viewBounds"`
	CoordUnit     string      `json:"coordUnit"`
	PrjCoordSys   PrjCoordSys `json:"prjCoordSys"`
	VisibleScales []float64   `json:"visibleScales"`
}

// Tileset one tileset of a map service
type Tileset struct {
	Name     string          `json:"name"`
	Metadata TilesetMetadata `json:"metaData"`
}

// TilesetMetadata description of a tileset
type TilesetMetadata struct {
	TileFormat        string      `json:"tileFormat"`
	TileWidth         int         `json:"tileWidth"`
	TileHeight        int         `json:"tileHeight"`
	Transparent       bool        `json:"transparent"`
	Bounds            Rectangle2D `json:"bounds"`
	Resolutions       []float64   `json:"resolutions"`
	ScaleDenominators []float64   `json:"scaleDenominators"`
}
