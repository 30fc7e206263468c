// Package mercantile contains the web mercator tile math of the proxy.
package mercantile

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/maptile"
	"github.com/paulmach/orb/project"
)

const webMercatorLatLimit = 85.05112877980659

// TileID xyz address of a tile
type TileID struct {
	X int
	Y int
	Z int
}

// Bbox bounding box, units depend on the function creating it
type Bbox struct {
	Left   float64
	Bottom float64
	Right  float64
	Top    float64
}

func (t TileID) maptile() maptile.Tile {
	return maptile.New(uint32(t.X), uint32(t.Y), maptile.Zoom(t.Z))
}

// ULBounds returns the bounding box of the tile in lon/lat degrees
func ULBounds(t TileID) Bbox {
	b := t.maptile().Bound()
	return Bbox{Left: b.Min.X(), Bottom: b.Min.Y(), Right: b.Max.X(), Top: b.Max.Y()}
}

// XyBounds returns the bounding box of the tile in web mercator meters (EPSG:3857)
func XyBounds(t TileID) Bbox {
	b := t.maptile().Bound()
	min := project.WGS84.ToMercator(b.Min)
	max := project.WGS84.ToMercator(b.Max)
	return Bbox{Left: min.X(), Bottom: min.Y(), Right: max.X(), Top: max.Y()}
}

// TileRange returns the upper left and the lower right tile covering the lon/lat
// bounding box on zoom level z
func TileRange(bb Bbox, z int) (TileID, TileID) {
	w := math.Max(-180.0, bb.Left)
	s := math.Max(-webMercatorLatLimit, bb.Bottom)
	e := math.Min(180.0-0.00000001, bb.Right)
	n := math.Min(webMercatorLatLimit, bb.Top)

	ul := maptile.At(orb.Point{w, n}, maptile.Zoom(z))
	lr := maptile.At(orb.Point{e, s}, maptile.Zoom(z))
	return TileID{X: int(ul.X), Y: int(ul.Y), Z: z}, TileID{X: int(lr.X), Y: int(lr.Y), Z: z}
}
