package mercantile

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

const earth = 20037508.342789244

func TestXyBounds(t *testing.T) {
	ast := assert.New(t)
	bb := XyBounds(TileID{X: 0, Y: 0, Z: 0})
	ast.InDelta(-earth, bb.Left, 1)
	ast.InDelta(-earth, bb.Bottom, 1)
	ast.InDelta(earth, bb.Right, 1)
	ast.InDelta(earth, bb.Top, 1)

	bb = XyBounds(TileID{X: 1, Y: 0, Z: 1})
	ast.InDelta(0, bb.Left, 1)
	ast.InDelta(0, bb.Bottom, 1)
	ast.InDelta(earth, bb.Right, 1)
	ast.InDelta(earth, bb.Top, 1)
}

func TestULBounds(t *testing.T) {
	ast := assert.New(t)
	bb := ULBounds(TileID{X: 0, Y: 0, Z: 1})
	ast.InDelta(-180, bb.Left, 1e-6)
	ast.InDelta(0, bb.Bottom, 1e-6)
	ast.InDelta(0, bb.Right, 1e-6)
	ast.InDelta(webMercatorLatLimit, bb.Top, 1e-6)
}

func TestTileRange(t *testing.T) {
	ast := assert.New(t)
	ul, lr := TileRange(Bbox{Left: -180, Bottom: -90, Right: 180, Top: 90}, 2)
	ast.Equal(TileID{X: 0, Y: 0, Z: 2}, ul)
	ast.Equal(TileID{X: 3, Y: 3, Z: 2}, lr)

	ul, lr = TileRange(Bbox{Left: 1, Bottom: 1, Right: 2, Top: 2}, 1)
	ast.Equal(TileID{X: 1, Y: 0, Z: 1}, ul)
	ast.Equal(TileID{X: 1, Y: 0, Z: 1}, lr)
}
