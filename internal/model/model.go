package model

import "fmt"

// Tile address of one tile of a provider in the xyz pyramid
type Tile struct {
	Provider string
	Z        int
	X        int
	Y        int
}

func (t *Tile) String() string {
	return fmt.Sprintf("Provider: %s, Z:%d, X:%d, Y:%d", t.Provider, t.Z, t.X, t.Y)
}

// Key unique key of the tile, used by caches and for collapsing requests
func (t *Tile) Key() string {
	return fmt.Sprintf("%s/%d/%d/%d", t.Provider, t.Z, t.X, t.Y)
}

// IsValid checks that the tile lies inside the xyz pyramid of its zoom level
func (t *Tile) IsValid() bool {
	if t.Z < 0 || t.Z > 30 {
		return false
	}
	max := 1 << t.Z // 2^zoom
	if t.X < 0 || t.X >= max {
		return false
	}
	if t.Y < 0 || t.Y >= max {
		return false
	}
	return true
}
