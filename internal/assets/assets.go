package assets

import (
	"bytes"
	_ "embed"
	"io"
)

//go:embed empty.png
var emptyPNG []byte

// EmptyPNG a transparent 256x256 tile
func EmptyPNG() io.ReadCloser {
	return io.NopCloser(bytes.NewReader(emptyPNG))
}
