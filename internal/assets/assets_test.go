package assets

import (
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEmptyPNG(t *testing.T) {
	ast := assert.New(t)
	rd := EmptyPNG()
	defer rd.Close()
	img, err := png.Decode(rd)
	ast.NoError(err)
	ast.Equal(256, img.Bounds().Dx())
	ast.Equal(256, img.Bounds().Dy())
	_, _, _, a := img.At(10, 10).RGBA()
	ast.Equal(uint32(0), a)
}
