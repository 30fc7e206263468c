package configs

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPrefetchBlacklist(t *testing.T) {
	ast := assert.New(t)
	bl := PrefetchBlacklist()
	ast.Contains(bl, "openstreetmap.org")
	ast.Contains(bl, "bdimg.com")
	for _, l := range bl {
		ast.NotEmpty(l)
	}
}
