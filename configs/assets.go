package configs

import (
	_ "embed"
	"strings"
	"sync"
)

// ConfigFile the default config, written out with --init
//
//go:embed config.yaml
var ConfigFile string

//go:embed prefetch_blacklist.lst
var prefetchBlacklist string

// PrefetchBlacklist url parts of tile servers whose usage policy forbids bulk downloads
var PrefetchBlacklist = sync.OnceValue(func() []string {
	lines := make([]string, 0)
	for _, l := range strings.Split(strings.ReplaceAll(prefetchBlacklist, "\r", ""), "\n") {
		l = strings.TrimSpace(l)
		if l == "" || strings.HasPrefix(l, "#") {
			continue
		}
		lines = append(lines, l)
	}
	return lines
})
