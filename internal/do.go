package internal

import (
	"fmt"

	"github.com/samber/do/v2"
	"github.com/willie68/go_vendortiles/internal/config"
	"github.com/willie68/go_vendortiles/internal/logging"
	"github.com/willie68/go_vendortiles/internal/mapservice"
	"github.com/willie68/go_vendortiles/internal/provider"
	"github.com/willie68/go_vendortiles/internal/shttp"
	"github.com/willie68/go_vendortiles/internal/tilecache"
	"github.com/willie68/go_vendortiles/internal/tiles"
	"github.com/willie68/go_vendortiles/internal/utils/measurement"
)

// Init wires all services of the tile proxy from the loaded config
func Init() (do.Injector, error) {
	inj := do.New()

	config.Init(inj)
	logging.Init(inj)
	measurement.Init(inj)
	if err := tilecache.Init(inj); err != nil {
		return nil, fmt.Errorf("error on init tilecache: %w", err)
	}
	if err := provider.Init(inj); err != nil {
		return nil, fmt.Errorf("error on init providers: %w", err)
	}
	tiles.Init(inj)
	mapservice.Init(inj)
	shttp.Init(inj)
	return inj, nil
}

func Stop(inj do.Injector) {
	tc, err := do.Invoke[tilecache.TileCache](inj)
	if err == nil {
		if err := tc.Close(); err != nil {
			logging.New("internal").Error(fmt.Sprintf("error on close tilecache: %v", err))
		}
	}
	logging.Close()
}
