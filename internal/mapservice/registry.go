package mapservice

import (
	"slices"

	"github.com/samber/do/v2"
)

type mapServiceConfig interface {
	GetMapServiceConfig() ConfigMap
}

// GetMapServiceConfig returns the map itself, so a plain map can be used as config
func (c ConfigMap) GetMapServiceConfig() ConfigMap {
	return c
}

// Registry the configured map service clients
type Registry struct {
	clients map[string]*Client
	names   []string
}

// Init creates the clients of all configured map services
func Init(inj do.Injector) {
	cm := ConfigMap{}
	if mc, err := do.InvokeAs[mapServiceConfig](inj); err == nil {
		cm = mc.GetMapServiceConfig()
	}
	do.ProvideValue(inj, NewRegistry(cm))
}

// NewRegistry creates a client per config entry
func NewRegistry(cm ConfigMap) *Registry {
	r := &Registry{
		clients: make(map[string]*Client, len(cm)),
		names:   make([]string, 0, len(cm)),
	}
	for name, cfg := range cm {
		r.clients[name] = New(cfg)
		r.names = append(r.names, name)
	}
	slices.Sort(r.names)
	return r
}

// Client returns the client of the named map service
func (r *Registry) Client(name string) (*Client, bool) {
	c, ok := r.clients[name]
	return c, ok
}

// Names of all map services, sorted
func (r *Registry) Names() []string {
	return slices.Clone(r.names)
}
