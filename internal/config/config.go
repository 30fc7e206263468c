package config

import (
	"fmt"
	"os"

	"github.com/samber/do/v2"
	"github.com/willie68/go_vendortiles/internal/logging"
	"github.com/willie68/go_vendortiles/internal/mapservice"
	"github.com/willie68/go_vendortiles/internal/provider"
	"github.com/willie68/go_vendortiles/internal/shttp"
	"github.com/willie68/go_vendortiles/internal/tilecache"
	"go.yaml.in/yaml/v3"
)

type Config struct {
	HTTP        shttp.Config         `yaml:"http"`
	Metrics     bool                 `yaml:"metrics"`
	Providers   provider.ConfigMap   `yaml:"providers"`
	MapServices mapservice.ConfigMap `yaml:"mapservices"`
	Logging     logging.Config       `yaml:"logging"`
	Cache       tilecache.Config     `yaml:"cache"`
}

// Parameter overrides a config value from the command line
type Parameter func(c *Config)

var (
	config = Config{
		HTTP: shttp.Config{
			Port:       8580,
			HealthPort: 8581,
		},
	}
)

// WithPort overrides the api port, 0 keeps the configured port
func WithPort(port int) Parameter {
	return func(c *Config) {
		if port > 0 {
			c.HTTP.Port = port
		}
	}
}

// WithLogLevel overrides the log level, empty keeps the configured level
func WithLogLevel(level string) Parameter {
	return func(c *Config) {
		if level != "" {
			c.Logging.Level = level
		}
	}
}

// SetParameter applies the parameters to the loaded config
func SetParameter(ps ...Parameter) {
	for _, p := range ps {
		p(&config)
	}
}

func Get() *Config {
	return &config
}

func Port() int {
	return config.HTTP.Port
}

func JSON() string {
	js, err := config.JSON()
	if err != nil {
		return ""
	}
	return js
}

// Load loads the config
func Load(file string) error {
	_, err := os.Stat(file)
	if err != nil {
		return err
	}
	data, err := os.ReadFile(file)
	if err != nil {
		return fmt.Errorf("can't load config file: %s", err.Error())
	}
	return Parse(data)
}

// Parse parses the yaml config data into the service config
func Parse(data []byte) error {
	err := yaml.Unmarshal(data, &config)
	if err != nil {
		return fmt.Errorf("can't unmarshal config file: %s", err.Error())
	}
	return nil
}

func Init(inj do.Injector) {
	do.ProvideValue(inj, &config)
	do.ProvideValue(inj, &config.Logging)
	do.ProvideValue(inj, &config.Cache)
	do.ProvideValue(inj, &config.HTTP)

	ver := NewVersion()
	do.ProvideValue(inj, *ver)
}

// GetProviderConfig configuration of all tile providers
func (c *Config) GetProviderConfig() provider.ConfigMap {
	return c.Providers
}

// GetMapServiceConfig configuration of all map services
func (c *Config) GetMapServiceConfig() mapservice.ConfigMap {
	return c.MapServices
}

// MetricsActive true if the measurement points are collected
func (c *Config) MetricsActive() bool {
	return c.Metrics
}

func (c *Config) JSON() (string, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("can't marshal config to json: %s", err.Error())
	}
	return string(data), nil
}
