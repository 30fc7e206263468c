// Package mapservice is a thin client for the map service REST api of the map
// server. Results are returned to the caller, there are no callbacks.
package mapservice

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/willie68/go_vendortiles/internal/logging"
	"github.com/willie68/go_vendortiles/internal/tilesource"
)

// server types of the map service
const (
	ServerTypeIServer = "iserver"
	ServerTypeIPortal = "iportal"
	ServerTypeOnline  = "online"
)

// ConfigMap map services by name
type ConfigMap map[string]Config

// Config of one map service
type Config struct {
	URL             string            `yaml:"url"`
	Proxy           string            `yaml:"proxy"`
	ServerType      string            `yaml:"servertype"` // iserver, iportal, online
	WithCredentials bool              `yaml:"withcredentials"`
	Headers         map[string]string `yaml:"headers"`
	Timeout         int               `yaml:"timeout"` // in seconds
}

// StatusError the map service answered with a non 2xx status
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("map service status %d: %s", e.Code, e.Body)
}

// Client of one map service
type Client struct {
	log *slog.Logger
	url string
	cfg Config
	cl  *http.Client
}

// New creates a client for the map service at the url, e.g.
// http://host:8090/iserver/services/map-world/rest/maps/World
func New(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30
	}
	if cfg.ServerType == "" {
		cfg.ServerType = ServerTypeIServer
	}
	cl := &http.Client{Timeout: time.Duration(timeout) * time.Second}
	if cfg.WithCredentials {
		jar, _ := cookiejar.New(nil)
		cl.Jar = jar
	}
	return &Client{
		log: logging.New("mapservice"),
		url: strings.TrimSuffix(cfg.URL, "/"),
		cfg: cfg,
		cl:  cl,
	}
}

// MapInfo requests the map status of the map service
func (c *Client) MapInfo(ctx context.Context) (MapInfo, error) {
	var mi MapInfo
	err := c.get(ctx, c.url+".json", &mi)
	return mi, err
}

// Tilesets requests the list of tilesets of the map service
func (c *Client) Tilesets(ctx context.Context) ([]Tileset, error) {
	ts := make([]Tileset, 0)
	err := c.get(ctx, c.url+"/tilesets.json", &ts)
	return ts, err
}

// RequestURL the url actually requested for the resource, wrapped by the proxy if one is set
func (c *Client) RequestURL(u string) string {
	return tilesource.WithProxy(c.cfg.Proxy, u)
}

func (c *Client) get(ctx context.Context, u string, v any) error {
	ru := c.RequestURL(u)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ru, nil)
	if err != nil {
		return errors.Wrap(err, "failed to create request")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	for k, v := range c.cfg.Headers {
		req.Header.Set(k, v)
	}

	c.log.Debug("map service request", "url", ru, "servertype", c.cfg.ServerType)
	resp, err := c.cl.Do(req)
	if err != nil {
		return errors.Wrapf(err, "map service request %s", u)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &StatusError{Code: resp.StatusCode, Body: string(body)}
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return errors.Wrap(err, "can't decode map service response")
	}
	return nil
}
