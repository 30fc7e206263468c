// Package shttp runs the http servers of the service
package shttp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/samber/do/v2"
	"github.com/willie68/go_vendortiles/internal/logging"
)

// Config of the http servers
type Config struct {
	Port            int `yaml:"port"`
	HealthPort      int `yaml:"healthport"`
	ReadTimeout     int `yaml:"readtimeout"`  // in seconds
	WriteTimeout    int `yaml:"writetimeout"` // in seconds
	ShutdownTimeout int `yaml:"shutdowntimeout"`
}

// SHttp the api and the health server
type SHttp struct {
	log     *slog.Logger
	cfg     Config
	servers []*http.Server
}

func Init(inj do.Injector) {
	cfg := do.MustInvoke[*Config](inj)
	do.ProvideValue(inj, New(*cfg))
}

func New(cfg Config) *SHttp {
	return &SHttp{
		log: logging.New("shttp"),
		cfg: cfg,
	}
}

// StartServers starts the api server and, if a health port is set, the health server
func (s *SHttp) StartServers(router, healthRouter http.Handler) {
	s.servers = append(s.servers, s.start("api", s.cfg.Port, router))
	if s.cfg.HealthPort > 0 && healthRouter != nil {
		s.servers = append(s.servers, s.start("health", s.cfg.HealthPort, healthRouter))
	}
}

func (s *SHttp) start(name string, port int, handler http.Handler) *http.Server {
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      handler,
		ReadTimeout:  seconds(s.cfg.ReadTimeout, 15),
		WriteTimeout: seconds(s.cfg.WriteTimeout, 60),
		IdleTimeout:  60 * time.Second,
	}
	go func() {
		s.log.Info(fmt.Sprintf("starting %s server on port %d", name, port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error(fmt.Sprintf("error on listen and serve %s: %v", name, err))
		}
	}()
	return srv
}

// ShutdownServers gracefully stops all started servers
func (s *SHttp) ShutdownServers() {
	ctx, cancel := context.WithTimeout(context.Background(), seconds(s.cfg.ShutdownTimeout, 15))
	defer cancel()
	for _, srv := range s.servers {
		if err := srv.Shutdown(ctx); err != nil {
			s.log.Error(fmt.Sprintf("error on shutdown server %s: %v", srv.Addr, err))
		}
	}
	s.servers = nil
}

func seconds(v, def int) time.Duration {
	if v <= 0 {
		v = def
	}
	return time.Duration(v) * time.Second
}
