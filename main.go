package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/samber/do/v2"
	flag "github.com/spf13/pflag"
	"github.com/willie68/go_vendortiles/configs"
	"github.com/willie68/go_vendortiles/internal"
	"github.com/willie68/go_vendortiles/internal/api"
	"github.com/willie68/go_vendortiles/internal/config"
	"github.com/willie68/go_vendortiles/internal/logging"
	"github.com/willie68/go_vendortiles/internal/prefetch"
	"github.com/willie68/go_vendortiles/internal/shttp"
	"github.com/willie68/go_vendortiles/pkg/fileutils"
)

var (
	log         *slog.Logger
	configFile  string
	showVersion bool
	initConfig  bool
	pfZoom      int
	pfProviders string
	pfWorkers   int
	port        int
	logLevel    string
)

func init() {
	flag.BoolVarP(&initConfig, "init", "i", false, "init config, writes out a default config.")
	flag.BoolVarP(&showVersion, "version", "v", false, "showing the version")
	flag.StringVarP(&configFile, "config", "c", "config.yaml", "this is the path and filename to the config file")
	flag.IntVarP(&port, "port", "p", 0, "overwrite the port (8580) of the config")
	flag.StringVarP(&logLevel, "loglevel", "l", "", "overwrite the log level of the config")
	flag.IntVarP(&pfZoom, "zoom", "z", 0, "max zoom for prefetch tiles")
	flag.StringVarP(&pfProviders, "system", "s", "", "prefetch provider, if empty no prefetching will be done, csv if more than one needed.")
	flag.IntVarP(&pfWorkers, "workers", "w", 0, "number of parallel downloads while prefetching")
	flag.Usage = func() {
		fmt.Printf("Usage of %s:\n", os.Args[0])
		fmt.Println("more on https://github.com/willie68/go_vendortiles")
		flag.PrintDefaults()
		fmt.Println()
		fmt.Println("examples:")
		fmt.Println("simply run as tile proxy: take the default config, add your needed provider and run")
		fmt.Printf("%s -c config.yaml\n", os.Args[0])
		fmt.Println("run with caching: switch caching to true and set a path. Than run")
		fmt.Printf("%s -c config.yaml\n", os.Args[0])
		fmt.Println("run with caching and prefetching up to zoom 4:")
		fmt.Printf("%s -c config.yaml -s <your provider to be cached> -z 4\n", os.Args[0])
	}
}

func main() {
	flag.Parse()
	if showVersion {
		fmt.Println(config.NewVersion().String())
		os.Exit(0)
	}
	if initConfig {
		fmt.Println(configs.ConfigFile)
		os.Exit(0)
	}
	if !fileutils.FileExists(configFile) {
		fmt.Fprint(os.Stderr, "no config given or doesn't exist.\r\n\r\n")
		flag.Usage()
		os.Exit(1)
	}
	if err := config.Load(configFile); err != nil {
		fmt.Fprintf(os.Stderr, "can't load config: %v\r\n", err)
		os.Exit(1)
	}

	config.SetParameter(config.WithPort(port), config.WithLogLevel(logLevel))
	js := config.JSON()
	if js == "" {
		fmt.Fprint(os.Stderr, "error on marshal config to json\r\n")
		os.Exit(1)
	}
	fmt.Printf("Config:\n%s\n", js)

	inj, err := internal.Init()
	if err != nil {
		fmt.Fprintf(os.Stderr, "can't start service: %v\r\n", err)
		os.Exit(1)
	}
	log = logging.New("main")
	log.Info("starting tile service")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if pfProviders != "" {
		err = prefetch.Prefetch(ctx, inj, prefetch.Options{
			Providers: pfProviders,
			MaxZoom:   pfZoom,
			Workers:   pfWorkers,
			Progress:  true,
		})
		if err != nil {
			log.Error(fmt.Sprintf("prefetch failed: %v", err))
		}
	}

	router, err := api.APIRoutes(inj)
	if err != nil {
		log.Error(fmt.Sprintf("could not create api routes: %v", err))
		internal.Stop(inj)
		os.Exit(1)
	}
	healthRouter := api.HealthRoutes(inj)

	sh := do.MustInvoke[*shttp.SHttp](inj)
	sh.StartServers(router, healthRouter)

	log.Info("waiting for clients")
	<-ctx.Done()

	sh.ShutdownServers()
	log.Info("server finished")

	internal.Stop(inj)
}
