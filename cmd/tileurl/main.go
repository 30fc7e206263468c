package main

import (
	"encoding/json"
	"fmt"
	"os"

	flag "github.com/spf13/pflag"
	"github.com/willie68/go_vendortiles/internal/config"
	"github.com/willie68/go_vendortiles/internal/model"
	"github.com/willie68/go_vendortiles/internal/tilesource"
)

var (
	configFile string
	name       string
	kind       string
	tmpl       string
	retina     bool
	proxy      string
	subdomains string
	z, x, y    int
	tilejson   bool
)

func init() {
	flag.StringVarP(&configFile, "config", "c", "", "config file, resolve with a provider of this config")
	flag.StringVarP(&name, "provider", "n", "", "name of the provider in the config")
	flag.StringVarP(&kind, "kind", "k", "baidu", "kind of the tile source: baidu, xyz or tms")
	flag.StringVarP(&tmpl, "url", "u", "", "url template of the tile source, empty for the baidu default")
	flag.BoolVarP(&retina, "retina", "r", false, "use high density tiles")
	flag.StringVar(&proxy, "proxy", "", "tile proxy prefix, the tile url is appended uri component encoded")
	flag.StringVar(&subdomains, "subdomains", "", "subdomain letters for {s}")
	flag.IntVarP(&z, "z", "z", 0, "zoom level")
	flag.IntVarP(&x, "x", "x", 0, "tile column")
	flag.IntVarP(&y, "y", "y", 0, "tile row, counted from the top")
	flag.BoolVarP(&tilejson, "tilejson", "t", false, "print the tilejson of the source with the tile url")
	flag.Usage = func() {
		fmt.Printf("Usage of %s:\n", os.Args[0])
		flag.PrintDefaults()
		fmt.Println()
		fmt.Println("examples:")
		fmt.Printf("%s -z 10 -x 3 -y 5\n", os.Args[0])
		fmt.Printf("%s --retina --proxy 'http://localhost:8080/proxy?url=' -z 10 -x 3 -y 5\n", os.Args[0])
		fmt.Printf("%s -c config.yaml -n baidu -z 10 -x 3 -y 5\n", os.Args[0])
	}
}

func main() {
	flag.Parse()

	src, err := source()
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\r\n", err)
		os.Exit(1)
	}

	tile := model.Tile{Provider: name, Z: z, X: x, Y: y}
	if tilejson {
		md, ok := src.(tilesource.Metadata)
		if !ok {
			fmt.Fprint(os.Stderr, "source has no metadata\r\n")
			os.Exit(1)
		}
		tj := tilesource.NewTileJSON(name, src.TileURL(tile), md.Meta())
		js, err := json.MarshalIndent(tj, "", "  ")
		if err != nil {
			fmt.Fprintf(os.Stderr, "%v\r\n", err)
			os.Exit(1)
		}
		fmt.Println(string(js))
		return
	}

	fmt.Println(src.TileURL(tile))
}

func source() (tilesource.Source, error) {
	if configFile == "" {
		return tilesource.New(kind, tilesource.Config{
			URL:        tmpl,
			Retina:     retina,
			TileProxy:  proxy,
			Subdomains: subdomains,
		})
	}
	if err := config.Load(configFile); err != nil {
		return nil, fmt.Errorf("can't load config: %w", err)
	}
	pc, ok := config.Get().Providers[name]
	if !ok {
		return nil, fmt.Errorf("unknown provider: %s", name)
	}
	sc := pc.SourceConfig()
	if retina {
		sc.Retina = true
	}
	if proxy != "" {
		sc.TileProxy = proxy
	}
	return tilesource.New(pc.Type, sc)
}
