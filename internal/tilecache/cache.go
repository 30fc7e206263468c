package tilecache

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/samber/do/v2"
	"github.com/willie68/go_vendortiles/internal/logging"
	"github.com/willie68/go_vendortiles/internal/model"
	"github.com/willie68/go_vendortiles/pkg/fileutils"
)

type TileCache interface {
	Has(tile model.Tile) bool
	Tile(tile model.Tile) (io.ReadCloser, bool)
	Save(tile model.Tile, data io.Reader) error
	IsActive() bool
	Close() error
}

type Config struct {
	Type   string `yaml:"type"` // file or badger
	Path   string `yaml:"path"`
	Active bool   `yaml:"active"`
	MaxAge int    `yaml:"maxage"` // in hours
}

var (
	_ TileCache = (*Cache)(nil)
	_ TileCache = (*BadgerCache)(nil)
)

// Cache file system based tile cache, one file per tile
type Cache struct {
	log    *slog.Logger
	path   string
	active bool
	maxage int // in hours

	flock sync.RWMutex
	stop  chan struct{}
	once  sync.Once
}

// Init creates the configured tile cache and provides it as TileCache
func Init(inj do.Injector) error {
	cfg := do.MustInvoke[*Config](inj)
	var tc TileCache
	switch cfg.Type {
	case "badger":
		bc, err := NewBadger(*cfg)
		if err != nil {
			return err
		}
		tc = bc
	case "", "file":
		tc = New(*cfg)
	default:
		return fmt.Errorf("unknown cache type: %s", cfg.Type)
	}
	do.ProvideValue(inj, tc)
	return nil
}

// New creates a file system based cache
func New(cfg Config) *Cache {
	c := &Cache{
		log:    logging.New("tilecache"),
		path:   cfg.Path,
		active: cfg.Active,
		maxage: cfg.MaxAge,
		flock:  sync.RWMutex{},
		stop:   make(chan struct{}),
	}
	if c.active && c.maxage > 0 {
		c.startCacheCleanupJob()
	}
	return c
}

func (c *Cache) startCacheCleanupJob() {
	go func() {
		ticker := time.NewTicker(1 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-c.stop:
				return
			case <-ticker.C:
			}
			err := c.CleanupOldFiles(time.Duration(c.maxage) * time.Hour)
			if err != nil {
				c.log.Error(fmt.Sprintf("cache cleanup error: %v", err))
			} else {
				c.log.Info("cache cleanup completed")
			}
		}
	}()
}

func (c *Cache) IsActive() bool {
	return c.active
}

func (c *Cache) Has(tile model.Tile) bool {
	if !c.active {
		return false
	}
	fname := c.getFilename(tile)
	c.flock.RLock()
	defer c.flock.RUnlock()
	return fileutils.FileExists(fname)
}

func (c *Cache) Tile(tile model.Tile) (io.ReadCloser, bool) {
	if !c.active {
		return nil, false
	}
	fname := c.getFilename(tile)
	c.flock.RLock()
	defer c.flock.RUnlock()
	f, err := os.Open(fname)
	if err != nil {
		return nil, false
	}
	return f, true
}

func (c *Cache) Save(tile model.Tile, data io.Reader) error {
	if !c.active {
		return nil
	}
	fn := c.getFilename(tile)
	c.flock.Lock()
	defer c.flock.Unlock()
	// only cache if the file does not exists
	if _, err := os.Stat(fn); !errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(fn), 0o755); err != nil {
		return err
	}
	tmp := fn + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}
	if _, err = io.Copy(f, data); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err = f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, fn)
}

// CleanupOldFiles deletes cache files older than the given duration.
func (c *Cache) CleanupOldFiles(olderThan time.Duration) error {
	now := time.Now()
	return filepath.Walk(c.path, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.Mode().IsRegular() {
			return nil
		}
		if now.Sub(info.ModTime()) > olderThan {
			c.log.Debug(fmt.Sprintf("removing old cache file: %s", path))
			c.deleteFile(path)
		}
		return nil
	})
}

func (c *Cache) deleteFile(path string) {
	c.flock.Lock()
	defer c.flock.Unlock()
	err := os.Remove(path)
	if err != nil {
		c.log.Error(fmt.Sprintf("error removing file %s: %v", path, err))
	}
}

func (c *Cache) getFilename(tile model.Tile) string {
	return filepath.Join(c.path, fileutils.ValidPathName(tile.Provider), strconv.Itoa(tile.Z), strconv.Itoa(tile.X), fmt.Sprintf("%d.png", tile.Y))
}

func (c *Cache) Close() error {
	c.once.Do(func() { close(c.stop) })
	return nil
}
