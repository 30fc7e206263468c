package tilecache

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/pkg/errors"
	"github.com/willie68/go_vendortiles/internal/logging"
	"github.com/willie68/go_vendortiles/internal/model"
)

// BadgerCache key value based tile cache, entries expire after the max age
type BadgerCache struct {
	log    *slog.Logger
	db     *badger.DB
	active bool
	ttl    time.Duration

	stop chan struct{}
	once sync.Once
}

// NewBadger opens the badger database at the configured path. An empty path
// keeps the cache in memory.
func NewBadger(cfg Config) (*BadgerCache, error) {
	c := &BadgerCache{
		log:    logging.New("badgercache"),
		active: cfg.Active,
		ttl:    time.Duration(cfg.MaxAge) * time.Hour,
		stop:   make(chan struct{}),
	}
	if !c.active {
		return c, nil
	}
	opts := badger.DefaultOptions(cfg.Path).WithLogger(&badgerLogger{log: c.log})
	if cfg.Path == "" {
		opts = opts.WithInMemory(true)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, errors.Wrapf(err, "can't open badger cache %s", cfg.Path)
	}
	c.db = db
	if cfg.Path != "" {
		c.startGCJob()
	}
	return c, nil
}

func (c *BadgerCache) startGCJob() {
	go func() {
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-c.stop:
				return
			case <-ticker.C:
			}
			for c.db.RunValueLogGC(0.5) == nil {
			}
			c.log.Debug("badger value log gc completed")
		}
	}()
}

func key(tile model.Tile) []byte {
	return []byte(tile.Key())
}

func (c *BadgerCache) IsActive() bool {
	return c.active
}

func (c *BadgerCache) Has(tile model.Tile) bool {
	if !c.active {
		return false
	}
	err := c.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get(key(tile))
		return err
	})
	return err == nil
}

func (c *BadgerCache) Tile(tile model.Tile) (io.ReadCloser, bool) {
	if !c.active {
		return nil, false
	}
	var data []byte
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key(tile))
		if err != nil {
			return err
		}
		data, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		if !errors.Is(err, badger.ErrKeyNotFound) {
			c.log.Error(fmt.Sprintf("error reading tile %s: %v", tile.Key(), err))
		}
		return nil, false
	}
	return io.NopCloser(bytes.NewReader(data)), true
}

func (c *BadgerCache) Save(tile model.Tile, data io.Reader) error {
	if !c.active {
		return nil
	}
	buf, err := io.ReadAll(data)
	if err != nil {
		return err
	}
	return c.db.Update(func(txn *badger.Txn) error {
		e := badger.NewEntry(key(tile), buf)
		if c.ttl > 0 {
			e = e.WithTTL(c.ttl)
		}
		return txn.SetEntry(e)
	})
}

func (c *BadgerCache) Close() error {
	var err error
	c.once.Do(func() {
		if c.stop != nil {
			close(c.stop)
		}
		if c.db != nil {
			err = c.db.Close()
		}
	})
	return err
}

// badgerLogger routes the badger logs into the service logging
type badgerLogger struct {
	log *slog.Logger
}

func (l *badgerLogger) Errorf(f string, v ...interface{}) {
	l.log.Error(fmt.Sprintf(f, v...))
}

func (l *badgerLogger) Warningf(f string, v ...interface{}) {
	l.log.Warn(fmt.Sprintf(f, v...))
}

func (l *badgerLogger) Infof(f string, v ...interface{}) {
	l.log.Debug(fmt.Sprintf(f, v...))
}

func (l *badgerLogger) Debugf(f string, v ...interface{}) {
	l.log.Debug(fmt.Sprintf(f, v...))
}
