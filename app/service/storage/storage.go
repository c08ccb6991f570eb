// Package storage is the durable key-value layer behind the thread store.
// It knows nothing about threads: values are opaque strings.
package storage

import (
	"errors"

	"novachat/app/config"

	"github.com/samber/do"
	"github.com/samber/oops"
)

var ErrClosed = errors.New("store is closed")

type Store interface {
	// Get returns the stored value and whether the key exists.
	Get(key string) (string, bool, error)
	Set(key, value string) error
	Remove(key string) error
	Close() error
}

func New(di *do.Injector) (Store, error) {
	cfg := do.MustInvoke[*config.Config](di)

	return Open(cfg.Storage.Driver, cfg.Storage.Path)
}

func Open(driver, path string) (Store, error) {
	switch driver {
	case "pebble":
		return OpenPebble(path)
	case "file":
		return OpenFile(path)
	case "memory":
		return NewMemory(), nil
	default:
		return nil, oops.
			In("storage").
			Code("unknown_driver").
			With("driver", driver).
			Errorf("unknown storage driver %q", driver)
	}
}
