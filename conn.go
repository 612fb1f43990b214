package medial

import (
	"sync"

	log "github.com/sirupsen/logrus"
)

// The process-wide handle behind Configure and Default, for callers that
// configure one database at startup.
var (
	defaultMu sync.Mutex
	defaultDB *DB
)

// Configure opens uri and installs it as the default handle, closing any
// previous one.
func Configure(uri string, options ...Option) error {
	db, err := Open(uri, options...)
	if err != nil {
		return err
	}

	defaultMu.Lock()
	defer defaultMu.Unlock()

	if defaultDB != nil {
		if err := defaultDB.Close(); err != nil {
			log.WithField("err", err).Warn("failed to close previous default database")
		}
	}
	defaultDB = db

	return nil
}

// Default returns the handle installed by Configure, or ErrUnconfigured.
func Default() (*DB, error) {
	defaultMu.Lock()
	defer defaultMu.Unlock()

	if defaultDB == nil {
		return nil, ErrUnconfigured
	}
	return defaultDB, nil
}

// Close closes and removes the default handle.
func Close() error {
	defaultMu.Lock()
	defer defaultMu.Unlock()

	if defaultDB == nil {
		return nil
	}

	err := defaultDB.Close()
	defaultDB = nil

	return err
}
