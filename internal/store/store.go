package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/matheus3301/flasher/internal/config"
	"github.com/matheus3301/flasher/internal/session"
	"go.uber.org/zap"
)

// ErrNotFound is returned by Get when a session has no value under a key,
// or the value has expired.
var ErrNotFound = errors.New("session value not found")

// Store persists opaque per-session values between requests. Implementations
// are safe for concurrent use.
type Store interface {
	// Get returns the value stored under key for the session.
	Get(ctx context.Context, sessionID, key string) ([]byte, error)
	// Set stores value under key and pushes the session's expiry forward.
	Set(ctx context.Context, sessionID, key string, value []byte) error
	// Delete removes key from the session. Deleting a missing key is not an error.
	Delete(ctx context.Context, sessionID, key string) error
	// Purge removes values that expired before now and reports how many.
	Purge(ctx context.Context, now time.Time) (int, error)
	Close() error
}

// FromConfig opens the backend selected by cfg. dataDir holds the sqlite
// file; sqlite migrations run before it returns.
func FromConfig(ctx context.Context, cfg config.StoreConfig, dataDir string, logger *zap.Logger) (Store, error) {
	switch cfg.Backend {
	case config.BackendMemory:
		logger.Info("store initialized", zap.String("backend", cfg.Backend))
		return NewMemory(cfg.TTL), nil

	case config.BackendSQLite:
		dbPath := session.DBPath(dataDir)
		db, err := Open(dbPath, cfg.TTL)
		if err != nil {
			return nil, err
		}
		result, err := db.Migrate()
		if err != nil {
			_ = db.Close()
			return nil, err
		}
		if result.Changed {
			logger.Info("migrations applied", zap.Uint("version", result.Version))
		} else {
			logger.Info("migrations up to date", zap.Uint("version", result.Version))
		}
		logger.Info("store initialized", zap.String("backend", cfg.Backend), zap.String("path", dbPath))
		return db, nil

	case config.BackendRedis:
		r, err := NewRedis(ctx, cfg.RedisURL, cfg.TTL)
		if err != nil {
			return nil, err
		}
		logger.Info("store initialized", zap.String("backend", cfg.Backend))
		return r, nil

	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}
}
