package store

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// DB is the sqlite-backed Store, kept in <data_dir>/sessions.db.
type DB struct {
	*sql.DB
	ttl time.Duration
	now func() time.Time
}

// Open creates a new SQLite connection with WAL mode and recommended pragmas.
// Values written through it expire ttl after their last write.
func Open(path string, ttl time.Duration) (*DB, error) {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	// Verify connection.
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}
	return &DB{DB: db, ttl: ttl}, nil
}
