package store

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// Get returns the unexpired value stored under key for the session.
func (db *DB) Get(ctx context.Context, sessionID, key string) ([]byte, error) {
	var value []byte
	err := db.QueryRowContext(ctx, `
		SELECT value FROM session_values
		WHERE session_id = ? AND key = ? AND expires_at > ?`,
		sessionID, key, db.clock().UnixMilli()).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return value, nil
}

// Set upserts value under key; the row expires ttl from now.
func (db *DB) Set(ctx context.Context, sessionID, key string, value []byte) error {
	now := db.clock()
	_, err := db.ExecContext(ctx, `
		INSERT INTO session_values (session_id, key, value, updated_at, expires_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(session_id, key) DO UPDATE SET
			value = excluded.value,
			updated_at = excluded.updated_at,
			expires_at = excluded.expires_at`,
		sessionID, key, value, now.UnixMilli(), now.Add(db.ttl).UnixMilli())
	return err
}

// Delete removes key from the session.
func (db *DB) Delete(ctx context.Context, sessionID, key string) error {
	_, err := db.ExecContext(ctx, `DELETE FROM session_values WHERE session_id = ? AND key = ?`, sessionID, key)
	return err
}

// Purge deletes rows that expired at or before now.
func (db *DB) Purge(ctx context.Context, now time.Time) (int, error) {
	res, err := db.ExecContext(ctx, `DELETE FROM session_values WHERE expires_at <= ?`, now.UnixMilli())
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	return int(n), err
}

func (db *DB) clock() time.Time {
	if db.now != nil {
		return db.now()
	}
	return time.Now()
}
