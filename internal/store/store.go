package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// ErrNotFound is returned by Get when a namespace has never been written.
var ErrNotFound = errors.New("store: namespace not found")

// Store persists opaque JSON blobs keyed by namespace.
type Store interface {
	Get(ctx context.Context, namespace string) ([]byte, error)
	Put(ctx context.Context, namespace string, value []byte) error
	Close() error
}

type blobRow struct {
	Namespace string `db:"namespace"`
	Value     string `db:"value"`
}

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sqlx.DB
}

// New opens a SQLite database and runs migrations.
func New(path string) (*SQLiteStore, error) {
	db, err := sqlx.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) Get(ctx context.Context, namespace string) ([]byte, error) {
	var row blobRow
	err := s.db.GetContext(ctx, &row, "SELECT namespace, value FROM blobs WHERE namespace = ?", namespace)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get blob %s: %w", namespace, err)
	}
	return []byte(row.Value), nil
}

func (s *SQLiteStore) Put(ctx context.Context, namespace string, value []byte) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO blobs (namespace, value, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(namespace) DO UPDATE SET
			value = excluded.value,
			updated_at = excluded.updated_at
	`, namespace, string(value), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("put blob %s: %w", namespace, err)
	}
	return nil
}
