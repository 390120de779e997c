// Package postgres implements the blob store capability on a single
// key-value table, for deployments that already run PostgreSQL and do not
// want a second datastore for the dashboard accounts.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	squirrel "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/sirigireddyreddaiahh/urlsclickearn/internal/core/port"
)

type pgExecutor interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const blobTable = "accounts.kv_blobs"

// BlobStore persists collection blobs in the accounts.kv_blobs table
// (key text primary key, value bytea, updated_at timestamptz).
type BlobStore struct {
	exec    pgExecutor
	builder squirrel.StatementBuilderType
}

// NewBlobStore constructs a store backed by any executor that satisfies pgExecutor.
func NewBlobStore(exec pgExecutor) *BlobStore {
	return &BlobStore{
		exec:    exec,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// Get returns the blob for key, ok=false when no row exists.
func (s *BlobStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	query := s.builder.Select("value").
		From(blobTable).
		Where(squirrel.Eq{"key": key})

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, false, fmt.Errorf("build select blob sql: %w", err)
	}

	var value []byte
	if err := s.exec.QueryRow(ctx, sql, args...).Scan(&value); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("select blob: %w", err)
	}
	return value, true, nil
}

// Put upserts the blob for key.
func (s *BlobStore) Put(ctx context.Context, key string, data []byte) error {
	query := s.builder.Insert(blobTable).
		Columns("key", "value", "updated_at").
		Values(key, data, time.Now().UTC()).
		Suffix("ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at")

	sql, args, err := query.ToSql()
	if err != nil {
		return fmt.Errorf("build upsert blob sql: %w", err)
	}

	if _, err := s.exec.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("upsert blob: %w", err)
	}
	return nil
}

var _ port.BlobStore = (*BlobStore)(nil)
