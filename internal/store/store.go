package store

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"sjsage522/productworker/logger"
)

//go:embed schema.sql
var schemaSQL string

// Writer is the pgx-backed upsert layer. Every write targets a natural key
// with ON CONFLICT semantics, so re-running ingestion over identical pages
// is a no-op and changed pages update in place.
type Writer struct {
	db  *pgxpool.Pool
	log *logger.Logger
}

// New connects a Writer to the database
func New(ctx context.Context, databaseURL string) (*Writer, error) {
	db, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to database: %w", err)
	}
	return &Writer{db: db, log: logger.ForStore()}, nil
}

// NewWithPool wraps an existing pool, mainly for tests
func NewWithPool(db *pgxpool.Pool) *Writer {
	return &Writer{db: db, log: logger.ForStore()}
}

// Ping verifies the connection
func (w *Writer) Ping(ctx context.Context) error {
	return w.db.Ping(ctx)
}

// EnsureSchema applies the embedded schema. Every statement is idempotent,
// so this is safe to run on each startup.
func (w *Writer) EnsureSchema(ctx context.Context) error {
	if _, err := w.db.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}

// Pool exposes the underlying pool for collaborators that share it
func (w *Writer) Pool() *pgxpool.Pool {
	return w.db
}

// Close releases the pool
func (w *Writer) Close() {
	w.db.Close()
}
