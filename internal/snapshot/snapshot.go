package snapshot

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"sjsage522/productworker/logger"
)

// Result reports what Upsert did with a fetched page.
type Result struct {
	ID        int64
	IsNew     bool
	Changed   bool
	Processed bool
}

// Store is the content-addressed raw-page store. The content hash decides
// whether a page needs re-ingestion; payloads go to a blob directory when
// one is configured, otherwise inline into the row. Rows are never deleted.
type Store struct {
	db      *pgxpool.Pool
	blobDir string
	log     *logger.Logger
}

// New creates a snapshot store. blobDir may be empty to inline payloads.
func New(db *pgxpool.Pool, blobDir string) *Store {
	return &Store{
		db:      db,
		blobDir: blobDir,
		log:     logger.ForStore(),
	}
}

// ContentHash returns the hex SHA-256 of a payload.
func ContentHash(payload []byte) string {
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:])
}

// Upsert stores a fetched page. When the hash matches the stored row the
// payload is not rewritten and only the crawl timestamp refreshes; when it
// differs the payload is replaced and the processed flag cleared, forcing
// re-ingestion.
func (s *Store) Upsert(ctx context.Context, source, key, url string, html []byte) (*Result, error) {
	hash := ContentHash(html)

	var id int64
	var storedHash string
	var processedAt *time.Time
	err := s.db.QueryRow(ctx, `
		SELECT id, content_hash, processed_at FROM raw_snapshots
		WHERE source = $1 AND page_key = $2`,
		source, key,
	).Scan(&id, &storedHash, &processedAt)

	switch {
	case err == nil && storedHash == hash:
		// unchanged: refresh the crawl timestamp only
		if _, err := s.db.Exec(ctx,
			`UPDATE raw_snapshots SET fetched_at = now() WHERE id = $1`, id); err != nil {
			return nil, err
		}
		return &Result{ID: id, Changed: false, Processed: processedAt != nil}, nil

	case err != nil && err != pgx.ErrNoRows:
		return nil, err
	}

	isNew := err == pgx.ErrNoRows

	payloadRef, inline, blobErr := s.storePayload(source, key, html)
	if blobErr != nil {
		// fall back to inlining rather than losing the snapshot
		s.log.Warn().Err(blobErr).Str("source", source).Str("key", key).
			Msg("Blob write failed, inlining payload")
		payloadRef, inline = "", html
	}

	err = s.db.QueryRow(ctx, `
		INSERT INTO raw_snapshots (source, page_key, url, content_hash, payload_ref, payload, fetched_at, processed_at)
		VALUES ($1, $2, $3, $4, NULLIF($5, ''), $6, now(), NULL)
		ON CONFLICT (source, page_key) DO UPDATE SET
			url          = EXCLUDED.url,
			content_hash = EXCLUDED.content_hash,
			payload_ref  = EXCLUDED.payload_ref,
			payload      = EXCLUDED.payload,
			fetched_at   = now(),
			processed_at = NULL
		RETURNING id`,
		source, key, url, hash, payloadRef, inline,
	).Scan(&id)
	if err != nil {
		return nil, err
	}

	return &Result{ID: id, IsNew: isNew, Changed: true}, nil
}

// MarkProcessed stamps the processed timestamp after a successful ingest.
func (s *Store) MarkProcessed(ctx context.Context, id int64) error {
	_, err := s.db.Exec(ctx,
		`UPDATE raw_snapshots SET processed_at = now() WHERE id = $1`, id)
	return err
}

// Payload returns the stored raw page, reading the blob file when the row
// holds a reference instead of inline bytes. Used for reprocessing and
// audit, not on the hot path.
func (s *Store) Payload(ctx context.Context, id int64) ([]byte, error) {
	var ref *string
	var inline []byte
	err := s.db.QueryRow(ctx,
		`SELECT payload_ref, payload FROM raw_snapshots WHERE id = $1`, id,
	).Scan(&ref, &inline)
	if err != nil {
		return nil, err
	}
	if ref != nil && *ref != "" {
		return os.ReadFile(*ref)
	}
	return inline, nil
}

// storePayload writes the payload to the blob directory when configured.
// Returns (ref, inline): exactly one of them is set.
func (s *Store) storePayload(source, key string, html []byte) (string, []byte, error) {
	if s.blobDir == "" {
		return "", html, nil
	}

	path := BlobPath(s.blobDir, source, key)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", nil, fmt.Errorf("failed to create blob dir: %w", err)
	}
	if err := os.WriteFile(path, html, 0o644); err != nil {
		return "", nil, fmt.Errorf("failed to write blob: %w", err)
	}
	return path, nil, nil
}

var unsafePathChars = regexp.MustCompile(`[^a-zA-Z0-9._-]`)

// BlobPath derives the deterministic blob location for a page: one file
// per source/localID, so re-fetching a page overwrites its own blob.
func BlobPath(blobDir, source, key string) string {
	safe := unsafePathChars.ReplaceAllString(key, "_")
	return filepath.Join(blobDir, source, safe+".html")
}
