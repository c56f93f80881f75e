package clipstore

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"clipgate/internal/config"
	"clipgate/internal/media"
	"clipgate/internal/services"
)

//go:embed schema.sql
var schemaSQL string

// schemaVersion is the current schema version. Bump this when the schema
// changes; existing databases with a different version are rejected.
const schemaVersion = 1

// ErrSchemaMismatch indicates the database schema version doesn't match the
// expected version.
var ErrSchemaMismatch = errors.New("schema version mismatch")

// ErrClipNotFound is returned for lookups of unknown clip IDs.
var ErrClipNotFound = errors.New("clip not found")

// Store manages clip persistence backed by SQLite plus flat payload files.
type Store struct {
	db         *sql.DB
	path       string
	payloadDir string
}

// Open initializes or connects to the clip database and verifies the schema.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}

	payloadDir := filepath.Join(cfg.Paths.DataDir, "clips")
	if err := os.MkdirAll(payloadDir, 0o755); err != nil {
		return nil, fmt.Errorf("create payload directory: %w", err)
	}

	dbPath := filepath.Join(cfg.Paths.DataDir, "clips.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath, payloadDir: payloadDir}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) initSchema(ctx context.Context) error {
	var version sql.NullInt64
	err := s.db.QueryRowContext(ctx,
		"SELECT version FROM schema_version LIMIT 1",
	).Scan(&version)
	switch {
	case err == nil:
		if version.Int64 != schemaVersion {
			return fmt.Errorf("%w: database has version %d, expected %d (delete %s to reset)",
				ErrSchemaMismatch, version.Int64, schemaVersion, s.path)
		}
		return nil
	case errors.Is(err, sql.ErrNoRows):
		// Schema exists but version row is missing; fall through to record it.
	default:
		// Fresh database: the table does not exist yet.
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM schema_version"); err != nil {
		return fmt.Errorf("reset schema version: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "INSERT INTO schema_version (version) VALUES (?)", schemaVersion); err != nil {
		return fmt.Errorf("record schema version: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema: %w", err)
	}
	return nil
}

// Save persists an encoded clip for a post and returns the stored record.
// The payload file is written before the metadata row so a crash never leaves
// a row pointing at a missing file.
func (s *Store) Save(ctx context.Context, postID, ownerID string, encoded media.EncodedClip) (media.Clip, error) {
	if postID == "" {
		return media.Clip{}, services.Wrap(services.ErrValidation, "store", "save", "post ID required", nil)
	}
	if len(encoded.Bytes) == 0 {
		return media.Clip{}, services.Wrap(services.ErrValidation, "store", "save", "empty clip payload", nil)
	}

	clip := media.Clip{
		ID:        uuid.NewString(),
		PostID:    postID,
		OwnerID:   ownerID,
		Kind:      encoded.Kind,
		Format:    encoded.Format,
		SizeBytes: int64(len(encoded.Bytes)),
		CreatedAt: time.Now().UTC(),
	}
	clip.URL = "/clips/" + clip.ID

	if err := os.WriteFile(s.payloadPath(clip.ID, clip.Format), encoded.Bytes, 0o644); err != nil {
		return media.Clip{}, services.Wrap(services.ErrUploadFailed, "store", "save", "write clip payload", err)
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO clips (id, post_id, owner_id, kind, format, url, size_bytes, created_at)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		clip.ID,
		clip.PostID,
		clip.OwnerID,
		string(clip.Kind),
		string(clip.Format),
		clip.URL,
		clip.SizeBytes,
		clip.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		_ = os.Remove(s.payloadPath(clip.ID, clip.Format))
		return media.Clip{}, services.Wrap(services.ErrUploadFailed, "store", "save", "insert clip row", err)
	}
	return clip, nil
}

// Get returns the stored clip record for the given ID.
func (s *Store) Get(ctx context.Context, clipID string) (media.Clip, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, post_id, owner_id, kind, format, url, size_bytes, created_at
         FROM clips WHERE id = ?`, clipID)
	clip, err := scanClip(row)
	if errors.Is(err, sql.ErrNoRows) {
		return media.Clip{}, fmt.Errorf("%w: %s", ErrClipNotFound, clipID)
	}
	if err != nil {
		return media.Clip{}, fmt.Errorf("get clip: %w", err)
	}
	return clip, nil
}

// ListByPost returns all clips stored for a post, oldest first. The order is
// the recording order and drives merge sequencing.
func (s *Store) ListByPost(ctx context.Context, postID string) ([]media.Clip, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, post_id, owner_id, kind, format, url, size_bytes, created_at
         FROM clips WHERE post_id = ? ORDER BY created_at ASC, id ASC`, postID)
	if err != nil {
		return nil, fmt.Errorf("list clips: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var clips []media.Clip
	for rows.Next() {
		clip, err := scanClip(rows)
		if err != nil {
			return nil, fmt.Errorf("scan clip: %w", err)
		}
		clips = append(clips, clip)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate clips: %w", err)
	}
	return clips, nil
}

// PayloadPath returns the on-disk location of a clip's payload file.
func (s *Store) PayloadPath(clip media.Clip) string {
	return s.payloadPath(clip.ID, clip.Format)
}

// ReadPayload loads a clip's payload bytes.
func (s *Store) ReadPayload(clip media.Clip) ([]byte, error) {
	data, err := os.ReadFile(s.payloadPath(clip.ID, clip.Format))
	if err != nil {
		return nil, fmt.Errorf("read clip payload: %w", err)
	}
	return data, nil
}

func (s *Store) payloadPath(clipID string, format media.Format) string {
	return filepath.Join(s.payloadDir, clipID+"."+format.Ext())
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanClip(row rowScanner) (media.Clip, error) {
	var (
		clip      media.Clip
		kind      string
		format    string
		createdAt string
	)
	if err := row.Scan(&clip.ID, &clip.PostID, &clip.OwnerID, &kind, &format, &clip.URL, &clip.SizeBytes, &createdAt); err != nil {
		return media.Clip{}, err
	}
	clip.Kind = media.Kind(kind)
	clip.Format = media.Format(format)
	parsed, err := time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return media.Clip{}, fmt.Errorf("parse created_at: %w", err)
	}
	clip.CreatedAt = parsed
	return clip, nil
}
