package sqlite

import (
	"context"
	"database/sql"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/klauspost/compress/zstd"
	"lukechampine.com/blake3"

	"topoview/internal/domain"
	"topoview/internal/repository"

	_ "modernc.org/sqlite"
)

// Repository implements repository.Repository using SQLite
type Repository struct {
	db  *sql.DB
	enc *zstd.Encoder
	dec *zstd.Decoder
}

var _ repository.Repository = (*Repository)(nil)

// New creates a new SQLite repository
func New(dbPath string) (*Repository, error) {
	dsn := dbPath
	if dbPath != ":memory:" {
		dsn += "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if dbPath == ":memory:" {
		// Each connection to :memory: is a separate database
		db.SetMaxOpenConns(1)
	}

	enc, err := zstd.NewWriter(nil)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating zstd encoder: %w", err)
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating zstd decoder: %w", err)
	}

	repo := &Repository{db: db, enc: enc, dec: dec}
	if err := repo.migrate(); err != nil {
		repo.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return repo, nil
}

func (r *Repository) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS views (
		name TEXT PRIMARY KEY,
		format TEXT NOT NULL,
		digest TEXT NOT NULL,
		size INTEGER NOT NULL,
		body BLOB NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS objects (
		id INTEGER PRIMARY KEY,
		class_name TEXT NOT NULL,
		name TEXT NOT NULL DEFAULT '',
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_objects_class ON objects(class_name);
	`

	_, err := r.db.Exec(schema)
	return err
}

// Digest returns the hex BLAKE3 digest of an uncompressed body
func Digest(body []byte) string {
	sum := blake3.Sum256(body)
	return hex.EncodeToString(sum[:])
}

// SaveView inserts or replaces a view. Saving an identical body in the same
// format is a no-op and reports changed=false.
func (r *Repository) SaveView(ctx context.Context, name, format string, body []byte) (bool, error) {
	digest := Digest(body)

	var current, currentFormat string
	err := r.db.QueryRowContext(ctx, `SELECT digest, format FROM views WHERE name = ?`, name).
		Scan(&current, &currentFormat)
	if err != nil && err != sql.ErrNoRows {
		return false, fmt.Errorf("failed to query view: %w", err)
	}
	if err == nil && current == digest && currentFormat == format {
		return false, nil
	}

	compressed := r.enc.EncodeAll(body, nil)
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO views (name, format, digest, size, body, updated_at)
		VALUES (?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(name) DO UPDATE SET
			format = excluded.format,
			digest = excluded.digest,
			size = excluded.size,
			body = excluded.body,
			updated_at = CURRENT_TIMESTAMP
	`, name, format, digest, len(body), compressed)
	if err != nil {
		return false, fmt.Errorf("failed to upsert view: %w", err)
	}

	return true, nil
}

// GetView retrieves a view with its decompressed body
func (r *Repository) GetView(ctx context.Context, name string) (*repository.View, error) {
	var (
		v          repository.View
		compressed []byte
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT name, format, digest, body, created_at, updated_at
		FROM views WHERE name = ?
	`, name).Scan(&v.Name, &v.Format, &v.Digest, &compressed, &v.CreatedAt, &v.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query view: %w", err)
	}

	v.Body, err = r.dec.DecodeAll(compressed, nil)
	if err != nil {
		return nil, fmt.Errorf("decompressing view %s: %w", name, err)
	}
	if Digest(v.Body) != v.Digest {
		return nil, fmt.Errorf("view %s: digest mismatch", name)
	}

	return &v, nil
}

// ListViews returns all views ordered by name
func (r *Repository) ListViews(ctx context.Context) ([]repository.ViewSummary, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT name, format, digest, size, length(body), updated_at
		FROM views ORDER BY name
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query views: %w", err)
	}
	defer rows.Close()

	views := make([]repository.ViewSummary, 0)
	for rows.Next() {
		var s repository.ViewSummary
		var updated time.Time
		if err := rows.Scan(&s.Name, &s.Format, &s.Digest, &s.Size, &s.Compressed, &updated); err != nil {
			return nil, fmt.Errorf("failed to scan view: %w", err)
		}
		s.UpdatedAt = updated
		views = append(views, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating views: %w", err)
	}

	return views, nil
}

// DeleteView removes a view
func (r *Repository) DeleteView(ctx context.Context, name string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM views WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("failed to delete view: %w", err)
	}
	return nil
}

const upsertObject = `
	INSERT INTO objects (id, class_name, name, updated_at)
	VALUES (?, ?, ?, CURRENT_TIMESTAMP)
	ON CONFLICT(id) DO UPDATE SET
		class_name = excluded.class_name,
		name = excluded.name,
		updated_at = CURRENT_TIMESTAMP
`

// UpsertObject inserts or updates an inventory object
func (r *Repository) UpsertObject(ctx context.Context, ref domain.ObjectRef) error {
	if _, err := r.db.ExecContext(ctx, upsertObject, ref.ID, ref.ClassName, ref.Name); err != nil {
		return fmt.Errorf("failed to upsert object: %w", err)
	}
	return nil
}

// UpsertObjects writes refs in one transaction
func (r *Repository) UpsertObjects(ctx context.Context, refs []domain.ObjectRef) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, upsertObject)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, ref := range refs {
		if _, err := stmt.ExecContext(ctx, ref.ID, ref.ClassName, ref.Name); err != nil {
			return fmt.Errorf("failed to upsert object %d: %w", ref.ID, err)
		}
	}

	return tx.Commit()
}

// GetObject retrieves an inventory object by id
func (r *Repository) GetObject(ctx context.Context, id int64) (*domain.ObjectRef, error) {
	var ref domain.ObjectRef
	err := r.db.QueryRowContext(ctx, `
		SELECT id, class_name, name FROM objects WHERE id = ?
	`, id).Scan(&ref.ID, &ref.ClassName, &ref.Name)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query object: %w", err)
	}

	return &ref, nil
}

// ListObjects returns all inventory objects ordered by id
func (r *Repository) ListObjects(ctx context.Context) ([]domain.ObjectRef, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, class_name, name FROM objects ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query objects: %w", err)
	}
	defer rows.Close()

	refs := make([]domain.ObjectRef, 0)
	for rows.Next() {
		var ref domain.ObjectRef
		if err := rows.Scan(&ref.ID, &ref.ClassName, &ref.Name); err != nil {
			return nil, fmt.Errorf("failed to scan object: %w", err)
		}
		refs = append(refs, ref)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating objects: %w", err)
	}

	return refs, nil
}

// Close releases resources
func (r *Repository) Close() error {
	r.enc.Close()
	r.dec.Close()
	return r.db.Close()
}
