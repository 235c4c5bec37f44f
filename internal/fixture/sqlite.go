// Package fixture is a local emulator of the row backend and upload sink,
// used for development and end-to-end tests of the triage tool. It serves
// the same contracts the production backend does: GET /rows?subject= and
// POST /upload, with blobs held on the local filesystem and row records in
// SQLite.
package fixture

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/leca/image-triage/internal/model"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS rows (
    id TEXT PRIMARY KEY,
    subject TEXT NOT NULL,
    order_key TEXT NOT NULL DEFAULT '',
    external_url TEXT,
    stored_url TEXT
);

CREATE INDEX IF NOT EXISTS idx_rows_subject ON rows (subject, order_key);
`

// RowStore persists image rows in SQLite.
type RowStore struct {
	db *sql.DB
}

// NewRowStore opens (or creates) an SQLite database at dsn and runs
// migrations. For in-memory use pass "file::memory:?cache=shared".
func NewRowStore(dsn string) (*RowStore, error) {
	if !strings.Contains(dsn, "?") {
		dsn += "?_journal_mode=WAL&_busy_timeout=5000"
	} else if !strings.Contains(dsn, "_journal_mode") {
		dsn += "&_journal_mode=WAL&_busy_timeout=5000"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &RowStore{db: db}, nil
}

// Close closes the underlying database connection.
func (s *RowStore) Close() error {
	return s.db.Close()
}

// CreateRow inserts one row. An empty ID is assigned a fresh UUID.
func (s *RowStore) CreateRow(r *model.ImageRow) error {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	_, err := s.db.Exec(`
		INSERT INTO rows (id, subject, order_key, external_url, stored_url)
		VALUES (?, ?, ?, ?, ?)`,
		r.ID, r.Subject, r.OrderKey, r.ExternalImageURL, r.StoredImageURL,
	)
	if err != nil {
		return fmt.Errorf("insert row: %w", err)
	}
	return nil
}

// Seed inserts all given rows.
func (s *RowStore) Seed(rows []model.ImageRow) error {
	for i := range rows {
		if err := s.CreateRow(&rows[i]); err != nil {
			return err
		}
	}
	return nil
}

// GetRow fetches one row by id.
func (s *RowStore) GetRow(id string) (*model.ImageRow, error) {
	row := s.db.QueryRow(`
		SELECT id, subject, order_key, external_url, stored_url
		FROM rows WHERE id = ?`, id,
	)
	r := &model.ImageRow{}
	if err := row.Scan(&r.ID, &r.Subject, &r.OrderKey, &r.ExternalImageURL, &r.StoredImageURL); err != nil {
		return nil, fmt.Errorf("get row: %w", err)
	}
	return r, nil
}

// ListBySubject returns every row filed under subject, ordered by order_key.
func (s *RowStore) ListBySubject(subject string) ([]model.ImageRow, error) {
	rows, err := s.db.Query(`
		SELECT id, subject, order_key, external_url, stored_url
		FROM rows WHERE subject = ?
		ORDER BY order_key ASC`, subject,
	)
	if err != nil {
		return nil, fmt.Errorf("list rows: %w", err)
	}
	defer rows.Close()

	var out []model.ImageRow
	for rows.Next() {
		var r model.ImageRow
		if err := rows.Scan(&r.ID, &r.Subject, &r.OrderKey, &r.ExternalImageURL, &r.StoredImageURL); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// SetStoredURL records the managed-store URL for a row after an upload.
func (s *RowStore) SetStoredURL(id, storedURL string) error {
	res, err := s.db.Exec(`UPDATE rows SET stored_url = ? WHERE id = ?`, storedURL, id)
	if err != nil {
		return fmt.Errorf("update stored url: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("row not found: %s", id)
	}
	return nil
}
