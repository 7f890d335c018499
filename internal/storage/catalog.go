package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"

	_ "modernc.org/sqlite"
)

const catalogSchema = `
CREATE TABLE IF NOT EXISTS runs (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL,
	created_at TEXT NOT NULL,
	particles  INTEGER NOT NULL,
	frames     INTEGER NOT NULL,
	ensemble   REAL NOT NULL,
	valid      INTEGER NOT NULL,
	metadata   TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS runs_created_at ON runs (created_at);
`

// Fixed width so the text column sorts chronologically.
const timestampLayout = "2006-01-02T15:04:05.000000000Z"

// Catalog indexes saved runs in a sqlite database so listing does not
// have to open every run directory.
type Catalog struct {
	db *sql.DB
}

func OpenCatalog(path string) (*Catalog, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(catalogSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &Catalog{db: db}, nil
}

func (c *Catalog) Close() error {
	return c.db.Close()
}

// Record inserts or replaces the run.
func (c *Catalog) Record(meta RunMetadata) error {
	blob, err := json.Marshal(meta)
	if err != nil {
		return err
	}
	_, err = c.db.Exec(
		`INSERT OR REPLACE INTO runs (id, name, created_at, particles, frames, ensemble, valid, metadata)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		meta.ID, meta.Name, meta.Timestamp.UTC().Format(timestampLayout),
		meta.Particles, meta.Frames, meta.Ensemble, meta.Valid, string(blob),
	)
	return err
}

// List returns every run, newest first.
func (c *Catalog) List() ([]RunMetadata, error) {
	rows, err := c.db.Query(`SELECT metadata FROM runs ORDER BY created_at DESC, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	runs := make([]RunMetadata, 0)
	for rows.Next() {
		var blob string
		if err := rows.Scan(&blob); err != nil {
			return nil, err
		}
		var meta RunMetadata
		if err := json.Unmarshal([]byte(blob), &meta); err != nil {
			return nil, err
		}
		runs = append(runs, meta)
	}
	return runs, rows.Err()
}

// Delete removes a run from the index. The run directory is left alone.
func (c *Catalog) Delete(id string) error {
	_, err := c.db.Exec(`DELETE FROM runs WHERE id = ?`, id)
	return err
}
