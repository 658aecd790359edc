// Package store provides SQLite-backed persistence for the application
// state document, the schema-version marker, daily synthesis slots, and
// the transmission collection.
package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	_ "github.com/mattn/go-sqlite3"

	"github.com/BrayneSnax/pdaok/internal/models"
)

// Fixed keys in the kv table. Daily synthesis slots use the insight
// prefix followed by a local calendar date.
const (
	documentKey   = "app_state"
	versionKey    = "schema_version"
	insightPrefix = "insight:"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS kv (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS transmissions (
	id          TEXT PRIMARY KEY,
	entity_type TEXT NOT NULL,
	entity_name TEXT NOT NULL,
	mythic_name TEXT NOT NULL DEFAULT '',
	message     TEXT NOT NULL,
	created_at  DATETIME NOT NULL,
	read        INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_transmissions_entity
	ON transmissions(entity_type, entity_name, created_at);
`

// DB wraps a sql.DB with state-persistence operations.
type DB struct {
	conn *sql.DB
}

// Open opens (or creates) the SQLite database and applies the schema.
func Open(dsn string) (*DB, error) {
	conn, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("store: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("store: ping: %w", err)
	}
	if _, err := conn.Exec(schemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("store: apply schema: %w", err)
	}
	return &DB{conn: conn}, nil
}

// Close closes the underlying database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// LoadDocument returns the persisted state document, or (nil, nil) when
// no prior save exists.
func (db *DB) LoadDocument() (*models.Document, error) {
	var raw string
	err := db.conn.QueryRow(`SELECT value FROM kv WHERE key = ?`, documentKey).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("store: load document: %w", err)
	}
	var doc models.Document
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return nil, fmt.Errorf("store: decode document: %w", err)
	}
	return &doc, nil
}

// SaveDocument overwrites the single persisted snapshot. The write is a
// single statement, so a failure leaves the previous snapshot intact.
func (db *DB) SaveDocument(doc *models.Document) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("store: encode document: %w", err)
	}
	if _, err := db.conn.Exec(
		`INSERT INTO kv (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		documentKey, string(raw),
	); err != nil {
		return fmt.Errorf("store: save document: %w", err)
	}
	return nil
}

// Version returns the schema-version marker, or 0 when absent.
func (db *DB) Version() (int, error) {
	var raw string
	err := db.conn.QueryRow(`SELECT value FROM kv WHERE key = ?`, versionKey).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("store: read version: %w", err)
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("store: parse version %q: %w", raw, err)
	}
	return v, nil
}

// SetVersion writes the schema-version marker.
func (db *DB) SetVersion(v int) error {
	if _, err := db.conn.Exec(
		`INSERT INTO kv (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		versionKey, strconv.Itoa(v),
	); err != nil {
		return fmt.Errorf("store: set version: %w", err)
	}
	return nil
}

// CompleteMigration persists the migrated document and advances the
// version marker in one transaction, so a failure advances nothing.
func (db *DB) CompleteMigration(doc *models.Document, version int) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("store: encode document: %w", err)
	}
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("store: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	upsert := `INSERT INTO kv (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`
	if _, err := tx.Exec(upsert, documentKey, string(raw)); err != nil {
		return fmt.Errorf("store: save migrated document: %w", err)
	}
	if _, err := tx.Exec(upsert, versionKey, strconv.Itoa(version)); err != nil {
		return fmt.Errorf("store: advance version: %w", err)
	}
	return tx.Commit()
}

// Insight returns the cached synthesis for a calendar date. The second
// return value reports whether a slot exists for that date.
func (db *DB) Insight(dateKey string) (string, bool, error) {
	var text string
	err := db.conn.QueryRow(`SELECT value FROM kv WHERE key = ?`, insightPrefix+dateKey).Scan(&text)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("store: read insight: %w", err)
	}
	return text, true, nil
}

// PutInsight stores the synthesis for a calendar date, overwriting any
// earlier same-day slot.
func (db *DB) PutInsight(dateKey, text string) error {
	if _, err := db.conn.Exec(
		`INSERT INTO kv (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		insightPrefix+dateKey, text,
	); err != nil {
		return fmt.Errorf("store: put insight: %w", err)
	}
	return nil
}
