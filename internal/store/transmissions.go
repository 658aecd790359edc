package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/BrayneSnax/pdaok/internal/models"
)

// AppendTransmission inserts a new transmission row.
func (db *DB) AppendTransmission(t models.Transmission) error {
	read := 0
	if t.Read {
		read = 1
	}
	if _, err := db.conn.Exec(
		`INSERT INTO transmissions (id, entity_type, entity_name, mythic_name, message, created_at, read)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.EntityType, t.EntityName, t.MythicName, t.Message, t.CreatedAt, read,
	); err != nil {
		return fmt.Errorf("store: append transmission: %w", err)
	}
	return nil
}

// Transmissions returns every transmission, most-recent-first.
func (db *DB) Transmissions() ([]models.Transmission, error) {
	rows, err := db.conn.Query(
		`SELECT id, entity_type, entity_name, mythic_name, message, created_at, read
		 FROM transmissions ORDER BY created_at DESC, rowid DESC`)
	if err != nil {
		return nil, fmt.Errorf("store: list transmissions: %w", err)
	}
	defer rows.Close()

	out := []models.Transmission{}
	for rows.Next() {
		var t models.Transmission
		var read int
		if err := rows.Scan(&t.ID, &t.EntityType, &t.EntityName, &t.MythicName, &t.Message, &t.CreatedAt, &read); err != nil {
			return nil, fmt.Errorf("store: scan transmission: %w", err)
		}
		t.Read = read != 0
		out = append(out, t)
	}
	return out, rows.Err()
}

// UnreadTransmissions returns the count of unread transmissions.
func (db *DB) UnreadTransmissions() (int, error) {
	var n int
	if err := db.conn.QueryRow(`SELECT count(*) FROM transmissions WHERE read = 0`).Scan(&n); err != nil {
		return 0, fmt.Errorf("store: unread count: %w", err)
	}
	return n, nil
}

// LatestTransmissionTime returns when the given entity last received a
// transmission, or the zero time if it never has.
func (db *DB) LatestTransmissionTime(entityType, entityName string) (time.Time, error) {
	var ts time.Time
	err := db.conn.QueryRow(
		`SELECT created_at FROM transmissions
		 WHERE entity_type = ? AND entity_name = ?
		 ORDER BY created_at DESC LIMIT 1`,
		entityType, entityName,
	).Scan(&ts)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, nil // no prior transmission
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("store: latest transmission: %w", err)
	}
	return ts, nil
}

// MarkTransmissionRead sets the read flag on one transmission. Unknown
// or already-read ids are a no-op.
func (db *DB) MarkTransmissionRead(id string) error {
	if _, err := db.conn.Exec(`UPDATE transmissions SET read = 1 WHERE id = ?`, id); err != nil {
		return fmt.Errorf("store: mark read: %w", err)
	}
	return nil
}

// ClearTransmissions removes every transmission. Irreversible.
func (db *DB) ClearTransmissions() error {
	if _, err := db.conn.Exec(`DELETE FROM transmissions`); err != nil {
		return fmt.Errorf("store: clear transmissions: %w", err)
	}
	return nil
}
