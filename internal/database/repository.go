package database

import (
	"database/sql"
	"errors"
	"fmt"

	"daya/internal/kv"
)

// Repository is the SQLite-backed kv.Store used as the app's primary store.
type Repository struct {
	Db *Database
}

func NewRepository(db *Database) *Repository {
	return &Repository{Db: db}
}

// Close closes the underlying database.
func (r *Repository) Close() error {
	return r.Db.Close()
}

func (r *Repository) Get(key string) (kv.Value, error) {
	var raw []byte
	err := r.Db.db.QueryRow(`SELECT value FROM kv WHERE key = ?`, key).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return kv.Value{}, kv.ErrNotFound
	}
	if err != nil {
		return kv.Value{}, fmt.Errorf("%w: %v", kv.ErrUnavailable, err)
	}

	return kv.Decode(raw)
}

func (r *Repository) Set(key string, value kv.Value) error {
	raw, err := kv.Encode(value)
	if err != nil {
		return err
	}

	_, err = r.Db.db.Exec(`
		INSERT INTO kv (key, value, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP
	`, key, raw)
	if err != nil {
		return fmt.Errorf("%w: %v", kv.ErrUnavailable, err)
	}
	return nil
}

func (r *Repository) Remove(key string) error {
	if _, err := r.Db.db.Exec(`DELETE FROM kv WHERE key = ?`, key); err != nil {
		return fmt.Errorf("%w: %v", kv.ErrUnavailable, err)
	}
	return nil
}

func (r *Repository) Keys(prefix string) ([]string, error) {
	// substr instead of LIKE: habit prefixes contain '_' which LIKE treats as a wildcard.
	rows, err := r.Db.db.Query(`
		SELECT key FROM kv
		WHERE substr(key, 1, ?) = ?
		ORDER BY key
	`, len(prefix), prefix)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", kv.ErrUnavailable, err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, err
		}
		keys = append(keys, key)
	}

	return keys, rows.Err()
}

// MarkNotificationSent records that slot fired on date. It returns false when
// the slot had already been recorded for that date, so reminders are not
// repeated after a restart within the same minute.
func (r *Repository) MarkNotificationSent(slot, date string) (bool, error) {
	res, err := r.Db.db.Exec(`
		INSERT OR IGNORE INTO notification_log (slot, date)
		VALUES (?, ?)
	`, slot, date)
	if err != nil {
		return false, err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// SentNotifications lists the slots recorded for date.
func (r *Repository) SentNotifications(date string) ([]string, error) {
	rows, err := r.Db.db.Query(`
		SELECT slot FROM notification_log
		WHERE date = ?
		ORDER BY sent_at
	`, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var slots []string
	for rows.Next() {
		var slot string
		if err := rows.Scan(&slot); err != nil {
			return nil, err
		}
		slots = append(slots, slot)
	}

	return slots, rows.Err()
}

// PruneNotifications drops log rows older than date.
func (r *Repository) PruneNotifications(before string) error {
	_, err := r.Db.db.Exec("DELETE FROM notification_log WHERE date < ?", before)
	return err
}
