package preferences

import (
	"context"
	"database/sql"
	"fmt"
)

const (
	selectPrefs = `SELECT pref_key, pref_value FROM user_preferences WHERE user_id = ?`
	upsertPref  = `INSERT INTO user_preferences (user_id, pref_key, pref_value, updated_at)
VALUES (?, ?, ?, CURRENT_TIMESTAMP)
ON CONFLICT(user_id, pref_key) DO UPDATE SET
    pref_value = excluded.pref_value,
    updated_at = CURRENT_TIMESTAMP`
	deletePref = `DELETE FROM user_preferences WHERE user_id = ? AND pref_key = ?`
)

// SQLStore keeps preferences in the user_preferences table created by the
// storage migrations.
type SQLStore struct {
	db *sql.DB
}

var _ Store = (*SQLStore)(nil)

func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{db: db}
}

func (s *SQLStore) Get(ctx context.Context, userID string) (Preferences, error) {
	if userID == "" {
		return nil, ErrEmptyUser
	}
	rows, err := s.db.QueryContext(ctx, selectPrefs, userID)
	if err != nil {
		return nil, fmt.Errorf("query preferences: %w", err)
	}
	defer rows.Close()

	out := Preferences{}
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, fmt.Errorf("scan preference: %w", err)
		}
		out[k] = v
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate preferences: %w", err)
	}
	return out, nil
}

func (s *SQLStore) Set(ctx context.Context, userID string, prefs Preferences) error {
	if userID == "" {
		return ErrEmptyUser
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	for k, v := range prefs {
		if v == "" {
			_, err = tx.ExecContext(ctx, deletePref, userID, k)
		} else {
			_, err = tx.ExecContext(ctx, upsertPref, userID, k, v)
		}
		if err != nil {
			return fmt.Errorf("write preference %s: %w", k, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit preferences: %w", err)
	}
	return nil
}
