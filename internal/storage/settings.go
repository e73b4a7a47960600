package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	scherrors "github.com/vitPrograms/NUNG-Schedule-Bot/internal/errors"
	"github.com/vitPrograms/NUNG-Schedule-Bot/internal/sliceutil"
)

// SettingsRepository handles per-user settings persistence
type SettingsRepository struct {
	db *DB
}

// NewSettingsRepository creates a new settings repository
func NewSettingsRepository(db *DB) *SettingsRepository {
	return &SettingsRepository{db: db}
}

// GetSetting reads the JSON document stored under key for the user and
// unmarshals it into dest. Returns scherrors.ErrNotFound when the user
// has no value for the key.
func (r *SettingsRepository) GetSetting(ctx context.Context, userID int64, key string, dest any) error {
	var raw string
	err := r.db.conn.QueryRowContext(ctx,
		`SELECT value FROM user_settings WHERE user_id = ? AND key = ?`,
		userID, key).Scan(&raw)
	if err == sql.ErrNoRows {
		return scherrors.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to read setting %q: %w", key, err)
	}

	if err := json.Unmarshal([]byte(raw), dest); err != nil {
		return fmt.Errorf("failed to decode setting %q: %w", key, err)
	}
	return nil
}

// SetSetting stores value as a JSON document under key for the user,
// replacing any previous value.
func (r *SettingsRepository) SetSetting(ctx context.Context, userID int64, key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode setting %q: %w", key, err)
	}

	_, err = r.db.conn.ExecContext(ctx, `
		INSERT INTO user_settings (user_id, key, value, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(user_id, key) DO UPDATE SET
			value = excluded.value,
			updated_at = excluded.updated_at`,
		userID, key, string(raw), time.Now().Unix())
	if err != nil {
		return fmt.Errorf("failed to write setting %q: %w", key, err)
	}
	return nil
}

// DeleteSetting removes the user's value for key. Deleting a missing
// key is not an error.
func (r *SettingsRepository) DeleteSetting(ctx context.Context, userID int64, key string) error {
	_, err := r.db.conn.ExecContext(ctx,
		`DELETE FROM user_settings WHERE user_id = ? AND key = ?`, userID, key)
	if err != nil {
		return fmt.Errorf("failed to delete setting %q: %w", key, err)
	}
	return nil
}

// Group returns the user's saved group. Returns
// scherrors.ErrGroupNotFound when no group has been set yet.
func (r *SettingsRepository) Group(ctx context.Context, userID int64) (Group, error) {
	var group Group
	err := r.GetSetting(ctx, userID, KeyGroup, &group)
	if scherrors.Is(err, scherrors.ErrNotFound) {
		return Group{}, scherrors.ErrGroupNotFound
	}
	if err != nil {
		return Group{}, err
	}
	return group, nil
}

// SetGroup saves the user's group and clears their subject filter, since
// subjects from the previous group are meaningless for the new one.
func (r *SettingsRepository) SetGroup(ctx context.Context, userID int64, group Group) error {
	if err := r.SetSetting(ctx, userID, KeyGroup, group); err != nil {
		return err
	}
	return r.DeleteSetting(ctx, userID, KeySubjects)
}

// Subjects returns the user's subject filter, sorted. An empty or unset
// filter comes back as nil, meaning "show everything".
func (r *SettingsRepository) Subjects(ctx context.Context, userID int64) ([]string, error) {
	var subjects []string
	err := r.GetSetting(ctx, userID, KeySubjects, &subjects)
	if scherrors.Is(err, scherrors.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return sliceutil.SortedUnique(subjects), nil
}

// AddSubject adds a subject to the user's filter. Adding a subject that
// is already present is a no-op.
func (r *SettingsRepository) AddSubject(ctx context.Context, userID int64, subject string) error {
	return r.updateSubjects(ctx, userID, func(subjects []string) []string {
		return append(subjects, subject)
	})
}

// RemoveSubject removes a subject from the user's filter. Removing a
// subject that is not present is a no-op.
func (r *SettingsRepository) RemoveSubject(ctx context.Context, userID int64, subject string) error {
	return r.updateSubjects(ctx, userID, func(subjects []string) []string {
		kept := subjects[:0]
		for _, s := range subjects {
			if s != subject {
				kept = append(kept, s)
			}
		}
		return kept
	})
}

// ToggleSubject flips a subject's membership in the user's filter and
// reports whether the subject is selected afterwards.
func (r *SettingsRepository) ToggleSubject(ctx context.Context, userID int64, subject string) (bool, error) {
	var selected bool
	err := r.updateSubjects(ctx, userID, func(subjects []string) []string {
		for i, s := range subjects {
			if s == subject {
				return append(subjects[:i], subjects[i+1:]...)
			}
		}
		selected = true
		return append(subjects, subject)
	})
	return selected, err
}

// ClearSubjects drops the user's whole subject filter.
func (r *SettingsRepository) ClearSubjects(ctx context.Context, userID int64) error {
	return r.DeleteSetting(ctx, userID, KeySubjects)
}

// updateSubjects applies fn to the user's subject list inside a
// transaction, so concurrent toggles from the same user cannot lose
// each other's writes.
func (r *SettingsRepository) updateSubjects(ctx context.Context, userID int64, fn func([]string) []string) error {
	tx, err := r.db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var subjects []string
	var raw string
	err = tx.QueryRowContext(ctx,
		`SELECT value FROM user_settings WHERE user_id = ? AND key = ?`,
		userID, KeySubjects).Scan(&raw)
	switch {
	case err == sql.ErrNoRows:
		// first write for this user
	case err != nil:
		return fmt.Errorf("failed to read subjects: %w", err)
	default:
		if err := json.Unmarshal([]byte(raw), &subjects); err != nil {
			return fmt.Errorf("failed to decode subjects: %w", err)
		}
	}

	updated := sliceutil.SortedUnique(fn(subjects))

	if len(updated) == 0 {
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM user_settings WHERE user_id = ? AND key = ?`,
			userID, KeySubjects); err != nil {
			return fmt.Errorf("failed to clear subjects: %w", err)
		}
		return tx.Commit()
	}

	encoded, err := json.Marshal(updated)
	if err != nil {
		return fmt.Errorf("failed to encode subjects: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO user_settings (user_id, key, value, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(user_id, key) DO UPDATE SET
			value = excluded.value,
			updated_at = excluded.updated_at`,
		userID, KeySubjects, string(encoded), time.Now().Unix()); err != nil {
		return fmt.Errorf("failed to write subjects: %w", err)
	}

	return tx.Commit()
}
