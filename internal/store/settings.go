package store

import (
	"database/sql"
	"fmt"
	"strconv"
)

const (
	keyDailyTarget  = "daily_target_hours"
	keyRunningTimer = "running_timer"
)

func (s *Store) GetSetting(key string) (string, error) {
	var value string
	err := s.db.QueryRow(`SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("get setting %q: %w", key, err)
	}
	return value, nil
}

func (s *Store) setSetting(tx *sql.Tx, key, value string) error {
	_, err := tx.Exec(
		`INSERT INTO settings (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, value,
	)
	return err
}

// DailyTarget is the tracked-hours-per-day goal. Part of the snapshot,
// so changing it advances the watermark.
func (s *Store) DailyTarget() (float64, error) {
	raw, err := s.GetSetting(keyDailyTarget)
	if err != nil {
		return 0, err
	}
	if raw == "" {
		return 2, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 2, nil
	}
	return v, nil
}

func (s *Store) SetDailyTarget(hours float64) error {
	if hours < 0 {
		return fmt.Errorf("%w: negative daily target", ErrValidation)
	}
	return s.mutate(func(tx *sql.Tx) error {
		return s.setSetting(tx, keyDailyTarget, strconv.FormatFloat(hours, 'g', -1, 64))
	})
}

// RunningTimerState stores the serialized running timer so an
// interrupted process can resume it. Deliberately does not touch the
// watermark: the running timer is transient and never synced.
func (s *Store) RunningTimerState() (string, error) {
	return s.GetSetting(keyRunningTimer)
}

func (s *Store) SetRunningTimerState(raw string) error {
	if raw == "" {
		_, err := s.db.Exec(`DELETE FROM settings WHERE key = ?`, keyRunningTimer)
		if err != nil {
			return fmt.Errorf("clear running timer: %w", err)
		}
		return nil
	}
	_, err := s.db.Exec(
		`INSERT INTO settings (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		keyRunningTimer, raw,
	)
	if err != nil {
		return fmt.Errorf("save running timer: %w", err)
	}
	return nil
}
