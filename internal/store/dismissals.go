package store

import "fmt"

// Dismissed reminder ids persist across recomputation cycles; reminder
// ids are deterministic per rule and day, so a dismissal stays effective
// until the rule naturally produces a new id. Local-only state, so no
// watermark bump.

func (s *Store) DismissReminder(id string) error {
	_, err := s.db.Exec(
		`INSERT OR IGNORE INTO dismissed_reminders (id, dismissed_at) VALUES (?, ?)`,
		id, s.nowMs(),
	)
	if err != nil {
		return fmt.Errorf("dismiss reminder: %w", err)
	}
	return nil
}

func (s *Store) DismissedReminderIDs() (map[string]bool, error) {
	rows, err := s.db.Query(`SELECT id FROM dismissed_reminders`)
	if err != nil {
		return nil, fmt.Errorf("list dismissed reminders: %w", err)
	}
	defer rows.Close()

	ids := make(map[string]bool)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids[id] = true
	}
	return ids, rows.Err()
}
