package store

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"
)

func (s *Store) AddMilestone(title string, dateMs int64) (*Milestone, error) {
	if title == "" {
		return nil, fmt.Errorf("%w: milestone needs a title", ErrValidation)
	}
	m := &Milestone{ID: uuid.NewString(), Title: title, Date: dateMs}
	err := s.mutate(func(tx *sql.Tx) error {
		_, err := tx.Exec(
			`INSERT INTO milestones (id, title, date, done) VALUES (?, ?, ?, 0)`,
			m.ID, m.Title, m.Date,
		)
		if err != nil {
			return fmt.Errorf("insert milestone: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return m, nil
}

func (s *Store) UpdateMilestone(m Milestone) error {
	return s.mutate(func(tx *sql.Tx) error {
		_, err := tx.Exec(
			`UPDATE milestones SET title = ?, date = ?, done = ? WHERE id = ?`,
			m.Title, m.Date, boolToInt(m.Done), m.ID,
		)
		if err != nil {
			return fmt.Errorf("update milestone: %w", err)
		}
		return nil
	})
}

// ToggleMilestone flips done independently of the milestone's date.
func (s *Store) ToggleMilestone(id string) error {
	return s.mutate(func(tx *sql.Tx) error {
		res, err := tx.Exec(`UPDATE milestones SET done = 1 - done WHERE id = ?`, id)
		if err != nil {
			return fmt.Errorf("toggle milestone: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return fmt.Errorf("toggle milestone %s: %w", id, sql.ErrNoRows)
		}
		return nil
	})
}

func (s *Store) DeleteMilestone(id string) error {
	return s.mutate(func(tx *sql.Tx) error {
		if _, err := tx.Exec(`DELETE FROM milestones WHERE id = ?`, id); err != nil {
			return fmt.Errorf("delete milestone: %w", err)
		}
		return nil
	})
}

func (s *Store) ListMilestones() ([]Milestone, error) {
	rows, err := s.db.Query(`SELECT id, title, date, done FROM milestones ORDER BY date`)
	if err != nil {
		return nil, fmt.Errorf("list milestones: %w", err)
	}
	defer rows.Close()

	var milestones []Milestone
	for rows.Next() {
		var m Milestone
		var done int
		if err := rows.Scan(&m.ID, &m.Title, &m.Date, &done); err != nil {
			return nil, err
		}
		m.Done = done == 1
		milestones = append(milestones, m)
	}
	return milestones, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
