package store

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"
)

const sessionCols = `id, category_id, topic_id, source_id, project_id, chapter_id, label, start_ms, end_ms, paused_ms`

// CreateSession validates and inserts a completed session. A missing ID
// is assigned. Used both by the timer at stop-time and by manual entry.
func (s *Store) CreateSession(sess Session) (*Session, error) {
	if sess.ID == "" {
		sess.ID = uuid.NewString()
	}
	if err := sess.Validate(); err != nil {
		return nil, err
	}
	err := s.mutate(func(tx *sql.Tx) error {
		_, err := tx.Exec(
			`INSERT INTO sessions (`+sessionCols+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			sess.ID, sess.CategoryID, sess.TopicID, sess.SourceID, sess.ProjectID,
			sess.ChapterID, sess.Label, sess.Start, sess.End, sess.PausedMs,
		)
		if err != nil {
			return fmt.Errorf("insert session: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &sess, nil
}

// UpdateSession replaces an existing session after validation.
func (s *Store) UpdateSession(sess Session) error {
	if err := sess.Validate(); err != nil {
		return err
	}
	return s.mutate(func(tx *sql.Tx) error {
		res, err := tx.Exec(
			`UPDATE sessions SET category_id = ?, topic_id = ?, source_id = ?, project_id = ?,
			 chapter_id = ?, label = ?, start_ms = ?, end_ms = ?, paused_ms = ? WHERE id = ?`,
			sess.CategoryID, sess.TopicID, sess.SourceID, sess.ProjectID,
			sess.ChapterID, sess.Label, sess.Start, sess.End, sess.PausedMs, sess.ID,
		)
		if err != nil {
			return fmt.Errorf("update session: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return fmt.Errorf("update session %s: %w", sess.ID, sql.ErrNoRows)
		}
		return nil
	})
}

// DeleteSession removes a session unconditionally. Irreversible;
// confirmation is the caller's concern.
func (s *Store) DeleteSession(id string) error {
	return s.mutate(func(tx *sql.Tx) error {
		if _, err := tx.Exec(`DELETE FROM sessions WHERE id = ?`, id); err != nil {
			return fmt.Errorf("delete session: %w", err)
		}
		return nil
	})
}

func (s *Store) GetSession(id string) (*Session, error) {
	row := s.db.QueryRow(`SELECT `+sessionCols+` FROM sessions WHERE id = ?`, id)
	sess, err := scanSession(row)
	if err != nil {
		return nil, fmt.Errorf("get session %s: %w", id, err)
	}
	return sess, nil
}

// ListSessions returns sessions newest-first.
func (s *Store) ListSessions(f SessionFilter) ([]Session, error) {
	query := `SELECT ` + sessionCols + ` FROM sessions WHERE 1=1`
	var args []any

	if f.CategoryID != "" {
		query += ` AND category_id = ?`
		args = append(args, f.CategoryID)
	}
	if f.ProjectID != "" {
		query += ` AND project_id = ?`
		args = append(args, f.ProjectID)
	}
	if f.From != 0 {
		query += ` AND start_ms >= ?`
		args = append(args, f.From)
	}
	if f.To != 0 {
		query += ` AND start_ms < ?`
		args = append(args, f.To)
	}
	query += ` ORDER BY start_ms DESC`
	if f.Limit > 0 {
		query += fmt.Sprintf(` LIMIT %d`, f.Limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var sessions []Session
	for rows.Next() {
		var sess Session
		if err := rows.Scan(
			&sess.ID, &sess.CategoryID, &sess.TopicID, &sess.SourceID, &sess.ProjectID,
			&sess.ChapterID, &sess.Label, &sess.Start, &sess.End, &sess.PausedMs,
		); err != nil {
			return nil, err
		}
		sessions = append(sessions, sess)
	}
	return sessions, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (*Session, error) {
	sess := &Session{}
	err := row.Scan(
		&sess.ID, &sess.CategoryID, &sess.TopicID, &sess.SourceID, &sess.ProjectID,
		&sess.ChapterID, &sess.Label, &sess.Start, &sess.End, &sess.PausedMs,
	)
	if err != nil {
		return nil, err
	}
	return sess, nil
}
