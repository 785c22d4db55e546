package store

import (
	"fmt"
	"strconv"
	"strings"
)

// Snapshot exports the full syncable state together with the watermark
// it was read at.
func (s *Store) Snapshot() (*Snapshot, int64, error) {
	snap := &Snapshot{}
	var err error

	if snap.Categories, err = s.ListCategories(); err != nil {
		return nil, 0, err
	}
	if snap.Topics, err = s.ListTopics(); err != nil {
		return nil, 0, err
	}
	if snap.Reading, err = s.ListReadingItems(); err != nil {
		return nil, 0, err
	}
	if snap.Sessions, err = s.ListSessions(SessionFilter{}); err != nil {
		return nil, 0, err
	}
	if snap.DailyLogs, err = s.ListDailyLogs(); err != nil {
		return nil, 0, err
	}
	if snap.Milestones, err = s.ListMilestones(); err != nil {
		return nil, 0, err
	}
	if snap.Projects, err = s.ListProjects(); err != nil {
		return nil, 0, err
	}
	if snap.Chapters, err = s.ListChapters(""); err != nil {
		return nil, 0, err
	}
	if snap.DailyTarget, err = s.DailyTarget(); err != nil {
		return nil, 0, err
	}

	watermark, err := s.LastModified()
	if err != nil {
		return nil, 0, err
	}
	return snap, watermark, nil
}

// ImportSnapshot replaces every collection wholesale with the remote
// snapshot's contents and pins the watermark to the remote's. Full
// replacement, not a field merge: local edits strictly older than the
// remote snapshot are discarded by design. Atomic — either the whole
// snapshot lands or nothing does.
func (s *Store) ImportSnapshot(snap Snapshot, watermarkMs int64) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin import: %w", err)
	}

	apply := func() error {
		for _, table := range []string{
			"categories", "topics", "reading_items", "sessions",
			"daily_logs", "milestones", "projects", "chapters",
		} {
			if _, err := tx.Exec(`DELETE FROM ` + table); err != nil {
				return fmt.Errorf("clear %s: %w", table, err)
			}
		}

		for _, c := range snap.Categories {
			if _, err := tx.Exec(`INSERT INTO categories (id, name, color) VALUES (?, ?, ?)`, c.ID, c.Name, c.Color); err != nil {
				return fmt.Errorf("import category: %w", err)
			}
		}
		for _, t := range snap.Topics {
			if _, err := tx.Exec(`INSERT INTO topics (id, name, color) VALUES (?, ?, ?)`, t.ID, t.Name, t.Color); err != nil {
				return fmt.Errorf("import topic: %w", err)
			}
		}
		for _, r := range snap.Reading {
			if _, err := tx.Exec(
				`INSERT INTO reading_items (id, title, authors, year, type, status, tags, url, doi, notes, updated_at)
				 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				r.ID, r.Title, r.Authors, r.Year, r.Type, r.Status,
				strings.Join(r.Tags, ","), r.URL, r.DOI, r.Notes, r.UpdatedAt,
			); err != nil {
				return fmt.Errorf("import reading item: %w", err)
			}
		}
		for _, sess := range snap.Sessions {
			if _, err := tx.Exec(
				`INSERT INTO sessions (`+sessionCols+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				sess.ID, sess.CategoryID, sess.TopicID, sess.SourceID, sess.ProjectID,
				sess.ChapterID, sess.Label, sess.Start, sess.End, sess.PausedMs,
			); err != nil {
				return fmt.Errorf("import session: %w", err)
			}
		}
		for _, l := range snap.DailyLogs {
			breakdown, err := encodeBreakdown(l.ProjectBreakdown)
			if err != nil {
				return err
			}
			if _, err := tx.Exec(
				`INSERT INTO daily_logs (date, word_count, breakdown, note) VALUES (?, ?, ?, ?)`,
				l.Date, l.WordCount, breakdown, l.Note,
			); err != nil {
				return fmt.Errorf("import daily log: %w", err)
			}
		}
		for _, m := range snap.Milestones {
			if _, err := tx.Exec(
				`INSERT INTO milestones (id, title, date, done) VALUES (?, ?, ?, ?)`,
				m.ID, m.Title, m.Date, boolToInt(m.Done),
			); err != nil {
				return fmt.Errorf("import milestone: %w", err)
			}
		}
		for _, p := range snap.Projects {
			if _, err := tx.Exec(
				`INSERT INTO projects (id, title, type, goal, deadline, category_id, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
				p.ID, p.Title, p.Type, p.Goal, p.Deadline, p.CategoryID, p.CreatedAt,
			); err != nil {
				return fmt.Errorf("import project: %w", err)
			}
		}
		for _, c := range snap.Chapters {
			if _, err := tx.Exec(
				`INSERT INTO chapters (id, title, project_id, word_goal, current_words, status, sort_order, deadline, notes)
				 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				c.ID, c.Title, c.ProjectID, c.WordGoal, c.CurrentWords, c.Status, c.Order, c.Deadline, c.Notes,
			); err != nil {
				return fmt.Errorf("import chapter: %w", err)
			}
		}

		if err := s.setSetting(tx, keyDailyTarget, strconv.FormatFloat(snap.DailyTarget, 'g', -1, 64)); err != nil {
			return fmt.Errorf("import daily target: %w", err)
		}

		if _, err := tx.Exec(`UPDATE meta SET updated_at = ? WHERE id = 1`, watermarkMs); err != nil {
			return fmt.Errorf("pin watermark: %w", err)
		}
		return nil
	}

	if err := apply(); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}
