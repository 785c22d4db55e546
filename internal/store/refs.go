package store

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"
)

// Reference entities (categories, topics, projects, chapters) are
// foreign-keyed metadata: deleting one never cascades into sessions that
// point at it. Consumers resolve missing references with a fallback
// label instead of failing.

func (s *Store) CreateCategory(id, name, color string) (*Category, error) {
	if id == "" {
		id = uuid.NewString()
	}
	c := &Category{ID: id, Name: name, Color: color}
	err := s.mutate(func(tx *sql.Tx) error {
		if _, err := tx.Exec(`INSERT INTO categories (id, name, color) VALUES (?, ?, ?)`, c.ID, c.Name, c.Color); err != nil {
			return fmt.Errorf("insert category: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (s *Store) UpdateCategory(c Category) error {
	return s.mutate(func(tx *sql.Tx) error {
		if _, err := tx.Exec(`UPDATE categories SET name = ?, color = ? WHERE id = ?`, c.Name, c.Color, c.ID); err != nil {
			return fmt.Errorf("update category: %w", err)
		}
		return nil
	})
}

func (s *Store) DeleteCategory(id string) error {
	return s.mutate(func(tx *sql.Tx) error {
		if _, err := tx.Exec(`DELETE FROM categories WHERE id = ?`, id); err != nil {
			return fmt.Errorf("delete category: %w", err)
		}
		return nil
	})
}

func (s *Store) ListCategories() ([]Category, error) {
	rows, err := s.db.Query(`SELECT id, name, color FROM categories ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var cats []Category
	for rows.Next() {
		var c Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Color); err != nil {
			return nil, err
		}
		cats = append(cats, c)
	}
	return cats, rows.Err()
}

func (s *Store) CreateTopic(id, name, color string) (*Topic, error) {
	if id == "" {
		id = uuid.NewString()
	}
	t := &Topic{ID: id, Name: name, Color: color}
	err := s.mutate(func(tx *sql.Tx) error {
		if _, err := tx.Exec(`INSERT INTO topics (id, name, color) VALUES (?, ?, ?)`, t.ID, t.Name, t.Color); err != nil {
			return fmt.Errorf("insert topic: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return t, nil
}

func (s *Store) DeleteTopic(id string) error {
	return s.mutate(func(tx *sql.Tx) error {
		if _, err := tx.Exec(`DELETE FROM topics WHERE id = ?`, id); err != nil {
			return fmt.Errorf("delete topic: %w", err)
		}
		return nil
	})
}

func (s *Store) ListTopics() ([]Topic, error) {
	rows, err := s.db.Query(`SELECT id, name, color FROM topics ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list topics: %w", err)
	}
	defer rows.Close()

	var topics []Topic
	for rows.Next() {
		var t Topic
		if err := rows.Scan(&t.ID, &t.Name, &t.Color); err != nil {
			return nil, err
		}
		topics = append(topics, t)
	}
	return topics, rows.Err()
}

func (s *Store) CreateProject(p Project) (*Project, error) {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.CreatedAt == 0 {
		p.CreatedAt = s.nowMs()
	}
	err := s.mutate(func(tx *sql.Tx) error {
		_, err := tx.Exec(
			`INSERT INTO projects (id, title, type, goal, deadline, category_id, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
			p.ID, p.Title, p.Type, p.Goal, p.Deadline, p.CategoryID, p.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("insert project: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *Store) UpdateProject(p Project) error {
	return s.mutate(func(tx *sql.Tx) error {
		_, err := tx.Exec(
			`UPDATE projects SET title = ?, type = ?, goal = ?, deadline = ?, category_id = ? WHERE id = ?`,
			p.Title, p.Type, p.Goal, p.Deadline, p.CategoryID, p.ID,
		)
		if err != nil {
			return fmt.Errorf("update project: %w", err)
		}
		return nil
	})
}

func (s *Store) DeleteProject(id string) error {
	return s.mutate(func(tx *sql.Tx) error {
		if _, err := tx.Exec(`DELETE FROM projects WHERE id = ?`, id); err != nil {
			return fmt.Errorf("delete project: %w", err)
		}
		return nil
	})
}

func (s *Store) ListProjects() ([]Project, error) {
	rows, err := s.db.Query(`SELECT id, title, type, goal, deadline, category_id, created_at FROM projects ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	var projects []Project
	for rows.Next() {
		var p Project
		if err := rows.Scan(&p.ID, &p.Title, &p.Type, &p.Goal, &p.Deadline, &p.CategoryID, &p.CreatedAt); err != nil {
			return nil, err
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

func (s *Store) CreateChapter(c Chapter) (*Chapter, error) {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	err := s.mutate(func(tx *sql.Tx) error {
		_, err := tx.Exec(
			`INSERT INTO chapters (id, title, project_id, word_goal, current_words, status, sort_order, deadline, notes)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			c.ID, c.Title, c.ProjectID, c.WordGoal, c.CurrentWords, c.Status, c.Order, c.Deadline, c.Notes,
		)
		if err != nil {
			return fmt.Errorf("insert chapter: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *Store) UpdateChapter(c Chapter) error {
	return s.mutate(func(tx *sql.Tx) error {
		_, err := tx.Exec(
			`UPDATE chapters SET title = ?, project_id = ?, word_goal = ?, current_words = ?,
			 status = ?, sort_order = ?, deadline = ?, notes = ? WHERE id = ?`,
			c.Title, c.ProjectID, c.WordGoal, c.CurrentWords, c.Status, c.Order, c.Deadline, c.Notes, c.ID,
		)
		if err != nil {
			return fmt.Errorf("update chapter: %w", err)
		}
		return nil
	})
}

func (s *Store) DeleteChapter(id string) error {
	return s.mutate(func(tx *sql.Tx) error {
		if _, err := tx.Exec(`DELETE FROM chapters WHERE id = ?`, id); err != nil {
			return fmt.Errorf("delete chapter: %w", err)
		}
		return nil
	})
}

func (s *Store) ListChapters(projectID string) ([]Chapter, error) {
	query := `SELECT id, title, project_id, word_goal, current_words, status, sort_order, deadline, notes FROM chapters`
	var args []any
	if projectID != "" {
		query += ` WHERE project_id = ?`
		args = append(args, projectID)
	}
	query += ` ORDER BY sort_order, title`

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list chapters: %w", err)
	}
	defer rows.Close()

	var chapters []Chapter
	for rows.Next() {
		var c Chapter
		if err := rows.Scan(&c.ID, &c.Title, &c.ProjectID, &c.WordGoal, &c.CurrentWords, &c.Status, &c.Order, &c.Deadline, &c.Notes); err != nil {
			return nil, err
		}
		chapters = append(chapters, c)
	}
	return chapters, rows.Err()
}
