package store

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

func (s *Store) CreateReadingItem(item ReadingItem) (*ReadingItem, error) {
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	if item.UpdatedAt == 0 {
		item.UpdatedAt = s.nowMs()
	}
	err := s.mutate(func(tx *sql.Tx) error {
		_, err := tx.Exec(
			`INSERT INTO reading_items (id, title, authors, year, type, status, tags, url, doi, notes, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			item.ID, item.Title, item.Authors, item.Year, item.Type, item.Status,
			strings.Join(item.Tags, ","), item.URL, item.DOI, item.Notes, item.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("insert reading item: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Store) UpdateReadingItem(item ReadingItem) error {
	item.UpdatedAt = s.nowMs()
	return s.mutate(func(tx *sql.Tx) error {
		_, err := tx.Exec(
			`UPDATE reading_items SET title = ?, authors = ?, year = ?, type = ?, status = ?,
			 tags = ?, url = ?, doi = ?, notes = ?, updated_at = ? WHERE id = ?`,
			item.Title, item.Authors, item.Year, item.Type, item.Status,
			strings.Join(item.Tags, ","), item.URL, item.DOI, item.Notes, item.UpdatedAt, item.ID,
		)
		if err != nil {
			return fmt.Errorf("update reading item: %w", err)
		}
		return nil
	})
}

func (s *Store) DeleteReadingItem(id string) error {
	return s.mutate(func(tx *sql.Tx) error {
		if _, err := tx.Exec(`DELETE FROM reading_items WHERE id = ?`, id); err != nil {
			return fmt.Errorf("delete reading item: %w", err)
		}
		return nil
	})
}

func (s *Store) ListReadingItems() ([]ReadingItem, error) {
	rows, err := s.db.Query(
		`SELECT id, title, authors, year, type, status, tags, url, doi, notes, updated_at
		 FROM reading_items ORDER BY updated_at DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("list reading items: %w", err)
	}
	defer rows.Close()

	var items []ReadingItem
	for rows.Next() {
		var item ReadingItem
		var tags string
		if err := rows.Scan(&item.ID, &item.Title, &item.Authors, &item.Year, &item.Type,
			&item.Status, &tags, &item.URL, &item.DOI, &item.Notes, &item.UpdatedAt); err != nil {
			return nil, err
		}
		item.Tags = splitTags(tags)
		items = append(items, item)
	}
	return items, rows.Err()
}

func splitTags(raw string) []string {
	var tags []string
	for _, t := range strings.Split(raw, ",") {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}
