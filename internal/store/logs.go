package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
)

// UpsertDailyLog records words written on one calendar day. With a
// project id the count lands in that project's breakdown entry and the
// legacy aggregate is recomputed as the breakdown sum; without one, only
// the legacy aggregate is set (pre-breakdown behavior). One logical row
// per date, never duplicated.
func (s *Store) UpsertDailyLog(date string, wordCount int64, projectID, note string) (*DailyLog, error) {
	if wordCount < 0 {
		return nil, fmt.Errorf("%w: negative word count", ErrValidation)
	}

	log, err := s.GetDailyLog(date)
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = &DailyLog{Date: date}
	}

	if projectID != "" {
		if log.ProjectBreakdown == nil {
			log.ProjectBreakdown = map[string]int64{}
			// First breakdown entry on a legacy log: shift the old
			// aggregate onto the designated legacy project so it is
			// still attributed exactly once.
			if log.WordCount > 0 {
				log.ProjectBreakdown[DefaultThesisProjectID] = log.WordCount
			}
		}
		log.ProjectBreakdown[projectID] = wordCount
		var sum int64
		for _, n := range log.ProjectBreakdown {
			sum += n
		}
		log.WordCount = sum
	} else {
		log.WordCount = wordCount
	}
	if note != "" {
		log.Note = note
	}

	breakdown, err := encodeBreakdown(log.ProjectBreakdown)
	if err != nil {
		return nil, err
	}

	err = s.mutate(func(tx *sql.Tx) error {
		_, err := tx.Exec(
			`INSERT INTO daily_logs (date, word_count, breakdown, note) VALUES (?, ?, ?, ?)
			 ON CONFLICT(date) DO UPDATE SET word_count = excluded.word_count,
			 breakdown = excluded.breakdown, note = excluded.note`,
			log.Date, log.WordCount, breakdown, log.Note,
		)
		if err != nil {
			return fmt.Errorf("upsert daily log: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return log, nil
}

func (s *Store) GetDailyLog(date string) (*DailyLog, error) {
	log := &DailyLog{}
	var breakdown string
	err := s.db.QueryRow(
		`SELECT date, word_count, breakdown, note FROM daily_logs WHERE date = ?`, date,
	).Scan(&log.Date, &log.WordCount, &breakdown, &log.Note)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get daily log %s: %w", date, err)
	}
	if log.ProjectBreakdown, err = decodeBreakdown(breakdown); err != nil {
		return nil, err
	}
	return log, nil
}

func (s *Store) DeleteDailyLog(date string) error {
	return s.mutate(func(tx *sql.Tx) error {
		if _, err := tx.Exec(`DELETE FROM daily_logs WHERE date = ?`, date); err != nil {
			return fmt.Errorf("delete daily log: %w", err)
		}
		return nil
	})
}

// ListDailyLogs returns logs oldest-first by date.
func (s *Store) ListDailyLogs() ([]DailyLog, error) {
	rows, err := s.db.Query(`SELECT date, word_count, breakdown, note FROM daily_logs ORDER BY date`)
	if err != nil {
		return nil, fmt.Errorf("list daily logs: %w", err)
	}
	defer rows.Close()

	var logs []DailyLog
	for rows.Next() {
		var log DailyLog
		var breakdown string
		if err := rows.Scan(&log.Date, &log.WordCount, &breakdown, &log.Note); err != nil {
			return nil, err
		}
		if log.ProjectBreakdown, err = decodeBreakdown(breakdown); err != nil {
			return nil, err
		}
		logs = append(logs, log)
	}
	return logs, rows.Err()
}

func encodeBreakdown(b map[string]int64) (string, error) {
	if len(b) == 0 {
		return "", nil
	}
	data, err := json.Marshal(b)
	if err != nil {
		return "", fmt.Errorf("encode breakdown: %w", err)
	}
	return string(data), nil
}

func decodeBreakdown(raw string) (map[string]int64, error) {
	if raw == "" {
		return nil, nil
	}
	var b map[string]int64
	if err := json.Unmarshal([]byte(raw), &b); err != nil {
		return nil, fmt.Errorf("decode breakdown: %w", err)
	}
	return b, nil
}
