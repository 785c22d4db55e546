package export

import (
	"encoding/csv"
	"fmt"
	"os"
	"time"

	"github.com/talipakcelik/calisalim/internal/store"
	"github.com/talipakcelik/calisalim/internal/timeutil"
)

func ToCSV(sessions []store.Session, categories map[string]*store.Category, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create csv file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	// Header
	if err := w.Write([]string{"ID", "Category", "Label", "Start", "End", "Active (ms)", "Active", "Paused (ms)"}); err != nil {
		return err
	}

	for _, s := range sessions {
		row := []string{
			s.ID,
			categoryName(categories, s.CategoryID),
			s.Label,
			time.UnixMilli(s.Start).Local().Format(time.RFC3339),
			time.UnixMilli(s.End).Local().Format(time.RFC3339),
			fmt.Sprintf("%d", s.ActiveMs()),
			timeutil.FormatClock(time.Duration(s.ActiveMs()) * time.Millisecond),
			fmt.Sprintf("%d", s.PausedMs),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	return w.Error()
}

// categoryName resolves a category id, falling back to the raw id when
// the session points at a deleted category.
func categoryName(categories map[string]*store.Category, id string) string {
	if c, ok := categories[id]; ok {
		return c.Name
	}
	return id
}
