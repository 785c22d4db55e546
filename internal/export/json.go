package export

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/talipakcelik/calisalim/internal/store"
	"github.com/talipakcelik/calisalim/internal/timeutil"
)

type jsonExport struct {
	ExportedAt string      `json:"exported_at"`
	Count      int         `json:"count"`
	Sessions   []jsonEntry `json:"sessions"`
}

type jsonEntry struct {
	ID         string `json:"id"`
	Category   string `json:"category"`
	CategoryID string `json:"category_id"`
	Label      string `json:"label,omitempty"`
	Start      string `json:"start"`
	End        string `json:"end"`
	ActiveMs   int64  `json:"active_ms"`
	Active     string `json:"active"`
	PausedMs   int64  `json:"paused_ms,omitempty"`
}

func ToJSON(sessions []store.Session, categories map[string]*store.Category, path string) error {
	export := jsonExport{
		ExportedAt: time.Now().UTC().Format(time.RFC3339),
		Count:      len(sessions),
	}

	for _, s := range sessions {
		export.Sessions = append(export.Sessions, jsonEntry{
			ID:         s.ID,
			Category:   categoryName(categories, s.CategoryID),
			CategoryID: s.CategoryID,
			Label:      s.Label,
			Start:      time.UnixMilli(s.Start).Local().Format(time.RFC3339),
			End:        time.UnixMilli(s.End).Local().Format(time.RFC3339),
			ActiveMs:   s.ActiveMs(),
			Active:     timeutil.FormatClock(time.Duration(s.ActiveMs()) * time.Millisecond),
			PausedMs:   s.PausedMs,
		})
	}

	data, err := json.MarshalIndent(export, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write json file: %w", err)
	}
	return nil
}
