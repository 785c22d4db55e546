package store

import (
	"errors"
	"fmt"

	"github.com/talipakcelik/calisalim/internal/timeutil"
)

// ErrValidation marks rejected writes (e.g. a session ending before it
// starts). Callers test with errors.Is; the store is left untouched.
var ErrValidation = errors.New("validation failed")

// DefaultThesisProjectID receives the word counts of daily logs created
// before per-project breakdowns existed.
const DefaultThesisProjectID = "default-thesis"

type Category struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
}

type Topic struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color,omitempty"`
}

// ReadingItem is a bibliographic source sessions may reference.
type ReadingItem struct {
	ID        string   `json:"id"`
	Title     string   `json:"title"`
	Authors   string   `json:"authors,omitempty"`
	Year      string   `json:"year,omitempty"`
	Type      string   `json:"type"`   // book, article, chapter, thesis, other
	Status    string   `json:"status"` // to_read, reading, done
	Tags      []string `json:"tags"`
	URL       string   `json:"url,omitempty"`
	DOI       string   `json:"doi,omitempty"`
	Notes     string   `json:"notes,omitempty"`
	UpdatedAt int64    `json:"updatedAt"`
}

type Project struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	Type       string `json:"type"` // thesis, article, book, other
	Goal       int64  `json:"goal"` // total word count goal
	Deadline   int64  `json:"deadline,omitempty"`
	CategoryID string `json:"categoryId,omitempty"`
	CreatedAt  int64  `json:"createdAt"`
}

type Chapter struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	ProjectID    string `json:"projectId"`
	WordGoal     int64  `json:"wordCountGoal"`
	CurrentWords int64  `json:"currentWordCount"`
	Status       string `json:"status"` // draft, revision, completed
	Order        int    `json:"order"`
	Deadline     int64  `json:"deadline,omitempty"`
	Notes        string `json:"notes,omitempty"`
}

// Session is a completed, immutable-once-stopped tracking interval.
// Start and End are epoch milliseconds; PausedMs is total paused wall
// time inside [Start, End].
type Session struct {
	ID         string `json:"id"`
	CategoryID string `json:"categoryId"`
	TopicID    string `json:"topicId,omitempty"`
	SourceID   string `json:"sourceId,omitempty"`
	ProjectID  string `json:"projectId,omitempty"`
	ChapterID  string `json:"chapterId,omitempty"`
	Label      string `json:"label"`
	Start      int64  `json:"start"`
	End        int64  `json:"end"`
	PausedMs   int64  `json:"pausedMs,omitempty"`
}

// ActiveMs is the session's pause-excluded working time.
func (s Session) ActiveMs() int64 {
	return timeutil.ActiveMs(s.Start, s.End, s.PausedMs)
}

// WallMs is the session's wall-clock span.
func (s Session) WallMs() int64 {
	return timeutil.WallMs(s.Start, s.End)
}

// Validate enforces the session invariants from the data model.
func (s Session) Validate() error {
	if s.CategoryID == "" {
		return fmt.Errorf("%w: session has no category", ErrValidation)
	}
	if s.End < s.Start {
		return fmt.Errorf("%w: session ends before it starts", ErrValidation)
	}
	if s.PausedMs < 0 {
		return fmt.Errorf("%w: negative paused time", ErrValidation)
	}
	if s.PausedMs > s.End-s.Start {
		return fmt.Errorf("%w: paused time exceeds session span", ErrValidation)
	}
	return nil
}

// DailyLog is the word-count record for one local calendar day.
// ProjectBreakdown, when present, is the source of truth; WordCount is
// the legacy aggregate kept for logs that predate breakdowns.
type DailyLog struct {
	Date             string           `json:"date"` // YYYY-MM-DD
	WordCount        int64            `json:"wordCount"`
	ProjectBreakdown map[string]int64 `json:"projectBreakdown,omitempty"`
	Note             string           `json:"note,omitempty"`
}

// WordsFor resolves the log's word count for one project. Logs without a
// breakdown attribute entirely to the designated legacy project so that
// pre-breakdown history is never double counted.
func (l DailyLog) WordsFor(projectID string) int64 {
	if l.ProjectBreakdown != nil {
		return l.ProjectBreakdown[projectID]
	}
	if projectID == DefaultThesisProjectID {
		return l.WordCount
	}
	return 0
}

type Milestone struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Date  int64  `json:"date"`
	Done  bool   `json:"done"`
}

// Snapshot is the full exportable/sync-able state. The last-modified
// watermark travels alongside it, not inside it.
type Snapshot struct {
	Categories  []Category    `json:"categories"`
	Topics      []Topic       `json:"topics"`
	Reading     []ReadingItem `json:"reading"`
	Sessions    []Session     `json:"sessions"`
	DailyTarget float64       `json:"dailyTarget"` // hours per day
	DailyLogs   []DailyLog    `json:"dailyLogs,omitempty"`
	Milestones  []Milestone   `json:"milestones,omitempty"`
	Projects    []Project     `json:"projects,omitempty"`
	Chapters    []Chapter     `json:"chapters,omitempty"`
}

// SessionFilter narrows session listings.
type SessionFilter struct {
	CategoryID string
	ProjectID  string
	From       int64 // inclusive, on start
	To         int64 // exclusive, on start
	Limit      int
}
