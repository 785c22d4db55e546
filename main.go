package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/talipakcelik/calisalim/internal/config"
	"github.com/talipakcelik/calisalim/internal/store"
	"github.com/talipakcelik/calisalim/internal/syncengine"
	"github.com/talipakcelik/calisalim/internal/timer"
	"github.com/talipakcelik/calisalim/internal/tui"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	dbPath := cfg.DB.Path
	if dbPath == "" {
		dbPath, err = store.DefaultDBPath()
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
	}

	log, logClose, err := openLogger(cfg, dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error opening log: %v\n", err)
		os.Exit(1)
	}
	defer logClose()

	s, err := store.New(dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error opening database: %v\n", err)
		os.Exit(1)
	}
	defer s.Close()

	if cfg.DailyTargetHours > 0 {
		if err := s.SetDailyTarget(cfg.DailyTargetHours); err != nil {
			log.Warn("set daily target", "error", err)
		}
	}

	var remote syncengine.Remote
	if cfg.SyncEnabled() {
		remote = syncengine.NewHTTPRemote(cfg.Sync.BaseURL, cfg.Sync.Token, cfg.Sync.Owner)
	}
	engine := syncengine.New(s, remote, log)
	defer engine.Close()

	if cfg.SyncEnabled() {
		go func() {
			if _, err := engine.Reconcile(context.Background()); err != nil {
				log.Warn("initial reconcile", "error", err)
			}
		}()
	}

	tracker := timer.NewTracker(s)

	app := tui.NewApp(s, tracker, engine)
	p := tea.NewProgram(app, tea.WithAltScreen())
	engine.SetOnStatusChange(func() { p.Send(tui.SyncStateChangedMsg{}) })

	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	// One last push so a timerless exit does not lose the debounced write.
	engine.Flush()
}

func openLogger(cfg config.Config, dbPath string) (*slog.Logger, func(), error) {
	path := cfg.Log.Path
	if path == "" {
		path = filepath.Join(filepath.Dir(dbPath), "calisalim.log")
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, nil, err
	}

	var level slog.Level
	switch strings.ToLower(cfg.Log.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	log := slog.New(slog.NewTextHandler(f, &slog.HandlerOptions{Level: level}))
	return log, func() { f.Close() }, nil
}
