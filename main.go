package main

import (
	"fmt"
	"log"
	"log/slog"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"billfold/internal/api"
	"billfold/internal/cache"
	"billfold/internal/config"
	"billfold/internal/session"
	"billfold/internal/ui"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		log.Fatalf("creating data dir: %v", err)
	}

	logger, closeLog, err := newLogger(cfg.LogPath)
	if err != nil {
		log.Fatalf("opening log file: %v", err)
	}
	defer closeLog()

	db, err := cache.Open(cfg.DBPath)
	if err != nil {
		log.Fatalf("opening local database: %v", err)
	}
	defer db.Close()

	client := api.NewClient(cfg.APIBaseURL, cfg.RequestTimeout)
	manager := session.NewManager(client, cache.NewSessionStore(db), cfg.RefreshThrottle, cfg.RefreshInterval, logger)
	client.SetTokenSource(manager)

	app := ui.NewApp(cfg, client, db, manager)
	p := tea.NewProgram(app, tea.WithAltScreen())
	app.SetProgram(p)
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	manager.StopAutoRefresh()
}

// newLogger writes structured logs to a file; the terminal belongs to the UI.
func newLogger(path string) (*slog.Logger, func(), error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, err
	}
	logger := slog.New(slog.NewJSONHandler(f, nil))
	return logger, func() { f.Close() }, nil
}
