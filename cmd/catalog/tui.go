package main

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/urfave/cli/v2"

	"github.com/abelbrown/catalog/internal/coord"
	"github.com/abelbrown/catalog/internal/logging"
	"github.com/abelbrown/catalog/internal/otel"
	"github.com/abelbrown/catalog/internal/ui"
)

func runTUI(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	if err := logging.Init(cfg.DataDir, logging.ParseLevel(cfg.LogLevel)); err != nil {
		return err
	}
	defer logging.Close()

	// Event log: JSONL file plus an in-memory ring for the debug overlay.
	ring := otel.NewRingBuffer(512)
	var events *otel.Logger
	if f, err := os.OpenFile(cfg.EventsPath(), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644); err != nil {
		logging.Warn("event log unavailable", "path", cfg.EventsPath(), "err", err)
		events = otel.NewNullLogger()
	} else {
		defer f.Close()
		events = otel.NewLogger(f)
	}
	events.SetRingBuffer(ring)
	defer events.Close()

	events.Emit(otel.Event{Level: otel.LevelInfo, Kind: otel.KindStartup, Comp: "main",
		Msg: "catalog started", Extra: map[string]any{"api": cfg.APIURL}})
	logging.Info("starting", "api", cfg.APIURL, "session", events.SessionID())

	client := newClient(cfg)
	coordinator := coord.New(coord.Config{
		Gateway:     client,
		Logger:      events,
		SearchDelay: cfg.SearchDelay.Std(),
		MinChars:    cfg.MinChars,
	})
	defer coordinator.Close()

	app := ui.NewApp(ui.Config{Coord: coordinator, Ring: ring, Logger: events})
	program := tea.NewProgram(app, tea.WithAltScreen())

	// Run UI (blocks until quit)
	if _, err := program.Run(); err != nil {
		logging.Error("program exited", "err", err)
		return fmt.Errorf("run program: %w", err)
	}

	events.Emit(otel.Event{Level: otel.LevelInfo, Kind: otel.KindShutdown, Comp: "main"})
	logging.Info("shutdown")
	return nil
}
