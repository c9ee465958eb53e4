// Command catalogd serves the product API the catalog TUI talks to.
//
// Products live in SQLite (in memory unless --db is given). The AI search
// endpoint parses the query with a keyword parser.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"

	"github.com/abelbrown/catalog/internal/config"
	"github.com/abelbrown/catalog/internal/devserver"
	"github.com/abelbrown/catalog/internal/logging"
	"github.com/abelbrown/catalog/internal/otel"
	"github.com/abelbrown/catalog/internal/store"
)

// shutdownTimeout bounds how long in-flight requests get on exit.
const shutdownTimeout = 5 * time.Second

func main() {
	app := &cli.App{
		Name:  "catalogd",
		Usage: "development product API",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Usage: "config file (default ~/.catalog/config.json)"},
			&cli.StringFlag{Name: "listen", Usage: "listen address (overrides config)"},
			&cli.StringFlag{Name: "db", Usage: "SQLite file (default in-memory)"},
			&cli.BoolFlag{Name: "no-seed", Usage: "start with an empty catalog"},
			&cli.BoolFlag{Name: "events", Usage: "write JSONL request events to stdout"},
		},
		Action: run,
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "catalogd: %v\n", err)
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return err
	}
	if v := c.String("listen"); v != "" {
		cfg.Listen = v
	}
	if v := c.String("db"); v != "" {
		cfg.DBPath = v
	}
	if c.Bool("no-seed") {
		cfg.Seed = false
	}

	logging.SetOutput(os.Stderr, logging.ParseLevel(cfg.LogLevel))

	events := otel.NewNullLogger()
	if c.Bool("events") {
		events = otel.NewLogger(os.Stdout)
	}
	defer events.Close()

	st, err := store.Open(cfg.DBPath)
	if err != nil {
		return err
	}
	defer st.Close()

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Seed {
		n, err := seedIfEmpty(ctx, st)
		if err != nil {
			return err
		}
		if n > 0 {
			logging.Info("seeded catalog", "products", n)
		}
	}

	srv := &http.Server{
		Addr:              cfg.Listen,
		Handler:           devserver.New(st, events),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logging.Info("listening", "addr", cfg.Listen, "db", dbLabel(cfg.DBPath))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		logging.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// seedIfEmpty loads the sample products into an empty store and returns how
// many were added.
func seedIfEmpty(ctx context.Context, st *store.Store) (int, error) {
	n, err := st.Count(ctx)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		return 0, nil
	}
	samples := devserver.SampleProducts()
	if err := st.Seed(ctx, samples); err != nil {
		return 0, fmt.Errorf("seed: %w", err)
	}
	return len(samples), nil
}

func dbLabel(path string) string {
	if path == "" || path == ":memory:" {
		return "memory"
	}
	return path
}
