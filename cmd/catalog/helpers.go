package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/abelbrown/catalog/internal/config"
	"github.com/abelbrown/catalog/internal/gateway"
)

// loadConfig reads the config file and applies the --api override.
func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, err
	}
	if api := c.String("api"); api != "" {
		cfg.APIURL = api
	}
	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}
	return cfg, nil
}

func newClient(cfg *config.Config) *gateway.Client {
	return gateway.New(cfg.APIURL, cfg.Timeout.Std(),
		gateway.WithSearchRate(cfg.SearchInterval.Std()))
}
