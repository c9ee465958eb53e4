// Command catalog is the terminal product catalog.
//
// Usage:
//
//	catalog                 Run the TUI
//	catalog list            Print the product list
//	catalog search <query>  Run one AI search and print the results
//	catalog events          JSONL event log viewer
package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:  "catalog",
		Usage: "browse and edit the product catalog",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "config",
				Usage: "config file (default ~/.catalog/config.json)",
			},
			&cli.StringFlag{
				Name:    "api",
				Usage:   "product API base URL",
				EnvVars: []string{"CATALOG_API_URL"},
			},
		},
		Action: runTUI,
		Commands: []*cli.Command{
			listCommand(),
			searchCommand(),
			eventsCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "catalog: %v\n", err)
		os.Exit(1)
	}
}
