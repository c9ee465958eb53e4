package main

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/urfave/cli/v2"

	"github.com/abelbrown/catalog/internal/filter"
	"github.com/abelbrown/catalog/internal/gateway"
	"github.com/abelbrown/catalog/internal/product"
)

func listCommand() *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "print the product list",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "filter", Aliases: []string{"f"}, Usage: "substring of id, name or description"},
			&cli.StringFlag{Name: "sort", Value: "id", Usage: "id, name, description, price or quantity"},
			&cli.BoolFlag{Name: "desc", Usage: "sort descending"},
		},
		Action: func(c *cli.Context) error {
			field, err := filter.ParseField(c.String("sort"))
			if err != nil {
				return err
			}
			key := filter.SortKey{Field: field, Dir: filter.Asc}
			if c.Bool("desc") {
				key.Dir = filter.Desc
			}

			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			products, err := newClient(cfg).ListProducts(c.Context)
			if err != nil {
				return errors.New(gateway.Message(err))
			}

			visible := filter.Compute(products, c.String("filter"), key)
			printProducts(c.App.Writer, visible)
			sum := filter.Summarize(visible)
			fmt.Fprintf(c.App.Writer, "\n%d of %d products, %d units, stock value %s\n",
				sum.Count, len(products), sum.Units, product.Currency(sum.StockValue))
			return nil
		},
	}
}

func searchCommand() *cli.Command {
	return &cli.Command{
		Name:      "search",
		Usage:     "run one AI search",
		ArgsUsage: "<query>",
		Action: func(c *cli.Context) error {
			query := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
			if query == "" {
				return errors.New("usage: catalog search <query>")
			}

			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			products, err := newClient(cfg).AISearch(c.Context, query)
			if err != nil {
				return errors.New("AI search failed: " + gateway.Message(err))
			}
			if len(products) == 0 {
				fmt.Fprintln(c.App.Writer, "No products found matching your AI search.")
				return nil
			}
			printProducts(c.App.Writer, products)
			return nil
		},
	}
}

// printProducts writes an aligned table in the order given.
func printProducts(w io.Writer, products []product.Product) {
	if len(products) == 0 {
		fmt.Fprintln(w, "No products found.")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tDESCRIPTION\tPRICE\tQTY")
	for _, p := range products {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%d\n", p.ID, p.Name, truncate(p.Description, 40),
			product.Currency(p.Price), p.Quantity)
	}
	tw.Flush()
}

// truncate shortens a string to max runes, appending "..." if truncated.
func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-3]) + "..."
}
