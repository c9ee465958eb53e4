// Package filter provides the local filter/sort pipeline for products.
// All functions are pure: []Product in, new []Product out. The input slice is
// never reordered, so the list tab and the AI tab can share one backing array.
package filter

import (
	"strconv"
	"strings"

	"github.com/abelbrown/catalog/internal/product"
)

// Compute filters products by text and returns a sorted copy.
func Compute(products []product.Product, text string, key SortKey) []product.Product {
	return Sort(ByText(products, text), key)
}

// ByText keeps products whose decimal id, name or description contains the
// trimmed, lower-cased text. Empty text keeps everything.
// Always returns a fresh slice.
func ByText(products []product.Product, text string) []product.Product {
	result := make([]product.Product, 0, len(products))
	q := normalize(text)
	if q == "" {
		return append(result, products...)
	}

	for _, p := range products {
		if Matches(p, q) {
			result = append(result, p)
		}
	}
	return result
}

// Matches reports whether p matches an already-normalized query.
func Matches(p product.Product, q string) bool {
	return strings.Contains(strconv.FormatInt(p.ID, 10), q) ||
		strings.Contains(strings.ToLower(p.Name), q) ||
		strings.Contains(strings.ToLower(p.Description), q)
}

func normalize(text string) string {
	return strings.ToLower(strings.TrimSpace(text))
}

// Summary is the aggregate shown in the status line.
type Summary struct {
	Count      int
	Units      int
	StockValue float64
}

// Summarize totals stock units and value across products.
func Summarize(products []product.Product) Summary {
	s := Summary{Count: len(products)}
	for _, p := range products {
		s.Units += p.Quantity
		s.StockValue += p.Price * float64(p.Quantity)
	}
	return s
}
