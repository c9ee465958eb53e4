package ui

import (
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/abelbrown/catalog/internal/filter"
	"github.com/abelbrown/catalog/internal/product"
)

// Fixed column widths. Name and description share what is left.
const (
	colID       = 6
	colPrice    = 12
	colQuantity = 8
	colMinText  = 8
)

var columnTitles = map[filter.Field]string{
	filter.FieldID:          "ID",
	filter.FieldName:        "Name",
	filter.FieldDescription: "Description",
	filter.FieldPrice:       "Price",
	filter.FieldQuantity:    "Qty",
}

type columns struct {
	name, desc int
}

func layout(width int) columns {
	rest := width - colID - colPrice - colQuantity - 4 // one space between columns
	name := rest * 2 / 5
	if name < colMinText {
		name = colMinText
	}
	desc := rest - name
	if desc < colMinText {
		desc = colMinText
	}
	return columns{name: name, desc: desc}
}

// renderTable renders the header and the rows that fit in height, scrolled so
// the cursor stays visible. A nil sortKey hides the sort indicator (AI results
// keep the server's order).
func renderTable(products []product.Product, cursor, width, height int, sortKey *filter.SortKey) string {
	cols := layout(width)

	var b strings.Builder
	b.WriteString(HeaderRow.Render(headerLine(cols, sortKey)))
	b.WriteString("\n")

	available := height - 1
	if available < 1 {
		available = 1
	}
	offset := calcScrollOffset(cursor, len(products), available)

	for i := offset; i < len(products) && i < offset+available; i++ {
		p := products[i]
		line := rowLine(p, cols)
		switch {
		case i == cursor:
			line = SelectedRow.Render(line)
		case p.Quantity == 0:
			line = OutOfStockRow.Render(line)
		default:
			line = NormalRow.Render(line)
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	return b.String()
}

// calcScrollOffset returns the first visible row so cursor fits in available
// lines.
func calcScrollOffset(cursor, n, available int) int {
	if n == 0 || cursor < 0 {
		return 0
	}
	if cursor >= n {
		cursor = n - 1
	}
	if cursor >= available {
		return cursor - available + 1
	}
	return 0
}

func headerLine(cols columns, sortKey *filter.SortKey) string {
	title := func(f filter.Field) string {
		t := columnTitles[f]
		if sortKey != nil && sortKey.Field == f {
			if sortKey.Dir == filter.Desc {
				return t + " ▼"
			}
			return t + " ▲"
		}
		return t
	}
	return strings.Join([]string{
		padRight(title(filter.FieldID), colID),
		padRight(title(filter.FieldName), cols.name),
		padRight(title(filter.FieldDescription), cols.desc),
		padLeft(title(filter.FieldPrice), colPrice),
		padLeft(title(filter.FieldQuantity), colQuantity),
	}, " ")
}

func rowLine(p product.Product, cols columns) string {
	return strings.Join([]string{
		padRight(strconv.FormatInt(p.ID, 10), colID),
		padRight(p.Name, cols.name),
		padRight(p.Description, cols.desc),
		padLeft(product.Currency(p.Price), colPrice),
		padLeft(strconv.Itoa(p.Quantity), colQuantity),
	}, " ")
}

// truncateRunes shortens s to at most n runes, marking the cut with "…".
func truncateRunes(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n-1]) + "…"
}

func padRight(s string, n int) string {
	s = truncateRunes(strings.ReplaceAll(s, "\n", " "), n)
	return s + strings.Repeat(" ", n-utf8.RuneCountInString(s))
}

func padLeft(s string, n int) string {
	s = truncateRunes(s, n)
	return strings.Repeat(" ", n-utf8.RuneCountInString(s)) + s
}
