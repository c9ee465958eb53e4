package filter

import (
	"fmt"
	"sort"
	"strings"

	"github.com/abelbrown/catalog/internal/product"
)

// Field is a sortable product column.
type Field string

const (
	FieldID          Field = "id"
	FieldName        Field = "name"
	FieldDescription Field = "description"
	FieldPrice       Field = "price"
	FieldQuantity    Field = "quantity"
)

// Fields lists the sortable columns in display order.
var Fields = []Field{FieldID, FieldName, FieldDescription, FieldPrice, FieldQuantity}

// ParseField maps a column name to a Field.
func ParseField(s string) (Field, error) {
	f := Field(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Fields {
		if f == known {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown sort field %q", s)
}

func (f Field) numeric() bool {
	return f == FieldID || f == FieldPrice || f == FieldQuantity
}

// Direction is the sort order.
type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// SortKey is the active (field, direction) pair.
type SortKey struct {
	Field Field
	Dir   Direction
}

// DefaultSortKey sorts by id ascending.
func DefaultSortKey() SortKey {
	return SortKey{Field: FieldID, Dir: Asc}
}

// Toggle returns the key after a header click on field: the same field flips
// direction, a new field resets to ascending.
func (k SortKey) Toggle(field Field) SortKey {
	if k.Field == field {
		if k.Dir == Asc {
			return SortKey{Field: field, Dir: Desc}
		}
		return SortKey{Field: field, Dir: Asc}
	}
	return SortKey{Field: field, Dir: Asc}
}

func (k SortKey) String() string {
	return fmt.Sprintf("%s %s", k.Field, k.Dir)
}

// Sort returns a sorted copy of products.
// Stable: equal keys keep their input order. Desc negates the comparator, it
// does not reverse the output, so ties are ordered the same in both directions.
func Sort(products []product.Product, key SortKey) []product.Product {
	sorted := make([]product.Product, len(products))
	copy(sorted, products)

	sign := 1
	if key.Dir == Desc {
		sign = -1
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		return sign*Compare(sorted[i], sorted[j], key.Field) < 0
	})
	return sorted
}

// Compare orders a and b by field: numerically for id, price and quantity,
// case-insensitively for everything else.
func Compare(a, b product.Product, field Field) int {
	if field.numeric() {
		x, y := numericValue(a, field), numericValue(b, field)
		switch {
		case x < y:
			return -1
		case x > y:
			return 1
		}
		return 0
	}
	return strings.Compare(stringValue(a, field), stringValue(b, field))
}

// numericValue reads field as float64. Fields without a numeric value read as 0.
func numericValue(p product.Product, field Field) float64 {
	switch field {
	case FieldID:
		return float64(p.ID)
	case FieldPrice:
		return p.Price
	case FieldQuantity:
		return float64(p.Quantity)
	}
	return 0
}

func stringValue(p product.Product, field Field) string {
	switch field {
	case FieldName:
		return strings.ToLower(p.Name)
	case FieldDescription:
		return strings.ToLower(p.Description)
	}
	return ""
}
