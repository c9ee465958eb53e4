package store

import (
	"context"
	"strings"

	"github.com/abelbrown/catalog/internal/product"
)

// TextFilter matches a column containing any of the terms.
type TextFilter struct {
	Contains []string `json:"contains,omitempty"`
}

// RangeFilter bounds a numeric column. Both bounds are exclusive.
type RangeFilter struct {
	LT *float64 `json:"lt,omitempty"`
	GT *float64 `json:"gt,omitempty"`
}

// Filters is the structured form of an AI search query.
//
// Name and description terms together form one OR group, so a term placed in
// both columns matches either. Numeric bounds are ANDed with that group.
type Filters struct {
	Name        *TextFilter  `json:"name,omitempty"`
	Description *TextFilter  `json:"description,omitempty"`
	Quantity    *RangeFilter `json:"quantity,omitempty"`
	Price       *RangeFilter `json:"price,omitempty"`
}

// Empty reports whether f constrains nothing.
func (f Filters) Empty() bool {
	return len(likeTerms(f.Name)) == 0 && len(likeTerms(f.Description)) == 0 &&
		f.Quantity.empty() && f.Price.empty()
}

// Search returns products matching f, ordered by id. Empty filters match
// everything.
func (s *Store) Search(ctx context.Context, f Filters) ([]product.Product, error) {
	where, args := f.sql()

	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.query(ctx, "SELECT id, name, description, price, quantity FROM products"+where+" ORDER BY id", args...)
}

func (f Filters) sql() (string, []any) {
	var clauses []string
	var args []any

	var text []string
	for _, t := range likeTerms(f.Name) {
		text = append(text, "LOWER(name) LIKE ? ESCAPE '\\'")
		args = append(args, t)
	}
	for _, t := range likeTerms(f.Description) {
		text = append(text, "LOWER(description) LIKE ? ESCAPE '\\'")
		args = append(args, t)
	}
	if len(text) > 0 {
		clauses = append(clauses, "("+strings.Join(text, " OR ")+")")
	}

	for _, r := range []struct {
		col string
		rf  *RangeFilter
	}{{"price", f.Price}, {"quantity", f.Quantity}} {
		if r.rf == nil {
			continue
		}
		if r.rf.LT != nil {
			clauses = append(clauses, r.col+" < ?")
			args = append(args, *r.rf.LT)
		}
		if r.rf.GT != nil {
			clauses = append(clauses, r.col+" > ?")
			args = append(args, *r.rf.GT)
		}
	}

	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

// likeTerms returns LIKE patterns for the non-blank terms of tf.
func likeTerms(tf *TextFilter) []string {
	if tf == nil {
		return nil
	}
	var out []string
	for _, t := range tf.Contains {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" {
			continue
		}
		out = append(out, "%"+likeEscaper.Replace(t)+"%")
	}
	return out
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func (r *RangeFilter) empty() bool {
	return r == nil || (r.LT == nil && r.GT == nil)
}
