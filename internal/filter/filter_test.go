package filter

import (
	"reflect"
	"strconv"
	"strings"
	"testing"

	"github.com/abelbrown/catalog/internal/product"
)

func sampleProducts() []product.Product {
	return []product.Product{
		{ID: 3, Name: "bolt", Description: "Steel bolt M8", Price: 0.25, Quantity: 500},
		{ID: 1, Name: "Widget", Description: "General purpose widget", Price: 9.99, Quantity: 5},
		{ID: 12, Name: "Anvil", Description: "Heavy. Do not drop", Price: 120, Quantity: 2},
		{ID: 2, Name: "gizmo", Description: "Pairs with a widget", Price: 9.99, Quantity: 40},
	}
}

func ids(products []product.Product) []int64 {
	out := make([]int64, len(products))
	for i, p := range products {
		out[i] = p.ID
	}
	return out
}

func TestByTextScenario(t *testing.T) {
	products := []product.Product{{ID: 1, Name: "Widget", Price: 9.99, Quantity: 5}}

	got := ByText(products, "wid")
	if len(got) != 1 || got[0].ID != 1 {
		t.Errorf("filter 'wid' = %v, want the widget", got)
	}

	got = ByText(products, "zz")
	if got == nil {
		t.Fatal("expected empty slice, got nil")
	}
	if len(got) != 0 {
		t.Errorf("filter 'zz' = %v, want empty", got)
	}
}

func TestByTextMatchesIDNameDescription(t *testing.T) {
	products := sampleProducts()

	tests := []struct {
		text string
		want []int64
	}{
		{"", []int64{3, 1, 12, 2}},
		{"   ", []int64{3, 1, 12, 2}},
		{"WIDGET", []int64{1, 2}},      // name on 1, description on 2
		{"  steel ", []int64{3}},       // trimmed
		{"1", []int64{1, 12}},          // decimal id substring
		{"2", []int64{12, 2}},          // "12" and "2"
		{"drop", []int64{12}},          // description only
		{"nothing-here", []int64{}},
	}

	for _, tt := range tests {
		got := ids(ByText(products, tt.text))
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("ByText(%q) = %v, want %v", tt.text, got, tt.want)
		}
	}
}

func TestByTextReturnsCopy(t *testing.T) {
	products := sampleProducts()
	got := ByText(products, "")
	got[0].Name = "mutated"
	if products[0].Name != "bolt" {
		t.Error("ByText must not alias the input slice")
	}
}

func TestComputeSubsetAndOrder(t *testing.T) {
	products := sampleProducts()
	for _, field := range Fields {
		for _, dir := range []Direction{Asc, Desc} {
			key := SortKey{Field: field, Dir: dir}
			for _, text := range []string{"", "widget", "1", "o"} {
				got := Compute(products, text, key)

				// Exactly the matching subset.
				want := 0
				q := strings.ToLower(strings.TrimSpace(text))
				for _, p := range products {
					if strings.Contains(strconv.FormatInt(p.ID, 10), q) ||
						strings.Contains(strings.ToLower(p.Name), q) ||
						strings.Contains(strings.ToLower(p.Description), q) {
						want++
					}
				}
				if len(got) != want {
					t.Errorf("%v %q: got %d products, want %d", key, text, len(got), want)
				}

				// Totally ordered by the comparator.
				for i := 1; i < len(got); i++ {
					c := Compare(got[i-1], got[i], field)
					if dir == Desc {
						c = -c
					}
					if c > 0 {
						t.Errorf("%v %q: out of order at %d: %v before %v", key, text, i, got[i-1], got[i])
					}
				}
			}
		}
	}
}

func TestComputeIdempotent(t *testing.T) {
	products := sampleProducts()
	key := SortKey{Field: FieldPrice, Dir: Desc}

	once := Compute(products, "widget", key)
	twice := Compute(once, "", key)
	if !reflect.DeepEqual(once, twice) {
		t.Errorf("re-filtering with empty text changed the result:\n%v\n%v", once, twice)
	}
}

func TestComputeDoesNotReorderInput(t *testing.T) {
	products := sampleProducts()
	before := ids(products)

	_ = Compute(products, "", SortKey{Field: FieldName, Dir: Asc})
	_ = Compute(products, "", SortKey{Field: FieldPrice, Dir: Desc})

	if after := ids(products); !reflect.DeepEqual(before, after) {
		t.Errorf("input reordered: before %v, after %v", before, after)
	}
}

func TestSummarize(t *testing.T) {
	s := Summarize([]product.Product{
		{ID: 1, Price: 2.5, Quantity: 4},
		{ID: 2, Price: 10, Quantity: 1},
	})
	if s.Count != 2 || s.Units != 5 || s.StockValue != 20 {
		t.Errorf("Summarize = %+v", s)
	}

	if s := Summarize(nil); s.Count != 0 || s.Units != 0 || s.StockValue != 0 {
		t.Errorf("Summarize(nil) = %+v", s)
	}
}
