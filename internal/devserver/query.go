package devserver

import (
	"strconv"
	"strings"

	"github.com/abelbrown/catalog/internal/store"
)

// Price bounds implied by "cheap" and "expensive" when no number is given.
const (
	cheapBelow     = 50
	expensiveAbove = 500
)

var (
	lessPhrases = [][]string{
		{"less", "than"}, {"fewer", "than"}, {"cheaper", "than"}, {"lower", "than"},
		{"under"}, {"below"}, {"max"}, {"<"},
	}
	morePhrases = [][]string{
		{"more", "than"}, {"greater", "than"}, {"higher", "than"}, {"pricier", "than"},
		{"over"}, {"above"}, {"min"}, {">"},
	}

	quantityWords = map[string]bool{
		"quantity": true, "qty": true, "stock": true, "units": true, "unit": true,
		"pieces": true, "pcs": true, "left": true, "available": true,
	}

	stopWords = map[string]bool{
		"a": true, "an": true, "the": true, "and": true, "or": true, "of": true, "for": true,
		"with": true, "to": true, "in": true, "on": true, "at": true, "by": true, "is": true,
		"are": true, "that": true, "which": true, "i": true, "me": true, "my": true, "we": true,
		"show": true, "find": true, "get": true, "list": true, "search": true, "want": true,
		"need": true, "looking": true, "give": true, "all": true, "any": true, "some": true,
		"something": true, "products": true, "product": true, "items": true, "item": true,
		"things": true, "thing": true, "price": true, "priced": true, "cost": true,
		"costs": true, "costing": true, "dollars": true, "dollar": true, "usd": true,
		"than": true, "between": true, "like": true, "similar": true, "related": true,
		"please": true, "have": true, "has": true, "out": true, "cheap": true,
		"affordable": true, "budget": true, "expensive": true, "premium": true,
		"less": true, "more": true, "under": true, "below": true, "over": true, "above": true,
		"about": true, "around": true, "what": true, "there": true, "do": true, "you": true,
	}
)

// ParseQuery turns a natural-language request into structured filters.
//
// Comparisons ("under $50", "more than 10 units", "between 20 and 40") become
// price or quantity bounds; a number is a quantity when a stock word is next
// to it, otherwise a price. Remaining content words are matched against both
// name and description.
func ParseQuery(query string) store.Filters {
	words := tokenize(query)
	var f store.Filters
	var terms []string

	for i := 0; i < len(words); i++ {
		w := words[i]

		if w == "between" && i+3 < len(words) && words[i+2] == "and" {
			lo, okLo := number(words[i+1])
			hi, okHi := number(words[i+3])
			if okLo && okHi {
				if lo > hi {
					lo, hi = hi, lo
				}
				r := rangeFor(&f, isQuantity(words, i, i+4))
				r.GT, r.LT = &lo, &hi
				i += 3
				continue
			}
		}

		if n := matchPhrase(words, i, lessPhrases); n > 0 && i+n < len(words) {
			if v, ok := number(words[i+n]); ok {
				rangeFor(&f, isQuantity(words, i, i+n+1)).LT = &v
				i += n
				continue
			}
		}
		if n := matchPhrase(words, i, morePhrases); n > 0 && i+n < len(words) {
			if v, ok := number(words[i+n]); ok {
				rangeFor(&f, isQuantity(words, i, i+n+1)).GT = &v
				i += n
				continue
			}
		}

		switch {
		case w == "out" && i+2 < len(words) && words[i+1] == "of" && words[i+2] == "stock":
			zeroish := 1.0
			rangeFor(&f, true).LT = &zeroish
			i += 2
			continue
		case w == "in" && i+1 < len(words) && words[i+1] == "stock":
			if f.Quantity == nil || f.Quantity.GT == nil {
				none := 0.0
				rangeFor(&f, true).GT = &none
			}
			i++
			continue
		case w == "cheap" || w == "affordable" || w == "budget":
			if f.Price == nil || f.Price.LT == nil {
				v := float64(cheapBelow)
				rangeFor(&f, false).LT = &v
			}
			continue
		case w == "expensive" || w == "premium":
			if f.Price == nil || f.Price.GT == nil {
				v := float64(expensiveAbove)
				rangeFor(&f, false).GT = &v
			}
			continue
		}

		if stopWords[w] || quantityWords[w] {
			continue
		}
		if _, ok := number(w); ok {
			continue
		}
		terms = appendTerm(terms, singular(w))
	}

	if len(terms) > 0 {
		f.Name = &store.TextFilter{Contains: terms}
		f.Description = &store.TextFilter{Contains: append([]string(nil), terms...)}
	}
	return f
}

func tokenize(query string) []string {
	var words []string
	for _, w := range strings.Fields(strings.ToLower(query)) {
		w = strings.Trim(w, `?!.,;:"'()[]`)
		// "<50" and ">10" carry their operator.
		if len(w) > 1 && (w[0] == '<' || w[0] == '>') {
			words = append(words, w[:1], w[1:])
			continue
		}
		if w != "" {
			words = append(words, w)
		}
	}
	return words
}

// number parses "$1,250.50", "40", "40$".
func number(w string) (float64, bool) {
	w = strings.Trim(w, "$")
	w = strings.ReplaceAll(w, ",", "")
	if w == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(w, 64)
	if err != nil || v < 0 {
		return 0, false
	}
	return v, true
}

func matchPhrase(words []string, i int, phrases [][]string) int {
	for _, p := range phrases {
		if i+len(p) > len(words) {
			continue
		}
		match := true
		for j, pw := range p {
			if words[i+j] != pw {
				match = false
				break
			}
		}
		if match {
			return len(p)
		}
	}
	return 0
}

// isQuantity looks two words either side of the comparison [start, end) for
// a stock word.
func isQuantity(words []string, start, end int) bool {
	lo := max(start-2, 0)
	hi := min(end+2, len(words))
	for _, w := range words[lo:hi] {
		if quantityWords[w] {
			return true
		}
	}
	return false
}

func rangeFor(f *store.Filters, quantity bool) *store.RangeFilter {
	if quantity {
		if f.Quantity == nil {
			f.Quantity = &store.RangeFilter{}
		}
		return f.Quantity
	}
	if f.Price == nil {
		f.Price = &store.RangeFilter{}
	}
	return f.Price
}

// singular drops a plural "s" so "laptops" matches "Laptop".
func singular(w string) string {
	if len(w) > 3 && strings.HasSuffix(w, "s") && !strings.HasSuffix(w, "ss") {
		return w[:len(w)-1]
	}
	return w
}

func appendTerm(terms []string, t string) []string {
	for _, existing := range terms {
		if existing == t {
			return terms
		}
	}
	return append(terms, t)
}
