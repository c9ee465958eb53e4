package product

import (
	"errors"
	"math"
	"testing"
)

func TestInputValidate(t *testing.T) {
	tests := []struct {
		name    string
		in      Input
		wantErr bool
	}{
		{"valid", Input{Name: "Widget", Price: 9.99, Quantity: 5}, false},
		{"zero price and stock", Input{Name: "Free sample"}, false},
		{"blank name", Input{Name: "   ", Price: 1}, true},
		{"negative price", Input{Name: "Widget", Price: -1}, true},
		{"negative quantity", Input{Name: "Widget", Quantity: -3}, true},
		{"NaN price", Input{Name: "Widget", Price: math.NaN()}, true},
		{"infinite price", Input{Name: "Widget", Price: math.Inf(1)}, true},
		{"negative infinite price", Input{Name: "Widget", Price: math.Inf(-1)}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.in.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalid) {
				t.Errorf("error %v should wrap ErrInvalid", err)
			}
		})
	}
}

func TestProductInput(t *testing.T) {
	p := Product{ID: 7, Name: "Gadget", Description: "shiny", Price: 3.5, Quantity: 2}
	in := p.Input()
	if in.Name != "Gadget" || in.Description != "shiny" || in.Price != 3.5 || in.Quantity != 2 {
		t.Errorf("Input() = %+v", in)
	}
}

func TestCurrency(t *testing.T) {
	if got := Currency(9.989); got != "$9.99" {
		t.Errorf("Currency(9.989) = %q, want $9.99", got)
	}
	if got := Currency(0); got != "$0.00" {
		t.Errorf("Currency(0) = %q, want $0.00", got)
	}
}
