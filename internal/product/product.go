// Package product defines the catalog record shared by the gateway, the
// local filter engine and the UI.
package product

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// Product is the client's cached copy of a server-owned record.
// ID is assigned by the server on create.
type Product struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	Quantity    int     `json:"quantity"`
}

// Input is the mutable part of a product as submitted by the form.
type Input struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	Quantity    int     `json:"quantity"`
}

// Input returns the editable fields of p.
func (p Product) Input() Input {
	return Input{
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price,
		Quantity:    p.Quantity,
	}
}

// ErrInvalid is wrapped by every validation failure from Validate.
var ErrInvalid = errors.New("invalid product")

// Validate is a client-side pre-check. The server stays authoritative.
func (in Input) Validate() error {
	var problems []string
	if strings.TrimSpace(in.Name) == "" {
		problems = append(problems, "name is required")
	}
	switch {
	case math.IsNaN(in.Price) || math.IsInf(in.Price, 0):
		problems = append(problems, "price must be a finite number")
	case in.Price < 0:
		problems = append(problems, "price must be >= 0")
	}
	if in.Quantity < 0 {
		problems = append(problems, "quantity must be >= 0")
	}
	if len(problems) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(problems, ", "))
}

// Currency formats a price with two decimals.
func Currency(price float64) string {
	return fmt.Sprintf("$%.2f", price)
}
