package devserver

import "github.com/abelbrown/catalog/internal/product"

// SampleProducts is the catalog loaded by catalogd --seed.
func SampleProducts() []product.Input {
	return []product.Input{
		{Name: "Laptop Pro 14", Description: "14 inch laptop with 32GB RAM for development work", Price: 1899.00, Quantity: 12},
		{Name: "Laptop Air 13", Description: "lightweight laptop for travel", Price: 1099.00, Quantity: 25},
		{Name: "Wireless Mouse", Description: "bluetooth mouse with silent clicks", Price: 29.99, Quantity: 140},
		{Name: "Mechanical Keyboard", Description: "tenkeyless keyboard with brown switches", Price: 119.00, Quantity: 40},
		{Name: "USB-C Hub", Description: "7-in-1 adapter with HDMI and card reader", Price: 49.50, Quantity: 75},
		{Name: "27 inch Monitor", Description: "4K IPS display with USB-C power delivery", Price: 429.00, Quantity: 8},
		{Name: "Laptop Stand", Description: "aluminium riser that improves posture", Price: 39.00, Quantity: 60},
		{Name: "Noise Cancelling Headphones", Description: "over-ear headphones for focus", Price: 299.00, Quantity: 18},
		{Name: "Webcam HD", Description: "1080p camera for video calls", Price: 69.00, Quantity: 0},
		{Name: "Desk Lamp", Description: "dimmable LED lamp with warm light", Price: 34.95, Quantity: 33},
		{Name: "Office Chair", Description: "ergonomic chair with lumbar support", Price: 349.00, Quantity: 5},
		{Name: "Standing Desk", Description: "electric height adjustable desk", Price: 599.00, Quantity: 3},
	}
}
