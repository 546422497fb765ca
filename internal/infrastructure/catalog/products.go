package catalog

import "github.com/productscan/backend/internal/domain"

// defaultProducts is the bundled sample catalog
var defaultProducts = map[string]domain.ProductRecord{
	// EAN-13
	"4901777046504": {
		Name:         "Pocky Chocolate",
		Manufacturer: "Glico",
		Category:     "Snacks",
		Description:  "Chocolate-coated biscuit sticks",
	},
	"4901201126796": {
		Name:         "Curry Rice",
		Manufacturer: "House Foods",
		Category:     "Ready Meals",
		Description:  "Japanese curry with rice",
	},
	"4902102072618": {
		Name:         "Kirin Afternoon Tea",
		Manufacturer: "Kirin Beverage",
		Category:     "Beverages",
		Description:  "Bottled milk tea",
	},
	"4902220157006": {
		Name:         "Cup Noodle (Original)",
		Manufacturer: "Nissin",
		Category:     "Instant Food",
		Description:  "Instant ramen in a cup",
	},

	// UPC-A
	"049000006346": {
		Name:         "Coca-Cola Classic",
		Manufacturer: "Coca-Cola Company",
		Category:     "Beverages",
		Description:  "Classic cola soft drink",
	},
	"021130126026": {
		Name:         "Doritos Nacho Cheese",
		Manufacturer: "Frito-Lay",
		Category:     "Snacks",
		Description:  "Nacho cheese flavored tortilla chips",
	},
	"038000138416": {
		Name:         "Cheerios",
		Manufacturer: "General Mills",
		Category:     "Breakfast Cereal",
		Description:  "Whole grain oat cereal",
	},

	// ISBN-13
	"9780201379624": {
		Name:         "Design Patterns",
		Manufacturer: "Addison-Wesley",
		Category:     "Books",
		Description:  "Elements of Reusable Object-Oriented Software",
	},
}
