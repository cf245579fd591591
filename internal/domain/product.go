package domain

// Product is a catalog item that restaurants put on their menus
type Product struct {
	ID       int64   `json:"id" yaml:"id"`
	Name     string  `json:"name" yaml:"name"`
	Category string  `json:"category,omitempty" yaml:"category"`
	Price    float64 `json:"price" yaml:"price"`
}

// Restaurant is a kitchen that can fulfill orders
type Restaurant struct {
	ID           int64  `json:"id" yaml:"id"`
	Name         string `json:"name" yaml:"name"`
	Address      string `json:"address" yaml:"address"`
	ContactPhone string `json:"contactPhone,omitempty" yaml:"contact_phone"`
}

// MenuItem states whether a restaurant currently stocks a product.
// There is at most one MenuItem per (restaurant, product) pair.
type MenuItem struct {
	Restaurant Restaurant `json:"restaurant"`
	Product    Product    `json:"product"`
	Available  bool       `json:"available"`
}

// AvailabilityRow is one product and its availability in each restaurant column
type AvailabilityRow struct {
	Product      Product `json:"product"`
	Availability []bool  `json:"availability"`
}

// AvailabilityMatrix is the product by restaurant stock overview
type AvailabilityMatrix struct {
	Restaurants []Restaurant      `json:"restaurants"`
	Products    []AvailabilityRow `json:"products"`
}
