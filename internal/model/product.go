package model

import (
	"time"

	"github.com/google/uuid"
)

// DefaultFlavorName is the flavor synthesized for cart lines that do not
// name one.
const DefaultFlavorName = "standard"

// Product represents a catalogue product. Prices are whole currency units.
type Product struct {
	ID        uuid.UUID `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	BasePrice int       `json:"basePrice" db:"base_price"`
	Active    bool      `json:"active" db:"active"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

// Flavor represents a purchasable variant (SKU) of a product. It carries
// its own stock counter and an optional price override.
type Flavor struct {
	ID        uuid.UUID `json:"id" db:"id"`
	ProductID uuid.UUID `json:"productId" db:"product_id"`
	Name      string    `json:"name" db:"name"`
	Price     *int      `json:"price,omitempty" db:"price"`
	Stock     int       `json:"stock" db:"stock"`
	Active    bool      `json:"active" db:"active"`
}

// UnitPrice resolves the effective price of the flavor: its own override
// when set, otherwise the parent product's base price.
func (f *Flavor) UnitPrice(product *Product) int {
	if f.Price != nil {
		return *f.Price
	}
	return product.BasePrice
}

// ProductDetail is a product together with its active flavors.
type ProductDetail struct {
	Product
	Flavors []Flavor `json:"flavors"`
}

// UpsellProduct is a secondary catalogue entity offered at checkout. It
// has its own stock pool and never has flavors.
type UpsellProduct struct {
	ID     uuid.UUID `json:"id" db:"id"`
	Name   string    `json:"name" db:"name"`
	Price  int       `json:"price" db:"price"`
	Stock  int       `json:"stock" db:"stock"`
	Active bool      `json:"active" db:"active"`
}
