package domain

import "github.com/shopspring/decimal"

// MenuItem is a dish as served by the restaurant API.
type MenuItem struct {
	ID          ID              `json:"menuItemId"`
	Name        string          `json:"itemName"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Category    string          `json:"category"`
	Veg         bool            `json:"veg"`
	Image       string          `json:"image,omitempty"`
}

// CartLine is one distinct menu item selected by the shopper.
// LineTotal is always UnitPrice * Quantity.
type CartLine struct {
	ItemID    ID              `json:"item_id"`
	Name      string          `json:"name"`
	Category  string          `json:"category,omitempty"`
	Veg       bool            `json:"veg"`
	Image     string          `json:"image,omitempty"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Quantity  int             `json:"quantity"`
	LineTotal decimal.Decimal `json:"line_total"`
}

// CartState is a read-only view of a cart. Lines are in insertion order.
type CartState struct {
	Lines         []CartLine      `json:"lines"`
	TotalQuantity int             `json:"total_quantity"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
}

func (s CartState) IsEmpty() bool {
	return len(s.Lines) == 0
}
