package models

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// ShippingSKU marks the shipping line item every purchasable cart carries.
const ShippingSKU = "SHIP"

// Item is a single cart line
type Item struct {
	SKU string `json:"sku"`
	Qty int    `json:"qty"`
}

// UnmarshalJSON accepts qty as any JSON number or numeric string and keeps
// its integer part, so 2.0 counts as 2.
func (i *Item) UnmarshalJSON(data []byte) error {
	var line struct {
		SKU string          `json:"sku"`
		Qty decimal.Decimal `json:"qty"`
	}
	if err := json.Unmarshal(data, &line); err != nil {
		return err
	}
	i.SKU = line.SKU
	i.Qty = int(line.Qty.IntPart())
	return nil
}

// Cart represents the items a user intends to purchase. Items and Total are
// what the payment flow reads; Raw is the cart exactly as the client sent it
// and is what gets forwarded downstream.
type Cart struct {
	Items []Item          `json:"items"`
	Total decimal.Decimal `json:"total"`
	Raw   json.RawMessage `json:"-"`
}

// MarshalJSON writes Raw untouched when present so that fields the payment
// flow does not read (names, prices, tax) reach the order queue and history.
func (c Cart) MarshalJSON() ([]byte, error) {
	if len(c.Raw) > 0 {
		return c.Raw, nil
	}
	return json.Marshal(struct {
		Items []Item      `json:"items"`
		Total json.Number `json:"total"`
	}{
		Items: c.Items,
		Total: json.Number(c.Total.String()),
	})
}

// PaymentRequest is an inbound /pay call
type PaymentRequest struct {
	UserID string
	Cart   Cart
}

// Order is the committed record of a successful charge
type Order struct {
	ID     string `json:"orderid"`
	UserID string `json:"user"`
	Cart   Cart   `json:"cart"`
}

// OrderHistoryEntry is the body appended to a known user's order history
type OrderHistoryEntry struct {
	OrderID string `json:"orderid"`
	Cart    Cart   `json:"cart"`
}

// PaymentResponse represents a successful payment response
type PaymentResponse struct {
	OrderID string `json:"orderid"`
}
