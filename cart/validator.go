// Package cart decides whether a submitted cart is well-formed and purchasable.
package cart

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"payment-service/models"
)

var (
	ErrInvalidPayload = errors.New("invalid cart payload")
	ErrCartNotValid   = errors.New("cart not valid")
)

// Parse interprets a raw request body as a cart. It only checks shape: the
// payload must be a JSON object with an items field whose items and total can
// be decoded. Purchasability is left to Validate. The returned cart keeps the
// payload verbatim in Raw.
func Parse(payload []byte) (models.Cart, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(payload, &fields); err != nil {
		return models.Cart{}, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	if fields == nil {
		return models.Cart{}, ErrInvalidPayload
	}

	rawItems, ok := fields["items"]
	if !ok {
		return models.Cart{}, fmt.Errorf("%w: missing items", ErrInvalidPayload)
	}

	var c models.Cart
	if err := json.Unmarshal(rawItems, &c.Items); err != nil {
		return models.Cart{}, fmt.Errorf("%w: items: %v", ErrInvalidPayload, err)
	}

	total, err := parseTotal(fields["total"])
	if err != nil {
		return models.Cart{}, fmt.Errorf("%w: total: %v", ErrInvalidPayload, err)
	}
	c.Total = total
	c.Raw = append(json.RawMessage(nil), bytes.TrimSpace(payload)...)

	return c, nil
}

// parseTotal accepts a JSON number or numeric string. Absent and falsy values
// (null, false, "") decode to zero so that Validate rejects them.
func parseTotal(raw json.RawMessage) (decimal.Decimal, error) {
	raw = bytes.TrimSpace(raw)
	switch string(raw) {
	case "", "null", "false", `""`:
		return decimal.Zero, nil
	}

	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return decimal.Zero, err
		}
		return decimal.NewFromString(s)
	}

	return decimal.NewFromString(string(raw))
}

// Validate applies the business rules: a shipping line must be present, no
// line may have a negative quantity and the total must be positive.
func Validate(c models.Cart) error {
	if !hasShipping(c.Items) {
		return fmt.Errorf("%w: no shipping item", ErrCartNotValid)
	}
	for _, item := range c.Items {
		if item.Qty < 0 {
			return fmt.Errorf("%w: sku %s has qty %d", ErrCartNotValid, item.SKU, item.Qty)
		}
	}
	if !c.Total.IsPositive() {
		return fmt.Errorf("%w: total %s", ErrCartNotValid, c.Total)
	}
	return nil
}

// ItemCount sums quantities over every non-shipping line.
func ItemCount(c models.Cart) int {
	count := 0
	for _, item := range c.Items {
		if item.SKU != models.ShippingSKU {
			count += item.Qty
		}
	}
	return count
}

func hasShipping(items []models.Item) bool {
	for _, item := range items {
		if item.SKU == models.ShippingSKU {
			return true
		}
	}
	return false
}
