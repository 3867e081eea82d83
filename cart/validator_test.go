package cart

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"payment-service/models"
)

func TestParse(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		payload   string
		wantErr   bool
		wantItems int
		wantTotal string
	}{
		{name: "well_formed", payload: `{"items":[{"sku":"SHIP","qty":1},{"sku":"A1","qty":2}],"total":150}`, wantItems: 2, wantTotal: "150"},
		{name: "string_total", payload: `{"items":[],"total":"99.95"}`, wantTotal: "99.95"},
		{name: "missing_total", payload: `{"items":[{"sku":"SHIP","qty":1}]}`, wantItems: 1, wantTotal: "0"},
		{name: "null_total", payload: `{"items":[],"total":null}`, wantTotal: "0"},
		{name: "false_total", payload: `{"items":[],"total":false}`, wantTotal: "0"},
		{name: "empty_string_total", payload: `{"items":[],"total":""}`, wantTotal: "0"},
		{name: "null_items", payload: `{"items":null,"total":10}`, wantTotal: "10"},
		{name: "empty", payload: ``, wantErr: true},
		{name: "not_json", payload: `items=1`, wantErr: true},
		{name: "json_null", payload: `null`, wantErr: true},
		{name: "array", payload: `[{"sku":"SHIP"}]`, wantErr: true},
		{name: "missing_items", payload: `{"total":150}`, wantErr: true},
		{name: "items_not_array", payload: `{"items":5,"total":150}`, wantErr: true},
		{name: "total_not_numeric", payload: `{"items":[],"total":"lots"}`, wantErr: true},
		{name: "total_object", payload: `{"items":[],"total":{}}`, wantErr: true},
		{name: "qty_not_numeric", payload: `{"items":[{"sku":"A1","qty":"two"}],"total":1}`, wantErr: true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			c, err := Parse([]byte(tt.payload))
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidPayload)
				return
			}
			require.NoError(t, err)
			assert.Len(t, c.Items, tt.wantItems)
			assert.True(t, c.Total.Equal(decimal.RequireFromString(tt.wantTotal)), "total %s", c.Total)
		})
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	ship := models.Item{SKU: models.ShippingSKU, Qty: 1}
	widget := models.Item{SKU: "A1", Qty: 2}

	tests := []struct {
		name    string
		cart    models.Cart
		wantErr bool
	}{
		{name: "valid", cart: models.Cart{Items: []models.Item{ship, widget}, Total: decimal.NewFromInt(150)}},
		{name: "shipping_only", cart: models.Cart{Items: []models.Item{ship}, Total: decimal.NewFromFloat(4.99)}},
		{name: "no_shipping", cart: models.Cart{Items: []models.Item{widget}, Total: decimal.NewFromInt(150)}, wantErr: true},
		{name: "no_items", cart: models.Cart{Total: decimal.NewFromInt(150)}, wantErr: true},
		{name: "zero_total", cart: models.Cart{Items: []models.Item{ship, widget}}, wantErr: true},
		{name: "negative_total", cart: models.Cart{Items: []models.Item{ship}, Total: decimal.NewFromInt(-5)}, wantErr: true},
		{name: "negative_qty", cart: models.Cart{Items: []models.Item{ship, {SKU: "A1", Qty: -3}}, Total: decimal.NewFromInt(10)}, wantErr: true},
		{name: "zero_qty", cart: models.Cart{Items: []models.Item{ship, {SKU: "A1", Qty: 0}}, Total: decimal.NewFromInt(10)}},
		{name: "lowercase_ship", cart: models.Cart{Items: []models.Item{{SKU: "ship", Qty: 1}}, Total: decimal.NewFromInt(1)}, wantErr: true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := Validate(tt.cart)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrCartNotValid)
				assert.NotErrorIs(t, err, ErrInvalidPayload)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestItemCountExcludesShipping(t *testing.T) {
	t.Parallel()

	c := models.Cart{Items: []models.Item{
		{SKU: models.ShippingSKU, Qty: 1},
		{SKU: "A1", Qty: 2},
		{SKU: "B7", Qty: 3},
		{SKU: "C0", Qty: 0},
	}}

	assert.Equal(t, 5, ItemCount(c))
	assert.Equal(t, 0, ItemCount(models.Cart{}))
}

func TestParseReadsFractionalQuantities(t *testing.T) {
	t.Parallel()

	c, err := Parse([]byte(`{"items":[{"sku":"SHIP","qty":1.0},{"sku":"A1","qty":2.0},{"sku":"B7","qty":"3"},{"sku":"C0","qty":1.9}],"total":10}`))
	require.NoError(t, err)

	assert.Equal(t, []models.Item{
		{SKU: "SHIP", Qty: 1},
		{SKU: "A1", Qty: 2},
		{SKU: "B7", Qty: 3},
		{SKU: "C0", Qty: 1},
	}, c.Items)
	assert.Equal(t, 6, ItemCount(c))
}

func TestParseKeepsPayloadVerbatim(t *testing.T) {
	t.Parallel()

	payload := `{"total":17.49,"tax":2.91,"items":[{"qty":1,"sku":"Watson","name":"Watson","price":12.5,"subtotal":12.5},{"qty":1,"sku":"SHIP","name":"shipping","price":4.99,"subtotal":4.99}]}`

	c, err := Parse([]byte("  " + payload + "\n"))
	require.NoError(t, err)
	assert.JSONEq(t, payload, string(c.Raw))

	out, err := json.Marshal(models.Order{ID: "o1", UserID: "u1", Cart: c})
	require.NoError(t, err)

	var decoded struct {
		Cart map[string]any `json:"cart"`
	}
	require.NoError(t, json.Unmarshal(out, &decoded))
	assert.Equal(t, 2.91, decoded.Cart["tax"])
	items := decoded.Cart["items"].([]any)
	require.Len(t, items, 2)
	assert.Equal(t, "Watson", items[0].(map[string]any)["name"])
	assert.Equal(t, 12.5, items[0].(map[string]any)["price"])
}

func TestCartWithoutPayloadEncodesTotalAsNumber(t *testing.T) {
	t.Parallel()

	c := models.Cart{
		Items: []models.Item{{SKU: models.ShippingSKU, Qty: 1}},
		Total: decimal.RequireFromString("17.49"),
	}

	out, err := json.Marshal(c)
	require.NoError(t, err)
	assert.JSONEq(t, `{"items":[{"sku":"SHIP","qty":1}],"total":17.49}`, string(out))
}
