// internal/adapters/warehouse/dto.go
package warehouse

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"
)

// inventoryPage is one page of GET /inventories.
type inventoryPage struct {
	Data        []inventoryRecord `json:"data"`
	CurrentPage int               `json:"current_page"`
	LastPage    int               `json:"last_page"`
}

type inventoryRecord struct {
	Product     *productRef `json:"product"`
	Quantity    quantity    `json:"sale_inventory_quantity"`
	WarehouseID flexID      `json:"warehouse_id"`
}

type productRef struct {
	SKU  string `json:"sku"`
	Name string `json:"name"`
}

// quantity accepts a JSON number or a numeric string. Missing, null or
// unparseable values leave it invalid.
type quantity struct {
	value decimal.Decimal
	valid bool
}

func (q *quantity) UnmarshalJSON(b []byte) error {
	raw := strings.TrimSpace(string(bytes.Trim(b, `"`)))
	if raw == "" || raw == "null" {
		*q = quantity{}
		return nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		*q = quantity{}
		return nil
	}
	*q = quantity{value: d, valid: true}
	return nil
}

// Int truncates toward zero and clamps negatives to zero.
func (q quantity) Int() int {
	n := q.value.IntPart()
	if n < 0 {
		return 0
	}
	return int(n)
}

// flexID accepts a warehouse id encoded as a JSON string or number.
type flexID string

func (f *flexID) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*f = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexID(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*f = flexID(n.String())
	return nil
}
