// internal/adapters/shopify/dto.go
package shopify

import "encoding/json"

type graphqlRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

type graphqlResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []graphqlError  `json:"errors"`
}

type graphqlError struct {
	Message    string `json:"message"`
	Extensions struct {
		Code string `json:"code"`
	} `json:"extensions"`
}

type userError struct {
	Field   []string `json:"field"`
	Message string   `json:"message"`
}

type locationNode struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	IsActive bool   `json:"isActive"`
}

type quantityNode struct {
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
}

type inventoryLevelNode struct {
	Location   *locationNode  `json:"location"`
	Quantities []quantityNode `json:"quantities"`
}

func (n inventoryLevelNode) available() int {
	for _, q := range n.Quantities {
		if q.Name == "available" {
			return q.Quantity
		}
	}
	return 0
}

type variantsData struct {
	ProductVariants struct {
		Nodes []struct {
			ID            string `json:"id"`
			SKU           string `json:"sku"`
			InventoryItem *struct {
				ID string `json:"id"`
			} `json:"inventoryItem"`
		} `json:"nodes"`
	} `json:"productVariants"`
}

type inventoryLevelsData struct {
	InventoryItem *struct {
		InventoryLevels struct {
			Nodes []inventoryLevelNode `json:"nodes"`
		} `json:"inventoryLevels"`
	} `json:"inventoryItem"`
}

type locationsData struct {
	Locations struct {
		Nodes    []locationNode `json:"nodes"`
		PageInfo struct {
			HasNextPage bool   `json:"hasNextPage"`
			EndCursor   string `json:"endCursor"`
		} `json:"pageInfo"`
	} `json:"locations"`
}

type inventoryActivateData struct {
	InventoryActivate struct {
		InventoryLevel *inventoryLevelNode `json:"inventoryLevel"`
		UserErrors     []userError         `json:"userErrors"`
	} `json:"inventoryActivate"`
}

type inventoryAdjustData struct {
	InventoryAdjustQuantities struct {
		UserErrors []userError `json:"userErrors"`
	} `json:"inventoryAdjustQuantities"`
}
