// internal/core/domain/inventory.go
package domain

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// LocationQuantity is the stock a warehouse reports for one of its locations.
type LocationQuantity struct {
	LocationName string `json:"location_name"`
	Quantity     int    `json:"quantity"`
}

// CanonicalInventoryItem is the merged, per-SKU view of warehouse stock
// across every configured location. Built fresh for each sync run.
type CanonicalInventoryItem struct {
	SKU         string             `json:"sku"`
	ProductName string             `json:"product_name"`
	Locations   []LocationQuantity `json:"locations"`
}

// Validate checks the invariants a canonical item must satisfy before it
// can be reconciled.
func (i *CanonicalInventoryItem) Validate() error {
	if strings.TrimSpace(i.SKU) == "" {
		return fmt.Errorf("sku is required")
	}
	if len(i.Locations) == 0 {
		return fmt.Errorf("item %s has no locations", i.SKU)
	}
	for _, loc := range i.Locations {
		if loc.Quantity < 0 {
			return fmt.Errorf("item %s has negative quantity at %s", i.SKU, loc.LocationName)
		}
	}
	return nil
}

// CommerceVariantRef identifies a product variant on the commerce platform.
type CommerceVariantRef struct {
	VariantID       string `json:"variant_id"`
	InventoryItemID string `json:"inventory_item_id"`
	SKU             string `json:"sku"`
}

// CommerceInventoryLevel is the tracked stock of one inventory item at one
// commerce location.
type CommerceInventoryLevel struct {
	LocationID   string `json:"location_id"`
	LocationName string `json:"location_name"`
	Available    int    `json:"available"`
}

// ShopLocation is a location registered in the shop.
type ShopLocation struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	IsActive bool   `json:"is_active"`
}

// Adjustment is a signed change to the available quantity of an inventory
// item at a location.
type Adjustment struct {
	SKU             string `json:"sku"`
	InventoryItemID string `json:"inventory_item_id"`
	LocationID      string `json:"location_id"`
	Delta           int    `json:"delta"`
}

// NormalizeLocationName lowercases, trims and collapses internal whitespace
// runs. Two names denote the same location iff they normalize identically.
func NormalizeLocationName(name string) string {
	lowered := cases.Lower(language.Und).String(name)
	return strings.Join(strings.Fields(lowered), " ")
}
