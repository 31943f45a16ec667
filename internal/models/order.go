package models

import (
	"github.com/jinzhu/gorm"
)

// TempOrderItem is one persisted cart row for a table's open order. Rows are
// unique per (order id, menu item id, canonical modifiers, alias); quantity
// is incremented and decremented in place and a row never survives at zero.
type TempOrderItem struct {
	gorm.Model
	OrderID    string `gorm:"index" json:"order_id"`
	MenuItemID string `json:"menu_item_id"`
	// Modifiers holds the canonical serialization of the selected modifiers,
	// as produced by the cart key normalizer. Empty string means none.
	Modifiers string `json:"modifiers"`
	Quantity  int    `json:"quantity"`
	Alias     string `json:"alias"`
	// ItemSnapshot is the JSON-encoded menu item captured at add time, so
	// that later price or name changes do not rewrite an open cart.
	ItemSnapshot string `gorm:"type:text" json:"item_snapshot,omitempty"`
}

// TableCode maps a printed QR code to a table number.
type TableCode struct {
	gorm.Model
	Code        string `gorm:"unique_index" json:"code"`
	TableNumber int    `json:"table_number"`
	Active      bool   `json:"active"`
}

// OrderItemEventType enumerates the change-feed event kinds emitted when a
// temp order row is written.
type OrderItemEventType string

const (
	OrderItemInserted OrderItemEventType = "INSERT"
	OrderItemUpdated  OrderItemEventType = "UPDATE"
	OrderItemDeleted  OrderItemEventType = "DELETE"
)

// OrderItemEvent is pushed to subscribers of an order's change feed. Row is
// the authoritative post-change state; for deletes it is the removed row.
type OrderItemEvent struct {
	Type    OrderItemEventType `json:"type"`
	OrderID string             `json:"order_id"`
	Row     TempOrderItem      `json:"row"`
}
