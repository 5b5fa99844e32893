package inventory

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/wms/backend/internal/domain/shared"
)

// Event type constants
const (
	EventTypeItemChanged       = "InventoryItemChanged"
	EventTypeStockBelowReorder = "StockBelowReorderLevel"
)

// ChangeKind distinguishes the shape of an item change event
type ChangeKind string

const (
	ChangeInsert ChangeKind = "insert"
	ChangeUpdate ChangeKind = "update"
	ChangeDelete ChangeKind = "delete"
)

// ItemSnapshot is the full post-image of an inventory item carried on
// change events. Consumers replace their copy wholesale rather than
// applying field deltas, so a lost event is healed by the next one.
type ItemSnapshot struct {
	ID                     uuid.UUID       `json:"id"`
	OrganizationID         uuid.UUID       `json:"organization_id"`
	SKU                    string          `json:"sku"`
	Name                   string          `json:"name"`
	Description            string          `json:"description,omitempty"`
	PickingBinQuantity     int             `json:"picking_bin_quantity"`
	OverstockQuantity      int             `json:"overstock_quantity"`
	Quantity               int             `json:"quantity"`
	Status                 ItemStatus      `json:"status"`
	ReorderLevel           int             `json:"reorder_level"`
	PickingReorderLevel    int             `json:"picking_reorder_level"`
	CommittedStock         int             `json:"committed_stock"`
	IncomingStock          int             `json:"incoming_stock"`
	UnitCost               decimal.Decimal `json:"unit_cost"`
	RetailPrice            decimal.Decimal `json:"retail_price"`
	LocationCode           string          `json:"location_code,omitempty"`
	PickingBinLocationCode string          `json:"picking_bin_location_code,omitempty"`
	AutoReorderEnabled     bool            `json:"auto_reorder_enabled"`
	AutoReorderQuantity    int             `json:"auto_reorder_quantity"`
	VendorID               *uuid.UUID      `json:"vendor_id,omitempty"`
	Version                int             `json:"version"`
	UpdatedAt              time.Time       `json:"updated_at"`
}

// ItemChangedEvent is published after every committed change to an item.
// Previous is nil for inserts; Current is nil for deletes.
type ItemChangedEvent struct {
	shared.BaseDomainEvent
	Kind     ChangeKind    `json:"kind"`
	Previous *ItemSnapshot `json:"previous,omitempty"`
	Current  *ItemSnapshot `json:"current,omitempty"`
}

// NewItemChangedEvent creates a change event for the given transition
func NewItemChangedEvent(orgID, itemID uuid.UUID, kind ChangeKind, previous, current *ItemSnapshot) *ItemChangedEvent {
	return &ItemChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeItemChanged, "InventoryItem", itemID, orgID),
		Kind:            kind,
		Previous:        previous,
		Current:         current,
	}
}

// StockBelowReorderEvent fires when an item's total quantity falls to or
// below its reorder level.
type StockBelowReorderEvent struct {
	shared.BaseDomainEvent
	SKU          string     `json:"sku"`
	Name         string     `json:"name"`
	Quantity     int        `json:"quantity"`
	ReorderLevel int        `json:"reorder_level"`
	Status       ItemStatus `json:"status"`
}

// NewStockBelowReorderEvent creates a threshold alert event from the item
func NewStockBelowReorderEvent(item *InventoryItem) *StockBelowReorderEvent {
	return &StockBelowReorderEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeStockBelowReorder, "InventoryItem", item.ID, item.OrganizationID),
		SKU:             item.SKU,
		Name:            item.Name,
		Quantity:        item.Quantity,
		ReorderLevel:    item.ReorderLevel,
		Status:          item.Status,
	}
}
