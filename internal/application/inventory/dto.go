package inventory

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/wms/backend/internal/domain/inventory"
)

// CreateItemRequest carries the fields for creating an inventory item
type CreateItemRequest struct {
	SKU                    string          `json:"sku" binding:"required"`
	Name                   string          `json:"name" binding:"required"`
	Description            string          `json:"description"`
	UnitCost               decimal.Decimal `json:"unit_cost"`
	RetailPrice            decimal.Decimal `json:"retail_price"`
	ReorderLevel           int             `json:"reorder_level"`
	PickingReorderLevel    int             `json:"picking_reorder_level"`
	LocationCode           string          `json:"location_code"`
	PickingBinLocationCode string          `json:"picking_bin_location_code"`
	AutoReorderEnabled     bool            `json:"auto_reorder_enabled"`
	AutoReorderQuantity    int             `json:"auto_reorder_quantity"`
	VendorID               *uuid.UUID      `json:"vendor_id"`
	InitialPickingBin      int             `json:"initial_picking_bin"`
	InitialOverstock       int             `json:"initial_overstock"`
}

// UpdateItemRequest carries the mutable non-quantity fields of an item.
// Quantities only change through stock movements.
type UpdateItemRequest struct {
	Name                   string          `json:"name" binding:"required"`
	Description            string          `json:"description"`
	UnitCost               decimal.Decimal `json:"unit_cost"`
	RetailPrice            decimal.Decimal `json:"retail_price"`
	ReorderLevel           int             `json:"reorder_level"`
	PickingReorderLevel    int             `json:"picking_reorder_level"`
	LocationCode           string          `json:"location_code"`
	PickingBinLocationCode string          `json:"picking_bin_location_code"`
	AutoReorderEnabled     bool            `json:"auto_reorder_enabled"`
	AutoReorderQuantity    int             `json:"auto_reorder_quantity"`
	VendorID               *uuid.UUID      `json:"vendor_id"`
}

// ApplyMovementRequest carries one stock movement
type ApplyMovementRequest struct {
	Type   inventory.MovementType   `json:"type" binding:"required"`
	Bucket inventory.MovementBucket `json:"bucket"`
	Amount int                      `json:"amount" binding:"required"`
	Reason string                   `json:"reason"`
}

// MovementDTO is the API shape of one ledger entry
type MovementDTO struct {
	ID          uuid.UUID                `json:"id"`
	ItemID      uuid.UUID                `json:"item_id"`
	Type        inventory.MovementType   `json:"type"`
	Bucket      inventory.MovementBucket `json:"bucket"`
	Amount      int                      `json:"amount"`
	OldQuantity int                      `json:"old_quantity"`
	NewQuantity int                      `json:"new_quantity"`
	Reason      string                   `json:"reason,omitempty"`
	ActorID     *uuid.UUID               `json:"actor_id,omitempty"`
	RecordedAt  time.Time                `json:"recorded_at"`
}

func toMovementDTO(m *inventory.StockMovement) MovementDTO {
	return MovementDTO{
		ID:          m.ID,
		ItemID:      m.ItemID,
		Type:        m.Type,
		Bucket:      m.Bucket,
		Amount:      m.Amount,
		OldQuantity: m.OldQuantity,
		NewQuantity: m.NewQuantity,
		Reason:      m.Reason,
		ActorID:     m.ActorID,
		RecordedAt:  m.RecordedAt,
	}
}
