package inventory

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/wms/backend/internal/domain/shared"
)

// ItemStatus represents the stock availability of an item
type ItemStatus string

const (
	StatusInStock    ItemStatus = "in_stock"
	StatusLowStock   ItemStatus = "low_stock"
	StatusOutOfStock ItemStatus = "out_of_stock"
)

// MovementBucket selects which physical bucket a stock movement touches.
// BucketAuto lets the aggregate decide: additions land in overstock,
// subtractions drain the picking bin first and overstock for the remainder.
type MovementBucket string

const (
	BucketAuto       MovementBucket = "auto"
	BucketPickingBin MovementBucket = "picking_bin"
	BucketOverstock  MovementBucket = "overstock"
)

// InventoryItem is the inventory aggregate root. The total quantity is
// always the sum of the picking bin and overstock quantities, and the
// status is derived from the total against the reorder level. Both are
// recomputed on every mutation, never written directly.
type InventoryItem struct {
	shared.OrgAggregateRoot
	SKU                    string          `gorm:"type:varchar(100);not null;uniqueIndex:idx_item_org_sku,priority:2"`
	Name                   string          `gorm:"type:varchar(255);not null"`
	Description            string          `gorm:"type:text"`
	PickingBinQuantity     int             `gorm:"not null;default:0"`
	OverstockQuantity      int             `gorm:"not null;default:0"`
	Quantity               int             `gorm:"not null;default:0"`
	Status                 ItemStatus      `gorm:"type:varchar(20);not null;default:'out_of_stock'"`
	ReorderLevel           int             `gorm:"not null;default:0"`
	PickingReorderLevel    int             `gorm:"not null;default:0"`
	CommittedStock         int             `gorm:"not null;default:0"`
	IncomingStock          int             `gorm:"not null;default:0"`
	UnitCost               decimal.Decimal `gorm:"type:decimal(19,4);not null;default:0"`
	RetailPrice            decimal.Decimal `gorm:"type:decimal(19,4);not null;default:0"`
	LocationCode           string          `gorm:"type:varchar(120)"`
	PickingBinLocationCode string          `gorm:"type:varchar(120)"`
	AutoReorderEnabled     bool            `gorm:"not null;default:false"`
	AutoReorderQuantity    int             `gorm:"not null;default:0"`
	VendorID               *uuid.UUID      `gorm:"type:uuid"`
}

// TableName returns the table name for GORM
func (InventoryItem) TableName() string {
	return "inventory_items"
}

// NewInventoryItem creates a new inventory item
func NewInventoryItem(organizationID uuid.UUID, sku, name string, unitCost, retailPrice decimal.Decimal) (*InventoryItem, error) {
	if organizationID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_ORGANIZATION", "Organization ID cannot be empty")
	}
	if sku == "" {
		return nil, shared.NewDomainError("INVALID_SKU", "SKU cannot be empty")
	}
	if name == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Item name cannot be empty")
	}
	if unitCost.IsNegative() || retailPrice.IsNegative() {
		return nil, shared.NewDomainError("INVALID_PRICE", "Prices cannot be negative")
	}

	item := &InventoryItem{
		OrgAggregateRoot: shared.NewOrgAggregateRoot(organizationID),
		SKU:              sku,
		Name:             name,
		UnitCost:         unitCost,
		RetailPrice:      retailPrice,
		Status:           StatusOutOfStock,
	}
	return item, nil
}

// recompute derives the total quantity and status from the bucket quantities.
func (i *InventoryItem) recompute() {
	i.Quantity = i.PickingBinQuantity + i.OverstockQuantity
	switch {
	case i.Quantity == 0:
		i.Status = StatusOutOfStock
	case i.Quantity <= i.ReorderLevel:
		i.Status = StatusLowStock
	default:
		i.Status = StatusInStock
	}
	i.UpdatedAt = time.Now()
}

// AddStock increases stock in the given bucket. With BucketAuto the
// addition lands in overstock.
func (i *InventoryItem) AddStock(amount int, bucket MovementBucket) error {
	if amount <= 0 {
		return shared.NewDomainError("INVALID_AMOUNT", "Movement amount must be positive")
	}

	switch bucket {
	case BucketPickingBin:
		i.PickingBinQuantity += amount
	case BucketOverstock, BucketAuto:
		i.OverstockQuantity += amount
	default:
		return shared.NewDomainError("INVALID_BUCKET", "Unknown movement bucket")
	}

	wasBelow := i.Status != StatusInStock
	i.recompute()
	i.raiseThresholdEvent(wasBelow)
	return nil
}

// RemoveStock decreases stock from the given bucket. With BucketAuto the
// picking bin is drained first and overstock covers the remainder. The
// whole amount is rejected when the selected bucket cannot cover it.
func (i *InventoryItem) RemoveStock(amount int, bucket MovementBucket) error {
	if amount <= 0 {
		return shared.NewDomainError("INVALID_AMOUNT", "Movement amount must be positive")
	}

	switch bucket {
	case BucketAuto:
		if amount > i.Quantity {
			return shared.ErrInsufficientStock
		}
		fromPicking := amount
		if fromPicking > i.PickingBinQuantity {
			fromPicking = i.PickingBinQuantity
		}
		i.PickingBinQuantity -= fromPicking
		i.OverstockQuantity -= amount - fromPicking
	case BucketPickingBin:
		if amount > i.PickingBinQuantity {
			return shared.ErrInsufficientStock
		}
		i.PickingBinQuantity -= amount
	case BucketOverstock:
		if amount > i.OverstockQuantity {
			return shared.ErrInsufficientStock
		}
		i.OverstockQuantity -= amount
	default:
		return shared.NewDomainError("INVALID_BUCKET", "Unknown movement bucket")
	}

	wasBelow := i.Status != StatusInStock
	i.recompute()
	i.raiseThresholdEvent(wasBelow)
	return nil
}

// MoveToPickingBin transfers stock from overstock into the picking bin
func (i *InventoryItem) MoveToPickingBin(amount int) error {
	if amount <= 0 {
		return shared.NewDomainError("INVALID_AMOUNT", "Movement amount must be positive")
	}
	if amount > i.OverstockQuantity {
		return shared.ErrInsufficientStock
	}
	i.OverstockQuantity -= amount
	i.PickingBinQuantity += amount
	i.recompute()
	return nil
}

// ReceiveIncoming books a received purchase quantity into overstock and
// reduces the incoming counter, never below zero.
func (i *InventoryItem) ReceiveIncoming(amount int) error {
	if amount <= 0 {
		return shared.NewDomainError("INVALID_AMOUNT", "Received amount must be positive")
	}
	i.OverstockQuantity += amount
	i.IncomingStock -= amount
	if i.IncomingStock < 0 {
		i.IncomingStock = 0
	}
	wasBelow := i.Status != StatusInStock
	i.recompute()
	i.raiseThresholdEvent(wasBelow)
	return nil
}

// ExpectIncoming raises the incoming counter when a purchase draft is placed
func (i *InventoryItem) ExpectIncoming(amount int) error {
	if amount <= 0 {
		return shared.NewDomainError("INVALID_AMOUNT", "Expected amount must be positive")
	}
	i.IncomingStock += amount
	i.UpdatedAt = time.Now()
	return nil
}

// DropIncoming releases expected units that will no longer arrive, for
// example after a purchase draft was cancelled.
func (i *InventoryItem) DropIncoming(amount int) error {
	if amount <= 0 {
		return shared.NewDomainError("INVALID_AMOUNT", "Dropped amount must be positive")
	}
	i.IncomingStock -= amount
	if i.IncomingStock < 0 {
		i.IncomingStock = 0
	}
	i.UpdatedAt = time.Now()
	return nil
}

// CommitStock reserves stock for an order without moving it
func (i *InventoryItem) CommitStock(amount int) error {
	if amount <= 0 {
		return shared.NewDomainError("INVALID_AMOUNT", "Committed amount must be positive")
	}
	if i.CommittedStock+amount > i.Quantity {
		return shared.ErrInsufficientStock
	}
	i.CommittedStock += amount
	i.UpdatedAt = time.Now()
	return nil
}

// ReleaseStock returns previously committed stock to the free pool
func (i *InventoryItem) ReleaseStock(amount int) error {
	if amount <= 0 {
		return shared.NewDomainError("INVALID_AMOUNT", "Released amount must be positive")
	}
	i.CommittedStock -= amount
	if i.CommittedStock < 0 {
		i.CommittedStock = 0
	}
	i.UpdatedAt = time.Now()
	return nil
}

// SetReorderLevels updates the reorder thresholds and re-derives the status
func (i *InventoryItem) SetReorderLevels(reorderLevel, pickingReorderLevel int) error {
	if reorderLevel < 0 || pickingReorderLevel < 0 {
		return shared.NewDomainError("INVALID_REORDER_LEVEL", "Reorder levels cannot be negative")
	}
	i.ReorderLevel = reorderLevel
	i.PickingReorderLevel = pickingReorderLevel
	i.recompute()
	return nil
}

// ConfigureAutoReorder toggles automatic replenishment for the item
func (i *InventoryItem) ConfigureAutoReorder(enabled bool, quantity int, vendorID *uuid.UUID) error {
	if enabled && quantity <= 0 {
		return shared.NewDomainError("INVALID_REORDER_QUANTITY", "Auto reorder quantity must be positive")
	}
	i.AutoReorderEnabled = enabled
	i.AutoReorderQuantity = quantity
	i.VendorID = vendorID
	i.UpdatedAt = time.Now()
	return nil
}

// AssignLocations sets the overstock and picking bin location codes
func (i *InventoryItem) AssignLocations(locationCode, pickingBinLocationCode string) {
	i.LocationCode = locationCode
	i.PickingBinLocationCode = pickingBinLocationCode
	i.UpdatedAt = time.Now()
}

// AvailableStock returns the stock not committed to orders
func (i *InventoryItem) AvailableStock() int {
	return i.Quantity - i.CommittedStock
}

// NeedsPickingRefill reports whether the picking bin fell to its refill
// threshold while overstock still has units to move down.
func (i *InventoryItem) NeedsPickingRefill() bool {
	return i.PickingBinQuantity <= i.PickingReorderLevel && i.OverstockQuantity > 0
}

func (i *InventoryItem) raiseThresholdEvent(wasBelow bool) {
	if wasBelow || i.Status == StatusInStock {
		return
	}
	i.AddDomainEvent(NewStockBelowReorderEvent(i))
}

// Snapshot captures the full current state of the item for change feeds
func (i *InventoryItem) Snapshot() ItemSnapshot {
	return ItemSnapshot{
		ID:                     i.ID,
		OrganizationID:         i.OrganizationID,
		SKU:                    i.SKU,
		Name:                   i.Name,
		Description:            i.Description,
		PickingBinQuantity:     i.PickingBinQuantity,
		OverstockQuantity:      i.OverstockQuantity,
		Quantity:               i.Quantity,
		Status:                 i.Status,
		ReorderLevel:           i.ReorderLevel,
		PickingReorderLevel:    i.PickingReorderLevel,
		CommittedStock:         i.CommittedStock,
		IncomingStock:          i.IncomingStock,
		UnitCost:               i.UnitCost,
		RetailPrice:            i.RetailPrice,
		LocationCode:           i.LocationCode,
		PickingBinLocationCode: i.PickingBinLocationCode,
		AutoReorderEnabled:     i.AutoReorderEnabled,
		AutoReorderQuantity:    i.AutoReorderQuantity,
		VendorID:               i.VendorID,
		Version:                i.Version,
		UpdatedAt:              i.UpdatedAt,
	}
}
