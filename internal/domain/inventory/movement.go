package inventory

import (
	"time"

	"github.com/google/uuid"
	"github.com/wms/backend/internal/domain/shared"
)

// MovementType represents the direction of a stock movement
type MovementType string

const (
	MovementAdd      MovementType = "add"
	MovementSubtract MovementType = "subtract"
)

// StockMovement is one append-only ledger entry. Entries are never updated
// or deleted; each carries the total quantity before and after it was
// applied, so any slice of the ledger can be audited in isolation.
type StockMovement struct {
	shared.BaseEntity
	OrganizationID uuid.UUID      `gorm:"type:uuid;not null;index"`
	ItemID         uuid.UUID      `gorm:"type:uuid;not null;index:idx_movement_item_time,priority:1"`
	Type           MovementType   `gorm:"type:varchar(10);not null"`
	Bucket         MovementBucket `gorm:"type:varchar(15);not null;default:'auto'"`
	Amount         int            `gorm:"not null"`
	OldQuantity    int            `gorm:"not null"`
	NewQuantity    int            `gorm:"not null"`
	Reason         string         `gorm:"type:varchar(255)"`
	ActorID        *uuid.UUID     `gorm:"type:uuid"`
	RecordedAt     time.Time      `gorm:"not null;index:idx_movement_item_time,priority:2,sort:desc"`
}

// TableName returns the table name for GORM
func (StockMovement) TableName() string {
	return "stock_movements"
}

// NewStockMovement creates a ledger entry and validates its arithmetic:
// the new total must equal the old total plus or minus the amount.
func NewStockMovement(organizationID, itemID uuid.UUID, movementType MovementType, bucket MovementBucket, amount, oldQuantity, newQuantity int, reason string, actorID *uuid.UUID) (*StockMovement, error) {
	if organizationID == uuid.Nil || itemID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_MOVEMENT", "Organization and item are required")
	}
	if amount <= 0 {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Movement amount must be positive")
	}
	switch movementType {
	case MovementAdd:
		if newQuantity != oldQuantity+amount {
			return nil, shared.NewDomainError("INVALID_MOVEMENT", "New quantity must equal old quantity plus amount")
		}
	case MovementSubtract:
		if newQuantity != oldQuantity-amount {
			return nil, shared.NewDomainError("INVALID_MOVEMENT", "New quantity must equal old quantity minus amount")
		}
	default:
		return nil, shared.NewDomainError("INVALID_MOVEMENT", "Unknown movement type")
	}
	if newQuantity < 0 {
		return nil, shared.NewDomainError("INVALID_MOVEMENT", "Quantity cannot go negative")
	}

	return &StockMovement{
		BaseEntity:     shared.NewBaseEntity(),
		OrganizationID: organizationID,
		ItemID:         itemID,
		Type:           movementType,
		Bucket:         bucket,
		Amount:         amount,
		OldQuantity:    oldQuantity,
		NewQuantity:    newQuantity,
		Reason:         reason,
		ActorID:        actorID,
		RecordedAt:     time.Now(),
	}, nil
}
