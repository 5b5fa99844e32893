package inventory

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/wms/backend/internal/domain/shared"
)

// ItemRepository defines the interface for inventory item persistence
type ItemRepository interface {
	// FindByID finds an item by ID within an organization
	FindByID(ctx context.Context, organizationID, id uuid.UUID) (*InventoryItem, error)

	// FindBySKU finds an item by SKU within an organization
	FindBySKU(ctx context.Context, organizationID uuid.UUID, sku string) (*InventoryItem, error)

	// FindAllForOrg lists items for an organization with pagination
	FindAllForOrg(ctx context.Context, organizationID uuid.UUID, filter shared.Filter) (shared.Paginated[InventoryItem], error)

	// FindAllSnapshots returns a full projection of every item in the
	// organization, used to seed realtime sessions.
	FindAllSnapshots(ctx context.Context, organizationID uuid.UUID) ([]ItemSnapshot, error)

	// FindBelowReorderLevel lists items at or below their reorder level
	FindBelowReorderLevel(ctx context.Context, organizationID uuid.UUID) ([]InventoryItem, error)

	// Save persists an item without concurrency checks
	Save(ctx context.Context, item *InventoryItem) error

	// SaveWithLock persists an item guarded by its optimistic lock version.
	// Returns shared.ErrConcurrencyConflict when another writer got there
	// first.
	SaveWithLock(ctx context.Context, item *InventoryItem) error

	// Delete removes an item within an organization
	Delete(ctx context.Context, organizationID, id uuid.UUID) error

	// ExistsBySKU checks whether an item with the SKU exists in the organization
	ExistsBySKU(ctx context.Context, organizationID uuid.UUID, sku string) (bool, error)
}

// MovementRepository defines the interface for the stock movement ledger.
// The ledger is append-only; there is deliberately no update or delete.
type MovementRepository interface {
	// Create appends a ledger entry
	Create(ctx context.Context, movement *StockMovement) error

	// FindByItem lists an item's ledger entries newest first. A non-zero
	// since bounds the window to entries recorded at or after it.
	FindByItem(ctx context.Context, organizationID, itemID uuid.UUID, since time.Time, filter shared.Filter) (shared.Paginated[StockMovement], error)

	// CountByItem returns the number of ledger entries for an item
	CountByItem(ctx context.Context, organizationID, itemID uuid.UUID) (int64, error)
}
