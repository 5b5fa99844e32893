package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/wms/backend/internal/domain/inventory"
	"github.com/wms/backend/internal/domain/shared"
)

// GormMovementRepository implements inventory.MovementRepository using
// GORM. The ledger is append-only, so only Create and reads exist.
type GormMovementRepository struct {
	db *gorm.DB
}

// NewGormMovementRepository creates a new GormMovementRepository
func NewGormMovementRepository(db *gorm.DB) *GormMovementRepository {
	return &GormMovementRepository{db: db}
}

// Create appends a ledger entry
func (r *GormMovementRepository) Create(ctx context.Context, movement *inventory.StockMovement) error {
	return r.db.WithContext(ctx).Create(movement).Error
}

// FindByItem lists an item's ledger entries newest first
func (r *GormMovementRepository) FindByItem(ctx context.Context, organizationID, itemID uuid.UUID, since time.Time, filter shared.Filter) (shared.Paginated[inventory.StockMovement], error) {
	base := r.db.WithContext(ctx).Model(&inventory.StockMovement{}).
		Where("organization_id = ? AND item_id = ?", organizationID, itemID)
	if !since.IsZero() {
		base = base.Where("recorded_at >= ?", since)
	}

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return shared.Paginated[inventory.StockMovement]{}, err
	}

	page, pageSize := normalizePage(filter)
	var movements []inventory.StockMovement
	if err := base.Order("recorded_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&movements).Error; err != nil {
		return shared.Paginated[inventory.StockMovement]{}, err
	}
	return shared.NewPaginated(movements, total, page, pageSize), nil
}

// CountByItem returns the number of ledger entries for an item
func (r *GormMovementRepository) CountByItem(ctx context.Context, organizationID, itemID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&inventory.StockMovement{}).
		Where("organization_id = ? AND item_id = ?", organizationID, itemID).
		Count(&count).Error
	return count, err
}

var _ inventory.MovementRepository = (*GormMovementRepository)(nil)
