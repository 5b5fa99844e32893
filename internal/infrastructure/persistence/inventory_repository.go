package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/wms/backend/internal/domain/inventory"
	"github.com/wms/backend/internal/domain/shared"
)

var itemOrderColumns = map[string]bool{
	"created_at": true,
	"updated_at": true,
	"sku":        true,
	"name":       true,
	"quantity":   true,
	"status":     true,
}

// GormItemRepository implements inventory.ItemRepository using GORM
type GormItemRepository struct {
	db *gorm.DB
}

// NewGormItemRepository creates a new GormItemRepository
func NewGormItemRepository(db *gorm.DB) *GormItemRepository {
	return &GormItemRepository{db: db}
}

// FindByID finds an item by ID within an organization
func (r *GormItemRepository) FindByID(ctx context.Context, organizationID, id uuid.UUID) (*inventory.InventoryItem, error) {
	var item inventory.InventoryItem
	if err := r.db.WithContext(ctx).
		Where("organization_id = ? AND id = ?", organizationID, id).
		First(&item).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &item, nil
}

// FindBySKU finds an item by SKU within an organization
func (r *GormItemRepository) FindBySKU(ctx context.Context, organizationID uuid.UUID, sku string) (*inventory.InventoryItem, error) {
	var item inventory.InventoryItem
	if err := r.db.WithContext(ctx).
		Where("organization_id = ? AND sku = ?", organizationID, sku).
		First(&item).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &item, nil
}

// FindAllForOrg lists items for an organization with pagination
func (r *GormItemRepository) FindAllForOrg(ctx context.Context, organizationID uuid.UUID, filter shared.Filter) (shared.Paginated[inventory.InventoryItem], error) {
	base := r.db.WithContext(ctx).Model(&inventory.InventoryItem{}).
		Where("organization_id = ?", organizationID)
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		base = base.Where("sku ILIKE ? OR name ILIKE ?", pattern, pattern)
	}
	if status, ok := filter.Filters["status"]; ok {
		base = base.Where("status = ?", status)
	}

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return shared.Paginated[inventory.InventoryItem]{}, err
	}

	var items []inventory.InventoryItem
	if err := applyFilter(base, filter, itemOrderColumns).Find(&items).Error; err != nil {
		return shared.Paginated[inventory.InventoryItem]{}, err
	}

	page, pageSize := normalizePage(filter)
	return shared.NewPaginated(items, total, page, pageSize), nil
}

// FindAllSnapshots returns the full projection of an organization's items
func (r *GormItemRepository) FindAllSnapshots(ctx context.Context, organizationID uuid.UUID) ([]inventory.ItemSnapshot, error) {
	var items []inventory.InventoryItem
	if err := r.db.WithContext(ctx).
		Where("organization_id = ?", organizationID).
		Order("sku ASC").
		Find(&items).Error; err != nil {
		return nil, err
	}
	snaps := make([]inventory.ItemSnapshot, 0, len(items))
	for i := range items {
		snaps = append(snaps, items[i].Snapshot())
	}
	return snaps, nil
}

// FindBelowReorderLevel lists items at or below their reorder level
func (r *GormItemRepository) FindBelowReorderLevel(ctx context.Context, organizationID uuid.UUID) ([]inventory.InventoryItem, error) {
	var items []inventory.InventoryItem
	if err := r.db.WithContext(ctx).
		Where("organization_id = ? AND quantity <= reorder_level", organizationID).
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// Save persists an item without concurrency checks
func (r *GormItemRepository) Save(ctx context.Context, item *inventory.InventoryItem) error {
	return r.db.WithContext(ctx).Save(item).Error
}

// SaveWithLock saves guarded by the optimistic lock version. The caller
// incremented the version already; the row is matched on the previous
// one.
func (r *GormItemRepository) SaveWithLock(ctx context.Context, item *inventory.InventoryItem) error {
	result := r.db.WithContext(ctx).
		Model(item).
		Where("id = ? AND version = ?", item.ID, item.Version-1).
		Updates(map[string]interface{}{
			"name":                      item.Name,
			"description":               item.Description,
			"picking_bin_quantity":      item.PickingBinQuantity,
			"overstock_quantity":        item.OverstockQuantity,
			"quantity":                  item.Quantity,
			"status":                    item.Status,
			"reorder_level":             item.ReorderLevel,
			"picking_reorder_level":     item.PickingReorderLevel,
			"committed_stock":           item.CommittedStock,
			"incoming_stock":            item.IncomingStock,
			"unit_cost":                 item.UnitCost,
			"retail_price":              item.RetailPrice,
			"location_code":             item.LocationCode,
			"picking_bin_location_code": item.PickingBinLocationCode,
			"auto_reorder_enabled":      item.AutoReorderEnabled,
			"auto_reorder_quantity":     item.AutoReorderQuantity,
			"vendor_id":                 item.VendorID,
			"version":                   item.Version,
			"updated_at":                item.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}
	return nil
}

// Delete removes an item within an organization
func (r *GormItemRepository) Delete(ctx context.Context, organizationID, id uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Where("organization_id = ? AND id = ?", organizationID, id).
		Delete(&inventory.InventoryItem{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// ExistsBySKU checks whether an item with the SKU exists in the organization
func (r *GormItemRepository) ExistsBySKU(ctx context.Context, organizationID uuid.UUID, sku string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&inventory.InventoryItem{}).
		Where("organization_id = ? AND sku = ?", organizationID, sku).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

var _ inventory.ItemRepository = (*GormItemRepository)(nil)
