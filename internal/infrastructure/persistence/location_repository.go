package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/wms/backend/internal/domain/location"
	"github.com/wms/backend/internal/domain/shared"
)

var locationOrderColumns = map[string]bool{
	"created_at":   true,
	"code":         true,
	"display_name": true,
}

// GormLocationRepository implements location.Repository using GORM
type GormLocationRepository struct {
	db *gorm.DB
}

// NewGormLocationRepository creates a new GormLocationRepository
func NewGormLocationRepository(db *gorm.DB) *GormLocationRepository {
	return &GormLocationRepository{db: db}
}

// Upsert inserts the location or updates the display metadata of the
// record holding the same canonical code in the organization.
func (r *GormLocationRepository) Upsert(ctx context.Context, loc *location.Location) error {
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "organization_id"}, {Name: "code"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"display_name", "color_tag", "updated_at",
		}),
	}).Create(loc).Error
	if err != nil {
		return err
	}

	// The ON CONFLICT path keeps the stored row's identity; load it back
	// so the caller sees the canonical record.
	stored, err := r.FindByCode(ctx, loc.OrganizationID, loc.Code)
	if err != nil {
		return err
	}
	*loc = *stored
	return nil
}

// FindByCode finds a location by its canonical code within an organization
func (r *GormLocationRepository) FindByCode(ctx context.Context, organizationID uuid.UUID, code string) (*location.Location, error) {
	var loc location.Location
	if err := r.db.WithContext(ctx).
		Where("organization_id = ? AND code = ?", organizationID, code).
		First(&loc).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &loc, nil
}

// FindAllForOrg lists all locations for an organization
func (r *GormLocationRepository) FindAllForOrg(ctx context.Context, organizationID uuid.UUID, filter shared.Filter) ([]location.Location, error) {
	base := r.db.WithContext(ctx).Model(&location.Location{}).
		Where("organization_id = ?", organizationID)
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		base = base.Where("code ILIKE ? OR display_name ILIKE ?", pattern, pattern)
	}

	var locations []location.Location
	if err := applyFilter(base, filter, locationOrderColumns).Find(&locations).Error; err != nil {
		return nil, err
	}
	return locations, nil
}

// Delete removes a location within an organization
func (r *GormLocationRepository) Delete(ctx context.Context, organizationID, id uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Where("organization_id = ? AND id = ?", organizationID, id).
		Delete(&location.Location{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

var _ location.Repository = (*GormLocationRepository)(nil)
