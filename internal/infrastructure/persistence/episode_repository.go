package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/wms/backend/internal/domain/replenishment"
	"github.com/wms/backend/internal/domain/shared"
)

// GormEpisodeRepository implements replenishment.Repository using GORM.
// A partial unique index on (organization_id, item_id) WHERE status =
// 'open' backs the one-open-episode-per-item invariant at the database
// level; a second concurrent opener gets a constraint violation from
// Save.
type GormEpisodeRepository struct {
	db *gorm.DB
}

// NewGormEpisodeRepository creates a new GormEpisodeRepository
func NewGormEpisodeRepository(db *gorm.DB) *GormEpisodeRepository {
	return &GormEpisodeRepository{db: db}
}

// FindOpenByItem returns the open episode for an item
func (r *GormEpisodeRepository) FindOpenByItem(ctx context.Context, organizationID, itemID uuid.UUID) (*replenishment.Episode, error) {
	var episode replenishment.Episode
	if err := r.db.WithContext(ctx).
		Where("organization_id = ? AND item_id = ? AND status = ?", organizationID, itemID, replenishment.EpisodeOpen).
		First(&episode).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &episode, nil
}

// FindByDraftID finds an episode by its attached purchase draft
func (r *GormEpisodeRepository) FindByDraftID(ctx context.Context, organizationID uuid.UUID, draftID string) (*replenishment.Episode, error) {
	var episode replenishment.Episode
	if err := r.db.WithContext(ctx).
		Where("organization_id = ? AND draft_id = ?", organizationID, draftID).
		First(&episode).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &episode, nil
}

// FindOpenForOrg lists every open episode in an organization
func (r *GormEpisodeRepository) FindOpenForOrg(ctx context.Context, organizationID uuid.UUID) ([]replenishment.Episode, error) {
	var episodes []replenishment.Episode
	if err := r.db.WithContext(ctx).
		Where("organization_id = ? AND status = ?", organizationID, replenishment.EpisodeOpen).
		Order("opened_at DESC").
		Find(&episodes).Error; err != nil {
		return nil, err
	}
	return episodes, nil
}

// Save persists an episode
func (r *GormEpisodeRepository) Save(ctx context.Context, episode *replenishment.Episode) error {
	return r.db.WithContext(ctx).Save(episode).Error
}

var _ replenishment.Repository = (*GormEpisodeRepository)(nil)
