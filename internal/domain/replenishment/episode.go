package replenishment

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/wms/backend/internal/domain/shared"
)

// EpisodeStatus represents the lifecycle state of a replenishment episode
type EpisodeStatus string

const (
	EpisodeOpen      EpisodeStatus = "open"
	EpisodeClosed    EpisodeStatus = "closed"
	EpisodeCancelled EpisodeStatus = "cancelled"
)

// Episode tracks one replenishment cycle for an item. At most one open
// episode exists per item; while it is open no further purchase drafts
// are created no matter how often the item dips below its reorder level.
// The episode is opened before the draft is requested, so a draft that
// fails to create leaves an open episode with an empty DraftID which is
// retried on the next evaluation.
type Episode struct {
	shared.OrgAggregateRoot
	ItemID           uuid.UUID     `gorm:"type:uuid;not null;index:idx_episode_org_item,priority:2"`
	DraftID          string        `gorm:"type:varchar(100);index"`
	Status           EpisodeStatus `gorm:"type:varchar(20);not null;default:'open'"`
	RequestedAmount  int           `gorm:"not null"`
	TriggerQuantity  int           `gorm:"not null"`
	OpenedAt         time.Time     `gorm:"not null"`
	ClosedAt         *time.Time
}

// TableName returns the table name for GORM
func (Episode) TableName() string {
	return "replenishment_episodes"
}

// NewEpisode opens a replenishment episode for an item
func NewEpisode(organizationID, itemID uuid.UUID, requestedAmount, triggerQuantity int) (*Episode, error) {
	if organizationID == uuid.Nil || itemID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_EPISODE", "Organization and item are required")
	}
	if requestedAmount <= 0 {
		return nil, shared.NewDomainError("INVALID_EPISODE", "Requested amount must be positive")
	}
	return &Episode{
		OrgAggregateRoot: shared.NewOrgAggregateRoot(organizationID),
		ItemID:           itemID,
		Status:           EpisodeOpen,
		RequestedAmount:  requestedAmount,
		TriggerQuantity:  triggerQuantity,
		OpenedAt:         time.Now(),
	}, nil
}

// IsOpen reports whether the episode still blocks new drafts
func (e *Episode) IsOpen() bool {
	return e.Status == EpisodeOpen
}

// AttachDraft records the purchase draft created for this episode
func (e *Episode) AttachDraft(draftID string) error {
	if !e.IsOpen() {
		return shared.NewDomainError("EPISODE_NOT_OPEN", "Cannot attach a draft to a finished episode")
	}
	if draftID == "" {
		return shared.NewDomainError("INVALID_DRAFT", "Draft ID cannot be empty")
	}
	e.DraftID = draftID
	e.UpdatedAt = time.Now()
	return nil
}

// Close finishes the episode after its stock arrived
func (e *Episode) Close() error {
	if !e.IsOpen() {
		return shared.NewDomainError("EPISODE_NOT_OPEN", "Episode is already finished")
	}
	now := time.Now()
	e.Status = EpisodeClosed
	e.ClosedAt = &now
	e.UpdatedAt = now
	e.IncrementVersion()
	return nil
}

// Cancel finishes the episode after its draft was cancelled, freeing the
// item for a fresh replenishment cycle.
func (e *Episode) Cancel() error {
	if !e.IsOpen() {
		return shared.NewDomainError("EPISODE_NOT_OPEN", "Episode is already finished")
	}
	now := time.Now()
	e.Status = EpisodeCancelled
	e.ClosedAt = &now
	e.UpdatedAt = now
	e.IncrementVersion()
	return nil
}

// Repository defines the interface for replenishment episode persistence
type Repository interface {
	// FindOpenByItem returns the open episode for an item, or
	// shared.ErrNotFound when the item has none.
	FindOpenByItem(ctx context.Context, organizationID, itemID uuid.UUID) (*Episode, error)

	// FindByDraftID finds an episode by the purchase draft attached to it
	FindByDraftID(ctx context.Context, organizationID uuid.UUID, draftID string) (*Episode, error)

	// FindOpenForOrg lists every open episode in an organization
	FindOpenForOrg(ctx context.Context, organizationID uuid.UUID) ([]Episode, error)

	// Save persists an episode
	Save(ctx context.Context, episode *Episode) error
}
