package location

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/wms/backend/internal/domain/shared"
)

// Location represents a physical storage slot addressed by a canonical code.
// Two locations with the same five parts must never coexist within an
// organization; inserts are upserts keyed by (organization, code).
type Location struct {
	shared.OrgAggregateRoot
	Area        string `gorm:"type:varchar(20);not null"`
	Row         string `gorm:"column:row_code;type:varchar(20);not null"`
	Bay         string `gorm:"type:varchar(20);not null"`
	Level       string `gorm:"type:varchar(20);not null"`
	Position    string `gorm:"type:varchar(20);not null"`
	Code        string `gorm:"type:varchar(120);not null;uniqueIndex:idx_location_org_code,priority:2"`
	DisplayName string `gorm:"type:varchar(120)"`
	ColorTag    string `gorm:"type:varchar(20)"` // used only by label rendering
}

// TableName returns the table name for GORM
func (Location) TableName() string {
	return "locations"
}

// NewLocation creates a location from its parts, deriving the canonical code
func NewLocation(organizationID uuid.UUID, parts Parts, displayName, colorTag string) (*Location, error) {
	if organizationID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_ORGANIZATION", "Organization ID cannot be empty")
	}
	code, err := BuildCode(parts)
	if err != nil {
		return nil, err
	}
	return &Location{
		OrgAggregateRoot: shared.NewOrgAggregateRoot(organizationID),
		Area:             parts.Area,
		Row:              parts.Row,
		Bay:              parts.Bay,
		Level:            parts.Level,
		Position:         parts.Position,
		Code:             code,
		DisplayName:      displayName,
		ColorTag:         colorTag,
	}, nil
}

// Parts returns the five-part address of the location
func (l *Location) Parts() Parts {
	return Parts{
		Area:     l.Area,
		Row:      l.Row,
		Bay:      l.Bay,
		Level:    l.Level,
		Position: l.Position,
	}
}

// Rename updates the display metadata without touching the address
func (l *Location) Rename(displayName, colorTag string) {
	l.DisplayName = displayName
	l.ColorTag = colorTag
	l.UpdatedAt = time.Now()
	l.IncrementVersion()
}

// Repository defines the interface for location persistence
type Repository interface {
	// Upsert creates the location or, when a record with the same canonical
	// code already exists in the organization, updates its display metadata.
	// The stored record is loaded back into loc either way.
	Upsert(ctx context.Context, loc *Location) error

	// FindByCode finds a location by its canonical code within an organization
	FindByCode(ctx context.Context, organizationID uuid.UUID, code string) (*Location, error)

	// FindAllForOrg lists all locations for an organization
	FindAllForOrg(ctx context.Context, organizationID uuid.UUID, filter shared.Filter) ([]Location, error)

	// Delete removes a location within an organization
	Delete(ctx context.Context, organizationID, id uuid.UUID) error
}
