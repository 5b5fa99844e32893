package location

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/wms/backend/internal/domain/location"
	"github.com/wms/backend/internal/domain/shared"
)

// UpsertLocationRequest carries the five address parts plus display metadata
type UpsertLocationRequest struct {
	Area        string `json:"area" binding:"required"`
	Row         string `json:"row" binding:"required"`
	Bay         string `json:"bay" binding:"required"`
	Level       string `json:"level" binding:"required"`
	Position    string `json:"position" binding:"required"`
	DisplayName string `json:"display_name"`
	ColorTag    string `json:"color_tag"`
}

// LocationDTO is the API shape of a storage location
type LocationDTO struct {
	ID          uuid.UUID `json:"id"`
	Code        string    `json:"code"`
	Area        string    `json:"area"`
	Row         string    `json:"row"`
	Bay         string    `json:"bay"`
	Level       string    `json:"level"`
	Position    string    `json:"position"`
	DisplayName string    `json:"display_name,omitempty"`
	ColorTag    string    `json:"color_tag,omitempty"`
}

func toLocationDTO(loc *location.Location) LocationDTO {
	return LocationDTO{
		ID:          loc.ID,
		Code:        loc.Code,
		Area:        loc.Area,
		Row:         loc.Row,
		Bay:         loc.Bay,
		Level:       loc.Level,
		Position:    loc.Position,
		DisplayName: loc.DisplayName,
		ColorTag:    loc.ColorTag,
	}
}

// Service provides storage location use cases
type Service struct {
	locations location.Repository
	logger    *zap.Logger
}

// NewService creates a location service
func NewService(locations location.Repository, logger *zap.Logger) *Service {
	return &Service{locations: locations, logger: logger}
}

// Upsert creates a location or refreshes the display metadata of an
// existing one with the same canonical code.
func (s *Service) Upsert(ctx context.Context, organizationID uuid.UUID, req UpsertLocationRequest) (*LocationDTO, error) {
	loc, err := location.NewLocation(organizationID, location.Parts{
		Area:     req.Area,
		Row:      req.Row,
		Bay:      req.Bay,
		Level:    req.Level,
		Position: req.Position,
	}, req.DisplayName, req.ColorTag)
	if err != nil {
		return nil, err
	}

	if err := s.locations.Upsert(ctx, loc); err != nil {
		return nil, err
	}
	s.logger.Info("location upserted",
		zap.String("organization_id", organizationID.String()),
		zap.String("code", loc.Code))
	dto := toLocationDTO(loc)
	return &dto, nil
}

// GetByCode resolves a canonical code to its stored location
func (s *Service) GetByCode(ctx context.Context, organizationID uuid.UUID, code string) (*LocationDTO, error) {
	if _, err := location.ParseCode(code); err != nil {
		return nil, err
	}
	loc, err := s.locations.FindByCode(ctx, organizationID, code)
	if err != nil {
		return nil, err
	}
	dto := toLocationDTO(loc)
	return &dto, nil
}

// List returns all locations for an organization
func (s *Service) List(ctx context.Context, organizationID uuid.UUID, filter shared.Filter) ([]LocationDTO, error) {
	locs, err := s.locations.FindAllForOrg(ctx, organizationID, filter)
	if err != nil {
		return nil, err
	}
	dtos := make([]LocationDTO, len(locs))
	for i := range locs {
		dtos[i] = toLocationDTO(&locs[i])
	}
	return dtos, nil
}

// Delete removes a location
func (s *Service) Delete(ctx context.Context, organizationID, id uuid.UUID) error {
	if err := s.locations.Delete(ctx, organizationID, id); err != nil {
		return err
	}
	s.logger.Info("location deleted",
		zap.String("organization_id", organizationID.String()),
		zap.String("location_id", id.String()))
	return nil
}

// Decode parses a canonical code into its five parts without touching storage
func (s *Service) Decode(code string) (location.Parts, error) {
	return location.ParseCode(code)
}
