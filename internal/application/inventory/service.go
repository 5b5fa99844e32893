package inventory

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/wms/backend/internal/domain/inventory"
	"github.com/wms/backend/internal/domain/location"
	"github.com/wms/backend/internal/domain/shared"
)

// Service orchestrates inventory use cases. Every quantity change goes
// through ApplyMovement or HandleDraftReceived so the item update and its
// ledger entry always commit in the same transaction, with the change
// event published only after the commit.
type Service struct {
	items     inventory.ItemRepository
	movements inventory.MovementRepository
	scope     TransactionScope
	eventBus  shared.EventPublisher
	logger    *zap.Logger
}

// NewService creates an inventory service
func NewService(
	items inventory.ItemRepository,
	movements inventory.MovementRepository,
	scope TransactionScope,
	eventBus shared.EventPublisher,
	logger *zap.Logger,
) *Service {
	return &Service{
		items:     items,
		movements: movements,
		scope:     scope,
		eventBus:  eventBus,
		logger:    logger,
	}
}

// CreateItem creates an item, optionally seeding initial stock. Initial
// quantities are written through the ledger like any other movement.
func (s *Service) CreateItem(ctx context.Context, organizationID uuid.UUID, actorID *uuid.UUID, req CreateItemRequest) (*inventory.ItemSnapshot, error) {
	if err := validateLocationCodes(req.LocationCode, req.PickingBinLocationCode); err != nil {
		return nil, err
	}

	exists, err := s.items.ExistsBySKU(ctx, organizationID, req.SKU)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, shared.ErrAlreadyExists
	}

	item, err := inventory.NewInventoryItem(organizationID, req.SKU, req.Name, req.UnitCost, req.RetailPrice)
	if err != nil {
		return nil, err
	}
	item.Description = req.Description
	item.AssignLocations(req.LocationCode, req.PickingBinLocationCode)
	if err := item.SetReorderLevels(req.ReorderLevel, req.PickingReorderLevel); err != nil {
		return nil, err
	}
	if err := item.ConfigureAutoReorder(req.AutoReorderEnabled, req.AutoReorderQuantity, req.VendorID); err != nil {
		return nil, err
	}
	if req.InitialPickingBin < 0 || req.InitialOverstock < 0 {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Initial quantities cannot be negative")
	}

	err = s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		seedMovements := make([]*inventory.StockMovement, 0, 2)
		if req.InitialPickingBin > 0 {
			before := item.Quantity
			if err := item.AddStock(req.InitialPickingBin, inventory.BucketPickingBin); err != nil {
				return err
			}
			m, err := inventory.NewStockMovement(organizationID, item.ID, inventory.MovementAdd, inventory.BucketPickingBin, req.InitialPickingBin, before, item.Quantity, "initial stock", actorID)
			if err != nil {
				return err
			}
			seedMovements = append(seedMovements, m)
		}
		if req.InitialOverstock > 0 {
			before := item.Quantity
			if err := item.AddStock(req.InitialOverstock, inventory.BucketOverstock); err != nil {
				return err
			}
			m, err := inventory.NewStockMovement(organizationID, item.ID, inventory.MovementAdd, inventory.BucketOverstock, req.InitialOverstock, before, item.Quantity, "initial stock", actorID)
			if err != nil {
				return err
			}
			seedMovements = append(seedMovements, m)
		}

		if err := repos.ItemRepo().Save(ctx, item); err != nil {
			return err
		}
		for _, m := range seedMovements {
			if err := repos.MovementRepo().Create(ctx, m); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	snap := item.Snapshot()
	s.publishChange(ctx, organizationID, item.ID, inventory.ChangeInsert, nil, &snap)
	s.drainDomainEvents(ctx, item)
	return &snap, nil
}

// GetItem returns the current snapshot of an item
func (s *Service) GetItem(ctx context.Context, organizationID, itemID uuid.UUID) (*inventory.ItemSnapshot, error) {
	item, err := s.items.FindByID(ctx, organizationID, itemID)
	if err != nil {
		return nil, err
	}
	snap := item.Snapshot()
	return &snap, nil
}

// GetItemBySKU returns the current snapshot of an item looked up by SKU
func (s *Service) GetItemBySKU(ctx context.Context, organizationID uuid.UUID, sku string) (*inventory.ItemSnapshot, error) {
	item, err := s.items.FindBySKU(ctx, organizationID, sku)
	if err != nil {
		return nil, err
	}
	snap := item.Snapshot()
	return &snap, nil
}

// ListItems returns a page of item snapshots
func (s *Service) ListItems(ctx context.Context, organizationID uuid.UUID, filter shared.Filter) (shared.Paginated[inventory.ItemSnapshot], error) {
	page, err := s.items.FindAllForOrg(ctx, organizationID, filter)
	if err != nil {
		return shared.Paginated[inventory.ItemSnapshot]{}, err
	}
	snaps := make([]inventory.ItemSnapshot, 0, len(page.Items))
	for i := range page.Items {
		snaps = append(snaps, page.Items[i].Snapshot())
	}
	return shared.NewPaginated(snaps, page.Total, page.Page, page.PageSize), nil
}

// UpdateItem changes the non-quantity fields of an item
func (s *Service) UpdateItem(ctx context.Context, organizationID, itemID uuid.UUID, req UpdateItemRequest) (*inventory.ItemSnapshot, error) {
	if err := validateLocationCodes(req.LocationCode, req.PickingBinLocationCode); err != nil {
		return nil, err
	}
	if req.UnitCost.IsNegative() || req.RetailPrice.IsNegative() {
		return nil, shared.NewDomainError("INVALID_PRICE", "Prices cannot be negative")
	}

	var snap, prev inventory.ItemSnapshot
	apply := func() error {
		item, err := s.items.FindByID(ctx, organizationID, itemID)
		if err != nil {
			return err
		}
		prev = item.Snapshot()

		item.Name = req.Name
		item.Description = req.Description
		item.UnitCost = req.UnitCost
		item.RetailPrice = req.RetailPrice
		item.AssignLocations(req.LocationCode, req.PickingBinLocationCode)
		if err := item.SetReorderLevels(req.ReorderLevel, req.PickingReorderLevel); err != nil {
			return err
		}
		if err := item.ConfigureAutoReorder(req.AutoReorderEnabled, req.AutoReorderQuantity, req.VendorID); err != nil {
			return err
		}

		item.IncrementVersion()
		if err := s.items.SaveWithLock(ctx, item); err != nil {
			return err
		}
		snap = item.Snapshot()
		s.drainDomainEvents(ctx, item)
		return nil
	}

	if err := s.withConflictRetry(apply); err != nil {
		return nil, err
	}
	s.publishChange(ctx, organizationID, itemID, inventory.ChangeUpdate, &prev, &snap)
	return &snap, nil
}

// DeleteItem removes an item and announces the deletion on the change feed
func (s *Service) DeleteItem(ctx context.Context, organizationID, itemID uuid.UUID) error {
	item, err := s.items.FindByID(ctx, organizationID, itemID)
	if err != nil {
		return err
	}
	prev := item.Snapshot()

	if err := s.items.Delete(ctx, organizationID, itemID); err != nil {
		return err
	}
	s.publishChange(ctx, organizationID, itemID, inventory.ChangeDelete, &prev, nil)
	return nil
}

// ApplyMovement applies one stock movement atomically with its ledger
// entry. A concurrent write is retried once against fresh state before
// the conflict surfaces to the caller.
func (s *Service) ApplyMovement(ctx context.Context, organizationID, itemID uuid.UUID, actorID *uuid.UUID, req ApplyMovementRequest) (*MovementDTO, error) {
	bucket := req.Bucket
	if bucket == "" {
		bucket = inventory.BucketAuto
	}

	var dto MovementDTO
	var prev, snap inventory.ItemSnapshot
	var drained []shared.DomainEvent

	apply := func() error {
		return s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
			item, err := repos.ItemRepo().FindByID(ctx, organizationID, itemID)
			if err != nil {
				return err
			}
			prev = item.Snapshot()

			switch req.Type {
			case inventory.MovementAdd:
				err = item.AddStock(req.Amount, bucket)
			case inventory.MovementSubtract:
				err = item.RemoveStock(req.Amount, bucket)
			default:
				err = shared.NewDomainError("INVALID_MOVEMENT", "Unknown movement type")
			}
			if err != nil {
				return err
			}

			movement, err := inventory.NewStockMovement(organizationID, item.ID, req.Type, bucket, req.Amount, prev.Quantity, item.Quantity, req.Reason, actorID)
			if err != nil {
				return err
			}

			item.IncrementVersion()
			if err := repos.ItemRepo().SaveWithLock(ctx, item); err != nil {
				return err
			}
			if err := repos.MovementRepo().Create(ctx, movement); err != nil {
				return err
			}

			snap = item.Snapshot()
			drained = item.GetDomainEvents()
			item.ClearDomainEvents()
			dto = toMovementDTO(movement)
			return nil
		})
	}

	if err := s.withConflictRetry(apply); err != nil {
		return nil, err
	}

	s.publishChange(ctx, organizationID, itemID, inventory.ChangeUpdate, &prev, &snap)
	s.publishAll(ctx, drained)
	return &dto, nil
}

// HandleDraftReceived books a received purchase draft quantity into stock.
// The received units land in overstock and reduce the incoming counter.
func (s *Service) HandleDraftReceived(ctx context.Context, organizationID, itemID uuid.UUID, amount int) error {
	var prev, snap inventory.ItemSnapshot
	var drained []shared.DomainEvent

	apply := func() error {
		return s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
			item, err := repos.ItemRepo().FindByID(ctx, organizationID, itemID)
			if err != nil {
				return err
			}
			prev = item.Snapshot()

			if err := item.ReceiveIncoming(amount); err != nil {
				return err
			}
			movement, err := inventory.NewStockMovement(organizationID, item.ID, inventory.MovementAdd, inventory.BucketOverstock, amount, prev.Quantity, item.Quantity, "purchase draft received", nil)
			if err != nil {
				return err
			}

			item.IncrementVersion()
			if err := repos.ItemRepo().SaveWithLock(ctx, item); err != nil {
				return err
			}
			if err := repos.MovementRepo().Create(ctx, movement); err != nil {
				return err
			}

			snap = item.Snapshot()
			drained = item.GetDomainEvents()
			item.ClearDomainEvents()
			return nil
		})
	}

	if err := s.withConflictRetry(apply); err != nil {
		return err
	}

	s.publishChange(ctx, organizationID, itemID, inventory.ChangeUpdate, &prev, &snap)
	s.publishAll(ctx, drained)
	return nil
}

// ListMovements returns a page of an item's ledger, newest first
func (s *Service) ListMovements(ctx context.Context, organizationID, itemID uuid.UUID, since time.Time, filter shared.Filter) (shared.Paginated[MovementDTO], error) {
	page, err := s.movements.FindByItem(ctx, organizationID, itemID, since, filter)
	if err != nil {
		return shared.Paginated[MovementDTO]{}, err
	}
	dtos := make([]MovementDTO, 0, len(page.Items))
	for i := range page.Items {
		dtos = append(dtos, toMovementDTO(&page.Items[i]))
	}
	return shared.NewPaginated(dtos, page.Total, page.Page, page.PageSize), nil
}

// withConflictRetry runs fn, retrying exactly once on an optimistic lock
// conflict so transient write races stay invisible to callers.
func (s *Service) withConflictRetry(fn func() error) error {
	err := fn()
	if errors.Is(err, shared.ErrConcurrencyConflict) {
		s.logger.Debug("optimistic lock conflict, retrying once")
		err = fn()
	}
	return err
}

func (s *Service) publishChange(ctx context.Context, organizationID, itemID uuid.UUID, kind inventory.ChangeKind, prev, cur *inventory.ItemSnapshot) {
	event := inventory.NewItemChangedEvent(organizationID, itemID, kind, prev, cur)
	if err := s.eventBus.Publish(ctx, event); err != nil {
		s.logger.Error("failed to publish item change event",
			zap.String("item_id", itemID.String()),
			zap.Error(err))
	}
}

func (s *Service) publishAll(ctx context.Context, events []shared.DomainEvent) {
	for _, event := range events {
		if err := s.eventBus.Publish(ctx, event); err != nil {
			s.logger.Error("failed to publish domain event",
				zap.String("event_type", event.EventType()),
				zap.Error(err))
		}
	}
}

func (s *Service) drainDomainEvents(ctx context.Context, item *inventory.InventoryItem) {
	s.publishAll(ctx, item.GetDomainEvents())
	item.ClearDomainEvents()
}

func validateLocationCodes(codes ...string) error {
	for _, code := range codes {
		if code == "" {
			continue
		}
		if _, err := location.ParseCode(code); err != nil {
			return err
		}
	}
	return nil
}
