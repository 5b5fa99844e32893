package replenishment

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/wms/backend/internal/application/notification"
	"github.com/wms/backend/internal/domain/inventory"
	"github.com/wms/backend/internal/domain/replenishment"
	"github.com/wms/backend/internal/domain/shared"
)

// PurchaseDraftCreator creates purchase drafts in the ordering system.
// The returned draft ID identifies the draft for later receive or cancel
// callbacks.
type PurchaseDraftCreator interface {
	CreateDraft(ctx context.Context, organizationID, vendorID, itemID uuid.UUID, quantity int, unitCost decimal.Decimal) (string, error)
}

// Engine evaluates auto-replenishment on every item change. One episode
// guards each item: while an episode is open no second draft is created,
// however many times the item dips below its reorder level. The episode
// is persisted before the draft is requested, so a crash between the two
// leaves an open episode with an empty draft ID that the next evaluation
// repairs instead of double-ordering.
type Engine struct {
	episodes replenishment.Repository
	items    inventory.ItemRepository
	drafts   PurchaseDraftCreator
	notifier notification.Notifier
	eventBus shared.EventPublisher
	logger   *zap.Logger
}

// NewEngine creates a replenishment engine
func NewEngine(
	episodes replenishment.Repository,
	items inventory.ItemRepository,
	drafts PurchaseDraftCreator,
	notifier notification.Notifier,
	eventBus shared.EventPublisher,
	logger *zap.Logger,
) *Engine {
	return &Engine{
		episodes: episodes,
		items:    items,
		drafts:   drafts,
		notifier: notifier,
		eventBus: eventBus,
		logger:   logger,
	}
}

// ListOpenEpisodes returns the episodes currently guarding items
func (e *Engine) ListOpenEpisodes(ctx context.Context, organizationID uuid.UUID) ([]replenishment.Episode, error) {
	return e.episodes.FindOpenForOrg(ctx, organizationID)
}

// EventTypes implements shared.EventHandler
func (e *Engine) EventTypes() []string {
	return []string{inventory.EventTypeItemChanged}
}

// Handle implements shared.EventHandler
func (e *Engine) Handle(ctx context.Context, event shared.DomainEvent) error {
	change, ok := event.(*inventory.ItemChangedEvent)
	if !ok {
		return nil
	}

	if change.Kind == inventory.ChangeDelete || change.Current == nil {
		return nil
	}

	if e.shouldClose(change) {
		if err := e.closeEpisode(ctx, change.Current); err != nil {
			return err
		}
	}
	return e.evaluate(ctx, change.Current)
}

// shouldClose detects the arrival of ordered stock: the total went up
// while the incoming counter went down in the same change.
func (e *Engine) shouldClose(change *inventory.ItemChangedEvent) bool {
	if change.Previous == nil {
		return false
	}
	return change.Current.Quantity > change.Previous.Quantity &&
		change.Current.IncomingStock < change.Previous.IncomingStock
}

func (e *Engine) closeEpisode(ctx context.Context, item *inventory.ItemSnapshot) error {
	episode, err := e.episodes.FindOpenByItem(ctx, item.OrganizationID, item.ID)
	if errors.Is(err, shared.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	if err := episode.Close(); err != nil {
		return err
	}
	if err := e.episodes.Save(ctx, episode); err != nil {
		return err
	}
	e.logger.Info("replenishment episode closed",
		zap.String("item_id", item.ID.String()),
		zap.String("draft_id", episode.DraftID))
	return nil
}

// evaluate runs the trigger condition against the item's current state
func (e *Engine) evaluate(ctx context.Context, item *inventory.ItemSnapshot) error {
	if !item.AutoReorderEnabled || item.Quantity > item.ReorderLevel {
		return nil
	}

	episode, err := e.episodes.FindOpenByItem(ctx, item.OrganizationID, item.ID)
	switch {
	case errors.Is(err, shared.ErrNotFound):
		return e.openAndDraft(ctx, item)
	case err != nil:
		return err
	case episode.DraftID == "":
		// A previous run opened the episode but never got its draft.
		return e.draftForEpisode(ctx, item, episode)
	default:
		return nil
	}
}

func (e *Engine) openAndDraft(ctx context.Context, item *inventory.ItemSnapshot) error {
	if item.VendorID == nil {
		e.logger.Warn("auto reorder skipped, item has no vendor",
			zap.String("item_id", item.ID.String()),
			zap.String("sku", item.SKU))
		return e.notifier.Notify(ctx, notification.Notification{
			OrganizationID: item.OrganizationID,
			ItemID:         item.ID,
			Kind:           notification.KindReplenishmentFailed,
			Message:        fmt.Sprintf("Item %s needs replenishment but has no vendor assigned", item.SKU),
		})
	}

	episode, err := replenishment.NewEpisode(item.OrganizationID, item.ID, item.AutoReorderQuantity, item.Quantity)
	if err != nil {
		return err
	}
	if err := e.episodes.Save(ctx, episode); err != nil {
		// Another evaluator opened the episode first.
		e.logger.Debug("episode already open, skipping draft",
			zap.String("item_id", item.ID.String()),
			zap.Error(err))
		return nil
	}
	return e.draftForEpisode(ctx, item, episode)
}

func (e *Engine) draftForEpisode(ctx context.Context, item *inventory.ItemSnapshot, episode *replenishment.Episode) error {
	if item.VendorID == nil {
		return nil
	}

	draftID, err := e.drafts.CreateDraft(ctx, item.OrganizationID, *item.VendorID, item.ID, episode.RequestedAmount, item.UnitCost)
	if err != nil {
		// Episode stays open with no draft; the next evaluation retries.
		e.logger.Error("purchase draft creation failed",
			zap.String("item_id", item.ID.String()),
			zap.Error(err))
		return err
	}

	if err := episode.AttachDraft(draftID); err != nil {
		return err
	}
	if err := e.episodes.Save(ctx, episode); err != nil {
		return err
	}

	if err := e.raiseIncoming(ctx, item.OrganizationID, item.ID, episode.RequestedAmount); err != nil {
		e.logger.Error("failed to raise incoming stock",
			zap.String("item_id", item.ID.String()),
			zap.Error(err))
	}

	e.logger.Info("purchase draft created",
		zap.String("item_id", item.ID.String()),
		zap.String("draft_id", draftID),
		zap.Int("quantity", episode.RequestedAmount))
	return e.notifier.Notify(ctx, notification.Notification{
		OrganizationID: item.OrganizationID,
		ItemID:         item.ID,
		Kind:           notification.KindReplenishmentCreated,
		Message:        fmt.Sprintf("Purchase draft %s created for item %s", draftID, item.SKU),
	})
}

// HandleDraftCancelled cancels the episode attached to a draft, freeing
// the item for a fresh replenishment cycle, and releases the expected
// incoming units.
func (e *Engine) HandleDraftCancelled(ctx context.Context, organizationID uuid.UUID, draftID string) error {
	episode, err := e.episodes.FindByDraftID(ctx, organizationID, draftID)
	if err != nil {
		return err
	}
	if !episode.IsOpen() {
		return nil
	}

	if err := episode.Cancel(); err != nil {
		return err
	}
	if err := e.episodes.Save(ctx, episode); err != nil {
		return err
	}

	item, err := e.items.FindByID(ctx, organizationID, episode.ItemID)
	if err != nil {
		return err
	}
	prev := item.Snapshot()
	if err := item.DropIncoming(episode.RequestedAmount); err != nil {
		return err
	}
	item.IncrementVersion()
	if err := e.items.SaveWithLock(ctx, item); err != nil {
		return err
	}
	snap := item.Snapshot()
	e.publishChange(ctx, &prev, &snap)

	e.logger.Info("replenishment episode cancelled",
		zap.String("draft_id", draftID),
		zap.String("item_id", episode.ItemID.String()))
	return nil
}

// raiseIncoming bumps the item's incoming counter after a draft was placed
func (e *Engine) raiseIncoming(ctx context.Context, organizationID, itemID uuid.UUID, amount int) error {
	item, err := e.items.FindByID(ctx, organizationID, itemID)
	if err != nil {
		return err
	}
	prev := item.Snapshot()
	if err := item.ExpectIncoming(amount); err != nil {
		return err
	}
	item.IncrementVersion()
	if err := e.items.SaveWithLock(ctx, item); err != nil {
		return err
	}
	snap := item.Snapshot()
	e.publishChange(ctx, &prev, &snap)
	return nil
}

func (e *Engine) publishChange(ctx context.Context, prev, cur *inventory.ItemSnapshot) {
	event := inventory.NewItemChangedEvent(cur.OrganizationID, cur.ID, inventory.ChangeUpdate, prev, cur)
	if err := e.eventBus.Publish(ctx, event); err != nil {
		e.logger.Error("failed to publish item change event",
			zap.String("item_id", cur.ID.String()),
			zap.Error(err))
	}
}
