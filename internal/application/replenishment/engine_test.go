package replenishment

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/wms/backend/internal/application/notification"
	"github.com/wms/backend/internal/domain/inventory"
	"github.com/wms/backend/internal/domain/replenishment"
	"github.com/wms/backend/internal/domain/shared"
)

// MockEpisodeRepository is a mock implementation of replenishment.Repository
type MockEpisodeRepository struct {
	mock.Mock
}

func (m *MockEpisodeRepository) FindOpenByItem(ctx context.Context, organizationID, itemID uuid.UUID) (*replenishment.Episode, error) {
	args := m.Called(ctx, organizationID, itemID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*replenishment.Episode), args.Error(1)
}

func (m *MockEpisodeRepository) FindByDraftID(ctx context.Context, organizationID uuid.UUID, draftID string) (*replenishment.Episode, error) {
	args := m.Called(ctx, organizationID, draftID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*replenishment.Episode), args.Error(1)
}

func (m *MockEpisodeRepository) FindOpenForOrg(ctx context.Context, organizationID uuid.UUID) ([]replenishment.Episode, error) {
	args := m.Called(ctx, organizationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]replenishment.Episode), args.Error(1)
}

func (m *MockEpisodeRepository) Save(ctx context.Context, episode *replenishment.Episode) error {
	args := m.Called(ctx, episode)
	return args.Error(0)
}

// MockItemRepository is a mock implementation of inventory.ItemRepository
type MockItemRepository struct {
	mock.Mock
}

func (m *MockItemRepository) FindByID(ctx context.Context, organizationID, id uuid.UUID) (*inventory.InventoryItem, error) {
	args := m.Called(ctx, organizationID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*inventory.InventoryItem), args.Error(1)
}

func (m *MockItemRepository) FindBySKU(ctx context.Context, organizationID uuid.UUID, sku string) (*inventory.InventoryItem, error) {
	args := m.Called(ctx, organizationID, sku)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*inventory.InventoryItem), args.Error(1)
}

func (m *MockItemRepository) FindAllForOrg(ctx context.Context, organizationID uuid.UUID, filter shared.Filter) (shared.Paginated[inventory.InventoryItem], error) {
	args := m.Called(ctx, organizationID, filter)
	return args.Get(0).(shared.Paginated[inventory.InventoryItem]), args.Error(1)
}

func (m *MockItemRepository) FindAllSnapshots(ctx context.Context, organizationID uuid.UUID) ([]inventory.ItemSnapshot, error) {
	args := m.Called(ctx, organizationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]inventory.ItemSnapshot), args.Error(1)
}

func (m *MockItemRepository) FindBelowReorderLevel(ctx context.Context, organizationID uuid.UUID) ([]inventory.InventoryItem, error) {
	args := m.Called(ctx, organizationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]inventory.InventoryItem), args.Error(1)
}

func (m *MockItemRepository) Save(ctx context.Context, item *inventory.InventoryItem) error {
	args := m.Called(ctx, item)
	return args.Error(0)
}

func (m *MockItemRepository) SaveWithLock(ctx context.Context, item *inventory.InventoryItem) error {
	args := m.Called(ctx, item)
	return args.Error(0)
}

func (m *MockItemRepository) Delete(ctx context.Context, organizationID, id uuid.UUID) error {
	args := m.Called(ctx, organizationID, id)
	return args.Error(0)
}

func (m *MockItemRepository) ExistsBySKU(ctx context.Context, organizationID uuid.UUID, sku string) (bool, error) {
	args := m.Called(ctx, organizationID, sku)
	return args.Bool(0), args.Error(1)
}

// MockDraftCreator is a mock implementation of PurchaseDraftCreator
type MockDraftCreator struct {
	mock.Mock
}

func (m *MockDraftCreator) CreateDraft(ctx context.Context, organizationID, vendorID, itemID uuid.UUID, quantity int, unitCost decimal.Decimal) (string, error) {
	args := m.Called(ctx, organizationID, vendorID, itemID, quantity, unitCost)
	return args.String(0), args.Error(1)
}

// CollectingNotifier records notifications for assertions
type CollectingNotifier struct {
	mu            sync.Mutex
	notifications []notification.Notification
}

func (n *CollectingNotifier) Notify(_ context.Context, notif notification.Notification) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.notifications = append(n.notifications, notif)
	return nil
}

func (n *CollectingNotifier) All() []notification.Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]notification.Notification(nil), n.notifications...)
}

type dropPublisher struct{}

func (dropPublisher) Publish(context.Context, ...shared.DomainEvent) error { return nil }

type engineFixture struct {
	engine   *Engine
	episodes *MockEpisodeRepository
	items    *MockItemRepository
	drafts   *MockDraftCreator
	notifier *CollectingNotifier
}

func newEngineFixture() *engineFixture {
	episodes := new(MockEpisodeRepository)
	items := new(MockItemRepository)
	drafts := new(MockDraftCreator)
	notifier := &CollectingNotifier{}
	engine := NewEngine(episodes, items, drafts, notifier, dropPublisher{}, zap.NewNop())
	return &engineFixture{engine: engine, episodes: episodes, items: items, drafts: drafts, notifier: notifier}
}

func lowStockSnapshot(orgID uuid.UUID, vendorID *uuid.UUID) *inventory.ItemSnapshot {
	return &inventory.ItemSnapshot{
		ID:                  uuid.New(),
		OrganizationID:      orgID,
		SKU:                 "SKU-300",
		Name:                "Bolt M8",
		Quantity:            4,
		OverstockQuantity:   4,
		Status:              inventory.StatusLowStock,
		ReorderLevel:        5,
		AutoReorderEnabled:  true,
		AutoReorderQuantity: 50,
		UnitCost:            decimal.NewFromInt(2),
		VendorID:            vendorID,
		Version:             3,
		UpdatedAt:           time.Now(),
	}
}

func changeEvent(prev, cur *inventory.ItemSnapshot) *inventory.ItemChangedEvent {
	var itemID uuid.UUID
	var orgID uuid.UUID
	if cur != nil {
		itemID, orgID = cur.ID, cur.OrganizationID
	} else if prev != nil {
		itemID, orgID = prev.ID, prev.OrganizationID
	}
	kind := inventory.ChangeUpdate
	if prev == nil {
		kind = inventory.ChangeInsert
	}
	if cur == nil {
		kind = inventory.ChangeDelete
	}
	return inventory.NewItemChangedEvent(orgID, itemID, kind, prev, cur)
}

func TestEngineTrigger(t *testing.T) {
	ctx := context.Background()
	orgID := uuid.New()
	vendorID := uuid.New()

	t.Run("opens an episode and creates a draft when stock dips", func(t *testing.T) {
		f := newEngineFixture()
		cur := lowStockSnapshot(orgID, &vendorID)
		prev := *cur
		prev.Quantity = 8
		prev.Status = inventory.StatusInStock

		f.episodes.On("FindOpenByItem", ctx, orgID, cur.ID).Return(nil, shared.ErrNotFound)

		var opened *replenishment.Episode
		f.episodes.On("Save", ctx, mock.AnythingOfType("*replenishment.Episode")).
			Run(func(args mock.Arguments) {
				if opened == nil {
					opened = args.Get(1).(*replenishment.Episode)
					// The episode must be persisted before the draft exists.
					assert.Empty(t, opened.DraftID)
				}
			}).Return(nil)
		f.drafts.On("CreateDraft", ctx, orgID, vendorID, cur.ID, 50, cur.UnitCost).Return("PD-1001", nil)

		item, err := inventory.NewInventoryItem(orgID, cur.SKU, cur.Name, cur.UnitCost, decimal.NewFromInt(5))
		require.NoError(t, err)
		f.items.On("FindByID", ctx, orgID, cur.ID).Return(item, nil)
		f.items.On("SaveWithLock", ctx, item).Return(nil)

		require.NoError(t, f.engine.Handle(ctx, changeEvent(&prev, cur)))

		require.NotNil(t, opened)
		assert.Equal(t, "PD-1001", opened.DraftID)
		assert.Equal(t, 50, opened.RequestedAmount)
		assert.Equal(t, 50, item.IncomingStock)

		notifs := f.notifier.All()
		require.Len(t, notifs, 1)
		assert.Equal(t, notification.KindReplenishmentCreated, notifs[0].Kind)
		f.drafts.AssertNumberOfCalls(t, "CreateDraft", 1)
	})

	t.Run("open episode blocks a second draft", func(t *testing.T) {
		f := newEngineFixture()
		cur := lowStockSnapshot(orgID, &vendorID)

		episode, err := replenishment.NewEpisode(orgID, cur.ID, 50, 4)
		require.NoError(t, err)
		require.NoError(t, episode.AttachDraft("PD-1001"))
		f.episodes.On("FindOpenByItem", ctx, orgID, cur.ID).Return(episode, nil)

		require.NoError(t, f.engine.Handle(ctx, changeEvent(nil, cur)))

		f.drafts.AssertNotCalled(t, "CreateDraft", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		f.episodes.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})

	t.Run("episode without a draft is repaired on the next evaluation", func(t *testing.T) {
		f := newEngineFixture()
		cur := lowStockSnapshot(orgID, &vendorID)

		episode, err := replenishment.NewEpisode(orgID, cur.ID, 50, 4)
		require.NoError(t, err)
		f.episodes.On("FindOpenByItem", ctx, orgID, cur.ID).Return(episode, nil)
		f.episodes.On("Save", ctx, episode).Return(nil)
		f.drafts.On("CreateDraft", ctx, orgID, vendorID, cur.ID, 50, cur.UnitCost).Return("PD-1002", nil)

		item, err := inventory.NewInventoryItem(orgID, cur.SKU, cur.Name, cur.UnitCost, decimal.NewFromInt(5))
		require.NoError(t, err)
		f.items.On("FindByID", ctx, orgID, cur.ID).Return(item, nil)
		f.items.On("SaveWithLock", ctx, item).Return(nil)

		require.NoError(t, f.engine.Handle(ctx, changeEvent(nil, cur)))

		assert.Equal(t, "PD-1002", episode.DraftID)
	})

	t.Run("missing vendor notifies without opening an episode", func(t *testing.T) {
		f := newEngineFixture()
		cur := lowStockSnapshot(orgID, nil)

		f.episodes.On("FindOpenByItem", ctx, orgID, cur.ID).Return(nil, shared.ErrNotFound)

		require.NoError(t, f.engine.Handle(ctx, changeEvent(nil, cur)))

		notifs := f.notifier.All()
		require.Len(t, notifs, 1)
		assert.Equal(t, notification.KindReplenishmentFailed, notifs[0].Kind)
		f.episodes.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
		f.drafts.AssertNotCalled(t, "CreateDraft", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("draft failure leaves the episode open for retry", func(t *testing.T) {
		f := newEngineFixture()
		cur := lowStockSnapshot(orgID, &vendorID)

		f.episodes.On("FindOpenByItem", ctx, orgID, cur.ID).Return(nil, shared.ErrNotFound)
		f.episodes.On("Save", ctx, mock.AnythingOfType("*replenishment.Episode")).Return(nil)
		f.drafts.On("CreateDraft", ctx, orgID, vendorID, cur.ID, 50, cur.UnitCost).Return("", errors.New("ordering system down"))

		err := f.engine.Handle(ctx, changeEvent(nil, cur))

		require.Error(t, err)
		f.episodes.AssertNumberOfCalls(t, "Save", 1)
		assert.Empty(t, f.notifier.All())
	})

	t.Run("items above the reorder level are ignored", func(t *testing.T) {
		f := newEngineFixture()
		cur := lowStockSnapshot(orgID, &vendorID)
		cur.Quantity = 20
		cur.Status = inventory.StatusInStock

		require.NoError(t, f.engine.Handle(ctx, changeEvent(nil, cur)))

		f.episodes.AssertNotCalled(t, "FindOpenByItem", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("auto reorder disabled is ignored", func(t *testing.T) {
		f := newEngineFixture()
		cur := lowStockSnapshot(orgID, &vendorID)
		cur.AutoReorderEnabled = false

		require.NoError(t, f.engine.Handle(ctx, changeEvent(nil, cur)))

		f.episodes.AssertNotCalled(t, "FindOpenByItem", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestEngineClose(t *testing.T) {
	ctx := context.Background()
	orgID := uuid.New()
	vendorID := uuid.New()

	t.Run("closes the episode when ordered stock arrives", func(t *testing.T) {
		f := newEngineFixture()
		cur := lowStockSnapshot(orgID, &vendorID)
		cur.Quantity = 54
		cur.Status = inventory.StatusInStock
		cur.IncomingStock = 0
		prev := *cur
		prev.Quantity = 4
		prev.IncomingStock = 50

		episode, err := replenishment.NewEpisode(orgID, cur.ID, 50, 4)
		require.NoError(t, err)
		require.NoError(t, episode.AttachDraft("PD-1001"))
		f.episodes.On("FindOpenByItem", ctx, orgID, cur.ID).Return(episode, nil)
		f.episodes.On("Save", ctx, episode).Return(nil)

		require.NoError(t, f.engine.Handle(ctx, changeEvent(&prev, cur)))

		assert.Equal(t, replenishment.EpisodeClosed, episode.Status)
		f.drafts.AssertNotCalled(t, "CreateDraft", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("quantity increase without incoming decrease does not close", func(t *testing.T) {
		f := newEngineFixture()
		cur := lowStockSnapshot(orgID, &vendorID)
		cur.Quantity = 20
		cur.Status = inventory.StatusInStock
		cur.IncomingStock = 50
		prev := *cur
		prev.Quantity = 4

		require.NoError(t, f.engine.Handle(ctx, changeEvent(&prev, cur)))

		f.episodes.AssertNotCalled(t, "FindOpenByItem", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestHandleDraftCancelled(t *testing.T) {
	ctx := context.Background()
	orgID := uuid.New()

	f := newEngineFixture()
	itemID := uuid.New()

	episode, err := replenishment.NewEpisode(orgID, itemID, 50, 4)
	require.NoError(t, err)
	require.NoError(t, episode.AttachDraft("PD-1001"))
	f.episodes.On("FindByDraftID", ctx, orgID, "PD-1001").Return(episode, nil)
	f.episodes.On("Save", ctx, episode).Return(nil)

	item, err := inventory.NewInventoryItem(orgID, "SKU-300", "Bolt M8", decimal.NewFromInt(2), decimal.NewFromInt(5))
	require.NoError(t, err)
	require.NoError(t, item.ExpectIncoming(50))
	item.ID = itemID
	f.items.On("FindByID", ctx, orgID, itemID).Return(item, nil)
	f.items.On("SaveWithLock", ctx, item).Return(nil)

	require.NoError(t, f.engine.HandleDraftCancelled(ctx, orgID, "PD-1001"))

	assert.Equal(t, replenishment.EpisodeCancelled, episode.Status)
	assert.Equal(t, 0, item.IncomingStock)
}
