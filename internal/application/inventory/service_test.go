package inventory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/wms/backend/internal/domain/inventory"
	"github.com/wms/backend/internal/domain/shared"
)

// MockEventPublisher collects published events for assertions
type MockEventPublisher struct {
	mu     sync.Mutex
	events []shared.DomainEvent
}

func NewMockEventPublisher() *MockEventPublisher {
	return &MockEventPublisher{events: make([]shared.DomainEvent, 0)}
}

func (m *MockEventPublisher) Publish(_ context.Context, events ...shared.DomainEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, events...)
	return nil
}

func (m *MockEventPublisher) GetEventsByType(eventType string) []shared.DomainEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]shared.DomainEvent, 0)
	for _, e := range m.events {
		if e.EventType() == eventType {
			result = append(result, e)
		}
	}
	return result
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

// MockMovementRepository is a mock implementation of inventory.MovementRepository
type MockMovementRepository struct {
	mock.Mock
}

func (m *MockMovementRepository) Create(ctx context.Context, movement *inventory.StockMovement) error {
	args := m.Called(ctx, movement)
	return args.Error(0)
}

func (m *MockMovementRepository) FindByItem(ctx context.Context, organizationID, itemID uuid.UUID, since time.Time, filter shared.Filter) (shared.Paginated[inventory.StockMovement], error) {
	args := m.Called(ctx, organizationID, itemID, since, filter)
	return args.Get(0).(shared.Paginated[inventory.StockMovement]), args.Error(1)
}

func (m *MockMovementRepository) CountByItem(ctx context.Context, organizationID, itemID uuid.UUID) (int64, error) {
	args := m.Called(ctx, organizationID, itemID)
	return args.Get(0).(int64), args.Error(1)
}

func newServiceUnderTest(items *MockItemRepository, movements *MockMovementRepository) (*Service, *MockEventPublisher) {
	publisher := NewMockEventPublisher()
	scope := &NoOpTransactionScope{Items: items, Movements: movements}
	svc := NewService(items, movements, scope, publisher, zap.NewNop())
	return svc, publisher
}

func seededItem(t *testing.T, orgID uuid.UUID, picking, overstock, reorderLevel int) *inventory.InventoryItem {
	t.Helper()
	item, err := inventory.NewInventoryItem(orgID, "SKU-100", "Widget", decimal.NewFromInt(2), decimal.NewFromInt(5))
	require.NoError(t, err)
	require.NoError(t, item.SetReorderLevels(reorderLevel, 0))
	if picking > 0 {
		require.NoError(t, item.AddStock(picking, inventory.BucketPickingBin))
	}
	if overstock > 0 {
		require.NoError(t, item.AddStock(overstock, inventory.BucketOverstock))
	}
	item.ClearDomainEvents()
	return item
}

func TestApplyMovement(t *testing.T) {
	ctx := context.Background()
	orgID := uuid.New()

	t.Run("add lands in overstock and writes a ledger entry", func(t *testing.T) {
		items := new(MockItemRepository)
		movements := new(MockMovementRepository)
		svc, publisher := newServiceUnderTest(items, movements)

		item := seededItem(t, orgID, 0, 10, 0)
		items.On("FindByID", ctx, orgID, item.ID).Return(item, nil)
		items.On("SaveWithLock", ctx, item).Return(nil)
		movements.On("Create", ctx, mock.AnythingOfType("*inventory.StockMovement")).Return(nil)

		dto, err := svc.ApplyMovement(ctx, orgID, item.ID, nil, ApplyMovementRequest{
			Type:   inventory.MovementAdd,
			Amount: 5,
			Reason: "receiving",
		})

		require.NoError(t, err)
		assert.Equal(t, 10, dto.OldQuantity)
		assert.Equal(t, 15, dto.NewQuantity)
		assert.Equal(t, 15, item.OverstockQuantity)
		assert.Equal(t, 0, item.PickingBinQuantity)

		changes := publisher.GetEventsByType(inventory.EventTypeItemChanged)
		require.Len(t, changes, 1)
		change := changes[0].(*inventory.ItemChangedEvent)
		assert.Equal(t, inventory.ChangeUpdate, change.Kind)
		require.NotNil(t, change.Previous)
		require.NotNil(t, change.Current)
		assert.Equal(t, 10, change.Previous.Quantity)
		assert.Equal(t, 15, change.Current.Quantity)
		items.AssertExpectations(t)
		movements.AssertExpectations(t)
	})

	t.Run("subtract drains picking bin before overstock", func(t *testing.T) {
		items := new(MockItemRepository)
		movements := new(MockMovementRepository)
		svc, _ := newServiceUnderTest(items, movements)

		item := seededItem(t, orgID, 3, 10, 0)
		items.On("FindByID", ctx, orgID, item.ID).Return(item, nil)
		items.On("SaveWithLock", ctx, item).Return(nil)

		var recorded *inventory.StockMovement
		movements.On("Create", ctx, mock.AnythingOfType("*inventory.StockMovement")).
			Run(func(args mock.Arguments) {
				recorded = args.Get(1).(*inventory.StockMovement)
			}).Return(nil)

		_, err := svc.ApplyMovement(ctx, orgID, item.ID, nil, ApplyMovementRequest{
			Type:   inventory.MovementSubtract,
			Amount: 5,
			Reason: "order pick",
		})

		require.NoError(t, err)
		assert.Equal(t, 0, item.PickingBinQuantity)
		assert.Equal(t, 8, item.OverstockQuantity)
		require.NotNil(t, recorded)
		assert.Equal(t, 13, recorded.OldQuantity)
		assert.Equal(t, 8, recorded.NewQuantity)
	})

	t.Run("insufficient stock rejects without saving or publishing", func(t *testing.T) {
		items := new(MockItemRepository)
		movements := new(MockMovementRepository)
		svc, publisher := newServiceUnderTest(items, movements)

		item := seededItem(t, orgID, 1, 1, 0)
		items.On("FindByID", ctx, orgID, item.ID).Return(item, nil)

		_, err := svc.ApplyMovement(ctx, orgID, item.ID, nil, ApplyMovementRequest{
			Type:   inventory.MovementSubtract,
			Amount: 5,
		})

		assert.ErrorIs(t, err, shared.ErrInsufficientStock)
		assert.Equal(t, 2, item.Quantity)
		assert.Empty(t, publisher.GetEventsByType(inventory.EventTypeItemChanged))
		items.AssertNotCalled(t, "SaveWithLock", mock.Anything, mock.Anything)
		movements.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("retries once on an optimistic lock conflict", func(t *testing.T) {
		items := new(MockItemRepository)
		movements := new(MockMovementRepository)
		svc, publisher := newServiceUnderTest(items, movements)

		stale := seededItem(t, orgID, 0, 10, 0)
		fresh := seededItem(t, orgID, 0, 12, 0)
		fresh.ID = stale.ID

		items.On("FindByID", ctx, orgID, stale.ID).Return(stale, nil).Once()
		items.On("FindByID", ctx, orgID, stale.ID).Return(fresh, nil).Once()
		items.On("SaveWithLock", ctx, stale).Return(shared.ErrConcurrencyConflict).Once()
		items.On("SaveWithLock", ctx, fresh).Return(nil).Once()
		movements.On("Create", ctx, mock.AnythingOfType("*inventory.StockMovement")).Return(nil).Once()

		dto, err := svc.ApplyMovement(ctx, orgID, stale.ID, nil, ApplyMovementRequest{
			Type:   inventory.MovementSubtract,
			Amount: 5,
		})

		require.NoError(t, err)
		assert.Equal(t, 12, dto.OldQuantity)
		assert.Equal(t, 7, dto.NewQuantity)
		require.Len(t, publisher.GetEventsByType(inventory.EventTypeItemChanged), 1)
		items.AssertExpectations(t)
	})

	t.Run("publishes threshold event when stock crosses the reorder level", func(t *testing.T) {
		items := new(MockItemRepository)
		movements := new(MockMovementRepository)
		svc, publisher := newServiceUnderTest(items, movements)

		item := seededItem(t, orgID, 0, 10, 5)
		items.On("FindByID", ctx, orgID, item.ID).Return(item, nil)
		items.On("SaveWithLock", ctx, item).Return(nil)
		movements.On("Create", ctx, mock.AnythingOfType("*inventory.StockMovement")).Return(nil)

		_, err := svc.ApplyMovement(ctx, orgID, item.ID, nil, ApplyMovementRequest{
			Type:   inventory.MovementSubtract,
			Amount: 6,
		})

		require.NoError(t, err)
		require.Len(t, publisher.GetEventsByType(inventory.EventTypeStockBelowReorder), 1)
	})
}

func TestCreateItem(t *testing.T) {
	ctx := context.Background()
	orgID := uuid.New()

	t.Run("creates item with initial stock through the ledger", func(t *testing.T) {
		items := new(MockItemRepository)
		movements := new(MockMovementRepository)
		svc, publisher := newServiceUnderTest(items, movements)

		items.On("ExistsBySKU", ctx, orgID, "SKU-200").Return(false, nil)
		items.On("Save", ctx, mock.AnythingOfType("*inventory.InventoryItem")).Return(nil)
		movements.On("Create", ctx, mock.AnythingOfType("*inventory.StockMovement")).Return(nil).Twice()

		snap, err := svc.CreateItem(ctx, orgID, nil, CreateItemRequest{
			SKU:               "SKU-200",
			Name:              "Gadget",
			UnitCost:          decimal.NewFromInt(3),
			RetailPrice:       decimal.NewFromInt(9),
			InitialPickingBin: 4,
			InitialOverstock:  6,
		})

		require.NoError(t, err)
		assert.Equal(t, 4, snap.PickingBinQuantity)
		assert.Equal(t, 6, snap.OverstockQuantity)
		assert.Equal(t, 10, snap.Quantity)

		changes := publisher.GetEventsByType(inventory.EventTypeItemChanged)
		require.Len(t, changes, 1)
		change := changes[0].(*inventory.ItemChangedEvent)
		assert.Equal(t, inventory.ChangeInsert, change.Kind)
		assert.Nil(t, change.Previous)
		movements.AssertExpectations(t)
	})

	t.Run("rejects a duplicate SKU", func(t *testing.T) {
		items := new(MockItemRepository)
		movements := new(MockMovementRepository)
		svc, _ := newServiceUnderTest(items, movements)

		items.On("ExistsBySKU", ctx, orgID, "SKU-200").Return(true, nil)

		_, err := svc.CreateItem(ctx, orgID, nil, CreateItemRequest{SKU: "SKU-200", Name: "Gadget"})

		assert.ErrorIs(t, err, shared.ErrAlreadyExists)
	})

	t.Run("rejects a malformed location code", func(t *testing.T) {
		items := new(MockItemRepository)
		movements := new(MockMovementRepository)
		svc, _ := newServiceUnderTest(items, movements)

		_, err := svc.CreateItem(ctx, orgID, nil, CreateItemRequest{
			SKU:          "SKU-201",
			Name:         "Gadget",
			LocationCode: "A-01-01",
		})

		require.Error(t, err)
		items.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})
}

func TestHandleDraftReceived(t *testing.T) {
	ctx := context.Background()
	orgID := uuid.New()

	items := new(MockItemRepository)
	movements := new(MockMovementRepository)
	svc, publisher := newServiceUnderTest(items, movements)

	item := seededItem(t, orgID, 0, 2, 5)
	require.NoError(t, item.ExpectIncoming(20))
	items.On("FindByID", ctx, orgID, item.ID).Return(item, nil)
	items.On("SaveWithLock", ctx, item).Return(nil)
	movements.On("Create", ctx, mock.AnythingOfType("*inventory.StockMovement")).Return(nil)

	err := svc.HandleDraftReceived(ctx, orgID, item.ID, 20)

	require.NoError(t, err)
	assert.Equal(t, 22, item.OverstockQuantity)
	assert.Equal(t, 0, item.IncomingStock)

	changes := publisher.GetEventsByType(inventory.EventTypeItemChanged)
	require.Len(t, changes, 1)
	change := changes[0].(*inventory.ItemChangedEvent)
	assert.Equal(t, 2, change.Previous.Quantity)
	assert.Equal(t, 22, change.Current.Quantity)
	assert.Equal(t, 20, change.Previous.IncomingStock)
	assert.Equal(t, 0, change.Current.IncomingStock)
}

func TestDeleteItem(t *testing.T) {
	ctx := context.Background()
	orgID := uuid.New()

	items := new(MockItemRepository)
	movements := new(MockMovementRepository)
	svc, publisher := newServiceUnderTest(items, movements)

	item := seededItem(t, orgID, 1, 1, 0)
	items.On("FindByID", ctx, orgID, item.ID).Return(item, nil)
	items.On("Delete", ctx, orgID, item.ID).Return(nil)

	require.NoError(t, svc.DeleteItem(ctx, orgID, item.ID))

	changes := publisher.GetEventsByType(inventory.EventTypeItemChanged)
	require.Len(t, changes, 1)
	change := changes[0].(*inventory.ItemChangedEvent)
	assert.Equal(t, inventory.ChangeDelete, change.Kind)
	assert.Nil(t, change.Current)
	require.NotNil(t, change.Previous)
	assert.Equal(t, item.ID, change.Previous.ID)
}
