package realtime

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/wms/backend/internal/domain/inventory"
)

type stubSource struct {
	snapshots []inventory.ItemSnapshot
	err       error
	onList    func()
}

func (s *stubSource) ListItems(_ context.Context, _ uuid.UUID) ([]inventory.ItemSnapshot, error) {
	if s.onList != nil {
		s.onList()
	}
	return s.snapshots, s.err
}

func snapshotWithVersion(id uuid.UUID, orgID uuid.UUID, quantity, version int) inventory.ItemSnapshot {
	return inventory.ItemSnapshot{
		ID:             id,
		OrganizationID: orgID,
		SKU:            "SKU-400",
		Name:           "Hinge",
		Quantity:       quantity,
		Status:         inventory.StatusInStock,
		Version:        version,
	}
}

func updateEvent(snap inventory.ItemSnapshot) *inventory.ItemChangedEvent {
	return inventory.NewItemChangedEvent(snap.OrganizationID, snap.ID, inventory.ChangeUpdate, nil, &snap)
}

func TestSessionApply(t *testing.T) {
	ctx := context.Background()
	orgID := uuid.New()
	itemID := uuid.New()

	t.Run("replaces the projection copy with newer versions", func(t *testing.T) {
		source := &stubSource{snapshots: []inventory.ItemSnapshot{snapshotWithVersion(itemID, orgID, 10, 2)}}
		session := NewSession(orgID, source, zap.NewNop())
		require.NoError(t, session.Start(ctx))

		applied := session.Apply(updateEvent(snapshotWithVersion(itemID, orgID, 7, 3)))

		assert.True(t, applied)
		snap, ok := session.Item(itemID)
		require.True(t, ok)
		assert.Equal(t, 7, snap.Quantity)
		assert.Equal(t, 3, snap.Version)
	})

	t.Run("drops events older than the held version", func(t *testing.T) {
		source := &stubSource{snapshots: []inventory.ItemSnapshot{snapshotWithVersion(itemID, orgID, 10, 5)}}
		session := NewSession(orgID, source, zap.NewNop())
		require.NoError(t, session.Start(ctx))

		applied := session.Apply(updateEvent(snapshotWithVersion(itemID, orgID, 99, 4)))

		assert.False(t, applied)
		snap, _ := session.Item(itemID)
		assert.Equal(t, 10, snap.Quantity)
		assert.Equal(t, 5, snap.Version)
	})

	t.Run("replaying the same event is a no-op", func(t *testing.T) {
		source := &stubSource{}
		session := NewSession(orgID, source, zap.NewNop())
		require.NoError(t, session.Start(ctx))

		event := updateEvent(snapshotWithVersion(itemID, orgID, 7, 3))
		assert.True(t, session.Apply(event))
		assert.False(t, session.Apply(event))

		snap, _ := session.Item(itemID)
		assert.Equal(t, 7, snap.Quantity)
	})

	t.Run("delete removes the item", func(t *testing.T) {
		source := &stubSource{snapshots: []inventory.ItemSnapshot{snapshotWithVersion(itemID, orgID, 10, 2)}}
		session := NewSession(orgID, source, zap.NewNop())
		require.NoError(t, session.Start(ctx))

		prev := snapshotWithVersion(itemID, orgID, 10, 2)
		applied := session.Apply(inventory.NewItemChangedEvent(orgID, itemID, inventory.ChangeDelete, &prev, nil))

		assert.True(t, applied)
		_, ok := session.Item(itemID)
		assert.False(t, ok)
	})
}

func TestSessionHandshake(t *testing.T) {
	ctx := context.Background()
	orgID := uuid.New()
	itemID := uuid.New()

	t.Run("events during the snapshot load are buffered and replayed", func(t *testing.T) {
		source := &stubSource{snapshots: []inventory.ItemSnapshot{snapshotWithVersion(itemID, orgID, 10, 2)}}
		session := NewSession(orgID, source, zap.NewNop())

		// Arrives while ListItems is in flight.
		source.onList = func() {
			session.Apply(updateEvent(snapshotWithVersion(itemID, orgID, 7, 3)))
		}

		require.NoError(t, session.Start(ctx))

		assert.Equal(t, StateSynced, session.State())
		snap, ok := session.Item(itemID)
		require.True(t, ok)
		assert.Equal(t, 7, snap.Quantity)
	})

	t.Run("buffered events already covered by the snapshot are dropped", func(t *testing.T) {
		source := &stubSource{snapshots: []inventory.ItemSnapshot{snapshotWithVersion(itemID, orgID, 10, 5)}}
		session := NewSession(orgID, source, zap.NewNop())

		source.onList = func() {
			session.Apply(updateEvent(snapshotWithVersion(itemID, orgID, 3, 4)))
		}

		require.NoError(t, session.Start(ctx))

		snap, _ := session.Item(itemID)
		assert.Equal(t, 10, snap.Quantity)
		assert.Equal(t, 5, snap.Version)
	})

	t.Run("events are dropped while disconnected", func(t *testing.T) {
		session := NewSession(orgID, &stubSource{}, zap.NewNop())

		assert.False(t, session.Apply(updateEvent(snapshotWithVersion(itemID, orgID, 7, 3))))
		_, ok := session.Item(itemID)
		assert.False(t, ok)
	})

	t.Run("restart after stop rebuilds from a fresh snapshot", func(t *testing.T) {
		source := &stubSource{snapshots: []inventory.ItemSnapshot{snapshotWithVersion(itemID, orgID, 10, 2)}}
		session := NewSession(orgID, source, zap.NewNop())
		require.NoError(t, session.Start(ctx))
		require.True(t, session.Apply(updateEvent(snapshotWithVersion(itemID, orgID, 7, 3))))

		session.Stop()
		assert.Equal(t, StateDisconnected, session.State())
		assert.Empty(t, session.Items())

		source.snapshots = []inventory.ItemSnapshot{snapshotWithVersion(itemID, orgID, 42, 9)}
		require.NoError(t, session.Start(ctx))

		snap, ok := session.Item(itemID)
		require.True(t, ok)
		assert.Equal(t, 42, snap.Quantity)
	})
}

func TestHub(t *testing.T) {
	ctx := context.Background()
	orgA := uuid.New()
	orgB := uuid.New()
	itemID := uuid.New()

	t.Run("fans events out to clients of the same organization only", func(t *testing.T) {
		hub := NewHub(&stubSource{}, zap.NewNop())

		clientA, err := hub.Register(ctx, orgA)
		require.NoError(t, err)
		clientB, err := hub.Register(ctx, orgB)
		require.NoError(t, err)
		defer hub.Unregister(clientA.ID)
		defer hub.Unregister(clientB.ID)

		require.NoError(t, hub.Handle(ctx, updateEvent(snapshotWithVersion(itemID, orgA, 7, 3))))

		select {
		case frame := <-clientA.Events:
			assert.Contains(t, string(frame), itemID.String())
		default:
			t.Fatal("expected a frame for the matching organization")
		}
		assert.Empty(t, clientB.Events)

		snap, ok := clientA.Session.Item(itemID)
		require.True(t, ok)
		assert.Equal(t, 7, snap.Quantity)
	})

	t.Run("unregister detaches the client", func(t *testing.T) {
		hub := NewHub(&stubSource{}, zap.NewNop())
		client, err := hub.Register(ctx, orgA)
		require.NoError(t, err)

		hub.Unregister(client.ID)

		assert.Equal(t, 0, hub.ClientCount())
		require.NoError(t, hub.Handle(ctx, updateEvent(snapshotWithVersion(itemID, orgA, 7, 3))))
		assert.Empty(t, client.Events)
	})
}
