package inventory

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewStockMovement(t *testing.T) {
	orgID := uuid.New()
	itemID := uuid.New()

	t.Run("creates an add entry with matching totals", func(t *testing.T) {
		m, err := NewStockMovement(orgID, itemID, MovementAdd, BucketAuto, 5, 10, 15, "receiving", nil)

		require.NoError(t, err)
		assert.Equal(t, 10, m.OldQuantity)
		assert.Equal(t, 15, m.NewQuantity)
		assert.False(t, m.RecordedAt.IsZero())
	})

	t.Run("creates a subtract entry with matching totals", func(t *testing.T) {
		m, err := NewStockMovement(orgID, itemID, MovementSubtract, BucketPickingBin, 3, 10, 7, "order pick", nil)

		require.NoError(t, err)
		assert.Equal(t, MovementSubtract, m.Type)
	})

	t.Run("rejects totals that do not match the amount", func(t *testing.T) {
		_, err := NewStockMovement(orgID, itemID, MovementAdd, BucketAuto, 5, 10, 14, "", nil)
		require.Error(t, err)

		_, err = NewStockMovement(orgID, itemID, MovementSubtract, BucketAuto, 5, 10, 6, "", nil)
		require.Error(t, err)
	})

	t.Run("rejects non-positive amounts", func(t *testing.T) {
		_, err := NewStockMovement(orgID, itemID, MovementAdd, BucketAuto, 0, 10, 10, "", nil)
		require.Error(t, err)
	})

	t.Run("rejects negative resulting quantity", func(t *testing.T) {
		_, err := NewStockMovement(orgID, itemID, MovementSubtract, BucketAuto, 5, 3, -2, "", nil)
		require.Error(t, err)
	})

	t.Run("rejects missing identifiers", func(t *testing.T) {
		_, err := NewStockMovement(uuid.Nil, itemID, MovementAdd, BucketAuto, 1, 0, 1, "", nil)
		require.Error(t, err)
	})
}
