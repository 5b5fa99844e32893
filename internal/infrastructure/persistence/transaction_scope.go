package persistence

import (
	"context"

	"gorm.io/gorm"

	appinventory "github.com/wms/backend/internal/application/inventory"
	"github.com/wms/backend/internal/domain/inventory"
)

// GormTransactionScope runs application use cases inside one database
// transaction, handing them repositories bound to that transaction.
type GormTransactionScope struct {
	db *gorm.DB
}

// NewGormTransactionScope creates a transaction scope on the connection
func NewGormTransactionScope(db *gorm.DB) *GormTransactionScope {
	return &GormTransactionScope{db: db}
}

// Execute implements appinventory.TransactionScope
func (s *GormTransactionScope) Execute(ctx context.Context, fn func(repos appinventory.TransactionalRepositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&txRepositories{
			items:     NewGormItemRepository(tx),
			movements: NewGormMovementRepository(tx),
		})
	})
}

type txRepositories struct {
	items     *GormItemRepository
	movements *GormMovementRepository
}

func (r *txRepositories) ItemRepo() inventory.ItemRepository         { return r.items }
func (r *txRepositories) MovementRepo() inventory.MovementRepository { return r.movements }

var _ appinventory.TransactionScope = (*GormTransactionScope)(nil)
