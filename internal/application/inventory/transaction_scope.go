package inventory

import (
	"context"

	"github.com/wms/backend/internal/domain/inventory"
)

// TransactionalRepositories exposes repositories bound to one transaction.
// The item update and its ledger entry must commit or roll back together.
type TransactionalRepositories interface {
	ItemRepo() inventory.ItemRepository
	MovementRepo() inventory.MovementRepository
}

// TransactionScope runs a function inside a database transaction
type TransactionScope interface {
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// NoOpTransactionScope passes the ambient repositories through without a
// real transaction. Used in tests.
type NoOpTransactionScope struct {
	Items     inventory.ItemRepository
	Movements inventory.MovementRepository
}

// Execute runs fn against the ambient repositories
func (s *NoOpTransactionScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(&noOpRepos{items: s.Items, movements: s.Movements})
}

type noOpRepos struct {
	items     inventory.ItemRepository
	movements inventory.MovementRepository
}

func (r *noOpRepos) ItemRepo() inventory.ItemRepository         { return r.items }
func (r *noOpRepos) MovementRepo() inventory.MovementRepository { return r.movements }
