package repository

import "context"

// Repositories bundles every store the core depends on.
type Repositories struct {
	Profiles     ProfileRepository
	PairRequests PairRequestRepository
	Bonds        BondRepository
	Blocks       BlockRepository
	Messages     MessageRepository
}

// Transactor runs fn against repositories bound to one store transaction.
// Nothing fn wrote is kept when it returns an error.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, repos Repositories) error) error
}
