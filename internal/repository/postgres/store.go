package postgres

import (
	"context"
	"fmt"

	"github.com/gdugdh24/ethospair-backend/internal/repository"
	"github.com/jmoiron/sqlx"
)

// Store hands out repositories bound either to the pool or to a transaction.
type Store struct {
	db *sqlx.DB
}

func NewStore(db *sqlx.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Repositories() repository.Repositories {
	return newRepositories(s.db)
}

func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, repos repository.Repositories) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	if err := fn(ctx, newRepositories(tx)); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("%w (rollback: %v)", err, rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func newRepositories(db sqlx.ExtContext) repository.Repositories {
	return repository.Repositories{
		Profiles:     NewProfileRepository(db),
		PairRequests: NewPairRequestRepository(db),
		Bonds:        NewBondRepository(db),
		Blocks:       NewBlockRepository(db),
		Messages:     NewMessageRepository(db),
	}
}
