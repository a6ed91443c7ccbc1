package postgres

import (
	"context"

	"github.com/gdugdh24/ethospair-backend/internal/domain"
	"github.com/gdugdh24/ethospair-backend/internal/repository"
	"github.com/jmoiron/sqlx"
)

type blockRepository struct {
	db sqlx.ExtContext
}

func NewBlockRepository(db sqlx.ExtContext) repository.BlockRepository {
	return &blockRepository{db: db}
}

func (r *blockRepository) Upsert(ctx context.Context, record *domain.BlockRecord) error {
	query := `
		INSERT INTO blocked_users (id, blocker_address, blocked_address, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (blocker_address, blocked_address) DO UPDATE SET blocker_address = EXCLUDED.blocker_address
		RETURNING id, created_at
	`
	return r.db.QueryRowxContext(ctx, query,
		record.ID, record.BlockerAddress, record.BlockedAddress, record.CreatedAt,
	).Scan(&record.ID, &record.CreatedAt)
}

func (r *blockRepository) Delete(ctx context.Context, blockerAddress, blockedAddress string) error {
	query := `DELETE FROM blocked_users WHERE blocker_address = $1 AND blocked_address = $2`
	_, err := r.db.ExecContext(ctx, query, blockerAddress, blockedAddress)
	return err
}

func (r *blockRepository) Exists(ctx context.Context, blockerAddress, blockedAddress string) (bool, error) {
	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM blocked_users WHERE blocker_address = $1 AND blocked_address = $2)`
	if err := sqlx.GetContext(ctx, r.db, &exists, query, blockerAddress, blockedAddress); err != nil {
		return false, err
	}
	return exists, nil
}

func (r *blockRepository) ListBlocked(ctx context.Context, blockerAddress string) ([]string, error) {
	addresses := []string{}
	query := `SELECT blocked_address FROM blocked_users WHERE blocker_address = $1 ORDER BY created_at DESC`
	if err := sqlx.SelectContext(ctx, r.db, &addresses, query, blockerAddress); err != nil {
		return nil, err
	}
	return addresses, nil
}

func (r *blockRepository) DeleteByBlocker(ctx context.Context, blockerAddress string) error {
	query := `DELETE FROM blocked_users WHERE blocker_address = $1`
	_, err := r.db.ExecContext(ctx, query, blockerAddress)
	return err
}
