package repository

import (
	"context"

	"github.com/gdugdh24/ethospair-backend/internal/domain"
)

type BlockRepository interface {
	// Upsert is idempotent per (blocker, blocked).
	Upsert(ctx context.Context, record *domain.BlockRecord) error
	Delete(ctx context.Context, blockerAddress, blockedAddress string) error
	Exists(ctx context.Context, blockerAddress, blockedAddress string) (bool, error)
	ListBlocked(ctx context.Context, blockerAddress string) ([]string, error)
	// DeleteByBlocker drops the rows authored by blockerAddress. Blocks
	// placed on that address by others are kept.
	DeleteByBlocker(ctx context.Context, blockerAddress string) error
}
