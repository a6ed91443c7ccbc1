package repository

import (
	"context"

	"github.com/gdugdh24/ethospair-backend/internal/domain"
)

type ProfileRepository interface {
	GetByAddress(ctx context.Context, address string) (*domain.Profile, error)
	// ListExcept returns every profile but the given address, in store order.
	ListExcept(ctx context.Context, address string) ([]*domain.Profile, error)
	Upsert(ctx context.Context, profile *domain.Profile) error
	Delete(ctx context.Context, address string) error
}
