package repository

import (
	"context"

	"github.com/gdugdh24/ethospair-backend/internal/domain"
)

type BondRepository interface {
	Create(ctx context.Context, bond *domain.Bond) error
	GetByID(ctx context.Context, id string) (*domain.Bond, error)
	GetByMembers(ctx context.Context, address1, address2 string) (*domain.Bond, error)
	ListByMember(ctx context.Context, address string) ([]*domain.Bond, error)
	UpdateIcebreakers(ctx context.Context, id string, icebreakers []string) error
	Delete(ctx context.Context, id string) error
}
