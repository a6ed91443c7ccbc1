package repository

import (
	"context"
	"time"

	"github.com/gdugdh24/ethospair-backend/internal/domain"
)

type PairRequestRepository interface {
	// Create inserts a pending request. It returns domain.ErrRequestAlreadyPending
	// when a pending request for the same directed pair already exists.
	Create(ctx context.Context, request *domain.PairRequest) error
	GetByID(ctx context.Context, id string) (*domain.PairRequest, error)
	FindPending(ctx context.Context, fromAddress, toAddress string) (*domain.PairRequest, error)
	UpdateStatus(ctx context.Context, id string, status domain.RequestStatus, resolvedAt time.Time) error
	ListPendingTo(ctx context.Context, address string) ([]*domain.PairRequest, error)
	ListPendingFrom(ctx context.Context, address string) ([]*domain.PairRequest, error)
	DeleteInvolving(ctx context.Context, address string) error
}
