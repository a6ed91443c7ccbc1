package repository

import (
	"context"
	"time"

	"github.com/gdugdh24/ethospair-backend/internal/domain"
)

type MessageRepository interface {
	Create(ctx context.Context, message *domain.Message) error
	// ListByBond returns messages oldest first.
	ListByBond(ctx context.Context, bondID string) ([]*domain.Message, error)
	ListByBondAfter(ctx context.Context, bondID string, after time.Time) ([]*domain.Message, error)
	LastByBond(ctx context.Context, bondID string) (*domain.Message, error)
	// MarkRead flips unread messages addressed to receiver. It never clears the flag.
	MarkRead(ctx context.Context, bondID, receiverAddress string) (int64, error)
	CountUnread(ctx context.Context, bondID, receiverAddress string) (int, error)
	CountUnreadByReceiver(ctx context.Context, receiverAddress string) (int, error)
	DeleteByBond(ctx context.Context, bondID string) error
}
