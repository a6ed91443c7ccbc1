package chat

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/gdugdh24/ethospair-backend/internal/domain"
	"github.com/gdugdh24/ethospair-backend/internal/infrastructure/metrics"
	"github.com/gdugdh24/ethospair-backend/internal/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const DefaultMaxMessageLength = 2000

// Publisher pushes a stored message to live subscribers.
type Publisher interface {
	Publish(ctx context.Context, message *domain.Message) error
}

type SendMessageRequest struct {
	Message string `json:"message" binding:"required"`
}

type UnreadResponse struct {
	Total  int            `json:"total"`
	ByBond map[string]int `json:"by_bond"`
}

type ChatUseCase struct {
	repos     repository.Repositories
	publisher Publisher
	maxLength int
	metrics   *metrics.Metrics
	log       *zap.Logger
	now       func() time.Time
}

func NewChatUseCase(repos repository.Repositories, publisher Publisher, maxLength int, m *metrics.Metrics, log *zap.Logger) *ChatUseCase {
	if maxLength <= 0 {
		maxLength = DefaultMaxMessageLength
	}
	return &ChatUseCase{
		repos:     repos,
		publisher: publisher,
		maxLength: maxLength,
		metrics:   m,
		log:       log,
		now:       time.Now,
	}
}

// Bond returns the bond if the session is one of its members.
func (uc *ChatUseCase) Bond(ctx context.Context, session domain.Session, bondID string) (*domain.Bond, error) {
	if !session.Valid() {
		return nil, domain.ErrUnauthorized
	}

	bond, err := uc.repos.Bonds.GetByID(ctx, bondID)
	if err != nil {
		if errors.Is(err, domain.ErrBondNotFound) {
			return nil, err
		}
		uc.log.Error("bond lookup failed", zap.String("bond_id", bondID), zap.Error(err))
		return nil, domain.ErrOperationFailed
	}
	if !bond.HasMember(session.Address) {
		return nil, domain.ErrNotBondMember
	}
	return bond, nil
}

// Send stores a message from the session to the other bond member and
// publishes it. A failed publish does not fail the send; receivers pick the
// message up on their next resync.
func (uc *ChatUseCase) Send(ctx context.Context, session domain.Session, bondID, body string) (*domain.Message, error) {
	if !session.Valid() {
		return nil, domain.ErrUnauthorized
	}
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, domain.ErrEmptyMessage
	}
	if utf8.RuneCountInString(body) > uc.maxLength {
		return nil, domain.ErrInvalidInput
	}

	bond, err := uc.Bond(ctx, session, bondID)
	if err != nil {
		return nil, err
	}
	receiver, _ := bond.Counterpart(session.Address)

	message := &domain.Message{
		ID:              uuid.NewString(),
		BondID:          bond.ID,
		SenderAddress:   session.Address,
		ReceiverAddress: receiver,
		Body:            body,
		CreatedAt:       uc.now(),
	}
	if err := uc.repos.Messages.Create(ctx, message); err != nil {
		uc.log.Error("message insert failed", zap.String("bond_id", bond.ID), zap.Error(err))
		return nil, domain.ErrOperationFailed
	}
	uc.metrics.MessageSent()

	if uc.publisher != nil {
		if err := uc.publisher.Publish(ctx, message); err != nil {
			uc.log.Warn("message publish failed", zap.String("message_id", message.ID), zap.Error(err))
		}
	}
	return message, nil
}

// List returns the bond's messages oldest first.
func (uc *ChatUseCase) List(ctx context.Context, session domain.Session, bondID string) ([]*domain.Message, error) {
	return uc.Resync(ctx, session, bondID, time.Time{})
}

// Resync returns messages created strictly after the cursor. A zero cursor
// returns the whole history.
func (uc *ChatUseCase) Resync(ctx context.Context, session domain.Session, bondID string, after time.Time) ([]*domain.Message, error) {
	bond, err := uc.Bond(ctx, session, bondID)
	if err != nil {
		return nil, err
	}

	var messages []*domain.Message
	if after.IsZero() {
		messages, err = uc.repos.Messages.ListByBond(ctx, bond.ID)
	} else {
		messages, err = uc.repos.Messages.ListByBondAfter(ctx, bond.ID, after)
	}
	if err != nil {
		uc.log.Warn("message history unavailable", zap.String("bond_id", bond.ID), zap.Error(err))
		return []*domain.Message{}, nil
	}
	return messages, nil
}

// MarkRead flags every message addressed to the session in the bond as read.
func (uc *ChatUseCase) MarkRead(ctx context.Context, session domain.Session, bondID string) (int64, error) {
	bond, err := uc.Bond(ctx, session, bondID)
	if err != nil {
		return 0, err
	}

	n, err := uc.repos.Messages.MarkRead(ctx, bond.ID, session.Address)
	if err != nil {
		uc.log.Error("mark read failed", zap.String("bond_id", bond.ID), zap.Error(err))
		return 0, domain.ErrOperationFailed
	}
	return n, nil
}

// UnreadCount reports unread messages for the session, in total and per bond.
func (uc *ChatUseCase) UnreadCount(ctx context.Context, session domain.Session) (*UnreadResponse, error) {
	if !session.Valid() {
		return nil, domain.ErrUnauthorized
	}
	log := uc.log.With(zap.String("address", session.Address))
	out := &UnreadResponse{ByBond: make(map[string]int)}

	total, err := uc.repos.Messages.CountUnreadByReceiver(ctx, session.Address)
	if err != nil {
		log.Warn("unread total unavailable", zap.Error(err))
		return out, nil
	}
	out.Total = total

	bonds, err := uc.repos.Bonds.ListByMember(ctx, session.Address)
	if err != nil {
		log.Warn("bonds unavailable", zap.Error(err))
		return out, nil
	}
	for _, bond := range bonds {
		n, err := uc.repos.Messages.CountUnread(ctx, bond.ID, session.Address)
		if err != nil {
			log.Warn("unread count unavailable", zap.String("bond_id", bond.ID), zap.Error(err))
			continue
		}
		if n > 0 {
			out.ByBond[bond.ID] = n
		}
	}
	return out, nil
}

// Merge folds incoming messages into held ones. Duplicates by id are kept
// once and the result is ordered oldest first.
func Merge(held, incoming []*domain.Message) []*domain.Message {
	seen := make(map[string]struct{}, len(held)+len(incoming))
	out := make([]*domain.Message, 0, len(held)+len(incoming))
	for _, batch := range [][]*domain.Message{held, incoming} {
		for _, m := range batch {
			if m == nil {
				continue
			}
			if _, ok := seen[m.ID]; ok {
				continue
			}
			seen[m.ID] = struct{}{}
			out = append(out, m)
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}
