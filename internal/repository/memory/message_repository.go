package memory

import (
	"context"
	"sort"
	"time"

	"github.com/gdugdh24/ethospair-backend/internal/domain"
)

type messageRepository struct {
	store *Store
	inTx  bool
}

func (r *messageRepository) Create(ctx context.Context, message *domain.Message) error {
	defer r.store.write(r.inTx)()

	if message.CreatedAt.IsZero() {
		message.CreatedAt = time.Now()
	}
	r.store.data.messages[message.ID] = messageRecord{message: *message, seq: r.store.nextSeq()}
	return nil
}

func (r *messageRepository) ListByBond(ctx context.Context, bondID string) ([]*domain.Message, error) {
	return r.list(func(m domain.Message) bool { return m.BondID == bondID }), nil
}

func (r *messageRepository) ListByBondAfter(ctx context.Context, bondID string, after time.Time) ([]*domain.Message, error) {
	return r.list(func(m domain.Message) bool {
		return m.BondID == bondID && m.CreatedAt.After(after)
	}), nil
}

func (r *messageRepository) LastByBond(ctx context.Context, bondID string) (*domain.Message, error) {
	messages := r.list(func(m domain.Message) bool { return m.BondID == bondID })
	if len(messages) == 0 {
		return nil, domain.ErrMessageNotFound
	}
	return messages[len(messages)-1], nil
}

func (r *messageRepository) MarkRead(ctx context.Context, bondID, receiverAddress string) (int64, error) {
	defer r.store.write(r.inTx)()

	var n int64
	for id, rec := range r.store.data.messages {
		m := rec.message
		if m.BondID == bondID && m.ReceiverAddress == receiverAddress && !m.IsRead {
			rec.message.IsRead = true
			r.store.data.messages[id] = rec
			n++
		}
	}
	return n, nil
}

func (r *messageRepository) CountUnread(ctx context.Context, bondID, receiverAddress string) (int, error) {
	return r.count(func(m domain.Message) bool {
		return m.BondID == bondID && m.ReceiverAddress == receiverAddress && !m.IsRead
	}), nil
}

func (r *messageRepository) CountUnreadByReceiver(ctx context.Context, receiverAddress string) (int, error) {
	return r.count(func(m domain.Message) bool {
		return m.ReceiverAddress == receiverAddress && !m.IsRead
	}), nil
}

func (r *messageRepository) DeleteByBond(ctx context.Context, bondID string) error {
	defer r.store.write(r.inTx)()

	for id, rec := range r.store.data.messages {
		if rec.message.BondID == bondID {
			delete(r.store.data.messages, id)
		}
	}
	return nil
}

func (r *messageRepository) list(match func(domain.Message) bool) []*domain.Message {
	defer r.store.read(r.inTx)()

	records := make([]messageRecord, 0)
	for _, rec := range r.store.data.messages {
		if match(rec.message) {
			records = append(records, rec)
		}
	}
	sort.Slice(records, func(i, j int) bool {
		a, b := records[i], records[j]
		if !a.message.CreatedAt.Equal(b.message.CreatedAt) {
			return a.message.CreatedAt.Before(b.message.CreatedAt)
		}
		return a.seq < b.seq
	})

	messages := make([]*domain.Message, 0, len(records))
	for _, rec := range records {
		m := rec.message
		messages = append(messages, &m)
	}
	return messages
}

func (r *messageRepository) count(match func(domain.Message) bool) int {
	defer r.store.read(r.inTx)()

	n := 0
	for _, rec := range r.store.data.messages {
		if match(rec.message) {
			n++
		}
	}
	return n
}
