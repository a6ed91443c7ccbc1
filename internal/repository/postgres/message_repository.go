package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/gdugdh24/ethospair-backend/internal/domain"
	"github.com/gdugdh24/ethospair-backend/internal/repository"
	"github.com/jmoiron/sqlx"
)

const messageColumns = `id, pair_id, sender_address, receiver_address, message, is_read, created_at`

type messageRow struct {
	ID              string    `db:"id"`
	PairID          string    `db:"pair_id"`
	SenderAddress   string    `db:"sender_address"`
	ReceiverAddress string    `db:"receiver_address"`
	Message         string    `db:"message"`
	IsRead          bool      `db:"is_read"`
	CreatedAt       time.Time `db:"created_at"`
}

func (r *messageRow) toDomain() *domain.Message {
	return &domain.Message{
		ID:              r.ID,
		BondID:          r.PairID,
		SenderAddress:   r.SenderAddress,
		ReceiverAddress: r.ReceiverAddress,
		Body:            r.Message,
		IsRead:          r.IsRead,
		CreatedAt:       r.CreatedAt,
	}
}

type messageRepository struct {
	db sqlx.ExtContext
}

func NewMessageRepository(db sqlx.ExtContext) repository.MessageRepository {
	return &messageRepository{db: db}
}

func (r *messageRepository) Create(ctx context.Context, message *domain.Message) error {
	query := `
		INSERT INTO messages (id, pair_id, sender_address, receiver_address, message, is_read, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := r.db.ExecContext(ctx, query,
		message.ID, message.BondID, message.SenderAddress, message.ReceiverAddress,
		message.Body, message.IsRead, message.CreatedAt,
	)
	return err
}

func (r *messageRepository) ListByBond(ctx context.Context, bondID string) ([]*domain.Message, error) {
	query := `SELECT ` + messageColumns + ` FROM messages WHERE pair_id = $1 ORDER BY created_at ASC, id ASC`
	return r.list(ctx, query, bondID)
}

func (r *messageRepository) ListByBondAfter(ctx context.Context, bondID string, after time.Time) ([]*domain.Message, error) {
	query := `
		SELECT ` + messageColumns + `
		FROM messages
		WHERE pair_id = $1 AND created_at > $2
		ORDER BY created_at ASC, id ASC
	`
	return r.list(ctx, query, bondID, after)
}

func (r *messageRepository) LastByBond(ctx context.Context, bondID string) (*domain.Message, error) {
	var row messageRow
	query := `SELECT ` + messageColumns + ` FROM messages WHERE pair_id = $1 ORDER BY created_at DESC, id DESC LIMIT 1`
	if err := sqlx.GetContext(ctx, r.db, &row, query, bondID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrMessageNotFound
		}
		return nil, err
	}
	return row.toDomain(), nil
}

func (r *messageRepository) MarkRead(ctx context.Context, bondID, receiverAddress string) (int64, error) {
	query := `UPDATE messages SET is_read = TRUE WHERE pair_id = $1 AND receiver_address = $2 AND is_read = FALSE`
	result, err := r.db.ExecContext(ctx, query, bondID, receiverAddress)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func (r *messageRepository) CountUnread(ctx context.Context, bondID, receiverAddress string) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM messages WHERE pair_id = $1 AND receiver_address = $2 AND is_read = FALSE`
	if err := sqlx.GetContext(ctx, r.db, &count, query, bondID, receiverAddress); err != nil {
		return 0, err
	}
	return count, nil
}

func (r *messageRepository) CountUnreadByReceiver(ctx context.Context, receiverAddress string) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM messages WHERE receiver_address = $1 AND is_read = FALSE`
	if err := sqlx.GetContext(ctx, r.db, &count, query, receiverAddress); err != nil {
		return 0, err
	}
	return count, nil
}

func (r *messageRepository) DeleteByBond(ctx context.Context, bondID string) error {
	query := `DELETE FROM messages WHERE pair_id = $1`
	_, err := r.db.ExecContext(ctx, query, bondID)
	return err
}

func (r *messageRepository) list(ctx context.Context, query string, args ...interface{}) ([]*domain.Message, error) {
	var rows []messageRow
	if err := sqlx.SelectContext(ctx, r.db, &rows, query, args...); err != nil {
		return nil, err
	}
	messages := make([]*domain.Message, 0, len(rows))
	for i := range rows {
		messages = append(messages, rows[i].toDomain())
	}
	return messages, nil
}
