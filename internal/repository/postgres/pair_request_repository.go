package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/gdugdh24/ethospair-backend/internal/domain"
	"github.com/gdugdh24/ethospair-backend/internal/repository"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

const pairRequestColumns = `id, from_address, to_address, status, created_at, resolved_at`

type pairRequestRow struct {
	ID          string     `db:"id"`
	FromAddress string     `db:"from_address"`
	ToAddress   string     `db:"to_address"`
	Status      string     `db:"status"`
	CreatedAt   time.Time  `db:"created_at"`
	ResolvedAt  *time.Time `db:"resolved_at"`
}

func (r *pairRequestRow) toDomain() *domain.PairRequest {
	return &domain.PairRequest{
		ID:          r.ID,
		FromAddress: r.FromAddress,
		ToAddress:   r.ToAddress,
		Status:      domain.RequestStatus(r.Status),
		CreatedAt:   r.CreatedAt,
		ResolvedAt:  r.ResolvedAt,
	}
}

type pairRequestRepository struct {
	db sqlx.ExtContext
}

func NewPairRequestRepository(db sqlx.ExtContext) repository.PairRequestRepository {
	return &pairRequestRepository{db: db}
}

func (r *pairRequestRepository) Create(ctx context.Context, request *domain.PairRequest) error {
	// pair_requests_pending_uniq is a partial index on (from_address, to_address)
	// WHERE status = 'pending'.
	query := `
		INSERT INTO pair_requests (id, from_address, to_address, status, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (from_address, to_address) WHERE status = 'pending' DO NOTHING
	`
	result, err := r.db.ExecContext(ctx, query,
		request.ID, request.FromAddress, request.ToAddress, string(request.Status), request.CreatedAt,
	)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return domain.ErrRequestAlreadyPending
	}
	return nil
}

func (r *pairRequestRepository) GetByID(ctx context.Context, id string) (*domain.PairRequest, error) {
	// Ids are UUID columns; anything else cannot match a row.
	if uuid.Validate(id) != nil {
		return nil, domain.ErrRequestNotFound
	}

	var row pairRequestRow
	query := `SELECT ` + pairRequestColumns + ` FROM pair_requests WHERE id = $1`
	if err := sqlx.GetContext(ctx, r.db, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrRequestNotFound
		}
		return nil, err
	}
	return row.toDomain(), nil
}

func (r *pairRequestRepository) FindPending(ctx context.Context, fromAddress, toAddress string) (*domain.PairRequest, error) {
	var row pairRequestRow
	query := `
		SELECT ` + pairRequestColumns + `
		FROM pair_requests
		WHERE from_address = $1 AND to_address = $2 AND status = 'pending'
	`
	if err := sqlx.GetContext(ctx, r.db, &row, query, fromAddress, toAddress); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrRequestNotFound
		}
		return nil, err
	}
	return row.toDomain(), nil
}

func (r *pairRequestRepository) UpdateStatus(ctx context.Context, id string, status domain.RequestStatus, resolvedAt time.Time) error {
	query := `UPDATE pair_requests SET status = $2, resolved_at = $3 WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id, string(status), resolvedAt)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return domain.ErrRequestNotFound
	}
	return nil
}

func (r *pairRequestRepository) ListPendingTo(ctx context.Context, address string) ([]*domain.PairRequest, error) {
	query := `
		SELECT ` + pairRequestColumns + `
		FROM pair_requests
		WHERE to_address = $1 AND status = 'pending'
		ORDER BY created_at DESC
	`
	return r.list(ctx, query, address)
}

func (r *pairRequestRepository) ListPendingFrom(ctx context.Context, address string) ([]*domain.PairRequest, error) {
	query := `
		SELECT ` + pairRequestColumns + `
		FROM pair_requests
		WHERE from_address = $1 AND status = 'pending'
		ORDER BY created_at DESC
	`
	return r.list(ctx, query, address)
}

func (r *pairRequestRepository) DeleteInvolving(ctx context.Context, address string) error {
	query := `DELETE FROM pair_requests WHERE from_address = $1 OR to_address = $1`
	_, err := r.db.ExecContext(ctx, query, address)
	return err
}

func (r *pairRequestRepository) list(ctx context.Context, query string, args ...interface{}) ([]*domain.PairRequest, error) {
	var rows []pairRequestRow
	if err := sqlx.SelectContext(ctx, r.db, &rows, query, args...); err != nil {
		return nil, err
	}
	requests := make([]*domain.PairRequest, 0, len(rows))
	for i := range rows {
		requests = append(requests, rows[i].toDomain())
	}
	return requests, nil
}
