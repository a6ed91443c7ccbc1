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
	"github.com/lib/pq"
)

const uniqueViolation = "23505"

const bondColumns = `id, user1_address, user2_address, icebreakers, paired_at`

type bondRow struct {
	ID           string         `db:"id"`
	User1Address string         `db:"user1_address"`
	User2Address string         `db:"user2_address"`
	Icebreakers  pq.StringArray `db:"icebreakers"`
	PairedAt     time.Time      `db:"paired_at"`
}

func (r *bondRow) toDomain() *domain.Bond {
	return &domain.Bond{
		ID:           r.ID,
		User1Address: r.User1Address,
		User2Address: r.User2Address,
		Icebreakers:  []string(r.Icebreakers),
		CreatedAt:    r.PairedAt,
	}
}

type bondRepository struct {
	db sqlx.ExtContext
}

func NewBondRepository(db sqlx.ExtContext) repository.BondRepository {
	return &bondRepository{db: db}
}

func (r *bondRepository) Create(ctx context.Context, bond *domain.Bond) error {
	bond.User1Address, bond.User2Address = domain.OrderMembers(bond.User1Address, bond.User2Address)

	query := `
		INSERT INTO active_pairs (id, user1_address, user2_address, icebreakers, paired_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := r.db.ExecContext(ctx, query,
		bond.ID, bond.User1Address, bond.User2Address, pq.Array(bond.Icebreakers), bond.CreatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return domain.ErrAlreadyBonded
		}
		return err
	}
	return nil
}

func (r *bondRepository) GetByID(ctx context.Context, id string) (*domain.Bond, error) {
	// Ids are UUID columns; anything else cannot match a row.
	if uuid.Validate(id) != nil {
		return nil, domain.ErrBondNotFound
	}

	var row bondRow
	query := `SELECT ` + bondColumns + ` FROM active_pairs WHERE id = $1`
	if err := sqlx.GetContext(ctx, r.db, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrBondNotFound
		}
		return nil, err
	}
	return row.toDomain(), nil
}

func (r *bondRepository) GetByMembers(ctx context.Context, address1, address2 string) (*domain.Bond, error) {
	user1, user2 := domain.OrderMembers(address1, address2)

	var row bondRow
	query := `SELECT ` + bondColumns + ` FROM active_pairs WHERE user1_address = $1 AND user2_address = $2`
	if err := sqlx.GetContext(ctx, r.db, &row, query, user1, user2); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrBondNotFound
		}
		return nil, err
	}
	return row.toDomain(), nil
}

func (r *bondRepository) ListByMember(ctx context.Context, address string) ([]*domain.Bond, error) {
	var rows []bondRow
	query := `
		SELECT ` + bondColumns + `
		FROM active_pairs
		WHERE user1_address = $1 OR user2_address = $1
		ORDER BY paired_at DESC
	`
	if err := sqlx.SelectContext(ctx, r.db, &rows, query, address); err != nil {
		return nil, err
	}

	bonds := make([]*domain.Bond, 0, len(rows))
	for i := range rows {
		bonds = append(bonds, rows[i].toDomain())
	}
	return bonds, nil
}

func (r *bondRepository) UpdateIcebreakers(ctx context.Context, id string, icebreakers []string) error {
	query := `UPDATE active_pairs SET icebreakers = $2 WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id, pq.Array(icebreakers))
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return domain.ErrBondNotFound
	}
	return nil
}

func (r *bondRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM active_pairs WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return domain.ErrBondNotFound
	}
	return nil
}
