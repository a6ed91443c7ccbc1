package memory

import (
	"context"
	"sort"
	"time"

	"github.com/gdugdh24/ethospair-backend/internal/domain"
)

type blockRepository struct {
	store *Store
	inTx  bool
}

func (r *blockRepository) Upsert(ctx context.Context, record *domain.BlockRecord) error {
	defer r.store.write(r.inTx)()

	key := blockKey{blocker: record.BlockerAddress, blocked: record.BlockedAddress}
	if existing, ok := r.store.data.blocks[key]; ok {
		*record = existing
		return nil
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now()
	}
	r.store.data.blocks[key] = *record
	return nil
}

func (r *blockRepository) Delete(ctx context.Context, blockerAddress, blockedAddress string) error {
	defer r.store.write(r.inTx)()

	delete(r.store.data.blocks, blockKey{blocker: blockerAddress, blocked: blockedAddress})
	return nil
}

func (r *blockRepository) Exists(ctx context.Context, blockerAddress, blockedAddress string) (bool, error) {
	defer r.store.read(r.inTx)()

	_, ok := r.store.data.blocks[blockKey{blocker: blockerAddress, blocked: blockedAddress}]
	return ok, nil
}

func (r *blockRepository) ListBlocked(ctx context.Context, blockerAddress string) ([]string, error) {
	defer r.store.read(r.inTx)()

	records := make([]domain.BlockRecord, 0)
	for key, rec := range r.store.data.blocks {
		if key.blocker == blockerAddress {
			records = append(records, rec)
		}
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].CreatedAt.After(records[j].CreatedAt)
	})

	addresses := make([]string, 0, len(records))
	for _, rec := range records {
		addresses = append(addresses, rec.BlockedAddress)
	}
	return addresses, nil
}

func (r *blockRepository) DeleteByBlocker(ctx context.Context, blockerAddress string) error {
	defer r.store.write(r.inTx)()

	for key := range r.store.data.blocks {
		if key.blocker == blockerAddress {
			delete(r.store.data.blocks, key)
		}
	}
	return nil
}
