package memory

import (
	"context"
	"sort"
	"time"

	"github.com/gdugdh24/ethospair-backend/internal/domain"
)

type profileRepository struct {
	store *Store
	inTx  bool
}

func (r *profileRepository) GetByAddress(ctx context.Context, address string) (*domain.Profile, error) {
	defer r.store.read(r.inTx)()

	rec, ok := r.store.data.profiles[domain.NormalizeAddress(address)]
	if !ok {
		return nil, domain.ErrProfileNotFound
	}
	p := cloneProfile(rec.profile)
	return &p, nil
}

func (r *profileRepository) ListExcept(ctx context.Context, address string) ([]*domain.Profile, error) {
	defer r.store.read(r.inTx)()

	address = domain.NormalizeAddress(address)
	records := make([]profileRecord, 0, len(r.store.data.profiles))
	for addr, rec := range r.store.data.profiles {
		if addr == address {
			continue
		}
		records = append(records, rec)
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].seq > records[j].seq
	})

	profiles := make([]*domain.Profile, 0, len(records))
	for _, rec := range records {
		p := cloneProfile(rec.profile)
		profiles = append(profiles, &p)
	}
	return profiles, nil
}

func (r *profileRepository) Upsert(ctx context.Context, profile *domain.Profile) error {
	defer r.store.write(r.inTx)()

	profile.Address = domain.NormalizeAddress(profile.Address)
	now := time.Now()
	profile.UpdatedAt = now

	rec, ok := r.store.data.profiles[profile.Address]
	if ok {
		profile.CreatedAt = rec.profile.CreatedAt
	} else {
		profile.CreatedAt = now
		rec.seq = r.store.nextSeq()
	}
	rec.profile = cloneProfile(*profile)
	r.store.data.profiles[profile.Address] = rec
	return nil
}

func (r *profileRepository) Delete(ctx context.Context, address string) error {
	defer r.store.write(r.inTx)()

	address = domain.NormalizeAddress(address)
	if _, ok := r.store.data.profiles[address]; !ok {
		return domain.ErrProfileNotFound
	}
	delete(r.store.data.profiles, address)
	return nil
}
