package memory

import (
	"context"
	"sort"
	"time"

	"github.com/gdugdh24/ethospair-backend/internal/domain"
)

type bondRepository struct {
	store *Store
	inTx  bool
}

func (r *bondRepository) Create(ctx context.Context, bond *domain.Bond) error {
	defer r.store.write(r.inTx)()

	bond.User1Address, bond.User2Address = domain.OrderMembers(bond.User1Address, bond.User2Address)
	for _, existing := range r.store.data.bonds {
		if existing.User1Address == bond.User1Address && existing.User2Address == bond.User2Address {
			return domain.ErrAlreadyBonded
		}
	}
	if bond.CreatedAt.IsZero() {
		bond.CreatedAt = time.Now()
	}
	r.store.data.bonds[bond.ID] = cloneBond(*bond)
	return nil
}

func (r *bondRepository) GetByID(ctx context.Context, id string) (*domain.Bond, error) {
	defer r.store.read(r.inTx)()

	bond, ok := r.store.data.bonds[id]
	if !ok {
		return nil, domain.ErrBondNotFound
	}
	bond = cloneBond(bond)
	return &bond, nil
}

func (r *bondRepository) GetByMembers(ctx context.Context, address1, address2 string) (*domain.Bond, error) {
	defer r.store.read(r.inTx)()

	user1, user2 := domain.OrderMembers(address1, address2)
	for _, bond := range r.store.data.bonds {
		if bond.User1Address == user1 && bond.User2Address == user2 {
			bond = cloneBond(bond)
			return &bond, nil
		}
	}
	return nil, domain.ErrBondNotFound
}

func (r *bondRepository) ListByMember(ctx context.Context, address string) ([]*domain.Bond, error) {
	defer r.store.read(r.inTx)()

	bonds := make([]*domain.Bond, 0)
	for _, bond := range r.store.data.bonds {
		if bond.HasMember(address) {
			bond = cloneBond(bond)
			bonds = append(bonds, &bond)
		}
	}
	sort.Slice(bonds, func(i, j int) bool {
		return bonds[i].CreatedAt.After(bonds[j].CreatedAt)
	})
	return bonds, nil
}

func (r *bondRepository) UpdateIcebreakers(ctx context.Context, id string, icebreakers []string) error {
	defer r.store.write(r.inTx)()

	bond, ok := r.store.data.bonds[id]
	if !ok {
		return domain.ErrBondNotFound
	}
	bond.Icebreakers = cloneStrings(icebreakers)
	r.store.data.bonds[id] = bond
	return nil
}

func (r *bondRepository) Delete(ctx context.Context, id string) error {
	defer r.store.write(r.inTx)()

	if _, ok := r.store.data.bonds[id]; !ok {
		return domain.ErrBondNotFound
	}
	delete(r.store.data.bonds, id)
	return nil
}
