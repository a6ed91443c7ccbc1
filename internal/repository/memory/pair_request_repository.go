package memory

import (
	"context"
	"sort"
	"time"

	"github.com/gdugdh24/ethospair-backend/internal/domain"
)

type pairRequestRepository struct {
	store *Store
	inTx  bool
}

func (r *pairRequestRepository) Create(ctx context.Context, request *domain.PairRequest) error {
	defer r.store.write(r.inTx)()

	for _, existing := range r.store.data.requests {
		if existing.IsPending() && existing.FromAddress == request.FromAddress && existing.ToAddress == request.ToAddress {
			return domain.ErrRequestAlreadyPending
		}
	}
	if request.CreatedAt.IsZero() {
		request.CreatedAt = time.Now()
	}
	r.store.data.requests[request.ID] = cloneRequest(*request)
	return nil
}

func (r *pairRequestRepository) GetByID(ctx context.Context, id string) (*domain.PairRequest, error) {
	defer r.store.read(r.inTx)()

	req, ok := r.store.data.requests[id]
	if !ok {
		return nil, domain.ErrRequestNotFound
	}
	req = cloneRequest(req)
	return &req, nil
}

func (r *pairRequestRepository) FindPending(ctx context.Context, fromAddress, toAddress string) (*domain.PairRequest, error) {
	defer r.store.read(r.inTx)()

	for _, req := range r.store.data.requests {
		if req.IsPending() && req.FromAddress == fromAddress && req.ToAddress == toAddress {
			req = cloneRequest(req)
			return &req, nil
		}
	}
	return nil, domain.ErrRequestNotFound
}

func (r *pairRequestRepository) UpdateStatus(ctx context.Context, id string, status domain.RequestStatus, resolvedAt time.Time) error {
	defer r.store.write(r.inTx)()

	req, ok := r.store.data.requests[id]
	if !ok {
		return domain.ErrRequestNotFound
	}
	req.Status = status
	req.ResolvedAt = &resolvedAt
	r.store.data.requests[id] = req
	return nil
}

func (r *pairRequestRepository) ListPendingTo(ctx context.Context, address string) ([]*domain.PairRequest, error) {
	return r.listPending(func(req domain.PairRequest) bool { return req.ToAddress == address }), nil
}

func (r *pairRequestRepository) ListPendingFrom(ctx context.Context, address string) ([]*domain.PairRequest, error) {
	return r.listPending(func(req domain.PairRequest) bool { return req.FromAddress == address }), nil
}

func (r *pairRequestRepository) DeleteInvolving(ctx context.Context, address string) error {
	defer r.store.write(r.inTx)()

	for id, req := range r.store.data.requests {
		if req.Involves(address) {
			delete(r.store.data.requests, id)
		}
	}
	return nil
}

func (r *pairRequestRepository) listPending(match func(domain.PairRequest) bool) []*domain.PairRequest {
	defer r.store.read(r.inTx)()

	requests := make([]*domain.PairRequest, 0)
	for _, req := range r.store.data.requests {
		if req.IsPending() && match(req) {
			req = cloneRequest(req)
			requests = append(requests, &req)
		}
	}
	sort.Slice(requests, func(i, j int) bool {
		return requests[i].CreatedAt.After(requests[j].CreatedAt)
	})
	return requests
}
