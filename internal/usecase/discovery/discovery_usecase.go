package discovery

import (
	"context"

	"github.com/gdugdh24/ethospair-backend/internal/domain"
	"github.com/gdugdh24/ethospair-backend/internal/infrastructure/metrics"
	"github.com/gdugdh24/ethospair-backend/internal/repository"
	"go.uber.org/zap"
)

// ReputationGateway refreshes reputation for many addresses at once.
type ReputationGateway interface {
	GetIdentities(ctx context.Context, addresses []string) (map[string]*domain.Identity, error)
}

type DiscoveryUseCase struct {
	profileRepo          repository.ProfileRepository
	blockRepo            repository.BlockRepository
	bondRepo             repository.BondRepository
	gateway              ReputationGateway
	batchSize            int
	defaultMaxReputation int
	metrics              *metrics.Metrics
	log                  *zap.Logger
}

func NewDiscoveryUseCase(
	repos repository.Repositories,
	gateway ReputationGateway,
	batchSize int,
	defaultMaxReputation int,
	m *metrics.Metrics,
	log *zap.Logger,
) *DiscoveryUseCase {
	if batchSize <= 0 {
		batchSize = 500
	}
	return &DiscoveryUseCase{
		profileRepo:          repos.Profiles,
		blockRepo:            repos.Blocks,
		bondRepo:             repos.Bonds,
		gateway:              gateway,
		batchSize:            batchSize,
		defaultMaxReputation: defaultMaxReputation,
		metrics:              m,
		log:                  log,
	}
}

// GetCandidates returns the profiles the viewer may act on, in store order.
// Any failed store read yields an empty list instead of an error.
func (uc *DiscoveryUseCase) GetCandidates(ctx context.Context, session domain.Session, criteria domain.Criteria) ([]*domain.Profile, error) {
	if !session.Valid() {
		return nil, domain.ErrUnauthorized
	}
	if !criteria.RangeValid() {
		return nil, domain.ErrInvalidInput
	}

	empty := []*domain.Profile{}
	log := uc.log.With(zap.String("viewer", session.Address))

	viewer, err := uc.profileRepo.GetByAddress(ctx, session.Address)
	if err != nil {
		log.Warn("discovery: viewer profile unavailable", zap.Error(err))
		return empty, nil
	}

	candidates, err := uc.profileRepo.ListExcept(ctx, session.Address)
	if err != nil {
		log.Warn("discovery: candidate scan failed", zap.Error(err))
		return empty, nil
	}

	blocked, err := uc.blockRepo.ListBlocked(ctx, session.Address)
	if err != nil {
		log.Warn("discovery: block list unavailable", zap.Error(err))
		return empty, nil
	}

	bonds, err := uc.bondRepo.ListByMember(ctx, session.Address)
	if err != nil {
		log.Warn("discovery: bond list unavailable", zap.Error(err))
		return empty, nil
	}

	ex := Exclusions{
		Blocked: make(map[string]struct{}, len(blocked)),
		Bonded:  make(map[string]struct{}, len(bonds)),
	}
	for _, addr := range blocked {
		ex.Blocked[addr] = struct{}{}
	}
	for _, bond := range bonds {
		if other, ok := bond.Counterpart(session.Address); ok {
			ex.Bonded[other] = struct{}{}
		}
	}

	uc.refreshReputation(ctx, candidates)

	result := Filter(viewer, candidates, ex, criteria, uc.defaultMaxReputation)
	uc.metrics.CandidatesServed(len(result))
	return result, nil
}

// refreshReputation overwrites cached reputation with gateway data. A failed
// batch, or an address the gateway does not know, keeps the cached values.
func (uc *DiscoveryUseCase) refreshReputation(ctx context.Context, candidates []*domain.Profile) {
	if uc.gateway == nil || len(candidates) == 0 {
		return
	}

	for start := 0; start < len(candidates); start += uc.batchSize {
		end := start + uc.batchSize
		if end > len(candidates) {
			end = len(candidates)
		}
		batch := candidates[start:end]

		addresses := make([]string, len(batch))
		for i, c := range batch {
			addresses[i] = c.Address
		}

		identities, err := uc.gateway.GetIdentities(ctx, addresses)
		if err != nil {
			uc.metrics.GatewayFallback("bulk")
			uc.log.Warn("discovery: reputation refresh failed, using cached values",
				zap.Int("batch_size", len(batch)),
				zap.Error(err),
			)
			continue
		}
		for _, c := range batch {
			if identity, ok := identities[c.Address]; ok {
				c.ApplyReputation(identity.Reputation)
			}
		}
	}
}
