package bonding

import (
	"context"
	"errors"

	"github.com/gdugdh24/ethospair-backend/internal/domain"
	"go.uber.org/zap"
)

// Refresh assembles the viewer's bonding overview. Each section degrades to
// an empty list independently when its reads fail, and entries whose
// counterpart profile no longer exists are skipped.
func (uc *BondingUseCase) Refresh(ctx context.Context, session domain.Session) (*domain.Overview, error) {
	if !session.Valid() {
		return nil, domain.ErrUnauthorized
	}
	log := uc.log.With(zap.String("address", session.Address))
	profiles := make(map[string]*domain.Profile)

	return &domain.Overview{
		ReceivedRequests: uc.receivedRequests(ctx, log, session.Address, profiles),
		SentRequests:     uc.sentRequests(ctx, log, session.Address, profiles),
		ActiveBonds:      uc.activeBonds(ctx, log, session.Address, profiles),
	}, nil
}

func (uc *BondingUseCase) receivedRequests(ctx context.Context, log *zap.Logger, address string, profiles map[string]*domain.Profile) []*domain.ReceivedRequest {
	out := make([]*domain.ReceivedRequest, 0)

	requests, err := uc.repos.PairRequests.ListPendingTo(ctx, address)
	if err != nil {
		log.Warn("received requests unavailable", zap.Error(err))
		return out
	}
	for _, request := range requests {
		profile, ok := uc.lookupProfile(ctx, log, request.FromAddress, profiles)
		if !ok {
			continue
		}
		out = append(out, &domain.ReceivedRequest{PairRequest: request, FromProfile: profile})
	}
	return out
}

func (uc *BondingUseCase) sentRequests(ctx context.Context, log *zap.Logger, address string, profiles map[string]*domain.Profile) []*domain.SentRequest {
	out := make([]*domain.SentRequest, 0)

	requests, err := uc.repos.PairRequests.ListPendingFrom(ctx, address)
	if err != nil {
		log.Warn("sent requests unavailable", zap.Error(err))
		return out
	}
	for _, request := range requests {
		profile, ok := uc.lookupProfile(ctx, log, request.ToAddress, profiles)
		if !ok {
			continue
		}
		out = append(out, &domain.SentRequest{PairRequest: request, ToProfile: profile})
	}
	return out
}

func (uc *BondingUseCase) activeBonds(ctx context.Context, log *zap.Logger, address string, profiles map[string]*domain.Profile) []*domain.BondSummary {
	out := make([]*domain.BondSummary, 0)

	bonds, err := uc.repos.Bonds.ListByMember(ctx, address)
	if err != nil {
		log.Warn("bonds unavailable", zap.Error(err))
		return out
	}
	for _, bond := range bonds {
		other, _ := bond.Counterpart(address)
		profile, ok := uc.lookupProfile(ctx, log, other, profiles)
		if !ok {
			continue
		}

		summary := &domain.BondSummary{Bond: bond, Profile: profile}
		last, err := uc.repos.Messages.LastByBond(ctx, bond.ID)
		switch {
		case err == nil:
			summary.LastMessage = &last.Body
			summary.LastMessageTime = &last.CreatedAt
		case !errors.Is(err, domain.ErrMessageNotFound):
			log.Warn("last message unavailable", zap.String("bond_id", bond.ID), zap.Error(err))
		}
		if unread, err := uc.repos.Messages.CountUnread(ctx, bond.ID, address); err == nil {
			summary.UnreadCount = unread
		} else {
			log.Warn("unread count unavailable", zap.String("bond_id", bond.ID), zap.Error(err))
		}

		out = append(out, summary)
	}

	sortByLastActivity(out)
	return out
}

func (uc *BondingUseCase) lookupProfile(ctx context.Context, log *zap.Logger, address string, cache map[string]*domain.Profile) (*domain.Profile, bool) {
	if profile, ok := cache[address]; ok {
		return profile, profile != nil
	}

	profile, err := uc.repos.Profiles.GetByAddress(ctx, address)
	if err != nil {
		if !errors.Is(err, domain.ErrProfileNotFound) {
			log.Warn("counterpart profile unavailable", zap.String("counterpart", address), zap.Error(err))
		}
		cache[address] = nil
		return nil, false
	}
	cache[address] = profile
	return profile, true
}
