package bonding

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/gdugdh24/ethospair-backend/internal/domain"
	"github.com/gdugdh24/ethospair-backend/internal/infrastructure/metrics"
	"github.com/gdugdh24/ethospair-backend/internal/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const icebreakerTimeout = 10 * time.Second

// IcebreakerGenerator proposes opening lines for a new bond.
type IcebreakerGenerator interface {
	GenerateIcebreakers(ctx context.Context, interests1, interests2 []string) ([]string, error)
}

type BondingUseCase struct {
	repos       repository.Repositories
	tx          repository.Transactor
	icebreakers IcebreakerGenerator
	metrics     *metrics.Metrics
	log         *zap.Logger
	now         func() time.Time
}

// NewBondingUseCase wires the lifecycle manager. icebreakers may be nil.
func NewBondingUseCase(
	repos repository.Repositories,
	tx repository.Transactor,
	icebreakers IcebreakerGenerator,
	m *metrics.Metrics,
	log *zap.Logger,
) *BondingUseCase {
	return &BondingUseCase{
		repos:       repos,
		tx:          tx,
		icebreakers: icebreakers,
		metrics:     m,
		log:         log,
		now:         time.Now,
	}
}

// SendRequest proposes a bond to another profile. If a pending request for
// the same direction already exists it is returned unchanged.
func (uc *BondingUseCase) SendRequest(ctx context.Context, session domain.Session, toAddress string) (*domain.PairRequest, error) {
	if !session.Valid() {
		return nil, domain.ErrUnauthorized
	}
	if !domain.IsValidAddress(toAddress) {
		return nil, domain.ErrInvalidAddress
	}
	from, to := session.Address, domain.NormalizeAddress(toAddress)
	if from == to {
		return nil, domain.ErrCannotRequestSelf
	}
	log := uc.log.With(zap.String("from", from), zap.String("to", to))

	for _, addr := range []string{from, to} {
		if _, err := uc.repos.Profiles.GetByAddress(ctx, addr); err != nil {
			if errors.Is(err, domain.ErrProfileNotFound) {
				return nil, err
			}
			return nil, uc.writeFailed(log, "send request: profile lookup failed", err)
		}
	}

	blocked, err := uc.blockedEitherWay(ctx, from, to)
	if err != nil {
		return nil, uc.writeFailed(log, "send request: block check failed", err)
	}
	if blocked {
		return nil, domain.ErrUserBlocked
	}

	_, err = uc.repos.Bonds.GetByMembers(ctx, from, to)
	if err == nil {
		return nil, domain.ErrAlreadyBonded
	}
	if !errors.Is(err, domain.ErrBondNotFound) {
		return nil, uc.writeFailed(log, "send request: bond check failed", err)
	}

	existing, err := uc.repos.PairRequests.FindPending(ctx, from, to)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, domain.ErrRequestNotFound) {
		return nil, uc.writeFailed(log, "send request: pending lookup failed", err)
	}

	request := &domain.PairRequest{
		ID:          uuid.NewString(),
		FromAddress: from,
		ToAddress:   to,
		Status:      domain.RequestStatusPending,
		CreatedAt:   uc.now(),
	}
	if err := uc.repos.PairRequests.Create(ctx, request); err != nil {
		if errors.Is(err, domain.ErrRequestAlreadyPending) {
			// Lost a race with an identical send.
			if existing, err := uc.repos.PairRequests.FindPending(ctx, from, to); err == nil {
				return existing, nil
			}
		}
		return nil, uc.writeFailed(log, "send request: insert failed", err)
	}

	uc.metrics.RequestOutcome(metrics.RequestSent)
	log.Info("pair request sent", zap.String("request_id", request.ID))
	return request, nil
}

// AcceptRequest moves a pending request to accepted and creates the bond in
// the same transaction. A pending request in the opposite direction is
// accepted along with it. If the two are already bonded the existing bond is
// returned.
func (uc *BondingUseCase) AcceptRequest(ctx context.Context, session domain.Session, requestID string) (*domain.Bond, error) {
	if !session.Valid() {
		return nil, domain.ErrUnauthorized
	}
	log := uc.log.With(zap.String("request_id", requestID), zap.String("address", session.Address))

	var (
		bond    *domain.Bond
		created bool
	)
	accept := func(ctx context.Context, repos repository.Repositories) error {
		created = false
		request, err := uc.pendingForRecipient(ctx, repos, session, requestID)
		if err != nil {
			return err
		}

		resolvedAt := uc.now()
		if err := repos.PairRequests.UpdateStatus(ctx, request.ID, domain.RequestStatusAccepted, resolvedAt); err != nil {
			return err
		}

		reverse, err := repos.PairRequests.FindPending(ctx, request.ToAddress, request.FromAddress)
		switch {
		case err == nil:
			if err := repos.PairRequests.UpdateStatus(ctx, reverse.ID, domain.RequestStatusAccepted, resolvedAt); err != nil {
				return err
			}
		case !errors.Is(err, domain.ErrRequestNotFound):
			return err
		}

		bond, err = repos.Bonds.GetByMembers(ctx, request.FromAddress, request.ToAddress)
		if err == nil {
			return nil
		}
		if !errors.Is(err, domain.ErrBondNotFound) {
			return err
		}

		bond = &domain.Bond{
			ID:           uuid.NewString(),
			User1Address: request.FromAddress,
			User2Address: request.ToAddress,
			CreatedAt:    resolvedAt,
		}
		created = true
		return repos.Bonds.Create(ctx, bond)
	}

	err := uc.tx.WithinTx(ctx, accept)
	if errors.Is(err, domain.ErrAlreadyBonded) {
		// A concurrent accept created the bond first; the retry picks it up.
		err = uc.tx.WithinTx(ctx, accept)
	}
	if err != nil {
		if domain.IsDomainError(err) && !errors.Is(err, domain.ErrAlreadyBonded) {
			return nil, err
		}
		return nil, uc.writeFailed(log, "accept request failed", err)
	}

	uc.metrics.RequestOutcome(metrics.RequestAccepted)
	if created {
		uc.metrics.BondCreated()
		log.Info("bond created", zap.String("bond_id", bond.ID))
		go uc.attachIcebreakers(context.WithoutCancel(ctx), *bond)
	}
	return bond, nil
}

// DeclineRequest moves a pending request to declined. Nothing else changes.
func (uc *BondingUseCase) DeclineRequest(ctx context.Context, session domain.Session, requestID string) (*domain.PairRequest, error) {
	if !session.Valid() {
		return nil, domain.ErrUnauthorized
	}
	log := uc.log.With(zap.String("request_id", requestID), zap.String("address", session.Address))

	var request *domain.PairRequest
	err := uc.tx.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		var err error
		request, err = uc.pendingForRecipient(ctx, repos, session, requestID)
		if err != nil {
			return err
		}

		resolvedAt := uc.now()
		if err := repos.PairRequests.UpdateStatus(ctx, request.ID, domain.RequestStatusDeclined, resolvedAt); err != nil {
			return err
		}
		request.Status = domain.RequestStatusDeclined
		request.ResolvedAt = &resolvedAt
		return nil
	})
	if err != nil {
		if domain.IsDomainError(err) {
			return nil, err
		}
		return nil, uc.writeFailed(log, "decline request failed", err)
	}

	uc.metrics.RequestOutcome(metrics.RequestDeclined)
	return request, nil
}

// Unbond removes a bond for both members, together with its messages.
func (uc *BondingUseCase) Unbond(ctx context.Context, session domain.Session, bondID string) error {
	if !session.Valid() {
		return domain.ErrUnauthorized
	}
	log := uc.log.With(zap.String("bond_id", bondID), zap.String("address", session.Address))

	err := uc.tx.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		bond, err := repos.Bonds.GetByID(ctx, bondID)
		if err != nil {
			return err
		}
		if !bond.HasMember(session.Address) {
			return domain.ErrNotBondMember
		}
		return removeBond(ctx, repos, bond.ID)
	})
	if err != nil {
		if domain.IsDomainError(err) {
			return err
		}
		return uc.writeFailed(log, "unbond failed", err)
	}

	uc.metrics.Unbonded()
	log.Info("bond removed")
	return nil
}

// BlockUser records the block, removes any bond between the two and
// declines pending requests in both directions. Repeating it is a no-op.
func (uc *BondingUseCase) BlockUser(ctx context.Context, session domain.Session, blockedAddress string) error {
	if !session.Valid() {
		return domain.ErrUnauthorized
	}
	if !domain.IsValidAddress(blockedAddress) {
		return domain.ErrInvalidAddress
	}
	blocker, blocked := session.Address, domain.NormalizeAddress(blockedAddress)
	if blocker == blocked {
		return domain.ErrCannotBlockSelf
	}
	log := uc.log.With(zap.String("blocker", blocker), zap.String("blocked", blocked))

	err := uc.tx.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		record := &domain.BlockRecord{
			ID:             uuid.NewString(),
			BlockerAddress: blocker,
			BlockedAddress: blocked,
			CreatedAt:      uc.now(),
		}
		if err := repos.Blocks.Upsert(ctx, record); err != nil {
			return err
		}

		bond, err := repos.Bonds.GetByMembers(ctx, blocker, blocked)
		switch {
		case err == nil:
			if err := removeBond(ctx, repos, bond.ID); err != nil {
				return err
			}
		case !errors.Is(err, domain.ErrBondNotFound):
			return err
		}

		resolvedAt := uc.now()
		for _, pair := range [][2]string{{blocker, blocked}, {blocked, blocker}} {
			pending, err := repos.PairRequests.FindPending(ctx, pair[0], pair[1])
			if errors.Is(err, domain.ErrRequestNotFound) {
				continue
			}
			if err != nil {
				return err
			}
			if err := repos.PairRequests.UpdateStatus(ctx, pending.ID, domain.RequestStatusDeclined, resolvedAt); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return uc.writeFailed(log, "block failed", err)
	}

	uc.metrics.Blocked()
	log.Info("user blocked")
	return nil
}

// UnblockUser removes the block record. A bond removed by the block is not
// restored.
func (uc *BondingUseCase) UnblockUser(ctx context.Context, session domain.Session, blockedAddress string) error {
	if !session.Valid() {
		return domain.ErrUnauthorized
	}
	if !domain.IsValidAddress(blockedAddress) {
		return domain.ErrInvalidAddress
	}
	blocked := domain.NormalizeAddress(blockedAddress)

	if err := uc.repos.Blocks.Delete(ctx, session.Address, blocked); err != nil {
		return uc.writeFailed(uc.log.With(zap.String("blocker", session.Address), zap.String("blocked", blocked)), "unblock failed", err)
	}
	return nil
}

func (uc *BondingUseCase) ListBlocked(ctx context.Context, session domain.Session) ([]string, error) {
	if !session.Valid() {
		return nil, domain.ErrUnauthorized
	}

	blocked, err := uc.repos.Blocks.ListBlocked(ctx, session.Address)
	if err != nil {
		uc.log.Warn("block list unavailable", zap.String("address", session.Address), zap.Error(err))
		return []string{}, nil
	}
	return blocked, nil
}

func (uc *BondingUseCase) pendingForRecipient(ctx context.Context, repos repository.Repositories, session domain.Session, requestID string) (*domain.PairRequest, error) {
	request, err := repos.PairRequests.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if request.ToAddress != session.Address {
		return nil, domain.ErrNotRequestRecipient
	}
	if !request.IsPending() {
		return nil, domain.ErrRequestNotPending
	}
	return request, nil
}

func (uc *BondingUseCase) blockedEitherWay(ctx context.Context, a, b string) (bool, error) {
	blocked, err := uc.repos.Blocks.Exists(ctx, a, b)
	if err != nil || blocked {
		return blocked, err
	}
	return uc.repos.Blocks.Exists(ctx, b, a)
}

// attachIcebreakers is best effort: the bond already exists, so failures
// are only logged.
// attachIcebreakers stores generated opening lines on a fresh bond. It runs
// after the accept has been answered; failures only leave the bond without
// icebreakers.
func (uc *BondingUseCase) attachIcebreakers(ctx context.Context, bond domain.Bond) {
	if uc.icebreakers == nil {
		return
	}
	log := uc.log.With(zap.String("bond_id", bond.ID))

	p1, err := uc.repos.Profiles.GetByAddress(ctx, bond.User1Address)
	if err != nil {
		log.Warn("icebreakers: profile unavailable", zap.String("address", bond.User1Address), zap.Error(err))
		return
	}
	p2, err := uc.repos.Profiles.GetByAddress(ctx, bond.User2Address)
	if err != nil {
		log.Warn("icebreakers: profile unavailable", zap.String("address", bond.User2Address), zap.Error(err))
		return
	}

	genCtx, cancel := context.WithTimeout(ctx, icebreakerTimeout)
	defer cancel()

	lines, err := uc.icebreakers.GenerateIcebreakers(genCtx, p1.Interests, p2.Interests)
	if err != nil {
		log.Warn("icebreakers: generation failed", zap.Error(err))
		return
	}
	if err := uc.repos.Bonds.UpdateIcebreakers(ctx, bond.ID, lines); err != nil {
		log.Warn("icebreakers: store failed", zap.Error(err))
	}
}

func (uc *BondingUseCase) writeFailed(log *zap.Logger, msg string, err error) error {
	log.Error(msg, zap.Error(err))
	return domain.ErrOperationFailed
}

func removeBond(ctx context.Context, repos repository.Repositories, bondID string) error {
	if err := repos.Messages.DeleteByBond(ctx, bondID); err != nil {
		return err
	}
	return repos.Bonds.Delete(ctx, bondID)
}

// sortByLastActivity orders bonds newest message first. Bonds without
// messages sort last.
func sortByLastActivity(bonds []*domain.BondSummary) {
	sort.SliceStable(bonds, func(i, j int) bool {
		return bonds[i].LastActivity().After(bonds[j].LastActivity())
	})
}
