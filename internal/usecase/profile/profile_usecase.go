package profile

import (
	"context"
	"errors"
	"strings"

	"github.com/gdugdh24/ethospair-backend/internal/domain"
	"github.com/gdugdh24/ethospair-backend/internal/infrastructure/metrics"
	"github.com/gdugdh24/ethospair-backend/internal/repository"
	"go.uber.org/zap"
)

// IdentityGateway is the part of the reputation client profiles need.
type IdentityGateway interface {
	GetIdentity(ctx context.Context, address string) (*domain.Identity, error)
	IdentityOrFallback(ctx context.Context, address string) *domain.Identity
}

type ProfileUseCase struct {
	profileRepo repository.ProfileRepository
	tx          repository.Transactor
	gateway     IdentityGateway
	metrics     *metrics.Metrics
	log         *zap.Logger
}

func NewProfileUseCase(
	profileRepo repository.ProfileRepository,
	tx repository.Transactor,
	gateway IdentityGateway,
	m *metrics.Metrics,
	log *zap.Logger,
) *ProfileUseCase {
	return &ProfileUseCase{
		profileRepo: profileRepo,
		tx:          tx,
		gateway:     gateway,
		metrics:     m,
		log:         log,
	}
}

// OnboardingRequest represents the discovery attributes chosen at sign-up
type OnboardingRequest struct {
	DisplayName      string   `json:"display_name" binding:"omitempty,max=100"`
	Description      string   `json:"description" binding:"omitempty,max=500"`
	Location         string   `json:"location" binding:"omitempty,max=100"`
	Nationality      string   `json:"nationality" binding:"omitempty,max=100"`
	Continent        string   `json:"continent" binding:"omitempty,max=50"`
	Interests        []string `json:"interests" binding:"omitempty,max=20,dive,max=50"`
	LookingFor       []string `json:"looking_for" binding:"omitempty,max=10,dive,max=50"`
	GenderPreference string   `json:"gender_preference" binding:"omitempty,max=30"`
	MinVisibleScore  int      `json:"min_visible_to_ethos_score" binding:"min=0"`
}

// UpdateProfileRequest represents profile update request
type UpdateProfileRequest struct {
	DisplayName      *string   `json:"display_name" binding:"omitempty,max=100"`
	Description      *string   `json:"description" binding:"omitempty,max=500"`
	Location         *string   `json:"location" binding:"omitempty,max=100"`
	Nationality      *string   `json:"nationality" binding:"omitempty,max=100"`
	Continent        *string   `json:"continent" binding:"omitempty,max=50"`
	Interests        *[]string `json:"interests" binding:"omitempty,max=20"`
	LookingFor       *[]string `json:"looking_for" binding:"omitempty,max=10"`
	GenderPreference *string   `json:"gender_preference" binding:"omitempty,max=30"`
	MinVisibleScore  *int      `json:"min_visible_to_ethos_score" binding:"omitempty,min=0"`
}

// CompleteOnboarding creates the profile for a signed-in address, seeding
// display and reputation fields from the gateway.
func (uc *ProfileUseCase) CompleteOnboarding(ctx context.Context, session domain.Session, req *OnboardingRequest) (*domain.Profile, error) {
	if !session.Valid() {
		return nil, domain.ErrUnauthorized
	}

	_, err := uc.profileRepo.GetByAddress(ctx, session.Address)
	if err == nil {
		return nil, domain.ErrProfileAlreadyExists
	}
	if !errors.Is(err, domain.ErrProfileNotFound) {
		return nil, uc.writeFailed("onboarding lookup failed", err, session.Address)
	}

	continent, err := domain.CanonicalContinent(req.Continent)
	if err != nil {
		return nil, err
	}
	preference, err := canonicalPreference(req.GenderPreference)
	if err != nil {
		return nil, err
	}
	if req.MinVisibleScore < 0 {
		return nil, domain.ErrInvalidInput
	}

	identity := uc.gateway.IdentityOrFallback(ctx, session.Address)

	profile := &domain.Profile{
		Address:          session.Address,
		DisplayName:      firstNonEmpty(req.DisplayName, identity.DisplayName, identity.Username),
		Username:         identity.Username,
		AvatarURL:        identity.AvatarURL,
		Description:      firstNonEmpty(req.Description, identity.Description),
		Location:         strings.TrimSpace(req.Location),
		Nationality:      strings.TrimSpace(req.Nationality),
		Continent:        continent,
		Interests:        domain.NormalizeTags(req.Interests),
		LookingFor:       domain.NormalizeTags(req.LookingFor),
		GenderPreference: preference,
		MinVisibleScore:  req.MinVisibleScore,
	}
	profile.ApplyReputation(identity.Reputation)

	if err := uc.profileRepo.Upsert(ctx, profile); err != nil {
		return nil, uc.writeFailed("failed to save profile", err, session.Address)
	}

	uc.log.Info("onboarding completed", zap.String("address", profile.Address))
	return profile, nil
}

// GetProfile returns a stored profile by address.
func (uc *ProfileUseCase) GetProfile(ctx context.Context, address string) (*domain.Profile, error) {
	if !domain.IsValidAddress(address) {
		return nil, domain.ErrInvalidAddress
	}

	profile, err := uc.profileRepo.GetByAddress(ctx, address)
	if err != nil {
		if errors.Is(err, domain.ErrProfileNotFound) {
			return nil, err
		}
		uc.log.Warn("profile lookup failed", zap.String("address", address), zap.Error(err))
		return nil, domain.ErrProfileNotFound
	}
	return profile, nil
}

func (uc *ProfileUseCase) GetMyProfile(ctx context.Context, session domain.Session) (*domain.Profile, error) {
	if !session.Valid() {
		return nil, domain.ErrUnauthorized
	}
	return uc.GetProfile(ctx, session.Address)
}

// UpdateProfile applies a partial self-edit. The address never changes.
func (uc *ProfileUseCase) UpdateProfile(ctx context.Context, session domain.Session, req *UpdateProfileRequest) (*domain.Profile, error) {
	if !session.Valid() {
		return nil, domain.ErrUnauthorized
	}

	profile, err := uc.profileRepo.GetByAddress(ctx, session.Address)
	if err != nil {
		if errors.Is(err, domain.ErrProfileNotFound) {
			return nil, err
		}
		return nil, uc.writeFailed("update lookup failed", err, session.Address)
	}

	if req.DisplayName != nil {
		profile.DisplayName = strings.TrimSpace(*req.DisplayName)
	}
	if req.Description != nil {
		profile.Description = strings.TrimSpace(*req.Description)
	}
	if req.Location != nil {
		profile.Location = strings.TrimSpace(*req.Location)
	}
	if req.Nationality != nil {
		profile.Nationality = strings.TrimSpace(*req.Nationality)
	}
	if req.Continent != nil {
		continent, err := domain.CanonicalContinent(*req.Continent)
		if err != nil {
			return nil, err
		}
		profile.Continent = continent
	}
	if req.Interests != nil {
		profile.Interests = domain.NormalizeTags(*req.Interests)
	}
	if req.LookingFor != nil {
		profile.LookingFor = domain.NormalizeTags(*req.LookingFor)
	}
	if req.GenderPreference != nil {
		preference, err := canonicalPreference(*req.GenderPreference)
		if err != nil {
			return nil, err
		}
		profile.GenderPreference = preference
	}
	if req.MinVisibleScore != nil {
		if *req.MinVisibleScore < 0 {
			return nil, domain.ErrInvalidInput
		}
		profile.MinVisibleScore = *req.MinVisibleScore
	}

	if err := uc.profileRepo.Upsert(ctx, profile); err != nil {
		return nil, uc.writeFailed("failed to update profile", err, session.Address)
	}
	return profile, nil
}

// SyncReputation refreshes the cached reputation fields from the gateway.
// When the gateway fails the stored values are returned unchanged.
func (uc *ProfileUseCase) SyncReputation(ctx context.Context, session domain.Session) (*domain.Profile, error) {
	profile, err := uc.GetMyProfile(ctx, session)
	if err != nil {
		return nil, err
	}

	identity, err := uc.gateway.GetIdentity(ctx, session.Address)
	if err != nil {
		uc.log.Warn("reputation sync failed, keeping cached values",
			zap.String("address", session.Address),
			zap.Error(err),
		)
		uc.metrics.GatewayFallback("sync")
		return profile, nil
	}

	profile.ApplyReputation(identity.Reputation)
	if identity.AvatarURL != "" {
		profile.AvatarURL = identity.AvatarURL
	}
	if identity.Username != "" {
		profile.Username = identity.Username
	}

	if err := uc.profileRepo.Upsert(ctx, profile); err != nil {
		return nil, uc.writeFailed("failed to store synced reputation", err, session.Address)
	}
	return profile, nil
}

// DeleteAccount removes the profile together with every bond (and its
// messages) and pair request that involves the address. Only the blocks
// the caller placed are removed; blocks others placed on the address
// survive a later re-onboarding.
func (uc *ProfileUseCase) DeleteAccount(ctx context.Context, session domain.Session) error {
	if !session.Valid() {
		return domain.ErrUnauthorized
	}

	err := uc.tx.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		bonds, err := repos.Bonds.ListByMember(ctx, session.Address)
		if err != nil {
			return err
		}
		for _, bond := range bonds {
			if err := repos.Messages.DeleteByBond(ctx, bond.ID); err != nil {
				return err
			}
			if err := repos.Bonds.Delete(ctx, bond.ID); err != nil {
				return err
			}
		}
		if err := repos.PairRequests.DeleteInvolving(ctx, session.Address); err != nil {
			return err
		}
		if err := repos.Blocks.DeleteByBlocker(ctx, session.Address); err != nil {
			return err
		}
		return repos.Profiles.Delete(ctx, session.Address)
	})
	if err != nil {
		if errors.Is(err, domain.ErrProfileNotFound) {
			return err
		}
		return uc.writeFailed("failed to delete account", err, session.Address)
	}

	uc.log.Info("account deleted", zap.String("address", session.Address))
	return nil
}

func (uc *ProfileUseCase) writeFailed(msg string, err error, address string) error {
	uc.log.Error(msg, zap.String("address", address), zap.Error(err))
	return domain.ErrOperationFailed
}

func canonicalPreference(code string) (string, error) {
	if strings.TrimSpace(code) == "" {
		return "", nil
	}
	pref, err := domain.ParsePreference(code)
	if err != nil {
		return "", err
	}
	return pref.String(), nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
