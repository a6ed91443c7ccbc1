package profile

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/gdugdh24/ethospair-backend/internal/domain"
	"github.com/gdugdh24/ethospair-backend/internal/infrastructure/metrics"
	"github.com/gdugdh24/ethospair-backend/internal/repository/memory"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const (
	alice = "0x1111111111111111111111111111111111111111"
	bob   = "0x2222222222222222222222222222222222222222"
)

type stubGateway struct {
	identity *domain.Identity
	err      error
}

func (g *stubGateway) GetIdentity(ctx context.Context, address string) (*domain.Identity, error) {
	if g.err != nil {
		return nil, g.err
	}
	id := *g.identity
	id.Address = address
	return &id, nil
}

func (g *stubGateway) IdentityOrFallback(ctx context.Context, address string) *domain.Identity {
	id, err := g.GetIdentity(ctx, address)
	if err != nil {
		return &domain.Identity{Address: address, Reputation: domain.Reputation{TrustLevel: domain.DefaultTrustLevel}}
	}
	return id
}

func newUseCase(gw *stubGateway) (*ProfileUseCase, *memory.Store) {
	store := memory.NewStore()
	return NewProfileUseCase(store.Repositories().Profiles, store, gw, nil, zap.NewNop()), store
}

func reputable() *stubGateway {
	return &stubGateway{identity: &domain.Identity{
		DisplayName: "Alice",
		Username:    "alice",
		AvatarURL:   "https://img/alice.png",
		Reputation: domain.Reputation{
			Score:      1700,
			TrustLevel: "reputable",
			XPTotal:    300,
		},
	}}
}

func TestCompleteOnboarding(t *testing.T) {
	uc, _ := newUseCase(reputable())
	ctx := context.Background()

	profile, err := uc.CompleteOnboarding(ctx, domain.NewSession(alice), &OnboardingRequest{
		Location:         " Lisbon ",
		Continent:        "europe",
		Interests:        []string{"DeFi", "defi", " ", "Art"},
		LookingFor:       []string{"friends"},
		GenderPreference: "Woman-Everyone",
		MinVisibleScore:  1200,
	})
	require.NoError(t, err)

	assert.Equal(t, alice, profile.Address)
	assert.Equal(t, "Alice", profile.DisplayName)
	assert.Equal(t, "https://img/alice.png", profile.AvatarURL)
	assert.Equal(t, "Lisbon", profile.Location)
	assert.Equal(t, "Europe", profile.Continent)
	assert.Equal(t, []string{"DeFi", "Art"}, profile.Interests)
	assert.Equal(t, "woman-everyone", profile.GenderPreference)
	assert.Equal(t, 1700, profile.Score)
	assert.Equal(t, "reputable", profile.TrustLevel)

	_, err = uc.CompleteOnboarding(ctx, domain.NewSession(alice), &OnboardingRequest{})
	assert.ErrorIs(t, err, domain.ErrProfileAlreadyExists)
}

func TestCompleteOnboarding_GatewayDown(t *testing.T) {
	uc, _ := newUseCase(&stubGateway{err: errors.New("unreachable")})

	profile, err := uc.CompleteOnboarding(context.Background(), domain.NewSession(alice), &OnboardingRequest{DisplayName: "Al"})
	require.NoError(t, err)
	assert.Equal(t, "Al", profile.DisplayName)
	assert.Zero(t, profile.Score)
	assert.Equal(t, domain.DefaultTrustLevel, profile.TrustLevel)
}

func TestCompleteOnboarding_Validation(t *testing.T) {
	uc, _ := newUseCase(reputable())
	ctx := context.Background()

	_, err := uc.CompleteOnboarding(ctx, domain.NewSession(alice), &OnboardingRequest{Continent: "Atlantis"})
	assert.ErrorIs(t, err, domain.ErrInvalidContinent)

	_, err = uc.CompleteOnboarding(ctx, domain.NewSession(alice), &OnboardingRequest{GenderPreference: "everyone-man"})
	assert.ErrorIs(t, err, domain.ErrInvalidPreference)

	_, err = uc.CompleteOnboarding(ctx, domain.Session{}, &OnboardingRequest{})
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestUpdateProfile(t *testing.T) {
	uc, _ := newUseCase(reputable())
	ctx := context.Background()
	session := domain.NewSession(alice)

	_, err := uc.UpdateProfile(ctx, session, &UpdateProfileRequest{})
	assert.ErrorIs(t, err, domain.ErrProfileNotFound)

	_, err = uc.CompleteOnboarding(ctx, session, &OnboardingRequest{Location: "Lisbon", Interests: []string{"art"}})
	require.NoError(t, err)

	location := "Porto"
	score := 900
	profile, err := uc.UpdateProfile(ctx, session, &UpdateProfileRequest{
		Location:        &location,
		MinVisibleScore: &score,
	})
	require.NoError(t, err)
	assert.Equal(t, "Porto", profile.Location)
	assert.Equal(t, 900, profile.MinVisibleScore)
	assert.Equal(t, []string{"art"}, profile.Interests)

	bad := "north-pole"
	_, err = uc.UpdateProfile(ctx, session, &UpdateProfileRequest{GenderPreference: &bad})
	assert.ErrorIs(t, err, domain.ErrInvalidPreference)
}

func TestSyncReputation(t *testing.T) {
	gw := reputable()
	uc, _ := newUseCase(gw)
	ctx := context.Background()
	session := domain.NewSession(alice)

	_, err := uc.CompleteOnboarding(ctx, session, &OnboardingRequest{})
	require.NoError(t, err)

	gw.identity.Score = 2100
	gw.identity.XPTotal = 0
	profile, err := uc.SyncReputation(ctx, session)
	require.NoError(t, err)
	assert.Equal(t, 2100, profile.Score)
	assert.Equal(t, 300, profile.XPTotal)

	gw.err = errors.New("timeout")
	profile, err = uc.SyncReputation(ctx, session)
	require.NoError(t, err)
	assert.Equal(t, 2100, profile.Score)
}

func TestSyncReputation_CountsFallback(t *testing.T) {
	gw := reputable()
	store := memory.NewStore()
	reg := prometheus.NewRegistry()
	uc := NewProfileUseCase(store.Repositories().Profiles, store, gw, metrics.New(reg), zap.NewNop())
	ctx := context.Background()
	session := domain.NewSession(alice)

	_, err := uc.CompleteOnboarding(ctx, session, &OnboardingRequest{})
	require.NoError(t, err)
	_, err = uc.SyncReputation(ctx, session)
	require.NoError(t, err)

	gw.err = errors.New("timeout")
	profile, err := uc.SyncReputation(ctx, session)
	require.NoError(t, err)
	assert.Equal(t, 1700, profile.Score)

	expected := `
# HELP ethospair_ethos_fallbacks_total Gateway lookups that fell back to cached or zero values
# TYPE ethospair_ethos_fallbacks_total counter
ethospair_ethos_fallbacks_total{operation="sync"} 1
`
	assert.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "ethospair_ethos_fallbacks_total"))
}

func TestDeleteAccount_Cascades(t *testing.T) {
	uc, store := newUseCase(reputable())
	ctx := context.Background()
	repos := store.Repositories()

	for _, addr := range []string{alice, bob} {
		_, err := uc.CompleteOnboarding(ctx, domain.NewSession(addr), &OnboardingRequest{})
		require.NoError(t, err)
	}
	require.NoError(t, repos.Bonds.Create(ctx, &domain.Bond{ID: "b1", User1Address: alice, User2Address: bob}))
	require.NoError(t, repos.Messages.Create(ctx, &domain.Message{ID: "m1", BondID: "b1", SenderAddress: bob, ReceiverAddress: alice, Body: "hi"}))
	require.NoError(t, repos.PairRequests.Create(ctx, &domain.PairRequest{ID: "r1", FromAddress: bob, ToAddress: alice, Status: domain.RequestStatusPending}))
	require.NoError(t, repos.Blocks.Upsert(ctx, &domain.BlockRecord{ID: "k1", BlockerAddress: bob, BlockedAddress: alice}))
	require.NoError(t, repos.Blocks.Upsert(ctx, &domain.BlockRecord{ID: "k2", BlockerAddress: alice, BlockedAddress: bob}))

	require.NoError(t, uc.DeleteAccount(ctx, domain.NewSession(alice)))

	_, err := repos.Profiles.GetByAddress(ctx, alice)
	assert.ErrorIs(t, err, domain.ErrProfileNotFound)
	bonds, err := repos.Bonds.ListByMember(ctx, bob)
	require.NoError(t, err)
	assert.Empty(t, bonds)
	messages, err := repos.Messages.ListByBond(ctx, "b1")
	require.NoError(t, err)
	assert.Empty(t, messages)
	sent, err := repos.PairRequests.ListPendingFrom(ctx, bob)
	require.NoError(t, err)
	assert.Empty(t, sent)
	blocked, err := repos.Blocks.ListBlocked(ctx, bob)
	require.NoError(t, err)
	assert.Equal(t, []string{alice}, blocked)
	own, err := repos.Blocks.ListBlocked(ctx, alice)
	require.NoError(t, err)
	assert.Empty(t, own)

	_, err = repos.Profiles.GetByAddress(ctx, bob)
	assert.NoError(t, err)

	assert.ErrorIs(t, uc.DeleteAccount(ctx, domain.NewSession(alice)), domain.ErrProfileNotFound)
}

func TestDeleteAccount_BlockSurvivesReonboarding(t *testing.T) {
	uc, store := newUseCase(reputable())
	ctx := context.Background()
	repos := store.Repositories()

	for _, addr := range []string{alice, bob} {
		_, err := uc.CompleteOnboarding(ctx, domain.NewSession(addr), &OnboardingRequest{})
		require.NoError(t, err)
	}
	require.NoError(t, repos.Blocks.Upsert(ctx, &domain.BlockRecord{ID: "k1", BlockerAddress: bob, BlockedAddress: alice}))

	require.NoError(t, uc.DeleteAccount(ctx, domain.NewSession(alice)))
	_, err := uc.CompleteOnboarding(ctx, domain.NewSession(alice), &OnboardingRequest{})
	require.NoError(t, err)

	blocked, err := repos.Blocks.Exists(ctx, bob, alice)
	require.NoError(t, err)
	assert.True(t, blocked)
}
