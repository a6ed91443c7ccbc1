package discovery

import (
	"context"
	"errors"
	"testing"

	"github.com/gdugdh24/ethospair-backend/internal/domain"
	"github.com/gdugdh24/ethospair-backend/internal/infrastructure/metrics"
	"github.com/gdugdh24/ethospair-backend/internal/repository"
	"github.com/gdugdh24/ethospair-backend/internal/repository/memory"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const (
	viewer = "0x0000000000000000000000000000000000000001"
	addrA  = "0x000000000000000000000000000000000000000a"
	addrB  = "0x000000000000000000000000000000000000000b"
	addrC  = "0x000000000000000000000000000000000000000c"
)

type stubGateway struct {
	identities map[string]*domain.Identity
	err        error
	calls      [][]string
}

func (g *stubGateway) GetIdentities(ctx context.Context, addresses []string) (map[string]*domain.Identity, error) {
	g.calls = append(g.calls, addresses)
	if g.err != nil {
		return nil, g.err
	}
	out := make(map[string]*domain.Identity)
	for _, a := range addresses {
		if id, ok := g.identities[a]; ok {
			out[a] = id
		}
	}
	return out, nil
}

type failingBlocks struct {
	repository.BlockRepository
}

func (failingBlocks) ListBlocked(context.Context, string) ([]string, error) {
	return nil, errors.New("connection reset")
}

func seed(t *testing.T, repos repository.Repositories, profiles ...*domain.Profile) {
	t.Helper()
	for _, p := range profiles {
		require.NoError(t, repos.Profiles.Upsert(context.Background(), p))
	}
}

func newUseCase(repos repository.Repositories, gw ReputationGateway) *DiscoveryUseCase {
	return NewDiscoveryUseCase(repos, gw, 2, 2800, metrics.New(prometheus.NewRegistry()), zap.NewNop())
}

func TestGetCandidates_ExcludesBlockedAndBonded(t *testing.T) {
	ctx := context.Background()
	repos := memory.NewStore().Repositories()
	seed(t, repos,
		&domain.Profile{Address: viewer},
		&domain.Profile{Address: addrA},
		&domain.Profile{Address: addrB},
		&domain.Profile{Address: addrC},
	)
	require.NoError(t, repos.Blocks.Upsert(ctx, &domain.BlockRecord{ID: "k", BlockerAddress: viewer, BlockedAddress: addrA}))
	require.NoError(t, repos.Bonds.Create(ctx, &domain.Bond{ID: "b", User1Address: addrB, User2Address: viewer}))

	uc := newUseCase(repos, nil)
	got, err := uc.GetCandidates(ctx, domain.NewSession(viewer), domain.Criteria{})
	require.NoError(t, err)
	assert.Equal(t, []string{addrC}, addresses(got))
}

func TestGetCandidates_RefreshesReputation(t *testing.T) {
	ctx := context.Background()
	repos := memory.NewStore().Repositories()
	seed(t, repos,
		&domain.Profile{Address: viewer, Reputation: domain.Reputation{Score: 1000}},
		&domain.Profile{Address: addrA, Reputation: domain.Reputation{Score: 100}},
		&domain.Profile{Address: addrB, Reputation: domain.Reputation{Score: 200}},
		&domain.Profile{Address: addrC, Reputation: domain.Reputation{Score: 300}},
	)
	gw := &stubGateway{identities: map[string]*domain.Identity{
		addrA: {Reputation: domain.Reputation{Score: 2000, TrustLevel: "exemplary"}},
		addrC: {Reputation: domain.Reputation{Score: 1500, TrustLevel: "reputable"}},
	}}

	uc := newUseCase(repos, gw)
	minScore := 1000
	got, err := uc.GetCandidates(ctx, domain.NewSession(viewer), domain.Criteria{MinReputation: &minScore})
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{addrA, addrC}, addresses(got))
	assert.Len(t, gw.calls, 2, "three candidates in batches of two")
}

func TestGetCandidates_GatewayFailureKeepsCachedValues(t *testing.T) {
	ctx := context.Background()
	repos := memory.NewStore().Repositories()
	seed(t, repos,
		&domain.Profile{Address: viewer},
		&domain.Profile{Address: addrA, Reputation: domain.Reputation{Score: 1200}},
	)
	uc := newUseCase(repos, &stubGateway{err: errors.New("503")})

	got, err := uc.GetCandidates(ctx, domain.NewSession(viewer), domain.Criteria{})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 1200, got[0].Score)
}

func TestGetCandidates_FailSafeEmpty(t *testing.T) {
	ctx := context.Background()

	t.Run("viewer without profile", func(t *testing.T) {
		repos := memory.NewStore().Repositories()
		seed(t, repos, &domain.Profile{Address: addrA})

		got, err := newUseCase(repos, nil).GetCandidates(ctx, domain.NewSession(viewer), domain.Criteria{})
		require.NoError(t, err)
		assert.NotNil(t, got)
		assert.Empty(t, got)
	})

	t.Run("block list unavailable", func(t *testing.T) {
		repos := memory.NewStore().Repositories()
		seed(t, repos, &domain.Profile{Address: viewer}, &domain.Profile{Address: addrA})
		repos.Blocks = failingBlocks{repos.Blocks}

		got, err := newUseCase(repos, nil).GetCandidates(ctx, domain.NewSession(viewer), domain.Criteria{})
		require.NoError(t, err)
		assert.Empty(t, got)
	})
}

func TestGetCandidates_RejectsBadInput(t *testing.T) {
	uc := newUseCase(memory.NewStore().Repositories(), nil)

	_, err := uc.GetCandidates(context.Background(), domain.Session{}, domain.Criteria{})
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	lo, hi := 2000, 1000
	_, err = uc.GetCandidates(context.Background(), domain.NewSession(viewer), domain.Criteria{MinReputation: &lo, MaxReputation: &hi})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
