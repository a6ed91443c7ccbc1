package auth

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/gdugdh24/ethospair-backend/internal/domain"
	"github.com/gdugdh24/ethospair-backend/internal/infrastructure/ethos"
	"github.com/gdugdh24/ethospair-backend/internal/repository/memory"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const (
	secret  = "0123456789abcdef0123456789abcdef"
	address = "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed"
)

type denyAll struct{}

func (denyAll) VerifyAddress(string) bool { return false }

func newUseCase(t *testing.T) (*AuthUseCase, *memory.Store) {
	t.Helper()
	store := memory.NewStore()
	gateway := ethos.NewClient(ethos.Config{}, nil, nil)
	return NewAuthUseCase(store.Repositories().Profiles, gateway, secret, time.Hour, zap.NewNop()), store
}

func TestLogin_NewUser(t *testing.T) {
	uc, _ := newUseCase(t)

	resp, err := uc.Login(context.Background(), address)
	require.NoError(t, err)
	assert.True(t, resp.IsNewUser)
	assert.Nil(t, resp.Profile)
	assert.Equal(t, strings.ToLower(address), resp.Address)
	assert.Equal(t, address, resp.ChecksumAddress)

	session, err := uc.VerifyToken(context.Background(), resp.Token)
	require.NoError(t, err)
	assert.Equal(t, strings.ToLower(address), session.Address)
}

func TestLogin_ExistingUser(t *testing.T) {
	uc, store := newUseCase(t)
	ctx := context.Background()
	require.NoError(t, store.Repositories().Profiles.Upsert(ctx, &domain.Profile{Address: address, DisplayName: "Vitalik"}))

	resp, err := uc.Login(ctx, address)
	require.NoError(t, err)
	assert.False(t, resp.IsNewUser)
	require.NotNil(t, resp.Profile)
	assert.Equal(t, "Vitalik", resp.Profile.DisplayName)
}

func TestLogin_InvalidAddress(t *testing.T) {
	uc, _ := newUseCase(t)

	for _, addr := range []string{"", "0x123", "5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed00", "0xZZAeb6053F3E94C9b9A09f33669435E7Ef1BeAed"} {
		_, err := uc.Login(context.Background(), addr)
		assert.ErrorIs(t, err, domain.ErrInvalidAddress, addr)
	}
}

func TestLogin_AsksVerifier(t *testing.T) {
	store := memory.NewStore()
	uc := NewAuthUseCase(store.Repositories().Profiles, denyAll{}, secret, time.Hour, zap.NewNop())

	_, err := uc.Login(context.Background(), address)
	assert.ErrorIs(t, err, domain.ErrInvalidAddress)
}

func TestVerifyToken_Rejects(t *testing.T) {
	uc, _ := newUseCase(t)
	ctx := context.Background()

	t.Run("garbage", func(t *testing.T) {
		_, err := uc.VerifyToken(ctx, "not-a-token")
		assert.ErrorIs(t, err, domain.ErrInvalidToken)
	})

	t.Run("wrong secret", func(t *testing.T) {
		other := NewAuthUseCase(nil, denyAll{}, strings.Repeat("x", 32), time.Hour, zap.NewNop())
		token, _, err := other.IssueToken(domain.NewSession(address))
		require.NoError(t, err)

		_, err = uc.VerifyToken(ctx, token)
		assert.ErrorIs(t, err, domain.ErrInvalidToken)
	})

	t.Run("expired", func(t *testing.T) {
		token, _, err := uc.IssueToken(domain.NewSession(address))
		require.NoError(t, err)

		uc.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
		defer func() { uc.now = time.Now }()

		_, err = uc.VerifyToken(ctx, token)
		assert.ErrorIs(t, err, domain.ErrInvalidToken)
	})

	t.Run("none algorithm", func(t *testing.T) {
		token := jwt.NewWithClaims(jwt.SigningMethodNone, sessionClaims{Address: address})
		signed, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)

		_, err = uc.VerifyToken(ctx, signed)
		assert.ErrorIs(t, err, domain.ErrInvalidToken)
	})

	t.Run("invalid address claim", func(t *testing.T) {
		token, _, err := uc.IssueToken(domain.Session{Address: "0xnope"})
		require.NoError(t, err)

		_, err = uc.VerifyToken(ctx, token)
		assert.ErrorIs(t, err, domain.ErrInvalidToken)
	})
}
