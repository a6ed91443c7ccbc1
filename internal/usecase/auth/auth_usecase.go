package auth

import (
	"context"
	"errors"
	"time"

	"github.com/gdugdh24/ethospair-backend/internal/domain"
	"github.com/gdugdh24/ethospair-backend/internal/repository"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

// AddressVerifier decides whether a wallet address may sign in.
type AddressVerifier interface {
	VerifyAddress(address string) bool
}

type AuthUseCase struct {
	profileRepo repository.ProfileRepository
	verifier    AddressVerifier
	jwtSecret   []byte
	tokenTTL    time.Duration
	log         *zap.Logger
	now         func() time.Time
}

func NewAuthUseCase(
	profileRepo repository.ProfileRepository,
	verifier AddressVerifier,
	jwtSecret string,
	tokenTTL time.Duration,
	log *zap.Logger,
) *AuthUseCase {
	return &AuthUseCase{
		profileRepo: profileRepo,
		verifier:    verifier,
		jwtSecret:   []byte(jwtSecret),
		tokenTTL:    tokenTTL,
		log:         log,
		now:         time.Now,
	}
}

// LoginRequest carries the wallet address the client connected with.
type LoginRequest struct {
	Address string `json:"address" binding:"required"`
}

// AuthResponse represents the authentication response
type AuthResponse struct {
	Token           string          `json:"token"`
	ExpiresAt       time.Time       `json:"expires_at"`
	Address         string          `json:"address"`
	ChecksumAddress string          `json:"checksum_address"`
	IsNewUser       bool            `json:"is_new_user"`
	Profile         *domain.Profile `json:"profile,omitempty"`
}

type sessionClaims struct {
	Address string `json:"address"`
	jwt.RegisteredClaims
}

// Login signs a wallet address in. An address without a stored profile still
// gets a session so it can complete onboarding; IsNewUser tells the client.
func (uc *AuthUseCase) Login(ctx context.Context, address string) (*AuthResponse, error) {
	if !uc.verifier.VerifyAddress(address) {
		return nil, domain.ErrInvalidAddress
	}
	session := domain.NewSession(address)

	profile, err := uc.profileRepo.GetByAddress(ctx, session.Address)
	isNewUser := false
	if errors.Is(err, domain.ErrProfileNotFound) {
		isNewUser = true
		profile = nil
	} else if err != nil {
		uc.log.Error("login profile lookup failed", zap.String("address", session.Address), zap.Error(err))
		return nil, domain.ErrOperationFailed
	}

	token, expiresAt, err := uc.IssueToken(session)
	if err != nil {
		uc.log.Error("failed to sign session token", zap.String("address", session.Address), zap.Error(err))
		return nil, domain.ErrOperationFailed
	}

	return &AuthResponse{
		Token:           token,
		ExpiresAt:       expiresAt,
		Address:         session.Address,
		ChecksumAddress: domain.ChecksumAddress(session.Address),
		IsNewUser:       isNewUser,
		Profile:         profile,
	}, nil
}

// IssueToken returns a signed HS256 token carrying the session address.
func (uc *AuthUseCase) IssueToken(session domain.Session) (string, time.Time, error) {
	now := uc.now()
	expiresAt := now.Add(uc.tokenTTL)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, sessionClaims{
		Address: session.Address,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   session.Address,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	})

	signed, err := token.SignedString(uc.jwtSecret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// VerifyToken verifies JWT token and returns the session it carries
func (uc *AuthUseCase) VerifyToken(ctx context.Context, tokenString string) (domain.Session, error) {
	claims := &sessionClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return uc.jwtSecret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(uc.now),
	)
	if err != nil || !token.Valid {
		return domain.Session{}, domain.ErrInvalidToken
	}

	session := domain.NewSession(claims.Address)
	if !session.Valid() {
		return domain.Session{}, domain.ErrInvalidToken
	}
	return session, nil
}
