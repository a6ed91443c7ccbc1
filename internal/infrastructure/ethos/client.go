// Package ethos is the client for the Ethos identity and reputation API.
package ethos

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gdugdh24/ethospair-backend/internal/domain"
	"github.com/gdugdh24/ethospair-backend/internal/infrastructure/metrics"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

const (
	DefaultBaseURL   = "https://api.ethos.network/api/v2"
	DefaultBulkLimit = 500

	avatarFallbackURL = "https://api.dicebear.com/7.x/avataaars/svg?seed="
)

var ErrUserNotFound = errors.New("user not found on ethos network")

type Config struct {
	BaseURL   string
	Timeout   time.Duration
	CacheTTL  time.Duration
	BulkLimit int
	// Metrics counts fallback lookups. May be nil.
	Metrics *metrics.Metrics
}

type Client struct {
	baseURL    string
	httpClient *http.Client
	cache      Cache
	cacheTTL   time.Duration
	bulkLimit  int
	group      singleflight.Group
	metrics    *metrics.Metrics
	log        *zap.Logger
}

// NewClient builds a gateway client. cache may be nil.
func NewClient(cfg Config, cache Cache, log *zap.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.BulkLimit <= 0 {
		cfg.BulkLimit = DefaultBulkLimit
	}
	if cache == nil {
		cache = noopCache{}
	}
	if log == nil {
		log = zap.NewNop()
	}

	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{Timeout: cfg.Timeout},
		cache:      cache,
		cacheTTL:   cfg.CacheTTL,
		bulkLimit:  cfg.BulkLimit,
		metrics:    cfg.Metrics,
		log:        log,
	}
}

type userResponse struct {
	Address     string `json:"address"`
	AvatarURL   string `json:"avatarUrl"`
	DisplayName string `json:"displayName"`
	Username    string `json:"username"`
	Description string `json:"description"`
	Stats       struct {
		ReviewsReceived int `json:"reviewsReceived"`
		ReviewsGiven    int `json:"reviewsGiven"`
		VouchesReceived int `json:"vouchesReceived"`
		VouchesGiven    int `json:"vouchesGiven"`
	} `json:"stats"`
	XPTotal int `json:"xpTotal"`
}

type scoreResponse struct {
	Score int     `json:"score"`
	Level string  `json:"level"`
	Color *string `json:"color"`
}

type bulkRequest struct {
	Addresses []string `json:"addresses"`
}

// VerifyAddress is a syntactic check only; it does not contact the network.
func (c *Client) VerifyAddress(address string) bool {
	return domain.IsValidAddress(address)
}

// GetIdentity resolves one address. It returns ErrUserNotFound when the
// network has no user for it; a missing score is treated as zero.
func (c *Client) GetIdentity(ctx context.Context, address string) (*domain.Identity, error) {
	address = domain.NormalizeAddress(address)
	if !domain.IsValidAddress(address) {
		return nil, domain.ErrInvalidAddress
	}

	if cached, ok := c.cached(ctx, address); ok {
		return cached, nil
	}

	v, err, _ := c.group.Do(address, func() (interface{}, error) {
		return c.fetchIdentity(ctx, address)
	})
	if err != nil {
		return nil, err
	}
	identity := v.(*domain.Identity)
	c.store(ctx, identity)

	out := *identity
	return &out, nil
}

// IdentityOrFallback never fails: any lookup problem yields the zero-valued
// fallback identity.
func (c *Client) IdentityOrFallback(ctx context.Context, address string) *domain.Identity {
	identity, err := c.GetIdentity(ctx, address)
	if err != nil {
		c.log.Warn("ethos profile lookup failed, using fallback",
			zap.String("address", address),
			zap.Error(err),
		)
		c.metrics.GatewayFallback("identity")
		return Fallback(address)
	}
	return identity
}

// GetIdentities resolves up to the bulk limit of addresses; extra addresses
// are dropped. Addresses the network does not know are absent from the
// result.
func (c *Client) GetIdentities(ctx context.Context, addresses []string) (map[string]*domain.Identity, error) {
	if len(addresses) > c.bulkLimit {
		addresses = addresses[:c.bulkLimit]
	}

	result := make(map[string]*domain.Identity, len(addresses))
	misses := make([]string, 0, len(addresses))
	for _, addr := range addresses {
		addr = domain.NormalizeAddress(addr)
		if cached, ok := c.cached(ctx, addr); ok {
			result[addr] = cached
			continue
		}
		misses = append(misses, addr)
	}
	if len(misses) == 0 {
		return result, nil
	}

	var (
		users  []userResponse
		scores map[string]scoreResponse
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return c.post(gctx, "/users/by/address", bulkRequest{Addresses: misses}, &users)
	})
	g.Go(func() error {
		return c.post(gctx, "/score/addresses", bulkRequest{Addresses: misses}, &scores)
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	byAddress := make(map[string]userResponse, len(users))
	for _, u := range users {
		byAddress[domain.NormalizeAddress(u.Address)] = u
	}
	scoresByAddress := make(map[string]scoreResponse, len(scores))
	for addr, s := range scores {
		scoresByAddress[domain.NormalizeAddress(addr)] = s
	}

	for _, addr := range misses {
		user, ok := byAddress[addr]
		if !ok {
			continue
		}
		var score *scoreResponse
		if s, ok := scoresByAddress[addr]; ok {
			score = &s
		}
		identity := toIdentity(addr, &user, score)
		c.store(ctx, identity)
		result[addr] = identity
	}
	return result, nil
}

// Fallback is the identity used when the network cannot be reached or does
// not know the address.
func Fallback(address string) *domain.Identity {
	address = domain.NormalizeAddress(address)
	return &domain.Identity{
		Address:   address,
		AvatarURL: avatarFallbackURL + address,
		Reputation: domain.Reputation{
			TrustLevel: domain.DefaultTrustLevel,
		},
	}
}

func (c *Client) fetchIdentity(ctx context.Context, address string) (*domain.Identity, error) {
	var (
		user  userResponse
		score *scoreResponse
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return c.get(gctx, "/user/by/address/"+url.PathEscape(address), &user)
	})
	g.Go(func() error {
		var s scoreResponse
		err := c.get(gctx, "/score/address?address="+url.QueryEscape(address), &s)
		if errors.Is(err, ErrUserNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		score = &s
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return toIdentity(address, &user, score), nil
}

func toIdentity(address string, user *userResponse, score *scoreResponse) *domain.Identity {
	identity := Fallback(address)
	if user.AvatarURL != "" {
		identity.AvatarURL = user.AvatarURL
	}
	identity.DisplayName = user.DisplayName
	identity.Username = user.Username
	identity.Description = user.Description
	identity.Stats = domain.Stats{
		ReviewsReceived: user.Stats.ReviewsReceived,
		ReviewsGiven:    user.Stats.ReviewsGiven,
		VouchesReceived: user.Stats.VouchesReceived,
		VouchesGiven:    user.Stats.VouchesGiven,
	}
	identity.XPTotal = user.XPTotal

	if score != nil {
		identity.Score = score.Score
		if score.Level != "" {
			identity.TrustLevel = score.Level
		}
		identity.TrustLevelColor = score.Color
	}
	return identity
}

func (c *Client) get(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *Client) post(ctx context.Context, path string, body, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out interface{}) error {
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("ethos request %s: %w", req.URL.Path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return ErrUserNotFound
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("ethos api error: %d %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode ethos response: %w", err)
	}
	return nil
}

func (c *Client) cached(ctx context.Context, address string) (*domain.Identity, bool) {
	raw, err := c.cache.Get(ctx, address)
	if err != nil {
		if !errors.Is(err, errCacheMiss) {
			c.log.Warn("ethos cache read failed", zap.String("address", address), zap.Error(err))
		}
		return nil, false
	}

	var identity domain.Identity
	if err := json.Unmarshal(raw, &identity); err != nil {
		return nil, false
	}
	return &identity, true
}

func (c *Client) store(ctx context.Context, identity *domain.Identity) {
	if c.cacheTTL <= 0 {
		return
	}
	raw, err := json.Marshal(identity)
	if err != nil {
		return
	}
	if err := c.cache.Set(ctx, identity.Address, raw, c.cacheTTL); err != nil {
		c.log.Warn("ethos cache write failed", zap.String("address", identity.Address), zap.Error(err))
	}
}
