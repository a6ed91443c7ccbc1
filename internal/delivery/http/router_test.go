package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gdugdh24/ethospair-backend/internal/delivery/http/handler"
	"github.com/gdugdh24/ethospair-backend/internal/delivery/http/middleware"
	"github.com/gdugdh24/ethospair-backend/internal/domain"
	"github.com/gdugdh24/ethospair-backend/internal/infrastructure/ethos"
	"github.com/gdugdh24/ethospair-backend/internal/infrastructure/metrics"
	"github.com/gdugdh24/ethospair-backend/internal/infrastructure/realtime"
	"github.com/gdugdh24/ethospair-backend/internal/repository/memory"
	"github.com/gdugdh24/ethospair-backend/internal/usecase/auth"
	"github.com/gdugdh24/ethospair-backend/internal/usecase/bonding"
	"github.com/gdugdh24/ethospair-backend/internal/usecase/chat"
	"github.com/gdugdh24/ethospair-backend/internal/usecase/discovery"
	"github.com/gdugdh24/ethospair-backend/internal/usecase/profile"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const (
	alice = "0x00000000000000000000000000000000000000a1"
	bob   = "0x00000000000000000000000000000000000000b0"
)

type offlineGateway struct{}

func (offlineGateway) VerifyAddress(address string) bool {
	return domain.IsValidAddress(address)
}

func (offlineGateway) GetIdentity(ctx context.Context, address string) (*domain.Identity, error) {
	return nil, ethos.ErrUserNotFound
}

func (offlineGateway) IdentityOrFallback(ctx context.Context, address string) *domain.Identity {
	return ethos.Fallback(address)
}

func (offlineGateway) GetIdentities(ctx context.Context, addresses []string) (map[string]*domain.Identity, error) {
	return map[string]*domain.Identity{}, nil
}

func newTestEngine(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	log := zap.NewNop()
	store := memory.NewStore()
	repos := store.Repositories()
	registry := prometheus.NewRegistry()
	m := metrics.New(registry)
	broker := realtime.NewLocalBroker(log)
	gateway := offlineGateway{}

	authUseCase := auth.NewAuthUseCase(repos.Profiles, gateway, strings.Repeat("s", 32), time.Hour, log)
	profileUseCase := profile.NewProfileUseCase(repos.Profiles, store, gateway, m, log)
	discoveryUseCase := discovery.NewDiscoveryUseCase(repos, gateway, 50, 2800, m, log)
	bondingUseCase := bonding.NewBondingUseCase(repos, store, nil, m, log)
	chatUseCase := chat.NewChatUseCase(repos, broker, 0, m, log)

	return NewRouter(
		handler.NewAuthHandler(authUseCase),
		handler.NewProfileHandler(profileUseCase),
		handler.NewDiscoveryHandler(discoveryUseCase, 0),
		handler.NewBondingHandler(bondingUseCase),
		handler.NewChatHandler(chatUseCase, broker, log),
		middleware.NewAuthMiddleware(authUseCase),
		registry,
		log,
	).Setup()
}

type client struct {
	t      *testing.T
	engine http.Handler
	token  string
}

func (c *client) do(method, path string, body interface{}) *httptest.ResponseRecorder {
	c.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(c.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	w := httptest.NewRecorder()
	c.engine.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), out), w.Body.String())
}

// signIn logs the address in and completes onboarding.
func signIn(t *testing.T, engine http.Handler, address string, onboarding map[string]interface{}) *client {
	t.Helper()
	c := &client{t: t, engine: engine}

	w := c.do(http.MethodPost, "/api/v1/auth/login", map[string]string{"address": address})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var login auth.AuthResponse
	decode(t, w, &login)
	assert.True(t, login.IsNewUser)
	c.token = login.Token

	w = c.do(http.MethodPost, "/api/v1/profile/complete-onboarding", onboarding)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return c
}

func TestRouter_Health(t *testing.T) {
	engine := newTestEngine(t)
	c := &client{t: t, engine: engine}

	assert.Equal(t, http.StatusOK, c.do(http.MethodGet, "/health", nil).Code)
	assert.Equal(t, http.StatusOK, c.do(http.MethodGet, "/metrics", nil).Code)
}

func TestRouter_RequiresAuth(t *testing.T) {
	engine := newTestEngine(t)
	c := &client{t: t, engine: engine}

	assert.Equal(t, http.StatusUnauthorized, c.do(http.MethodGet, "/api/v1/bonds", nil).Code)

	c.token = "garbage"
	assert.Equal(t, http.StatusUnauthorized, c.do(http.MethodGet, "/api/v1/profile/me", nil).Code)
}

func TestRouter_LoginRejectsBadAddress(t *testing.T) {
	engine := newTestEngine(t)
	c := &client{t: t, engine: engine}

	w := c.do(http.MethodPost, "/api/v1/auth/login", map[string]string{"address": "0xnope"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRouter_BondingFlow(t *testing.T) {
	engine := newTestEngine(t)
	a := signIn(t, engine, alice, map[string]interface{}{
		"display_name": "Alice",
		"interests":    []string{"Hiking", "chess"},
		"location":     "Lisbon, Portugal",
	})
	b := signIn(t, engine, bob, map[string]interface{}{
		"display_name": "Bob",
		"interests":    []string{"hiking"},
		"location":     "Porto, Portugal",
	})

	// Onboarding is one-time.
	w := a.do(http.MethodPost, "/api/v1/profile/complete-onboarding", map[string]interface{}{})
	assert.Equal(t, http.StatusConflict, w.Code)

	// Discovery
	w = a.do(http.MethodGet, "/api/v1/discovery/candidates?location=portugal&interests=HIKING", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var deck handler.CandidatesResponse
	decode(t, w, &deck)
	require.Len(t, deck.Candidates, 1)
	assert.Equal(t, bob, deck.Candidates[0].Address)
	assert.Equal(t, 15, deck.DecisionWindowSeconds)

	w = a.do(http.MethodGet, "/api/v1/discovery/candidates?min_reputation=10&max_reputation=5", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Request and accept
	w = a.do(http.MethodPost, "/api/v1/bonds/requests", map[string]string{"to_address": bob})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var request domain.PairRequest
	decode(t, w, &request)

	w = a.do(http.MethodPost, "/api/v1/bonds/requests/"+request.ID+"/accept", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = b.do(http.MethodGet, "/api/v1/bonds", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var overview domain.Overview
	decode(t, w, &overview)
	require.Len(t, overview.ReceivedRequests, 1)
	assert.Equal(t, alice, overview.ReceivedRequests[0].FromProfile.Address)

	w = b.do(http.MethodPost, "/api/v1/bonds/requests/"+request.ID+"/accept", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var bond domain.Bond
	decode(t, w, &bond)

	w = b.do(http.MethodPost, "/api/v1/bonds/requests/"+request.ID+"/accept", nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	// Bonded profiles leave each other's deck.
	w = a.do(http.MethodGet, "/api/v1/discovery/candidates", nil)
	decode(t, w, &deck)
	assert.Empty(t, deck.Candidates)

	// Chat
	w = a.do(http.MethodPost, "/api/v1/bonds/"+bond.ID+"/messages", map[string]string{"message": "hi bob"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = a.do(http.MethodPost, "/api/v1/bonds/"+bond.ID+"/messages", map[string]string{"message": "   "})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = b.do(http.MethodGet, "/api/v1/messages/unread", nil)
	var unread chat.UnreadResponse
	decode(t, w, &unread)
	assert.Equal(t, 1, unread.Total)

	w = b.do(http.MethodPost, "/api/v1/bonds/"+bond.ID+"/read", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = b.do(http.MethodGet, "/api/v1/bonds/"+bond.ID+"/messages", nil)
	var messages []domain.Message
	decode(t, w, &messages)
	require.Len(t, messages, 1)
	assert.True(t, messages[0].IsRead)

	// Block removes the bond.
	w = b.do(http.MethodPost, "/api/v1/blocks", map[string]string{"address": alice})
	require.Equal(t, http.StatusOK, w.Code)

	w = a.do(http.MethodGet, "/api/v1/bonds/"+bond.ID+"/messages", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = a.do(http.MethodPost, "/api/v1/bonds/requests", map[string]string{"to_address": bob})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = b.do(http.MethodGet, "/api/v1/blocks", nil)
	var blocked handler.BlockedResponse
	decode(t, w, &blocked)
	assert.Equal(t, []string{alice}, blocked.Blocked)

	assert.NotContains(t, candidateAddresses(t, b), alice)

	// Unblock, then block again.
	w = b.do(http.MethodDelete, "/api/v1/blocks/"+alice, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, candidateAddresses(t, b), alice)

	for i := 0; i < 2; i++ {
		w = b.do(http.MethodPost, "/api/v1/blocks", map[string]string{"address": alice})
		require.Equal(t, http.StatusOK, w.Code)
	}
	assert.NotContains(t, candidateAddresses(t, b), alice)

	w = b.do(http.MethodGet, "/api/v1/blocks", nil)
	decode(t, w, &blocked)
	assert.Equal(t, []string{alice}, blocked.Blocked)
}

func candidateAddresses(t *testing.T, c *client) []string {
	t.Helper()
	w := c.do(http.MethodGet, "/api/v1/discovery/candidates", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var deck handler.CandidatesResponse
	decode(t, w, &deck)
	addresses := make([]string, 0, len(deck.Candidates))
	for _, p := range deck.Candidates {
		addresses = append(addresses, p.Address)
	}
	return addresses
}

func TestRouter_DeleteAccount(t *testing.T) {
	engine := newTestEngine(t)
	a := signIn(t, engine, alice, map[string]interface{}{})
	b := signIn(t, engine, bob, map[string]interface{}{})

	w := a.do(http.MethodPost, "/api/v1/bonds/requests", map[string]string{"to_address": bob})
	require.Equal(t, http.StatusCreated, w.Code)

	w = a.do(http.MethodDelete, "/api/v1/profile/me", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = a.do(http.MethodGet, "/api/v1/profile/me", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = b.do(http.MethodGet, "/api/v1/bonds", nil)
	var overview domain.Overview
	decode(t, w, &overview)
	assert.Empty(t, overview.ReceivedRequests)
}

func TestRouter_BlockOutlivesBlockedAccount(t *testing.T) {
	engine := newTestEngine(t)
	a := signIn(t, engine, alice, map[string]interface{}{})
	b := signIn(t, engine, bob, map[string]interface{}{})

	w := b.do(http.MethodPost, "/api/v1/blocks", map[string]string{"address": alice})
	require.Equal(t, http.StatusOK, w.Code)

	w = a.do(http.MethodDelete, "/api/v1/profile/me", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	signIn(t, engine, alice, map[string]interface{}{})

	w = b.do(http.MethodGet, "/api/v1/blocks", nil)
	var blocked handler.BlockedResponse
	decode(t, w, &blocked)
	assert.Equal(t, []string{alice}, blocked.Blocked)
	assert.NotContains(t, candidateAddresses(t, b), alice)
}

func TestRouter_WebsocketResyncThenStream(t *testing.T) {
	engine := newTestEngine(t)
	a := signIn(t, engine, alice, map[string]interface{}{})
	b := signIn(t, engine, bob, map[string]interface{}{})

	w := a.do(http.MethodPost, "/api/v1/bonds/requests", map[string]string{"to_address": bob})
	var request domain.PairRequest
	decode(t, w, &request)
	w = b.do(http.MethodPost, "/api/v1/bonds/requests/"+request.ID+"/accept", nil)
	var bond domain.Bond
	decode(t, w, &bond)

	w = a.do(http.MethodPost, "/api/v1/bonds/"+bond.ID+"/messages", map[string]string{"message": "before connect"})
	require.Equal(t, http.StatusCreated, w.Code)

	srv := httptest.NewServer(engine)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/v1/bonds/" + bond.ID + "/ws?token=" + b.token
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))

	var got domain.Message
	require.NoError(t, conn.ReadJSON(&got))
	assert.Equal(t, "before connect", got.Body)

	w = a.do(http.MethodPost, "/api/v1/bonds/"+bond.ID+"/messages", map[string]string{"message": "live"})
	require.Equal(t, http.StatusCreated, w.Code)

	require.NoError(t, conn.ReadJSON(&got))
	assert.Equal(t, "live", got.Body)
	assert.Equal(t, bob, got.ReceiverAddress)
}

func TestRouter_UserWebsocketStreamsInbox(t *testing.T) {
	engine := newTestEngine(t)
	a := signIn(t, engine, alice, map[string]interface{}{})
	b := signIn(t, engine, bob, map[string]interface{}{})

	w := a.do(http.MethodPost, "/api/v1/bonds/requests", map[string]string{"to_address": bob})
	var request domain.PairRequest
	decode(t, w, &request)
	w = b.do(http.MethodPost, "/api/v1/bonds/requests/"+request.ID+"/accept", nil)
	var bond domain.Bond
	decode(t, w, &bond)

	srv := httptest.NewServer(engine)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/v1/messages/ws?token=" + b.token
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))

	// Bob's own messages are not addressed to him.
	w = b.do(http.MethodPost, "/api/v1/bonds/"+bond.ID+"/messages", map[string]string{"message": "from bob"})
	require.Equal(t, http.StatusCreated, w.Code)
	w = a.do(http.MethodPost, "/api/v1/bonds/"+bond.ID+"/messages", map[string]string{"message": "ping bob"})
	require.Equal(t, http.StatusCreated, w.Code)

	var got domain.Message
	require.NoError(t, conn.ReadJSON(&got))
	assert.Equal(t, "ping bob", got.Body)
	assert.Equal(t, bond.ID, got.BondID)
	assert.Equal(t, bob, got.ReceiverAddress)
}

func TestRouter_UserWebsocketRequiresAuth(t *testing.T) {
	engine := newTestEngine(t)
	c := &client{t: t, engine: engine}

	assert.Equal(t, http.StatusUnauthorized, c.do(http.MethodGet, "/api/v1/messages/ws", nil).Code)
}

func TestRouter_WebsocketRejectsOutsider(t *testing.T) {
	engine := newTestEngine(t)
	a := signIn(t, engine, alice, map[string]interface{}{})

	w := a.do(http.MethodGet, "/api/v1/bonds/missing/ws", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
