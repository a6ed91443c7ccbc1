package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gdugdh24/ethospair-backend/internal/domain"
	"github.com/gdugdh24/ethospair-backend/internal/infrastructure/realtime"
	"github.com/gdugdh24/ethospair-backend/internal/usecase/chat"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	wsWriteWait  = 10 * time.Second
	wsPongWait   = 60 * time.Second
	wsPingPeriod = wsPongWait * 9 / 10
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Subscriber opens a live feed for one realtime channel.
type Subscriber interface {
	Subscribe(ctx context.Context, channel string) (*realtime.Subscription, error)
}

type ChatHandler struct {
	chatUseCase *chat.ChatUseCase
	subscriber  Subscriber
	log         *zap.Logger
}

func NewChatHandler(chatUseCase *chat.ChatUseCase, subscriber Subscriber, log *zap.Logger) *ChatHandler {
	return &ChatHandler{
		chatUseCase: chatUseCase,
		subscriber:  subscriber,
		log:         log,
	}
}

// MarkReadResponse reports how many messages were flagged
type MarkReadResponse struct {
	Updated int64 `json:"updated"`
}

// ListMessages handles GET /bonds/:id/messages
// @Summary Bond messages
// @Description Oldest first; pass after (RFC 3339) to fetch only newer messages
// @Tags chat
// @Security BearerAuth
// @Produce json
// @Param id path string true "Bond ID"
// @Param after query string false "Cursor"
// @Success 200 {array} domain.Message
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /bonds/{id}/messages [get]
func (h *ChatHandler) ListMessages(c *gin.Context) {
	s, ok := session(c)
	if !ok {
		return
	}

	after, err := parseCursor(c.Query("after"))
	if err != nil {
		badRequest(c, "invalid cursor")
		return
	}

	messages, err := h.chatUseCase.Resync(c.Request.Context(), s, c.Param("id"), after)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, messages)
}

// SendMessage handles POST /bonds/:id/messages
// @Summary Send message
// @Tags chat
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "Bond ID"
// @Param request body chat.SendMessageRequest true "Message"
// @Success 201 {object} domain.Message
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /bonds/{id}/messages [post]
func (h *ChatHandler) SendMessage(c *gin.Context) {
	s, ok := session(c)
	if !ok {
		return
	}

	var req chat.SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	message, err := h.chatUseCase.Send(c.Request.Context(), s, c.Param("id"), req.Message)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, message)
}

// MarkRead handles POST /bonds/:id/read
// @Summary Mark bond messages read
// @Tags chat
// @Security BearerAuth
// @Produce json
// @Param id path string true "Bond ID"
// @Success 200 {object} MarkReadResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /bonds/{id}/read [post]
func (h *ChatHandler) MarkRead(c *gin.Context) {
	s, ok := session(c)
	if !ok {
		return
	}

	n, err := h.chatUseCase.MarkRead(c.Request.Context(), s, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, MarkReadResponse{Updated: n})
}

// UnreadCount handles GET /messages/unread
// @Summary Unread counts
// @Tags chat
// @Security BearerAuth
// @Produce json
// @Success 200 {object} chat.UnreadResponse
// @Router /messages/unread [get]
func (h *ChatHandler) UnreadCount(c *gin.Context) {
	s, ok := session(c)
	if !ok {
		return
	}

	unread, err := h.chatUseCase.UnreadCount(c.Request.Context(), s)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, unread)
}

// Stream handles GET /bonds/:id/ws
// @Summary Live bond messages
// @Description Websocket. Sends every message newer than after, then streams new ones.
// @Tags chat
// @Security BearerAuth
// @Param id path string true "Bond ID"
// @Param after query string false "Cursor"
// @Router /bonds/{id}/ws [get]
func (h *ChatHandler) Stream(c *gin.Context) {
	s, ok := session(c)
	if !ok {
		return
	}
	after, err := parseCursor(c.Query("after"))
	if err != nil {
		badRequest(c, "invalid cursor")
		return
	}

	ctx := c.Request.Context()
	bond, err := h.chatUseCase.Bond(ctx, s, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	log := h.log.With(zap.String("bond_id", bond.ID), zap.String("address", s.Address))

	// Subscribe before the resync so nothing published in between is lost.
	sub, err := h.subscriber.Subscribe(ctx, realtime.BondChannel(bond.ID))
	if err != nil {
		log.Error("subscribe failed", zap.Error(err))
		respondError(c, domain.ErrOperationFailed)
		return
	}
	defer sub.Close()

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	backlog, err := h.chatUseCase.Resync(ctx, s, bond.ID, after)
	if err != nil {
		log.Warn("resync failed", zap.Error(err))
		return
	}

	seen := make(map[string]struct{}, len(backlog))
	for _, m := range chat.Merge(nil, backlog) {
		seen[m.ID] = struct{}{}
		if err := writeJSON(conn, m); err != nil {
			return
		}
	}

	pump(ctx, conn, sub, seen, log)
}

// UserStream handles GET /messages/ws
// @Summary Live inbox
// @Description Websocket. Streams every new message addressed to the caller, across all bonds.
// @Tags chat
// @Security BearerAuth
// @Router /messages/ws [get]
func (h *ChatHandler) UserStream(c *gin.Context) {
	s, ok := session(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	log := h.log.With(zap.String("address", s.Address))

	sub, err := h.subscriber.Subscribe(ctx, realtime.UserChannel(s.Address))
	if err != nil {
		log.Error("subscribe failed", zap.Error(err))
		respondError(c, domain.ErrOperationFailed)
		return
	}
	defer sub.Close()

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	pump(ctx, conn, sub, make(map[string]struct{}), log)
}

// pump forwards subscription messages to conn until either side goes away.
// IDs already in seen are skipped.
func pump(ctx context.Context, conn *websocket.Conn, sub *realtime.Subscription, seen map[string]struct{}, log *zap.Logger) {
	closed := make(chan struct{})
	go readUntilClosed(conn, closed)

	ping := time.NewTicker(wsPingPeriod)
	defer ping.Stop()

	for {
		select {
		case m, ok := <-sub.C:
			if !ok {
				return
			}
			if _, dup := seen[m.ID]; dup {
				continue
			}
			seen[m.ID] = struct{}{}
			if err := writeJSON(conn, m); err != nil {
				log.Debug("websocket write failed", zap.Error(err))
				return
			}
		case <-ping.C:
			conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-closed:
			return
		case <-ctx.Done():
			return
		}
	}
}

func writeJSON(conn *websocket.Conn, v interface{}) error {
	conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
	return conn.WriteJSON(v)
}

// readUntilClosed drains client frames so pongs and close frames are
// processed. It closes done when the connection goes away.
func readUntilClosed(conn *websocket.Conn, done chan<- struct{}) {
	defer close(done)
	conn.SetReadDeadline(time.Now().Add(wsPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func parseCursor(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.RFC3339Nano, raw)
}
