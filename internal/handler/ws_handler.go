package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/yildiz-fatih/lazybook/internal/config"
	"github.com/yildiz-fatih/lazybook/internal/hub"
	"github.com/yildiz-fatih/lazybook/internal/service"
	"github.com/yildiz-fatih/lazybook/pkg/log"
)

// WSHandler accepts chat connections and runs their session loop. A
// connection is authenticated exactly once, at establishment; the
// credential is not re-checked for the lifetime of the session.
type WSHandler struct {
	registry *hub.Registry
	identity service.IdentityService
	chat     service.ChatService
	cfg      config.WebSocketConfig
	upgrader websocket.Upgrader
}

// NewWSHandler creates a new websocket handler.
func NewWSHandler(registry *hub.Registry, identity service.IdentityService, chat service.ChatService, cfg config.WebSocketConfig) *WSHandler {
	return &WSHandler{
		registry: registry,
		identity: identity,
		chat:     chat,
		cfg:      cfg,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Origin is enforced after the upgrade so the peer gets a
			// policy-violation close frame instead of a bare 403.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// RegisterRoutes attaches the websocket endpoint to the router.
func (h *WSHandler) RegisterRoutes(r *gin.Engine) {
	r.GET("/chatting", h.HandleChat)
}

// HandleChat runs one connection end to end: origin check, credential
// resolution, registration, then the receive loop until the transport
// drops.
func (h *WSHandler) HandleChat(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.L().Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	if origin := c.GetHeader("Origin"); origin != h.cfg.AllowedOrigin {
		h.reject(conn, "origin not allowed")
		return
	}

	user, err := h.identity.ResolveCredential(c.Request.Context(), c.Query("token"))
	if err != nil {
		log.L().Warn().Err(err).Str(log.FieldClientIP, c.ClientIP()).Msg("websocket auth failed")
		h.reject(conn, "authentication failed")
		return
	}

	client := hub.NewClient(user.ID, user.Username, conn, h.cfg)
	h.registry.Register(client)

	logger := log.L().With().
		Str(log.FieldConnID, client.ID()).
		Uint(log.FieldUserID, user.ID).
		Logger()
	ctx := log.WithLogger(context.Background(), logger)

	go client.WritePump()

	client.ReadPump(func(c *hub.Client, raw []byte) {
		h.chat.HandleFrame(ctx, c, raw)
	})

	// Transport is gone; this is the only path that removes a
	// still-registered connection outside of a failed fan-out push.
	h.registry.Unregister(client)
	logger.Debug().Msg("chat session closed")
}

// reject closes a never-registered connection with a policy-violation
// close frame.
func (h *WSHandler) reject(conn *websocket.Conn, reason string) {
	deadline := time.Now().Add(h.cfg.WriteWait)
	conn.WriteControl(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.ClosePolicyViolation, reason),
		deadline,
	)
	conn.Close()
}
