package handlers

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/eventdesk/backend/internal/auth"
	"github.com/eventdesk/backend/internal/config"
	"github.com/eventdesk/backend/internal/events"
	"github.com/eventdesk/backend/internal/rbac"
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type wsClient struct {
	conn *websocket.Conn
	role string
	mu   sync.Mutex
}

func (c *wsClient) write(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

// WSHub relays lifecycle events from the bus to the people they concern: the creator,
// the current and previous assignee, and every connected planner.
type WSHub struct {
	cfg         *config.Config
	subscriber  events.Subscriber
	log         *zap.Logger
	mu          sync.RWMutex
	connections map[uuid.UUID][]*wsClient
}

func NewWSHub(cfg *config.Config, subscriber events.Subscriber, log *zap.Logger) *WSHub {
	return &WSHub{
		cfg:         cfg,
		subscriber:  subscriber,
		log:         log,
		connections: make(map[uuid.UUID][]*wsClient),
	}
}

func (h *WSHub) Start(ctx context.Context) error {
	return h.subscriber.Subscribe(ctx, events.ChannelEvents, h.dispatch)
}

// recipients returns the connected clients that should see event.
func (h *WSHub) recipients(event events.Event) []*wsClient {
	h.mu.RLock()
	defer h.mu.RUnlock()

	seen := map[*wsClient]bool{}
	var out []*wsClient
	add := func(c *wsClient) {
		if !seen[c] {
			seen[c] = true
			out = append(out, c)
		}
	}

	for _, raw := range event.UserIDs() {
		id, err := uuid.Parse(raw)
		if err != nil {
			continue
		}
		for _, c := range h.connections[id] {
			add(c)
		}
	}
	for _, conns := range h.connections {
		for _, c := range conns {
			if rbac.IsPlanner(c.role) {
				add(c)
			}
		}
	}
	return out
}

func (h *WSHub) dispatch(event events.Event) {
	data, err := json.Marshal(event)
	if err != nil {
		return
	}
	for _, c := range h.recipients(event) {
		if err := c.write(data); err != nil {
			h.log.Debug("ws write failed", zap.Error(err))
		}
	}
}

func (h *WSHub) register(userID uuid.UUID, c *wsClient) {
	h.mu.Lock()
	h.connections[userID] = append(h.connections[userID], c)
	h.mu.Unlock()
}

func (h *WSHub) unregister(userID uuid.UUID, c *wsClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	conns := h.connections[userID]
	for i, x := range conns {
		if x == c {
			h.connections[userID] = append(conns[:i], conns[i+1:]...)
			break
		}
	}
	if len(h.connections[userID]) == 0 {
		delete(h.connections, userID)
	}
}

// WSUpgradeMiddleware checks for websocket upgrade
func WSUpgradeMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	}
}

func (h *WSHub) HandleWS(conn *websocket.Conn) {
	tokenStr := conn.Query("token")
	if tokenStr == "" {
		_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"error":"missing token"}`))
		conn.Close()
		return
	}

	claims, err := auth.ParseJWT(h.cfg.JWTSecret, tokenStr)
	if err != nil {
		_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"error":"invalid token"}`))
		conn.Close()
		return
	}

	client := &wsClient{conn: conn, role: claims.Role}
	h.register(claims.UserID, client)
	defer func() {
		h.unregister(claims.UserID, client)
		conn.Close()
	}()

	// Read loop (keep alive / pings)
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
}
