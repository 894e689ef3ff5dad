package websocket

import (
	"context"
	"log"
	"net/http"
	"sync"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Hub fans group session updates out to connected clients. Connections are
// keyed by group; one Redis pub/sub subscription is held per group with at
// least one open connection.
type Hub struct {
	mu          sync.RWMutex
	connections map[uuid.UUID][]*websocket.Conn
	redisClient *redis.Client
	jwtSecret   []byte
	cancelFuncs map[uuid.UUID]context.CancelFunc
}

func NewHub(redisClient *redis.Client, jwtSecret string) *Hub {
	return &Hub{
		connections: make(map[uuid.UUID][]*websocket.Conn),
		redisClient: redisClient,
		jwtSecret:   []byte(jwtSecret),
		cancelFuncs: make(map[uuid.UUID]context.CancelFunc),
	}
}

func (h *Hub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	// Authenticate via token query param
	tokenStr := r.URL.Query().Get("token")
	if tokenStr == "" {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	token, err := jwt.Parse(tokenStr, func(token *jwt.Token) (interface{}, error) {
		return h.jwtSecret, nil
	})
	if err != nil || !token.Valid {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	groupID, err := uuid.Parse(r.URL.Query().Get("group_id"))
	if err != nil {
		http.Error(w, "group_id is required", http.StatusBadRequest)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade failed: %v", err)
		return
	}

	h.registerConnection(groupID, conn)

	// Keep connection alive and handle disconnect
	go func() {
		defer h.unregisterConnection(groupID, conn)
		for {
			_, _, err := conn.ReadMessage()
			if err != nil {
				break
			}
		}
	}()
}

func (h *Hub) registerConnection(groupID uuid.UUID, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.connections[groupID] = append(h.connections[groupID], conn)

	// Start pub/sub subscription on the first connection for this group
	if len(h.connections[groupID]) == 1 {
		ctx, cancel := context.WithCancel(context.Background())
		h.cancelFuncs[groupID] = cancel
		go h.subscribeToPubSub(ctx, groupID)
	}

	log.Printf("WebSocket connected: group %s (total: %d)", groupID, len(h.connections[groupID]))
}

func (h *Hub) unregisterConnection(groupID uuid.UUID, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	conn.Close()

	conns := h.connections[groupID]
	for i, c := range conns {
		if c == conn {
			h.connections[groupID] = append(conns[:i], conns[i+1:]...)
			break
		}
	}

	// If no more connections, cancel pub/sub
	if len(h.connections[groupID]) == 0 {
		delete(h.connections, groupID)
		if cancel, ok := h.cancelFuncs[groupID]; ok {
			cancel()
			delete(h.cancelFuncs, groupID)
		}
	}

	log.Printf("WebSocket disconnected: group %s", groupID)
}

func (h *Hub) subscribeToPubSub(ctx context.Context, groupID uuid.UUID) {
	channel := "group_updates:" + groupID.String()
	pubsub := h.redisClient.Subscribe(ctx, channel)
	defer pubsub.Close()

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			h.broadcast(groupID, []byte(msg.Payload))
		}
	}
}

func (h *Hub) broadcast(groupID uuid.UUID, data []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, conn := range h.connections[groupID] {
		conn.WriteMessage(websocket.TextMessage, data)
	}
}
