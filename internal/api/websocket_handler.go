package api

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/ledgerstack/tenant-core/internal/api/dto"
	"github.com/ledgerstack/tenant-core/internal/domain"
	"github.com/ledgerstack/tenant-core/internal/service/pubsub"
	"github.com/ledgerstack/tenant-core/internal/tenantctx"
	"github.com/ledgerstack/tenant-core/pkg/logger"
)

const (
	websocketReadBufferSize        = 1024
	websocketWriteBufferSize       = 1024
	websocketSendChannelBufferSize = 256
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  websocketReadBufferSize,
	WriteBufferSize: websocketWriteBufferSize,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type wsClient struct {
	conn     *websocket.Conn
	tenantID string
	send     chan []byte
}

// WebSocketHandler streams a tenant's audit records live. Fan-out runs
// through redis pub/sub so every API instance sees every record; each
// instance subscribes to a tenant channel only while it has clients for
// that tenant.
type WebSocketHandler struct {
	clients       map[*wsClient]bool
	register      chan *wsClient
	unregister    chan *wsClient
	mutex         sync.RWMutex
	logger        *logger.Logger
	pubsub        *pubsub.RedisPubSub
	ctx           context.Context
	cancel        context.CancelFunc
	tenantClients map[string]int
}

func NewWebSocketHandler(log *logger.Logger, ps *pubsub.RedisPubSub) *WebSocketHandler {
	ctx, cancel := context.WithCancel(context.Background())
	return &WebSocketHandler{
		clients:       make(map[*wsClient]bool),
		register:      make(chan *wsClient),
		unregister:    make(chan *wsClient),
		logger:        log,
		pubsub:        ps,
		ctx:           ctx,
		cancel:        cancel,
		tenantClients: make(map[string]int),
	}
}

// HandleWebSocket upgrades the connection and streams the scoped tenant's
// records to it.
func (h *WebSocketHandler) HandleWebSocket(c *gin.Context) {
	tenantID, err := tenantctx.TenantID(c.Request.Context())
	if err != nil {
		c.AbortWithStatusJSON(http.StatusForbidden, dto.Error{Error: "Invalid tenant access"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		c.JSON(http.StatusInternalServerError, dto.Error{Error: "Failed to upgrade connection"})
		return
	}

	client := &wsClient{
		conn:     conn,
		tenantID: tenantID,
		send:     make(chan []byte, websocketSendChannelBufferSize),
	}
	h.register <- client

	go h.writePump(client)
	go h.readPump(client)
}

func (h *WebSocketHandler) Start() {
	for {
		select {
		case client := <-h.register:
			h.mutex.Lock()
			h.clients[client] = true
			h.tenantClients[client.tenantID]++
			if h.tenantClients[client.tenantID] == 1 {
				if err := h.pubsub.Subscribe(h.ctx, client.tenantID, h.handlePubSubRecord); err != nil {
					h.logger.Errorf("Failed to subscribe to tenant %s: %v", client.tenantID, err)
				}
			}
			h.mutex.Unlock()

		case client := <-h.unregister:
			h.mutex.Lock()
			if _, ok := h.clients[client]; ok {
				h.dropClient(client)
			}
			h.mutex.Unlock()

		case <-h.ctx.Done():
			return
		}
	}
}

func (h *WebSocketHandler) Stop() {
	h.cancel()
	h.pubsub.Close()
}

// dropClient must run under the write lock.
func (h *WebSocketHandler) dropClient(client *wsClient) {
	delete(h.clients, client)
	close(client.send)
	h.tenantClients[client.tenantID]--
	if h.tenantClients[client.tenantID] == 0 {
		h.pubsub.Unsubscribe(client.tenantID)
		delete(h.tenantClients, client.tenantID)
	}
}

func (h *WebSocketHandler) handlePubSubRecord(record *domain.AuditRecord) {
	resp := dto.FromAuditRecord(record)
	message, err := json.Marshal(resp)
	if err != nil {
		h.logger.Errorf("Error marshaling audit record: %v", err)
		return
	}

	h.mutex.Lock()
	defer h.mutex.Unlock()

	for client := range h.clients {
		if client.tenantID != record.TenantID {
			continue
		}
		select {
		case client.send <- message:
		default:
			// Slow consumer: drop it rather than block the stream.
			h.dropClient(client)
		}
	}
}

func (h *WebSocketHandler) writePump(client *wsClient) {
	defer client.conn.Close()

	for message := range client.send {
		w, err := client.conn.NextWriter(websocket.TextMessage)
		if err != nil {
			return
		}
		w.Write(message)
		if err := w.Close(); err != nil {
			return
		}
	}
	client.conn.WriteMessage(websocket.CloseMessage, []byte{})
}

func (h *WebSocketHandler) readPump(client *wsClient) {
	defer func() {
		h.unregister <- client
		client.conn.Close()
	}()

	for {
		messageType, message, err := client.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.logger.Warnf("Unexpected close error for client %s: %v", client.tenantID, err)
			}
			break
		}
		// The stream is one-way; log anything the client sends.
		if messageType == websocket.TextMessage || messageType == websocket.BinaryMessage {
			h.logger.Infof("Received message from client %s: %s", client.tenantID, string(message))
		}
	}
}

// BroadcastRecord publishes a record onto its tenant's channel. It is the
// service's Broadcaster hook.
func (h *WebSocketHandler) BroadcastRecord(record *domain.AuditRecord) {
	if err := h.pubsub.Publish(h.ctx, record); err != nil {
		h.logger.Errorf("Failed to publish audit record: %v", err)
	}
}
