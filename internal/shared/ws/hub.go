package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/phgsc/field-service-management-sub000/internal/shared/logger"

	"github.com/gorilla/websocket"
)

const (
	// authTimeout is how long a fresh connection has to present a token
	// before the server drops it.
	authTimeout = 5 * time.Second

	pingInterval   = 30 * time.Second
	pongWait       = 60 * time.Second
	maxMessageSize = 8192
	writeWait      = 10 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// origins are restricted by the CORS layer in front; the hub itself
		// accepts any upgrade and relies on the auth handshake
		return true
	},
}

// AuthFunc validates a raw token and returns the user identity for the
// connection.
type AuthFunc func(token string) (userID, role string, err error)

// MessageHandler is invoked for every parsed client message.
type MessageHandler func(client *Client, messageType string, data json.RawMessage) error

// Client is one authenticated WebSocket connection.
type Client struct {
	ID     string
	UserID string
	Role   string
	conn   *websocket.Conn
	send   chan []byte
	hub    *Hub
	log    *logger.Logger
}

// Hub tracks every active connection and routes outbound messages.
// All access to the client map goes through the mutex; registration and
// shutdown flow through channels consumed by Run.
type Hub struct {
	clients        map[string]*Client
	mu             sync.RWMutex
	register       chan *Client
	unregister     chan *Client
	broadcast      chan []byte
	authFunc       AuthFunc
	messageHandler MessageHandler
	log            *logger.Logger
}

// NewHub creates a hub. Callers must start Run in a goroutine and may set a
// MessageHandler before serving connections.
func NewHub(authFunc AuthFunc, log *logger.Logger) *Hub {
	return &Hub{
		clients:    make(map[string]*Client),
		register:   make(chan *Client, 10),
		unregister: make(chan *Client, 10),
		broadcast:  make(chan []byte, 256),
		authFunc:   authFunc,
		log:        log,
	}
}

// SetMessageHandler installs the handler invoked for inbound client messages.
func (h *Hub) SetMessageHandler(handler MessageHandler) {
	h.messageHandler = handler
}

// Run is the hub main loop.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.log.Info(logger.Entry{Action: "hub_stopped", Message: "websocket hub stopped"})
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.ID] = client
			h.mu.Unlock()
			h.log.Info(logger.Entry{
				Action:  "client_registered",
				Message: client.ID,
				Additional: map[string]any{
					"user_id": client.UserID,
					"role":    client.Role,
				},
			})

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client.ID]; ok {
				delete(h.clients, client.ID)
				close(client.send)
			}
			h.mu.Unlock()
			h.log.Info(logger.Entry{
				Action:  "client_unregistered",
				Message: client.ID,
			})

		case message := <-h.broadcast:
			h.mu.Lock()
			for _, client := range h.clients {
				select {
				case client.send <- message:
				default:
					// send buffer full, drop the client
					close(client.send)
					delete(h.clients, client.ID)
				}
			}
			h.mu.Unlock()
		}
	}
}

// Broadcast queues a message for every connected client.
func (h *Hub) Broadcast(message []byte) {
	select {
	case h.broadcast <- message:
	default:
		h.log.Error(logger.Entry{
			Action:  "broadcast_dropped",
			Message: "broadcast channel full",
		})
	}
}

// SendToUser queues a message for every connection of one user.
func (h *Hub) SendToUser(userID string, message []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, client := range h.clients {
		if client.UserID == userID {
			select {
			case client.send <- message:
			default:
				h.log.Error(logger.Entry{
					Action:  "send_to_user_failed",
					Message: userID,
				})
			}
		}
	}
}

// SendToRole queues a message for every connection with the given role.
func (h *Hub) SendToRole(role string, message []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, client := range h.clients {
		if client.Role == role {
			select {
			case client.send <- message:
			default:
				h.log.Error(logger.Entry{
					Action:  "send_to_role_failed",
					Message: role,
					Additional: map[string]any{
						"client_id": client.ID,
					},
				})
			}
		}
	}
}

// GetClient returns one connection of the user, or nil.
func (h *Hub) GetClient(userID string) *Client {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, client := range h.clients {
		if client.UserID == userID {
			return client
		}
	}
	return nil
}

// IsUserConnected reports whether the user has at least one live connection.
func (h *Hub) IsUserConnected(userID string) bool {
	return h.GetClient(userID) != nil
}

// ServeWS upgrades the HTTP request and runs the auth handshake: the client
// must send {"token": "..."} within authTimeout or the connection is closed.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Error(logger.Entry{
			Action:  "ws_upgrade_failed",
			Message: err.Error(),
			Error:   &logger.ErrObj{Msg: err.Error()},
		})
		return
	}

	clientID := fmt.Sprintf("ws_%d", time.Now().UnixNano())

	client := &Client{
		ID:   clientID,
		conn: conn,
		send: make(chan []byte, 256),
		hub:  h,
		log:  h.log,
	}

	authDeadline := time.Now().Add(authTimeout)
	_ = conn.SetReadDeadline(authDeadline)

	var authMsg struct {
		Token string `json:"token"`
	}

	if err := conn.ReadJSON(&authMsg); err != nil {
		_ = conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseProtocolError, "auth timeout"))
		_ = conn.Close()
		h.log.Error(logger.Entry{
			Action:  "ws_auth_failed",
			Message: "no auth message received",
		})
		return
	}

	userID, role, err := h.authFunc(authMsg.Token)
	if err != nil {
		_ = conn.WriteJSON(map[string]string{"error": "invalid token"})
		_ = conn.Close()
		h.log.Error(logger.Entry{
			Action:  "ws_auth_invalid_token",
			Message: err.Error(),
			Error:   &logger.ErrObj{Msg: err.Error()},
		})
		return
	}

	client.UserID = userID
	client.Role = role

	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	h.register <- client

	_ = conn.WriteJSON(map[string]string{"status": "authenticated", "user_id": userID})

	go client.writePump()
	go client.readPump()
}

func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.log.Error(logger.Entry{
					Action:  "ws_read_error",
					Message: c.ID,
					Error:   &logger.ErrObj{Msg: err.Error()},
				})
			}
			break
		}

		var msg struct {
			Type string          `json:"type"`
			Data json.RawMessage `json:"data,omitempty"`
		}

		if err := json.Unmarshal(message, &msg); err != nil {
			c.log.Error(logger.Entry{
				Action:  "ws_parse_message_error",
				Message: err.Error(),
				Error:   &logger.ErrObj{Msg: err.Error()},
				Additional: map[string]any{
					"client_id": c.ID,
					"raw":       string(message),
				},
			})
			continue
		}

		if c.hub.messageHandler != nil {
			if err := c.hub.messageHandler(c, msg.Type, msg.Data); err != nil {
				c.log.Error(logger.Entry{
					Action:  "ws_handle_message_error",
					Message: err.Error(),
					Error:   &logger.ErrObj{Msg: err.Error()},
					Additional: map[string]any{
						"client_id": c.ID,
						"msg_type":  msg.Type,
					},
				})
			}
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// hub closed the channel
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// BroadcastJSON marshals data and broadcasts it.
func (h *Hub) BroadcastJSON(data interface{}) error {
	msg, err := json.Marshal(data)
	if err != nil {
		return err
	}
	h.Broadcast(msg)
	return nil
}

// SendToUserJSON marshals data and sends it to one user.
func (h *Hub) SendToUserJSON(userID string, data interface{}) error {
	msg, err := json.Marshal(data)
	if err != nil {
		return err
	}
	h.SendToUser(userID, msg)
	return nil
}

// SendToRoleJSON marshals data and sends it to every user with the role.
func (h *Hub) SendToRoleJSON(role string, data interface{}) error {
	msg, err := json.Marshal(data)
	if err != nil {
		return err
	}
	h.SendToRole(role, msg)
	return nil
}

// SendTypedMessage wraps data in a {type, data} envelope for one user.
func (h *Hub) SendTypedMessage(userID, msgType string, data interface{}) error {
	message := map[string]interface{}{
		"type": msgType,
		"data": data,
	}
	return h.SendToUserJSON(userID, message)
}
