package chathub

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/fyefbv/common-ground-api/internal/models"
	"github.com/fyefbv/common-ground-api/internal/roulette"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 8192
)

// MessageSender persists a chat message sent over the socket. Satisfied
// by the roulette service.
type MessageSender interface {
	SendMessage(profileID, content string) (*roulette.MessageResponse, error)
}

// WebSocketClient реалізує інтерфейс chathub.Client поверх gorilla/websocket.
type WebSocketClient struct {
	ProfileID string
	SessionID string
	Conn      *websocket.Conn
	Registry  *Registry
	Sender    MessageSender
	Send      chan models.Event
	Log       *zap.SugaredLogger

	mu     sync.Mutex
	closed bool
}

// --- Реалізація методів інтерфейсу ---

func (c *WebSocketClient) GetProfileID() string { return c.ProfileID }
func (c *WebSocketClient) GetSessionID() string { return c.SessionID }

// TrySend кладе подію в Send канал без блокування. Мьютекс серіалізує
// доставку з Close: після закриття каналу повертається false, а не
// паніка на send у закритий канал.
func (c *WebSocketClient) TrySend(event models.Event) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return false
	}
	select {
	case c.Send <- event:
		return true
	default:
		return false
	}
}

// Run запускає 'pumps' для WebSocket
func (c *WebSocketClient) Run() {
	go c.writePump()
	go c.readPump()
}

// Close закриває Send канал (що зупинить writePump). Ідемпотентний:
// реєстр і кілька горутин роздачі можуть викликати його конкурентно.
func (c *WebSocketClient) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	c.closed = true
	close(c.Send)
	// readPump зупиниться сам, коли Conn.Close() буде викликано в його defer
}

// --- Логіка 'Pump' ---

func (c *WebSocketClient) readPump() {
	defer func() {
		c.Registry.Unregister(c)
		c.Registry.Broadcast(c.SessionID,
			models.NewEvent(models.EventPartnerDisconnected, c.SessionID, map[string]any{
				"profile_id": c.ProfileID,
			}), c.ProfileID)
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.Log.Warnw("unexpected close", "profile_id", c.ProfileID, "error", err)
			}
			break
		}

		var event models.Event
		if err := json.Unmarshal(message, &event); err != nil {
			c.Log.Warnw("invalid client event", "profile_id", c.ProfileID, "error", err)
			continue
		}

		c.handleEvent(event)
	}
}

// handleEvent обробляє подію, надіслану клієнтом через сокет.
func (c *WebSocketClient) handleEvent(event models.Event) {
	switch event.Type {
	case models.EventPing:
		c.Registry.Deliver(c.SessionID, c.ProfileID,
			models.NewEvent(models.EventPong, c.SessionID, nil))

	case models.EventMessageSent:
		content, _ := event.Data["content"].(string)
		resp, err := c.Sender.SendMessage(c.ProfileID, content)
		if err != nil {
			c.Registry.Deliver(c.SessionID, c.ProfileID,
				models.NewEvent(models.EventError, c.SessionID, map[string]any{
					"detail": err.Error(),
				}))
			return
		}
		// Відправник отримує підтвердження з ID повідомлення; партнеру
		// подію роздає сам сервіс.
		c.Registry.Deliver(c.SessionID, c.ProfileID,
			models.NewEvent(models.EventMessageSent, c.SessionID, map[string]any{
				"message_id": resp.MessageID,
				"content":    resp.Content,
			}))

	default:
		c.Registry.Deliver(c.SessionID, c.ProfileID,
			models.NewEvent(models.EventError, c.SessionID, map[string]any{
				"detail": "unsupported event type",
			}))
	}
}

// writePump читає події з каналу Send і записує їх у WebSocket.
func (c *WebSocketClient) writePump() {
	ticker := time.NewTicker(pingPeriod)

	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case event, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Канал закрито реєстром, закриваємо з'єднання WS
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			data, err := json.Marshal(event)
			if err != nil {
				c.Log.Errorw("failed to encode event", "profile_id", c.ProfileID, "error", err)
				continue
			}

			w, err := c.Conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(data)

			// Перевіряємо, чи є ще події у каналі (для ефективності)
			n := len(c.Send)
			for i := 0; i < n; i++ {
				next := <-c.Send
				extra, _ := json.Marshal(next)
				w.Write(extra)
			}

			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
