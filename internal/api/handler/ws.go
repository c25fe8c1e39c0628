package handler

import (
	"net/http"

	"github.com/fyefbv/common-ground-api/internal/chathub"
	"github.com/fyefbv/common-ground-api/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Дозволяє з'єднання з будь-якого домену. У продакшені налаштувати!
	CheckOrigin: func(r *http.Request) bool { return true },
}

// ServeWebSocket оновлює HTTP-з'єднання до WebSocket і реєструє клієнта
// в його активній сесії. Токен приймається з заголовка або з query
// (браузерний WebSocket не вміє ставити заголовки).
func (h *Handler) ServeWebSocket(c *gin.Context) {
	tokenString, ok := bearerToken(c)
	if !ok {
		tokenString = c.Query("token")
	}
	if tokenString == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"code": "unauthorized", "error": "Authorization token missing"})
		return
	}

	profileID, err := h.validateAndGetProfileID(tokenString)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"code": "unauthorized", "error": "Invalid token or expired"})
		return
	}

	session, err := h.Store.FindActiveSessionByProfile(profileID)
	if err != nil {
		h.internalError(c, err)
		return
	}
	if session == nil {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"code": "no_active_session", "error": "No active session to join"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"code": "internal_error", "error": "Failed to upgrade connection"})
		return
	}

	client := &chathub.WebSocketClient{
		ProfileID: profileID,
		SessionID: session.ID,
		Conn:      conn,
		Registry:  h.Registry,
		Sender:    h.Service,
		Send:      make(chan models.Event, 256),
		Log:       h.Log,
	}

	h.Registry.Register(client)
	client.Run()

	h.Registry.Deliver(session.ID, profileID,
		models.NewEvent(models.EventConnectionEstablished, session.ID, map[string]any{
			"profile_id": profileID,
			"status":     session.Status,
		}))
	h.Registry.Broadcast(session.ID,
		models.NewEvent(models.EventPartnerConnected, session.ID, map[string]any{
			"profile_id": profileID,
		}), profileID)
}
