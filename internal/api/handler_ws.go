package api

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"carshare-backend/internal/ws"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The service sits behind a trusted proxy that enforces origins.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// ServeWS handles GET /ws, subscribing the caller to booking updates.
func (h *Handler) ServeWS(c *gin.Context) {
	if h.hub == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "live updates are not enabled"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("WebSocket upgrade failed: %v", err)
		return
	}

	client := ws.NewClient(h.hub, conn)
	client.Register()
	go client.WritePump()
	go client.ReadPump()
}
