package handlers

import (
	"log"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/huddlehq/huddle/backend/internal/middleware"
	"github.com/huddlehq/huddle/backend/internal/realtime"
	"github.com/labstack/echo/v4"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// WSHandler upgrades authenticated requests onto the room broadcast channel
type WSHandler struct {
	hub *realtime.Hub
}

// NewWSHandler creates a new WSHandler
func NewWSHandler(hub *realtime.Hub) *WSHandler {
	return &WSHandler{hub: hub}
}

// HandleWebSocket authenticates the request, upgrades it, and runs the
// connection until the client disconnects
func (h *WSHandler) HandleWebSocket(c echo.Context) error {
	token := c.QueryParam("token")
	if token == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "Missing authentication token")
	}
	if _, err := middleware.ParseToken(token); err != nil {
		return err
	}

	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		log.Printf("Failed to upgrade websocket connection: %v", err)
		return err
	}

	client := realtime.NewClient(h.hub, conn)
	client.Run()
	return nil
}
