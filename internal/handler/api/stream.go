package api

import (
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"OptAlert/pkg/logger"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The stream carries no client input, so any origin may subscribe.
	CheckOrigin: func(*http.Request) bool { return true },
}

// Stream upgrades the connection and registers it with the alert hub. The
// read loop only watches for the client closing the socket.
func (h *StatusHandler) Stream(c echo.Context) error {
	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		h.log.Warn("stream upgrade failed", logger.Error(err))
		return err
	}

	h.hub.Register(conn)
	go func() {
		defer h.hub.Unregister(conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
	return nil
}
