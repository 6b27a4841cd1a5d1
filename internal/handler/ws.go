package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"carpool/internal/bus"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Origin checks are handled by the CORS layer in front of us.
	CheckOrigin: func(r *http.Request) bool { return true },
}

const (
	wsPongWait       = 60 * time.Second
	wsMaxMessageSize = 512
)

// WSHandler upgrades clients to WebSocket and bridges them onto the event
// bus. Each client is auto-subscribed to its personal channel and may
// subscribe to ride channels with control frames.
type WSHandler struct {
	bus *bus.Bus
}

// NewWSHandler creates a new WSHandler.
func NewWSHandler(b *bus.Bus) *WSHandler {
	return &WSHandler{bus: b}
}

// controlFrame is a client-to-server subscription request, e.g.
// {"type":"subscribe","channel":"ride_<id>"}.
type controlFrame struct {
	Type    string `json:"type"`    // subscribe or unsubscribe
	Channel string `json:"channel"` // e.g. ride_<id>
}

// Serve handles GET /ws?user_id=<id>
func (h *WSHandler) Serve(c *gin.Context) {
	userID := c.Query("user_id")
	if userID == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "user_id is required"})
		return
	}

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade already wrote the error response.
		return
	}

	conn := bus.NewConn(ws)
	h.bus.Subscribe(bus.UserChannel(userID), conn)

	go h.readPump(ws, conn)
}

// readPump consumes control frames until the client goes away, then detaches
// the connection from every channel.
func (h *WSHandler) readPump(ws *websocket.Conn, conn *bus.Conn) {
	defer h.bus.Remove(conn)

	ws.SetReadLimit(wsMaxMessageSize)
	ws.SetReadDeadline(time.Now().Add(wsPongWait))
	ws.SetPongHandler(func(string) error {
		ws.SetReadDeadline(time.Now().Add(wsPongWait))
		return nil
	})

	for {
		_, data, err := ws.ReadMessage()
		if err != nil {
			return
		}

		var frame controlFrame
		if err := json.Unmarshal(data, &frame); err != nil {
			continue
		}

		switch frame.Type {
		case "subscribe":
			if frame.Channel != "" {
				h.bus.Subscribe(frame.Channel, conn)
			}
		case "unsubscribe":
			if frame.Channel != "" {
				h.bus.Unsubscribe(frame.Channel, conn)
			}
		}
	}
}
