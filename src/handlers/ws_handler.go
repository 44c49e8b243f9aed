// backend/src/handlers/ws_handler.go
package handlers

import (
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/username/freightpay/backend/src/logger"
	"github.com/username/freightpay/backend/src/notify"
	"github.com/username/freightpay/backend/src/utils"
)

// WSHandler upgrades a role-scoped endpoint to a websocket and parks
// the connection in the fanout hub until the peer goes away.
type WSHandler struct {
	hub      *notify.Hub
	upgrader websocket.Upgrader
}

func NewWSHandler(hub *notify.Hub) *WSHandler {
	return &WSHandler{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Origin is enforced by the CORS layer in front of the API;
			// the upgrade itself accepts any origin.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

func (h *WSHandler) HandleSubscribe(w http.ResponseWriter, r *http.Request) {
	role := notify.Role(r.PathValue("role"))
	if !notify.ValidRole(role) {
		utils.SendJSONError(w, "Unknown subscriber role.", http.StatusNotFound)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error.
		logger.L.Warn("Websocket upgrade failed", "role", role, "error", err)
		return
	}

	sub := h.hub.Register(role, conn)
	logger.L.Info("Websocket subscriber connected", "role", role, "groupSize", h.hub.GroupSize(role))

	// Inbound frames are ignored; the read loop only exists to notice
	// the peer closing.
	go func() {
		defer func() {
			h.hub.Unregister(sub)
			conn.Close()
			logger.L.Info("Websocket subscriber disconnected", "role", role, "groupSize", h.hub.GroupSize(role))
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}
