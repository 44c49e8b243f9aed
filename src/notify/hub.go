package notify

import (
	"sync"

	"github.com/username/freightpay/backend/src/logger"
)

// Role names the three classes of connected parties.
type Role string

const (
	RolePlatform Role = "platform"
	RoleClient   Role = "client"
	RoleDriver   Role = "driver"
)

// ValidRole reports whether role names one of the three groups.
func ValidRole(role Role) bool {
	switch role {
	case RolePlatform, RoleClient, RoleDriver:
		return true
	}
	return false
}

// Event is the JSON message pushed to subscribers. Builders keep the
// original wire shape: a "type" key plus the action's identifiers and
// amounts.
type Event map[string]any

// Conn is the transport a subscriber is reached on. *websocket.Conn
// satisfies it; tests substitute fakes.
type Conn interface {
	WriteJSON(v any) error
	Close() error
}

// Subscriber is one live connection registered under exactly one role.
type Subscriber struct {
	role Role
	conn Conn
}

func (s *Subscriber) Role() Role { return s.role }

// Hub owns the role-partitioned connection registry. All access goes
// through Register/Unregister/Broadcast; the raw groups are never
// exposed. Each broadcast call completes (or gives up on failed
// members) before the next proceeds, so subscribers observe events in
// the order the server applied the underlying state changes.
type Hub struct {
	mu     sync.Mutex
	groups map[Role]map[*Subscriber]struct{}

	// sendMu serializes whole broadcast calls: websocket connections
	// allow only one concurrent writer, and subscribers must observe
	// events in the order the server applied the state changes.
	sendMu sync.Mutex
}

func NewHub() *Hub {
	return &Hub{
		groups: map[Role]map[*Subscriber]struct{}{
			RolePlatform: {},
			RoleClient:   {},
			RoleDriver:   {},
		},
	}
}

// Register adds a connection to its role group and returns the
// subscriber handle used for later unregistration.
func (h *Hub) Register(role Role, conn Conn) *Subscriber {
	sub := &Subscriber{role: role, conn: conn}

	h.mu.Lock()
	defer h.mu.Unlock()
	group, ok := h.groups[role]
	if !ok {
		// Unknown role: nothing will ever broadcast to it.
		return sub
	}
	group[sub] = struct{}{}
	return sub
}

// Unregister removes the subscriber from every group. Membership is
// single-group, but removal sweeps all of them defensively.
func (h *Hub) Unregister(sub *Subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, group := range h.groups {
		delete(group, sub)
	}
}

// Broadcast delivers event to every live connection of the role.
// A failed write means the peer is gone: the connection is closed,
// dropped from its group and never retried. Delivery order within the
// group is unspecified.
func (h *Hub) Broadcast(role Role, event Event) {
	h.broadcast([]Role{role}, event)
}

// BroadcastExcept delivers event to every group other than excluded.
func (h *Hub) BroadcastExcept(excluded Role, event Event) {
	var roles []Role
	for _, role := range []Role{RolePlatform, RoleClient, RoleDriver} {
		if role != excluded {
			roles = append(roles, role)
		}
	}
	h.broadcast(roles, event)
}

func (h *Hub) broadcast(roles []Role, event Event) {
	h.sendMu.Lock()
	defer h.sendMu.Unlock()

	h.mu.Lock()
	var targets []*Subscriber
	for _, role := range roles {
		for sub := range h.groups[role] {
			targets = append(targets, sub)
		}
	}
	h.mu.Unlock()

	var dead []*Subscriber
	for _, sub := range targets {
		if err := sub.conn.WriteJSON(event); err != nil {
			if logger.L != nil {
				logger.L.Warn("Dropping subscriber after failed delivery",
					"role", string(sub.role), "eventType", event["type"], "error", err)
			}
			sub.conn.Close()
			dead = append(dead, sub)
		}
	}

	if len(dead) > 0 {
		h.mu.Lock()
		for _, sub := range dead {
			for _, group := range h.groups {
				delete(group, sub)
			}
		}
		h.mu.Unlock()
	}
}

// GroupSize reports the current number of live connections for a role.
func (h *Hub) GroupSize(role Role) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.groups[role])
}
