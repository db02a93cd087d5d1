package ws

import (
	"encoding/json"
	"sync"

	"bollywoodgo/internal/services/game"

	"go.uber.org/zap"
)

// Hub tracks live connections and the per-room groups they belong to.
type Hub struct {
	conns  sync.Map // connID -> *clientConn
	groups sync.Map // roomID -> *group
}

var _ game.Broadcaster = (*Hub)(nil)

func NewHub() *Hub { return &Hub{} }

func (h *Hub) register(c *clientConn) { h.conns.Store(c.id, c) }

func (h *Hub) unregister(c *clientConn) { h.conns.Delete(c.id) }

// Join adds a connection to a room group. Unknown connections are ignored.
func (h *Hub) Join(roomID, connID string) {
	v, ok := h.conns.Load(connID)
	if !ok {
		return
	}
	for {
		g, _ := h.groups.LoadOrStore(roomID, newGroup())
		if g.(*group).add(v.(*clientConn)) {
			return
		}
		h.groups.CompareAndDelete(roomID, g)
	}
}

func (h *Hub) Leave(roomID, connID string) {
	if v, ok := h.groups.Load(roomID); ok {
		if v.(*group).remove(connID) {
			h.groups.CompareAndDelete(roomID, v)
		}
	}
}

func (h *Hub) ToRoom(roomID, event string, body any) {
	v, ok := h.groups.Load(roomID)
	if !ok {
		return
	}
	msg, err := encode(event, body)
	if err != nil {
		zap.L().Error("ws.encode", zap.String("event", event), zap.Error(err))
		return
	}
	v.(*group).broadcast(msg)
}

func (h *Hub) ToConn(connID, event string, body any) {
	v, ok := h.conns.Load(connID)
	if !ok {
		return
	}
	msg, err := encode(event, body)
	if err != nil {
		zap.L().Error("ws.encode", zap.String("event", event), zap.Error(err))
		return
	}
	v.(*clientConn).enqueue(msg)
}

// Connections reports how many sockets are open.
func (h *Hub) Connections() int {
	n := 0
	h.conns.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}

func encode(event string, body any) ([]byte, error) {
	raw, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Envelope{Event: event, Body: raw})
}
