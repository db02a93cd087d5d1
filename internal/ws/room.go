package ws

import "sync"

// group is the set of connections subscribed to one game room.
type group struct {
	mu    sync.RWMutex
	conns map[string]*clientConn
	dead  bool // emptied and dropped from the hub
}

func newGroup() *group { return &group{conns: map[string]*clientConn{}} }

func (g *group) add(c *clientConn) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.dead {
		return false
	}
	g.conns[c.id] = c
	return true
}

// remove reports whether the group is now empty; an empty group is dead.
func (g *group) remove(connID string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.conns, connID)
	if len(g.conns) == 0 {
		g.dead = true
	}
	return g.dead
}

func (g *group) broadcast(msg []byte) {
	g.mu.RLock()
	conns := make([]*clientConn, 0, len(g.conns))
	for _, c := range g.conns {
		conns = append(conns, c)
	}
	g.mu.RUnlock()

	var failed []string
	for _, c := range conns {
		if !c.enqueue(msg) {
			failed = append(failed, c.id)
		}
	}
	for _, id := range failed {
		g.remove(id)
	}
}
