package game

import (
	"strings"
	"sync"

	"github.com/google/uuid"
)

const generatedIDLen = 8

// Registry owns every live Room. Handlers look rooms up by id on each event and
// never keep a *Room across events.
type Registry struct {
	mu    sync.RWMutex
	rooms map[string]*Room
	rules Rules
}

func NewRegistry(rules Rules) *Registry {
	return &Registry{
		rooms: make(map[string]*Room),
		rules: rules.withDefaults(),
	}
}

// Create registers a new room with the creator in the waiting pool. An empty id
// gets a generated one.
func (reg *Registry) Create(id string, creator Player) (*Room, error) {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	if id == "" {
		id = reg.freshID()
	} else if _, exists := reg.rooms[id]; exists {
		return nil, ErrDuplicateRoom
	}

	r := newRoom(id, reg.rules)
	r.Instance = uuid.NewString()
	r.Waiting = append(r.Waiting, creator)
	reg.rooms[id] = r
	return r, nil
}

// freshID must be called with mu held.
func (reg *Registry) freshID() string {
	for {
		id := strings.ReplaceAll(uuid.NewString(), "-", "")[:generatedIDLen]
		if _, exists := reg.rooms[id]; !exists {
			return id
		}
	}
}

func (reg *Registry) Lookup(id string) (*Room, error) {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	r, ok := reg.rooms[id]
	if !ok {
		return nil, ErrRoomNotFound
	}
	return r, nil
}

// snapshot returns the current rooms without holding the registry lock afterwards.
func (reg *Registry) snapshot() []*Room {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	out := make([]*Room, 0, len(reg.rooms))
	for _, r := range reg.rooms {
		out = append(out, r)
	}
	return out
}

func (reg *Registry) Count() int {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	return len(reg.rooms)
}

// reap deletes r if it is still the registered room for its id. The caller holds r.mu.
func (reg *Registry) reap(r *Room) {
	reg.mu.Lock()
	if cur, ok := reg.rooms[r.ID]; ok && cur == r {
		delete(reg.rooms, r.ID)
	}
	reg.mu.Unlock()
	r.closed = true
}

// RemoveConnection strips connID from every room it sits in, promoting a new
// leader where needed, and reaps rooms left empty. visit, if non-nil, runs for
// each affected room while its lock is still held. It returns the affected ids.
func (reg *Registry) RemoveConnection(connID string, visit func(r *Room, reaped bool)) []string {
	var affected []string
	for _, r := range reg.snapshot() {
		r.mu.Lock()
		if r.closed || !r.removeConnection(connID) {
			r.mu.Unlock()
			continue
		}
		reaped := r.PlayerCount() == 0
		if reaped {
			reg.reap(r)
		}
		if visit != nil {
			visit(r, reaped)
		}
		affected = append(affected, r.ID)
		r.mu.Unlock()
	}
	return affected
}
