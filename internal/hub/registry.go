package hub

import (
	"sync"

	"github.com/yildiz-fatih/lazybook/pkg/log"
)

// Registry is the process-wide index from user id to that user's live
// connections. It is the only state shared across connection
// goroutines; every read and mutation is a single critical section.
// It holds no durable state and starts empty on process restart.
type Registry struct {
	mu    sync.RWMutex
	conns map[uint]map[*Client]struct{}
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		conns: make(map[uint]map[*Client]struct{}),
	}
}

// Register adds the client to its user's connection set, creating the
// set if absent. Registering the same client twice is a no-op.
func (r *Registry) Register(c *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()

	set, ok := r.conns[c.UserID()]
	if !ok {
		set = make(map[*Client]struct{})
		r.conns[c.UserID()] = set
	}
	set[c] = struct{}{}

	log.L().Debug().
		Str(log.FieldConnID, c.ID()).
		Uint(log.FieldUserID, c.UserID()).
		Msg("connection registered")
}

// Unregister removes the client from its user's set. Emptied sets are
// deleted rather than left behind. Unregistering a client that is not
// registered is a silent no-op.
func (r *Registry) Unregister(c *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()

	set, ok := r.conns[c.UserID()]
	if !ok {
		return
	}
	if _, ok := set[c]; !ok {
		return
	}

	delete(set, c)
	if len(set) == 0 {
		delete(r.conns, c.UserID())
	}

	log.L().Debug().
		Str(log.FieldConnID, c.ID()).
		Uint(log.FieldUserID, c.UserID()).
		Msg("connection unregistered")
}

// ConnectionsFor returns a snapshot of the user's current connection
// set. The snapshot is safe to iterate while other goroutines register
// and unregister connections.
func (r *Registry) ConnectionsFor(userID uint) []*Client {
	r.mu.RLock()
	defer r.mu.RUnlock()

	set, ok := r.conns[userID]
	if !ok {
		return nil
	}

	snapshot := make([]*Client, 0, len(set))
	for c := range set {
		snapshot = append(snapshot, c)
	}
	return snapshot
}
