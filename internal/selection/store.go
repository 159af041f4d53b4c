package selection

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Store keeps one Selection per session id.
type Store struct {
	mu       sync.Mutex
	sessions map[string]*Selection
	opts     []Option
}

// NewStore creates an empty store; opts apply to every new Selection.
func NewStore(opts ...Option) *Store {
	return &Store{
		sessions: make(map[string]*Selection),
		opts:     opts,
	}
}

// Open returns the session's selection, creating it from the universe when the
// id is empty or unknown. The returned id is the one to hand back to the client.
func (st *Store) Open(id string, universe []string) (string, *Selection) {
	st.mu.Lock()
	defer st.mu.Unlock()

	if id != "" {
		if sel, ok := st.sessions[id]; ok {
			return id, sel
		}
	}
	if _, err := uuid.Parse(id); err != nil {
		id = uuid.NewString()
	}
	sel := New(universe, st.opts...)
	st.sessions[id] = sel
	return id, sel
}

// Get returns an existing session's selection.
func (st *Store) Get(id string) (*Selection, bool) {
	st.mu.Lock()
	defer st.mu.Unlock()
	sel, ok := st.sessions[id]
	return sel, ok
}

// Len returns the number of live sessions.
func (st *Store) Len() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.sessions)
}

// Sweep drops sessions idle for longer than maxIdle and returns how many went.
func (st *Store) Sweep(now time.Time, maxIdle time.Duration) int {
	st.mu.Lock()
	defer st.mu.Unlock()

	removed := 0
	for id, sel := range st.sessions {
		if now.Sub(sel.IdleSince()) > maxIdle {
			delete(st.sessions, id)
			removed++
		}
	}
	return removed
}
