package runtime

import (
	"chat-gate/contract"
	"chat-gate/domain"
	"sort"
	"sync"
)

// Registry keeps track of live subscriptions.
// One identity may hold several sessions at once (several devices or tabs).
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]contract.Session // map session -> observer and sink
}

func NewRegistry() *Registry {
	return &Registry{sessions: make(map[string]contract.Session)}
}

// Subscribe registers a session. Registering the same session id twice replaces the sink.
func (r *Registry) Subscribe(sessionID string, observer domain.Identity, sink contract.UpdateSink) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[sessionID] = contract.Session{ID: sessionID, Observer: observer, Sink: sink}
}

// Unsubscribe forgets a session. Unknown ids are ignored.
func (r *Registry) Unsubscribe(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, sessionID)
}

// Sessions returns a copy of the live sessions ordered by id.
func (r *Registry) Sessions() []contract.Session {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sessions := make([]contract.Session, 0, len(r.sessions))
	for _, session := range r.sessions {
		sessions = append(sessions, session)
	}
	sort.Slice(sessions, func(i, j int) bool { return sessions[i].ID < sessions[j].ID })
	return sessions
}

// CountObservers returns how many distinct identities are subscribed.
func (r *Registry) CountObservers() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	observers := make(map[domain.Identity]struct{}, len(r.sessions))
	for _, session := range r.sessions {
		observers[session.Observer] = struct{}{}
	}
	return len(observers)
}
