// Package session keeps per-login conversational state in memory.
// The chat window, attached file context and agent mode all live here,
// keyed by the session ID embedded in the bearer token.
package session

import (
	"sync"
	"time"

	"github.com/pymentor/agent-server/internal/filectx"
	"github.com/pymentor/agent-server/internal/prompt"
	"github.com/pymentor/agent-server/internal/window"
)

// Session is the in-memory state of one authenticated login.
type Session struct {
	mu sync.Mutex

	ID       string
	Window   *window.Manager
	File     *filectx.Manager
	Mode     prompt.AgentMode
	FileName string

	lastSeen time.Time
}

// Lock takes the session's mutex. Handlers serialize a whole turn with
// it so concurrent requests cannot interleave window mutations.
func (s *Session) Lock() { s.mu.Lock() }

// Unlock releases the session's mutex.
func (s *Session) Unlock() { s.mu.Unlock() }

// Settings carries the knobs every new session starts with.
type Settings struct {
	WindowSize       int
	DisplayWindow    int
	MessagesMaxChars int
	FileMaxChars     int
	FileTokenLimit   int
}

// Registry hands out sessions and expires idle ones.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	settings Settings
	ttl      time.Duration
	now      func() time.Time
}

// NewRegistry creates a registry. ttl <= 0 disables idle expiry.
func NewRegistry(settings Settings, ttl time.Duration) *Registry {
	return &Registry{
		sessions: make(map[string]*Session),
		settings: settings,
		ttl:      ttl,
		now:      time.Now,
	}
}

// GetOrCreate returns the session for id, creating it on first use.
func (r *Registry) GetOrCreate(id string) *Session {
	r.mu.RLock()
	s, ok := r.sessions[id]
	r.mu.RUnlock()
	if ok {
		r.touch(s)
		return s
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.sessions[id]; ok {
		s.lastSeen = r.now()
		return s
	}
	s = &Session{
		ID:       id,
		Window:   window.NewManager(r.settings.WindowSize, r.settings.DisplayWindow, r.settings.MessagesMaxChars),
		File:     filectx.NewManager(r.settings.FileMaxChars, r.settings.FileTokenLimit),
		Mode:     prompt.DefaultMode,
		lastSeen: r.now(),
	}
	r.sessions[id] = s
	return s
}

// Get returns the session for id, or nil when none exists.
func (r *Registry) Get(id string) *Session {
	r.mu.RLock()
	s := r.sessions[id]
	r.mu.RUnlock()
	if s != nil {
		r.touch(s)
	}
	return s
}

// Delete removes a session's state.
func (r *Registry) Delete(id string) {
	r.mu.Lock()
	delete(r.sessions, id)
	r.mu.Unlock()
}

// Len reports how many sessions are live.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// PruneIdle drops sessions idle longer than the registry TTL and
// returns how many were removed.
func (r *Registry) PruneIdle() int {
	if r.ttl <= 0 {
		return 0
	}
	cutoff := r.now().Add(-r.ttl)

	r.mu.Lock()
	defer r.mu.Unlock()
	removed := 0
	for id, s := range r.sessions {
		if s.lastSeen.Before(cutoff) {
			delete(r.sessions, id)
			removed++
		}
	}
	return removed
}

func (r *Registry) touch(s *Session) {
	r.mu.Lock()
	s.lastSeen = r.now()
	r.mu.Unlock()
}
