package service

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

type sessionEntry struct {
	controller *Controller
	widget     string
	lastUsed   time.Time
}

// Sessions holds open controllers keyed by session id. Entries idle for
// longer than the TTL are dropped on access and by Prune.
type Sessions struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	entries map[uuid.UUID]*sessionEntry
}

// NewSessions creates a registry. A zero TTL keeps sessions until closed.
func NewSessions(ttl time.Duration) *Sessions {
	return &Sessions{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[uuid.UUID]*sessionEntry),
	}
}

// Add registers a controller under its id.
func (s *Sessions) Add(widget string, c *Controller) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[c.ID()] = &sessionEntry{controller: c, widget: widget, lastUsed: s.now()}
}

// Get returns a live controller and refreshes its idle timer.
func (s *Sessions) Get(id uuid.UUID) (*Controller, string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[id]
	if !ok {
		return nil, "", false
	}
	now := s.now()
	if s.expired(entry, now) {
		delete(s.entries, id)
		return nil, "", false
	}
	entry.lastUsed = now
	return entry.controller, entry.widget, true
}

// Remove drops a session. It reports whether the session existed.
func (s *Sessions) Remove(id uuid.UUID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.entries[id]
	delete(s.entries, id)
	return ok
}

// Prune drops expired sessions and returns how many were removed.
func (s *Sessions) Prune() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	removed := 0
	for id, entry := range s.entries {
		if s.expired(entry, now) {
			delete(s.entries, id)
			removed++
		}
	}
	return removed
}

// Len returns the number of registered sessions, expired or not.
func (s *Sessions) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

func (s *Sessions) expired(entry *sessionEntry, now time.Time) bool {
	return s.ttl > 0 && now.Sub(entry.lastUsed) > s.ttl
}
