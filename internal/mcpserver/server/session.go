package server

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// ErrSessionNotFound is returned for unknown or expired session ids
var ErrSessionNotFound = errors.New("session not found")

// MCPSession represents an initialized HTTP client connection
type MCPSession struct {
	ID        string
	Subject   string // From JWT sub claim, empty when auth is disabled
	CreatedAt time.Time
	LastSeen  time.Time
}

// SessionManager manages HTTP transport sessions
type SessionManager struct {
	mu       sync.RWMutex
	sessions map[string]*MCPSession // sessionID -> session
	ttl      time.Duration
	now      func() time.Time
}

// NewSessionManager creates a new session manager
func NewSessionManager(ttl time.Duration) *SessionManager {
	return &SessionManager{
		sessions: make(map[string]*MCPSession),
		ttl:      ttl,
		now:      time.Now,
	}
}

// CreateSession creates a new MCP session for a subject
func (sm *SessionManager) CreateSession(subject string) *MCPSession {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	now := sm.now()
	session := &MCPSession{
		ID:        uuid.New().String(),
		Subject:   subject,
		CreatedAt: now,
		LastSeen:  now,
	}

	sm.sessions[session.ID] = session

	log.Debug().
		Str("sessionId", session.ID).
		Str("subject", subject).
		Msg("Created MCP session")

	return session
}

// GetSession retrieves a live session by ID. Expired sessions are not returned.
func (sm *SessionManager) GetSession(sessionID string) (*MCPSession, error) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	session, exists := sm.sessions[sessionID]
	if !exists || sm.expired(session, sm.now()) {
		return nil, ErrSessionNotFound
	}

	return session, nil
}

// UpdateLastSeen updates the last seen time for a session
func (sm *SessionManager) UpdateLastSeen(sessionID string) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if session, exists := sm.sessions[sessionID]; exists {
		session.LastSeen = sm.now()
	}
}

// DeleteSession removes a session, reporting whether it existed
func (sm *SessionManager) DeleteSession(sessionID string) bool {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	_, exists := sm.sessions[sessionID]
	delete(sm.sessions, sessionID)

	log.Debug().
		Str("sessionId", sessionID).
		Bool("existed", exists).
		Msg("Deleted MCP session")

	return exists
}

// Count returns the number of stored sessions, expired or not
func (sm *SessionManager) Count() int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return len(sm.sessions)
}

// RemoveExpired drops every session idle for longer than the TTL
func (sm *SessionManager) RemoveExpired() int {
	sm.mu.Lock()
	now := sm.now()
	expired := 0
	for id, session := range sm.sessions {
		if sm.expired(session, now) {
			delete(sm.sessions, id)
			expired++
		}
	}
	sm.mu.Unlock()

	if expired > 0 {
		log.Info().
			Int("count", expired).
			Msg("Cleaned up expired MCP sessions")
	}
	return expired
}

// StartCleanup removes expired sessions every interval until ctx is done
func (sm *SessionManager) StartCleanup(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				sm.RemoveExpired()
			}
		}
	}()
}

func (sm *SessionManager) expired(session *MCPSession, now time.Time) bool {
	return now.Sub(session.LastSeen) > sm.ttl
}
