package api

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/telnet2/go-practice/modsh"
)

// ConsoleFactory creates the console of a new session. The console must
// write its output to stdout and stderr.
type ConsoleFactory func(stdout, stderr io.Writer) (*modsh.Console, error)

// Session is one remote debugging console.
type Session struct {
	ID        string
	Console   *modsh.Console
	CreatedAt time.Time
	LastUsed  time.Time

	mu     sync.Mutex
	stdout bytes.Buffer
	stderr bytes.Buffer
}

// SessionManager owns the live sessions.
type SessionManager struct {
	factory  ConsoleFactory
	sessions map[string]*Session
	mu       sync.RWMutex
}

// NewSessionManager creates a manager whose sessions are built by factory.
func NewSessionManager(factory ConsoleFactory) *SessionManager {
	return &SessionManager{
		factory:  factory,
		sessions: make(map[string]*Session),
	}
}

// CreateSession starts a console in unit (the entry unit when empty). The
// returned output holds the session banner.
func (sm *SessionManager) CreateSession(ctx context.Context, unit string) (*Session, *ExecuteResult, error) {
	s := &Session{
		ID:        uuid.New().String(),
		CreatedAt: time.Now(),
	}
	s.LastUsed = s.CreatedAt

	console, err := sm.factory(&s.stdout, &s.stderr)
	if err != nil {
		return nil, nil, fmt.Errorf("create console: %w", err)
	}
	s.Console = console

	if err := console.Start(ctx, unit); err != nil {
		return nil, nil, err
	}
	banner := s.collect(false)

	sm.mu.Lock()
	sm.sessions[s.ID] = s
	sm.mu.Unlock()
	return s, banner, nil
}

// GetSession returns a live session.
func (sm *SessionManager) GetSession(sessionID string) (*Session, error) {
	sm.mu.RLock()
	s, ok := sm.sessions[sessionID]
	sm.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("session not found: %s", sessionID)
	}
	return s, nil
}

// ListSessions returns the live sessions, oldest first.
func (sm *SessionManager) ListSessions() []*Session {
	sm.mu.RLock()
	sessions := make([]*Session, 0, len(sm.sessions))
	for _, s := range sm.sessions {
		sessions = append(sessions, s)
	}
	sm.mu.RUnlock()

	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].CreatedAt.Before(sessions[j].CreatedAt)
	})
	return sessions
}

// RemoveSession ends a session and forgets it.
func (sm *SessionManager) RemoveSession(sessionID string) error {
	sm.mu.Lock()
	s, ok := sm.sessions[sessionID]
	delete(sm.sessions, sessionID)
	sm.mu.Unlock()
	if !ok {
		return fmt.Errorf("session not found: %s", sessionID)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.Console.Close()
	return nil
}

// Execute feeds one line to the session's console.
func (s *Session) Execute(ctx context.Context, line string) *ExecuteResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.LastUsed = time.Now()
	more := s.Console.Feed(ctx, line)
	return s.collect(more)
}

// Info describes the session.
func (s *Session) Info() SessionInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	return SessionInfo{
		ID:        s.ID,
		CreatedAt: s.CreatedAt,
		LastUsed:  s.LastUsed,
		Location:  s.Console.Location(),
	}
}

// collect drains the captured streams. The caller holds s.mu or owns s.
func (s *Session) collect(more bool) *ExecuteResult {
	res := &ExecuteResult{
		Output:   splitLines(s.stdout.String()),
		Errors:   splitLines(s.stderr.String()),
		Location: s.Console.Location(),
		More:     more,
	}
	s.stdout.Reset()
	s.stderr.Reset()
	return res
}

func splitLines(s string) []string {
	if s == "" {
		return []string{}
	}
	return strings.Split(strings.TrimSuffix(s, "\n"), "\n")
}
