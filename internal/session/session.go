package session

import (
	"sync"
	"time"

	"pubbot/internal/models"
)

// Step is the wizard position of a publishing session.
type Step int

const (
	StepAwaitingMedia Step = iota + 1
	StepAwaitingQuantity
	StepAwaitingPrice
	StepAwaitingLimitType
	StepAwaitingConfirmation
)

// Session tracks one user's progress through the publish wizard. Sessions
// live in memory only and do not survive a restart.
type Session struct {
	UserID       int64
	Step         Step
	MediaType    models.MediaType
	MediaFileID  string
	Quantity     string
	Price        string
	Limit        string
	CreatedAt    time.Time
	LastActivity time.Time

	// publishing is set once a confirm event has been accepted. It makes
	// duplicate confirm deliveries no-ops until the publish attempt
	// resolves.
	publishing bool
}

// Complete reports whether every field needed for publishing was captured.
func (s *Session) Complete() bool {
	return s.MediaFileID != "" && s.Quantity != "" && s.Price != "" && s.Limit != ""
}

// Fields returns the captured values keyed by template placeholder name.
func (s *Session) Fields() map[string]string {
	return map[string]string{
		"quantity":   s.Quantity,
		"price":      s.Price,
		"limit_type": s.Limit,
	}
}

// Manager owns the per-user session map. Sessions are fully user-partitioned;
// the lock only serializes map access and same-user duplicate deliveries.
type Manager struct {
	mu       sync.Mutex
	sessions map[int64]*Session
	timeout  time.Duration
}

// NewManager creates a manager with the given inactivity timeout.
func NewManager(timeout time.Duration) *Manager {
	return &Manager{
		sessions: make(map[int64]*Session),
		timeout:  timeout,
	}
}

// Create starts a fresh session for the user, silently replacing any
// existing one.
func (m *Manager) Create(userID int64) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	s := &Session{
		UserID:       userID,
		Step:         StepAwaitingMedia,
		CreatedAt:    now,
		LastActivity: now,
	}
	m.sessions[userID] = s
	return s
}

// Get returns the user's active session and refreshes its activity
// timestamp. expired is true when a session existed but exceeded the
// inactivity timeout; it has been removed and the caller should tell the
// user to restart.
func (m *Manager) Get(userID int64) (s *Session, expired bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[userID]
	if !ok {
		return nil, false
	}
	if m.timeout > 0 && time.Since(s.LastActivity) >= m.timeout {
		delete(m.sessions, userID)
		return nil, true
	}
	s.LastActivity = time.Now()
	return s, false
}

// Advance applies a mutation to the user's session under the manager lock.
// Returns false when no active session exists.
func (m *Manager) Advance(userID int64, mutate func(*Session)) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[userID]
	if !ok {
		return false
	}
	mutate(s)
	s.LastActivity = time.Now()
	return true
}

// BeginPublish marks the session consumed before any dispatch happens, so a
// redelivered confirm event cannot trigger a second channel post. Returns
// false if the session is absent or already consumed.
func (m *Manager) BeginPublish(userID int64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[userID]
	if !ok || s.publishing {
		return false
	}
	s.publishing = true
	return true
}

// AbortPublish clears the consumed mark after a failed dispatch, keeping the
// session alive so the user can retry.
func (m *Manager) AbortPublish(userID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if s, ok := m.sessions[userID]; ok {
		s.publishing = false
	}
}

// Destroy removes the user's session, if any.
func (m *Manager) Destroy(userID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, userID)
}

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}
