package stubs

import (
	"context"
	"sync"
	"time"

	"pubbot/internal/models"
)

// MockStore is an in-memory implementation of the Store interface for tests
// and local development (STORAGE=mock).
type MockStore struct {
	mu        sync.RWMutex
	members   map[int64]*models.Member
	template  string
	forcedErr error
}

// NewMockStore creates a new mock store
func NewMockStore() *MockStore {
	return &MockStore{
		members: make(map[int64]*models.Member),
	}
}

// FailWith makes every subsequent operation return err. Pass nil to recover.
func (m *MockStore) FailWith(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.forcedErr = err
}

func (m *MockStore) Initialize(ctx context.Context) error {
	return nil
}

func (m *MockStore) memberLocked(userID int64) *models.Member {
	member, ok := m.members[userID]
	if !ok {
		member = &models.Member{UserID: userID}
		m.members[userID] = member
	}
	return member
}

func (m *MockStore) IsWhitelisted(ctx context.Context, userID int64) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.forcedErr != nil {
		return false, m.forcedErr
	}
	member, ok := m.members[userID]
	if !ok {
		return false, nil
	}
	return member.Whitelisted(time.Now()), nil
}

func (m *MockStore) IsBanned(ctx context.Context, userID int64) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.forcedErr != nil {
		return false, m.forcedErr
	}
	member, ok := m.members[userID]
	if !ok {
		return false, nil
	}
	return member.Banned, nil
}

func (m *MockStore) Grant(ctx context.Context, userID int64, days int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.forcedErr != nil {
		return m.forcedErr
	}
	member := m.memberLocked(userID)
	member.HasGrant = true
	if days <= 0 {
		member.ExpiresAt = nil
		return nil
	}
	base := time.Now()
	if member.ExpiresAt != nil && member.ExpiresAt.After(base) {
		base = *member.ExpiresAt
	}
	expiry := base.AddDate(0, 0, days)
	member.ExpiresAt = &expiry
	return nil
}

func (m *MockStore) Revoke(ctx context.Context, userID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.forcedErr != nil {
		return m.forcedErr
	}
	member := m.memberLocked(userID)
	member.HasGrant = false
	member.ExpiresAt = nil
	return nil
}

func (m *MockStore) Ban(ctx context.Context, userID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.forcedErr != nil {
		return m.forcedErr
	}
	member := m.memberLocked(userID)
	member.Banned = true
	member.HasGrant = false
	member.ExpiresAt = nil
	return nil
}

func (m *MockStore) Unban(ctx context.Context, userID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.forcedErr != nil {
		return m.forcedErr
	}
	m.memberLocked(userID).Banned = false
	return nil
}

func (m *MockStore) LastPublish(ctx context.Context, userID int64) (time.Time, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.forcedErr != nil {
		return time.Time{}, false, m.forcedErr
	}
	member, ok := m.members[userID]
	if !ok || member.LastPublish == nil {
		return time.Time{}, false, nil
	}
	return *member.LastPublish, true, nil
}

func (m *MockStore) RecordPublish(ctx context.Context, userID int64, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.forcedErr != nil {
		return m.forcedErr
	}
	member := m.memberLocked(userID)
	member.LastPublish = &at
	return nil
}

func (m *MockStore) Template(ctx context.Context) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.forcedErr != nil {
		return "", m.forcedErr
	}
	return m.template, nil
}

func (m *MockStore) SetTemplate(ctx context.Context, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.forcedErr != nil {
		return m.forcedErr
	}
	m.template = text
	return nil
}

func (m *MockStore) Member(ctx context.Context, userID int64, displayName string) (models.Member, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.forcedErr != nil {
		return models.Member{}, false, m.forcedErr
	}
	member, ok := m.members[userID]
	if !ok {
		member = &models.Member{UserID: userID, DisplayName: displayName}
		m.members[userID] = member
		return *member, true, nil
	}
	return *member, false, nil
}

// Close does nothing for the mock store
func (m *MockStore) Close() error {
	return nil
}
