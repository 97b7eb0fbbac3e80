package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"pubbot/internal/models"
)

// document is the on-disk JSON layout. Whitelist maps user ID to an RFC3339
// expiry; an empty string marks a lifetime grant.
type document struct {
	Whitelist   map[string]string `json:"whitelist"`
	Banned      []int64           `json:"banned"`
	Template    string            `json:"template"`
	LastPublish map[string]string `json:"last_publish"`
	Names       map[string]string `json:"names,omitempty"`
}

// FileStore keeps all state in a single JSON document, rewritten on every
// mutation. Suited to single-process deployments with a handful of users.
type FileStore struct {
	mu   sync.Mutex
	path string
	doc  document
}

// New creates a store backed by the JSON document at path.
func New(path string) *FileStore {
	return &FileStore{path: path}
}

// Initialize loads the document, creating an empty one if missing.
func (s *FileStore) Initialize(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		s.doc = emptyDocument()
		return s.saveLocked()
	}
	if err != nil {
		return fmt.Errorf("failed to read data file: %w", err)
	}
	if err := json.Unmarshal(data, &s.doc); err != nil {
		return fmt.Errorf("failed to parse data file %s: %w", s.path, err)
	}
	normalize(&s.doc)
	return nil
}

func emptyDocument() document {
	doc := document{}
	normalize(&doc)
	return doc
}

func normalize(doc *document) {
	if doc.Whitelist == nil {
		doc.Whitelist = make(map[string]string)
	}
	if doc.LastPublish == nil {
		doc.LastPublish = make(map[string]string)
	}
	if doc.Names == nil {
		doc.Names = make(map[string]string)
	}
}

// saveLocked writes the document atomically. Caller holds the mutex.
func (s *FileStore) saveLocked() error {
	data, err := json.MarshalIndent(s.doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode data file: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write data file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("failed to replace data file: %w", err)
	}
	return nil
}

func key(userID int64) string {
	return strconv.FormatInt(userID, 10)
}

func (s *FileStore) IsWhitelisted(ctx context.Context, userID int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	expiry, ok := s.doc.Whitelist[key(userID)]
	if !ok {
		return false, nil
	}
	if expiry == "" {
		return true, nil
	}
	t, err := time.Parse(time.RFC3339, expiry)
	if err != nil {
		return false, fmt.Errorf("invalid expiry for user %d: %w", userID, err)
	}
	return t.After(time.Now()), nil
}

func (s *FileStore) IsBanned(ctx context.Context, userID int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bannedLocked(userID), nil
}

func (s *FileStore) bannedLocked(userID int64) bool {
	for _, id := range s.doc.Banned {
		if id == userID {
			return true
		}
	}
	return false
}

func (s *FileStore) Grant(ctx context.Context, userID int64, days int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	expiry := ""
	if days > 0 {
		base := time.Now()
		if current, ok := s.doc.Whitelist[key(userID)]; ok && current != "" {
			if t, err := time.Parse(time.RFC3339, current); err == nil && t.After(base) {
				base = t
			}
		}
		expiry = base.AddDate(0, 0, days).Format(time.RFC3339)
	}
	s.doc.Whitelist[key(userID)] = expiry
	return s.saveLocked()
}

func (s *FileStore) Revoke(ctx context.Context, userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.doc.Whitelist, key(userID))
	return s.saveLocked()
}

func (s *FileStore) Ban(ctx context.Context, userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.doc.Whitelist, key(userID))
	if !s.bannedLocked(userID) {
		s.doc.Banned = append(s.doc.Banned, userID)
	}
	return s.saveLocked()
}

func (s *FileStore) Unban(ctx context.Context, userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	banned := s.doc.Banned[:0]
	for _, id := range s.doc.Banned {
		if id != userID {
			banned = append(banned, id)
		}
	}
	s.doc.Banned = banned
	return s.saveLocked()
}

func (s *FileStore) LastPublish(ctx context.Context, userID int64) (time.Time, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, ok := s.doc.LastPublish[key(userID)]
	if !ok {
		return time.Time{}, false, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("invalid last publish for user %d: %w", userID, err)
	}
	return t, true, nil
}

func (s *FileStore) RecordPublish(ctx context.Context, userID int64, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.doc.LastPublish[key(userID)] = at.Format(time.RFC3339)
	return s.saveLocked()
}

func (s *FileStore) Template(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc.Template, nil
}

func (s *FileStore) SetTemplate(ctx context.Context, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.doc.Template = text
	return s.saveLocked()
}

func (s *FileStore) Member(ctx context.Context, userID int64, displayName string) (models.Member, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := key(userID)
	_, seen := s.doc.Names[k]
	if !seen {
		s.doc.Names[k] = displayName
		if err := s.saveLocked(); err != nil {
			return models.Member{}, false, err
		}
	}

	member := models.Member{
		UserID:      userID,
		DisplayName: s.doc.Names[k],
		Banned:      s.bannedLocked(userID),
	}
	if expiry, ok := s.doc.Whitelist[k]; ok {
		member.HasGrant = true
		if expiry != "" {
			t, err := time.Parse(time.RFC3339, expiry)
			if err != nil {
				return models.Member{}, false, fmt.Errorf("invalid expiry for user %d: %w", userID, err)
			}
			member.ExpiresAt = &t
		}
	}
	if raw, ok := s.doc.LastPublish[k]; ok {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return models.Member{}, false, fmt.Errorf("invalid last publish for user %d: %w", userID, err)
		}
		member.LastPublish = &t
	}
	return member, !seen, nil
}

// Close is a no-op; the document is flushed on every mutation.
func (s *FileStore) Close() error {
	return nil
}
