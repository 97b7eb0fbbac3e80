package storage

import (
	"context"
	"errors"
	"time"

	"pubbot/internal/models"
)

// ErrUnavailable is returned when the backing store cannot be reached.
// Callers surface it to users as a generic "try again" message.
var ErrUnavailable = errors.New("storage unavailable")

// DefaultTemplate is used when the admin has not configured one yet.
const DefaultTemplate = "数量：{quantity}\n价格：{price}\n限制：{limit_type}"

// Store defines the interface for permission and template persistence.
// Implementations: sqlite (relational), file (flat JSON document),
// stubs (in-memory, for tests and local development).
type Store interface {
	// Permission operations
	IsWhitelisted(ctx context.Context, userID int64) (bool, error)
	IsBanned(ctx context.Context, userID int64) (bool, error)

	// Grant sets or extends membership. days <= 0 grants without expiry.
	// Otherwise the new expiry is max(existing expiry, now) + days, so
	// extending never shortens a running grant.
	Grant(ctx context.Context, userID int64, days int) error
	Revoke(ctx context.Context, userID int64) error

	// Ban also revokes membership; Unban does not restore it.
	Ban(ctx context.Context, userID int64) error
	Unban(ctx context.Context, userID int64) error

	// Rate limiting
	LastPublish(ctx context.Context, userID int64) (time.Time, bool, error)
	RecordPublish(ctx context.Context, userID int64, at time.Time) error

	// Template operations
	Template(ctx context.Context) (string, error)
	SetTemplate(ctx context.Context, text string) error

	// Member registers the user on first contact and returns the stored
	// record. created is true when the user was not seen before.
	Member(ctx context.Context, userID int64, displayName string) (member models.Member, created bool, err error)

	// Lifecycle
	Initialize(ctx context.Context) error
	Close() error
}
