package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"time"

	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"

	"pubbot/internal/models"
)

// Migrations holds the goose migration scripts for the sqlite schema.
// cmd/migrate reuses them so the standalone runner and Initialize apply
// the exact same schema.
//
//go:embed migrations/*.sql
var Migrations embed.FS

type SQLiteStore struct {
	db *sql.DB
}

// New opens (or creates) the sqlite database at path.
func New(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}

	// A single writer avoids SQLITE_BUSY under concurrent webhook handling.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping sqlite database: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Initialize applies the embedded migrations.
func (s *SQLiteStore) Initialize(ctx context.Context) error {
	goose.SetBaseFS(Migrations)
	defer goose.SetBaseFS(nil)

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}
	if err := goose.UpContext(ctx, s.db, "migrations"); err != nil {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}
	return nil
}

func (s *SQLiteStore) IsWhitelisted(ctx context.Context, userID int64) (bool, error) {
	var hasGrant bool
	var expiresAt sql.NullInt64
	err := s.db.QueryRowContext(ctx,
		`SELECT has_grant, expires_at FROM members WHERE user_id = ?`, userID).
		Scan(&hasGrant, &expiresAt)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to query member %d: %w", userID, err)
	}
	if !hasGrant {
		return false, nil
	}
	if !expiresAt.Valid {
		return true, nil
	}
	return time.Unix(expiresAt.Int64, 0).After(time.Now()), nil
}

func (s *SQLiteStore) IsBanned(ctx context.Context, userID int64) (bool, error) {
	var banned bool
	err := s.db.QueryRowContext(ctx,
		`SELECT banned FROM members WHERE user_id = ?`, userID).Scan(&banned)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to query member %d: %w", userID, err)
	}
	return banned, nil
}

// Grant sets or extends membership. Extensions count from whichever is later,
// the current expiry or now, so granting never shortens a running membership.
func (s *SQLiteStore) Grant(ctx context.Context, userID int64, days int) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var expiresAt sql.NullInt64
	err = tx.QueryRowContext(ctx,
		`SELECT expires_at FROM members WHERE user_id = ? AND has_grant = 1`, userID).
		Scan(&expiresAt)
	if err != nil && err != sql.ErrNoRows {
		return fmt.Errorf("failed to query member %d: %w", userID, err)
	}

	var newExpiry sql.NullInt64
	if days > 0 {
		base := time.Now()
		if expiresAt.Valid {
			if current := time.Unix(expiresAt.Int64, 0); current.After(base) {
				base = current
			}
		}
		newExpiry = sql.NullInt64{Int64: base.AddDate(0, 0, days).Unix(), Valid: true}
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO members (user_id, has_grant, expires_at)
		VALUES (?, 1, ?)
		ON CONFLICT(user_id) DO UPDATE SET has_grant = 1, expires_at = excluded.expires_at`,
		userID, newExpiry)
	if err != nil {
		return fmt.Errorf("failed to grant member %d: %w", userID, err)
	}
	return tx.Commit()
}

func (s *SQLiteStore) Revoke(ctx context.Context, userID int64) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE members SET has_grant = 0, expires_at = NULL WHERE user_id = ?`, userID)
	if err != nil {
		return fmt.Errorf("failed to revoke member %d: %w", userID, err)
	}
	return nil
}

// Ban flags the user and revokes any membership.
func (s *SQLiteStore) Ban(ctx context.Context, userID int64) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO members (user_id, banned, has_grant, expires_at)
		VALUES (?, 1, 0, NULL)
		ON CONFLICT(user_id) DO UPDATE SET banned = 1, has_grant = 0, expires_at = NULL`,
		userID)
	if err != nil {
		return fmt.Errorf("failed to ban member %d: %w", userID, err)
	}
	return nil
}

func (s *SQLiteStore) Unban(ctx context.Context, userID int64) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE members SET banned = 0 WHERE user_id = ?`, userID)
	if err != nil {
		return fmt.Errorf("failed to unban member %d: %w", userID, err)
	}
	return nil
}

func (s *SQLiteStore) LastPublish(ctx context.Context, userID int64) (time.Time, bool, error) {
	var last sql.NullInt64
	err := s.db.QueryRowContext(ctx,
		`SELECT last_publish FROM members WHERE user_id = ?`, userID).Scan(&last)
	if err == sql.ErrNoRows {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, fmt.Errorf("failed to query member %d: %w", userID, err)
	}
	if !last.Valid {
		return time.Time{}, false, nil
	}
	return time.Unix(last.Int64, 0), true, nil
}

func (s *SQLiteStore) RecordPublish(ctx context.Context, userID int64, at time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO members (user_id, last_publish) VALUES (?, ?)
		ON CONFLICT(user_id) DO UPDATE SET last_publish = excluded.last_publish`,
		userID, at.Unix())
	if err != nil {
		return fmt.Errorf("failed to record publish for member %d: %w", userID, err)
	}
	return nil
}

func (s *SQLiteStore) Template(ctx context.Context) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM config WHERE key = 'template'`).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to query template: %w", err)
	}
	return value, nil
}

func (s *SQLiteStore) SetTemplate(ctx context.Context, text string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO config (key, value) VALUES ('template', ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`, text)
	if err != nil {
		return fmt.Errorf("failed to set template: %w", err)
	}
	return nil
}

// Member registers the user on first contact and returns the stored record.
func (s *SQLiteStore) Member(ctx context.Context, userID int64, displayName string) (models.Member, bool, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO members (user_id, display_name) VALUES (?, ?)
		ON CONFLICT(user_id) DO NOTHING`, userID, displayName)
	if err != nil {
		return models.Member{}, false, fmt.Errorf("failed to register member %d: %w", userID, err)
	}
	inserted, err := res.RowsAffected()
	if err != nil {
		return models.Member{}, false, fmt.Errorf("failed to read insert result: %w", err)
	}

	member := models.Member{UserID: userID}
	var hasGrant, banned bool
	var name string
	var expiresAt, lastPublish sql.NullInt64
	err = s.db.QueryRowContext(ctx, `
		SELECT display_name, has_grant, expires_at, banned, last_publish
		FROM members WHERE user_id = ?`, userID).
		Scan(&name, &hasGrant, &expiresAt, &banned, &lastPublish)
	if err != nil {
		return models.Member{}, false, fmt.Errorf("failed to query member %d: %w", userID, err)
	}

	member.DisplayName = name
	member.HasGrant = hasGrant
	member.Banned = banned
	if expiresAt.Valid {
		t := time.Unix(expiresAt.Int64, 0)
		member.ExpiresAt = &t
	}
	if lastPublish.Valid {
		t := time.Unix(lastPublish.Int64, 0)
		member.LastPublish = &t
	}
	return member, inserted > 0, nil
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
