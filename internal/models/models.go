package models

import "time"

// MediaType identifies the kind of media attached to a post
type MediaType string

const (
	MediaPhoto MediaType = "photo"
	MediaVideo MediaType = "video"
)

// LimitType is the restriction tag attached to a post
type LimitType string

const (
	LimitP       LimitType = "P"
	LimitPP      LimitType = "PP"
	LimitGeneral LimitType = "GENERAL"
)

// Member represents a user known to the permission store.
// Members are created lazily on first contact and never hard-deleted;
// banning is a flag, not a removal.
type Member struct {
	UserID      int64
	DisplayName string
	// HasGrant false means the user was never approved (or the grant was
	// revoked). ExpiresAt is nil for lifetime grants.
	HasGrant    bool
	ExpiresAt   *time.Time
	Banned      bool
	LastPublish *time.Time
}

// Whitelisted reports whether the member currently holds publishing rights.
func (m Member) Whitelisted(now time.Time) bool {
	if !m.HasGrant {
		return false
	}
	return m.ExpiresAt == nil || m.ExpiresAt.After(now)
}
