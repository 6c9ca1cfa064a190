// Package authstore persists authenticated identity grants across
// connections, so a client that reconnects with a session token doesn't
// need to re-present its bearer credential on every resumed stream.
package authstore

import (
	"time"

	"github.com/google/uuid"
)

// Grant is a durable record of an authenticated identity, referenced by
// an opaque session-bound id rather than the bearer token itself.
type Grant struct {
	// ID is the opaque identifier handed back to the client as its
	// session token.
	ID string
	// FamilyID groups grants produced by rotating the same original
	// grant, so every descendant can be revoked together.
	FamilyID string

	// Subject identifies the authenticated principal.
	Subject string
	// Scopes lists the claims or roles carried by this grant.
	Scopes []string

	CreatedAt    time.Time
	LastUsedAt   time.Time
	ExpiresAt    time.Time // idle expiry, extended by Touch
	MaxExpiresAt time.Time // absolute cap, never extended

	// Meta carries implementer-defined bookkeeping (e.g. client name).
	Meta map[string]string
}

// NewGrant creates a Grant for subject with freshly generated ids and
// the creation timestamp set to now.
func NewGrant(subject string) *Grant {
	now := time.Now()
	return &Grant{
		ID:         uuid.New().String(),
		FamilyID:   uuid.New().String(),
		Subject:    subject,
		CreatedAt:  now,
		LastUsedAt: now,
	}
}

func cloneGrant(g *Grant) *Grant {
	if g == nil {
		return nil
	}
	dup := *g
	if g.Scopes != nil {
		dup.Scopes = append([]string(nil), g.Scopes...)
	}
	if g.Meta != nil {
		dup.Meta = make(map[string]string, len(g.Meta))
		for k, v := range g.Meta {
			dup.Meta[k] = v
		}
	}
	return &dup
}
