package authstore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore is a Store backed by Redis, for deployments where multiple
// server instances must share grant state.
type RedisStore struct {
	client      *redis.Client
	prefix      string
	idleTTL     time.Duration
	maxTTL      time.Duration
	rotateGrace time.Duration
}

// NewRedisStore creates a RedisStore. An empty prefix defaults to
// "turbomcp:auth:".
func NewRedisStore(client *redis.Client, prefix string, idleTTL, maxTTL, rotateGrace time.Duration) *RedisStore {
	if prefix == "" {
		prefix = "turbomcp:auth:"
	}
	return &RedisStore{client: client, prefix: prefix, idleTTL: idleTTL, maxTTL: maxTTL, rotateGrace: rotateGrace}
}

func (s *RedisStore) keyGrant(id string) string   { return s.prefix + "grant:" + id }
func (s *RedisStore) keyFamily(fid string) string { return s.prefix + "family:" + fid }

func (s *RedisStore) applyDefaults(g *Grant, now time.Time) {
	if g.CreatedAt.IsZero() {
		g.CreatedAt = now
	}
	if g.LastUsedAt.IsZero() {
		g.LastUsedAt = now
	}
	if g.ExpiresAt.IsZero() && s.idleTTL > 0 {
		g.ExpiresAt = now.Add(s.idleTTL)
	}
	if g.MaxExpiresAt.IsZero() && s.maxTTL > 0 {
		g.MaxExpiresAt = now.Add(s.maxTTL)
	}
}

// Put implements Store.
func (s *RedisStore) Put(ctx context.Context, g *Grant) error {
	now := time.Now()
	s.applyDefaults(g, now)
	data, err := json.Marshal(g)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, s.keyGrant(g.ID), data, ttlFor(g, now)).Err(); err != nil {
		return err
	}
	return s.client.SAdd(ctx, s.keyFamily(g.FamilyID), g.ID).Err()
}

// Get implements Store.
func (s *RedisStore) Get(ctx context.Context, id string) (*Grant, error) {
	raw, err := s.client.Get(ctx, s.keyGrant(id)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, ErrNotFound
		}
		return nil, err
	}
	g := &Grant{}
	if err := json.Unmarshal(raw, g); err != nil {
		return nil, err
	}
	if expired(g, time.Now()) {
		_ = s.Revoke(ctx, id)
		return nil, ErrNotFound
	}
	return g, nil
}

// Touch implements Store.
func (s *RedisStore) Touch(ctx context.Context, id string, at time.Time) error {
	g, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	g.LastUsedAt = at
	if s.idleTTL > 0 {
		newExp := at.Add(s.idleTTL)
		if !g.MaxExpiresAt.IsZero() && newExp.After(g.MaxExpiresAt) {
			newExp = g.MaxExpiresAt
		}
		g.ExpiresAt = newExp
	}
	data, err := json.Marshal(g)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, s.keyGrant(id), data, ttlFor(g, time.Now())).Err()
}

// Rotate implements Store.
func (s *RedisStore) Rotate(ctx context.Context, oldID string, newGrant *Grant) (string, error) {
	old, err := s.Get(ctx, oldID)
	if err != nil {
		return "", err
	}
	now := time.Now()
	ng := *newGrant
	if ng.ID == "" {
		ng.ID = NewGrant(old.Subject).ID
	}
	ng.FamilyID = old.FamilyID
	s.applyDefaults(&ng, now)
	data, err := json.Marshal(&ng)
	if err != nil {
		return "", err
	}
	pipe := s.client.TxPipeline()
	pipe.Set(ctx, s.keyGrant(ng.ID), data, ttlFor(&ng, now))
	pipe.SAdd(ctx, s.keyFamily(ng.FamilyID), ng.ID)
	if s.rotateGrace > 0 {
		pipe.Expire(ctx, s.keyGrant(oldID), s.rotateGrace)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return "", err
	}
	return ng.ID, nil
}

// Revoke implements Store.
func (s *RedisStore) Revoke(ctx context.Context, id string) error {
	g, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.client.Del(ctx, s.keyGrant(id)).Err(); err != nil {
		return err
	}
	return s.client.SRem(ctx, s.keyFamily(g.FamilyID), id).Err()
}

// RevokeFamily implements Store.
func (s *RedisStore) RevokeFamily(ctx context.Context, familyID string) error {
	key := s.keyFamily(familyID)
	ids, err := s.client.SMembers(ctx, key).Result()
	if err != nil && err != redis.Nil {
		return err
	}
	pipe := s.client.TxPipeline()
	for _, id := range ids {
		pipe.Del(ctx, s.keyGrant(id))
	}
	pipe.Del(ctx, key)
	_, err = pipe.Exec(ctx)
	return err
}

func ttlFor(g *Grant, now time.Time) time.Duration {
	var until time.Time
	switch {
	case !g.ExpiresAt.IsZero() && !g.MaxExpiresAt.IsZero():
		if g.ExpiresAt.Before(g.MaxExpiresAt) {
			until = g.ExpiresAt
		} else {
			until = g.MaxExpiresAt
		}
	case !g.ExpiresAt.IsZero():
		until = g.ExpiresAt
	case !g.MaxExpiresAt.IsZero():
		until = g.MaxExpiresAt
	default:
		return 0
	}
	if until.Before(now) {
		return time.Second
	}
	return time.Until(until)
}

// String returns a diagnostic summary of the store's configuration.
func (s *RedisStore) String() string {
	return fmt.Sprintf("RedisStore{prefix=%s idleTTL=%s maxTTL=%s grace=%s}", s.prefix, s.idleTTL, s.maxTTL, s.rotateGrace)
}
