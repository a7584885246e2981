package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/webforge-labs/webforge-backend/internal/apperr"
)

const (
	sessionKeyPrefix = "sess:"      // Session data: sess:{token}
	userSessPrefix   = "sess:user:" // Set of live tokens per user: sess:user:{user_id}
)

// Session is an opaque credential binding a user id to an expiry. It is
// owned and rotated solely by the gate; the rest of the system only
// resolves it.
type Session struct {
	Token     string    `json:"token"`
	UserID    string    `json:"user_id"`
	ExpiresAt time.Time `json:"expires_at"`
}

// SessionStore keeps sessions in Redis with a TTL matching their expiry.
type SessionStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewSessionStore(client *redis.Client, ttl time.Duration) *SessionStore {
	return &SessionStore{client: client, ttl: ttl}
}

// Issue creates a fresh session for the user.
func (s *SessionStore) Issue(ctx context.Context, userID string) (*Session, error) {
	sess := &Session{
		Token:     uuid.NewString(),
		UserID:    userID,
		ExpiresAt: time.Now().Add(s.ttl).UTC(),
	}

	data, err := json.Marshal(sess)
	if err != nil {
		return nil, fmt.Errorf("marshal session: %w", err)
	}

	pipe := s.client.Pipeline()
	pipe.Set(ctx, sessionKeyPrefix+sess.Token, data, s.ttl)
	pipe.SAdd(ctx, userSessPrefix+userID, sess.Token)
	pipe.Expire(ctx, userSessPrefix+userID, s.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("store session: %w", err)
	}

	return sess, nil
}

// Resolve returns the session bound to token, or Unauthorized when the
// token is unknown or expired.
func (s *SessionStore) Resolve(ctx context.Context, token string) (*Session, error) {
	if token == "" {
		return nil, apperr.Unauthorized("missing session token")
	}

	data, err := s.client.Get(ctx, sessionKeyPrefix+token).Result()
	if err == redis.Nil {
		return nil, apperr.Unauthorized("invalid or expired session")
	}
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}

	var sess Session
	if err := json.Unmarshal([]byte(data), &sess); err != nil {
		return nil, fmt.Errorf("unmarshal session: %w", err)
	}
	return &sess, nil
}

// Revoke deletes one session.
func (s *SessionStore) Revoke(ctx context.Context, token string) error {
	sess, err := s.Resolve(ctx, token)
	if err != nil {
		return err
	}

	pipe := s.client.Pipeline()
	pipe.Del(ctx, sessionKeyPrefix+token)
	pipe.SRem(ctx, userSessPrefix+sess.UserID, token)
	_, err = pipe.Exec(ctx)
	return err
}

// RevokeAll deletes every live session of a user (credential rotation).
func (s *SessionStore) RevokeAll(ctx context.Context, userID string) error {
	tokens, err := s.client.SMembers(ctx, userSessPrefix+userID).Result()
	if err != nil {
		return err
	}

	pipe := s.client.Pipeline()
	for _, tok := range tokens {
		pipe.Del(ctx, sessionKeyPrefix+tok)
	}
	pipe.Del(ctx, userSessPrefix+userID)
	_, err = pipe.Exec(ctx)
	return err
}
