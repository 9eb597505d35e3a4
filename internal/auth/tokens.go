// internal/auth/tokens.go
package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"loanbridge/internal/common/database"
	"loanbridge/internal/common/errors"
	"loanbridge/internal/models"
)

// TokenService issues opaque bearer token pairs backed by Redis sessions.
type TokenService struct {
	redis      *database.RedisClient
	accessTTL  time.Duration
	refreshTTL time.Duration
}

func NewTokenService(rdb *database.RedisClient, accessTTL, refreshTTL time.Duration) *TokenService {
	return &TokenService{redis: rdb, accessTTL: accessTTL, refreshTTL: refreshTTL}
}

func accessKey(token string) string  { return fmt.Sprintf("auth:access:%s", token) }
func refreshKey(token string) string { return fmt.Sprintf("auth:refresh:%s", token) }

// Issue creates a session for the user and returns its token pair.
func (s *TokenService) Issue(ctx context.Context, user *models.User) (*models.Session, error) {
	access, err := randomToken()
	if err != nil {
		return nil, err
	}
	refresh, err := randomToken()
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	sess := &models.Session{
		ID:           uuid.New().String(),
		UserID:       user.ID,
		Role:         user.Role,
		AccessToken:  access,
		RefreshToken: refresh,
		CreatedAt:    now,
		ExpiresAt:    now.Add(s.accessTTL),
	}

	data, err := json.Marshal(sess)
	if err != nil {
		return nil, fmt.Errorf("failed to encode session: %w", err)
	}

	if err := s.redis.Set(ctx, accessKey(access), data, s.accessTTL); err != nil {
		return nil, fmt.Errorf("failed to store session: %w", err)
	}
	if err := s.redis.Set(ctx, refreshKey(refresh), data, s.refreshTTL); err != nil {
		return nil, fmt.Errorf("failed to store refresh session: %w", err)
	}

	return sess, nil
}

// Validate resolves an access token to its session.
func (s *TokenService) Validate(ctx context.Context, accessToken string) (*models.Session, error) {
	raw, err := s.redis.Get(ctx, accessKey(accessToken))
	if err != nil {
		if err == redis.Nil {
			return nil, errors.NewAuthTokenInvalidError("unknown access token")
		}
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	var sess models.Session
	if err := json.Unmarshal([]byte(raw), &sess); err != nil {
		return nil, fmt.Errorf("failed to decode session: %w", err)
	}
	if sess.IsExpired() {
		return nil, errors.NewAuthTokenInvalidError("session expired")
	}
	return &sess, nil
}

// Revoke drops both halves of a session's token pair.
func (s *TokenService) Revoke(ctx context.Context, sess *models.Session) error {
	return s.redis.Del(ctx, accessKey(sess.AccessToken), refreshKey(sess.RefreshToken))
}

func randomToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
