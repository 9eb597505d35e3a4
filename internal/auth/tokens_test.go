// internal/auth/tokens_test.go
package auth

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"loanbridge/internal/common/database"
	"loanbridge/internal/models"
)

func newTestTokenService(t *testing.T) (*TokenService, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return NewTokenService(database.NewRedisFromClient(client), time.Hour, 24*time.Hour), mr
}

func TestTokenIssueAndValidate(t *testing.T) {
	svc, _ := newTestTokenService(t)
	ctx := context.Background()

	user := &models.User{ID: "u1", Mobile: "9876543210", Role: models.RoleCustomer}
	sess, err := svc.Issue(ctx, user)
	require.NoError(t, err)
	assert.Len(t, sess.AccessToken, 64)
	assert.Len(t, sess.RefreshToken, 64)
	assert.NotEqual(t, sess.AccessToken, sess.RefreshToken)

	got, err := svc.Validate(ctx, sess.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "u1", got.UserID)
	assert.Equal(t, models.RoleCustomer, got.Role)
}

func TestTokenValidateUnknown(t *testing.T) {
	svc, _ := newTestTokenService(t)

	_, err := svc.Validate(context.Background(), "not-a-token")
	assert.Error(t, err)
}

func TestTokenExpiry(t *testing.T) {
	svc, mr := newTestTokenService(t)
	ctx := context.Background()

	sess, err := svc.Issue(ctx, &models.User{ID: "u1", Role: models.RoleCustomer})
	require.NoError(t, err)

	mr.FastForward(2 * time.Hour)
	_, err = svc.Validate(ctx, sess.AccessToken)
	assert.Error(t, err)
}

func TestTokenRevoke(t *testing.T) {
	svc, _ := newTestTokenService(t)
	ctx := context.Background()

	sess, err := svc.Issue(ctx, &models.User{ID: "u1", Role: models.RoleAdmin})
	require.NoError(t, err)

	require.NoError(t, svc.Revoke(ctx, sess))
	_, err = svc.Validate(ctx, sess.AccessToken)
	assert.Error(t, err)
}
