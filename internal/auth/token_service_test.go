package auth

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskhub/internal/model"
)

func testUser() *model.User {
	return &model.User{ID: uuid.New(), Username: "alice", Email: "alice@example.com"}
}

func TestTokenService_AccessRoundTrip(t *testing.T) {
	svc := NewTokenService("access-secret", "refresh-secret", time.Minute, time.Hour)
	user := testUser()

	token, err := svc.IssueAccessToken(user)
	require.NoError(t, err)

	claims, err := svc.VerifyAccessToken(token)
	require.NoError(t, err)

	assert.Equal(t, user.ID.String(), claims.Subject)
	assert.Equal(t, "alice", claims.Username)

	id, err := claims.UserID()
	require.NoError(t, err)
	assert.Equal(t, user.ID, id)
}

func TestTokenService_RefreshRoundTrip(t *testing.T) {
	svc := NewTokenService("access-secret", "refresh-secret", time.Minute, time.Hour)
	user := testUser()

	token, err := svc.IssueRefreshToken(user)
	require.NoError(t, err)

	claims, err := svc.VerifyRefreshToken(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID.String(), claims.Subject)
}

func TestTokenService_KindsAreNotInterchangeable(t *testing.T) {
	svc := NewTokenService("access-secret", "refresh-secret", time.Minute, time.Hour)
	user := testUser()

	access, err := svc.IssueAccessToken(user)
	require.NoError(t, err)
	refresh, err := svc.IssueRefreshToken(user)
	require.NoError(t, err)

	_, err = svc.VerifyRefreshToken(access)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = svc.VerifyAccessToken(refresh)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenService_ExpiredToken(t *testing.T) {
	svc := NewTokenService("access-secret", "refresh-secret", -time.Minute, time.Hour)
	user := testUser()

	token, err := svc.IssueAccessToken(user)
	require.NoError(t, err)

	_, err = svc.VerifyAccessToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenService_WrongSecret(t *testing.T) {
	svc := NewTokenService("access-secret", "refresh-secret", time.Minute, time.Hour)
	other := NewTokenService("other-secret", "other-refresh", time.Minute, time.Hour)
	user := testUser()

	token, err := svc.IssueAccessToken(user)
	require.NoError(t, err)

	_, err = other.VerifyAccessToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenService_GarbageToken(t *testing.T) {
	svc := NewTokenService("access-secret", "refresh-secret", time.Minute, time.Hour)

	_, err := svc.VerifyAccessToken("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestClaims_UserIDInvalidSubject(t *testing.T) {
	claims := &Claims{}
	claims.Subject = "not-a-uuid"

	_, err := claims.UserID()
	assert.ErrorIs(t, err, ErrInvalidToken)
}
