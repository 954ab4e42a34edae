package service

import (
	"testing"
	"time"

	"github.com/Avishkar-x/Video-Streaming/apperrors"
	"github.com/Avishkar-x/Video-Streaming/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testTokenService(accessTTL, refreshTTL time.Duration) *TokenService {
	return NewTokenService(&config.Config{
		AccessTokenSecret:  "access-secret",
		RefreshTokenSecret: "refresh-secret",
		AccessTokenTTL:     accessTTL,
		RefreshTokenTTL:    refreshTTL,
	})
}

func TestTokenService_RoundTrip(t *testing.T) {
	ts := testTokenService(time.Minute, time.Hour)
	userID := "64b7f1d2a1b2c3d4e5f60718"

	access, err := ts.IssueAccessToken(userID)
	require.NoError(t, err)
	refresh, err := ts.IssueRefreshToken(userID)
	require.NoError(t, err)

	gotAccess, err := ts.VerifyAccessToken(access)
	require.NoError(t, err)
	assert.Equal(t, userID, gotAccess)

	gotRefresh, err := ts.VerifyRefreshToken(refresh)
	require.NoError(t, err)
	assert.Equal(t, userID, gotRefresh)
}

func TestTokenService_Expired(t *testing.T) {
	ts := testTokenService(-time.Second, -time.Second)

	access, err := ts.IssueAccessToken("u1")
	require.NoError(t, err)

	_, err = ts.VerifyAccessToken(access)
	assert.ErrorIs(t, err, apperrors.ErrTokenExpired)
}

func TestTokenService_KeySeparation(t *testing.T) {
	ts := testTokenService(time.Minute, time.Hour)

	access, err := ts.IssueAccessToken("u1")
	require.NoError(t, err)
	refresh, err := ts.IssueRefreshToken("u1")
	require.NoError(t, err)

	// tokens signed with one secret must not verify against the other
	_, err = ts.VerifyRefreshToken(access)
	assert.ErrorIs(t, err, apperrors.ErrTokenInvalid)
	_, err = ts.VerifyAccessToken(refresh)
	assert.ErrorIs(t, err, apperrors.ErrTokenInvalid)
}

func TestTokenService_WrongSecret(t *testing.T) {
	ts := testTokenService(time.Minute, time.Hour)
	other := NewTokenService(&config.Config{
		AccessTokenSecret:  "different",
		RefreshTokenSecret: "also-different",
		AccessTokenTTL:     time.Minute,
		RefreshTokenTTL:    time.Hour,
	})

	access, err := ts.IssueAccessToken("u1")
	require.NoError(t, err)

	_, err = other.VerifyAccessToken(access)
	assert.ErrorIs(t, err, apperrors.ErrTokenInvalid)
}

func TestTokenService_Malformed(t *testing.T) {
	ts := testTokenService(time.Minute, time.Hour)

	for _, tokenString := range []string{"", "not.a.jwt", "garbage"} {
		_, err := ts.VerifyAccessToken(tokenString)
		assert.ErrorIs(t, err, apperrors.ErrTokenInvalid, "token %q", tokenString)
	}
}
