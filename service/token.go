package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/Avishkar-x/Video-Streaming/apperrors"
	"github.com/Avishkar-x/Video-Streaming/config"
	jwt "github.com/golang-jwt/jwt/v4"
)

// TokenClaims embeds the registered claims and carries the user ID as the
// subject of the token.
type TokenClaims struct {
	jwt.RegisteredClaims
	UserID string `json:"user_id"`
}

// TokenService mints and verifies the signed access and refresh tokens.
// Access and refresh tokens are signed with separate secrets so a leaked
// access secret cannot forge refresh tokens.
type TokenService struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
}

func NewTokenService(cfg *config.Config) *TokenService {
	return &TokenService{
		accessSecret:  []byte(cfg.AccessTokenSecret),
		refreshSecret: []byte(cfg.RefreshTokenSecret),
		accessTTL:     cfg.AccessTokenTTL,
		refreshTTL:    cfg.RefreshTokenTTL,
	}
}

// IssueAccessToken creates a short-lived signed token for the given user ID.
func (ts *TokenService) IssueAccessToken(userID string) (string, error) {
	return sign(userID, ts.accessSecret, ts.accessTTL)
}

// IssueRefreshToken creates a long-lived signed token for the given user ID.
func (ts *TokenService) IssueRefreshToken(userID string) (string, error) {
	return sign(userID, ts.refreshSecret, ts.refreshTTL)
}

// VerifyAccessToken returns the user ID embedded in a valid access token.
func (ts *TokenService) VerifyAccessToken(tokenString string) (string, error) {
	return verify(tokenString, ts.accessSecret)
}

// VerifyRefreshToken returns the user ID embedded in a valid refresh token.
func (ts *TokenService) VerifyRefreshToken(tokenString string) (string, error) {
	return verify(tokenString, ts.refreshSecret)
}

func sign(userID string, secret []byte, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := TokenClaims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return token, nil
}

func verify(tokenString string, secret []byte) (string, error) {
	claims := &TokenClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", apperrors.ErrTokenExpired
		}
		return "", apperrors.ErrTokenInvalid
	}

	if !token.Valid || claims.UserID == "" {
		return "", apperrors.ErrTokenInvalid
	}

	return claims.UserID, nil
}
