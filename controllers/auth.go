package controllers

import (
	"net/http"
	"strings"

	"github.com/Avishkar-x/Video-Streaming/apperrors"
	"github.com/Avishkar-x/Video-Streaming/config"
	"github.com/Avishkar-x/Video-Streaming/forms"
	"github.com/Avishkar-x/Video-Streaming/models"
	"github.com/Avishkar-x/Video-Streaming/service"
	"github.com/gin-gonic/gin"
)

const (
	accessTokenCookie  = "accessToken"
	refreshTokenCookie = "refreshToken"

	ctxUserIDKey = "userID"
	ctxUserKey   = "user"
)

// AuthController carries the auth middleware and the token refresh
// endpoint.
type AuthController struct {
	users  *service.UserService
	tokens *service.TokenService
	cfg    *config.Config
}

// NewAuthController creates and returns a new AuthController instance
func NewAuthController(users *service.UserService, tokens *service.TokenService, cfg *config.Config) *AuthController {
	return &AuthController{users: users, tokens: tokens, cfg: cfg}
}

// RequireAuth validates the access token from the cookie or Authorization
// header and resolves it to a live user, which downstream handlers read
// from the context. Every failure mode answers with the same 401 so the
// response gives no hint which check tripped.
func (ctrl AuthController) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := extractAccessToken(c)
		if tokenString == "" {
			respondError(c, http.StatusUnauthorized, apperrors.ErrUnauthorized.Error())
			return
		}

		idHex, err := ctrl.tokens.VerifyAccessToken(tokenString)
		if err != nil {
			respondError(c, http.StatusUnauthorized, apperrors.ErrUnauthorized.Error())
			return
		}

		id, err := models.ParseUserID(idHex)
		if err != nil {
			respondError(c, http.StatusUnauthorized, apperrors.ErrUnauthorized.Error())
			return
		}

		user, err := ctrl.users.ResolveUser(c.Request.Context(), id)
		if err != nil {
			respondError(c, http.StatusUnauthorized, apperrors.ErrUnauthorized.Error())
			return
		}

		c.Set(ctxUserIDKey, id)
		c.Set(ctxUserKey, user)
		c.Next()
	}
}

// Refresh exchanges the refresh token, taken from the cookie or the body,
// for a rotated pair.
func (ctrl AuthController) Refresh(c *gin.Context) {
	presented, err := c.Cookie(refreshTokenCookie)
	if err != nil || presented == "" {
		var tokenForm forms.Token
		if err := c.ShouldBind(&tokenForm); err == nil {
			presented = tokenForm.RefreshToken
		}
	}

	pair, err := ctrl.users.Refresh(c.Request.Context(), presented)
	if err != nil {
		respondAppError(c, err)
		return
	}

	setAuthCookies(c, pair, ctrl.cfg)
	respond(c, http.StatusOK, pair, "Access token refreshed")
}

func extractAccessToken(c *gin.Context) string {
	if cookie, err := c.Cookie(accessTokenCookie); err == nil && cookie != "" {
		return cookie
	}

	// expected shape: "Authorization: Bearer the_token_xxx"
	bearToken := c.GetHeader("Authorization")
	parts := strings.Split(bearToken, " ")
	if len(parts) == 2 && parts[0] == "Bearer" {
		return parts[1]
	}

	return ""
}

func setAuthCookies(c *gin.Context, pair models.TokenPair, cfg *config.Config) {
	c.SetCookie(accessTokenCookie, pair.AccessToken, int(cfg.AccessTokenTTL.Seconds()), "/", "", cfg.SecureCookies, true)
	c.SetCookie(refreshTokenCookie, pair.RefreshToken, int(cfg.RefreshTokenTTL.Seconds()), "/", "", cfg.SecureCookies, true)
}

func clearAuthCookies(c *gin.Context, cfg *config.Config) {
	c.SetCookie(accessTokenCookie, "", -1, "/", "", cfg.SecureCookies, true)
	c.SetCookie(refreshTokenCookie, "", -1, "/", "", cfg.SecureCookies, true)
}
