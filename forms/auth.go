package forms

// Token represents a refresh token structure used for authentication and
// token renewal. The field is optional in the body because the token may
// also arrive as a cookie.
type Token struct {
	RefreshToken string `form:"refresh_token" json:"refresh_token"`
}
