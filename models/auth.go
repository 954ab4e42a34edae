package models

// TokenPair is the access/refresh token pair returned to clients on login
// and refresh.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}
