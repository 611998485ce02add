package domain

import "time"

// TokenPair is what login and refresh return: a short-lived access JWT
// and a longer-lived refresh JWT.
type TokenPair struct {
	AccessToken  string        `json:"access_token"`
	RefreshToken string        `json:"refresh_token"`
	TokenType    string        `json:"token_type"` // always "Bearer"
	ExpiresIn    time.Duration `json:"expires_in"` // seconds until access expiry
}
