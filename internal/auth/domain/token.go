package domain

import "time"

// TokenPair is what a successful login returns: the short-lived access token
// (JWT) and the long-lived refresh token.
type TokenPair struct {
	AccessToken  string        `json:"access_token"`
	RefreshToken string        `json:"refresh_token"`
	TokenType    string        `json:"token_type,omitempty"` // typically "Bearer"
	ExpiresIn    time.Duration `json:"expires_in"`           // access token lifetime
}

// RefreshToken models the stored refresh token record. A user may hold many
// concurrently (one per device). Revocation is row deletion: once the row is
// gone the token is dead regardless of its embedded expiry.
type RefreshToken struct {
	ID        string // ULID
	UserID    int64
	TokenHash string // base64url SHA-256 fingerprint of the signed token
	ExpiresAt time.Time
	CreatedAt time.Time
}

// PasswordResetToken models a stored single-use reset credential. The raw
// token only ever travels in the reset mail; the row keeps its fingerprint.
type PasswordResetToken struct {
	ID        string // ULID
	UserID    int64
	TokenHash string
	ExpiresAt time.Time
	CreatedAt time.Time
}
