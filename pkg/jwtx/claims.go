package jwtx

import (
	"crypto/rand"
	"encoding/base64"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Default token TTL constants. These provide sensible security defaults but
// can be overridden per-service.
const (
	// DefaultAccessTokenTTL is the default lifetime for access tokens.
	// Short-lived for security.
	DefaultAccessTokenTTL = 15 * time.Minute

	// DefaultRefreshTokenTTL is the default lifetime for refresh tokens.
	// Longer-lived for user convenience.
	DefaultRefreshTokenTTL = 7 * 24 * time.Hour
)

// Token use markers carried in the "use" claim. An access verifier must not
// accept a refresh token and vice versa, even when both secrets are the same.
const (
	TokenUseAccess  = "access"
	TokenUseRefresh = "refresh"
)

// Claims are the token claims used across services. Keep changes additive to
// preserve compatibility with already-issued tokens.
type Claims struct {
	jwt.RegisteredClaims

	// Username for the authenticated user.
	Username string `json:"username,omitempty"`

	// Role is the user's role ("user" or "admin"). Carrying it in the token
	// lets resource services authorize without a store round-trip.
	Role string `json:"role,omitempty"`

	// TokenUse distinguishes access tokens from refresh tokens.
	TokenUse string `json:"use,omitempty"`
}

// NewClaims builds minimally-correct claims for a user token.
func NewClaims(
	userID int64,
	username, role string,
	tokenUse string,
	ttl time.Duration,
	issuer string,
	now time.Time,
) Claims {
	return Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   strconv.FormatInt(userID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        NewJTI(),
		},
		Username: username,
		Role:     role,
		TokenUse: tokenUse,
	}
}

// UserID parses the numeric user id out of the subject claim.
func (c *Claims) UserID() (int64, error) {
	id, err := strconv.ParseInt(c.Subject, 10, 64)
	if err != nil {
		return 0, ErrInvalidClaim
	}
	return id, nil
}

// NewJTI returns a URL-safe random identifier for the "jti" claim.
func NewJTI() string {
	var b [20]byte
	_, _ = rand.Read(b[:])
	return base64.RawURLEncoding.EncodeToString(b[:])
}
