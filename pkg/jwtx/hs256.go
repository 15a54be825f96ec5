package jwtx

import (
	"errors"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrMalformed    = errors.New("jwtx: malformed token")
	ErrInvalidSig   = errors.New("jwtx: invalid signature")
	ErrExpired      = errors.New("jwtx: token expired")
	ErrNotYetValid  = errors.New("jwtx: token not yet valid")
	ErrIssuer       = errors.New("jwtx: issuer mismatch")
	ErrInvalidClaim = errors.New("jwtx: invalid claims")

	errEmptySecret = errors.New("jwtx: signing secret must not be empty")
)

// Verifier validates a JWT and gives you back the claims if it's legit.
type Verifier interface {
	Verify(token string) (Claims, error)
}

// HS256 signs and verifies JWTs with a single shared secret. The access and
// refresh token paths each get their own instance; the secrets may differ.
type HS256 struct {
	secret []byte
	issuer string
}

// NewHS256 creates an HMAC-SHA256 signer/verifier. It fails on an empty
// secret so a misconfigured process dies at startup rather than minting
// forgeable tokens.
func NewHS256(secret []byte, issuer string) (*HS256, error) {
	if len(secret) == 0 {
		return nil, errEmptySecret
	}
	return &HS256{secret: secret, issuer: issuer}, nil
}

// Alg returns the JOSE algorithm identifier.
func (s *HS256) Alg() string { return "HS256" }

// Issuer returns the issuer claim this instance signs and enforces.
func (s *HS256) Issuer() string { return s.issuer }

// Sign serializes and signs the claims.
func (s *HS256) Sign(c Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	return token.SignedString(s.secret)
}

// Verify parses the token, enforcing the HS256 algorithm, the signature, the
// expiry/not-before window, and the issuer. Claims are only returned for a
// fully valid token.
func (s *HS256) Verify(tokenString string) (Claims, error) {
	var claims Claims

	parsed, err := jwt.ParseWithClaims(
		tokenString,
		&claims,
		func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, ErrInvalidSig
			}
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithIssuer(s.issuer),
		jwt.WithExpirationRequired(),
	)

	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return Claims{}, ErrExpired
		case errors.Is(err, jwt.ErrTokenNotValidYet):
			return Claims{}, ErrNotYetValid
		case errors.Is(err, jwt.ErrTokenInvalidIssuer):
			return Claims{}, ErrIssuer
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return Claims{}, ErrInvalidSig
		case errors.Is(err, jwt.ErrTokenMalformed):
			return Claims{}, ErrMalformed
		default:
			return Claims{}, ErrMalformed
		}
	}

	if !parsed.Valid {
		return Claims{}, ErrInvalidClaim
	}

	return claims, nil
}
