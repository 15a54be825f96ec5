package cryptox

import (
	"errors"
	"sync"
	"unicode"

	"golang.org/x/crypto/bcrypt"
)

// bcrypt cost factors. Production runs the higher cost; everything else keeps
// the cheaper one so request latency and test suites stay tolerable.
const (
	DefaultCost    = 10
	ProductionCost = 12

	// MinPasswordLength is the shortest password the policy accepts.
	MinPasswordLength = 8
)

// ErrPasswordMismatch is returned by VerifyPassword when the password does
// not match the stored hash.
var ErrPasswordMismatch = errors.New("cryptox: password does not match")

// HashPassword generates a salted bcrypt hash of the password at the given
// cost. The plaintext never appears in errors or logs.
func HashPassword(password string, cost int) (string, error) {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = DefaultCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// VerifyPassword compares a plaintext password against a bcrypt hash.
// Comparison timing is delegated to bcrypt itself.
func VerifyPassword(password, hash string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return ErrPasswordMismatch
	}
	return nil
}

var (
	dummyMu     sync.Mutex
	dummyHashes = map[int][]byte{}
)

// dummyHashFor returns a throwaway hash minted at the given cost, cached per
// cost after the first call.
func dummyHashFor(cost int) []byte {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = DefaultCost
	}
	dummyMu.Lock()
	defer dummyMu.Unlock()
	if h, ok := dummyHashes[cost]; ok {
		return h
	}
	h, _ := bcrypt.GenerateFromPassword([]byte("pickpool!dummy!credential"), cost)
	dummyHashes[cost] = h
	return h
}

// VerifyDummy burns a bcrypt comparison against a throwaway hash and always
// reports a mismatch. The cost must match the one real hashes are minted at,
// or the unknown-user path finishes measurably faster than a wrong-password
// check.
func VerifyDummy(password string, cost int) error {
	_ = bcrypt.CompareHashAndPassword(dummyHashFor(cost), []byte(password))
	return ErrPasswordMismatch
}

// ValidatePasswordStrength checks the password policy and returns one message
// per violated rule. An empty slice means the password is acceptable.
func ValidatePasswordStrength(password string) []string {
	var violations []string

	if len(password) < MinPasswordLength {
		violations = append(violations, "password must be at least 8 characters long")
	}

	var hasUpper, hasLower, hasDigit bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}

	if !hasUpper {
		violations = append(violations, "password must contain an uppercase letter")
	}
	if !hasLower {
		violations = append(violations, "password must contain a lowercase letter")
	}
	if !hasDigit {
		violations = append(violations, "password must contain a digit")
	}

	return violations
}
