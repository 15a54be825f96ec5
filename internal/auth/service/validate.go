package service

import (
	"net/mail"
	"regexp"
	"strings"
)

var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_]{3,20}$`)

// validateUsername returns the rules the candidate username breaks.
func validateUsername(username string) []string {
	var violations []string
	if !usernamePattern.MatchString(username) {
		violations = append(violations,
			"username must be 3-20 characters of letters, digits, or underscores")
	}
	return violations
}

// normalizeEmail lowercases and trims an email address, returning ok=false
// when it does not parse as a bare address.
func normalizeEmail(email string) (string, bool) {
	email = strings.TrimSpace(strings.ToLower(email))
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", false
	}
	return email, true
}
