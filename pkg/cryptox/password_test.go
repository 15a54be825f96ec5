package cryptox

import (
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHashVerifyRoundTrip(t *testing.T) {
	t.Parallel()

	hash, err := HashPassword("Passw0rd1", bcrypt.MinCost)
	require.NoError(t, err)
	require.NotContains(t, hash, "Passw0rd1")

	require.NoError(t, VerifyPassword("Passw0rd1", hash))
	require.ErrorIs(t, VerifyPassword("Passw0rd2", hash), ErrPasswordMismatch)
}

func TestHashProducesUniqueSalts(t *testing.T) {
	t.Parallel()

	a, err := HashPassword("Passw0rd1", bcrypt.MinCost)
	require.NoError(t, err)
	b, err := HashPassword("Passw0rd1", bcrypt.MinCost)
	require.NoError(t, err)
	require.NotEqual(t, a, b)
}

func TestVerifyDummyAlwaysFails(t *testing.T) {
	t.Parallel()

	require.ErrorIs(t, VerifyDummy("anything", bcrypt.MinCost), ErrPasswordMismatch)
}

func TestVerifyDummyHonoursCost(t *testing.T) {
	t.Parallel()

	cost, err := bcrypt.Cost(dummyHashFor(ProductionCost))
	require.NoError(t, err)
	require.Equal(t, ProductionCost, cost)

	cost, err = bcrypt.Cost(dummyHashFor(bcrypt.MinCost))
	require.NoError(t, err)
	require.Equal(t, bcrypt.MinCost, cost)

	// Out-of-range costs fall back rather than failing the comparison.
	cost, err = bcrypt.Cost(dummyHashFor(99))
	require.NoError(t, err)
	require.Equal(t, DefaultCost, cost)
}

func TestValidatePasswordStrength(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		password   string
		violations int
	}{
		{"acceptable", "Passw0rd1", 0},
		{"too short", "Pw1a", 1},
		{"missing uppercase", "passw0rd1", 1},
		{"missing lowercase", "PASSW0RD1", 1},
		{"missing digit", "Password!", 1},
		{"empty fails every rule", "", 4},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := ValidatePasswordStrength(tc.password)
			require.Len(t, got, tc.violations)
		})
	}
}

func TestValidatePasswordStrengthMessagesAreRuleSpecific(t *testing.T) {
	t.Parallel()

	got := ValidatePasswordStrength("password")
	require.Contains(t, got, "password must contain an uppercase letter")
	require.Contains(t, got, "password must contain a digit")
	require.NotContains(t, got, "password must contain a lowercase letter")
}
