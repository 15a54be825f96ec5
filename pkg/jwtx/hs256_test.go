package jwtx

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const testIssuer = "pickpool-auth-test"

func testSigner(t *testing.T) *HS256 {
	t.Helper()
	s, err := NewHS256([]byte("unit-test-secret"), testIssuer)
	require.NoError(t, err)
	return s
}

func TestNewHS256RejectsEmptySecret(t *testing.T) {
	t.Parallel()

	_, err := NewHS256(nil, testIssuer)
	require.Error(t, err)

	_, err = NewHS256([]byte{}, testIssuer)
	require.Error(t, err)
}

func TestSignVerifyRoundTrip(t *testing.T) {
	t.Parallel()

	s := testSigner(t)
	now := time.Now()

	claims := NewClaims(42, "alice", "user", TokenUseAccess, DefaultAccessTokenTTL, testIssuer, now)
	token, err := s.Sign(claims)
	require.NoError(t, err)

	got, err := s.Verify(token)
	require.NoError(t, err)
	require.Equal(t, "alice", got.Username)
	require.Equal(t, "user", got.Role)
	require.Equal(t, TokenUseAccess, got.TokenUse)

	id, err := got.UserID()
	require.NoError(t, err)
	require.EqualValues(t, 42, id)
}

func TestVerifyRejectsExpired(t *testing.T) {
	t.Parallel()

	s := testSigner(t)
	past := time.Now().Add(-time.Hour)

	claims := NewClaims(1, "bob", "user", TokenUseAccess, time.Minute, testIssuer, past)
	token, err := s.Sign(claims)
	require.NoError(t, err)

	_, err = s.Verify(token)
	require.ErrorIs(t, err, ErrExpired)
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	t.Parallel()

	s := testSigner(t)
	other, err := NewHS256([]byte("a-different-secret"), testIssuer)
	require.NoError(t, err)

	token, err := s.Sign(NewClaims(1, "bob", "user", TokenUseAccess, time.Minute, testIssuer, time.Now()))
	require.NoError(t, err)

	_, err = other.Verify(token)
	require.ErrorIs(t, err, ErrInvalidSig)
}

func TestVerifyRejectsWrongIssuer(t *testing.T) {
	t.Parallel()

	s := testSigner(t)
	token, err := s.Sign(NewClaims(1, "bob", "user", TokenUseAccess, time.Minute, "someone-else", time.Now()))
	require.NoError(t, err)

	_, err = s.Verify(token)
	require.ErrorIs(t, err, ErrIssuer)
}

func TestVerifyRejectsGarbage(t *testing.T) {
	t.Parallel()

	s := testSigner(t)
	_, err := s.Verify("not.a.jwt")
	require.ErrorIs(t, err, ErrMalformed)
}

func TestRefreshUseSurvivesRoundTrip(t *testing.T) {
	t.Parallel()

	s := testSigner(t)
	token, err := s.Sign(NewClaims(7, "carol", "admin", TokenUseRefresh, DefaultRefreshTokenTTL, testIssuer, time.Now()))
	require.NoError(t, err)

	got, err := s.Verify(token)
	require.NoError(t, err)
	require.Equal(t, TokenUseRefresh, got.TokenUse)
}
