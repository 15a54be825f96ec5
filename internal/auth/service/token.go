package service

import (
	"context"
	"errors"
	"time"

	"github.com/fourthandlong/pickpool/internal/auth/domain"
	"github.com/fourthandlong/pickpool/internal/auth/store"
	"github.com/fourthandlong/pickpool/pkg/cryptox"
	"github.com/fourthandlong/pickpool/pkg/idx"
	"github.com/fourthandlong/pickpool/pkg/jwtx"
	"github.com/fourthandlong/pickpool/pkg/slogx"
)

// TokenService issues and verifies the access/refresh token pair. Access
// tokens are stateless JWTs; refresh tokens are also JWTs but each issued one
// is backed by a fingerprint row, so deleting the row revokes it.
type TokenService struct {
	Access  *jwtx.HS256
	Refresh *jwtx.HS256
	Store   store.Store

	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

// Issue mints a fresh token pair for an authenticated user and persists the
// refresh token's fingerprint.
func (s *TokenService) Issue(ctx context.Context, user domain.User) (domain.TokenPair, error) {
	now := time.Now().UTC()

	accessClaims := jwtx.NewClaims(
		user.ID, user.Username, string(user.Role),
		jwtx.TokenUseAccess, s.AccessTTL, s.Access.Issuer(), now,
	)
	access, err := s.Access.Sign(accessClaims)
	if err != nil {
		return domain.TokenPair{}, err
	}

	refreshClaims := jwtx.NewClaims(
		user.ID, user.Username, string(user.Role),
		jwtx.TokenUseRefresh, s.RefreshTTL, s.Refresh.Issuer(), now,
	)
	refresh, err := s.Refresh.Sign(refreshClaims)
	if err != nil {
		return domain.TokenPair{}, err
	}

	err = s.Store.RefreshTokens().CreateRefreshToken(ctx, domain.RefreshToken{
		ID:        idx.New().String(),
		UserID:    user.ID,
		TokenHash: cryptox.FingerprintToken(refresh),
		ExpiresAt: now.Add(s.RefreshTTL),
		CreatedAt: now,
	})
	if err != nil {
		return domain.TokenPair{}, err
	}

	return domain.TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "Bearer",
		ExpiresIn:    s.AccessTTL,
	}, nil
}

// RefreshAccess trades a live refresh token for a new access token. The
// refresh token itself is not rotated; it stays valid until expiry or
// revocation, so a client can hold one per device.
//
// Signature and claim failures map to ErrInvalidToken; a verified token with
// no backing row maps to ErrInvalidRefresh.
func (s *TokenService) RefreshAccess(ctx context.Context, refreshToken string) (domain.TokenPair, error) {
	l := slogx.FromContext(ctx)
	now := time.Now().UTC()

	claims, err := s.Refresh.Verify(refreshToken)
	if err != nil {
		return domain.TokenPair{}, ErrInvalidToken
	}
	if claims.TokenUse != jwtx.TokenUseRefresh {
		return domain.TokenPair{}, ErrInvalidToken
	}
	userID, err := claims.UserID()
	if err != nil {
		return domain.TokenPair{}, ErrInvalidToken
	}

	hash := cryptox.FingerprintToken(refreshToken)
	if _, err := s.Store.RefreshTokens().GetValidRefreshToken(ctx, hash, userID, now); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			l.Info("refresh attempt with revoked or unknown token", "user_id", userID)
			return domain.TokenPair{}, ErrInvalidRefresh
		}
		return domain.TokenPair{}, err
	}

	// Re-read the user so a status change since login takes effect on the
	// next access token, not just the next login.
	user, err := s.Store.Users().GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.TokenPair{}, ErrInvalidRefresh
		}
		return domain.TokenPair{}, err
	}
	if !user.Status.CanLogin() {
		return domain.TokenPair{}, statusError(user.Status)
	}

	accessClaims := jwtx.NewClaims(
		user.ID, user.Username, string(user.Role),
		jwtx.TokenUseAccess, s.AccessTTL, s.Access.Issuer(), now,
	)
	access, err := s.Access.Sign(accessClaims)
	if err != nil {
		return domain.TokenPair{}, err
	}

	return domain.TokenPair{
		AccessToken:  access,
		RefreshToken: refreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    s.AccessTTL,
	}, nil
}

// RevokeRefreshToken deletes the row backing one refresh token. Unknown
// tokens are a no-op; logout is idempotent.
func (s *TokenService) RevokeRefreshToken(ctx context.Context, refreshToken string, userID int64) error {
	hash := cryptox.FingerprintToken(refreshToken)
	return s.Store.RefreshTokens().DeleteRefreshToken(ctx, hash, userID)
}

// RevokeAllForUser ends every session the user holds.
func (s *TokenService) RevokeAllForUser(ctx context.Context, userID int64) error {
	return s.Store.RefreshTokens().DeleteAllUserRefreshTokens(ctx, userID)
}

func statusError(status domain.Status) error {
	if status == domain.StatusSuspended {
		return ErrAccountSuspended
	}
	return ErrAccountPending
}
