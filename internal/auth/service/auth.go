package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fourthandlong/pickpool/internal/auth/domain"
	"github.com/fourthandlong/pickpool/internal/auth/mail"
	"github.com/fourthandlong/pickpool/internal/auth/store"
	"github.com/fourthandlong/pickpool/pkg/cryptox"
	"github.com/fourthandlong/pickpool/pkg/idx"
	"github.com/fourthandlong/pickpool/pkg/slogx"
)

// DefaultResetTokenTTL bounds how long a password reset link stays usable.
const DefaultResetTokenTTL = time.Hour

// AuthService owns the account lifecycle: registration, credential checks,
// logout, and the password reset flow.
type AuthService struct {
	Store  store.Store
	Tokens *TokenService
	Mailer mail.Mailer

	// AdminEmail receives new-registration notices. Empty disables them.
	AdminEmail string

	// ResetLinkBase is the front-end URL the reset token is appended to.
	ResetLinkBase string

	ResetTTL time.Duration
	HashCost int
}

// Register creates a new account in pending status. The caller is told only
// that a duplicate exists, never which field collided.
func (s *AuthService) Register(ctx context.Context, username, email, password string) (domain.PublicUser, error) {
	l := slogx.FromContext(ctx)

	violations := validateUsername(username)
	normalized, ok := normalizeEmail(email)
	if !ok {
		violations = append(violations, "email address is not valid")
	}
	violations = append(violations, cryptox.ValidatePasswordStrength(password)...)
	if len(violations) > 0 {
		return domain.PublicUser{}, &ValidationError{Violations: violations}
	}

	hash, err := cryptox.HashPassword(password, s.HashCost)
	if err != nil {
		return domain.PublicUser{}, err
	}

	now := time.Now().UTC()
	user := domain.User{
		Username:     username,
		Email:        normalized,
		PasswordHash: hash,
		Role:         domain.RoleUser,
		Status:       domain.StatusPending,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	id, err := s.Store.Users().CreateUser(ctx, user)
	if err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return domain.PublicUser{}, ErrDuplicateUser
		}
		return domain.PublicUser{}, err
	}
	user.ID = id

	l.Info("user registered", "user_id", id, "username", username)
	s.notifyAdmin(ctx, user)

	return user.Public(), nil
}

// Login verifies credentials against an approved account and issues a token
// pair plus the public user projection. The status gate runs before the
// password check, and a dummy hash comparison runs for unknown identifiers,
// so response timing does not leak whether the account exists.
func (s *AuthService) Login(ctx context.Context, identifier, password string) (domain.TokenPair, domain.PublicUser, error) {
	l := slogx.FromContext(ctx)

	user, err := s.Store.Users().GetUserByEmailOrUsername(ctx, identifier)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			_ = cryptox.VerifyDummy(password, s.HashCost)
			return domain.TokenPair{}, domain.PublicUser{}, ErrInvalidCredentials
		}
		return domain.TokenPair{}, domain.PublicUser{}, err
	}

	if !user.Status.CanLogin() {
		l.Info("login blocked by account status",
			"user_id", user.ID, "status", string(user.Status))
		return domain.TokenPair{}, domain.PublicUser{}, statusError(user.Status)
	}

	if err := cryptox.VerifyPassword(password, user.PasswordHash); err != nil {
		l.Info("login failed, bad password", "user_id", user.ID)
		return domain.TokenPair{}, domain.PublicUser{}, ErrInvalidCredentials
	}

	pair, err := s.Tokens.Issue(ctx, user)
	if err != nil {
		return domain.TokenPair{}, domain.PublicUser{}, err
	}

	l.Info("login succeeded", "user_id", user.ID)
	return pair, user.Public(), nil
}

// Logout revokes the presented refresh token, or every token the user holds
// when none is supplied. Always succeeds for authenticated callers; revoking
// an already-dead token is not an error.
func (s *AuthService) Logout(ctx context.Context, userID int64, refreshToken string) error {
	if refreshToken == "" {
		return s.Tokens.RevokeAllForUser(ctx, userID)
	}
	return s.Tokens.RevokeRefreshToken(ctx, refreshToken, userID)
}

// RequestPasswordReset starts the reset flow. The response is identical
// whether or not the identifier matches an account; the difference is only
// visible as a mail in the matching user's inbox.
func (s *AuthService) RequestPasswordReset(ctx context.Context, identifier string) error {
	l := slogx.FromContext(ctx)

	user, err := s.Store.Users().GetUserByEmailOrUsername(ctx, identifier)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			l.Info("password reset requested for unknown identifier")
			return nil
		}
		return err
	}

	raw, err := cryptox.GenerateToken(cryptox.TokenSize256)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	ttl := s.ResetTTL
	if ttl <= 0 {
		ttl = DefaultResetTokenTTL
	}

	err = s.Store.ResetTokens().CreateResetToken(ctx, domain.PasswordResetToken{
		ID:        idx.New().String(),
		UserID:    user.ID,
		TokenHash: cryptox.FingerprintToken(raw),
		ExpiresAt: now.Add(ttl),
		CreatedAt: now,
	})
	if err != nil {
		return err
	}

	l.Info("password reset token issued", "user_id", user.ID)
	s.sendResetMail(ctx, user, raw)
	return nil
}

// ResetPassword redeems a reset token and installs the new password. In one
// transaction it consumes the token, updates the hash, burns every
// outstanding reset token, and revokes every refresh token, so old sessions
// die with the old password. Concurrent completions for the same user race
// on the consume; exactly one wins and the rest see an invalid token.
func (s *AuthService) ResetPassword(ctx context.Context, rawToken, newPassword string) error {
	l := slogx.FromContext(ctx)

	if violations := cryptox.ValidatePasswordStrength(newPassword); len(violations) > 0 {
		return &ValidationError{Violations: violations}
	}

	now := time.Now().UTC()
	hash := cryptox.FingerprintToken(rawToken)

	token, err := s.Store.ResetTokens().GetResetTokenByHash(ctx, hash)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrResetTokenInvalid
		}
		return err
	}
	if now.After(token.ExpiresAt) {
		return ErrResetTokenExpired
	}

	newHash, err := cryptox.HashPassword(newPassword, s.HashCost)
	if err != nil {
		return err
	}

	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		// Consume the token first. Zero rows means another reset already
		// burned it; the whole transaction unwinds.
		if err := tx.ResetTokens().DeleteResetToken(ctx, hash); err != nil {
			return err
		}
		if err := tx.Users().UpdatePasswordHash(ctx, token.UserID, newHash, now); err != nil {
			return err
		}
		if err := tx.ResetTokens().DeleteAllUserResetTokens(ctx, token.UserID); err != nil {
			return err
		}
		return tx.RefreshTokens().DeleteAllUserRefreshTokens(ctx, token.UserID)
	})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrResetTokenInvalid
		}
		return err
	}

	l.Info("password reset completed", "user_id", token.UserID)
	return nil
}

// notifyAdmin mails the configured admin about a new registration. Delivery
// is fire and forget; a mail outage must not fail the registration.
func (s *AuthService) notifyAdmin(ctx context.Context, user domain.User) {
	if s.Mailer == nil || s.AdminEmail == "" {
		return
	}

	l := slogx.FromContext(ctx)
	body := fmt.Sprintf(
		"<p>New account awaiting approval:</p><p><b>%s</b> (%s)</p>",
		user.Username, user.Email,
	)

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := s.Mailer.Send(ctx, s.AdminEmail, "New account pending approval", body); err != nil {
			l.Error("admin notification mail failed", "error", err, "user_id", user.ID)
		}
	}()
}

func (s *AuthService) sendResetMail(ctx context.Context, user domain.User, rawToken string) {
	if s.Mailer == nil {
		return
	}

	l := slogx.FromContext(ctx)
	link := fmt.Sprintf("%s?token=%s", s.ResetLinkBase, rawToken)
	body := fmt.Sprintf(
		"<p>Hi %s,</p><p>A password reset was requested for your account. "+
			"The link below is valid for a limited time:</p><p><a href=%q>%s</a></p>"+
			"<p>If you did not request this, you can ignore this mail.</p>",
		user.Username, link, link,
	)

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := s.Mailer.Send(ctx, user.Email, "Password reset", body); err != nil {
			l.Error("password reset mail failed", "error", err, "user_id", user.ID)
		}
	}()
}
