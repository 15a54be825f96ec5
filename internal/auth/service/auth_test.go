package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/fourthandlong/pickpool/internal/auth/domain"
	"github.com/fourthandlong/pickpool/internal/auth/store"
	"github.com/fourthandlong/pickpool/internal/auth/store/drivers/sqlite"
	"github.com/fourthandlong/pickpool/pkg/cryptox"
	"github.com/fourthandlong/pickpool/pkg/idx"
	"github.com/fourthandlong/pickpool/pkg/jwtx"
)

// recordingMailer captures sends so tests can assert on mail without SMTP.
type recordingMailer struct {
	mu    sync.Mutex
	sends []recordedMail
}

type recordedMail struct {
	To      string
	Subject string
	Body    string
}

func (m *recordingMailer) Send(ctx context.Context, to, subject, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sends = append(m.sends, recordedMail{To: to, Subject: subject, Body: body})
	return nil
}

func (m *recordingMailer) all() []recordedMail {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]recordedMail(nil), m.sends...)
}

// resetMails narrows the captured sends to reset-link mail. The admin
// registration notice lands asynchronously, so counting all sends races it.
func (m *recordingMailer) resetMails() []recordedMail {
	var out []recordedMail
	for _, s := range m.all() {
		if s.Subject == "Password reset" {
			out = append(out, s)
		}
	}
	return out
}

// waitFor polls until cond holds or the deadline passes. Mail dispatch is
// asynchronous, so tests that assert on it need a small grace window.
func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	require.True(t, cond())
}

func newTestAuthService(t *testing.T) (*AuthService, store.Store, *recordingMailer) {
	t.Helper()

	st, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.ApplyMigrations())

	access, err := jwtx.NewHS256([]byte("access-secret"), "pickpool-auth-test")
	require.NoError(t, err)
	refresh, err := jwtx.NewHS256([]byte("refresh-secret"), "pickpool-auth-test")
	require.NoError(t, err)

	mailer := &recordingMailer{}
	tokens := &TokenService{
		Access:     access,
		Refresh:    refresh,
		Store:      st,
		AccessTTL:  jwtx.DefaultAccessTokenTTL,
		RefreshTTL: jwtx.DefaultRefreshTokenTTL,
	}

	svc := &AuthService{
		Store:         st,
		Tokens:        tokens,
		Mailer:        mailer,
		AdminEmail:    "admin@example.com",
		ResetLinkBase: "https://pickpool.example.com/reset",
		ResetTTL:      time.Hour,
		HashCost:      bcrypt.MinCost,
	}
	return svc, st, mailer
}

func registerApproved(t *testing.T, svc *AuthService, st store.Store, username, email, password string) domain.PublicUser {
	t.Helper()

	u, err := svc.Register(context.Background(), username, email, password)
	require.NoError(t, err)
	require.NoError(t, st.Users().UpdateStatus(context.Background(), u.ID, domain.StatusApproved, time.Now().UTC()))
	return u
}

func TestRegisterCreatesPendingUser(t *testing.T) {
	t.Parallel()

	svc, st, mailer := newTestAuthService(t)
	ctx := context.Background()

	u, err := svc.Register(ctx, "mick", "Mick@Example.com", "Sup3rSecret")
	require.NoError(t, err)
	require.Equal(t, "mick", u.Username)
	require.Equal(t, "mick@example.com", u.Email, "email should be normalized lowercase")
	require.Equal(t, domain.StatusPending, u.Status)
	require.Equal(t, domain.RoleUser, u.Role)

	stored, err := st.Users().GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	require.NotEqual(t, "Sup3rSecret", stored.PasswordHash)

	waitFor(t, func() bool { return len(mailer.all()) == 1 })
	require.Equal(t, "admin@example.com", mailer.all()[0].To)
}

func TestRegisterValidation(t *testing.T) {
	t.Parallel()

	svc, _, _ := newTestAuthService(t)
	ctx := context.Background()

	tests := []struct {
		name     string
		username string
		email    string
		password string
	}{
		{"short username", "ab", "a@example.com", "Sup3rSecret"},
		{"bad characters", "mick!", "a@example.com", "Sup3rSecret"},
		{"bad email", "mick", "not-an-email", "Sup3rSecret"},
		{"weak password", "mick", "a@example.com", "short"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Register(ctx, tc.username, tc.email, tc.password)
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			require.NotEmpty(t, verr.Violations)
		})
	}
}

func TestRegisterDuplicateIsGeneric(t *testing.T) {
	t.Parallel()

	svc, _, _ := newTestAuthService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "mick", "mick@example.com", "Sup3rSecret")
	require.NoError(t, err)

	// Same username, different email.
	_, err = svc.Register(ctx, "mick", "other@example.com", "Sup3rSecret")
	require.ErrorIs(t, err, ErrDuplicateUser)

	// Same email, different username.
	_, err = svc.Register(ctx, "other", "mick@example.com", "Sup3rSecret")
	require.ErrorIs(t, err, ErrDuplicateUser)
}

func TestLoginIssuesTokenPair(t *testing.T) {
	t.Parallel()

	svc, st, _ := newTestAuthService(t)
	ctx := context.Background()

	registerApproved(t, svc, st, "mick", "mick@example.com", "Sup3rSecret")

	pair, _, err := svc.Login(ctx, "mick", "Sup3rSecret")
	require.NoError(t, err)
	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)
	require.Equal(t, "Bearer", pair.TokenType)

	claims, err := svc.Tokens.Access.Verify(pair.AccessToken)
	require.NoError(t, err)
	require.Equal(t, "mick", claims.Username)
	require.Equal(t, jwtx.TokenUseAccess, claims.TokenUse)

	// Email works as identifier too.
	_, _, err = svc.Login(ctx, "mick@example.com", "Sup3rSecret")
	require.NoError(t, err)
}

func TestLoginRejections(t *testing.T) {
	t.Parallel()

	svc, st, _ := newTestAuthService(t)
	ctx := context.Background()

	u, err := svc.Register(ctx, "mick", "mick@example.com", "Sup3rSecret")
	require.NoError(t, err)

	// Pending accounts are told so before any password check.
	_, _, err = svc.Login(ctx, "mick", "Sup3rSecret")
	require.ErrorIs(t, err, ErrAccountPending)

	now := time.Now().UTC()
	require.NoError(t, st.Users().UpdateStatus(ctx, u.ID, domain.StatusSuspended, now))
	_, _, err = svc.Login(ctx, "mick", "Sup3rSecret")
	require.ErrorIs(t, err, ErrAccountSuspended)

	require.NoError(t, st.Users().UpdateStatus(ctx, u.ID, domain.StatusApproved, now))

	// Wrong password and unknown user return the same error.
	_, _, err = svc.Login(ctx, "mick", "WrongPassw0rd")
	require.ErrorIs(t, err, ErrInvalidCredentials)
	_, _, err = svc.Login(ctx, "nobody", "WrongPassw0rd")
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLogoutSingleSession(t *testing.T) {
	t.Parallel()

	svc, st, _ := newTestAuthService(t)
	ctx := context.Background()

	u := registerApproved(t, svc, st, "mick", "mick@example.com", "Sup3rSecret")

	pair1, _, err := svc.Login(ctx, "mick", "Sup3rSecret")
	require.NoError(t, err)
	pair2, _, err := svc.Login(ctx, "mick", "Sup3rSecret")
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx, u.ID, pair1.RefreshToken))

	_, err = svc.Tokens.RefreshAccess(ctx, pair1.RefreshToken)
	require.ErrorIs(t, err, ErrInvalidRefresh)

	// The other session survives.
	_, err = svc.Tokens.RefreshAccess(ctx, pair2.RefreshToken)
	require.NoError(t, err)

	// Logging out the same token twice is fine.
	require.NoError(t, svc.Logout(ctx, u.ID, pair1.RefreshToken))
}

func TestLogoutAllDevices(t *testing.T) {
	t.Parallel()

	svc, st, _ := newTestAuthService(t)
	ctx := context.Background()

	u := registerApproved(t, svc, st, "mick", "mick@example.com", "Sup3rSecret")

	pair1, _, err := svc.Login(ctx, "mick", "Sup3rSecret")
	require.NoError(t, err)
	pair2, _, err := svc.Login(ctx, "mick", "Sup3rSecret")
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx, u.ID, ""))

	_, err = svc.Tokens.RefreshAccess(ctx, pair1.RefreshToken)
	require.ErrorIs(t, err, ErrInvalidRefresh)
	_, err = svc.Tokens.RefreshAccess(ctx, pair2.RefreshToken)
	require.ErrorIs(t, err, ErrInvalidRefresh)
}

func TestRequestPasswordResetIsUniform(t *testing.T) {
	t.Parallel()

	svc, st, mailer := newTestAuthService(t)
	ctx := context.Background()

	registerApproved(t, svc, st, "mick", "mick@example.com", "Sup3rSecret")

	// Unknown identifiers succeed without side effects.
	require.NoError(t, svc.RequestPasswordReset(ctx, "nobody@example.com"))

	require.NoError(t, svc.RequestPasswordReset(ctx, "mick@example.com"))
	waitFor(t, func() bool { return len(mailer.resetMails()) == 1 })

	mails := mailer.resetMails()
	require.Equal(t, "mick@example.com", mails[0].To)
	require.Contains(t, mails[0].Body, "https://pickpool.example.com/reset?token=")
}

func TestResetPasswordFullFlow(t *testing.T) {
	t.Parallel()

	svc, st, mailer := newTestAuthService(t)
	ctx := context.Background()

	registerApproved(t, svc, st, "mick", "mick@example.com", "Sup3rSecret")
	pair, _, err := svc.Login(ctx, "mick", "Sup3rSecret")
	require.NoError(t, err)

	require.NoError(t, svc.RequestPasswordReset(ctx, "mick"))
	waitFor(t, func() bool { return len(mailer.resetMails()) == 1 })

	token := extractResetToken(t, mailer.resetMails()[0].Body)

	require.NoError(t, svc.ResetPassword(ctx, token, "N3wPassword"))

	// Old password is dead, new one works.
	_, _, err = svc.Login(ctx, "mick", "Sup3rSecret")
	require.ErrorIs(t, err, ErrInvalidCredentials)
	_, _, err = svc.Login(ctx, "mick", "N3wPassword")
	require.NoError(t, err)

	// All prior sessions were revoked.
	_, err = svc.Tokens.RefreshAccess(ctx, pair.RefreshToken)
	require.ErrorIs(t, err, ErrInvalidRefresh)

	// The token is single use.
	require.ErrorIs(t, svc.ResetPassword(ctx, token, "An0therPass"), ErrResetTokenInvalid)
}

func TestResetPasswordBurnsAllOutstandingTokens(t *testing.T) {
	t.Parallel()

	svc, st, mailer := newTestAuthService(t)
	ctx := context.Background()

	registerApproved(t, svc, st, "mick", "mick@example.com", "Sup3rSecret")

	require.NoError(t, svc.RequestPasswordReset(ctx, "mick"))
	require.NoError(t, svc.RequestPasswordReset(ctx, "mick"))
	waitFor(t, func() bool { return len(mailer.resetMails()) == 2 })

	mails := mailer.resetMails()
	first := extractResetToken(t, mails[0].Body)
	second := extractResetToken(t, mails[1].Body)
	require.NotEqual(t, first, second)

	require.NoError(t, svc.ResetPassword(ctx, second, "N3wPassword"))

	// The other outstanding token died with the completed reset.
	require.ErrorIs(t, svc.ResetPassword(ctx, first, "An0therPass"), ErrResetTokenInvalid)
}

func TestResetPasswordConcurrentCompletionsHaveOneWinner(t *testing.T) {
	t.Parallel()

	svc, st, mailer := newTestAuthService(t)
	ctx := context.Background()

	registerApproved(t, svc, st, "mick", "mick@example.com", "Sup3rSecret")

	require.NoError(t, svc.RequestPasswordReset(ctx, "mick"))
	require.NoError(t, svc.RequestPasswordReset(ctx, "mick"))
	waitFor(t, func() bool { return len(mailer.resetMails()) == 2 })

	mails := mailer.resetMails()
	tokens := []string{
		extractResetToken(t, mails[0].Body),
		extractResetToken(t, mails[1].Body),
	}

	// Both tokens are valid going in; the consume inside the reset
	// transaction must let exactly one completion through.
	errs := make([]error, len(tokens))
	var wg sync.WaitGroup
	for i, token := range tokens {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs[i] = svc.ResetPassword(ctx, token, "N3wPassword")
		}()
	}
	wg.Wait()

	var wins, losses int
	for _, err := range errs {
		switch {
		case err == nil:
			wins++
		case errors.Is(err, ErrResetTokenInvalid):
			losses++
		default:
			t.Fatalf("unexpected reset error: %v", err)
		}
	}
	require.Equal(t, 1, wins)
	require.Equal(t, 1, losses)

	_, _, err := svc.Login(ctx, "mick", "N3wPassword")
	require.NoError(t, err)
}

func TestResetPasswordRejectsBadTokens(t *testing.T) {
	t.Parallel()

	svc, st, _ := newTestAuthService(t)
	ctx := context.Background()

	u := registerApproved(t, svc, st, "mick", "mick@example.com", "Sup3rSecret")

	require.ErrorIs(t, svc.ResetPassword(ctx, "deadbeef", "N3wPassword"), ErrResetTokenInvalid)

	// An expired token reports expiry, not invalidity.
	now := time.Now().UTC()
	raw := "expired-raw-token"
	require.NoError(t, st.ResetTokens().CreateResetToken(ctx, domain.PasswordResetToken{
		ID:        idx.New().String(),
		UserID:    u.ID,
		TokenHash: cryptox.FingerprintToken(raw),
		ExpiresAt: now.Add(-time.Minute),
		CreatedAt: now.Add(-2 * time.Hour),
	}))
	require.ErrorIs(t, svc.ResetPassword(ctx, raw, "N3wPassword"), ErrResetTokenExpired)

	// Weak replacement passwords are rejected before any token lookup.
	var verr *ValidationError
	require.ErrorAs(t, svc.ResetPassword(ctx, "whatever", "short"), &verr)
}

// extractResetToken pulls the hex token out of a reset mail body.
func extractResetToken(t *testing.T, body string) string {
	t.Helper()

	const marker = "?token="
	i := strings.Index(body, marker)
	require.GreaterOrEqual(t, i, 0, "reset mail should contain a token link")
	rest := body[i+len(marker):]
	end := strings.IndexFunc(rest, func(r rune) bool {
		return !(r >= '0' && r <= '9' || r >= 'a' && r <= 'f')
	})
	if end < 0 {
		return rest
	}
	return rest[:end]
}
