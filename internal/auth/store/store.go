// Package store defines the persistence contract for the auth service.
// Drivers live under drivers/ and must translate their backend errors into
// the sentinels declared here.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/fourthandlong/pickpool/internal/auth/domain"
)

var (
	// ErrNotFound is returned when the requested row does not exist.
	ErrNotFound = errors.New("store: not found")

	// ErrAlreadyExists is returned on unique constraint violations.
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store aggregates the repositories plus transaction and lifecycle plumbing.
type Store interface {
	Users() UserRepository
	RefreshTokens() RefreshTokenRepository
	ResetTokens() ResetTokenRepository

	// ApplyMigrations brings the schema up to date. Safe to call on every
	// startup.
	ApplyMigrations() error

	// Tx begins a transaction. The returned Tx exposes the same
	// repositories bound to the transaction.
	Tx(ctx context.Context) (Tx, error)

	// WithTx runs fn inside a transaction, committing on nil error and
	// rolling back otherwise.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	Ping(ctx context.Context) error
	Close() error
}

// Tx is a transactional view of the store.
type Tx interface {
	Store

	Commit() error
	Rollback() error
}

// UserRepository persists identity records.
type UserRepository interface {
	CreateUser(ctx context.Context, user domain.User) (int64, error)
	GetUserByID(ctx context.Context, id int64) (domain.User, error)
	GetUserByUsername(ctx context.Context, username string) (domain.User, error)
	// GetUserByEmailOrUsername matches the identifier against either column,
	// for login and reset-request lookups.
	GetUserByEmailOrUsername(ctx context.Context, identifier string) (domain.User, error)
	UpdatePasswordHash(ctx context.Context, userID int64, hash string, now time.Time) error
	UpdateStatus(ctx context.Context, userID int64, status domain.Status, now time.Time) error
	// HasAdmin reports whether any admin account exists, for the bootstrap
	// flow.
	HasAdmin(ctx context.Context) (bool, error)
}

// RefreshTokenRepository persists refresh token fingerprints. Only hashes are
// stored; raw tokens never touch the database.
type RefreshTokenRepository interface {
	CreateRefreshToken(ctx context.Context, token domain.RefreshToken) error
	// GetValidRefreshToken finds an unexpired token row by fingerprint,
	// scoped to the owning user.
	GetValidRefreshToken(ctx context.Context, tokenHash string, userID int64, now time.Time) (domain.RefreshToken, error)
	DeleteRefreshToken(ctx context.Context, tokenHash string, userID int64) error
	DeleteAllUserRefreshTokens(ctx context.Context, userID int64) error
	// DeleteExpiredRefreshTokens removes all rows past their expiry and
	// returns the count, for housekeeping logs.
	DeleteExpiredRefreshTokens(ctx context.Context, now time.Time) (int64, error)
}

// ResetTokenRepository persists password reset token fingerprints.
type ResetTokenRepository interface {
	CreateResetToken(ctx context.Context, token domain.PasswordResetToken) error
	GetResetTokenByHash(ctx context.Context, tokenHash string) (domain.PasswordResetToken, error)

	// DeleteResetToken removes a single token row and reports ErrNotFound
	// when no row matched, so a consume inside a transaction can tell
	// whether it won the race for the token.
	DeleteResetToken(ctx context.Context, tokenHash string) error

	DeleteAllUserResetTokens(ctx context.Context, userID int64) error
	DeleteExpiredResetTokens(ctx context.Context, now time.Time) (int64, error)
}
