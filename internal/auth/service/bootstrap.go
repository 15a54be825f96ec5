package service

import (
	"context"
	"errors"
	"time"

	"github.com/fourthandlong/pickpool/internal/auth/domain"
	"github.com/fourthandlong/pickpool/internal/auth/store"
	"github.com/fourthandlong/pickpool/pkg/cryptox"
	"github.com/fourthandlong/pickpool/pkg/slogx"
)

// BootstrapService provisions the first admin account. Admin credentials go
// through the same validation rules as ordinary registration; the account is
// created directly in approved status.
type BootstrapService struct {
	Store    store.Store
	HashCost int
}

// HasAdmin reports whether any admin account exists.
func (s *BootstrapService) HasAdmin(ctx context.Context) (bool, error) {
	return s.Store.Users().HasAdmin(ctx)
}

// CreateAdmin validates and creates an approved admin account.
func (s *BootstrapService) CreateAdmin(ctx context.Context, username, email, password string) (domain.PublicUser, error) {
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
		Role:         domain.RoleAdmin,
		Status:       domain.StatusApproved,
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

	slogx.FromContext(ctx).Info("admin account provisioned", "user_id", id, "username", username)
	return user.Public(), nil
}
