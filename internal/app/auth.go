package app

import (
	"context"
	"fmt"
	"strings"

	"intraprep/internal/util"
	"intraprep/pkg/auth"
	"intraprep/pkg/domain"
)

// SignUp registers a new account in pending state and emails a verification
// code. Signing up again over an unverified account updates it and re-sends
// a code; a verified account rejects the attempt.
func (a *App) SignUp(ctx context.Context, email, password, fullName string) error {
	email = normalizeEmail(email)
	if email == "" {
		return ErrEmailRequired
	}
	if err := auth.ValidatePassword(password); err != nil {
		return err
	}
	passwordHash, err := auth.HashPassword(password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	existing, found, err := a.store.GetUserByEmail(email)
	if err != nil {
		return fmt.Errorf("fetch user: %w", err)
	}
	now := a.now()
	switch {
	case found && existing.Status != domain.StatusPending:
		return ErrEmailAlreadyExists
	case found:
		existing.PasswordHash = passwordHash
		existing.FullName = strings.TrimSpace(fullName)
		existing.UpdatedAt = now
		if err := a.store.SaveUser(existing); err != nil {
			return fmt.Errorf("update user: %w", err)
		}
	default:
		user := domain.User{
			ID:           util.NewID(),
			Email:        email,
			PasswordHash: passwordHash,
			FullName:     strings.TrimSpace(fullName),
			Status:       domain.StatusPending,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		if err := a.store.SaveUser(user); err != nil {
			return fmt.Errorf("save user: %w", err)
		}
	}
	return a.requestCode(ctx, email, domain.CodeSignup)
}

// ResendVerification re-sends a signup code for an unverified account.
func (a *App) ResendVerification(ctx context.Context, email string) error {
	email = normalizeEmail(email)
	user, found, err := a.store.GetUserByEmail(email)
	if err != nil {
		return fmt.Errorf("fetch user: %w", err)
	}
	if !found || user.Status != domain.StatusPending {
		// Same outcome as a bad code so verified accounts are not enumerable.
		return ErrInvalidOrExpiredCode
	}
	return a.requestCode(ctx, email, domain.CodeSignup)
}

// VerifyEmail consumes a signup code, activates the account, and issues a
// session token.
func (a *App) VerifyEmail(email, code string) (domain.User, string, error) {
	email = normalizeEmail(email)
	if err := a.consumeCode(email, domain.CodeSignup, code); err != nil {
		return domain.User{}, "", err
	}
	user, found, err := a.store.GetUserByEmail(email)
	if err != nil {
		return domain.User{}, "", fmt.Errorf("fetch user: %w", err)
	}
	if !found {
		return domain.User{}, "", ErrInvalidOrExpiredCode
	}
	if user.Status == domain.StatusPending {
		user.Status = domain.StatusActive
		user.UpdatedAt = a.now()
		if err := a.store.SaveUser(user); err != nil {
			return domain.User{}, "", fmt.Errorf("activate user: %w", err)
		}
	}
	token, err := a.sessions.NewSession(user.ID)
	if err != nil {
		return domain.User{}, "", fmt.Errorf("issue session: %w", err)
	}
	return user, token, nil
}

// Login validates credentials and issues a session token. Unverified
// accounts are rejected with a distinct message.
func (a *App) Login(email, password string) (domain.User, string, error) {
	email = normalizeEmail(email)
	user, found, err := a.store.GetUserByEmail(email)
	if err != nil {
		return domain.User{}, "", fmt.Errorf("fetch user: %w", err)
	}
	if !found || !auth.CheckPassword(password, user.PasswordHash) {
		return domain.User{}, "", ErrInvalidCredentials
	}
	switch user.Status {
	case domain.StatusPending:
		return domain.User{}, "", ErrEmailNotVerified
	case domain.StatusDisabled:
		return domain.User{}, "", ErrUserDisabled
	}
	token, err := a.sessions.NewSession(user.ID)
	if err != nil {
		return domain.User{}, "", fmt.Errorf("issue session: %w", err)
	}
	return user, token, nil
}

// Logout invalidates a session token.
func (a *App) Logout(token string) error {
	return a.sessions.DeleteSession(token)
}

// UserFromToken resolves a user from a session token.
func (a *App) UserFromToken(token string) (domain.User, bool) {
	uid, ok, err := a.sessions.GetUserIDByToken(token)
	if err != nil || !ok {
		return domain.User{}, false
	}
	user, found, err := a.store.GetUserByID(uid)
	if err != nil || !found {
		return domain.User{}, false
	}
	if user.Status == domain.StatusDisabled {
		return domain.User{}, false
	}
	return user, true
}

// ForgotPassword emails a reset code. Unknown emails surface as an error;
// the product treats that as acceptable UX over strict non-enumeration.
func (a *App) ForgotPassword(ctx context.Context, email string) error {
	email = normalizeEmail(email)
	if email == "" {
		return ErrEmailRequired
	}
	exists, err := a.store.HasUserEmail(email)
	if err != nil {
		return fmt.Errorf("check email: %w", err)
	}
	if !exists {
		return ErrAccountNotFound
	}
	return a.requestCode(ctx, email, domain.CodeReset)
}

// ResetPassword consumes a reset code and sets a new password. Proving
// inbox ownership also activates a still-pending account.
func (a *App) ResetPassword(email, code, newPassword string) error {
	email = normalizeEmail(email)
	if err := auth.ValidatePassword(newPassword); err != nil {
		return err
	}
	if err := a.consumeCode(email, domain.CodeReset, code); err != nil {
		return err
	}
	user, found, err := a.store.GetUserByEmail(email)
	if err != nil {
		return fmt.Errorf("fetch user: %w", err)
	}
	if !found {
		return ErrInvalidOrExpiredCode
	}
	passwordHash, err := auth.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	user.PasswordHash = passwordHash
	if user.Status == domain.StatusPending {
		user.Status = domain.StatusActive
	}
	user.UpdatedAt = a.now()
	if err := a.store.SaveUser(user); err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	return nil
}

func normalizeEmail(email string) string {
	email = strings.TrimSpace(strings.ToLower(email))
	if !strings.Contains(email, "@") {
		return ""
	}
	return email
}
