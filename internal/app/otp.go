package app

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"

	"intraprep/internal/mail"
	"intraprep/pkg/auth"
	"intraprep/pkg/domain"
)

// otpAttemptLimit caps wrong guesses per live code.
const otpAttemptLimit = 5

// requestCode issues a fresh verification code for (email, type), replacing
// any live one, and emails it. The plain code exists only in the outgoing
// email; storage keeps a bcrypt hash.
func (a *App) requestCode(ctx context.Context, email string, codeType domain.CodeType) error {
	if a.otpLimiter != nil && !a.otpLimiter.Allow("otp:"+string(codeType)+":"+email) {
		return ErrResendCooldown
	}
	code, err := generateCode()
	if err != nil {
		return fmt.Errorf("generate code: %w", err)
	}
	hash, err := auth.HashPassword(code)
	if err != nil {
		return fmt.Errorf("hash code: %w", err)
	}
	ttl := a.signupCodeTTL
	if codeType == domain.CodeReset {
		ttl = a.resetCodeTTL
	}
	now := a.now()
	if err := a.store.UpsertVerificationCode(domain.VerificationCode{
		Email:     email,
		Type:      codeType,
		CodeHash:  hash,
		Attempts:  0,
		ExpiresAt: now.Add(ttl),
		CreatedAt: now,
	}); err != nil {
		return fmt.Errorf("save code: %w", err)
	}

	minutes := int(ttl.Minutes())
	var subject, body string
	if codeType == domain.CodeReset {
		subject, body = mail.PasswordResetEmail(code, minutes)
	} else {
		subject, body = mail.VerificationEmail(code, minutes)
	}
	if err := a.mailer.Send(ctx, email, subject, body); err != nil {
		return fmt.Errorf("send code email: %w", err)
	}
	return nil
}

// consumeCode validates a submitted code and deletes it on success. Missing,
// expired, exhausted, and wrong codes all return ErrInvalidOrExpiredCode.
func (a *App) consumeCode(email string, codeType domain.CodeType, code string) error {
	rec, found, err := a.store.GetVerificationCode(email, codeType)
	if err != nil {
		return fmt.Errorf("fetch code: %w", err)
	}
	if !found {
		return ErrInvalidOrExpiredCode
	}
	if a.now().After(rec.ExpiresAt) {
		_ = a.store.DeleteVerificationCode(email, codeType)
		return ErrInvalidOrExpiredCode
	}
	if rec.Attempts >= otpAttemptLimit {
		_ = a.store.DeleteVerificationCode(email, codeType)
		return ErrInvalidOrExpiredCode
	}
	if !auth.CheckPassword(code, rec.CodeHash) {
		// Fail closed: an unrecorded attempt would let the cap be bypassed.
		if err := a.store.SetVerificationAttempts(email, codeType, rec.Attempts+1); err != nil {
			return fmt.Errorf("record code attempt: %w", err)
		}
		return ErrInvalidOrExpiredCode
	}
	if err := a.store.DeleteVerificationCode(email, codeType); err != nil {
		return fmt.Errorf("consume code: %w", err)
	}
	return nil
}

// generateCode returns a random 6-digit numeric code, zero-padded.
func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
