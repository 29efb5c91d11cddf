package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/inkwell/inkwell/internal/auth/domain"
	"github.com/inkwell/inkwell/internal/auth/store"
	"github.com/inkwell/inkwell/pkg/cryptox"
	"github.com/inkwell/inkwell/pkg/idx"
	"github.com/inkwell/inkwell/pkg/slogx"
)

var (
	// ErrInvalidCredentials covers unknown identifier, wrong password and
	// unconfirmed account alike. Callers must not be able to tell which.
	ErrInvalidCredentials = errors.New("invalid_credentials")

	ErrLoginTaken       = errors.New("login_taken")
	ErrEmailTaken       = errors.New("email_taken")
	ErrInvalidInput     = errors.New("invalid_input")
	ErrInvalidCode      = errors.New("invalid_code")
	ErrCodeExpired      = errors.New("code_expired")
	ErrEmailNotFound    = errors.New("email_not_found")
	ErrAlreadyConfirmed = errors.New("already_confirmed")
)

const (
	minPasswordLength = 6
	maxPasswordLength = 20

	// DefaultConfirmationTTL bounds how long a registration confirmation
	// code stays redeemable.
	DefaultConfirmationTTL = 24 * time.Hour
	// DefaultRecoveryTTL bounds a password recovery code.
	DefaultRecoveryTTL = 1 * time.Hour
)

// dummyHash is compared against when the identifier resolves no user, so a
// failed lookup costs the same as a failed password check.
var dummyHash, _ = cryptox.HashPassword("timing-equalizer")

// CredentialService owns user identity: credential verification and the
// registration / confirmation / recovery / ban lifecycle around it.
type CredentialService struct {
	Store  store.Store
	Mailer Mailer

	ConfirmationTTL time.Duration
	RecoveryTTL     time.Duration
}

// VerifyCredentials checks loginOrEmail + password and returns the resolved
// user, including ban state for the caller's gating. Every negative outcome
// is ErrInvalidCredentials; only infrastructure faults surface differently.
// No side effects.
func (s *CredentialService) VerifyCredentials(ctx context.Context, loginOrEmail, password string) (domain.User, error) {
	user, err := s.Store.Users().GetByLoginOrEmail(ctx, strings.TrimSpace(loginOrEmail))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			cryptox.VerifyPassword(password, dummyHash)
			return domain.User{}, ErrInvalidCredentials
		}
		return domain.User{}, err
	}

	if !cryptox.VerifyPassword(password, user.PasswordHash) {
		return domain.User{}, ErrInvalidCredentials
	}

	// Checked after the hash so an unconfirmed account is indistinguishable
	// from a wrong password, in shape and in timing.
	if !user.IsConfirmed {
		return domain.User{}, ErrInvalidCredentials
	}

	return user, nil
}

// Register creates a new account with a pending confirmation code. The user
// row, ban state and confirmation code are one row written in one
// transaction; a half-created account cannot exist.
func (s *CredentialService) Register(ctx context.Context, login, email, password string) (domain.User, error) {
	log := slogx.FromContext(ctx)

	login = strings.TrimSpace(login)
	email = strings.ToLower(strings.TrimSpace(email))
	if err := validateRegistration(login, email, password); err != nil {
		return domain.User{}, err
	}

	hash, err := cryptox.HashPassword(password)
	if err != nil {
		return domain.User{}, fmt.Errorf("hashing password: %w", err)
	}

	code, err := cryptox.GenerateCode(cryptox.CodeSize128)
	if err != nil {
		return domain.User{}, fmt.Errorf("generating confirmation code: %w", err)
	}

	now := time.Now().UTC()
	expiresAt := now.Add(s.confirmationTTL())
	user := domain.User{
		ID:                    idx.New().String(),
		Login:                 login,
		Email:                 email,
		PasswordHash:          hash,
		CreatedAt:             now,
		ConfirmationCode:      &code,
		ConfirmationExpiresAt: &expiresAt,
		IsConfirmed:           false,
	}

	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		return tx.Users().Create(ctx, user)
	})
	if err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return domain.User{}, s.classifyConflict(ctx, email)
		}
		return domain.User{}, err
	}

	// Delivery failure must not roll back the account; the user can ask for
	// a resend.
	if err := s.Mailer.SendConfirmation(ctx, email, code); err != nil {
		log.Error("failed to send confirmation email",
			slog.String("email", email), slog.Any("error", err))
	}

	return user, nil
}

// Confirm consumes a confirmation code. The code is cleared in the same
// statement that confirms, so redeeming twice fails.
func (s *CredentialService) Confirm(ctx context.Context, code string) error {
	user, err := s.Store.Users().GetByConfirmationCode(ctx, strings.TrimSpace(code))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrInvalidCode
		}
		return err
	}

	if user.ConfirmationExpiresAt == nil || time.Now().UTC().After(*user.ConfirmationExpiresAt) {
		return ErrCodeExpired
	}

	if err := s.Store.Users().Confirm(ctx, user.ID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrInvalidCode
		}
		return err
	}
	return nil
}

// ResendConfirmation replaces the pending confirmation code for an
// unconfirmed account and mails the new one.
func (s *CredentialService) ResendConfirmation(ctx context.Context, email string) error {
	user, err := s.Store.Users().GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrEmailNotFound
		}
		return err
	}
	if user.IsConfirmed {
		return ErrAlreadyConfirmed
	}

	code, err := cryptox.GenerateCode(cryptox.CodeSize128)
	if err != nil {
		return fmt.Errorf("generating confirmation code: %w", err)
	}

	expiresAt := time.Now().UTC().Add(s.confirmationTTL())
	if err := s.Store.Users().SetConfirmationCode(ctx, user.ID, code, expiresAt); err != nil {
		return err
	}

	return s.Mailer.SendConfirmation(ctx, user.Email, code)
}

// RequestRecovery issues a password recovery code. An unknown email is not
// an error: responding differently would confirm which addresses have
// accounts.
func (s *CredentialService) RequestRecovery(ctx context.Context, email string) error {
	log := slogx.FromContext(ctx)

	user, err := s.Store.Users().GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			log.Info("password recovery requested for unknown email")
			return nil
		}
		return err
	}

	code, err := cryptox.GenerateCode(cryptox.CodeSize256)
	if err != nil {
		return fmt.Errorf("generating recovery code: %w", err)
	}

	expiresAt := time.Now().UTC().Add(s.recoveryTTL())
	if err := s.Store.Users().SetRecoveryCode(ctx, user.ID, code, expiresAt); err != nil {
		return err
	}

	return s.Mailer.SendRecovery(ctx, user.Email, code)
}

// ResetPassword consumes a recovery code, replaces the password hash and
// revokes every device session the account holds.
func (s *CredentialService) ResetPassword(ctx context.Context, code, newPassword string) error {
	if len(newPassword) < minPasswordLength || len(newPassword) > maxPasswordLength {
		return ErrInvalidInput
	}

	user, err := s.Store.Users().GetByRecoveryCode(ctx, strings.TrimSpace(code))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrInvalidCode
		}
		return err
	}

	if user.RecoveryExpiresAt == nil || time.Now().UTC().After(*user.RecoveryExpiresAt) {
		return ErrCodeExpired
	}

	hash, err := cryptox.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}

	return s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.Users().UpdatePasswordHash(ctx, user.ID, hash); err != nil {
			return err
		}
		return tx.Sessions().DeleteAllForUser(ctx, user.ID)
	})
}

// Ban marks the user banned and terminates all their device sessions in one
// transaction, so no live refresh token survives the ban.
func (s *CredentialService) Ban(ctx context.Context, userID, reason string) error {
	now := time.Now().UTC()
	ban := domain.BanInfo{IsBanned: true, BanDate: &now, BanReason: &reason}

	return s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.Users().SetBan(ctx, userID, ban); err != nil {
			return err
		}
		return tx.Sessions().DeleteAllForUser(ctx, userID)
	})
}

// Unban clears the ban state.
func (s *CredentialService) Unban(ctx context.Context, userID string) error {
	return s.Store.Users().SetBan(ctx, userID, domain.BanInfo{})
}

// GetUserByID fetches a user by id.
func (s *CredentialService) GetUserByID(ctx context.Context, userID string) (domain.User, error) {
	return s.Store.Users().GetByID(ctx, userID)
}

func (s *CredentialService) confirmationTTL() time.Duration {
	if s.ConfirmationTTL > 0 {
		return s.ConfirmationTTL
	}
	return DefaultConfirmationTTL
}

func (s *CredentialService) recoveryTTL() time.Duration {
	if s.RecoveryTTL > 0 {
		return s.RecoveryTTL
	}
	return DefaultRecoveryTTL
}

// classifyConflict resolves which unique column collided so registration can
// report the offending field. Registration is not an authentication path, so
// naming the field is not an oracle concern.
func (s *CredentialService) classifyConflict(ctx context.Context, email string) error {
	_, err := s.Store.Users().GetByEmail(ctx, email)
	switch {
	case err == nil:
		return ErrEmailTaken
	case errors.Is(err, store.ErrNotFound):
		return ErrLoginTaken
	default:
		return fmt.Errorf("classifying registration conflict: %w", err)
	}
}

func validateRegistration(login, email, password string) error {
	if len(login) < domain.MinLoginLength || len(login) > domain.MaxLoginLength {
		return ErrInvalidInput
	}
	if email == "" || !strings.Contains(email, "@") {
		return ErrInvalidInput
	}
	if len(password) < minPasswordLength || len(password) > maxPasswordLength {
		return ErrInvalidInput
	}
	return nil
}
