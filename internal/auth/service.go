// Copyright (c) 2026 Inkpress. All rights reserved.
// Author: dev@inkpress.app

package auth

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/inkpress/inkpress/internal/platform/apperr"
	"github.com/inkpress/inkpress/internal/platform/constants"
	"github.com/inkpress/inkpress/internal/platform/mailer"
	"github.com/inkpress/inkpress/internal/platform/sec"
	"github.com/inkpress/inkpress/internal/platform/validate"
	"github.com/inkpress/inkpress/pkg/uuid"
)

// Client-safe messages. Credential failures stay deliberately generic so a
// failed lookup and a failed password compare are indistinguishable.
const (
	MsgInvalidCredentials      = "Invalid email or password."
	MsgInvalidOTP              = "Verification code is invalid."
	MsgInvalidAdminCredentials = "Invalid admin credentials or insufficient privileges."
	MsgResetInstructionsSent   = "If an account with that email exists, we've sent password reset instructions."
	MsgAccountBlocked          = "Your account has been blocked. Please contact support."
	MsgAlreadyVerified         = "This account is already verified. Please sign in."
	MsgOTPExpiredReissued      = "Your verification code has expired. We've sent a new one to your email."
	MsgResetTokenInvalid       = "This password reset link is invalid or has expired."
	MsgMailDeliveryFailed      = "We couldn't send the email. Please try again."
)

// CodeOTPExpired marks the self-healing expired-code path: a fresh code
// was already issued and sent by the time the caller sees this error.
const CodeOTPExpired = "OTP_EXPIRED"

// Service orchestrates the account lifecycle workflows.
//
// # Ordering guarantee
//
// Every secret (one-time code, reset token) is persisted before the
// corresponding email send is attempted. A failed send never rolls the
// secret back; the caller is told to retry delivery, not to restart the
// flow.
type Service struct {
	users    UserRepository
	mail     mailer.Mailer
	logger   *slog.Logger
	baseURL  string
	mailFrom string

	// now is swappable for credential-window tests.
	now func() time.Time
}

// NewService wires the account workflows to their collaborators.
func NewService(users UserRepository, mail mailer.Mailer, logger *slog.Logger, baseURL, mailFrom string) *Service {
	return &Service{
		users:    users,
		mail:     mail,
		logger:   logger,
		baseURL:  strings.TrimSuffix(baseURL, "/"),
		mailFrom: mailFrom,
		now:      time.Now,
	}
}

// normalizeEmail is the canonical form used for storage and comparison.
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// isNotFound reports whether err is the repository's missing-account error.
func isNotFound(err error) bool {
	return apperr.IsCode(err, "NOT_FOUND")
}

// # Signup & Verification

/*
Signup starts the registration flow for an email address.

A brand-new address gets an unverified account with a one-time code. An
existing unverified address gets a fresh code on the existing account
(re-signup is self-healing, not an error). An already-verified address is
rejected with a conflict.

# Returns

The pending account. The error may be a mail-delivery failure even when
the account and its code were persisted; the code stays valid so the
caller can retry with the resend action.
*/
func (s *Service) Signup(ctx context.Context, email string) (*User, error) {
	v := &validate.Validator{}
	v.Required("Email", email)
	if strings.TrimSpace(email) != "" {
		v.Email(email)
	}
	if err := v.Err(); err != nil {
		return nil, err
	}

	email = normalizeEmail(email)

	existing, err := s.users.FindByEmail(ctx, email)
	if err != nil && !isNotFound(err) {
		return nil, apperr.Internal(err)
	}

	if existing != nil {
		if existing.IsVerified {
			return nil, apperr.Conflict("An account with this email already exists. Please sign in instead.")
		}
		// Unverified re-signup: reissue on the existing account.
		return s.reissueAndSend(ctx, existing)
	}

	user := &User{
		ID:    uuid.New(),
		Email: email,
	}

	code, err := issueOTP(user, s.now())
	if err != nil {
		return nil, apperr.Internal(err)
	}

	if err := s.users.Create(ctx, user); err != nil {
		return nil, apperr.Internal(err)
	}

	s.logger.Info("account created", slog.String("user_id", user.ID))

	return user, s.deliverVerification(ctx, user, code)
}

// ResendCode issues and sends a fresh verification code for a pending
// account. The previous code is invalidated by the overwrite.
func (s *Service) ResendCode(ctx context.Context, email string) (*User, error) {
	user, err := s.users.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if isNotFound(err) {
			return nil, err
		}
		return nil, apperr.Internal(err)
	}

	if user.IsVerified {
		return nil, apperr.Conflict(MsgAlreadyVerified)
	}

	return s.reissueAndSend(ctx, user)
}

// reissueAndSend overwrites the account's code, persists, then delivers.
func (s *Service) reissueAndSend(ctx context.Context, user *User) (*User, error) {
	code, err := issueOTP(user, s.now())
	if err != nil {
		return nil, apperr.Internal(err)
	}

	if err := s.users.Save(ctx, user); err != nil {
		return nil, apperr.Internal(err)
	}

	return user, s.deliverVerification(ctx, user, code)
}

// deliverVerification sends the code email. The code is already persisted;
// a send failure is recoverable and must not invalidate it.
func (s *Service) deliverVerification(ctx context.Context, user *User, code string) error {
	message := verificationEmail(user.Email, s.mailFrom, code)
	if err := s.mail.Send(ctx, message); err != nil {
		s.logger.Error("verification email failed",
			slog.String("user_id", user.ID),
			slog.Any("error", err),
		)
		return apperr.Downstream(MsgMailDeliveryFailed, err)
	}
	return nil
}

// VerifyInput carries the verification form fields.
type VerifyInput struct {
	Email           string
	Code            string
	Password        string
	ConfirmPassword string
}

/*
Verify completes registration: it checks the one-time code and, in the
same step, sets the account's first password and marks it verified.

An expired code is not a dead end: a fresh one is issued and sent, and
the caller gets a [CodeOTPExpired] error telling the user to check their
inbox again. A wrong code fails with a generic invalid-code message.
*/
func (s *Service) Verify(ctx context.Context, input VerifyInput) (*User, error) {
	v := &validate.Validator{}
	v.Required("Email", input.Email).
		Required("Verification code", input.Code).
		Digits("Verification code", input.Code, sec.OTPLength).
		Required("Password", input.Password).
		Required("Password confirmation", input.ConfirmPassword).
		Match(input.Password, input.ConfirmPassword, "Passwords do not match.")
	if strings.TrimSpace(input.Password) != "" {
		v.MinLen("Password", input.Password, constants.MinPasswordLength)
	}
	if err := v.Err(); err != nil {
		return nil, err
	}

	user, err := s.users.FindByEmail(ctx, normalizeEmail(input.Email))
	if err != nil {
		if isNotFound(err) {
			return nil, err
		}
		return nil, apperr.Internal(err)
	}

	if user.IsVerified {
		return nil, apperr.Conflict(MsgAlreadyVerified)
	}

	switch checkOTP(user, input.Code, s.now()) {
	case otpExpired:
		// Self-healing: reissue and resend rather than rejecting.
		if _, err := s.reissueAndSend(ctx, user); err != nil {
			return nil, err
		}
		return nil, &apperr.AppError{
			Code:       CodeOTPExpired,
			Message:    MsgOTPExpiredReissued,
			HTTPStatus: http.StatusUnauthorized,
		}
	case otpInvalid:
		return nil, apperr.Unauthorized(MsgInvalidOTP)
	}

	hash, err := sec.HashSecret(input.Password)
	if err != nil {
		return nil, apperr.Internal(err)
	}

	user.PasswordHash = &hash
	user.IsVerified = true
	user.ClearOTP()

	if err := s.users.Save(ctx, user); err != nil {
		return nil, apperr.Internal(err)
	}

	s.logger.Info("account verified", slog.String("user_id", user.ID))

	return user, nil
}

// # Login

// Login authenticates a member by email and password.
//
// All credential failures collapse into one generic message; only a
// blocked account is reported distinctly, since the caller already proved
// knowledge of the password at that point.
func (s *Service) Login(ctx context.Context, email, password string) (*User, error) {
	v := &validate.Validator{}
	v.Required("Email", email).Required("Password", password)
	if err := v.Err(); err != nil {
		return nil, err
	}

	user, err := s.users.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if isNotFound(err) {
			return nil, apperr.Unauthorized(MsgInvalidCredentials)
		}
		return nil, apperr.Internal(err)
	}

	if !user.IsVerified || !user.HasPassword() {
		return nil, apperr.Unauthorized(MsgInvalidCredentials)
	}
	if !sec.CompareSecret(password, *user.PasswordHash) {
		return nil, apperr.Unauthorized(MsgInvalidCredentials)
	}
	if user.IsBlocked {
		return nil, apperr.Forbidden(MsgAccountBlocked)
	}

	return user, nil
}

// AdminLogin authenticates an administrator. A valid member without the
// admin flag fails with the same message as a wrong password; the admin
// form never confirms which part was wrong.
func (s *Service) AdminLogin(ctx context.Context, email, password string) (*User, error) {
	v := &validate.Validator{}
	v.Required("Email", email).Required("Password", password)
	if err := v.Err(); err != nil {
		return nil, err
	}

	user, err := s.users.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if isNotFound(err) {
			return nil, apperr.Unauthorized(MsgInvalidAdminCredentials)
		}
		return nil, apperr.Internal(err)
	}

	if !user.IsAdmin || !user.IsVerified || !user.HasPassword() {
		return nil, apperr.Unauthorized(MsgInvalidAdminCredentials)
	}
	if !sec.CompareSecret(password, *user.PasswordHash) {
		return nil, apperr.Unauthorized(MsgInvalidAdminCredentials)
	}
	if user.IsBlocked {
		return nil, apperr.Forbidden(MsgAccountBlocked)
	}

	return user, nil
}

// # Password Recovery

/*
ForgotPassword issues a password-reset token and emails the reset link.

A missing or unverified account is NOT an error: the caller must show the
same generic confirmation either way, so account existence never leaks
through this endpoint.
*/
func (s *Service) ForgotPassword(ctx context.Context, email string) error {
	v := &validate.Validator{}
	v.Required("Email", email)
	if strings.TrimSpace(email) != "" {
		v.Email(email)
	}
	if err := v.Err(); err != nil {
		return err
	}

	user, err := s.users.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if isNotFound(err) {
			return nil
		}
		return apperr.Internal(err)
	}
	if !user.IsVerified || !user.HasPassword() {
		return nil
	}

	token, err := issueResetToken(user, s.now())
	if err != nil {
		return apperr.Internal(err)
	}

	// Persist before send; the token must survive a failed delivery.
	if err := s.users.Save(ctx, user); err != nil {
		return apperr.Internal(err)
	}

	resetURL := fmt.Sprintf("%s/auth/reset-password?token=%s", s.baseURL, url.QueryEscape(token))
	if err := s.mail.Send(ctx, resetEmail(user.Email, s.mailFrom, resetURL)); err != nil {
		s.logger.Error("reset email failed",
			slog.String("user_id", user.ID),
			slog.Any("error", err),
		)
		return apperr.Downstream(MsgMailDeliveryFailed, err)
	}

	return nil
}

// ResetPassword consumes a reset token and sets the new password.
//
// The token lookup is the hashed-at-rest scan from findUserByResetToken;
// clearing the token state on success makes every token single-use. The
// caller is not signed in afterwards.
func (s *Service) ResetPassword(ctx context.Context, token, password, confirmPassword string) error {
	v := &validate.Validator{}
	v.Required("Password", password).
		Required("Password confirmation", confirmPassword).
		Match(password, confirmPassword, "Passwords do not match.")
	if strings.TrimSpace(password) != "" {
		v.MinLen("Password", password, constants.MinPasswordLength)
	}
	if token == "" {
		v.Add(MsgResetTokenInvalid)
	}
	if err := v.Err(); err != nil {
		return err
	}

	user, err := findUserByResetToken(ctx, s.users, token, s.now())
	if err != nil {
		return apperr.Internal(err)
	}
	if user == nil {
		return &apperr.AppError{
			Code:       "NOT_FOUND",
			Message:    MsgResetTokenInvalid,
			HTTPStatus: http.StatusNotFound,
		}
	}

	hash, err := sec.HashSecret(password)
	if err != nil {
		return apperr.Internal(err)
	}

	user.PasswordHash = &hash
	user.ClearResetToken()

	if err := s.users.Save(ctx, user); err != nil {
		return apperr.Internal(err)
	}

	s.logger.Info("password reset", slog.String("user_id", user.ID))

	return nil
}

// # Bootstrap

// BootstrapAdmin ensures a verified administrator account exists for the
// configured email, creating it on first boot. Intended to be called once
// at startup; it never downgrades an existing account.
func (s *Service) BootstrapAdmin(ctx context.Context, email, password string) error {
	if email == "" || password == "" {
		return nil
	}

	email = normalizeEmail(email)

	existing, err := s.users.FindByEmail(ctx, email)
	if err != nil && !isNotFound(err) {
		return fmt.Errorf("auth_bootstrap_lookup_failed: %w", err)
	}

	if existing != nil {
		if existing.IsAdmin {
			return nil
		}
		existing.IsAdmin = true
		if err := s.users.Save(ctx, existing); err != nil {
			return fmt.Errorf("auth_bootstrap_promote_failed: %w", err)
		}
		s.logger.Info("bootstrap admin promoted", slog.String("user_id", existing.ID))
		return nil
	}

	hash, err := sec.HashSecret(password)
	if err != nil {
		return fmt.Errorf("auth_bootstrap_hash_failed: %w", err)
	}

	admin := &User{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: &hash,
		IsVerified:   true,
		IsAdmin:      true,
	}

	if err := s.users.Create(ctx, admin); err != nil {
		return fmt.Errorf("auth_bootstrap_create_failed: %w", err)
	}

	s.logger.Info("bootstrap admin created", slog.String("user_id", admin.ID))

	return nil
}
