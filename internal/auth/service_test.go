// Copyright (c) 2026 Inkpress. All rights reserved.
// Author: dev@inkpress.app

package auth

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inkpress/inkpress/internal/platform/apperr"
	"github.com/inkpress/inkpress/internal/platform/mailer"
	"github.com/inkpress/inkpress/internal/platform/sec"
)

// # Test Doubles

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[string]*User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[string]*User)}
}

func (r *fakeUserRepo) Create(_ context.Context, user *User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *user
	r.users[user.ID] = &copied
	return nil
}

func (r *fakeUserRepo) FindByEmail(_ context.Context, email string) (*User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, user := range r.users {
		if strings.EqualFold(user.Email, email) {
			copied := *user
			return &copied, nil
		}
	}
	return nil, apperr.NotFound("Account")
}

func (r *fakeUserRepo) FindByID(_ context.Context, id string) (*User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if user, found := r.users[id]; found {
		copied := *user
		return &copied, nil
	}
	return nil, apperr.NotFound("Account")
}

func (r *fakeUserRepo) Save(_ context.Context, user *User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, found := r.users[user.ID]; !found {
		return apperr.NotFound("Account")
	}
	copied := *user
	r.users[user.ID] = &copied
	return nil
}

func (r *fakeUserRepo) FindWithActiveResetToken(_ context.Context, now time.Time) ([]*User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var matches []*User
	for _, user := range r.users {
		if user.ResetTokenHash != nil && user.ResetTokenExpiresAt != nil && user.ResetTokenExpiresAt.After(now) {
			copied := *user
			matches = append(matches, &copied)
		}
	}
	return matches, nil
}

func (r *fakeUserRepo) SetBlocked(_ context.Context, userID string, blocked bool, blockedBy string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, found := r.users[userID]
	if !found {
		return apperr.NotFound("Account")
	}
	user.IsBlocked = blocked
	if blocked {
		now := time.Now()
		user.BlockedAt = &now
		user.BlockedBy = &blockedBy
	} else {
		user.BlockedAt = nil
		user.BlockedBy = nil
	}
	return nil
}

func (r *fakeUserRepo) Count(_ context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.users)), nil
}

type captureMailer struct {
	mu       sync.Mutex
	messages []mailer.Message
	fail     bool
}

func (m *captureMailer) Send(_ context.Context, message mailer.Message) error {
	if m.fail {
		return errors.New("smtp unreachable")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, message)
	return nil
}

func (m *captureMailer) last(t *testing.T) mailer.Message {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	require.NotEmpty(t, m.messages)
	return m.messages[len(m.messages)-1]
}

var (
	codePattern  = regexp.MustCompile(`\b(\d{6})\b`)
	tokenPattern = regexp.MustCompile(`token=([0-9a-f]+)`)
)

func newTestService(t *testing.T) (*Service, *fakeUserRepo, *captureMailer, *time.Time) {
	t.Helper()

	repo := newFakeUserRepo()
	mail := &captureMailer{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	service := NewService(repo, mail, logger, "https://inkpress.test", "no-reply@inkpress.test")

	current := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	service.now = func() time.Time { return current }

	return service, repo, mail, &current
}

// signupAndCode runs a signup and extracts the delivered code.
func signupAndCode(t *testing.T, service *Service, mail *captureMailer, email string) (*User, string) {
	t.Helper()

	user, err := service.Signup(context.Background(), email)
	require.NoError(t, err)

	match := codePattern.FindStringSubmatch(mail.last(t).Text)
	require.Len(t, match, 2)

	return user, match[1]
}

// # Signup & Verification

func TestSignup_CreatesUnverifiedAccountAndSendsCode(t *testing.T) {
	service, repo, mail, _ := newTestService(t)

	user, code := signupAndCode(t, service, mail, "A@B.com")

	assert.Equal(t, "a@b.com", user.Email, "email must be normalized")
	assert.False(t, user.IsVerified)
	assert.Nil(t, user.PasswordHash)
	require.NotNil(t, user.OTPHash)
	assert.True(t, sec.CompareSecret(code, *user.OTPHash))

	stored, err := repo.FindByEmail(context.Background(), "a@b.com")
	require.NoError(t, err)
	assert.False(t, stored.IsVerified)
}

func TestSignup_VerifiedEmailConflicts(t *testing.T) {
	service, _, mail, _ := newTestService(t)

	_, code := signupAndCode(t, service, mail, "a@b.com")
	_, err := service.Verify(context.Background(), VerifyInput{
		Email: "a@b.com", Code: code, Password: "longenough1", ConfirmPassword: "longenough1",
	})
	require.NoError(t, err)

	_, err = service.Signup(context.Background(), "a@b.com")
	assert.True(t, apperr.IsCode(err, "CONFLICT"))
}

func TestSignup_UnverifiedResignupOverwritesCode(t *testing.T) {
	service, _, mail, _ := newTestService(t)

	_, firstCode := signupAndCode(t, service, mail, "a@b.com")
	_, secondCode := signupAndCode(t, service, mail, "a@b.com")

	// The old code is dead; only the latest one verifies.
	_, err := service.Verify(context.Background(), VerifyInput{
		Email: "a@b.com", Code: firstCode, Password: "longenough1", ConfirmPassword: "longenough1",
	})
	if firstCode != secondCode {
		require.Error(t, err)
		assert.Equal(t, MsgInvalidOTP, err.Error())
	}

	user, err := service.Verify(context.Background(), VerifyInput{
		Email: "a@b.com", Code: secondCode, Password: "longenough1", ConfirmPassword: "longenough1",
	})
	require.NoError(t, err)
	assert.True(t, user.IsVerified)
}

func TestSignup_MailFailureKeepsPersistedCode(t *testing.T) {
	service, repo, mail, _ := newTestService(t)
	mail.fail = true

	user, err := service.Signup(context.Background(), "a@b.com")
	require.Error(t, err)
	assert.True(t, apperr.IsCode(err, "DOWNSTREAM_ERROR"))
	require.NotNil(t, user)

	// The account and its code survived the failed delivery.
	stored, findErr := repo.FindByEmail(context.Background(), "a@b.com")
	require.NoError(t, findErr)
	assert.NotNil(t, stored.OTPHash)
	assert.NotNil(t, stored.OTPExpiresAt)
}

func TestVerify_SuccessSetsPasswordAndClearsCode(t *testing.T) {
	service, repo, mail, _ := newTestService(t)

	_, code := signupAndCode(t, service, mail, "a@b.com")

	user, err := service.Verify(context.Background(), VerifyInput{
		Email: "a@b.com", Code: code, Password: "longenough1", ConfirmPassword: "longenough1",
	})
	require.NoError(t, err)

	assert.True(t, user.IsVerified)
	require.NotNil(t, user.PasswordHash)
	assert.True(t, sec.CompareSecret("longenough1", *user.PasswordHash))
	assert.Nil(t, user.OTPHash)
	assert.Nil(t, user.OTPExpiresAt)

	stored, err := repo.FindByEmail(context.Background(), "a@b.com")
	require.NoError(t, err)
	assert.True(t, stored.IsVerified)
}

func TestVerify_WrongCodeIsGeneric(t *testing.T) {
	service, _, mail, _ := newTestService(t)

	_, code := signupAndCode(t, service, mail, "a@b.com")
	wrong := "000000"
	if wrong == code {
		wrong = "000001"
	}

	_, err := service.Verify(context.Background(), VerifyInput{
		Email: "a@b.com", Code: wrong, Password: "longenough1", ConfirmPassword: "longenough1",
	})
	require.Error(t, err)
	assert.Equal(t, MsgInvalidOTP, err.Error())
}

func TestVerify_ExpiredCodeSelfHeals(t *testing.T) {
	service, repo, mail, clock := newTestService(t)

	_, code := signupAndCode(t, service, mail, "a@b.com")

	// Push past the ten-minute window.
	*clock = clock.Add(11 * time.Minute)

	_, err := service.Verify(context.Background(), VerifyInput{
		Email: "a@b.com", Code: code, Password: "longenough1", ConfirmPassword: "longenough1",
	})
	require.Error(t, err)
	assert.True(t, apperr.IsCode(err, CodeOTPExpired))

	// A replacement code was issued, persisted, and delivered.
	stored, findErr := repo.FindByEmail(context.Background(), "a@b.com")
	require.NoError(t, findErr)
	assert.False(t, stored.IsVerified)
	require.NotNil(t, stored.OTPExpiresAt)
	assert.True(t, stored.OTPExpiresAt.After(*clock))

	newMatch := codePattern.FindStringSubmatch(mail.last(t).Text)
	require.Len(t, newMatch, 2)
	assert.True(t, sec.CompareSecret(newMatch[1], *stored.OTPHash))
}

func TestVerify_CollectsAllValidationMessages(t *testing.T) {
	service, _, _, _ := newTestService(t)

	_, err := service.Verify(context.Background(), VerifyInput{
		Email: "a@b.com", Code: "12", Password: "short", ConfirmPassword: "different",
	})
	require.Error(t, err)

	appError := apperr.As(err)
	require.NotNil(t, appError)
	assert.Equal(t, "VALIDATION_ERROR", appError.Code)
	assert.Contains(t, appError.Errors, "Verification code must be 6 digits.")
	assert.Contains(t, appError.Errors, "Passwords do not match.")
	assert.Contains(t, appError.Errors, "Password must be at least 8 characters long.")
}

// # Login

func verifiedUser(t *testing.T, service *Service, mail *captureMailer, email, password string) *User {
	t.Helper()

	_, code := signupAndCode(t, service, mail, email)
	user, err := service.Verify(context.Background(), VerifyInput{
		Email: email, Code: code, Password: password, ConfirmPassword: password,
	})
	require.NoError(t, err)
	return user
}

func TestLogin_Success(t *testing.T) {
	service, _, mail, _ := newTestService(t)
	verifiedUser(t, service, mail, "a@b.com", "longenough1")

	user, err := service.Login(context.Background(), "A@B.COM", "longenough1")
	require.NoError(t, err)
	assert.Equal(t, "a@b.com", user.Email)
}

func TestLogin_FailuresAreIndistinguishable(t *testing.T) {
	service, _, mail, _ := newTestService(t)
	verifiedUser(t, service, mail, "a@b.com", "longenough1")

	_, unknownErr := service.Login(context.Background(), "nobody@b.com", "longenough1")
	_, wrongErr := service.Login(context.Background(), "a@b.com", "wrongpassword")

	require.Error(t, unknownErr)
	require.Error(t, wrongErr)
	assert.Equal(t, unknownErr.Error(), wrongErr.Error())
	assert.Equal(t, MsgInvalidCredentials, wrongErr.Error())
}

func TestLogin_UnverifiedAccountIsGeneric(t *testing.T) {
	service, _, _, _ := newTestService(t)

	_, err := service.Signup(context.Background(), "a@b.com")
	require.NoError(t, err)

	_, err = service.Login(context.Background(), "a@b.com", "whatever123")
	require.Error(t, err)
	assert.Equal(t, MsgInvalidCredentials, err.Error())
}

func TestLogin_BlockedAccountIsRejected(t *testing.T) {
	service, repo, mail, _ := newTestService(t)
	user := verifiedUser(t, service, mail, "a@b.com", "longenough1")

	require.NoError(t, repo.SetBlocked(context.Background(), user.ID, true, "admin-1"))

	_, err := service.Login(context.Background(), "a@b.com", "longenough1")
	require.Error(t, err)
	assert.True(t, apperr.IsCode(err, "FORBIDDEN"))
}

func TestAdminLogin_NonAdminIsRejectedGenerically(t *testing.T) {
	service, _, mail, _ := newTestService(t)
	verifiedUser(t, service, mail, "a@b.com", "longenough1")

	_, err := service.AdminLogin(context.Background(), "a@b.com", "longenough1")
	require.Error(t, err)
	assert.Equal(t, MsgInvalidAdminCredentials, err.Error())

	_, err = service.AdminLogin(context.Background(), "nobody@b.com", "longenough1")
	require.Error(t, err)
	assert.Equal(t, MsgInvalidAdminCredentials, err.Error())
}

// # Password Recovery

func TestForgotPassword_UnknownEmailIsSilent(t *testing.T) {
	service, _, mail, _ := newTestService(t)

	err := service.ForgotPassword(context.Background(), "nobody@b.com")
	require.NoError(t, err)
	assert.Empty(t, mail.messages, "no email for unknown accounts")
}

func TestResetPassword_RoundTripAndSingleUse(t *testing.T) {
	service, _, mail, _ := newTestService(t)
	verifiedUser(t, service, mail, "a@b.com", "longenough1")

	require.NoError(t, service.ForgotPassword(context.Background(), "a@b.com"))

	match := tokenPattern.FindStringSubmatch(mail.last(t).Text)
	require.Len(t, match, 2)
	token := match[1]
	assert.Len(t, token, 64, "256-bit token rendered as hex")

	err := service.ResetPassword(context.Background(), token, "brandnewpass1", "brandnewpass1")
	require.NoError(t, err)

	// New password works, old one is dead.
	_, err = service.Login(context.Background(), "a@b.com", "brandnewpass1")
	require.NoError(t, err)
	_, err = service.Login(context.Background(), "a@b.com", "longenough1")
	require.Error(t, err)

	// The token is single-use.
	err = service.ResetPassword(context.Background(), token, "anotherpass1", "anotherpass1")
	require.Error(t, err)
	assert.Equal(t, MsgResetTokenInvalid, err.Error())
}

func TestResetPassword_ExpiredTokenIsRejected(t *testing.T) {
	service, _, mail, clock := newTestService(t)
	verifiedUser(t, service, mail, "a@b.com", "longenough1")

	require.NoError(t, service.ForgotPassword(context.Background(), "a@b.com"))
	match := tokenPattern.FindStringSubmatch(mail.last(t).Text)
	require.Len(t, match, 2)

	*clock = clock.Add(61 * time.Minute)

	err := service.ResetPassword(context.Background(), match[1], "brandnewpass1", "brandnewpass1")
	require.Error(t, err)
	assert.Equal(t, MsgResetTokenInvalid, err.Error())
}

func TestForgotPassword_MailFailureKeepsToken(t *testing.T) {
	service, repo, mail, _ := newTestService(t)
	user := verifiedUser(t, service, mail, "a@b.com", "longenough1")

	mail.fail = true
	err := service.ForgotPassword(context.Background(), "a@b.com")
	require.Error(t, err)
	assert.True(t, apperr.IsCode(err, "DOWNSTREAM_ERROR"))

	stored, findErr := repo.FindByID(context.Background(), user.ID)
	require.NoError(t, findErr)
	assert.NotNil(t, stored.ResetTokenHash, "token must survive a failed delivery")
}

// # Bootstrap

func TestBootstrapAdmin_CreatesAndPromotes(t *testing.T) {
	service, repo, mail, _ := newTestService(t)

	require.NoError(t, service.BootstrapAdmin(context.Background(), "root@inkpress.test", "supersecret1"))

	admin, err := repo.FindByEmail(context.Background(), "root@inkpress.test")
	require.NoError(t, err)
	assert.True(t, admin.IsAdmin)
	assert.True(t, admin.IsVerified)

	// Idempotent on re-boot.
	require.NoError(t, service.BootstrapAdmin(context.Background(), "root@inkpress.test", "supersecret1"))

	// Promotes an existing member.
	member := verifiedUser(t, service, mail, "m@b.com", "longenough1")
	require.NoError(t, service.BootstrapAdmin(context.Background(), "m@b.com", "ignored-password"))
	promoted, err := repo.FindByID(context.Background(), member.ID)
	require.NoError(t, err)
	assert.True(t, promoted.IsAdmin)
}
