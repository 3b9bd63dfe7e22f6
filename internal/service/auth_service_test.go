package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TheRajesh1612/Aura-ChatBot/internal/database/dbtest"
	"github.com/TheRajesh1612/Aura-ChatBot/internal/repository"
)

// fakeMailer records sent mail and optionally fails
type fakeMailer struct {
	mu   sync.Mutex
	sent []sentMail
	err  error
}

type sentMail struct {
	to, subject, body string
}

func (m *fakeMailer) Send(_ context.Context, to, subject, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, sentMail{to: to, subject: subject, body: body})
	return nil
}

var codePattern = regexp.MustCompile(`<strong>(\d{6})</strong>`)

func (m *fakeMailer) lastCode(t *testing.T) string {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	require.NotEmpty(t, m.sent, "no mail sent")
	match := codePattern.FindStringSubmatch(m.sent[len(m.sent)-1].body)
	require.Len(t, match, 2)
	return match[1]
}

type testEnv struct {
	auth   *AuthService
	otps   *repository.MemoryOTPRepository
	mailer *fakeMailer
	clock  time.Time
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := dbtest.Open(t)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	env := &testEnv{
		otps:   repository.NewMemoryOTPRepository(),
		mailer: &fakeMailer{},
		clock:  time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC),
	}
	env.auth = NewAuthService(
		repository.NewUserRepository(db),
		repository.NewSessionRepository(db),
		env.otps,
		NewEmailService(env.mailer, logger, false),
		24*time.Hour,
		10*time.Minute,
		logger,
	)
	env.auth.now = func() time.Time { return env.clock }
	return env
}

func assertCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	assert.Equal(t, code, CodeOf(err), "error: %v", err)
}

func TestSignupAndLogin(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	user, err := env.auth.Signup(ctx, "a@x.com", "pw1")
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", user.Email)
	assert.NotEmpty(t, user.ID)

	session, err := env.auth.Login(ctx, "a@x.com", "pw1")
	require.NoError(t, err)
	assert.True(t, session.Authenticated)
	assert.Equal(t, "a@x.com", session.UserEmail)
	assert.Equal(t, env.clock.Add(24*time.Hour), session.ExpiresAt)

	_, err = env.auth.Login(ctx, "a@x.com", "wrong")
	assertCode(t, err, CodeAuth)
	assert.Equal(t, "Incorrect password!", MessageOf(err, ""))

	_, err = env.auth.Signup(ctx, "a@x.com", "other")
	assertCode(t, err, CodeConflict)
	assert.Equal(t, "Email is already used!", MessageOf(err, ""))
}

func TestEmailCaseInsensitive(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	user, err := env.auth.Signup(ctx, " Mixed@Example.COM ", "pw1")
	require.NoError(t, err)
	assert.Equal(t, "mixed@example.com", user.Email)

	_, err = env.auth.Signup(ctx, "MIXED@example.com", "pw2")
	assertCode(t, err, CodeConflict)

	session, err := env.auth.Login(ctx, "mixed@EXAMPLE.com", "pw1")
	require.NoError(t, err)
	assert.Equal(t, "mixed@example.com", session.UserEmail)

	require.NoError(t, env.auth.RequestOTP(ctx, "Mixed@Example.com"))
	code := env.mailer.lastCode(t)
	require.NoError(t, env.auth.VerifyOTP(ctx, "mixed@example.com", code))
	require.NoError(t, env.auth.ResetPassword(ctx, "MIXED@EXAMPLE.COM", code, "pw3"))

	_, err = env.auth.Login(ctx, "mixed@example.com", "pw3")
	require.NoError(t, err)
}

func TestSignupValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	tests := []struct {
		name     string
		email    string
		password string
		message  string
	}{
		{name: "missing email", email: "", password: "pw", message: "Email and password are required!"},
		{name: "blank email", email: "   ", password: "pw", message: "Email and password are required!"},
		{name: "missing password", email: "a@x.com", password: "", message: "Email and password are required!"},
		{name: "malformed email", email: "not-an-email", password: "pw", message: "Please enter a valid email address!"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.auth.Signup(ctx, tt.email, tt.password)
			assertCode(t, err, CodeValidation)
			assert.Equal(t, tt.message, MessageOf(err, ""))
		})
	}
}

func TestLoginUnknownUser(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.auth.Login(context.Background(), "ghost@x.com", "pw")
	assertCode(t, err, CodeNotFound)
	assert.Equal(t, "User not found!", MessageOf(err, ""))

	_, err = env.auth.Login(context.Background(), "", "pw")
	assertCode(t, err, CodeValidation)
}

func TestSessionLifecycle(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.auth.Signup(ctx, "s@x.com", "pw")
	require.NoError(t, err)
	session, err := env.auth.Login(ctx, "s@x.com", "pw")
	require.NoError(t, err)

	user, err := env.auth.CurrentUser(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, "s@x.com", user.Email)

	_, err = env.auth.CurrentSession(ctx, "")
	assertCode(t, err, CodeUnauthenticated)
	_, err = env.auth.CurrentSession(ctx, "no-such-session")
	assertCode(t, err, CodeUnauthenticated)

	require.NoError(t, env.auth.Logout(ctx, session.ID))
	_, err = env.auth.CurrentSession(ctx, session.ID)
	assertCode(t, err, CodeUnauthenticated)

	// Logging out without a session is fine.
	require.NoError(t, env.auth.Logout(ctx, ""))
}

func TestSessionExpiry(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.auth.Signup(ctx, "e@x.com", "pw")
	require.NoError(t, err)
	session, err := env.auth.Login(ctx, "e@x.com", "pw")
	require.NoError(t, err)

	env.clock = env.clock.Add(25 * time.Hour)
	_, err = env.auth.CurrentSession(ctx, session.ID)
	assertCode(t, err, CodeUnauthenticated)
	assert.Equal(t, "Session expired!", MessageOf(err, ""))
}

func TestPasswordResetFlow(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.auth.Signup(ctx, "a@x.com", "pw1")
	require.NoError(t, err)

	require.NoError(t, env.auth.RequestOTP(ctx, "a@x.com"))

	otp, err := env.otps.GetOTP(ctx, "a@x.com")
	require.NoError(t, err)
	require.NotNil(t, otp)
	assert.Equal(t, env.clock.Add(600*time.Second), otp.ExpiresAt)
	assert.Regexp(t, `^\d{6}$`, otp.Code)

	code := env.mailer.lastCode(t)
	assert.Equal(t, otp.Code, code)
	assert.Equal(t, OTPSubject, env.mailer.sent[0].subject)
	assert.Equal(t, "a@x.com", env.mailer.sent[0].to)

	wrong := "000000"
	if code == wrong {
		wrong = "111111"
	}
	err = env.auth.VerifyOTP(ctx, "a@x.com", wrong)
	assertCode(t, err, CodeAuth)
	assert.Equal(t, "Invalid OTP!", MessageOf(err, ""))

	otp, err = env.otps.GetOTP(ctx, "a@x.com")
	require.NoError(t, err)
	require.NotNil(t, otp, "failed verify must keep the entry")

	require.NoError(t, env.auth.VerifyOTP(ctx, "a@x.com", code))
	require.NoError(t, env.auth.VerifyOTP(ctx, "a@x.com", code), "verify does not consume")

	require.NoError(t, env.auth.ResetPassword(ctx, "a@x.com", code, "pw2"))

	otp, err = env.otps.GetOTP(ctx, "a@x.com")
	require.NoError(t, err)
	assert.Nil(t, otp)

	_, err = env.auth.Login(ctx, "a@x.com", "pw1")
	assertCode(t, err, CodeAuth)
	_, err = env.auth.Login(ctx, "a@x.com", "pw2")
	require.NoError(t, err)

	err = env.auth.ResetPassword(ctx, "a@x.com", code, "pw3")
	assertCode(t, err, CodeInvalidState)
	assert.Equal(t, "Invalid or expired OTP!", MessageOf(err, ""))
}

func TestRequestOTPReplacesPendingCode(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	codes := []string{"111111", "222222"}
	env.auth.generateCode = func() (string, error) {
		code := codes[0]
		codes = codes[1:]
		return code, nil
	}

	_, err := env.auth.Signup(ctx, "r@x.com", "pw")
	require.NoError(t, err)

	require.NoError(t, env.auth.RequestOTP(ctx, "r@x.com"))
	require.NoError(t, env.auth.RequestOTP(ctx, "r@x.com"))

	assertCode(t, env.auth.VerifyOTP(ctx, "r@x.com", "111111"), CodeAuth)
	require.NoError(t, env.auth.VerifyOTP(ctx, "r@x.com", "222222"))
}

func TestOTPExpiry(t *testing.T) {
	ctx := context.Background()

	t.Run("verify", func(t *testing.T) {
		env := newTestEnv(t)
		_, err := env.auth.Signup(ctx, "v@x.com", "pw")
		require.NoError(t, err)
		require.NoError(t, env.auth.RequestOTP(ctx, "v@x.com"))
		code := env.mailer.lastCode(t)

		env.clock = env.clock.Add(10 * time.Minute)
		require.NoError(t, env.auth.VerifyOTP(ctx, "v@x.com", code), "valid at the expiry instant")

		env.clock = env.clock.Add(time.Second)
		err = env.auth.VerifyOTP(ctx, "v@x.com", code)
		assertCode(t, err, CodeExpired)
		assert.Equal(t, "OTP has expired!", MessageOf(err, ""))

		err = env.auth.VerifyOTP(ctx, "v@x.com", code)
		assertCode(t, err, CodeInvalidState)
		assert.Equal(t, "OTP not found or expired!", MessageOf(err, ""))
	})

	t.Run("reset", func(t *testing.T) {
		env := newTestEnv(t)
		_, err := env.auth.Signup(ctx, "w@x.com", "pw")
		require.NoError(t, err)
		require.NoError(t, env.auth.RequestOTP(ctx, "w@x.com"))
		code := env.mailer.lastCode(t)

		env.clock = env.clock.Add(11 * time.Minute)
		assertCode(t, env.auth.ResetPassword(ctx, "w@x.com", code, "new"), CodeExpired)
		assertCode(t, env.auth.ResetPassword(ctx, "w@x.com", code, "new"), CodeInvalidState)

		_, err = env.auth.Login(ctx, "w@x.com", "pw")
		require.NoError(t, err, "password must be unchanged")
	})
}

func TestRequestOTPErrors(t *testing.T) {
	ctx := context.Background()

	t.Run("missing email", func(t *testing.T) {
		env := newTestEnv(t)
		err := env.auth.RequestOTP(ctx, " ")
		assertCode(t, err, CodeValidation)
		assert.Equal(t, "Email is required!", MessageOf(err, ""))
	})

	t.Run("unknown user", func(t *testing.T) {
		env := newTestEnv(t)
		err := env.auth.RequestOTP(ctx, "ghost@x.com")
		assertCode(t, err, CodeNotFound)
		assert.Equal(t, "User not found with this email!", MessageOf(err, ""))
	})

	t.Run("send failure keeps code", func(t *testing.T) {
		env := newTestEnv(t)
		_, err := env.auth.Signup(ctx, "f@x.com", "pw")
		require.NoError(t, err)

		env.mailer.err = errors.New("connection refused")
		err = env.auth.RequestOTP(ctx, "f@x.com")
		assertCode(t, err, CodeGateway)
		assert.Equal(t, "Failed to send OTP. Please try again.", MessageOf(err, ""))
		assert.Contains(t, DetailOf(err), "connection refused")

		otp, err := env.otps.GetOTP(ctx, "f@x.com")
		require.NoError(t, err)
		assert.NotNil(t, otp)
	})

	t.Run("mail not configured", func(t *testing.T) {
		env := newTestEnv(t)
		_, err := env.auth.Signup(ctx, "c@x.com", "pw")
		require.NoError(t, err)

		env.auth.email = NewEmailService(nil, slog.New(slog.NewTextHandler(io.Discard, nil)), false)
		err = env.auth.RequestOTP(ctx, "c@x.com")
		assertCode(t, err, CodeConfig)
		assert.Equal(t, "Email service is not configured!", MessageOf(err, ""))
	})
}

func TestResetPasswordValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	err := env.auth.ResetPassword(ctx, "a@x.com", "123456", "")
	assertCode(t, err, CodeValidation)
	assert.Equal(t, "Email, OTP, and new password are required!", MessageOf(err, ""))

	err = env.auth.VerifyOTP(ctx, "a@x.com", "")
	assertCode(t, err, CodeValidation)
	assert.Equal(t, "Email and OTP are required!", MessageOf(err, ""))

	err = env.auth.VerifyOTP(ctx, "a@x.com", "123456")
	assertCode(t, err, CodeInvalidState)
}

func TestResetPasswordUnknownUserKeepsCode(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	require.NoError(t, env.otps.PutOTP(ctx, "ghost@x.com", "123456", env.clock.Add(10*time.Minute)))

	err := env.auth.ResetPassword(ctx, "ghost@x.com", "123456", "new-pw")
	assertCode(t, err, CodeNotFound)
	assert.Equal(t, "User not found!", MessageOf(err, ""))

	otp, err := env.otps.GetOTP(ctx, "ghost@x.com")
	require.NoError(t, err)
	require.NotNil(t, otp, "code should survive a reset for an unknown account")
	assert.Equal(t, "123456", otp.Code)
}

func TestConcurrentResetSucceedsOnce(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.auth.Signup(ctx, "race@x.com", "pw")
	require.NoError(t, err)
	require.NoError(t, env.auth.RequestOTP(ctx, "race@x.com"))
	code := env.mailer.lastCode(t)

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
	)
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := env.auth.ResetPassword(ctx, "race@x.com", code, "new-pw"); err == nil {
				mu.Lock()
				successes++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, successes)
}

func TestCleanupExpired(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	require.NoError(t, env.otps.PutOTP(ctx, "old@x.com", "123456", time.Now().Add(-time.Minute)))

	sessions, otps, err := env.auth.CleanupExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), sessions)
	assert.Equal(t, int64(1), otps)
}

func TestCodeOfPlainError(t *testing.T) {
	err := errors.New("boom")
	assert.Equal(t, CodeInternal, CodeOf(err))
	assert.Equal(t, "fallback", MessageOf(err, "fallback"))
	assert.Empty(t, DetailOf(err))
}
