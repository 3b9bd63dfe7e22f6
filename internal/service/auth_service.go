package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/samber/oops"

	"github.com/TheRajesh1612/Aura-ChatBot/internal/credentials"
	"github.com/TheRajesh1612/Aura-ChatBot/internal/models"
	"github.com/TheRajesh1612/Aura-ChatBot/internal/security"
	"github.com/TheRajesh1612/Aura-ChatBot/internal/validation"
)

// UserStore persists accounts
type UserStore interface {
	CreateUser(ctx context.Context, email, passwordHash string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	UpdatePassword(ctx context.Context, email, passwordHash string) (bool, error)
}

// SessionStore persists server-side sessions
type SessionStore interface {
	CreateSession(ctx context.Context, user *models.User, expiresAt time.Time) (*models.Session, error)
	GetSession(ctx context.Context, id string) (*models.Session, error)
	DeleteSession(ctx context.Context, id string) error
	DeleteExpiredSessions(ctx context.Context) (int64, error)
}

// OTPStore is the pending one-time code registry. ConsumeOTP must remove a
// matching unexpired entry atomically.
type OTPStore interface {
	PutOTP(ctx context.Context, email, code string, expiresAt time.Time) error
	GetOTP(ctx context.Context, email string) (*models.OTP, error)
	DeleteOTP(ctx context.Context, email string) error
	ConsumeOTP(ctx context.Context, email, code string, now time.Time) (models.ConsumeResult, error)
	DeleteExpiredOTPs(ctx context.Context) (int64, error)
}

// AuthService handles authentication business logic
type AuthService struct {
	users           UserStore
	sessions        SessionStore
	otps            OTPStore
	email           *EmailService
	sessionDuration time.Duration
	otpTTL          time.Duration
	logger          *slog.Logger

	now          func() time.Time
	generateCode func() (string, error)
}

// NewAuthService creates a new auth service
func NewAuthService(users UserStore, sessions SessionStore, otps OTPStore, email *EmailService, sessionDuration, otpTTL time.Duration, logger *slog.Logger) *AuthService {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthService{
		users:           users,
		sessions:        sessions,
		otps:            otps,
		email:           email,
		sessionDuration: sessionDuration,
		otpTTL:          otpTTL,
		logger:          logger,
		now:             func() time.Time { return time.Now().UTC() },
		generateCode:    credentials.GenerateOTPCode,
	}
}

// SessionDuration is how long a login stays valid
func (s *AuthService) SessionDuration() time.Duration {
	return s.sessionDuration
}

// Signup creates a new account
func (s *AuthService) Signup(ctx context.Context, email, password string) (*models.User, error) {
	email = validation.NormalizeEmail(email)
	if err := validation.Required(
		validation.Field{Name: "email", Value: email},
		validation.Field{Name: "password", Value: password},
	); err != nil {
		return nil, userError(CodeValidation, "Email and password are required!")
	}
	if err := validation.ValidateEmail(email); err != nil {
		return nil, userError(CodeValidation, "Please enter a valid email address!")
	}

	existing, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, internalError("signup", "Server error", err)
	}
	if existing != nil {
		return nil, userError(CodeConflict, "Email is already used!")
	}

	passwordHash, err := s.hashPassword(password)
	if err != nil {
		return nil, err
	}

	// The unique index still decides concurrent signups for the same email.
	user, err := s.users.CreateUser(ctx, email, passwordHash)
	if errors.Is(err, models.ErrDuplicateEmail) {
		return nil, userError(CodeConflict, "Email is already used!")
	}
	if err != nil {
		return nil, internalError("signup", "Server error", err)
	}

	s.logger.InfoContext(ctx, "user created", "user_id", user.ID)
	return user, nil
}

// Login checks credentials and creates a session
func (s *AuthService) Login(ctx context.Context, email, password string) (*models.Session, error) {
	email = validation.NormalizeEmail(email)
	if err := validation.Required(
		validation.Field{Name: "email", Value: email},
		validation.Field{Name: "password", Value: password},
	); err != nil {
		return nil, userError(CodeValidation, "Email and password are required!")
	}

	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, internalError("login", "Server error", err)
	}
	if user == nil {
		return nil, userError(CodeNotFound, "User not found!")
	}

	ok, err := security.CheckPassword(password, user.PasswordHash)
	if err != nil {
		return nil, internalError("login", "Server error", err)
	}
	if !ok {
		return nil, userError(CodeAuth, "Incorrect password!")
	}

	session, err := s.sessions.CreateSession(ctx, user, s.now().Add(s.sessionDuration))
	if err != nil {
		return nil, internalError("login", "Server error", err)
	}

	return session, nil
}

// CurrentSession returns the live authenticated session for sessionID.
// Expired sessions are deleted on sight.
func (s *AuthService) CurrentSession(ctx context.Context, sessionID string) (*models.Session, error) {
	if sessionID == "" {
		return nil, userError(CodeUnauthenticated, "Not authenticated!")
	}

	session, err := s.sessions.GetSession(ctx, sessionID)
	if err != nil {
		return nil, internalError("session_lookup", "Server error", err)
	}
	if session == nil || !session.Authenticated {
		return nil, userError(CodeUnauthenticated, "Not authenticated!")
	}

	if s.now().After(session.ExpiresAt) {
		if err := s.sessions.DeleteSession(ctx, sessionID); err != nil {
			s.logger.WarnContext(ctx, "failed to delete expired session", "error", err)
		}
		return nil, userError(CodeUnauthenticated, "Session expired!")
	}

	return session, nil
}

// CurrentUser resolves sessionID to its account, like CurrentSession but
// also rejecting sessions whose account no longer exists.
func (s *AuthService) CurrentUser(ctx context.Context, sessionID string) (*models.User, error) {
	session, err := s.CurrentSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	user, err := s.users.GetUserByID(ctx, session.UserID)
	if err != nil {
		return nil, internalError("session_lookup", "Server error", err)
	}
	if user == nil {
		return nil, userError(CodeUnauthenticated, "Not authenticated!")
	}
	return user, nil
}

// Logout destroys the session. An empty id is a no-op.
func (s *AuthService) Logout(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	if err := s.sessions.DeleteSession(ctx, sessionID); err != nil {
		return internalError("logout", "Error logging out!", err)
	}
	return nil
}

// RequestOTP issues a fresh code for email, replacing any pending one, and
// mails it. The stored code stays valid if the send fails.
func (s *AuthService) RequestOTP(ctx context.Context, email string) error {
	email = validation.NormalizeEmail(email)
	if email == "" {
		return userError(CodeValidation, "Email is required!")
	}

	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		return internalError("request_otp", "Server error", err)
	}
	if user == nil {
		return userError(CodeNotFound, "User not found with this email!")
	}

	if !s.email.IsEnabled() {
		return userError(CodeConfig, "Email service is not configured!")
	}

	code, err := s.generateCode()
	if err != nil {
		return internalError("request_otp", "Server error", err)
	}

	if err := s.otps.PutOTP(ctx, email, code, s.now().Add(s.otpTTL)); err != nil {
		return internalError("request_otp", "Server error", err)
	}

	if err := s.email.SendOTPEmail(ctx, email, code, s.otpTTL); err != nil {
		if errors.Is(err, ErrMailNotConfigured) {
			return userError(CodeConfig, "Email service is not configured!")
		}
		return oops.Code(CodeGateway).
			With("message", "Failed to send OTP. Please try again.").
			With("detail", err.Error()).
			Wrap(err)
	}

	s.logger.InfoContext(ctx, "otp issued", "email", email, "expires_in", s.otpTTL.String())
	return nil
}

// VerifyOTP checks a code without consuming it, so the same code can be
// presented again to ResetPassword.
func (s *AuthService) VerifyOTP(ctx context.Context, email, code string) error {
	email = validation.NormalizeEmail(email)
	if err := validation.Required(
		validation.Field{Name: "email", Value: email},
		validation.Field{Name: "otp", Value: code},
	); err != nil {
		return userError(CodeValidation, "Email and OTP are required!")
	}

	otp, err := s.otps.GetOTP(ctx, email)
	if err != nil {
		return internalError("verify_otp", "Server error", err)
	}
	if otp == nil {
		return userError(CodeInvalidState, "OTP not found or expired!")
	}

	if otp.IsExpiredAt(s.now()) {
		if err := s.otps.DeleteOTP(ctx, email); err != nil {
			return internalError("verify_otp", "Server error", err)
		}
		return userError(CodeExpired, "OTP has expired!")
	}

	if otp.Code != code {
		return userError(CodeAuth, "Invalid OTP!")
	}

	return nil
}

// ResetPassword consumes the code and replaces the password. Only one of
// several concurrent resets with the same code can succeed.
func (s *AuthService) ResetPassword(ctx context.Context, email, code, newPassword string) error {
	email = validation.NormalizeEmail(email)
	if err := validation.Required(
		validation.Field{Name: "email", Value: email},
		validation.Field{Name: "otp", Value: code},
		validation.Field{Name: "newPassword", Value: newPassword},
	); err != nil {
		return userError(CodeValidation, "Email, OTP, and new password are required!")
	}

	// Hash first so a slow bcrypt never runs after the code is gone.
	passwordHash, err := s.hashPassword(newPassword)
	if err != nil {
		return err
	}

	// Look the account up before consuming so a miss leaves the code intact.
	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		return internalError("reset_password", "Server error", err)
	}
	if user == nil {
		return userError(CodeNotFound, "User not found!")
	}

	result, err := s.otps.ConsumeOTP(ctx, email, code, s.now())
	if err != nil {
		return internalError("reset_password", "Server error", err)
	}

	switch result {
	case models.OTPConsumed:
	case models.OTPExpired:
		return userError(CodeExpired, "OTP has expired!")
	default:
		return userError(CodeInvalidState, "Invalid or expired OTP!")
	}

	updated, err := s.users.UpdatePassword(ctx, email, passwordHash)
	if err != nil {
		return internalError("reset_password", "Server error", err)
	}
	if !updated {
		return userError(CodeNotFound, "User not found!")
	}

	s.logger.InfoContext(ctx, "password reset", "email", email)
	return nil
}

// CleanupExpired purges expired sessions and OTP entries
func (s *AuthService) CleanupExpired(ctx context.Context) (sessions, otps int64, err error) {
	sessions, err = s.sessions.DeleteExpiredSessions(ctx)
	if err != nil {
		return 0, 0, internalError("cleanup_sessions", "Server error", err)
	}
	otps, err = s.otps.DeleteExpiredOTPs(ctx)
	if err != nil {
		return sessions, 0, internalError("cleanup_otps", "Server error", err)
	}
	return sessions, otps, nil
}

func (s *AuthService) hashPassword(password string) (string, error) {
	hash, err := security.HashPassword(password)
	if errors.Is(err, security.ErrPasswordTooLong) {
		return "", userError(CodeValidation, "Password must be at most 72 bytes!")
	}
	if err != nil {
		return "", internalError("hash_password", "Server error", err)
	}
	return hash, nil
}
