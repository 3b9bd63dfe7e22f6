package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/TheRajesh1612/Aura-ChatBot/internal/database"
	"github.com/TheRajesh1612/Aura-ChatBot/internal/models"
)

// OTPRepository stores pending one-time codes in the otp_codes table,
// one row per email.
type OTPRepository struct {
	db database.DBTX
}

// NewOTPRepository creates a new OTP repository
func NewOTPRepository(db database.DBTX) *OTPRepository {
	return &OTPRepository{db: db}
}

// PutOTP stores code for email, replacing any pending code
func (r *OTPRepository) PutOTP(ctx context.Context, email, code string, expiresAt time.Time) error {
	query := r.db.GetDialect().UpsertOTPQuery()
	if _, err := r.db.ExecContext(ctx, query, email, code, expiresAt.UTC(), time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to store otp: %w", err)
	}
	return nil
}

// GetOTP returns the pending code for email, or nil if there is none
func (r *OTPRepository) GetOTP(ctx context.Context, email string) (*models.OTP, error) {
	query := `
		SELECT email, code, expires_at, created_at
		FROM otp_codes
		WHERE email = ?
	`
	var otp models.OTP
	err := r.db.QueryRowContext(ctx, query, email).Scan(&otp.Email, &otp.Code, &otp.ExpiresAt, &otp.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get otp: %w", err)
	}
	return &otp, nil
}

// DeleteOTP removes any pending code for email
func (r *OTPRepository) DeleteOTP(ctx context.Context, email string) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM otp_codes WHERE email = ?", email); err != nil {
		return fmt.Errorf("failed to delete otp: %w", err)
	}
	return nil
}

// ConsumeOTP deletes the entry for email in a single statement iff code
// matches and it has not expired at now. Only one of several concurrent
// callers presenting the same code can observe OTPConsumed.
func (r *OTPRepository) ConsumeOTP(ctx context.Context, email, code string, now time.Time) (models.ConsumeResult, error) {
	query := `
		DELETE FROM otp_codes
		WHERE email = ? AND code = ? AND expires_at >= ?
	`
	result, err := r.db.ExecContext(ctx, query, email, code, now.UTC())
	if err != nil {
		return models.OTPAbsent, fmt.Errorf("failed to consume otp: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return models.OTPAbsent, fmt.Errorf("failed to read consume result: %w", err)
	}
	if rows > 0 {
		return models.OTPConsumed, nil
	}

	// Nothing deleted: classify why.
	otp, err := r.GetOTP(ctx, email)
	if err != nil {
		return models.OTPAbsent, err
	}
	if otp == nil {
		return models.OTPAbsent, nil
	}
	if otp.IsExpiredAt(now) {
		if err := r.deleteIfExpired(ctx, email, now); err != nil {
			return models.OTPExpired, err
		}
		return models.OTPExpired, nil
	}
	return models.OTPMismatch, nil
}

// DeleteExpiredOTPs purges entries past their expiry
func (r *OTPRepository) DeleteExpiredOTPs(ctx context.Context) (int64, error) {
	result, err := r.db.ExecContext(ctx, "DELETE FROM otp_codes WHERE expires_at < ?", time.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired otps: %w", err)
	}
	return result.RowsAffected()
}

// deleteIfExpired leaves a freshly re-requested code in place.
func (r *OTPRepository) deleteIfExpired(ctx context.Context, email string, now time.Time) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM otp_codes WHERE email = ? AND expires_at < ?", email, now.UTC())
	if err != nil {
		return fmt.Errorf("failed to delete expired otp: %w", err)
	}
	return nil
}
