package repository

import (
	"context"
	"sync"
	"time"

	"github.com/TheRajesh1612/Aura-ChatBot/internal/models"
)

// MemoryOTPRepository keeps pending codes in process memory. Entries are
// lost on restart and are only reaped on access or by DeleteExpiredOTPs.
type MemoryOTPRepository struct {
	mu      sync.Mutex
	entries map[string]models.OTP
}

// NewMemoryOTPRepository creates an empty in-memory OTP registry
func NewMemoryOTPRepository() *MemoryOTPRepository {
	return &MemoryOTPRepository{entries: make(map[string]models.OTP)}
}

// PutOTP stores code for email, replacing any pending code
func (r *MemoryOTPRepository) PutOTP(_ context.Context, email, code string, expiresAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.entries[email] = models.OTP{
		Email:     email,
		Code:      code,
		ExpiresAt: expiresAt,
		CreatedAt: time.Now(),
	}
	return nil
}

// GetOTP returns a copy of the pending code for email, or nil
func (r *MemoryOTPRepository) GetOTP(_ context.Context, email string) (*models.OTP, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	otp, ok := r.entries[email]
	if !ok {
		return nil, nil
	}
	return &otp, nil
}

// DeleteOTP removes any pending code for email
func (r *MemoryOTPRepository) DeleteOTP(_ context.Context, email string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.entries, email)
	return nil
}

// ConsumeOTP checks and deletes under one lock
func (r *MemoryOTPRepository) ConsumeOTP(_ context.Context, email, code string, now time.Time) (models.ConsumeResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	otp, ok := r.entries[email]
	switch {
	case !ok:
		return models.OTPAbsent, nil
	case otp.IsExpiredAt(now):
		delete(r.entries, email)
		return models.OTPExpired, nil
	case otp.Code != code:
		return models.OTPMismatch, nil
	default:
		delete(r.entries, email)
		return models.OTPConsumed, nil
	}
}

// DeleteExpiredOTPs purges entries past their expiry
func (r *MemoryOTPRepository) DeleteExpiredOTPs(_ context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	var n int64
	for email, otp := range r.entries {
		if otp.IsExpiredAt(now) {
			delete(r.entries, email)
			n++
		}
	}
	return n, nil
}
