package models

import "time"

// OTP is a pending one-time code for an account. There is at most one per email.
type OTP struct {
	Email     string
	Code      string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// IsExpiredAt reports whether the code is past its expiry instant at now.
// A code is still valid at exactly ExpiresAt.
func (o *OTP) IsExpiredAt(now time.Time) bool {
	return now.After(o.ExpiresAt)
}

// ConsumeResult is the outcome of an atomic consume attempt on an OTP entry.
type ConsumeResult int

const (
	// OTPConsumed means the code matched, was unexpired, and the entry is gone.
	OTPConsumed ConsumeResult = iota
	// OTPAbsent means no entry exists for the email.
	OTPAbsent
	// OTPExpired means the entry was past its expiry; it has been removed.
	OTPExpired
	// OTPMismatch means the code did not match; the entry is retained.
	OTPMismatch
)

func (r ConsumeResult) String() string {
	switch r {
	case OTPConsumed:
		return "consumed"
	case OTPAbsent:
		return "absent"
	case OTPExpired:
		return "expired"
	case OTPMismatch:
		return "mismatch"
	default:
		return "unknown"
	}
}
