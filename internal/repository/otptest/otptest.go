// Package otptest checks OTP registry implementations against the behaviour
// the auth service relies on. Every backend runs the same cases.
package otptest

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TheRajesh1612/Aura-ChatBot/internal/models"
)

// Store is the OTP registry contract.
type Store interface {
	PutOTP(ctx context.Context, email, code string, expiresAt time.Time) error
	GetOTP(ctx context.Context, email string) (*models.OTP, error)
	DeleteOTP(ctx context.Context, email string) error
	ConsumeOTP(ctx context.Context, email, code string, now time.Time) (models.ConsumeResult, error)
	DeleteExpiredOTPs(ctx context.Context) (int64, error)
}

// Run runs every case as a subtest. newStore must return an empty store.
func Run(t *testing.T, newStore func(t *testing.T) Store) {
	t.Run("Consume", func(t *testing.T) { testConsume(t, newStore(t)) })
	t.Run("Expiry", func(t *testing.T) { testExpiry(t, newStore(t)) })
	t.Run("Replace", func(t *testing.T) { testReplace(t, newStore(t)) })
	t.Run("DeleteExpired", func(t *testing.T) { testDeleteExpired(t, newStore(t)) })
	t.Run("ConcurrentConsume", func(t *testing.T) { testConcurrentConsume(t, newStore(t)) })
}

// testNow is second-aligned so stores that keep millisecond timestamps compare
// the same way as the rest.
func testNow() time.Time {
	return time.Now().UTC().Truncate(time.Second)
}

func testConsume(t *testing.T, store Store) {
	ctx := context.Background()
	now := testNow()

	result, err := store.ConsumeOTP(ctx, "a@x.com", "123456", now)
	require.NoError(t, err)
	assert.Equal(t, models.OTPAbsent, result)

	require.NoError(t, store.PutOTP(ctx, "a@x.com", "123456", now.Add(10*time.Minute)))

	result, err = store.ConsumeOTP(ctx, "a@x.com", "654321", now)
	require.NoError(t, err)
	assert.Equal(t, models.OTPMismatch, result)

	otp, err := store.GetOTP(ctx, "a@x.com")
	require.NoError(t, err)
	require.NotNil(t, otp, "mismatch must leave the entry in place")

	result, err = store.ConsumeOTP(ctx, "a@x.com", "123456", now)
	require.NoError(t, err)
	assert.Equal(t, models.OTPConsumed, result)

	result, err = store.ConsumeOTP(ctx, "a@x.com", "123456", now)
	require.NoError(t, err)
	assert.Equal(t, models.OTPAbsent, result)
}

func testExpiry(t *testing.T, store Store) {
	ctx := context.Background()
	expiresAt := testNow().Add(10 * time.Minute)

	require.NoError(t, store.PutOTP(ctx, "b@x.com", "111111", expiresAt))

	// Valid at exactly the expiry instant.
	result, err := store.ConsumeOTP(ctx, "b@x.com", "111111", expiresAt)
	require.NoError(t, err)
	assert.Equal(t, models.OTPConsumed, result)

	require.NoError(t, store.PutOTP(ctx, "b@x.com", "222222", expiresAt))
	result, err = store.ConsumeOTP(ctx, "b@x.com", "222222", expiresAt.Add(time.Second))
	require.NoError(t, err)
	assert.Equal(t, models.OTPExpired, result)

	otp, err := store.GetOTP(ctx, "b@x.com")
	require.NoError(t, err)
	assert.Nil(t, otp, "expired entry is removed on consume")
}

func testReplace(t *testing.T, store Store) {
	ctx := context.Background()
	now := testNow()

	require.NoError(t, store.PutOTP(ctx, "c@x.com", "111111", now.Add(time.Minute)))
	require.NoError(t, store.PutOTP(ctx, "c@x.com", "222222", now.Add(10*time.Minute)))

	otp, err := store.GetOTP(ctx, "c@x.com")
	require.NoError(t, err)
	require.NotNil(t, otp)
	assert.Equal(t, "222222", otp.Code)

	result, err := store.ConsumeOTP(ctx, "c@x.com", "111111", now)
	require.NoError(t, err)
	assert.Equal(t, models.OTPMismatch, result)

	require.NoError(t, store.DeleteOTP(ctx, "c@x.com"))
	otp, err = store.GetOTP(ctx, "c@x.com")
	require.NoError(t, err)
	assert.Nil(t, otp)
}

func testDeleteExpired(t *testing.T, store Store) {
	ctx := context.Background()
	now := testNow()

	require.NoError(t, store.PutOTP(ctx, "old@x.com", "111111", now.Add(-time.Minute)))
	require.NoError(t, store.PutOTP(ctx, "new@x.com", "222222", now.Add(time.Hour)))

	n, err := store.DeleteExpiredOTPs(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	otp, err := store.GetOTP(ctx, "new@x.com")
	require.NoError(t, err)
	assert.NotNil(t, otp)
}

func testConcurrentConsume(t *testing.T, store Store) {
	ctx := context.Background()
	now := testNow()

	require.NoError(t, store.PutOTP(ctx, "race@x.com", "999999", now.Add(time.Hour)))

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		consumed int
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			result, err := store.ConsumeOTP(ctx, "race@x.com", "999999", now)
			if err != nil {
				t.Errorf("consume failed: %v", err)
				return
			}
			if result == models.OTPConsumed {
				mu.Lock()
				consumed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, consumed)
}
