package mongostore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/TheRajesh1612/Aura-ChatBot/internal/models"
)

type otpDoc struct {
	Email     string    `bson:"email"`
	Code      string    `bson:"code"`
	ExpiresAt time.Time `bson:"expires_at"`
	CreatedAt time.Time `bson:"created_at"`
}

// OTPStore keeps one pending code per email in the otps collection.
type OTPStore struct {
	coll *mongo.Collection
}

// NewOTPStore returns an OTPStore using the provided collection.
func NewOTPStore(coll *mongo.Collection) *OTPStore {
	return &OTPStore{coll: coll}
}

// PutOTP upserts the code for email, replacing any pending one.
func (s *OTPStore) PutOTP(ctx context.Context, email, code string, expiresAt time.Time) error {
	update := bson.M{"$set": bson.M{
		"code":       code,
		"expires_at": expiresAt.UTC(),
		"created_at": time.Now().UTC(),
	}}
	opts := options.UpdateOne().SetUpsert(true)
	if _, err := s.coll.UpdateOne(ctx, bson.M{"email": email}, update, opts); err != nil {
		return fmt.Errorf("failed to store otp: %w", err)
	}
	return nil
}

// GetOTP returns the pending code for email, or nil.
func (s *OTPStore) GetOTP(ctx context.Context, email string) (*models.OTP, error) {
	var doc otpDoc
	err := s.coll.FindOne(ctx, bson.M{"email": email}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get otp: %w", err)
	}
	return &models.OTP{
		Email:     doc.Email,
		Code:      doc.Code,
		ExpiresAt: doc.ExpiresAt.UTC(),
		CreatedAt: doc.CreatedAt.UTC(),
	}, nil
}

// DeleteOTP removes any pending code for email.
func (s *OTPStore) DeleteOTP(ctx context.Context, email string) error {
	if _, err := s.coll.DeleteOne(ctx, bson.M{"email": email}); err != nil {
		return fmt.Errorf("failed to delete otp: %w", err)
	}
	return nil
}

// ConsumeOTP removes the entry with FindOneAndDelete iff code matches and it
// is unexpired at now, so at most one caller wins.
func (s *OTPStore) ConsumeOTP(ctx context.Context, email, code string, now time.Time) (models.ConsumeResult, error) {
	filter := bson.M{
		"email":      email,
		"code":       code,
		"expires_at": bson.M{"$gte": now.UTC()},
	}
	err := s.coll.FindOneAndDelete(ctx, filter).Err()
	if err == nil {
		return models.OTPConsumed, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return models.OTPAbsent, fmt.Errorf("failed to consume otp: %w", err)
	}

	otp, err := s.GetOTP(ctx, email)
	if err != nil {
		return models.OTPAbsent, err
	}
	if otp == nil {
		return models.OTPAbsent, nil
	}
	if otp.IsExpiredAt(now) {
		_, err := s.coll.DeleteOne(ctx, bson.M{"email": email, "expires_at": bson.M{"$lt": now.UTC()}})
		if err != nil {
			return models.OTPExpired, fmt.Errorf("failed to delete expired otp: %w", err)
		}
		return models.OTPExpired, nil
	}
	return models.OTPMismatch, nil
}

// DeleteExpiredOTPs purges entries past their expiry.
func (s *OTPStore) DeleteExpiredOTPs(ctx context.Context) (int64, error) {
	result, err := s.coll.DeleteMany(ctx, bson.M{"expires_at": bson.M{"$lt": time.Now().UTC()}})
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired otps: %w", err)
	}
	return result.DeletedCount, nil
}
