package mongostore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/TheRajesh1612/Aura-ChatBot/internal/models"
	"github.com/TheRajesh1612/Aura-ChatBot/internal/security"
)

type sessionDoc struct {
	ID            string    `bson:"_id"`
	UserID        string    `bson:"user_id"`
	UserEmail     string    `bson:"user_email"`
	Authenticated bool      `bson:"authenticated"`
	ExpiresAt     time.Time `bson:"expires_at"`
	CreatedAt     time.Time `bson:"created_at"`
}

// SessionsStore keeps server-side sessions in the sessions collection.
type SessionsStore struct {
	coll *mongo.Collection
}

// NewSessionsStore returns a SessionsStore using the provided collection.
func NewSessionsStore(coll *mongo.Collection) *SessionsStore {
	return &SessionsStore{coll: coll}
}

// CreateSession stores a new authenticated session for user.
func (s *SessionsStore) CreateSession(ctx context.Context, user *models.User, expiresAt time.Time) (*models.Session, error) {
	doc := sessionDoc{
		ID:            security.GenerateSessionID(),
		UserID:        user.ID,
		UserEmail:     user.Email,
		Authenticated: true,
		ExpiresAt:     expiresAt.UTC(),
		CreatedAt:     time.Now().UTC(),
	}
	if _, err := s.coll.InsertOne(ctx, doc); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	return doc.toModel(), nil
}

// GetSession returns the session with id, or nil if there is none.
func (s *SessionsStore) GetSession(ctx context.Context, id string) (*models.Session, error) {
	var doc sessionDoc
	err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	return doc.toModel(), nil
}

// DeleteSession removes the session with id. Missing sessions are not an error.
func (s *SessionsStore) DeleteSession(ctx context.Context, id string) error {
	if _, err := s.coll.DeleteOne(ctx, bson.M{"_id": id}); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// DeleteExpiredSessions removes sessions past their expiry.
func (s *SessionsStore) DeleteExpiredSessions(ctx context.Context) (int64, error) {
	result, err := s.coll.DeleteMany(ctx, bson.M{"expires_at": bson.M{"$lt": time.Now().UTC()}})
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired sessions: %w", err)
	}
	return result.DeletedCount, nil
}

func (d *sessionDoc) toModel() *models.Session {
	return &models.Session{
		ID:            d.ID,
		UserID:        d.UserID,
		UserEmail:     d.UserEmail,
		Authenticated: d.Authenticated,
		ExpiresAt:     d.ExpiresAt.UTC(),
		CreatedAt:     d.CreatedAt.UTC(),
	}
}
