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

type userDoc struct {
	ID           bson.ObjectID `bson:"_id,omitempty"`
	Email        string        `bson:"email"`
	PasswordHash string        `bson:"password"`
	CreatedAt    time.Time     `bson:"created_at"`
	UpdatedAt    time.Time     `bson:"updated_at"`
}

func (d *userDoc) toModel() *models.User {
	return &models.User{
		ID:           d.ID.Hex(),
		Email:        d.Email,
		PasswordHash: d.PasswordHash,
		CreatedAt:    d.CreatedAt.UTC(),
		UpdatedAt:    d.UpdatedAt.UTC(),
	}
}

// UsersStore performs account operations on the users collection.
type UsersStore struct {
	coll *mongo.Collection
}

// NewUsersStore returns a UsersStore using the provided collection.
func NewUsersStore(coll *mongo.Collection) *UsersStore {
	return &UsersStore{coll: coll}
}

// CreateUser inserts a new account. The unique email index decides races.
func (s *UsersStore) CreateUser(ctx context.Context, email, passwordHash string) (*models.User, error) {
	now := time.Now().UTC()
	doc := userDoc{
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	result, err := s.coll.InsertOne(ctx, doc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, models.ErrDuplicateEmail
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	doc.ID = result.InsertedID.(bson.ObjectID)
	return doc.toModel(), nil
}

// GetUserByEmail finds an account by email, returning nil if there is none.
func (s *UsersStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.findOne(ctx, bson.M{"email": email})
}

// GetUserByID finds an account by its hex ObjectID.
func (s *UsersStore) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return nil, nil
	}
	return s.findOne(ctx, bson.M{"_id": oid})
}

// UpdatePassword replaces the stored hash, reporting false if no account matched.
func (s *UsersStore) UpdatePassword(ctx context.Context, email, passwordHash string) (bool, error) {
	update := bson.M{"$set": bson.M{"password": passwordHash, "updated_at": time.Now().UTC()}}
	result, err := s.coll.UpdateOne(ctx, bson.M{"email": email}, update)
	if err != nil {
		return false, fmt.Errorf("failed to update password: %w", err)
	}
	return result.MatchedCount > 0, nil
}

// GetAllUsers returns every account ordered by creation time.
func (s *UsersStore) GetAllUsers(ctx context.Context) ([]models.User, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})
	cursor, err := s.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer cursor.Close(ctx)

	var users []models.User
	for cursor.Next(ctx) {
		var doc userDoc
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode user: %w", err)
		}
		users = append(users, *doc.toModel())
	}
	return users, cursor.Err()
}

// ImportUsers inserts exported accounts, skipping emails already present.
// If an insert fails the documents added by this call are removed again, so
// a batch lands whole or not at all. It returns how many were added.
func (s *UsersStore) ImportUsers(ctx context.Context, users []models.User) (int, error) {
	var inserted []bson.ObjectID
	for _, user := range users {
		doc := userDoc{
			ID:           bson.NewObjectID(),
			Email:        user.Email,
			PasswordHash: user.PasswordHash,
			CreatedAt:    user.CreatedAt.UTC(),
			UpdatedAt:    user.UpdatedAt.UTC(),
		}
		_, err := s.coll.InsertOne(ctx, doc)
		if err == nil {
			inserted = append(inserted, doc.ID)
			continue
		}
		if mongo.IsDuplicateKeyError(err) {
			continue
		}

		importErr := fmt.Errorf("failed to import user %s: %w", user.Email, err)
		if undoErr := s.removeImported(context.WithoutCancel(ctx), inserted); undoErr != nil {
			return 0, errors.Join(importErr, undoErr)
		}
		return 0, importErr
	}
	return len(inserted), nil
}

func (s *UsersStore) removeImported(ctx context.Context, ids []bson.ObjectID) error {
	if len(ids) == 0 {
		return nil
	}
	if _, err := s.coll.DeleteMany(ctx, bson.M{"_id": bson.M{"$in": ids}}); err != nil {
		return fmt.Errorf("failed to remove partially imported users: %w", err)
	}
	return nil
}

func (s *UsersStore) findOne(ctx context.Context, filter bson.M) (*models.User, error) {
	var doc userDoc
	err := s.coll.FindOne(ctx, filter).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return doc.toModel(), nil
}
