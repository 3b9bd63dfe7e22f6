// Package mongostore implements the account, session and OTP stores on MongoDB.
package mongostore

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"
)

// Client wraps mongo.Client and exposes the Aura collections.
type Client struct {
	client *mongo.Client
	db     *mongo.Database
}

// New connects to MongoDB and returns a Client bound to database dbName.
func New(ctx context.Context, mongoURI, dbName string) (*Client, error) {
	opts := options.Client().
		ApplyURI(mongoURI).
		SetConnectTimeout(10 * time.Second)

	client, err := mongo.Connect(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	return &Client{
		client: client,
		db:     client.Database(dbName),
	}, nil
}

// UsersCollection returns the users collection.
func (c *Client) UsersCollection() *mongo.Collection {
	return c.db.Collection("users")
}

// SessionsCollection returns the sessions collection.
func (c *Client) SessionsCollection() *mongo.Collection {
	return c.db.Collection("sessions")
}

// OTPsCollection returns the pending one-time code collection.
func (c *Client) OTPsCollection() *mongo.Collection {
	return c.db.Collection("otps")
}

// Close disconnects from MongoDB.
func (c *Client) Close(ctx context.Context) error {
	return c.client.Disconnect(ctx)
}

// Drop removes the whole database. Used by tests.
func (c *Client) Drop(ctx context.Context) error {
	return c.db.Drop(ctx)
}

// CreateIndexes creates the unique email indexes and the session TTL index.
func (c *Client) CreateIndexes(ctx context.Context) error {
	usersIndex := mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	}
	if _, err := c.UsersCollection().Indexes().CreateOne(ctx, usersIndex); err != nil {
		return fmt.Errorf("failed to create users index: %w", err)
	}

	otpIndex := mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	}
	if _, err := c.OTPsCollection().Indexes().CreateOne(ctx, otpIndex); err != nil {
		return fmt.Errorf("failed to create otps index: %w", err)
	}

	// Expired sessions are reaped by the server as well; the TTL index just
	// keeps the collection small if the cleanup loop is not running.
	sessionIndex := mongo.IndexModel{
		Keys:    bson.D{{Key: "expires_at", Value: 1}},
		Options: options.Index().SetExpireAfterSeconds(0),
	}
	if _, err := c.SessionsCollection().Indexes().CreateOne(ctx, sessionIndex); err != nil {
		return fmt.Errorf("failed to create sessions index: %w", err)
	}

	return nil
}
