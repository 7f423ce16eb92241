package session

import (
	"context"
	"errors"
	"ticketing-admin-svc/src/clients"
	"ticketing-admin-svc/src/internal/models"
	"time"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type repository struct {
	collection *mongo.Collection
}

type Repository interface {
	EnsureIndexes(ctx context.Context) error
	Create(ctx context.Context, session *Session) error
	GetByID(ctx context.Context, sessionID string) (*Session, error)
	UpdateActivity(ctx context.Context, sessionID string) error
	Revoke(ctx context.Context, sessionID string) error
}

func NewSessionRepository(db *clients.MongoDB, collectionName string) Repository {
	collection := db.Database.Collection(collectionName)
	return &repository{collection: collection}
}

func (r *repository) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "session_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "expires_at", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(0),
		},
	})
	if err != nil {
		logrus.WithError(err).Error("Failed to create session indexes")
	}
	return err
}

func (r *repository) Create(ctx context.Context, session *Session) error {
	if _, err := r.collection.InsertOne(ctx, session); err != nil {
		logrus.WithError(err).WithFields(logrus.Fields{
			"session_id": session.SessionID,
			"user_id":    session.UserID,
		}).Error("Failed to create session")
		return models.ErrSessionCreating
	}
	return nil
}

func (r *repository) GetByID(ctx context.Context, sessionID string) (*Session, error) {
	var session Session
	filter := bson.M{"session_id": sessionID}

	err := r.collection.FindOne(ctx, filter).Decode(&session)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, models.ErrSessionNotFound
		}
		logrus.WithError(err).WithField("session_id", sessionID).Error("Failed to get session")
		return nil, models.ErrDatabaseQuery
	}

	return &session, nil
}

func (r *repository) UpdateActivity(ctx context.Context, sessionID string) error {
	filter := bson.M{
		"session_id": sessionID,
		"is_active":  true,
	}

	update := bson.M{
		"$set": bson.M{
			"last_active_at": time.Now().UTC(),
		},
	}

	_, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		logrus.WithError(err).WithField("session_id", sessionID).Error("Failed to update session activity")
		return models.ErrSessionUpdating
	}

	return nil
}

func (r *repository) Revoke(ctx context.Context, sessionID string) error {
	now := time.Now().UTC()
	filter := bson.M{
		"session_id": sessionID,
		"is_active":  true,
	}
	update := bson.M{
		"$set": bson.M{
			"is_active": false,
			"logout_at": now,
		},
	}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		logrus.WithError(err).WithField("session_id", sessionID).Error("Failed to revoke session")
		return models.ErrSessionUpdating
	}
	if result.MatchedCount == 0 {
		return models.ErrSessionInactive
	}

	return nil
}
