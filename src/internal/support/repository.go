package support

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

const activeSessionIndex = "uniq_active_support_session_per_admin"

type Repository interface {
	EnsureIndexes(ctx context.Context) error
	Create(ctx context.Context, session *Session) error
	FindActive(ctx context.Context, adminID string) (*Session, error)
	// SwitchVenue points the admin's active session at venueID and returns the
	// session as it was before the change.
	SwitchVenue(ctx context.Context, adminID, venueID string, at time.Time) (*Session, error)
	// Close ends the admin's active session and returns it in its final state.
	Close(ctx context.Context, adminID string, at time.Time) (*Session, error)
}

type repository struct {
	collection *mongo.Collection
}

func NewRepository(db *clients.MongoDB, collectionName string) Repository {
	return &repository{collection: db.Database.Collection(collectionName)}
}

// EnsureIndexes creates the partial unique index that keeps one active session per admin.
func (r *repository) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "admin_id", Value: 1}},
			Options: options.Index().
				SetName(activeSessionIndex).
				SetUnique(true).
				SetPartialFilterExpression(bson.M{"active": true}),
		},
		{
			Keys: bson.D{{Key: "admin_id", Value: 1}, {Key: "started_at", Value: -1}},
		},
	})
	return err
}

func (r *repository) Create(ctx context.Context, session *Session) error {
	_, err := r.collection.InsertOne(ctx, session)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return models.ErrAlreadyInSession
		}
		logrus.WithError(err).WithField("admin_id", session.AdminID).Error("Failed to create support session")
		return models.ErrDatabaseInsert
	}
	return nil
}

func (r *repository) FindActive(ctx context.Context, adminID string) (*Session, error) {
	var session Session
	err := r.collection.FindOne(ctx, activeFilter(adminID)).Decode(&session)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		logrus.WithError(err).WithField("admin_id", adminID).Error("Failed to find active support session")
		return nil, models.ErrDatabaseQuery
	}
	return &session, nil
}

func (r *repository) SwitchVenue(ctx context.Context, adminID, venueID string, at time.Time) (*Session, error) {
	update := bson.M{
		"$set": bson.M{
			"venue_id":   venueID,
			"updated_at": at,
		},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.Before)

	return r.findOneAndUpdate(ctx, adminID, update, opts)
}

func (r *repository) Close(ctx context.Context, adminID string, at time.Time) (*Session, error) {
	update := bson.M{
		"$set": bson.M{
			"active":     false,
			"ended_at":   at,
			"updated_at": at,
		},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	return r.findOneAndUpdate(ctx, adminID, update, opts)
}

func (r *repository) findOneAndUpdate(ctx context.Context, adminID string, update bson.M, opts *options.FindOneAndUpdateOptions) (*Session, error) {
	var session Session
	err := r.collection.FindOneAndUpdate(ctx, activeFilter(adminID), update, opts).Decode(&session)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, models.ErrNoActiveSession
		}
		logrus.WithError(err).WithField("admin_id", adminID).Error("Failed to update support session")
		return nil, models.ErrDatabaseUpdate
	}
	return &session, nil
}

func activeFilter(adminID string) bson.M {
	return bson.M{
		"admin_id": adminID,
		"active":   true,
	}
}
