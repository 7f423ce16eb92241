package audit

import (
	"context"
	"ticketing-admin-svc/src/clients"
	"ticketing-admin-svc/src/internal/models"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Repository interface {
	Insert(ctx context.Context, entry *Entry) error
	Find(ctx context.Context, filter Filter) ([]*Entry, int64, error)
	EnsureIndexes(ctx context.Context) error
}

type repository struct {
	collection *mongo.Collection
}

func NewRepository(db *clients.MongoDB, collectionName string) Repository {
	return &repository{collection: db.Database.Collection(collectionName)}
}

func (r *repository) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "timestamp", Value: -1}}},
		{Keys: bson.D{{Key: "actor_id", Value: 1}, {Key: "timestamp", Value: -1}}},
		{Keys: bson.D{{Key: "action", Value: 1}, {Key: "timestamp", Value: -1}}},
	})
	return err
}

func (r *repository) Insert(ctx context.Context, entry *Entry) error {
	if _, err := r.collection.InsertOne(ctx, entry); err != nil {
		logrus.WithError(err).WithFields(logrus.Fields{
			"actor_id": entry.ActorID,
			"action":   entry.Action,
		}).Error("Failed to insert audit entry")
		return models.ErrDatabaseInsert
	}
	return nil
}

func (r *repository) Find(ctx context.Context, filter Filter) ([]*Entry, int64, error) {
	query := buildQuery(filter)

	total, err := r.collection.CountDocuments(ctx, query)
	if err != nil {
		logrus.WithError(err).Error("Failed to count audit entries")
		return nil, 0, models.ErrDatabaseQuery
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "timestamp", Value: -1}, {Key: "_id", Value: -1}}).
		SetSkip(int64(filter.Offset)).
		SetLimit(int64(filter.Limit))

	cursor, err := r.collection.Find(ctx, query, opts)
	if err != nil {
		logrus.WithError(err).Error("Failed to find audit entries")
		return nil, 0, models.ErrDatabaseQuery
	}
	defer cursor.Close(ctx)

	entries := make([]*Entry, 0, filter.Limit)
	if err := cursor.All(ctx, &entries); err != nil {
		logrus.WithError(err).Error("Failed to decode audit entries")
		return nil, 0, models.ErrDatabaseQuery
	}

	return entries, total, nil
}

func buildQuery(filter Filter) bson.M {
	query := bson.M{}

	if filter.UserID != "" {
		query["actor_id"] = filter.UserID
	}

	if filter.Action != "" {
		query["action"] = filter.Action
	}

	if filter.StartDate != nil || filter.EndDate != nil {
		window := bson.M{}
		if filter.StartDate != nil {
			window["$gte"] = *filter.StartDate
		}
		if filter.EndDate != nil {
			window["$lte"] = *filter.EndDate
		}
		query["timestamp"] = window
	}

	return query
}
