package venue

import (
	"context"
	"errors"
	"regexp"
	"ticketing-admin-svc/src/clients"
	"ticketing-admin-svc/src/internal/models"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	regexKey   = "$regex"
	optionsKey = "$options"
)

type Repository interface {
	GetByID(ctx context.Context, id string) (*Venue, error)
	List(ctx context.Context, req *ListRequest) ([]*Venue, int64, error)
}

type venueRepository struct {
	collection *mongo.Collection
}

func NewRepository(mongoClient *clients.MongoDB, collectionName string) Repository {
	return &venueRepository{
		collection: mongoClient.Database.Collection(collectionName),
	}
}

func (r *venueRepository) GetByID(ctx context.Context, id string) (*Venue, error) {
	var venue Venue
	filter := bson.M{
		"_id":        id,
		"deleted_at": bson.M{"$exists": false},
	}

	err := r.collection.FindOne(ctx, filter).Decode(&venue)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, models.ErrVenueNotFound
		}
		logrus.WithError(err).WithField("venue_id", id).Error("Failed to get venue")
		return nil, models.ErrDatabaseQuery
	}

	return &venue, nil
}

func (r *venueRepository) List(ctx context.Context, req *ListRequest) ([]*Venue, int64, error) {
	filter := bson.M{"deleted_at": bson.M{"$exists": false}}

	if req.Status != "" {
		filter["status"] = req.Status
	}

	if req.City != "" {
		filter["city"] = bson.M{regexKey: "^" + regexp.QuoteMeta(req.City) + "$", optionsKey: "i"}
	}

	if req.Search != "" {
		pattern := regexp.QuoteMeta(req.Search)
		filter["$or"] = []bson.M{
			{"name": bson.M{regexKey: pattern, optionsKey: "i"}},
			{"slug": bson.M{regexKey: pattern, optionsKey: "i"}},
		}
	}

	totalCount, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		logrus.WithError(err).Error("Failed to count venues")
		return nil, 0, models.ErrDatabaseQuery
	}

	skip := (req.Page - 1) * req.Limit

	opts := options.Find().
		SetLimit(int64(req.Limit)).
		SetSkip(int64(skip)).
		SetSort(bson.D{{Key: "name", Value: 1}})

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		logrus.WithError(err).Error("Failed to find venues")
		return nil, 0, models.ErrDatabaseQuery
	}
	defer cursor.Close(ctx)

	var venues []*Venue
	for cursor.Next(ctx) {
		var venue Venue
		if err := cursor.Decode(&venue); err != nil {
			logrus.WithError(err).Error("Failed to decode venue")
			continue
		}
		venues = append(venues, &venue)
	}

	if err := cursor.Err(); err != nil {
		logrus.WithError(err).Error("Cursor error")
		return nil, 0, models.ErrDatabaseQuery
	}

	logrus.WithFields(logrus.Fields{
		"count": len(venues),
		"total": totalCount,
		"page":  req.Page,
		"limit": req.Limit,
	}).Debug("Retrieved venues successfully")

	return venues, totalCount, nil
}
