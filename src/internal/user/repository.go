package user

import (
	"context"
	"errors"
	"strings"
	"ticketing-admin-svc/src/clients"
	"ticketing-admin-svc/src/internal/models"
	"time"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Repository interface {
	EnsureIndexes(ctx context.Context) error
	GetByEmail(ctx context.Context, email string) (*User, error)
	RecordLoginSuccess(ctx context.Context, id primitive.ObjectID, ip string) error
	RecordLoginFailure(ctx context.Context, id primitive.ObjectID) error
}

type userRepository struct {
	collection *mongo.Collection
}

func NewUserRepository(mongoClient *clients.MongoDB, collectionName string) Repository {
	return &userRepository{
		collection: mongoClient.Database.Collection(collectionName),
	}
}

func (r *userRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		logrus.WithError(err).Error("Failed to create user indexes")
	}
	return err
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*User, error) {
	filter := bson.M{
		"email":      strings.ToLower(strings.TrimSpace(email)),
		"deleted_at": bson.M{"$exists": false},
	}
	return r.findOne(ctx, filter)
}

func (r *userRepository) findOne(ctx context.Context, filter bson.M) (*User, error) {
	var user User
	if err := r.collection.FindOne(ctx, filter).Decode(&user); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, models.ErrUserNotFound
		}
		logrus.WithError(err).Error("Failed to find user")
		return nil, models.ErrDatabaseQuery
	}
	return &user, nil
}

func (r *userRepository) RecordLoginSuccess(ctx context.Context, id primitive.ObjectID, ip string) error {
	now := time.Now().UTC()
	update := bson.M{
		"$set": bson.M{
			"last_login_at":         now,
			"last_login_ip":         ip,
			"failed_login_attempts": 0,
			"updated_at":            now,
		},
	}

	if _, err := r.collection.UpdateByID(ctx, id, update); err != nil {
		logrus.WithError(err).WithField("user_id", id.Hex()).Error("Failed to record successful login")
		return models.ErrDatabaseUpdate
	}
	return nil
}

func (r *userRepository) RecordLoginFailure(ctx context.Context, id primitive.ObjectID) error {
	now := time.Now().UTC()
	update := bson.M{
		"$inc": bson.M{"failed_login_attempts": 1},
		"$set": bson.M{
			"last_failed_login_at": now,
			"updated_at":           now,
		},
	}

	if _, err := r.collection.UpdateByID(ctx, id, update); err != nil {
		logrus.WithError(err).WithField("user_id", id.Hex()).Error("Failed to record failed login")
		return models.ErrDatabaseUpdate
	}
	return nil
}
