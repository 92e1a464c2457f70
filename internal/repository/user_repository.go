package repository

import (
	"context"
	"errors"
	"time"

	"github.com/crewsync/crewsync/internal/models"
	"github.com/crewsync/crewsync/pkg/apperrors"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// UserRepository handles database operations related to users.
type UserRepository struct {
	collection *mongo.Collection
}

// NewUserRepository creates a new instance of UserRepository.
func NewUserRepository(db *mongo.Database) *UserRepository {
	return &UserRepository{
		collection: db.Collection("users"),
	}
}

// CreateUser inserts a new user into the database.
func (r *UserRepository) CreateUser(ctx context.Context, user *models.User) (*models.User, error) {
	user.CreatedAt = time.Now()
	user.UpdatedAt = time.Now()

	result, err := r.collection.InsertOne(ctx, user)
	if err != nil {
		logrus.WithError(err).Error("Failed to insert user into database")
		return nil, apperrors.Transientf("failed to insert user: %v", err)
	}

	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		logrus.Error("Failed to cast inserted ID to ObjectID")
		return nil, errors.New("failed to cast inserted ID")
	}
	user.ID = insertedID

	logrus.WithField("userID", user.ID.Hex()).Info("User inserted successfully")
	return user, nil
}

// GetUserByEmail retrieves a user by email.
func (r *UserRepository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := r.collection.FindOne(ctx, bson.M{"email": email}).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperrors.NotFoundf("user with email %s", email)
		}
		return nil, apperrors.Transientf("failed to find user by email: %v", err)
	}
	return &user, nil
}

// GetUserByID retrieves a user by their ObjectID.
func (r *UserRepository) GetUserByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	var user models.User
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperrors.NotFoundf("user %s", id.Hex())
		}
		return nil, apperrors.Transientf("failed to find user: %v", err)
	}
	return &user, nil
}

// SetDeviceToken registers (or, with an empty token, unregisters) the
// user's push channel.
func (r *UserRepository) SetDeviceToken(ctx context.Context, userID primitive.ObjectID, token string) error {
	update := bson.M{"$set": bson.M{"device_token": token, "updated_at": time.Now()}}
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": userID}, update)
	if err != nil {
		logrus.WithError(err).WithField("userID", userID.Hex()).Error("Failed to set device token")
		return apperrors.Transientf("failed to set device token: %v", err)
	}
	if result.MatchedCount == 0 {
		return apperrors.NotFoundf("user %s", userID.Hex())
	}
	return nil
}

// UpdateLastActive touches the last-active timestamp.
func (r *UserRepository) UpdateLastActive(ctx context.Context, userID primitive.ObjectID) error {
	_, err := r.collection.UpdateOne(ctx, bson.M{"_id": userID}, bson.M{"$set": bson.M{"last_active_at": time.Now()}})
	if err != nil {
		return apperrors.Transientf("failed to update last active: %v", err)
	}
	return nil
}

// GetUsersByIDs fetches a batch of users.
func (r *UserRepository) GetUsersByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.User, error) {
	cursor, err := r.collection.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, apperrors.Transientf("failed to fetch users: %v", err)
	}
	defer cursor.Close(ctx)

	var users []models.User
	if err := cursor.All(ctx, &users); err != nil {
		return nil, apperrors.Transientf("failed to decode users: %v", err)
	}
	return users, nil
}
