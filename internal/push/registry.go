package push

import (
	"context"
	"fmt"

	"github.com/crewsync/crewsync/internal/repository"
	"github.com/crewsync/crewsync/pkg/apperrors"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// UserRegistry resolves device tokens from the users collection.
type UserRegistry struct {
	users *repository.UserRepository
}

func NewUserRegistry(users *repository.UserRepository) *UserRegistry {
	return &UserRegistry{users: users}
}

// DeviceToken returns the user's registered token. A deleted user or one
// without a token resolves to the empty string, not an error.
func (r *UserRegistry) DeviceToken(ctx context.Context, userID string) (string, error) {
	objID, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return "", fmt.Errorf("invalid user ID: %v", err)
	}

	user, err := r.users.GetUserByID(ctx, objID)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return "", nil
		}
		return "", err
	}
	return user.DeviceToken, nil
}
