package services

import (
	"context"
	"fmt"
	"regexp"

	"github.com/crewsync/crewsync/internal/models"
	"github.com/crewsync/crewsync/internal/repository"
	"github.com/crewsync/crewsync/pkg/apperrors"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// UserService encapsulates the business logic for user operations.
type UserService struct {
	repo *repository.UserRepository
}

// NewUserService creates a new instance of UserService.
func NewUserService(repo *repository.UserRepository) *UserService {
	return &UserService{
		repo: repo,
	}
}

// RegisterUser registers a new user after hashing their password.
func (s *UserService) RegisterUser(ctx context.Context, user *models.User) (*models.User, error) {
	logrus.Info("Registering new user")

	if user.Email == "" || user.Username == "" || user.HashedPassword == "" {
		logrus.Warn("Missing required fields during registration")
		return nil, apperrors.Validationf("missing required user fields")
	}

	if !emailRegex.MatchString(user.Email) {
		logrus.WithField("email", user.Email).Warn("Invalid email format during registration")
		return nil, apperrors.Validationf("invalid email format")
	}

	// Check if the email is already registered
	existingUser, _ := s.repo.GetUserByEmail(ctx, user.Email)
	if existingUser != nil {
		logrus.WithField("email", user.Email).Warn("Email already in use")
		return nil, apperrors.Validationf("email already in use")
	}

	// Hash the user's password.
	hashedPwd, err := bcrypt.GenerateFromPassword([]byte(user.HashedPassword), bcrypt.DefaultCost)
	if err != nil {
		logrus.WithError(err).Error("Password hashing failed")
		return nil, fmt.Errorf("failed to hash password: %v", err)
	}
	user.HashedPassword = string(hashedPwd)

	if user.Role == "" {
		user.Role = "member"
	}

	return s.repo.CreateUser(ctx, user)
}

// AuthenticateUser verifies credentials and returns the user.
func (s *UserService) AuthenticateUser(ctx context.Context, email, password string) (*models.User, error) {
	user, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("invalid email or password")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.HashedPassword), []byte(password)); err != nil {
		logrus.WithField("email", email).Warn("Password mismatch during login")
		return nil, fmt.Errorf("invalid email or password")
	}

	return user, nil
}

// GetUser fetches a user by their hex id.
func (s *UserService) GetUser(ctx context.Context, id string) (*models.User, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, apperrors.Validationf("invalid user ID: %v", err)
	}
	return s.repo.GetUserByID(ctx, objID)
}

// RegisterDeviceToken stores the user's push channel token. An empty token
// unregisters the channel; push delivery is then silently skipped.
func (s *UserService) RegisterDeviceToken(ctx context.Context, userID primitive.ObjectID, token string) error {
	if err := s.repo.SetDeviceToken(ctx, userID, token); err != nil {
		return fmt.Errorf("failed to register device token: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"userID":     userID.Hex(),
		"registered": token != "",
	}).Info("Device token updated")
	return nil
}

// UpdateLastActive touches the user's last-active timestamp.
func (s *UserService) UpdateLastActive(ctx context.Context, userID primitive.ObjectID) error {
	return s.repo.UpdateLastActive(ctx, userID)
}
