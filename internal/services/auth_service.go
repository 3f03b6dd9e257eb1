package services

import (
	"errors"
	"fmt"
	"log"

	"resep/internal/models"
	"resep/internal/repositories"
	"resep/pkg/rabbitmq"

	"golang.org/x/crypto/bcrypt"
)

// ErrInvalidCredentials is returned for both an unknown username and a wrong
// password, so login failures do not reveal which usernames exist.
var ErrInvalidCredentials = errors.New("invalid username or password")

// AuthService handles registration, login and account removal.
type AuthService struct {
	userRepo repositories.UserRepository
	mqClient *rabbitmq.Client
}

// NewAuthService creates a new AuthService. mqClient may be nil, in which
// case account events are not published.
func NewAuthService(userRepo repositories.UserRepository, mqClient *rabbitmq.Client) *AuthService {
	return &AuthService{
		userRepo: userRepo,
		mqClient: mqClient,
	}
}

// Register hashes the password and creates the user. The email unique index
// is the authoritative duplicate guard; the lookup beforehand only gives a
// friendlier answer for the common case.
func (s *AuthService) Register(username, email, password string) (*models.User, error) {
	if existing, err := s.userRepo.GetByEmail(email); err == nil && existing != nil {
		return nil, repositories.ErrDuplicateEmail
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Username:     username,
		Email:        email,
		PasswordHash: string(hashedPassword),
	}
	if err := s.userRepo.Create(user); err != nil {
		if errors.Is(err, repositories.ErrDuplicateEmail) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to register user: %w", err)
	}
	return user, nil
}

// Login verifies the password for the given username.
func (s *AuthService) Login(username, password string) (*models.User, error) {
	user, err := s.userRepo.GetByUsername(username)
	if err != nil {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

// UserByUsername resolves the user behind a session claim.
func (s *AuthService) UserByUsername(username string) (*models.User, error) {
	return s.userRepo.GetByUsername(username)
}

// DeleteAccount removes the user and all their recipes in one transaction.
func (s *AuthService) DeleteAccount(userID uint) error {
	if err := s.userRepo.DeleteCascade(userID); err != nil {
		return err
	}

	if s.mqClient != nil {
		err := s.mqClient.PublishEvent("account.deleted", map[string]interface{}{
			"user_id": userID,
		})
		if err != nil {
			log.Printf("Warning: Failed to publish account deleted event for user %d: %v", userID, err)
		}
	}
	return nil
}
