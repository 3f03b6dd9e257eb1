package services_test

import (
	"testing"

	"resep/internal/models"
	"resep/internal/repositories"
	"resep/internal/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"golang.org/x/crypto/bcrypt"
)

// MockUserRepository is a mock implementation of repositories.UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(user *models.User) error {
	args := m.Called(user)
	return args.Error(0)
}

func (m *MockUserRepository) GetByUsername(username string) (*models.User, error) {
	args := m.Called(username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) GetByEmail(email string) (*models.User, error) {
	args := m.Called(email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) GetByID(id uint) (*models.User, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) DeleteCascade(userID uint) error {
	args := m.Called(userID)
	return args.Error(0)
}

func TestAuthService_Register(t *testing.T) {
	mockRepo := new(MockUserRepository)
	authService := services.NewAuthService(mockRepo, nil)

	// Successful registration stores a hash, never the plaintext
	var saved *models.User
	mockRepo.On("GetByEmail", "test@example.com").Return(nil, repositories.ErrNotFound).Once()
	mockRepo.On("Create", mock.AnythingOfType("*models.User")).Run(func(args mock.Arguments) {
		saved = args.Get(0).(*models.User)
	}).Return(nil).Once()

	user, err := authService.Register("testuser", "test@example.com", "password123")
	assert.NoError(t, err)
	assert.NotNil(t, user)
	assert.NotEqual(t, "password123", saved.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(saved.PasswordHash), []byte("password123")))
	mockRepo.AssertExpectations(t)

	// Email already registered (caught by the lookup)
	mockRepo.On("GetByEmail", "test@example.com").Return(&models.User{ID: 1}, nil).Once()
	_, err = authService.Register("otheruser", "test@example.com", "password123")
	assert.ErrorIs(t, err, repositories.ErrDuplicateEmail)
	mockRepo.AssertExpectations(t)

	// Email already registered (lost the race, caught by the unique index)
	mockRepo.On("GetByEmail", "test@example.com").Return(nil, repositories.ErrNotFound).Once()
	mockRepo.On("Create", mock.AnythingOfType("*models.User")).Return(repositories.ErrDuplicateEmail).Once()
	_, err = authService.Register("otheruser", "test@example.com", "password123")
	assert.ErrorIs(t, err, repositories.ErrDuplicateEmail)
	mockRepo.AssertExpectations(t)
}

func TestAuthService_RegisterHashesAreSalted(t *testing.T) {
	mockRepo := new(MockUserRepository)
	authService := services.NewAuthService(mockRepo, nil)

	var hashes []string
	mockRepo.On("GetByEmail", mock.AnythingOfType("string")).Return(nil, repositories.ErrNotFound).Twice()
	mockRepo.On("Create", mock.AnythingOfType("*models.User")).Run(func(args mock.Arguments) {
		hashes = append(hashes, args.Get(0).(*models.User).PasswordHash)
	}).Return(nil).Twice()

	_, err := authService.Register("usera", "a@example.com", "password123")
	assert.NoError(t, err)
	_, err = authService.Register("userb", "b@example.com", "password123")
	assert.NoError(t, err)

	// Same password, different salts, both verify
	assert.Len(t, hashes, 2)
	assert.NotEqual(t, hashes[0], hashes[1])
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(hashes[0]), []byte("password123")))
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(hashes[1]), []byte("password123")))
}

func TestAuthService_Login(t *testing.T) {
	mockRepo := new(MockUserRepository)
	authService := services.NewAuthService(mockRepo, nil)

	hashedPassword, _ := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
	user := &models.User{
		ID:           1,
		Username:     "testuser",
		Email:        "test@example.com",
		PasswordHash: string(hashedPassword),
	}

	// Successful login
	mockRepo.On("GetByUsername", "testuser").Return(user, nil).Once()
	got, err := authService.Login("testuser", "password123")
	assert.NoError(t, err)
	assert.Equal(t, user.Username, got.Username)
	mockRepo.AssertExpectations(t)

	// Wrong password
	mockRepo.On("GetByUsername", "testuser").Return(user, nil).Once()
	_, err = authService.Login("testuser", "wrongpassword")
	assert.ErrorIs(t, err, services.ErrInvalidCredentials)
	mockRepo.AssertExpectations(t)

	// Unknown username yields the same error as a wrong password
	mockRepo.On("GetByUsername", "nonexistentuser").Return(nil, repositories.ErrNotFound).Once()
	_, err = authService.Login("nonexistentuser", "password123")
	assert.ErrorIs(t, err, services.ErrInvalidCredentials)
	mockRepo.AssertExpectations(t)
}

func TestAuthService_DeleteAccount(t *testing.T) {
	mockRepo := new(MockUserRepository)
	authService := services.NewAuthService(mockRepo, nil)

	mockRepo.On("DeleteCascade", uint(42)).Return(nil).Once()
	assert.NoError(t, authService.DeleteAccount(42))
	mockRepo.AssertExpectations(t)

	mockRepo.On("DeleteCascade", uint(43)).Return(repositories.ErrNotFound).Once()
	assert.ErrorIs(t, authService.DeleteAccount(43), repositories.ErrNotFound)
	mockRepo.AssertExpectations(t)
}
