package service

import (
	"context"
	"regexp"

	"chatgrid/internal/domain"
	"chatgrid/internal/token"

	"golang.org/x/crypto/bcrypt"
)

var usernameRegex = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)

// AuthService handles registration, login and session token issuance
type AuthService struct {
	userRepo domain.UserRepository
	tokens   *token.Manager
}

// NewAuthService creates a new auth service
func NewAuthService(userRepo domain.UserRepository, tokens *token.Manager) *AuthService {
	return &AuthService{
		userRepo: userRepo,
		tokens:   tokens,
	}
}

// Register validates input and creates a new user with a bcrypt password hash
func (s *AuthService) Register(ctx context.Context, username, password string) (*domain.User, error) {
	if len(username) < 3 || len(username) > 50 {
		return nil, domain.ErrInvalidInput
	}
	if !usernameRegex.MatchString(username) {
		return nil, domain.ErrInvalidInput
	}
	if len(password) < 8 || len(password) > 100 {
		return nil, domain.ErrInvalidInput
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), 12)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		Username:     username,
		PasswordHash: string(hashedPassword),
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	return user, nil
}

// Login verifies credentials and issues a session token. A missing user is
// reported as ErrUserNotFound; a wrong password as ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, username, password string) (string, *domain.User, error) {
	user, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		return "", nil, err
	}

	if err := bcrypt.CompareHashAndPassword(
		[]byte(user.PasswordHash), []byte(password),
	); err != nil {
		return "", nil, domain.ErrInvalidCredentials
	}

	sessionToken, err := s.tokens.Encode(user.ID, user.Username)
	if err != nil {
		return "", nil, err
	}

	return sessionToken, user, nil
}

// GetUserByID fetches a user by id
func (s *AuthService) GetUserByID(ctx context.Context, userID int64) (*domain.User, error) {
	return s.userRepo.GetByID(ctx, userID)
}
