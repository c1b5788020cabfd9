package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"quest-market/internal/models"
	"quest-market/internal/repository"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// UserService handles user-related business logic
type UserService struct {
	repo           *repository.Repository
	initialBalance decimal.Decimal
}

// NewUserService creates a new UserService
func NewUserService(repo *repository.Repository, initialBalance decimal.Decimal) *UserService {
	return &UserService{
		repo:           repo,
		initialBalance: initialBalance,
	}
}

// Register creates an account with the starting balance, xp and rating
func (s *UserService) Register(ctx context.Context, req *models.RegisterRequest) (*models.User, error) {
	username := strings.TrimSpace(req.Username)
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if username == "" || email == "" {
		return nil, invalidInput("username and email are required")
	}

	exists, err := s.repo.UserExists(ctx, username, email)
	if err != nil {
		return nil, fmt.Errorf("failed to check user: %w", err)
	}
	if exists {
		return nil, ErrUserExists
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Name:            strings.TrimSpace(req.Name),
		Username:        username,
		Email:           email,
		PasswordHash:    string(hash),
		DOB:             req.DOB,
		Balance:         s.initialBalance,
		StartingBalance: s.initialBalance,
		XP:              0,
		Rating:          models.DefaultRating,
		RatingCount:     0,
	}

	if err := s.repo.CreateUser(ctx, user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrUserExists
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	log.WithField("username", username).Info("New user registered")
	return user, nil
}

// Login checks the password against the stored bcrypt hash. An unknown email
// and a wrong password both yield ErrInvalidCredentials.
func (s *UserService) Login(ctx context.Context, email, password string) (*models.User, error) {
	user, err := s.repo.GetUserByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return user, nil
}

// GetUserByUsername retrieves a user with fresh balance, xp and rating
func (s *UserService) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	user, err := s.repo.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// nextRating folds one more rating into a running mean, rounded to one decimal
func nextRating(current float64, count int64, rating float64) float64 {
	total := decimal.NewFromFloat(current).
		Mul(decimal.NewFromInt(count)).
		Add(decimal.NewFromFloat(rating))
	mean, _ := total.Div(decimal.NewFromInt(count + 1)).Round(1).Float64()
	return mean
}
