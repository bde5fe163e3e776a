package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	// ErrInvalidCredentials is returned when the email/password pair does not match.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrEmailTaken is returned when registering with an email that already exists.
	ErrEmailTaken = errors.New("email already registered")
)

// AuthService provides business logic for account registration, login and
// user lookup. It is the single place identity is resolved; every other
// component reads the user from the request context instead of re-fetching.
type AuthService struct {
	db *gorm.DB
}

// NewAuthService creates a new AuthService instance
func NewAuthService(db *gorm.DB) *AuthService {
	return &AuthService{db: db}
}

// RegisterInput carries the fields required to create an account.
type RegisterInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	Name     string `json:"name" validate:"required"`
	Company  string `json:"company"`
}

// Register creates a customer account with a bcrypt-hashed password.
func (as *AuthService) Register(ctx context.Context, input RegisterInput) (*User, error) {
	var count int64
	if err := as.db.WithContext(ctx).Model(&User{}).Where("email = ?", input.Email).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("failed to check existing email: %w", err)
	}
	if count > 0 {
		return nil, ErrEmailTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &User{
		Email:           input.Email,
		PasswordHash:    string(hash),
		Name:            input.Name,
		Company:         input.Company,
		Role:            RoleCustomer,
		PriceMultiplier: 1,
	}

	if err := as.db.WithContext(ctx).Create(user).Error; err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	slog.Info("user registered", "user_id", user.ID, "email", user.Email)
	return user, nil
}

// Login verifies the credentials and returns the matching user.
func (as *AuthService) Login(ctx context.Context, email, password string) (*User, error) {
	var user User
	if err := as.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to fetch user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return &user, nil
}

// GetUser retrieves a user by ID.
// Returns gorm.ErrRecordNotFound if the user does not exist.
func (as *AuthService) GetUser(ctx context.Context, id uuid.UUID) (*User, error) {
	var user User
	if err := as.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			slog.Debug("user not found", "user_id", id)
			return nil, err
		}
		return nil, fmt.Errorf("failed to fetch user: %w", err)
	}
	return &user, nil
}
