package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/gofinance/internal/domain"
)

// UserUseCase handles registration and credentials. Session handling stays
// with the injected SessionIssuer.
type UserUseCase struct {
	userRepo    UserRepository
	hasher      PasswordHasher
	idGen       IDGenerator
	initialCash decimal.Decimal
}

// NewUserUseCase creates a new UserUseCase.
func NewUserUseCase(userRepo UserRepository, hasher PasswordHasher, idGen IDGenerator, initialCash decimal.Decimal) *UserUseCase {
	return &UserUseCase{
		userRepo:    userRepo,
		hasher:      hasher,
		idGen:       idGen,
		initialCash: initialCash,
	}
}

// RegisterInput represents input for registering a user.
type RegisterInput struct {
	Username     string
	Password     string
	Confirmation string
}

// Register creates a user with the opening cash balance.
func (uc *UserUseCase) Register(ctx context.Context, input RegisterInput) (*domain.User, error) {
	username := strings.TrimSpace(input.Username)
	if err := domain.ValidateUsername(username); err != nil {
		return nil, err
	}

	if err := domain.ValidatePassword(input.Password); err != nil {
		return nil, err
	}

	if input.Password != input.Confirmation {
		return nil, domain.ErrPasswordMismatch
	}

	hash, err := uc.hasher.Hash(input.Password)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	user := &domain.User{
		ID:          uc.idGen.Generate(),
		Username:    username,
		Hash:        hash,
		Cash:        uc.initialCash,
		OpeningCash: decimal.NewNullDecimal(uc.initialCash),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := uc.userRepo.Create(ctx, user); err != nil {
		return nil, storeError(err)
	}

	return user, nil
}

// Login verifies credentials and returns the user.
func (uc *UserUseCase) Login(ctx context.Context, username, password string) (*domain.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, domain.ErrInvalidCredentials
	}

	user, err := uc.userRepo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrInvalidCredentials
		}

		return nil, storeError(err)
	}

	if err := uc.hasher.Compare(user.Hash, password); err != nil {
		return nil, domain.ErrInvalidCredentials
	}

	return user, nil
}

// ChangePasswordInput represents input for changing a password.
type ChangePasswordInput struct {
	UserID          string
	CurrentPassword string
	NewPassword     string
	Confirmation    string
}

// ChangePassword replaces the user's password after checking the current one.
func (uc *UserUseCase) ChangePassword(ctx context.Context, input ChangePasswordInput) error {
	if input.CurrentPassword == "" {
		return domain.ErrInvalidCredentials
	}

	user, err := uc.userRepo.GetByID(ctx, input.UserID)
	if err != nil {
		return storeError(err)
	}

	if err := uc.hasher.Compare(user.Hash, input.CurrentPassword); err != nil {
		return domain.ErrInvalidCredentials
	}

	if err := domain.ValidatePassword(input.NewPassword); err != nil {
		return err
	}

	if input.NewPassword != input.Confirmation {
		return domain.ErrPasswordMismatch
	}

	hash, err := uc.hasher.Hash(input.NewPassword)
	if err != nil {
		return err
	}

	return storeError(uc.userRepo.UpdateHash(ctx, user.ID, hash, time.Now().UTC()))
}

// GetUser retrieves a user by ID.
func (uc *UserUseCase) GetUser(ctx context.Context, id string) (*domain.User, error) {
	user, err := uc.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, storeError(err)
	}

	return user, nil
}
