package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/iho/gofinance/internal/domain"
	"github.com/iho/gofinance/internal/infrastructure/postgres/generated"
	"github.com/iho/gofinance/internal/usecase"
)

// UserRepository implements usecase.UserRepository.
type UserRepository struct {
	queries *generated.Queries
}

// NewUserRepository creates a new UserRepository.
func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return newUserRepository(pool)
}

func newUserRepository(db generated.DBTX) *UserRepository {
	return &UserRepository{queries: generated.New(db)}
}

// Create inserts a new user. A duplicate username yields domain.ErrUsernameTaken.
func (r *UserRepository) Create(ctx context.Context, user *domain.User) error {
	err := r.queries.CreateUser(ctx, generated.CreateUserParams{
		ID:        user.ID,
		Username:  user.Username,
		Hash:      user.Hash,
		Cash:      decimalToNumeric(user.Cash),
		CreatedAt: timeToPgTimestamptz(user.CreatedAt),
		UpdatedAt: timeToPgTimestamptz(user.UpdatedAt),
	})
	if pgErrorCode(err) == pgErrUniqueViolation {
		return domain.ErrUsernameTaken
	}

	return err
}

// GetByID retrieves a user by ID.
func (r *UserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	row, err := r.queries.GetUserByID(ctx, id)
	if err != nil {
		return nil, notFound(err)
	}

	return rowToUser(row), nil
}

// GetByUsername retrieves a user by username.
func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	row, err := r.queries.GetUserByUsername(ctx, username)
	if err != nil {
		return nil, notFound(err)
	}

	return rowToUser(row), nil
}

// GetCash reads the user's cash inside tx.
func (r *UserRepository) GetCash(ctx context.Context, tx usecase.Transaction, id string) (decimal.Decimal, error) {
	cash, err := txQueries(tx).GetUserCash(ctx, id)
	if err != nil {
		return decimal.Zero, notFound(err)
	}

	return numericToDecimal(cash), nil
}

// GetOpeningCash reads the cash the user was registered with inside tx.
func (r *UserRepository) GetOpeningCash(ctx context.Context, tx usecase.Transaction, id string) (decimal.NullDecimal, error) {
	opening, err := txQueries(tx).GetUserOpeningCash(ctx, id)
	if err != nil {
		return decimal.NullDecimal{}, notFound(err)
	}

	return numericToNullDecimal(opening), nil
}

// GetForUpdate retrieves a user with a FOR UPDATE lock held until tx ends.
func (r *UserRepository) GetForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.User, error) {
	row, err := txQueries(tx).GetUserForUpdate(ctx, id)
	if err != nil {
		return nil, notFound(err)
	}

	return rowToUser(row), nil
}

// UpdateCash sets the user's cash inside tx. The cash >= 0 check constraint
// surfaces as domain.ErrInsufficientFunds.
func (r *UserRepository) UpdateCash(ctx context.Context, tx usecase.Transaction, id string, cash decimal.Decimal, updatedAt time.Time) error {
	err := txQueries(tx).UpdateUserCash(ctx, generated.UpdateUserCashParams{
		ID:        id,
		Cash:      decimalToNumeric(cash),
		UpdatedAt: timeToPgTimestamptz(updatedAt),
	})
	if pgErrorCode(err) == pgErrCheckViolation {
		return fmt.Errorf("%w: %w", domain.ErrInsufficientFunds, err)
	}

	return err
}

// UpdateHash replaces the user's password hash.
func (r *UserRepository) UpdateHash(ctx context.Context, id, hash string, updatedAt time.Time) error {
	n, err := r.queries.UpdateUserHash(ctx, generated.UpdateUserHashParams{
		ID:        id,
		Hash:      hash,
		UpdatedAt: timeToPgTimestamptz(updatedAt),
	})
	if err != nil {
		return err
	}

	if n == 0 {
		return domain.ErrUserNotFound
	}

	return nil
}

// List lists users ordered by ID.
func (r *UserRepository) List(ctx context.Context, limit, offset int) ([]*domain.User, error) {
	rows, err := r.queries.ListUsers(ctx, generated.ListUsersParams{
		Limit:  int32(limit),
		Offset: int32(offset),
	})
	if err != nil {
		return nil, err
	}

	users := make([]*domain.User, 0, len(rows))
	for _, row := range rows {
		users = append(users, rowToUser(row))
	}

	return users, nil
}

func rowToUser(row generated.User) *domain.User {
	return &domain.User{
		ID:          row.ID,
		Username:    row.Username,
		Hash:        row.Hash,
		Cash:        numericToDecimal(row.Cash),
		OpeningCash: numericToNullDecimal(row.OpeningCash),
		CreatedAt:   row.CreatedAt.Time,
		UpdatedAt:   row.UpdatedAt.Time,
	}
}

func notFound(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ErrUserNotFound
	}

	return err
}
