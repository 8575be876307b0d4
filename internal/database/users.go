package database

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/therealutkarshpriyadarshi/coursehub/pkg/models"
)

var _ models.UserStore = (*UserRepository)(nil)

const userColumns = `id, name, email, password_hash, role, reset_otp_hash, reset_otp_expires_at, created_at, updated_at`

// UserRepository stores user accounts
type UserRepository struct {
	db *DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create inserts a new user. A duplicate email yields models.ErrConflict.
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		user.ID = uuid.New().String()
	}

	query := `
		INSERT INTO users (id, name, email, password_hash, role)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at, updated_at
	`

	err := r.db.Pool.QueryRow(ctx, query,
		user.ID, user.Name, user.Email, user.PasswordHash, user.Role,
	).Scan(&user.CreatedAt, &user.UpdatedAt)

	return translate(err, "create user")
}

// GetByID retrieves a user by ID
func (r *UserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	if !validID(id) {
		return nil, fmt.Errorf("get user: %w", models.ErrNotFound)
	}

	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	user, err := scanUser(r.db.Pool.QueryRow(ctx, query, id))
	if err != nil {
		return nil, translate(err, "get user")
	}
	return user, nil
}

// GetByEmail retrieves a user by email, ignoring case
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE LOWER(email) = LOWER($1)`

	user, err := scanUser(r.db.Pool.QueryRow(ctx, query, email))
	if err != nil {
		return nil, translate(err, "get user by email")
	}
	return user, nil
}

// SetResetOTP stores the hashed one-time password and its expiry
func (r *UserRepository) SetResetOTP(ctx context.Context, userID, otpHash string, expiresAt time.Time) error {
	if !validID(userID) {
		return fmt.Errorf("set reset otp: %w", models.ErrNotFound)
	}

	query := `
		UPDATE users
		SET reset_otp_hash = $2, reset_otp_expires_at = $3, updated_at = NOW()
		WHERE id = $1
	`

	tag, err := r.db.Pool.Exec(ctx, query, userID, otpHash, expiresAt)
	if err != nil {
		return translate(err, "set reset otp")
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("set reset otp: %w", models.ErrNotFound)
	}
	return nil
}

// ResetPassword replaces the password hash and clears the reset OTP in one statement
func (r *UserRepository) ResetPassword(ctx context.Context, userID, passwordHash string) error {
	if !validID(userID) {
		return fmt.Errorf("reset password: %w", models.ErrNotFound)
	}

	query := `
		UPDATE users
		SET password_hash = $2, reset_otp_hash = NULL, reset_otp_expires_at = NULL, updated_at = NOW()
		WHERE id = $1
	`

	tag, err := r.db.Pool.Exec(ctx, query, userID, passwordHash)
	if err != nil {
		return translate(err, "reset password")
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("reset password: %w", models.ErrNotFound)
	}
	return nil
}

// PurgeExpiredOTPs clears reset OTPs that expired before now
func (r *UserRepository) PurgeExpiredOTPs(ctx context.Context, now time.Time) (int64, error) {
	query := `
		UPDATE users
		SET reset_otp_hash = NULL, reset_otp_expires_at = NULL
		WHERE reset_otp_expires_at IS NOT NULL AND reset_otp_expires_at < $1
	`

	tag, err := r.db.Pool.Exec(ctx, query, now)
	if err != nil {
		return 0, translate(err, "purge expired otps")
	}
	return tag.RowsAffected(), nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*models.User, error) {
	var user models.User
	err := row.Scan(
		&user.ID, &user.Name, &user.Email, &user.PasswordHash, &user.Role,
		&user.ResetOTPHash, &user.ResetOTPExpiresAt, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &user, nil
}
