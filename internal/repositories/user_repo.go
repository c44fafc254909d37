package repositories

import (
	"context"

	"github.com/ivoo-app/reset-service/internal/database"
	"github.com/ivoo-app/reset-service/internal/models"
)

// UserRepository provides read access to the identity store. Users are owned
// by the admin dashboard; the only write this service performs against them
// is the password_hash update inside ResetTokenRepository.ConsumeAndSetPassword.
type UserRepository struct {
	db *database.DB
}

func NewUserRepository(db *database.DB) *UserRepository {
	return &UserRepository{db: db}
}

func scanUserRow(row rowScanner) (*models.User, error) {
	var user models.User
	var passwordHash, fullName *string

	err := row.Scan(
		&user.ID, &user.Email, &passwordHash, &fullName, &user.Role,
		&user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	if passwordHash != nil {
		user.PasswordHash = *passwordHash
	}
	if fullName != nil {
		user.FullName = *fullName
	}

	return &user, nil
}

// GetByEmail resolves a user by normalized (lower-cased) email
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `
		SELECT id, email, password_hash, full_name, role, created_at, updated_at
		FROM users
		WHERE LOWER(email) = $1
	`

	return scanUserRow(r.db.Pool.QueryRow(ctx, query, email))
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	query := `
		SELECT id, email, password_hash, full_name, role, created_at, updated_at
		FROM users
		WHERE id = $1
	`

	return scanUserRow(r.db.Pool.QueryRow(ctx, query, id))
}
