package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/ivoo-app/reset-service/internal/database"
	"github.com/ivoo-app/reset-service/internal/models"
	"github.com/jackc/pgx/v5"
)

// rowScanner abstracts pgx.Row and pgx.Rows for shared scan helpers
type rowScanner interface {
	Scan(dest ...interface{}) error
}

// ResetTokenRepository handles password reset token data access
type ResetTokenRepository struct {
	db *database.DB
}

// NewResetTokenRepository creates a new ResetTokenRepository
func NewResetTokenRepository(db *database.DB) *ResetTokenRepository {
	return &ResetTokenRepository{db: db}
}

func scanResetTokenRow(row rowScanner) (*models.ResetToken, error) {
	var token models.ResetToken
	var consumedAt *time.Time
	var ipAddress, userAgent *string

	err := row.Scan(
		&token.ID, &token.UserID, &token.Email, &token.TokenHash,
		&token.ExpiresAt, &consumedAt, &ipAddress, &userAgent, &token.CreatedAt,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	token.ConsumedAt = consumedAt
	token.IPAddress = ipAddress
	token.UserAgent = userAgent
	return &token, nil
}

// Create persists a new reset token record
func (r *ResetTokenRepository) Create(ctx context.Context, token *models.ResetToken) (*models.ResetToken, error) {
	token.ID = uuid.New().String()

	query := `
		INSERT INTO password_reset_tokens (id, user_id, email, token_hash, expires_at, ip_address, user_agent, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, user_id, email, token_hash, expires_at, consumed_at, ip_address, user_agent, created_at
	`

	created, err := scanResetTokenRow(r.db.Pool.QueryRow(ctx, query,
		token.ID, token.UserID, token.Email, token.TokenHash,
		token.ExpiresAt, token.IPAddress, token.UserAgent, token.CreatedAt,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to create reset token: %w", err)
	}

	return created, nil
}

// GetActiveByTokenHash retrieves an unconsumed token by its digest. Expiry is
// checked by the caller against its own clock, not here.
func (r *ResetTokenRepository) GetActiveByTokenHash(ctx context.Context, tokenHash string) (*models.ResetToken, error) {
	query := `
		SELECT id, user_id, email, token_hash, expires_at, consumed_at, ip_address, user_agent, created_at
		FROM password_reset_tokens
		WHERE token_hash = $1 AND consumed_at IS NULL
	`

	return scanResetTokenRow(r.db.Pool.QueryRow(ctx, query, tokenHash))
}

// Tombstone marks a token consumed. The update is conditional on the token
// still being unconsumed, so concurrent tombstone attempts cannot both win;
// the loser gets ErrNotFound.
func (r *ResetTokenRepository) Tombstone(ctx context.Context, id string) error {
	query := `
		UPDATE password_reset_tokens
		SET consumed_at = NOW()
		WHERE id = $1 AND consumed_at IS NULL
	`

	result, err := r.db.Pool.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to tombstone reset token: %w", err)
	}

	if result.RowsAffected() == 0 {
		return models.ErrNotFound
	}

	return nil
}

// InvalidateActiveByUserID tombstones every outstanding token for a user.
// Called on each new issuance so only the most recent link stays valid.
func (r *ResetTokenRepository) InvalidateActiveByUserID(ctx context.Context, userID string) (int64, error) {
	query := `
		UPDATE password_reset_tokens
		SET consumed_at = NOW()
		WHERE user_id = $1 AND consumed_at IS NULL
	`

	result, err := r.db.Pool.Exec(ctx, query, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to invalidate prior reset tokens: %w", err)
	}

	return result.RowsAffected(), nil
}

// ConsumeAndSetPassword atomically replaces the user's credential hash and
// consumes the token. The token update is conditional on consumed_at IS NULL:
// if a concurrent consume got there first, zero rows are affected and the
// whole transaction rolls back with ErrNotFound, leaving the racing
// credential untouched.
func (r *ResetTokenRepository) ConsumeAndSetPassword(ctx context.Context, tokenID, userID, passwordHash string) error {
	return r.db.WithTransaction(ctx, func(tx pgx.Tx) error {
		consume := `
			UPDATE password_reset_tokens
			SET consumed_at = NOW()
			WHERE id = $1 AND consumed_at IS NULL
		`
		result, err := tx.Exec(ctx, consume, tokenID)
		if err != nil {
			return fmt.Errorf("failed to consume reset token: %w", err)
		}
		if result.RowsAffected() == 0 {
			return models.ErrNotFound
		}

		update := `
			UPDATE users
			SET password_hash = $1, updated_at = NOW()
			WHERE id = $2
		`
		result, err = tx.Exec(ctx, update, passwordHash, userID)
		if err != nil {
			return fmt.Errorf("failed to update password hash: %w", err)
		}
		if result.RowsAffected() == 0 {
			return models.ErrNotFound
		}

		return nil
	})
}

// SweepExpired tombstones tokens whose window has lapsed without ever being
// looked up. Lazy expiry at access time already keeps them unusable; this
// keeps the active set small.
func (r *ResetTokenRepository) SweepExpired(ctx context.Context) (int64, error) {
	query := `
		UPDATE password_reset_tokens
		SET consumed_at = NOW()
		WHERE consumed_at IS NULL AND expires_at < NOW()
	`

	result, err := r.db.Pool.Exec(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("failed to sweep expired reset tokens: %w", err)
	}

	return result.RowsAffected(), nil
}
