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

// ResetAuditRepository handles the append-only reset audit log
type ResetAuditRepository struct {
	db *database.DB
}

// NewResetAuditRepository creates a new ResetAuditRepository
func NewResetAuditRepository(db *database.DB) *ResetAuditRepository {
	return &ResetAuditRepository{db: db}
}

func scanAuditRow(row rowScanner) (*models.ResetAuditEntry, error) {
	var entry models.ResetAuditEntry

	err := row.Scan(
		&entry.ID, &entry.UserID, &entry.Email, &entry.Action, &entry.Status,
		&entry.ErrorMessage, &entry.IPAddress, &entry.UserAgent, &entry.CreatedAt,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	return &entry, nil
}

func scanAuditRows(rows pgx.Rows) ([]*models.ResetAuditEntry, error) {
	defer rows.Close()

	entries := make([]*models.ResetAuditEntry, 0)

	for rows.Next() {
		entry, err := scanAuditRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan audit entry: %w", err)
		}
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating audit rows: %w", err)
	}

	return entries, nil
}

// Create appends an audit entry
func (r *ResetAuditRepository) Create(ctx context.Context, entry *models.ResetAuditEntry) (*models.ResetAuditEntry, error) {
	entry.ID = uuid.New().String()

	query := `
		INSERT INTO password_reset_audit_log (id, user_id, email, action, status, error_message, ip_address, user_agent)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, user_id, email, action, status, error_message, ip_address, user_agent, created_at
	`

	created, err := scanAuditRow(r.db.Pool.QueryRow(ctx, query,
		entry.ID, entry.UserID, entry.Email, entry.Action, entry.Status,
		entry.ErrorMessage, entry.IPAddress, entry.UserAgent,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to create audit entry: %w", err)
	}

	return created, nil
}

// CountRequestsSince counts issuance requests for an email after the given
// instant. This feeds the issuance rate limit.
func (r *ResetAuditRepository) CountRequestsSince(ctx context.Context, email string, since time.Time) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM password_reset_audit_log
		WHERE email = $1 AND action = $2 AND created_at > $3
	`

	var count int
	err := r.db.Pool.QueryRow(ctx, query, email, models.AuditActionRequest, since).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count recent reset requests: %w", err)
	}

	return count, nil
}

// ListByEmail retrieves the audit trail for an email, newest first
func (r *ResetAuditRepository) ListByEmail(ctx context.Context, email string, limit, offset int) ([]*models.ResetAuditEntry, error) {
	query := `
		SELECT id, user_id, email, action, status, error_message, ip_address, user_agent, created_at
		FROM password_reset_audit_log
		WHERE email = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.db.Pool.Query(ctx, query, email, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit trail: %w", err)
	}

	return scanAuditRows(rows)
}

// Cleanup removes audit entries older than the retention period. Retention
// pruning is the one deletion the audit log permits; the protocol itself
// never mutates entries.
func (r *ResetAuditRepository) Cleanup(ctx context.Context, olderThanDays int) (int64, error) {
	query := `
		DELETE FROM password_reset_audit_log
		WHERE created_at < CURRENT_TIMESTAMP - INTERVAL '1 day' * $1
	`

	result, err := r.db.Pool.Exec(ctx, query, olderThanDays)
	if err != nil {
		return 0, fmt.Errorf("failed to cleanup audit log: %w", err)
	}

	return result.RowsAffected(), nil
}
