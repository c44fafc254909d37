package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ivoo-app/reset-service/internal/models"
	"github.com/ivoo-app/reset-service/pkg/logger"
)

// ResetAuditRepository defines the interface for audit log persistence
type ResetAuditRepository interface {
	Create(ctx context.Context, entry *models.ResetAuditEntry) (*models.ResetAuditEntry, error)
	CountRequestsSince(ctx context.Context, email string, since time.Time) (int, error)
	ListByEmail(ctx context.Context, email string, limit, offset int) ([]*models.ResetAuditEntry, error)
	Cleanup(ctx context.Context, olderThanDays int) (int64, error)
}

// AuditService handles audit logging with dual-write pattern (slog + database)
type AuditService struct {
	repo   ResetAuditRepository
	logger *slog.Logger
}

// NewAuditService creates a new AuditService
func NewAuditService(repo ResetAuditRepository, log *slog.Logger) *AuditService {
	return &AuditService{
		repo:   repo,
		logger: log,
	}
}

// Record writes one audit entry for a reset protocol event. The slog write
// always happens; a database failure is logged but never propagated, so a
// broken audit store cannot block the reset flow itself.
func (s *AuditService) Record(ctx context.Context, entry *models.ResetAuditEntry) error {
	if entry.Status == models.AuditStatusSuccess {
		s.logger.InfoContext(ctx, "reset audit event",
			slog.String("action", entry.Action),
			slog.String("email", logger.SanitizedEmail(entry.Email)),
			slog.Any("user_id", entry.UserID),
		)
	} else {
		reason := ""
		if entry.ErrorMessage != nil {
			reason = *entry.ErrorMessage
		}
		s.logger.WarnContext(ctx, "reset audit event failed",
			slog.String("action", entry.Action),
			slog.String("email", logger.SanitizedEmail(entry.Email)),
			slog.String("failure_reason", reason),
		)
	}

	_, err := s.repo.Create(ctx, entry)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to persist audit entry",
			slog.String("action", entry.Action),
			slog.Any("error", err),
		)
		// Non-critical: don't fail the reset flow if audit persistence fails
		return nil
	}

	return nil
}

// CountRecentRequests returns how many issuance requests the email has made
// inside the rate-limit window ending now.
func (s *AuditService) CountRecentRequests(ctx context.Context, email string, window time.Duration, now time.Time) (int, error) {
	count, err := s.repo.CountRequestsSince(ctx, email, now.Add(-window))
	if err != nil {
		return 0, fmt.Errorf("failed to count recent requests: %w", err)
	}
	return count, nil
}

// TrailForEmail retrieves the audit trail for an email address
func (s *AuditService) TrailForEmail(ctx context.Context, email string, limit, offset int) ([]*models.ResetAuditEntry, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	entries, err := s.repo.ListByEmail(ctx, email, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to get audit trail: %w", err)
	}

	return entries, nil
}
