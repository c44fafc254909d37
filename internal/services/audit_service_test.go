package services

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/ivoo-app/reset-service/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuditService_Record_Persists(t *testing.T) {
	mockRepo := &MockResetAuditRepository{}
	svc := NewAuditService(mockRepo, slog.Default())

	userID := "user123"
	entry := &models.ResetAuditEntry{
		UserID: &userID,
		Email:  "user@example.com",
		Action: models.AuditActionRequest,
		Status: models.AuditStatusSuccess,
	}

	err := svc.Record(context.Background(), entry)

	require.NoError(t, err)
	require.Len(t, mockRepo.CreatedEntries, 1)
	assert.Equal(t, models.AuditActionRequest, mockRepo.CreatedEntries[0].Action)
}

func TestAuditService_Record_RepoFailureIsNonFatal(t *testing.T) {
	mockRepo := &MockResetAuditRepository{
		CreateFunc: func(ctx context.Context, entry *models.ResetAuditEntry) (*models.ResetAuditEntry, error) {
			return nil, models.ErrInternalServer
		},
	}
	svc := NewAuditService(mockRepo, slog.Default())

	reason := "no account for email"
	entry := &models.ResetAuditEntry{
		Email:        "ghost@example.com",
		Action:       models.AuditActionRequest,
		Status:       models.AuditStatusFailed,
		ErrorMessage: &reason,
	}

	err := svc.Record(context.Background(), entry)
	assert.NoError(t, err)
}

func TestAuditService_CountRecentRequests_WindowStart(t *testing.T) {
	var gotSince time.Time
	mockRepo := &MockResetAuditRepository{
		CountRequestsSinceFunc: func(ctx context.Context, email string, since time.Time) (int, error) {
			gotSince = since
			return 3, nil
		},
	}
	svc := NewAuditService(mockRepo, slog.Default())

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	count, err := svc.CountRecentRequests(context.Background(), "user@example.com", time.Hour, now)

	require.NoError(t, err)
	assert.Equal(t, 3, count)
	assert.Equal(t, now.Add(-time.Hour), gotSince)
}

func TestAuditService_TrailForEmail_ClampsPagination(t *testing.T) {
	var gotLimit, gotOffset int
	mockRepo := &MockResetAuditRepository{
		ListByEmailFunc: func(ctx context.Context, email string, limit, offset int) ([]*models.ResetAuditEntry, error) {
			gotLimit, gotOffset = limit, offset
			return []*models.ResetAuditEntry{}, nil
		},
	}
	svc := NewAuditService(mockRepo, slog.Default())

	_, err := svc.TrailForEmail(context.Background(), "user@example.com", 1000, -5)

	require.NoError(t, err)
	assert.Equal(t, 50, gotLimit)
	assert.Equal(t, 0, gotOffset)
}
