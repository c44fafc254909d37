package services

import (
	"context"
	"time"

	"github.com/ivoo-app/reset-service/internal/models"
)

// MockResetTokenRepository implements ResetTokenRepository for testing
type MockResetTokenRepository struct {
	CreateFunc                   func(ctx context.Context, token *models.ResetToken) (*models.ResetToken, error)
	GetActiveByTokenHashFunc     func(ctx context.Context, tokenHash string) (*models.ResetToken, error)
	TombstoneFunc                func(ctx context.Context, id string) error
	InvalidateActiveByUserIDFunc func(ctx context.Context, userID string) (int64, error)
	ConsumeAndSetPasswordFunc    func(ctx context.Context, tokenID, userID, passwordHash string) error
}

func (m *MockResetTokenRepository) Create(ctx context.Context, token *models.ResetToken) (*models.ResetToken, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, token)
	}
	token.ID = "token_123"
	return token, nil
}

func (m *MockResetTokenRepository) GetActiveByTokenHash(ctx context.Context, tokenHash string) (*models.ResetToken, error) {
	if m.GetActiveByTokenHashFunc != nil {
		return m.GetActiveByTokenHashFunc(ctx, tokenHash)
	}
	return nil, models.ErrNotFound
}

func (m *MockResetTokenRepository) Tombstone(ctx context.Context, id string) error {
	if m.TombstoneFunc != nil {
		return m.TombstoneFunc(ctx, id)
	}
	return nil
}

func (m *MockResetTokenRepository) InvalidateActiveByUserID(ctx context.Context, userID string) (int64, error) {
	if m.InvalidateActiveByUserIDFunc != nil {
		return m.InvalidateActiveByUserIDFunc(ctx, userID)
	}
	return 0, nil
}

func (m *MockResetTokenRepository) ConsumeAndSetPassword(ctx context.Context, tokenID, userID, passwordHash string) error {
	if m.ConsumeAndSetPasswordFunc != nil {
		return m.ConsumeAndSetPasswordFunc(ctx, tokenID, userID, passwordHash)
	}
	return nil
}

// MockUserRepository implements UserRepository for testing
type MockUserRepository struct {
	GetByEmailFunc func(ctx context.Context, email string) (*models.User, error)
	GetByIDFunc    func(ctx context.Context, id string) (*models.User, error)
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	if m.GetByEmailFunc != nil {
		return m.GetByEmailFunc(ctx, email)
	}
	return nil, models.ErrNotFound
}

func (m *MockUserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, models.ErrNotFound
}

// MockEmailService implements EmailService for testing
type MockEmailService struct {
	SendResetEmailFunc func(ctx context.Context, params ResetEmailParams) error
}

func (m *MockEmailService) SendResetEmail(ctx context.Context, params ResetEmailParams) error {
	if m.SendResetEmailFunc != nil {
		return m.SendResetEmailFunc(ctx, params)
	}
	return nil
}

// MockAuditRecorder implements AuditRecorder for testing. Recorded entries
// accumulate in Entries unless RecordFunc is set.
type MockAuditRecorder struct {
	RecordFunc              func(ctx context.Context, entry *models.ResetAuditEntry) error
	CountRecentRequestsFunc func(ctx context.Context, email string, window time.Duration, now time.Time) (int, error)
	Entries                 []*models.ResetAuditEntry
}

func (m *MockAuditRecorder) Record(ctx context.Context, entry *models.ResetAuditEntry) error {
	if m.RecordFunc != nil {
		return m.RecordFunc(ctx, entry)
	}
	m.Entries = append(m.Entries, entry)
	return nil
}

func (m *MockAuditRecorder) CountRecentRequests(ctx context.Context, email string, window time.Duration, now time.Time) (int, error) {
	if m.CountRecentRequestsFunc != nil {
		return m.CountRecentRequestsFunc(ctx, email, window, now)
	}
	return 0, nil
}

// MockResetAuditRepository implements ResetAuditRepository for testing
type MockResetAuditRepository struct {
	CreateFunc             func(ctx context.Context, entry *models.ResetAuditEntry) (*models.ResetAuditEntry, error)
	CountRequestsSinceFunc func(ctx context.Context, email string, since time.Time) (int, error)
	ListByEmailFunc        func(ctx context.Context, email string, limit, offset int) ([]*models.ResetAuditEntry, error)
	CleanupFunc            func(ctx context.Context, olderThanDays int) (int64, error)
	CreatedEntries         []*models.ResetAuditEntry
}

func (m *MockResetAuditRepository) Create(ctx context.Context, entry *models.ResetAuditEntry) (*models.ResetAuditEntry, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, entry)
	}
	m.CreatedEntries = append(m.CreatedEntries, entry)
	return entry, nil
}

func (m *MockResetAuditRepository) CountRequestsSince(ctx context.Context, email string, since time.Time) (int, error) {
	if m.CountRequestsSinceFunc != nil {
		return m.CountRequestsSinceFunc(ctx, email, since)
	}
	return 0, nil
}

func (m *MockResetAuditRepository) ListByEmail(ctx context.Context, email string, limit, offset int) ([]*models.ResetAuditEntry, error) {
	if m.ListByEmailFunc != nil {
		return m.ListByEmailFunc(ctx, email, limit, offset)
	}
	return []*models.ResetAuditEntry{}, nil
}

func (m *MockResetAuditRepository) Cleanup(ctx context.Context, olderThanDays int) (int64, error) {
	if m.CleanupFunc != nil {
		return m.CleanupFunc(ctx, olderThanDays)
	}
	return 0, nil
}

// NewTestUser creates a user for testing
func NewTestUser(id, email, fullName string) *models.User {
	now := time.Now()
	return &models.User{
		ID:        id,
		Email:     email,
		FullName:  fullName,
		Role:      "merchant",
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// NewTestResetToken creates a usable token for testing
func NewTestResetToken(id, userID, email, tokenHash string, expiresAt time.Time) *models.ResetToken {
	return &models.ResetToken{
		ID:        id,
		UserID:    userID,
		Email:     email,
		TokenHash: tokenHash,
		ExpiresAt: expiresAt,
		CreatedAt: time.Now(),
	}
}

func timePtr(t time.Time) *time.Time {
	return &t
}
