package integration

import (
	"context"
	"log/slog"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/ivoo-app/reset-service/internal/config"
	"github.com/ivoo-app/reset-service/internal/models"
	"github.com/ivoo-app/reset-service/internal/repositories"
	"github.com/ivoo-app/reset-service/internal/services"
	"github.com/ivoo-app/reset-service/pkg/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const integrationBaseURL = "https://admin.example.com"

func skipUnlessIntegration(t *testing.T) {
	t.Helper()
	if os.Getenv("INTEGRATION_TESTS") == "" {
		t.Skip("set INTEGRATION_TESTS=1 to run integration tests")
	}
}

// captureEmailService records the reset link instead of sending mail
type captureEmailService struct {
	lastLink string
	sent     int
}

func (c *captureEmailService) SendResetEmail(ctx context.Context, params services.ResetEmailParams) error {
	c.lastLink = params.ResetLink
	c.sent++
	return nil
}

func rawTokenFromLink(t *testing.T, link string) string {
	t.Helper()
	prefix := integrationBaseURL + "/reset-password?token="
	require.True(t, strings.HasPrefix(link, prefix))
	return strings.TrimPrefix(link, prefix)
}

type resetStack struct {
	db      *TestDB
	tokens  *repositories.ResetTokenRepository
	users   *repositories.UserRepository
	audit   *repositories.ResetAuditRepository
	emailer *captureEmailService
	service *services.PasswordResetService
}

func setupResetStack(t *testing.T, cfg config.ResetConfig) *resetStack {
	t.Helper()
	ctx := context.Background()

	db, err := SetupTestDatabase(ctx)
	require.NoError(t, err)
	t.Cleanup(func() { db.Teardown(context.Background()) })

	logger := slog.Default()
	tokens := repositories.NewResetTokenRepository(db.DB)
	users := repositories.NewUserRepository(db.DB)
	audit := repositories.NewResetAuditRepository(db.DB)
	emailer := &captureEmailService{}
	auditService := services.NewAuditService(audit, logger)
	service := services.NewPasswordResetService(tokens, users, emailer, auditService, logger, cfg, integrationBaseURL)

	return &resetStack{db: db, tokens: tokens, users: users, audit: audit, emailer: emailer, service: service}
}

func defaultResetConfig() config.ResetConfig {
	return config.ResetConfig{
		TokenExpiry:        30 * time.Minute,
		RateLimitWindow:    60 * time.Minute,
		RateLimitMax:       5,
		PasswordMinLen:     8,
		PasswordMaxLen:     128,
		SweepInterval:      time.Hour,
		AuditRetentionDays: 90,
	}
}

func TestResetFlow_EndToEnd(t *testing.T) {
	skipUnlessIntegration(t)
	ctx := context.Background()
	stack := setupResetStack(t, defaultResetConfig())

	user, err := SeedUser(ctx, stack.db.Pool, "merchant@example.com", "Ada Merchant", "old-password-1")
	require.NoError(t, err)

	result, err := stack.service.RequestReset(ctx, "merchant@example.com", "203.0.113.9", "integration-test")
	require.NoError(t, err)
	assert.Equal(t, services.GenericRequestMessage, result.Message)
	require.Equal(t, 1, stack.emailer.sent)

	rawToken := rawTokenFromLink(t, stack.emailer.lastLink)

	// The raw token never appears in the database
	var count int
	err = stack.db.Pool.QueryRow(ctx, "SELECT COUNT(*) FROM password_reset_tokens WHERE token_hash = $1", rawToken).Scan(&count)
	require.NoError(t, err)
	assert.Zero(t, count)

	validation, err := stack.service.Validate(ctx, rawToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID, validation.UserID)
	assert.Equal(t, "Ada Merchant", validation.FullName)

	consumeResult, err := stack.service.Consume(ctx, rawToken, "brand-new-password", "brand-new-password", "203.0.113.9", "integration-test")
	require.NoError(t, err)
	assert.Equal(t, "/login", consumeResult.RedirectTo)

	// The credential changed and the old one no longer matches
	updated, err := stack.users.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.NoError(t, auth.ComparePassword(updated.PasswordHash, "brand-new-password"))
	assert.Error(t, auth.ComparePassword(updated.PasswordHash, "old-password-1"))

	// Single use: the same link is dead
	_, err = stack.service.Validate(ctx, rawToken)
	assert.ErrorIs(t, err, models.ErrInvalidToken)
	_, err = stack.service.Consume(ctx, rawToken, "another-password", "another-password", "", "")
	assert.ErrorIs(t, err, models.ErrInvalidToken)

	// Audit trail has the request and the completed reset
	entries, err := stack.audit.ListByEmail(ctx, "merchant@example.com", 10, 0)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, models.AuditActionConsume, entries[0].Action)
	assert.Equal(t, models.AuditActionRequest, entries[1].Action)
}

func TestResetFlow_RateLimit(t *testing.T) {
	skipUnlessIntegration(t)
	ctx := context.Background()
	stack := setupResetStack(t, defaultResetConfig())

	_, err := SeedUser(ctx, stack.db.Pool, "merchant@example.com", "Ada Merchant", "old-password-1")
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		_, err := stack.service.RequestReset(ctx, "merchant@example.com", "", "")
		require.NoError(t, err, "request %d should be allowed", i+1)
	}

	_, err = stack.service.RequestReset(ctx, "merchant@example.com", "", "")
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrRateLimited)

	var rateErr *services.RateLimitError
	require.ErrorAs(t, err, &rateErr)
	assert.Greater(t, rateErr.WaitMinutes, 0)
}

func TestResetFlow_ExpiredTokenTombstonedInStore(t *testing.T) {
	skipUnlessIntegration(t)
	ctx := context.Background()
	stack := setupResetStack(t, defaultResetConfig())

	user, err := SeedUser(ctx, stack.db.Pool, "merchant@example.com", "Ada Merchant", "old-password-1")
	require.NoError(t, err)

	rawToken, err := SeedResetToken(ctx, stack.db.Pool, user.ID, user.Email, time.Now().Add(-1*time.Minute))
	require.NoError(t, err)

	_, err = stack.service.Validate(ctx, rawToken)
	assert.ErrorIs(t, err, models.ErrInvalidToken)

	// The expiry observation is persisted, not just reported
	var consumedAt *time.Time
	err = stack.db.Pool.QueryRow(ctx,
		"SELECT consumed_at FROM password_reset_tokens WHERE user_id = $1", user.ID,
	).Scan(&consumedAt)
	require.NoError(t, err)
	assert.NotNil(t, consumedAt)
}

func TestResetFlow_NewRequestInvalidatesOldToken(t *testing.T) {
	skipUnlessIntegration(t)
	ctx := context.Background()
	stack := setupResetStack(t, defaultResetConfig())

	_, err := SeedUser(ctx, stack.db.Pool, "merchant@example.com", "Ada Merchant", "old-password-1")
	require.NoError(t, err)

	_, err = stack.service.RequestReset(ctx, "merchant@example.com", "", "")
	require.NoError(t, err)
	firstToken := rawTokenFromLink(t, stack.emailer.lastLink)

	_, err = stack.service.RequestReset(ctx, "merchant@example.com", "", "")
	require.NoError(t, err)
	secondToken := rawTokenFromLink(t, stack.emailer.lastLink)
	require.NotEqual(t, firstToken, secondToken)

	_, err = stack.service.Validate(ctx, firstToken)
	assert.ErrorIs(t, err, models.ErrInvalidToken)

	_, err = stack.service.Validate(ctx, secondToken)
	assert.NoError(t, err)
}
