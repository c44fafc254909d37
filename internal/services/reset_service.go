package services

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/ivoo-app/reset-service/internal/config"
	"github.com/ivoo-app/reset-service/internal/models"
	"github.com/ivoo-app/reset-service/pkg/auth"
	"github.com/ivoo-app/reset-service/pkg/logger"
)

// GenericRequestMessage is returned for every well-formed issuance request,
// whether or not the email maps to an account.
const GenericRequestMessage = "If an account with that email exists, a password reset link has been sent."

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// ResetTokenRepository defines the interface for reset token persistence
type ResetTokenRepository interface {
	Create(ctx context.Context, token *models.ResetToken) (*models.ResetToken, error)
	GetActiveByTokenHash(ctx context.Context, tokenHash string) (*models.ResetToken, error)
	Tombstone(ctx context.Context, id string) error
	InvalidateActiveByUserID(ctx context.Context, userID string) (int64, error)
	ConsumeAndSetPassword(ctx context.Context, tokenID, userID, passwordHash string) error
}

// UserRepository defines the read-only view of the identity store the reset
// flow needs
type UserRepository interface {
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
}

// AuditRecorder defines the audit operations the reset flow depends on
type AuditRecorder interface {
	Record(ctx context.Context, entry *models.ResetAuditEntry) error
	CountRecentRequests(ctx context.Context, email string, window time.Duration, now time.Time) (int, error)
}

// RateLimitError is returned when an email has exhausted its issuance
// allowance. It is the only failure the issuance endpoint is allowed to
// surface distinctly.
type RateLimitError struct {
	WaitMinutes int
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("too many reset requests, try again in about %d minutes", e.WaitMinutes)
}

func (e *RateLimitError) Is(target error) bool {
	return target == models.ErrRateLimited
}

// RequestResetResult is the response body for an issuance request
type RequestResetResult struct {
	Message string `json:"message"`
}

// TokenValidation describes a token that is currently usable
type TokenValidation struct {
	UserID    string    `json:"user_id"`
	Email     string    `json:"email"`
	FullName  string    `json:"full_name"`
	ExpiresAt time.Time `json:"expires_at"`
}

// ConsumeResult is the response body for a successful credential update
type ConsumeResult struct {
	Message    string `json:"message"`
	RedirectTo string `json:"redirect_to"`
}

// PasswordResetService implements the reset protocol: issuance, validation,
// and single-use consumption of reset tokens.
type PasswordResetService struct {
	tokens  ResetTokenRepository
	users   UserRepository
	email   EmailService
	audit   AuditRecorder
	logger  *slog.Logger
	cfg     config.ResetConfig
	baseURL string
	now     func() time.Time
}

// NewPasswordResetService creates a new PasswordResetService
func NewPasswordResetService(
	tokens ResetTokenRepository,
	users UserRepository,
	email EmailService,
	audit AuditRecorder,
	log *slog.Logger,
	cfg config.ResetConfig,
	baseURL string,
) *PasswordResetService {
	return &PasswordResetService{
		tokens:  tokens,
		users:   users,
		email:   email,
		audit:   audit,
		logger:  log,
		cfg:     cfg,
		baseURL: baseURL,
		now:     time.Now,
	}
}

// RequestReset handles an issuance request. Apart from malformed input and
// rate limiting, the outcome is always the same generic acknowledgement:
// whether the email exists, and whether the mail went out, must not be
// observable to the caller.
func (s *PasswordResetService) RequestReset(ctx context.Context, email, ipAddress, userAgent string) (*RequestResetResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || !emailPattern.MatchString(email) {
		return nil, models.ErrBadRequest
	}

	now := s.now()

	count, err := s.audit.CountRecentRequests(ctx, email, s.cfg.RateLimitWindow, now)
	if err != nil {
		// Fail open: a broken counter should not lock every user out of
		// account recovery.
		s.logger.ErrorContext(ctx, "failed to count recent reset requests",
			slog.String("email", logger.SanitizedEmail(email)),
			slog.Any("error", err))
		count = 0
	}

	if count >= s.cfg.RateLimitMax {
		wait := waitMinutes(s.cfg.RateLimitWindow, count)
		s.logger.WarnContext(ctx, "reset request rate limited",
			slog.String("email", logger.SanitizedEmail(email)),
			slog.Int("recent_requests", count))
		return nil, &RateLimitError{WaitMinutes: wait}
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			s.recordRequestAudit(ctx, nil, email, models.AuditStatusFailed, strPtr("no account for email"), ipAddress, userAgent)
			return &RequestResetResult{Message: GenericRequestMessage}, nil
		}
		s.logger.ErrorContext(ctx, "failed to look up user for reset",
			slog.String("email", logger.SanitizedEmail(email)),
			slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	rawToken, tokenHash, err := generateToken()
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to generate reset token", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	// Only the most recent link should work; older outstanding tokens are
	// tombstoned. A failure here is not fatal since the new token still
	// supersedes them operationally.
	if invalidated, err := s.tokens.InvalidateActiveByUserID(ctx, user.ID); err != nil {
		s.logger.WarnContext(ctx, "failed to invalidate prior reset tokens",
			slog.String("user_id", user.ID),
			slog.Any("error", err))
	} else if invalidated > 0 {
		s.logger.InfoContext(ctx, "invalidated prior reset tokens",
			slog.String("user_id", user.ID),
			slog.Int64("count", invalidated))
	}

	expiresAt := now.Add(s.cfg.TokenExpiry)
	token := &models.ResetToken{
		UserID:    user.ID,
		Email:     email,
		TokenHash: tokenHash,
		ExpiresAt: expiresAt,
		IPAddress: optionalStr(ipAddress),
		UserAgent: optionalStr(userAgent),
		CreatedAt: now,
	}

	if _, err := s.tokens.Create(ctx, token); err != nil {
		s.logger.ErrorContext(ctx, "failed to store reset token",
			slog.String("user_id", user.ID),
			slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	params := ResetEmailParams{
		RecipientEmail:   email,
		RecipientName:    user.FullName,
		ResetLink:        fmt.Sprintf("%s/reset-password?token=%s", s.baseURL, rawToken),
		ExpiresInMinutes: int(s.cfg.TokenExpiry.Minutes()),
	}

	if err := s.email.SendResetEmail(ctx, params); err != nil {
		// The caller still gets the generic acknowledgement; the audit trail
		// records what actually happened.
		s.recordRequestAudit(ctx, &user.ID, email, models.AuditStatusFailed, strPtr("email delivery failed"), ipAddress, userAgent)
		return &RequestResetResult{Message: GenericRequestMessage}, nil
	}

	s.recordRequestAudit(ctx, &user.ID, email, models.AuditStatusSuccess, nil, ipAddress, userAgent)

	return &RequestResetResult{Message: GenericRequestMessage}, nil
}

// Validate checks whether a raw token is currently usable and, if so, returns
// the account details a reset form needs to render.
func (s *PasswordResetService) Validate(ctx context.Context, rawToken string) (*TokenValidation, error) {
	if rawToken == "" {
		return nil, models.ErrInvalidToken
	}

	token, err := s.resolveToken(ctx, rawToken)
	if err != nil {
		return nil, err
	}

	user, err := s.users.GetByID(ctx, token.UserID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			// Account deleted after issuance; the token is worthless.
			return nil, models.ErrInvalidToken
		}
		s.logger.ErrorContext(ctx, "failed to load user for token validation",
			slog.String("user_id", token.UserID),
			slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	return &TokenValidation{
		UserID:    user.ID,
		Email:     token.Email,
		FullName:  user.FullName,
		ExpiresAt: token.ExpiresAt,
	}, nil
}

// Consume exchanges a usable token plus a new password for a credential
// update. Input checks run in a fixed order (presence, match, length) before
// any database work, and the token is re-resolved here regardless of any
// earlier Validate call.
func (s *PasswordResetService) Consume(ctx context.Context, rawToken, newPassword, confirmPassword, ipAddress, userAgent string) (*ConsumeResult, error) {
	if rawToken == "" {
		return nil, models.ErrInvalidToken
	}
	if newPassword == "" || confirmPassword == "" {
		return nil, models.ErrBadRequest
	}
	if newPassword != confirmPassword {
		return nil, models.ErrPasswordMismatch
	}
	if err := auth.ValidatePasswordLength(newPassword, s.cfg.PasswordMinLen, s.cfg.PasswordMaxLen); err != nil {
		return nil, models.ErrPasswordPolicy
	}

	token, err := s.resolveToken(ctx, rawToken)
	if err != nil {
		return nil, err
	}

	passwordHash, err := auth.HashPassword(newPassword)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to hash new password", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	if err := s.tokens.ConsumeAndSetPassword(ctx, token.ID, token.UserID, passwordHash); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			// Lost a race with another consume of the same token.
			return nil, models.ErrInvalidToken
		}
		s.logger.ErrorContext(ctx, "failed to apply credential update",
			slog.String("user_id", token.UserID),
			slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	entry := &models.ResetAuditEntry{
		UserID:    &token.UserID,
		Email:     token.Email,
		Action:    models.AuditActionConsume,
		Status:    models.AuditStatusSuccess,
		IPAddress: optionalStr(ipAddress),
		UserAgent: optionalStr(userAgent),
	}
	_ = s.audit.Record(ctx, entry)

	return &ConsumeResult{
		Message:    "Your password has been reset. You can now sign in with your new password.",
		RedirectTo: "/login",
	}, nil
}

// resolveToken maps a raw token to its live record. Expired tokens found here
// are tombstoned immediately so a later clock rollback cannot revive them.
func (s *PasswordResetService) resolveToken(ctx context.Context, rawToken string) (*models.ResetToken, error) {
	tokenHash := digest(rawToken)

	token, err := s.tokens.GetActiveByTokenHash(ctx, tokenHash)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrInvalidToken
		}
		s.logger.ErrorContext(ctx, "failed to look up reset token", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	if token.IsExpiredAt(s.now()) {
		if err := s.tokens.Tombstone(ctx, token.ID); err != nil && !errors.Is(err, models.ErrNotFound) {
			s.logger.ErrorContext(ctx, "failed to tombstone expired reset token",
				slog.String("token_id", token.ID),
				slog.Any("error", err))
		}
		return nil, models.ErrInvalidToken
	}

	return token, nil
}

func (s *PasswordResetService) recordRequestAudit(ctx context.Context, userID *string, email, status string, reason *string, ipAddress, userAgent string) {
	entry := &models.ResetAuditEntry{
		UserID:       userID,
		Email:        email,
		Action:       models.AuditActionRequest,
		Status:       status,
		ErrorMessage: reason,
		IPAddress:    optionalStr(ipAddress),
		UserAgent:    optionalStr(userAgent),
	}
	_ = s.audit.Record(ctx, entry)
}

// generateToken returns a fresh raw token and its hex-encoded SHA-256 digest.
// Only the digest may be persisted or logged.
func generateToken() (rawToken, tokenHash string, err error) {
	tokenBytes := make([]byte, 32)
	if _, err := rand.Read(tokenBytes); err != nil {
		return "", "", fmt.Errorf("failed to generate token: %w", err)
	}

	rawToken = base64.URLEncoding.EncodeToString(tokenBytes)
	return rawToken, digest(rawToken), nil
}

func digest(rawToken string) string {
	hash := sha256.Sum256([]byte(rawToken))
	return hex.EncodeToString(hash[:])
}

// waitMinutes estimates how long the caller should back off, shrinking as the
// window drains.
func waitMinutes(window time.Duration, count int) int {
	minutes := int(window.Minutes())
	if count <= 0 {
		return minutes
	}
	wait := (minutes + count - 1) / count
	if wait < 1 {
		wait = 1
	}
	return wait
}

func strPtr(s string) *string {
	return &s
}

func optionalStr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
