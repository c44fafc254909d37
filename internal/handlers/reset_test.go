package handlers_test

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ivoo-app/reset-service/internal/handlers"
	"github.com/ivoo-app/reset-service/internal/models"
	"github.com/ivoo-app/reset-service/internal/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestForgotPassword_Success(t *testing.T) {
	mockReset := &handlers.MockResetService{
		RequestResetFunc: func(ctx context.Context, email, ipAddress, userAgent string) (*services.RequestResetResult, error) {
			return &services.RequestResetResult{Message: services.GenericRequestMessage}, nil
		},
	}

	handler := handlers.NewResetHandler(mockReset, nil)
	req := handlers.NewTestRequest(t, "POST", "/auth/forgot-password", handlers.ForgotPasswordRequest{
		Email: "user@example.com",
	})

	w := httptest.NewRecorder()
	handler.ForgotPassword(w, req)

	var resp services.RequestResetResult
	handlers.AssertJSONResponse(t, w, 200, &resp)
	assert.Equal(t, services.GenericRequestMessage, resp.Message)
}

func TestForgotPassword_UnknownEmail_SameResponse(t *testing.T) {
	// The handler cannot tell the hit and miss paths apart; both arrive as
	// the same service result.
	mockReset := &handlers.MockResetService{}

	handler := handlers.NewResetHandler(mockReset, nil)
	req := handlers.NewTestRequest(t, "POST", "/auth/forgot-password", handlers.ForgotPasswordRequest{
		Email: "ghost@example.com",
	})

	w := httptest.NewRecorder()
	handler.ForgotPassword(w, req)

	var resp services.RequestResetResult
	handlers.AssertJSONResponse(t, w, 200, &resp)
	assert.Equal(t, services.GenericRequestMessage, resp.Message)
}

func TestForgotPassword_MissingEmail(t *testing.T) {
	handler := handlers.NewResetHandler(&handlers.MockResetService{}, nil)
	req := handlers.NewTestRequest(t, "POST", "/auth/forgot-password", map[string]string{})

	w := httptest.NewRecorder()
	handler.ForgotPassword(w, req)

	handlers.AssertErrorResponse(t, w, 400, "bad_request")
}

func TestForgotPassword_RateLimited(t *testing.T) {
	mockReset := &handlers.MockResetService{
		RequestResetFunc: func(ctx context.Context, email, ipAddress, userAgent string) (*services.RequestResetResult, error) {
			return nil, &services.RateLimitError{WaitMinutes: 12}
		},
	}

	handler := handlers.NewResetHandler(mockReset, nil)
	req := handlers.NewTestRequest(t, "POST", "/auth/forgot-password", handlers.ForgotPasswordRequest{
		Email: "user@example.com",
	})

	w := httptest.NewRecorder()
	handler.ForgotPassword(w, req)

	assert.Equal(t, 429, w.Code)

	var resp handlers.RateLimitedResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "rate_limited", resp.Error)
	assert.Equal(t, 12, resp.WaitMinutes)
}

func TestValidateResetToken_MissingToken(t *testing.T) {
	handler := handlers.NewResetHandler(&handlers.MockResetService{}, nil)
	req := handlers.NewTestRequest(t, "GET", "/auth/reset-password", nil)

	w := httptest.NewRecorder()
	handler.ValidateResetToken(w, req)

	handlers.AssertErrorResponse(t, w, 400, "bad_request")
}

func TestValidateResetToken_Valid(t *testing.T) {
	expiresAt := time.Now().Add(20 * time.Minute).UTC()
	mockReset := &handlers.MockResetService{
		ValidateFunc: func(ctx context.Context, rawToken string) (*services.TokenValidation, error) {
			return &services.TokenValidation{
				UserID:    "user123",
				Email:     "user@example.com",
				FullName:  "Ada Merchant",
				ExpiresAt: expiresAt,
			}, nil
		},
	}

	handler := handlers.NewResetHandler(mockReset, nil)
	req := handlers.NewTestRequest(t, "GET", "/auth/reset-password?token=raw_token", nil)

	w := httptest.NewRecorder()
	handler.ValidateResetToken(w, req)

	var resp handlers.ValidateTokenResponse
	handlers.AssertJSONResponse(t, w, 200, &resp)
	assert.True(t, resp.Valid)
	assert.Equal(t, "user@example.com", resp.Email)
	assert.Equal(t, "Ada Merchant", resp.FullName)
}

func TestValidateResetToken_Invalid(t *testing.T) {
	handler := handlers.NewResetHandler(&handlers.MockResetService{}, nil)
	req := handlers.NewTestRequest(t, "GET", "/auth/reset-password?token=dead_token", nil)

	w := httptest.NewRecorder()
	handler.ValidateResetToken(w, req)

	var resp handlers.ValidateTokenResponse
	handlers.AssertJSONResponse(t, w, 200, &resp)
	assert.False(t, resp.Valid)
	assert.Empty(t, resp.Email)
}

func TestResetPassword_Success(t *testing.T) {
	mockReset := &handlers.MockResetService{
		ConsumeFunc: func(ctx context.Context, rawToken, newPassword, confirmPassword, ipAddress, userAgent string) (*services.ConsumeResult, error) {
			return &services.ConsumeResult{
				Message:    "Your password has been reset. You can now sign in with your new password.",
				RedirectTo: "/login",
			}, nil
		},
	}

	handler := handlers.NewResetHandler(mockReset, nil)
	req := handlers.NewTestRequest(t, "POST", "/auth/reset-password", handlers.ResetPasswordRequest{
		Token:           "raw_token",
		Password:        "new-password-1",
		ConfirmPassword: "new-password-1",
	})

	w := httptest.NewRecorder()
	handler.ResetPassword(w, req)

	var resp services.ConsumeResult
	handlers.AssertJSONResponse(t, w, 200, &resp)
	assert.Equal(t, "/login", resp.RedirectTo)
}

func TestResetPassword_ErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		serviceErr error
		wantStatus int
		wantCode   string
	}{
		{"invalid token", models.ErrInvalidToken, 401, "unauthorized"},
		{"mismatch", models.ErrPasswordMismatch, 400, "bad_request"},
		{"policy violation", models.ErrPasswordPolicy, 400, "bad_request"},
		{"missing fields", models.ErrBadRequest, 400, "bad_request"},
		{"internal failure", models.ErrInternalServer, 500, "internal_error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockReset := &handlers.MockResetService{
				ConsumeFunc: func(ctx context.Context, rawToken, newPassword, confirmPassword, ipAddress, userAgent string) (*services.ConsumeResult, error) {
					return nil, tt.serviceErr
				},
			}

			handler := handlers.NewResetHandler(mockReset, nil)
			req := handlers.NewTestRequest(t, "POST", "/auth/reset-password", handlers.ResetPasswordRequest{
				Token:           "raw_token",
				Password:        "new-password-1",
				ConfirmPassword: "new-password-1",
			})

			w := httptest.NewRecorder()
			handler.ResetPassword(w, req)

			handlers.AssertErrorResponse(t, w, tt.wantStatus, tt.wantCode)
		})
	}
}

func TestGetTrail_RequiresEmail(t *testing.T) {
	handler := handlers.NewAuditHandler(&handlers.MockAuditService{})
	req := handlers.NewTestRequest(t, "GET", "/admin/reset-audit", nil)

	w := httptest.NewRecorder()
	handler.GetTrail(w, req)

	handlers.AssertErrorResponse(t, w, 400, "bad_request")
}

func TestGetTrail_ReturnsEntries(t *testing.T) {
	userID := "user123"
	mockAudit := &handlers.MockAuditService{
		TrailForEmailFunc: func(ctx context.Context, email string, limit, offset int) ([]*models.ResetAuditEntry, error) {
			return []*models.ResetAuditEntry{
				{ID: "audit_1", UserID: &userID, Email: email, Action: models.AuditActionRequest, Status: models.AuditStatusSuccess},
			}, nil
		},
	}

	handler := handlers.NewAuditHandler(mockAudit)
	req := handlers.NewTestRequest(t, "GET", "/admin/reset-audit?email=user@example.com", nil)

	w := httptest.NewRecorder()
	handler.GetTrail(w, req)

	var resp handlers.AuditTrailResponse
	handlers.AssertJSONResponse(t, w, 200, &resp)
	require.Len(t, resp.Entries, 1)
	assert.Equal(t, "user@example.com", resp.Entries[0].Email)
	assert.Equal(t, 50, resp.Limit)
}
