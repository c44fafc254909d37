package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/ivoo-app/reset-service/internal/models"
	"github.com/ivoo-app/reset-service/internal/services"
	pkghttp "github.com/ivoo-app/reset-service/pkg/http"
)

// ResetServiceInterface defines the interface for the reset protocol logic
type ResetServiceInterface interface {
	RequestReset(ctx context.Context, email, ipAddress, userAgent string) (*services.RequestResetResult, error)
	Validate(ctx context.Context, rawToken string) (*services.TokenValidation, error)
	Consume(ctx context.Context, rawToken, newPassword, confirmPassword, ipAddress, userAgent string) (*services.ConsumeResult, error)
}

// ResetHandler handles password reset HTTP requests
type ResetHandler struct {
	service  ResetServiceInterface
	ipConfig *pkghttp.IPConfig
}

// NewResetHandler creates a new ResetHandler
func NewResetHandler(service ResetServiceInterface, ipConfig *pkghttp.IPConfig) *ResetHandler {
	return &ResetHandler{
		service:  service,
		ipConfig: ipConfig,
	}
}

// Request DTOs

// ForgotPasswordRequest represents the request body for issuance
type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// ResetPasswordRequest represents the request body for consuming a token.
// Presence checks are deliberately left to the service so that failures
// surface in a fixed order.
type ResetPasswordRequest struct {
	Token           string `json:"token"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
}

// ValidateTokenResponse represents the response for a token validity probe
type ValidateTokenResponse struct {
	Valid     bool       `json:"valid"`
	Email     string     `json:"email,omitempty"`
	FullName  string     `json:"full_name,omitempty"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

// RateLimitedResponse tells the caller how long to back off
type RateLimitedResponse struct {
	Error       string `json:"error"`
	Message     string `json:"message"`
	WaitMinutes int    `json:"wait_minutes"`
}

// ForgotPassword handles a reset issuance request
func (h *ResetHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req ForgotPasswordRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	ipAddress := pkghttp.ExtractClientIP(r, h.ipConfig)
	userAgent := r.Header.Get("User-Agent")

	result, err := h.service.RequestReset(r.Context(), req.Email, ipAddress, userAgent)
	if err != nil {
		var rateErr *services.RateLimitError
		switch {
		case errors.As(err, &rateErr):
			pkghttp.WriteJSON(w, http.StatusTooManyRequests, RateLimitedResponse{
				Error:       "rate_limited",
				Message:     "Too many password reset requests. Please try again later.",
				WaitMinutes: rateErr.WaitMinutes,
			})
		case errors.Is(err, models.ErrBadRequest):
			pkghttp.WriteBadRequest(w, "A valid email address is required")
		default:
			pkghttp.WriteInternalError(w, "Internal server error")
		}
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, result)
}

// ValidateResetToken reports whether the token in the query string is still
// usable. An unusable token is a 200 with valid=false; the caller cannot
// tell never-issued, expired, and consumed apart.
func (h *ResetHandler) ValidateResetToken(w http.ResponseWriter, r *http.Request) {
	rawToken := r.URL.Query().Get("token")
	if rawToken == "" {
		pkghttp.WriteBadRequest(w, "Token is required")
		return
	}

	validation, err := h.service.Validate(r.Context(), rawToken)
	if err != nil {
		if errors.Is(err, models.ErrInvalidToken) {
			pkghttp.WriteJSON(w, http.StatusOK, ValidateTokenResponse{Valid: false})
			return
		}
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, ValidateTokenResponse{
		Valid:     true,
		Email:     validation.Email,
		FullName:  validation.FullName,
		ExpiresAt: &validation.ExpiresAt,
	})
}

// ResetPassword consumes a token and applies the new credential
func (h *ResetHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req ResetPasswordRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	ipAddress := pkghttp.ExtractClientIP(r, h.ipConfig)
	userAgent := r.Header.Get("User-Agent")

	result, err := h.service.Consume(r.Context(), req.Token, req.Password, req.ConfirmPassword, ipAddress, userAgent)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrInvalidToken):
			pkghttp.WriteUnauthorized(w, "Reset link is invalid, expired, or already used")
		case errors.Is(err, models.ErrPasswordMismatch):
			pkghttp.WriteBadRequest(w, "Passwords do not match")
		case errors.Is(err, models.ErrPasswordPolicy):
			pkghttp.WriteBadRequest(w, "Password does not meet the length requirements")
		case errors.Is(err, models.ErrBadRequest):
			pkghttp.WriteBadRequest(w, "Password and confirmation are required")
		default:
			pkghttp.WriteInternalError(w, "Internal server error")
		}
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, result)
}
