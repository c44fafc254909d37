package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ivoo-app/reset-service/internal/models"
	"github.com/ivoo-app/reset-service/internal/services"
	pkghttp "github.com/ivoo-app/reset-service/pkg/http"
	"github.com/stretchr/testify/assert"
)

// NewTestRequest creates an HTTP request with JSON body for testing
func NewTestRequest(t *testing.T, method, url string, body interface{}) *http.Request {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("failed to encode request body: %v", err)
		}
	}
	req := httptest.NewRequest(method, url, &buf)
	req.Header.Set("Content-Type", "application/json")
	return req
}

// AssertJSONResponse checks that response has correct status and decodes JSON body
func AssertJSONResponse(t *testing.T, w *httptest.ResponseRecorder, expectedStatus int, target interface{}) {
	assert.Equal(t, expectedStatus, w.Code, "Response status mismatch")

	contentType := w.Header().Get("Content-Type")
	assert.Equal(t, "application/json", contentType, "Content-Type should be application/json")

	if target != nil {
		err := json.Unmarshal(w.Body.Bytes(), target)
		assert.NoError(t, err, "Failed to decode response JSON")
	}
}

// AssertErrorResponse checks that response is a valid error response
func AssertErrorResponse(t *testing.T, w *httptest.ResponseRecorder, expectedStatus int, expectedError string) {
	assert.Equal(t, expectedStatus, w.Code, "Response status mismatch")

	var resp pkghttp.ErrorResponse
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	assert.NoError(t, err, "Failed to decode error response")
	assert.Equal(t, expectedError, resp.Error, "Error code mismatch")
	assert.NotEmpty(t, resp.Message, "Error message should not be empty")
}

// MockResetService implements ResetServiceInterface for testing
type MockResetService struct {
	RequestResetFunc func(ctx context.Context, email, ipAddress, userAgent string) (*services.RequestResetResult, error)
	ValidateFunc     func(ctx context.Context, rawToken string) (*services.TokenValidation, error)
	ConsumeFunc      func(ctx context.Context, rawToken, newPassword, confirmPassword, ipAddress, userAgent string) (*services.ConsumeResult, error)
}

func (m *MockResetService) RequestReset(ctx context.Context, email, ipAddress, userAgent string) (*services.RequestResetResult, error) {
	if m.RequestResetFunc == nil {
		return &services.RequestResetResult{Message: services.GenericRequestMessage}, nil
	}
	return m.RequestResetFunc(ctx, email, ipAddress, userAgent)
}

func (m *MockResetService) Validate(ctx context.Context, rawToken string) (*services.TokenValidation, error) {
	if m.ValidateFunc == nil {
		return nil, models.ErrInvalidToken
	}
	return m.ValidateFunc(ctx, rawToken)
}

func (m *MockResetService) Consume(ctx context.Context, rawToken, newPassword, confirmPassword, ipAddress, userAgent string) (*services.ConsumeResult, error) {
	if m.ConsumeFunc == nil {
		return nil, models.ErrInvalidToken
	}
	return m.ConsumeFunc(ctx, rawToken, newPassword, confirmPassword, ipAddress, userAgent)
}

// MockAuditService implements AuditServiceInterface for testing
type MockAuditService struct {
	TrailForEmailFunc func(ctx context.Context, email string, limit, offset int) ([]*models.ResetAuditEntry, error)
}

func (m *MockAuditService) TrailForEmail(ctx context.Context, email string, limit, offset int) ([]*models.ResetAuditEntry, error) {
	if m.TrailForEmailFunc == nil {
		return []*models.ResetAuditEntry{}, nil
	}
	return m.TrailForEmailFunc(ctx, email, limit, offset)
}
