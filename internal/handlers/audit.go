package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/ivoo-app/reset-service/internal/models"
	pkghttp "github.com/ivoo-app/reset-service/pkg/http"
)

// AuditServiceInterface defines the audit queries exposed over HTTP
type AuditServiceInterface interface {
	TrailForEmail(ctx context.Context, email string, limit, offset int) ([]*models.ResetAuditEntry, error)
}

// AuditHandler serves the reset audit trail to dashboard operators
type AuditHandler struct {
	service AuditServiceInterface
}

// NewAuditHandler creates a new AuditHandler
func NewAuditHandler(service AuditServiceInterface) *AuditHandler {
	return &AuditHandler{service: service}
}

// AuditTrailResponse wraps a page of audit entries
type AuditTrailResponse struct {
	Entries []*models.ResetAuditEntry `json:"entries"`
	Limit   int                       `json:"limit"`
	Offset  int                       `json:"offset"`
}

// GetTrail returns the reset audit trail for an email address
func (h *AuditHandler) GetTrail(w http.ResponseWriter, r *http.Request) {
	email := r.URL.Query().Get("email")
	if email == "" {
		pkghttp.WriteBadRequest(w, "Email is required")
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	entries, err := h.service.TrailForEmail(r.Context(), email, limit, offset)
	if err != nil {
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, AuditTrailResponse{
		Entries: entries,
		Limit:   limit,
		Offset:  offset,
	})
}
