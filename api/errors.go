package api

import (
	"errors"
	"net/http"

	"github.com/bdticketpro/backoffice/internal/domain"
	"github.com/gin-gonic/gin"
)

// writeError maps the domain error taxonomy onto HTTP statuses so the UI can
// render precise messaging. Infrastructure failures collapse into a generic
// retryable 503.
func writeError(c *gin.Context, err error) {
	var vErr *domain.ValidationError
	if errors.As(err, &vErr) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "validation failed", "fields": vErr.Fields})
		return
	}

	switch {
	case errors.Is(err, domain.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, domain.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": "this ticket was just booked by someone else"})
	case errors.Is(err, domain.ErrExpired):
		c.JSON(http.StatusGone, gin.H{"error": "booking hold has expired, please rebook"})
	case errors.Is(err, domain.ErrInvalidTransition):
		c.JSON(http.StatusConflict, gin.H{"error": "booking is no longer pending"})
	case errors.Is(err, domain.ErrUnavailable):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "service unavailable, try again"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

// viewerRole resolves the caller's role. Authentication itself is handled
// upstream; the proxy forwards the resolved role.
func viewerRole(c *gin.Context) domain.Role {
	switch domain.Role(c.GetHeader("X-User-Role")) {
	case domain.RoleAdmin:
		return domain.RoleAdmin
	case domain.RoleManager:
		return domain.RoleManager
	default:
		return domain.RoleStaff
	}
}
