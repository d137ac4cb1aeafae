package api

import (
	"net/http"
	"strconv"

	"github.com/bdticketpro/backoffice/internal/repository"
	"github.com/gin-gonic/gin"
)

type NotificationHandler struct {
	notifications repository.NotificationRepository
}

func NewNotificationHandler(notifications repository.NotificationRepository) *NotificationHandler {
	return &NotificationHandler{notifications: notifications}
}

func (h *NotificationHandler) Register(router *gin.RouterGroup) {
	router.GET("", h.listForUser)
}

func (h *NotificationHandler) listForUser(c *gin.Context) {
	userID, err := strconv.ParseInt(c.Query("user_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user_id is required"})
		return
	}
	includeRead := c.Query("include_read") == "true"

	list, err := h.notifications.ListForUser(c.Request.Context(), userID, includeRead)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}
