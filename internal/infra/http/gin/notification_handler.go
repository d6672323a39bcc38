package ginserver

import (
	"errors"
	"log/slog"
	"net/http"

	gin "github.com/gin-gonic/gin"

	"tradepost/internal/app/dto"
	notifsvc "tradepost/internal/app/services/notification"
)

type NotificationHTTP interface {
	List(c *gin.Context)
	MarkAllRead(c *gin.Context)
}

type NotificationHandler struct {
	Service *notifsvc.Service
	Logger  *slog.Logger
}

// List handles GET /notifications/:userID.
func (h NotificationHandler) List(c *gin.Context) {
	principal, ok := requirePrincipal(c)
	if !ok {
		return
	}
	receiver := userIDParam(c, "userID")
	notifications, err := h.Service.ListForUser(c.Request.Context(), principal, receiver)
	if err != nil {
		h.respondNotificationError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.MapNotifications(notifications))
}

// MarkAllRead handles PATCH /notifications/:userID and returns the
// updated set.
func (h NotificationHandler) MarkAllRead(c *gin.Context) {
	principal, ok := requirePrincipal(c)
	if !ok {
		return
	}
	receiver := userIDParam(c, "userID")
	notifications, err := h.Service.MarkAllRead(c.Request.Context(), principal, receiver)
	if err != nil {
		h.respondNotificationError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.MapNotifications(notifications))
}

func (h NotificationHandler) respondNotificationError(c *gin.Context, err error) {
	if errors.Is(err, notifsvc.ErrForbidden) {
		c.JSON(http.StatusForbidden, gin.H{"error": "notifications not authorised"})
		return
	}
	if h.Logger != nil {
		h.Logger.Error("notification operation failed", "error", err)
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
}

var _ NotificationHTTP = (*NotificationHandler)(nil)
