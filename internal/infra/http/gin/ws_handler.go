package ginserver

import (
	"log/slog"

	gin "github.com/gin-gonic/gin"

	"tradepost/internal/infra/realtime"
)

type RealtimeHTTP interface {
	Connect(c *gin.Context)
}

// RealtimeHandler upgrades authenticated clients to a websocket session
// and hands them to the gateway for the lifetime of the connection.
type RealtimeHandler struct {
	Gateway *realtime.Gateway
	Logger  *slog.Logger
}

func (h RealtimeHandler) Connect(c *gin.Context) {
	principal, ok := requirePrincipal(c)
	if !ok {
		return
	}
	if err := h.Gateway.Serve(c.Writer, c.Request, principal.ID); err != nil && h.Logger != nil {
		h.Logger.Debug("websocket session ended with error", "user_id", principal.ID, "error", err)
	}
}

var _ RealtimeHTTP = (*RealtimeHandler)(nil)
