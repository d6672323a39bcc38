package ginserver

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	gin "github.com/gin-gonic/gin"

	"tradepost/internal/app/identity"
	authsvc "tradepost/internal/app/services/auth"
	domainauth "tradepost/internal/domain/auth"
	domainuser "tradepost/internal/domain/user"
)

const principalContextKey = "tradepost.principal"

type AuthMiddleware struct {
	Service *authsvc.Service
	Logger  *slog.Logger
}

// Handle resolves a bearer token into a typed principal and stores it in
// the gin context. Requests without a valid token continue anonymously;
// individual handlers decide whether auth is required.
func (m AuthMiddleware) Handle(c *gin.Context) {
	token := extractBearerToken(c.GetHeader("Authorization"))
	if token == "" {
		// Websocket clients cannot set headers from the browser.
		token = strings.TrimSpace(c.Query("token"))
	}
	if token == "" || m.Service == nil {
		c.Next()
		return
	}
	resolved, err := m.Service.ResolveToken(c.Request.Context(), token)
	if err != nil {
		if !errors.Is(err, domainauth.ErrSessionNotFound) && m.Logger != nil {
			m.Logger.Debug("token validation failed", "error", err)
		}
		c.Next()
		return
	}
	user := resolved.User
	setPrincipal(c, identity.Principal{
		ID:        user.ID,
		Name:      user.Name,
		Email:     user.Email,
		AvatarURL: user.AvatarURL,
	})
	c.Next()
}

func setPrincipal(c *gin.Context, p identity.Principal) {
	c.Set(principalContextKey, p)
}

func currentPrincipal(c *gin.Context) (identity.Principal, bool) {
	val, exists := c.Get(principalContextKey)
	if !exists {
		return identity.Principal{}, false
	}
	p, ok := val.(identity.Principal)
	return p, ok && p.Valid()
}

func requirePrincipal(c *gin.Context) (identity.Principal, bool) {
	p, ok := currentPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "auth required"})
		return identity.Principal{}, false
	}
	return p, true
}

func extractBearerToken(header string) string {
	if header == "" {
		return ""
	}
	if !strings.HasPrefix(strings.ToLower(header), "bearer ") {
		return ""
	}
	return strings.TrimSpace(header[7:])
}

func userIDParam(c *gin.Context, name string) domainuser.ID {
	return domainuser.ID(strings.TrimSpace(c.Param(name)))
}
