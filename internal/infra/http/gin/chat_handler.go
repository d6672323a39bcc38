package ginserver

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	gin "github.com/gin-gonic/gin"

	"tradepost/internal/app/dto"
	chatsvc "tradepost/internal/app/services/chat"
	domainchat "tradepost/internal/domain/chat"
	domainlisting "tradepost/internal/domain/listing"
	domainuser "tradepost/internal/domain/user"
)

type ChatHTTP interface {
	SendMessage(c *gin.Context)
	ListMessages(c *gin.Context)
	ListConversations(c *gin.Context)
}

type ChatHandler struct {
	Service *chatsvc.Service
	Logger  *slog.Logger
}

type sendMessageRequest struct {
	Text string `json:"text"`
}

// SendMessage handles POST /messages/:listingID/:userID where :userID is
// the receiver.
func (h ChatHandler) SendMessage(c *gin.Context) {
	principal, ok := requirePrincipal(c)
	if !ok {
		return
	}
	listingID := domainlisting.ID(strings.TrimSpace(c.Param("listingID")))
	receiverID := userIDParam(c, "userID")
	if listingID == "" || receiverID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "listing and receiver are required"})
		return
	}
	var req sendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	msg, err := h.Service.SendMessage(c.Request.Context(), principal, chatsvc.SendMessageParams{
		ListingID:  listingID,
		ReceiverID: receiverID,
		Text:       req.Text,
	})
	if err != nil {
		h.respondChatError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.MapChatMessage(msg))
}

// ListMessages handles GET /messages/:listingID/:userID, returning the
// transcript between the caller and :userID about the listing.
func (h ChatHandler) ListMessages(c *gin.Context) {
	principal, ok := requirePrincipal(c)
	if !ok {
		return
	}
	listingID := domainlisting.ID(strings.TrimSpace(c.Param("listingID")))
	otherID := userIDParam(c, "userID")
	if listingID == "" || otherID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "listing and user are required"})
		return
	}
	messages, err := h.Service.ListMessages(c.Request.Context(), principal, listingID, otherID)
	if err != nil {
		h.respondChatError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.MapChatMessages(messages))
}

// ListConversations handles GET /messages: the caller's conversations,
// newest activity first.
func (h ChatHandler) ListConversations(c *gin.Context) {
	principal, ok := requirePrincipal(c)
	if !ok {
		return
	}
	views, err := h.Service.ListConversations(c.Request.Context(), principal)
	if err != nil {
		h.respondChatError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.MapConversations(views))
}

func (h ChatHandler) respondChatError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domainlisting.ErrNotFound),
		errors.Is(err, domainuser.ErrNotFound),
		errors.Is(err, domainchat.ErrConversationNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, domainchat.ErrEmptyText),
		errors.Is(err, domainchat.ErrParticipantsRequired):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		if h.Logger != nil {
			h.Logger.Error("chat operation failed", "error", err)
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

var _ ChatHTTP = (*ChatHandler)(nil)
