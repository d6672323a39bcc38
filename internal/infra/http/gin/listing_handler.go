package ginserver

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	gin "github.com/gin-gonic/gin"

	"tradepost/internal/app/dto"
	listingsvc "tradepost/internal/app/services/listing"
	domainlisting "tradepost/internal/domain/listing"
)

type ListingHTTP interface {
	Create(c *gin.Context)
	Get(c *gin.Context)
	ListMine(c *gin.Context)
	Update(c *gin.Context)
	Delete(c *gin.Context)
	PlaceOffer(c *gin.Context)
	UploadImage(c *gin.Context)
}

type ListingHandler struct {
	Service *listingsvc.Service
	Logger  *slog.Logger
}

type listingRequest struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Category    string   `json:"category"`
	PriceCents  int64    `json:"price_cents"`
	Images      []string `json:"images"`
	Sold        bool     `json:"sold"`
}

type offerRequest struct {
	Amount int64 `json:"amount"`
}

func (h ListingHandler) Create(c *gin.Context) {
	principal, ok := requirePrincipal(c)
	if !ok {
		return
	}
	var req listingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	lst, err := h.Service.Create(c.Request.Context(), principal, listingsvc.CreateParams{
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		PriceCents:  req.PriceCents,
		Images:      req.Images,
	})
	if err != nil {
		h.respondListingError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.MapListing(lst))
}

func (h ListingHandler) Get(c *gin.Context) {
	id := listingIDParam(c)
	if id == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "listing id is required"})
		return
	}
	lst, err := h.Service.Get(c.Request.Context(), id)
	if err != nil {
		h.respondListingError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.MapListing(lst))
}

func (h ListingHandler) ListMine(c *gin.Context) {
	principal, ok := requirePrincipal(c)
	if !ok {
		return
	}
	listings, err := h.Service.ListOwned(c.Request.Context(), principal)
	if err != nil {
		h.respondListingError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.MapListings(listings))
}

func (h ListingHandler) Update(c *gin.Context) {
	principal, ok := requirePrincipal(c)
	if !ok {
		return
	}
	id := listingIDParam(c)
	var req listingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	lst, err := h.Service.Update(c.Request.Context(), principal, id, listingsvc.UpdateParams{
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		PriceCents:  req.PriceCents,
		Images:      req.Images,
		Sold:        req.Sold,
	})
	if err != nil {
		h.respondListingError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.MapListing(lst))
}

// Delete purges the listing's conversations, messages and notifications
// before removing the listing itself.
func (h ListingHandler) Delete(c *gin.Context) {
	principal, ok := requirePrincipal(c)
	if !ok {
		return
	}
	id := listingIDParam(c)
	lst, err := h.Service.Delete(c.Request.Context(), principal, id)
	if err != nil {
		h.respondListingError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.MapListing(lst))
}

// PlaceOffer handles PATCH /listings/:listingID/offer.
func (h ListingHandler) PlaceOffer(c *gin.Context) {
	principal, ok := requirePrincipal(c)
	if !ok {
		return
	}
	id := listingIDParam(c)
	var req offerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	lst, err := h.Service.PlaceOffer(c.Request.Context(), principal, id, req.Amount)
	if err != nil {
		h.respondListingError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.MapListing(lst))
}

func (h ListingHandler) UploadImage(c *gin.Context) {
	principal, ok := requirePrincipal(c)
	if !ok {
		return
	}
	file, header, err := c.Request.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "image file is required"})
		return
	}
	defer file.Close()

	url, err := h.Service.UploadImage(c.Request.Context(), principal, file, header.Header.Get("Content-Type"))
	if err != nil {
		if h.Logger != nil {
			h.Logger.Error("image upload failed", "user_id", principal.ID, "error", err)
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "image upload failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": url})
}

func (h ListingHandler) respondListingError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domainlisting.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, domainlisting.ErrNotOwner),
		errors.Is(err, domainlisting.ErrOwnOffer):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, domainlisting.ErrTitleRequired),
		errors.Is(err, domainlisting.ErrInvalidPrice),
		errors.Is(err, domainlisting.ErrInvalidOffer):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		if h.Logger != nil {
			h.Logger.Error("listing operation failed", "error", err)
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func listingIDParam(c *gin.Context) domainlisting.ID {
	return domainlisting.ID(strings.TrimSpace(c.Param("listingID")))
}

var _ ListingHTTP = (*ListingHandler)(nil)
