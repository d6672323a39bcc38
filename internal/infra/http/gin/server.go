package ginserver

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	gin "github.com/gin-gonic/gin"

	"tradepost/internal/infra/config"
	"tradepost/internal/infra/obs"
)

type Handlers struct {
	Auth           AuthHTTP
	Listing        ListingHTTP
	Chat           ChatHTTP
	Notification   NotificationHTTP
	Realtime       RealtimeHTTP
	AuthMiddleware gin.HandlerFunc
}

func NewServer(cfg config.Config, obsMW obs.Middleware, health obs.HealthHandlers, h Handlers) *http.Server {
	mode := configureGinMode(cfg.Env)
	if obsMW.Logger != nil {
		obsMW.Logger.Info("gin initialized", "mode", mode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(obsMW.RequestID())
	router.Use(obsMW.LoggerMiddleware())
	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders: []string{
			"Content-Length",
			"Content-Type",
			"X-Request-ID",
		},
		MaxAge: 12 * time.Hour,
	}))
	if h.AuthMiddleware != nil {
		router.Use(h.AuthMiddleware)
	}

	router.GET("/livez", health.Livez)
	router.GET("/readyz", health.Readyz)

	api := router.Group("/api")
	if h.Auth != nil {
		api.POST("/users/register", h.Auth.Register)
		api.POST("/users/login", h.Auth.Login)
		api.POST("/users/logout", h.Auth.Logout)
		api.GET("/users/me", h.Auth.Me)
		api.POST("/users/avatar", h.Auth.UploadAvatar)
	}
	if h.Listing != nil {
		api.POST("/listings", h.Listing.Create)
		api.GET("/listings/mine", h.Listing.ListMine)
		api.GET("/listings/:listingID", h.Listing.Get)
		api.PUT("/listings/:listingID", h.Listing.Update)
		api.DELETE("/listings/:listingID", h.Listing.Delete)
		api.PATCH("/listings/:listingID/offer", h.Listing.PlaceOffer)
		api.POST("/listings/images", h.Listing.UploadImage)
	}
	if h.Chat != nil {
		api.GET("/messages", h.Chat.ListConversations)
		api.GET("/messages/:listingID/:userID", h.Chat.ListMessages)
		api.POST("/messages/:listingID/:userID", h.Chat.SendMessage)
	}
	if h.Notification != nil {
		api.GET("/notifications/:userID", h.Notification.List)
		api.PATCH("/notifications/:userID", h.Notification.MarkAllRead)
	}
	if h.Realtime != nil {
		router.GET("/ws", h.Realtime.Connect)
	}

	return &http.Server{Addr: cfg.HTTPAddr, Handler: router}
}

func configureGinMode(env string) string {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "debug":
		gin.SetMode(gin.DebugMode)
		return gin.DebugMode
	case "test", "testing":
		gin.SetMode(gin.TestMode)
		return gin.TestMode
	default:
		gin.SetMode(gin.ReleaseMode)
		return gin.ReleaseMode
	}
}
