package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"

	"github.com/zillah777/fixia.com.ar-sub001/internal/handler"
	"github.com/zillah777/fixia.com.ar-sub001/internal/hub"
	"github.com/zillah777/fixia.com.ar-sub001/internal/middleware"
)

// Handlers bundles every handler the API mounts.  All fields must be
// non-nil except Limiter, which may be a pass-through when Redis is
// absent.
type Handlers struct {
	Matches       *handler.MatchHandler
	Phones        *handler.PhoneHandler
	Reviews       *handler.ReviewHandler
	Notifications *handler.NotificationHandler
	Requests      *handler.RequestHandler
	Hub           *hub.Hub
	Limiter       echo.MiddlewareFunc
}

// Register mounts the health probe, the websocket endpoint and every
// /v1 REST route on the provided Echo instance.  Everything under /v1
// requires a valid access token; the websocket endpoint does its own
// authentication because browsers cannot set headers on upgrade
// requests and may fall back to a query parameter.
func Register(e *echo.Echo, h Handlers, jwtSecret string) {
	// Health check for load balancers and monitoring.
	e.GET("/healthz", handler.Health)

	// Push channel.  Token comes from the Authorization header or the
	// access_token query parameter, verified inside ServeWS.
	e.GET("/ws/notifications", hub.ServeWS(h.Hub, jwtSecret))

	auth := e.Group("/v1")
	auth.Use(middleware.JWTAuth(jwtSecret))

	// Engagement lifecycle.
	auth.GET("/matches", h.Matches.List)
	auth.GET("/matches/:id", h.Matches.Get)
	auth.POST("/matches/:id/completion/request", h.Matches.RequestCompletion)
	auth.POST("/matches/:id/completion/confirm", h.Matches.ConfirmCompletion)
	auth.PUT("/matches/:id/status", h.Matches.UpdateStatus)

	// Contact disclosure.  Token issuance and redemption sit behind the
	// rate limiter; the masked preview is cheap and stays open.
	auth.GET("/matches/:id/phone/masked", h.Phones.GetMasked)
	if h.Limiter != nil {
		auth.POST("/matches/:id/phone/token", h.Phones.GenerateToken, h.Limiter)
		auth.POST("/matches/:id/phone/reveal", h.Phones.Reveal, h.Limiter)
	} else {
		auth.POST("/matches/:id/phone/token", h.Phones.GenerateToken)
		auth.POST("/matches/:id/phone/reveal", h.Phones.Reveal)
	}

	// Reviews.
	auth.GET("/matches/:id/review-status", h.Reviews.Status)
	auth.POST("/matches/:id/reviews", h.Reviews.Create)
	auth.DELETE("/reviews/:id", h.Reviews.Delete)
	auth.GET("/reviews/pending", h.Reviews.Pending)

	// Notification inbox.
	auth.GET("/notifications", h.Notifications.List)
	auth.GET("/notifications/unread-count", h.Notifications.UnreadCount)
	auth.PUT("/notifications/:id/read", h.Notifications.MarkRead)
	auth.PUT("/notifications/mark-all-read", h.Notifications.MarkAllRead)
	auth.DELETE("/notifications/:id", h.Notifications.Delete)
	auth.DELETE("/notifications", h.Notifications.DeleteAll)

	// Service requests, gated by the review blocker.
	auth.POST("/requests", h.Requests.Create)
}
