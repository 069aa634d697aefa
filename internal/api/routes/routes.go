package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/plagiafix/plagiafix/internal/api/handlers"
	"github.com/plagiafix/plagiafix/internal/api/middleware"
)

type Deps struct {
	Document  *handlers.DocumentHandler
	Credit    *handlers.CreditHandler
	Session   *handlers.SessionHandler
	Telemetry *handlers.TelemetryHandler
	WS        *handlers.WSHandler
}

func RegisterRoutes(r *gin.Engine, d Deps) {
	// Health-ish
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{"message": "pong"})
	})

	// Protected routes (JWT)
	auth := r.Group("/")
	auth.Use(middleware.JWTAuth())

	auth.POST("/documents/analyze", d.Document.Analyze)
	auth.POST("/documents/humanize", d.Document.Humanize)
	auth.GET("/reports", d.Document.ListReports)
	auth.GET("/reports/:report_id", d.Document.GetReport)
	auth.GET("/reports/:report_id/similar", d.Document.SimilarReports)
	auth.GET("/reports/:report_id/download", d.Document.DownloadRewrite)

	auth.POST("/credits/purchase", d.Credit.Purchase)
	auth.GET("/credits/balance", d.Credit.Balance)
	auth.GET("/credits/history", d.Credit.History)

	auth.POST("/session/start", d.Session.Start)
	auth.GET("/session/:session_id", d.Session.Get)
	auth.POST("/session/:session_id/end", d.Session.End)

	// WebSocket
	auth.GET("/ws/session/:session_id", d.WS.SessionWS)

	// Admin
	admin := auth.Group("/admin")
	admin.Use(middleware.RequireAdmin())
	admin.GET("/telemetry", d.Telemetry.Recent)
}
