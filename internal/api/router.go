package api

import (
	"net/http"
	"slices"

	"github.com/bhandras/agbridge/internal/api/handlers"
	"github.com/bhandras/agbridge/internal/api/middleware"
	"github.com/bhandras/agbridge/internal/journal"
	"github.com/bhandras/agbridge/internal/state"
	"github.com/bhandras/agbridge/internal/websocket"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Deps are the components the router exposes.
type Deps struct {
	State *state.Manager
	Hub   *websocket.Hub
	// Journal may be nil when the audit journal is disabled.
	Journal        *journal.Journal
	AllowedOrigins []string
	// Debug mounts the debug endpoints.
	Debug bool
}

// NewRouter builds the HTTP surface of the bridge.
func NewRouter(d Deps) *gin.Engine {
	router := gin.New()
	// Never trust forwarding headers; the loopback bypass depends on it.
	_ = router.SetTrustedProxies(nil)

	corsConfig := cors.Config{
		AllowMethods:  []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", middleware.TokenHeader},
		ExposeHeaders: []string{"Content-Length"},
	}
	if len(d.AllowedOrigins) == 0 || slices.Contains(d.AllowedOrigins, "*") {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = d.AllowedOrigins
	}

	router.Use(middleware.RecoveryMiddleware())
	router.Use(cors.New(corsConfig))
	router.Use(middleware.LoggingMiddleware())
	router.Use(middleware.MetricsMiddleware())

	authHandler := handlers.NewAuthHandler(d.State)
	settingsHandler := handlers.NewSettingsHandler(d.State)
	approvalHandler := handlers.NewApprovalHandler(d.State)
	messageHandler := handlers.NewMessageHandler(d.State)
	agentHandler := handlers.NewAgentHandler(d.State)
	auditHandler := handlers.NewAuditHandler(d.Journal)

	// Public routes
	router.GET("/health", authHandler.Health)
	router.POST("/pair/claim", authHandler.ClaimPairing)

	// The real-time channel authenticates through its query string.
	router.GET("/events", d.Hub.Handler(d.State, d.State))

	protected := router.Group("")
	protected.Use(middleware.AuthMiddleware(d.State))
	{
		// Settings
		protected.GET("/config", settingsHandler.GetConfig)
		protected.POST("/config/strict-mode", settingsHandler.SetStrictMode)
		protected.GET("/status", approvalHandler.Status)

		// Approvals
		protected.GET("/approvals", approvalHandler.ListApprovals)
		protected.POST("/approvals/request", approvalHandler.RequestApproval)
		protected.GET("/approvals/stream/summary", approvalHandler.Summary)
		protected.GET("/approvals/:id", approvalHandler.GetApproval)
		protected.POST("/approvals/:id/approve", approvalHandler.Approve)
		protected.POST("/approvals/:id/deny", approvalHandler.Deny)

		// Messages
		protected.POST("/messages/send", messageHandler.Send)
		protected.GET("/messages/inbox", messageHandler.Inbox)
		protected.POST("/messages/:id/ack", messageHandler.Ack)

		// Agent
		protected.POST("/agent/heartbeat", agentHandler.Heartbeat)
		protected.GET("/agent/status", agentHandler.Status)
		protected.POST("/checkpoint", agentHandler.Checkpoint)

		// Operations
		protected.GET("/audit", auditHandler.ListAudit)
		protected.GET("/metrics", gin.WrapH(promhttp.Handler()))

		if d.Debug {
			protected.POST("/debug/create-approval", approvalHandler.DebugCreateApproval)
		}
	}

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not_found"})
	})

	return router
}
