package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/dispute-backend/internal/config"
	"github.com/ignatzorin/dispute-backend/internal/http/handlers"
	"github.com/ignatzorin/dispute-backend/internal/http/middleware"
	"github.com/ignatzorin/dispute-backend/internal/models"
)

func SetupRouter(
	cfg *config.Config,
	tokens middleware.AccessTokenParser,
	disputeHandler *handlers.DisputeHandler,
	adminDisputeHandler *handlers.AdminDisputeHandler,
	healthHandler *handlers.HealthHandler,
	metricsHandler http.Handler,
) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.Default()
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.CORSMiddleware(cfg.AllowedOrigins))

	r.GET("/health", healthHandler.Health)
	if metricsHandler != nil {
		r.GET("/metrics", gin.WrapH(metricsHandler))
	}

	api := r.Group("/api")
	api.Use(middleware.AuthMiddleware(tokens))

	writeLimit := middleware.RateLimitMiddleware(cfg.RateLimitLimit, cfg.RateLimitPeriod)

	// Стороны спора
	disputes := api.Group("/disputes")
	{
		disputes.POST("", writeLimit, disputeHandler.CreateDispute)
		disputes.GET("/my", disputeHandler.ListMyDisputes)
		disputes.GET("/number/:caseNumber", middleware.CaseNumberValidator("caseNumber"), disputeHandler.GetDisputeByCaseNumber)
		disputes.GET("/:id", middleware.IDValidator("id"), disputeHandler.GetDispute)
		disputes.POST("/:id/withdraw", middleware.IDValidator("id"), writeLimit, disputeHandler.WithdrawDispute)
		disputes.POST("/:id/evidence", middleware.IDValidator("id"), writeLimit, disputeHandler.SubmitEvidence)
		disputes.GET("/:id/evidence", middleware.IDValidator("id"), disputeHandler.ListEvidence)
		disputes.GET("/:id/activities", middleware.IDValidator("id"), disputeHandler.ListActivities)
		disputes.POST("/:id/comments", middleware.IDValidator("id"), writeLimit, disputeHandler.AddComment)
	}

	// Администраторы
	admin := api.Group("/admin/disputes")
	admin.Use(middleware.RequireRole(models.RoleAdmin))
	{
		admin.GET("", adminDisputeHandler.ListDisputes)
		admin.GET("/stats", adminDisputeHandler.Stats)
		admin.POST("/sla/check", writeLimit, adminDisputeHandler.CheckSLA)
		admin.PUT("/:id/status", middleware.IDValidator("id"), writeLimit, adminDisputeHandler.UpdateStatus)
		admin.POST("/:id/assign", middleware.IDValidator("id"), writeLimit, adminDisputeHandler.Assign)
		admin.POST("/:id/resolve", middleware.IDValidator("id"), writeLimit, adminDisputeHandler.Resolve)
		admin.POST("/:id/escalate", middleware.IDValidator("id"), writeLimit, adminDisputeHandler.Escalate)
	}

	return r
}
