package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Register mounts every route. auth guards the /api group except login.
func (h *Handler) Register(r *gin.Engine, auth gin.HandlerFunc) {
	r.GET("/health", Health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.POST("/api/auth/login", h.Login)

	api := r.Group("/api")
	api.Use(auth)
	{
		api.GET("/jobs", h.ListJobs)
		api.GET("/jobs/:id", h.GetJob)
		api.POST("/jobs/tick", h.TickJobs)
		api.POST("/jobs/backfill", h.CreateBackfill)
		api.POST("/jobs/replay", h.CreateReplay)
		api.POST("/jobs/pr", h.CreatePRJob)

		api.POST("/simulation/start", h.StartSimulation)
		api.POST("/simulation/stop", h.StopSimulation)
		api.GET("/simulation/status", h.SimulationStatus)
		api.POST("/simulation/check", h.CheckNow)
		api.GET("/simulation/stats", h.AllStats)
		api.GET("/simulation/stats/:entityId", h.EntityStats)
		api.GET("/simulation/errors", h.RecentErrors)
		api.DELETE("/simulation/errors", h.ClearErrors)
		api.POST("/simulation/reset", h.ResetStats)
		api.GET("/simulation/stream", h.StreamErrors)

		api.GET("/entities", h.ListEntities)
		api.GET("/entities/:id/alert-config", h.GetAlertConfig)
		api.PUT("/entities/:id/alert-config", h.PutAlertConfig)
		api.GET("/entities/:id/channel", h.GetChannel)
		api.PUT("/entities/:id/channel", h.PutChannel)
		api.POST("/entities/:id/monitor", h.RunMonitor)
		api.GET("/entities/:id/delivery", h.DeliveryStatus)
		api.POST("/entities/:id/webhook-test", h.WebhookTest)

		api.GET("/stats/overview", h.GetStatsOverview)

		api.POST("/integrations/github/pr", h.CreatePullRequest)
		api.POST("/integrations/slack/notify", h.SlackNotify)

		api.POST("/copilot", h.AskCopilot)
	}
}
