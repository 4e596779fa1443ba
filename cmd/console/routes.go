package main

import (
	"operator-console/internal/httpapi"

	"github.com/gin-gonic/gin"
)

// registerRoutes wires HTTP routes to handlers.
// Keep this file free of business logic. Handlers should delegate to internal modules.
func registerRoutes(r *gin.Engine, h httpapi.Handlers) {
	// public
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// AUTH routes
	auth := r.Group("/auth")
	{
		auth.POST("/login", h.Login)
		auth.POST("/logout", h.Logout)
	}

	// CALLS routes
	calls := r.Group("/calls")
	{
		calls.GET("", h.ListView)
		calls.GET("/:id", h.GetCall)
		calls.PUT("/:id/archive", h.ToggleArchive)
		calls.POST("/:id/note", h.AddNote)

		// View-state actions for the operator's list screen.
		viewGroup := calls.Group("/view")
		{
			viewGroup.POST("/refresh", h.RefreshView)
			viewGroup.POST("/page", h.SetPage)
			viewGroup.POST("/filter", h.SetFilter)
			viewGroup.POST("/group", h.SetGroupByDate)
			viewGroup.POST("/dates", h.SetDateRange)
			viewGroup.POST("/select", h.ToggleSelect)
			viewGroup.POST("/archive-selected", h.ArchiveSelected)
		}
	}
}
