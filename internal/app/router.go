package app

import (
	"editorial_composer/pkg/monitoring"

	"github.com/gin-gonic/gin"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers) {
	router.GET("/metrics", monitoring.PrometheusHandler())

	a.registerAPIRoutes(router, c)
	a.registerPageRoutes(router, c)
}

func (a *App) registerAPIRoutes(router *gin.Engine, c *controllers) {
	api := router.Group("/api")
	{
		api.GET("/health", c.health.HealthCheck)
		api.GET("/submissions", c.submission.ListSubmissions)

		drafts := api.Group("/drafts")
		{
			drafts.POST("", c.draft.CreateDraft)
			drafts.GET("/:id", c.draft.GetDraft)
			drafts.DELETE("/:id", c.draft.DeleteDraft)
			drafts.POST("/:id/actions", c.draft.Apply)
			drafts.POST("/:id/submit", c.draft.Submit)
			drafts.GET("/:id/submissions", c.draft.ListDraftSubmissions)

			drafts.PUT("/:id/daily", c.draft.SetDailyDate)
			drafts.POST("/:id/daily", c.draft.ConfirmDaily)
			drafts.DELETE("/:id/daily", c.draft.CancelDaily)
		}
	}
}

// registerPageRoutes serves the htmx editor.
func (a *App) registerPageRoutes(router *gin.Engine, c *controllers) {
	router.GET("/", c.page.NewDraft)

	pages := router.Group("/drafts")
	{
		pages.GET("/:id", c.page.Show)
		pages.POST("/:id/actions", c.page.Apply)
		pages.POST("/:id/submit", c.page.Submit)
		pages.POST("/:id/daily", c.page.ConfirmDaily)
		pages.POST("/:id/daily/date", c.page.SetDailyDate)
		pages.POST("/:id/daily/cancel", c.page.CancelDaily)
	}
}
