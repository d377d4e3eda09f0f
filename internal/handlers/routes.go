package handlers

import "github.com/gin-gonic/gin"

// RouteMiddleware is extra middleware for the expensive endpoints
type RouteMiddleware struct {
	Upload []gin.HandlerFunc
	Plan   []gin.HandlerFunc
}

// RegisterRoutes mounts the authenticated API on api
func RegisterRoutes(api *gin.RouterGroup, h *Handlers, mw RouteMiddleware) {
	accounts := api.Group("/accounts")
	{
		accounts.GET("", h.ListAccounts)
		accounts.POST("/facebook", h.ConnectFacebook)
		accounts.POST("/:platform", h.ConnectOAuth2)
		accounts.PUT("/:id/default", h.SetDefaultAccount)
		accounts.DELETE("/:id", h.DisconnectAccount)
	}

	brands := api.Group("/brands")
	{
		brands.POST("", h.CreateBrand)
		brands.GET("", h.ListBrands)
		brands.GET("/:id", h.GetBrand)
		brands.PUT("/:id", h.UpdateBrand)
		brands.DELETE("/:id", h.DeleteBrand)
		brands.POST("/:id/logo", with(mw.Upload, h.UploadBrandLogo)...)
	}

	calendar := api.Group("/calendar")
	{
		calendar.POST("", h.CreateEntry)
		calendar.GET("", h.ListEntries)
		calendar.GET("/:id", h.GetEntry)
		calendar.PUT("/:id", h.UpdateEntry)
		calendar.DELETE("/:id", h.DeleteEntry)
		calendar.POST("/:id/schedule", h.ScheduleEntry)
		calendar.POST("/:id/publish", h.PublishEntry)
		calendar.POST("/:id/cancel", h.CancelEntry)
	}

	media := api.Group("/media")
	{
		media.POST("", with(mw.Upload, h.UploadMedia)...)
		media.GET("", h.ListMedia)
		media.DELETE("/:id", h.DeleteMedia)
	}

	api.POST("/plans", with(mw.Plan, h.GeneratePlan)...)

	jobs := api.Group("/jobs")
	{
		jobs.GET("", h.ListJobs)
		jobs.POST("/:id/retry", h.RetryJob)
	}
}

func with(mw []gin.HandlerFunc, handler gin.HandlerFunc) []gin.HandlerFunc {
	chain := make([]gin.HandlerFunc, 0, len(mw)+1)
	chain = append(chain, mw...)
	return append(chain, handler)
}
