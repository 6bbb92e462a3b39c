package api

import (
	"github.com/gin-gonic/gin"
)

func SetupRoutes(router *gin.Engine, handler *Handler) {
	api := router.Group("/api")
	api.GET("/states", handler.ListStates)

	tenant := api.Group("", RequireTenant())
	{
		tenant.GET("/properties", handler.ListProperties)
		tenant.GET("/properties/:id", handler.GetProperty)

		sessions := tenant.Group("/wizard/sessions")
		sessions.POST("", handler.CreateSession)
		sessions.GET("/:id", handler.GetSession)
		sessions.DELETE("/:id", handler.DeleteSession)

		sessions.PUT("/:id/draft/:section", handler.UpdateDraft)
		sessions.POST("/:id/next", handler.Next)
		sessions.POST("/:id/previous", handler.Previous)
		sessions.POST("/:id/jump", handler.Jump)
		sessions.POST("/:id/address-lookup", handler.LookupAddress)

		sessions.POST("/:id/images", handler.UploadImages)
		sessions.POST("/:id/images/reorder", handler.ReorderImages)
		sessions.POST("/:id/images/:imageId/main", handler.SetMainImage)
		sessions.DELETE("/:id/images/:imageId", handler.RemoveImage)
		sessions.POST("/:id/images/:imageId/restore", handler.RestoreImage)

		sessions.POST("/:id/ai", handler.SetAIAssist)
		sessions.POST("/:id/ai/regenerate", handler.Regenerate)
		sessions.POST("/:id/ai/variants/:index/select", handler.SelectVariant)
		sessions.POST("/:id/ai/variants/:index/accept", handler.AcceptVariant)

		sessions.POST("/:id/finalize", handler.Finalize)
	}
}
