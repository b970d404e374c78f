package http

import "github.com/gin-gonic/gin"

// Register attaches the issue routes to the given router group, normally /api/issues.
func (h *Handler) Register(rg *gin.RouterGroup) {
	rg.GET("/:project", h.list)
	rg.POST("/:project", h.create)
	rg.PUT("/:project", h.update)
	rg.DELETE("/:project", h.delete)
}
