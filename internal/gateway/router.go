package gateway

import (
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
)

// ginModeOnce ensures gin.SetMode runs once across servers and tests.
var ginModeOnce sync.Once

// NewEngine builds the gin engine with the admin API mounted under
// /api. Cross-cutting middleware wraps the returned engine in the
// gateway binary, so the engine itself stays routing-only.
func NewEngine(h *Handlers) *gin.Engine {
	ginModeOnce.Do(func() {
		gin.SetMode(gin.ReleaseMode)
	})

	engine := gin.New()
	engine.HandleMethodNotAllowed = true
	engine.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	})
	engine.NoMethod(func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, gin.H{"error": "method not allowed"})
	})

	api := engine.Group("/api")
	{
		api.GET("/:resource", h.List)
		api.GET("/:resource/:id", h.GetOne)
		api.POST("/:resource", h.Create)
		api.PUT("/:resource", h.UpdateMany)
		api.PUT("/:resource/:id", h.Update)
		api.DELETE("/:resource", h.DeleteMany)
		api.DELETE("/:resource/:id", h.Delete)
	}

	return engine
}
