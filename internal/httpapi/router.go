package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/peixuanhu/study-platform/internal/common"
	"github.com/peixuanhu/study-platform/internal/config"
	"github.com/peixuanhu/study-platform/internal/httpapi/handlers"
	"github.com/peixuanhu/study-platform/internal/httpapi/middleware"
)

func NewRouter(h *handlers.Handler, cfg config.Config, logger *logrus.Logger) *gin.Engine {
	r := gin.New()
	r.HandleMethodNotAllowed = true
	r.Use(gin.Logger())
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestID())

	r.NoRoute(func(c *gin.Context) {
		common.Fail(c, http.StatusNotFound, 40400, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		common.Fail(c, http.StatusMethodNotAllowed, 40500, "method not allowed")
	})

	r.GET("/ping", h.Ping)

	authGroup := r.Group("/")
	authGroup.Use(middleware.AuthRequired(cfg.JWTSecret))
	authGroup.POST("/materials", h.CreateMaterial)
	authGroup.GET("/materials", h.ListMaterials)
	authGroup.GET("/materials/:id", h.GetMaterial)
	authGroup.GET("/jobs/:job_id", h.GetJob)

	return r
}
