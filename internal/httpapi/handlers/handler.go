package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/peixuanhu/study-platform/internal/common"
	"github.com/peixuanhu/study-platform/internal/config"
	"github.com/peixuanhu/study-platform/internal/httpapi/middleware"
	"github.com/peixuanhu/study-platform/internal/material"
	"github.com/peixuanhu/study-platform/internal/pipeline"
	"github.com/peixuanhu/study-platform/internal/store/redisstore"
)

type Handler struct {
	Materials *material.Service
	Pipeline  *pipeline.Service
	Limiter   *redisstore.Store
	Cfg       config.Config
	Log       *logrus.Logger
}

func NewHandler(materials *material.Service, pl *pipeline.Service, limiter *redisstore.Store, cfg config.Config, log *logrus.Logger) *Handler {
	return &Handler{Materials: materials, Pipeline: pl, Limiter: limiter, Cfg: cfg, Log: log}
}

func (h *Handler) Ping(c *gin.Context) {
	common.Ok(c, gin.H{"pong": true})
}

func userIDFromContext(c *gin.Context) (uint64, bool) {
	v, ok := c.Get(middleware.UserIDKey)
	if !ok {
		return 0, false
	}
	id, ok := v.(uint64)
	return id, ok
}
