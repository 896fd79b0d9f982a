package main

import (
	"log"

	"github.com/sirupsen/logrus"

	"github.com/peixuanhu/study-platform/internal/blob"
	"github.com/peixuanhu/study-platform/internal/config"
	"github.com/peixuanhu/study-platform/internal/db"
	"github.com/peixuanhu/study-platform/internal/httpapi"
	"github.com/peixuanhu/study-platform/internal/httpapi/handlers"
	"github.com/peixuanhu/study-platform/internal/material"
	"github.com/peixuanhu/study-platform/internal/pipeline"
	"github.com/peixuanhu/study-platform/internal/store/rabbitmq"
	"github.com/peixuanhu/study-platform/internal/store/redisstore"
)

func main() {
	cfg := config.Load()

	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	gdb := db.Connect(cfg.DBDSN)
	if err := db.AutoMigrate(gdb); err != nil {
		log.Fatalf("migrate: %v", err)
	}

	blobs, err := blob.New(cfg.MinioEndpoint, cfg.MinioAccessKey, cfg.MinioSecretKey, cfg.MinioBucket, cfg.MinioUseSSL)
	if err != nil {
		log.Fatalf("blob store: %v", err)
	}

	publisher, err := rabbitmq.NewPublisher(cfg.RabbitURL, cfg.RabbitQueue)
	if err != nil {
		log.Fatalf("rabbit publisher: %v", err)
	}
	defer publisher.Close()

	limiter := redisstore.New(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	defer limiter.Close()

	materialRepo := material.NewRepo(gdb)
	materialSvc := material.NewService(materialRepo, blobs, logger)

	jobRepo := pipeline.NewRepo(gdb)
	pipelineSvc := pipeline.NewService(jobRepo, materialRepo, publisher, logger)

	h := handlers.NewHandler(materialSvc, pipelineSvc, limiter, cfg, logger)
	r := httpapi.NewRouter(h, cfg, logger)

	logger.Infof("server listening on %s", cfg.HTTPAddr)
	if err := r.Run(cfg.HTTPAddr); err != nil {
		log.Fatalf("server: %v", err)
	}
}
