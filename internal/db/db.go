package db

import (
	"log"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	"github.com/peixuanhu/study-platform/internal/material"
	"github.com/peixuanhu/study-platform/internal/pipeline"
)

func Connect(dsn string) *gorm.DB {
	gdb, err := gorm.Open(mysql.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatalf("db connect: %v", err)
	}
	return gdb
}

func AutoMigrate(gdb *gorm.DB) error {
	return gdb.AutoMigrate(&material.Material{}, &pipeline.Job{})
}
