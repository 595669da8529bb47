package main

import (
	"flag"

	"clubhub/internal/config"
	"clubhub/internal/db"
	"clubhub/internal/logger"
	"clubhub/internal/router"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

func main() {
	configPath := flag.String("config", "", "path to an optional YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}
	logger.Setup(cfg.Log)
	gin.SetMode(cfg.Server.Mode)

	// Initialize Database
	conn, err := db.Open(cfg.Database)
	if err != nil {
		logrus.Fatalf("Failed to open database: %v", err)
	}
	if err := db.SeedAdmin(conn, cfg.Admin); err != nil {
		logrus.Fatalf("Failed to seed admin: %v", err)
	}

	r := router.New(cfg, conn)

	logrus.Infof("ClubHub server starting on :%s", cfg.Server.Port)
	if err := r.Run(":" + cfg.Server.Port); err != nil {
		logrus.Fatal(err)
	}
}
