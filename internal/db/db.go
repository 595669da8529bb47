package db

import (
	"fmt"

	"clubhub/internal/config"
	"clubhub/internal/models"
	"clubhub/internal/utils"

	"github.com/glebarez/sqlite"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Open 按配置连接数据库并执行迁移
func Open(cfg config.DatabaseConfig) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.Driver {
	case "sqlite":
		dialector = sqlite.Open(cfg.DSN)
	default:
		dialector = postgres.Open(cfg.DSN)
	}

	conn, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	if cfg.Driver == "sqlite" {
		// sqlite 只允许单写连接，内存库多连接时各自独立
		sqlDB, err := conn.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
	}
	logrus.WithField("driver", cfg.Driver).Info("Database connection established")

	if cfg.AutoMigrate {
		if err := Migrate(conn); err != nil {
			return nil, err
		}
	}
	return conn, nil
}

// Migrate 自动迁移所有表
func Migrate(conn *gorm.DB) error {
	err := conn.AutoMigrate(
		&models.User{},
		&models.Club{},
		&models.Membership{},
		&models.Notification{},
	)
	if err != nil {
		return fmt.Errorf("migrate database: %w", err)
	}
	logrus.Debug("Database migration completed")
	return nil
}

// SeedAdmin 确保配置中的超级管理员存在
func SeedAdmin(conn *gorm.DB, cfg config.AdminConfig) error {
	if cfg.Username == "" {
		return nil
	}

	var count int64
	if err := conn.Model(&models.User{}).Where("username = ?", cfg.Username).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		logrus.WithField("username", cfg.Username).Debug("Admin already seeded, skipping")
		return nil
	}

	hash, err := utils.HashPassword(cfg.Password)
	if err != nil {
		return err
	}
	admin := models.User{
		Username: cfg.Username,
		Email:    cfg.Email,
		Password: hash,
		IsAdmin:  true,
	}
	if err := conn.Create(&admin).Error; err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}
	logrus.WithField("username", cfg.Username).Info("Admin account created")
	return nil
}
