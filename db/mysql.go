// db/mysql.go
package db

import (
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/dev-mohitbeniwal/relay/config"
	logger "github.com/dev-mohitbeniwal/relay/logging"
)

var MySQL *gorm.DB

func InitMySQL() error {
	dsn := config.GetString("mysql.dsn")
	if dsn == "" {
		return fmt.Errorf("mysql.dsn is required when redirect.store is mysql")
	}

	var err error
	MySQL, err = gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Warn),
		TranslateError: true,
	})
	if err != nil {
		return fmt.Errorf("failed to connect to MySQL: %w", err)
	}

	sqlDB, err := MySQL.DB()
	if err != nil {
		return fmt.Errorf("failed to get MySQL connection pool: %w", err)
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	logger.Info("Successfully connected to MySQL")
	return nil
}

func CloseMySQL() {
	if MySQL == nil {
		return
	}
	sqlDB, err := MySQL.DB()
	if err != nil {
		logger.Error("Error getting MySQL connection pool", zap.Error(err))
		return
	}
	if err := sqlDB.Close(); err != nil {
		logger.Error("Error closing MySQL connection", zap.Error(err))
	}
}
