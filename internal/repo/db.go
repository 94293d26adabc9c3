package repo

import (
	"fmt"

	"wetime-service/internal/config"
	"wetime-service/internal/model"
	"wetime-service/pkg/logger"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func NewDB(conf config.DatabaseConfig) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(conf.DSN), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}
	logger.Log.Info("database ready", zap.String("dialect", db.Dialector.Name()))
	return db, nil
}

func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&model.QueueTicket{}, &model.Pairing{}); err != nil {
		return fmt.Errorf("migrate database: %w", err)
	}
	return nil
}
