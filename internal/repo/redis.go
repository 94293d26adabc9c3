package repo

import (
	"context"
	"fmt"
	"time"

	"wetime-service/internal/config"
	"wetime-service/pkg/logger"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func NewRedis(ctx context.Context, conf config.RedisConfig) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     conf.Addr,
		Password: conf.Password,
		DB:       conf.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if _, err := rdb.Ping(pingCtx).Result(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("connect redis %s: %w", conf.Addr, err)
	}
	logger.Log.Info("redis ready", zap.String("addr", conf.Addr))
	return rdb, nil
}
