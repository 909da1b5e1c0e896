package initial

import (
	"context"
	"fmt"
	"time"

	"DocLink/internal/config"
	"DocLink/pkg/zlog"

	"github.com/redis/go-redis/v9"
)

var RedisClient *redis.Client

func init() {
	conf := config.GetConfig()
	RedisClient = redis.NewClient(&redis.Options{
		Addr:         fmt.Sprintf("%s:%d", conf.RedisConfig.Host, conf.RedisConfig.Port),
		Password:     conf.RedisConfig.Password,
		DB:           conf.RedisConfig.DB,
		PoolSize:     conf.RedisConfig.PoolSize,
		MinIdleConns: conf.RedisConfig.MinIdleConns,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := RedisClient.Ping(ctx).Err(); err != nil {
		zlog.Fatal("redis 连接失败: " + err.Error())
	}
}
