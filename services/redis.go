package services

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	appContext "github.com/alphabatem/common/context"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"github.com/questlab-edu/questlab_api/shared"
)

// RedisService wraps the shared redis client used for leaderboard
// caching. REDIS_DISABLED=true turns every operation into a cache
// no-op, which keeps the cache strictly optional.
type RedisService struct {
	appContext.DefaultService

	redis    *redis.Client
	disabled bool
}

const REDIS_SVC = "redis_svc"

func (svc RedisService) Id() string {
	return REDIS_SVC
}

func (svc *RedisService) Configure(ctx *appContext.Context) error {
	svc.disabled = os.Getenv("REDIS_DISABLED") == "true"
	if svc.disabled {
		log.Println("Redis disabled, caching is a no-op")
	} else {
		svc.initRedisClient()
	}
	return svc.DefaultService.Configure(ctx)
}

func (svc *RedisService) Start() error {
	if svc.redis != nil {
		ctx := context.Background()
		_, err := svc.redis.Ping(ctx).Result()
		if err != nil {
			return fmt.Errorf("failed to connect to Redis: %w", err)
		}
	}
	return nil
}

func (svc *RedisService) Shutdown() {
	if svc.redis != nil {
		_ = svc.redis.Close()
	}
}

func (svc *RedisService) initRedisClient() {
	redisAddr := os.Getenv("REDIS_ADDR")
	if redisAddr == "" {
		redisAddr = "localhost:6379"
	}

	redisPassword := os.Getenv("REDIS_PASSWORD")

	redisDB := 0
	if dbStr := os.Getenv("REDIS_DB"); dbStr != "" {
		if db, err := strconv.Atoi(dbStr); err == nil {
			redisDB = db
		}
	}

	svc.redis = redis.NewClient(&redis.Options{
		Addr:     redisAddr,
		Password: redisPassword,
		DB:       redisDB,
	})
}

// GetJSON reports whether the key was found; a miss is (false, nil).
func (svc *RedisService) GetJSON(ctx context.Context, key string, dest interface{}) (bool, error) {
	if svc.redis == nil {
		return false, nil
	}

	result, err := svc.redis.Get(ctx, key).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	if err := shared.JSONUnmarshal([]byte(result), dest); err != nil {
		return false, err
	}
	return true, nil
}

func (svc *RedisService) SetJSON(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	if svc.redis == nil {
		return nil
	}

	data, err := shared.JSONMarshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal value: %w", err)
	}

	return svc.redis.Set(ctx, key, data, expiration).Err()
}

func (svc *RedisService) Delete(ctx context.Context, keys ...string) error {
	if svc.redis == nil {
		return nil
	}

	return svc.redis.Del(ctx, keys...).Err()
}

func (svc *RedisService) DeletePattern(ctx context.Context, pattern string) error {
	if svc.redis == nil {
		return nil
	}

	keys, err := svc.redis.Keys(ctx, pattern).Result()
	if err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}

	return svc.redis.Del(ctx, keys...).Err()
}
