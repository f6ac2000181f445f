package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"backend_fleetmaint/database"

	"github.com/go-redis/redis/v8"
)

// CacheService предоставляет методы для кэширования
type CacheService struct {
	redis  *redis.Client
	logger *log.Logger
}

// NewCacheService создает новый экземпляр CacheService
func NewCacheService(redisClient *redis.Client, logger *log.Logger) *CacheService {
	return &CacheService{
		redis:  redisClient,
		logger: logger,
	}
}

// Константы для TTL кэша
const (
	CacheTTLShort  = 5 * time.Minute  // Для часто изменяемых данных
	CacheTTLMedium = 15 * time.Minute // Для умеренно изменяемых данных
	CacheTTLLong   = 1 * time.Hour    // Для редко изменяемых данных
)

// Get получает значение из кэша
func (cs *CacheService) Get(ctx context.Context, key string) (string, error) {
	if cs.redis == nil {
		return "", fmt.Errorf("Redis не подключен")
	}

	val, err := cs.redis.Get(ctx, key).Result()
	if err == redis.Nil {
		return "", fmt.Errorf("ключ не найден")
	}
	return val, err
}

// Set сохраняет значение в кэш
func (cs *CacheService) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if cs.redis == nil {
		if cs.logger != nil {
			cs.logger.Printf("Redis не подключен, пропускаем кэширование для ключа: %s", key)
		}
		return nil // Не возвращаем ошибку, просто пропускаем кэширование
	}

	return cs.redis.Set(ctx, key, value, ttl).Err()
}

// Del удаляет значение из кэша
func (cs *CacheService) Del(ctx context.Context, key string) error {
	if cs.redis == nil {
		return nil
	}

	return cs.redis.Del(ctx, key).Err()
}

// CacheDashboard кэширует показатели дашборда за период
func (cs *CacheService) CacheDashboard(month, year int, area string, data interface{}) error {
	if cs.redis == nil {
		return nil
	}
	key := database.GenerateDashboardCacheKey(month, year, area)
	return database.CacheSetJSON(key, data, CacheTTLShort)
}

// GetCachedDashboard получает показатели дашборда из кэша
func (cs *CacheService) GetCachedDashboard(month, year int, area string, dest interface{}) error {
	if cs.redis == nil {
		return fmt.Errorf("Redis не подключен")
	}
	key := database.GenerateDashboardCacheKey(month, year, area)
	return database.CacheGetJSON(key, dest)
}

// InvalidateDashboard очищает кэш дашборда после изменения нарядов
func (cs *CacheService) InvalidateDashboard() error {
	if cs.redis == nil {
		return nil
	}
	return database.ClearDashboardCache()
}

// GetCacheStats возвращает статистику использования кэша
func (cs *CacheService) GetCacheStats() (map[string]interface{}, error) {
	if cs.redis == nil {
		return map[string]interface{}{
			"status": "disabled",
		}, nil
	}

	info, err := cs.redis.Info(database.Ctx, "memory").Result()
	if err != nil {
		return nil, err
	}

	keyCount, err := cs.redis.DBSize(database.Ctx).Result()
	if err != nil {
		return nil, err
	}

	return map[string]interface{}{
		"status":    "enabled",
		"key_count": keyCount,
		"memory":    info,
	}, nil
}
