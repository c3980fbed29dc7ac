package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisCache хранилище снимков сессии для слоя отображения.
// Ядро мониторинга от Redis не зависит: запись выполняется лучшими
// усилиями, отказ кэша деградирует только внешнюю выдачу.
type RedisCache struct {
	client *redis.Client
	ctx    context.Context
	ttl    time.Duration
}

// NewRedisCache создает подключение к Redis и проверяет его
func NewRedisCache(addr, password string, db int, ttl time.Duration) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		PoolSize:     100,
		MinIdleConns: 10,
		MaxRetries:   3,
	})

	ctx := context.Background()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisCache{
		client: client,
		ctx:    ctx,
		ttl:    ttl,
	}, nil
}

// StoreReading сохраняет сырое показание
func (r *RedisCache) StoreReading(id string, timestamp time.Time, data interface{}) error {
	key := fmt.Sprintf("reading:%s", id)

	jsonData, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal reading: %w", err)
	}

	return r.client.Set(r.ctx, key, jsonData, r.ttl).Err()
}

// StoreAnalysis сохраняет обработанную запись истории
func (r *RedisCache) StoreAnalysis(id string, timestamp time.Time, data interface{}) error {
	key := fmt.Sprintf("analysis:%s", id)

	jsonData, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal analysis: %w", err)
	}

	return r.client.Set(r.ctx, key, jsonData, r.ttl).Err()
}

// StoreAnomaly сохраняет аномальную запись с индексом по времени.
// Аномалии хранятся дольше обычных записей.
func (r *RedisCache) StoreAnomaly(id string, timestamp time.Time, data interface{}) error {
	key := fmt.Sprintf("anomaly:%s", id)

	jsonData, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal anomaly: %w", err)
	}

	anomalyTTL := r.ttl * 24

	score := float64(timestamp.Unix())

	pipe := r.client.Pipeline()
	pipe.Set(r.ctx, key, jsonData, anomalyTTL)
	pipe.ZAdd(r.ctx, "anomaly_index", redis.Z{Score: score, Member: key})
	pipe.Expire(r.ctx, "anomaly_index", anomalyTTL)

	_, err = pipe.Exec(r.ctx)
	return err
}

// StoreStatus сохраняет сводку сессии мониторинга
func (r *RedisCache) StoreStatus(data interface{}) error {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal status: %w", err)
	}

	return r.client.Set(r.ctx, "session_status", jsonData, r.ttl).Err()
}

// GetRecentAnomalies возвращает ключи последних аномалий
func (r *RedisCache) GetRecentAnomalies(limit int) ([]string, error) {
	results, err := r.client.ZRevRange(r.ctx, "anomaly_index", 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get anomalies: %w", err)
	}
	return results, nil
}

// GetAnomaly читает сохраненную аномалию по ключу
func (r *RedisCache) GetAnomaly(key string) ([]byte, error) {
	val, err := r.client.Get(r.ctx, key).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	return val, err
}

// Close закрывает соединение с Redis
func (r *RedisCache) Close() error {
	return r.client.Close()
}

// Ping проверяет доступность Redis
func (r *RedisCache) Ping() error {
	return r.client.Ping(r.ctx).Err()
}

// GetStats возвращает статистику пула соединений
func (r *RedisCache) GetStats() map[string]interface{} {
	stats := r.client.PoolStats()

	return map[string]interface{}{
		"hits":        stats.Hits,
		"misses":      stats.Misses,
		"timeouts":    stats.Timeouts,
		"total_conns": stats.TotalConns,
		"idle_conns":  stats.IdleConns,
		"stale_conns": stats.StaleConns,
	}
}
