package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// 主数据缓存键
const (
	cacheKeyStatuses  = "erp:master:statuses:"
	cacheKeyProcesses = "erp:master:department_processes:"
)

// MasterCache 主数据列表的读缓存，rdb 为 nil 时所有操作都是空操作
type MasterCache struct {
	rdb    *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

func NewMasterCache(rdb *redis.Client, ttl time.Duration, logger *zap.Logger) *MasterCache {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &MasterCache{rdb: rdb, ttl: ttl, logger: logger}
}

// Get 命中返回true；redis错误按未命中处理
func (c *MasterCache) Get(ctx context.Context, key string, dest interface{}) bool {
	if c == nil || c.rdb == nil {
		return false
	}
	raw, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn("master cache get failed", zap.String("key", key), zap.Error(err))
		}
		return false
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		c.logger.Warn("master cache decode failed", zap.String("key", key), zap.Error(err))
		return false
	}
	return true
}

func (c *MasterCache) Set(ctx context.Context, key string, value interface{}) {
	if c == nil || c.rdb == nil {
		return
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		c.logger.Warn("master cache set failed", zap.String("key", key), zap.Error(err))
	}
}

// Invalidate 删除某类主数据的全部缓存
func (c *MasterCache) Invalidate(ctx context.Context, prefix string) {
	if c == nil || c.rdb == nil {
		return
	}
	keys := []string{prefix + "all", prefix + "active"}
	if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
		c.logger.Warn("master cache invalidate failed", zap.String("prefix", prefix), zap.Error(err))
	}
}

func cacheKey(prefix string, activeOnly bool) string {
	if activeOnly {
		return prefix + "active"
	}
	return prefix + "all"
}
