package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"layup-scheduler/config"
	pkgerrors "layup-scheduler/pkg/errors"
)

// ErrCacheMiss 缓存中不存在该键
var ErrCacheMiss = errors.New("缓存未命中")

// Client Redis 客户端封装
// 用于排产结果缓存（试算 / 场景对比）与正式排产互斥锁
type Client struct {
	rdb    *goredis.Client
	logger *zap.Logger
}

// NewClient 创建 Redis 连接并执行 Ping 健康检查
func NewClient(cfg *config.RedisConfig, logger *zap.Logger) (*Client, error) {
	rdb := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("Redis 连接失败: %w", err)
	}

	logger.Info("Redis 连接成功", zap.String("addr", cfg.Addr))

	return New(rdb, logger), nil
}

// New 包装已有的 go-redis 客户端
func New(rdb *goredis.Client, logger *zap.Logger) *Client {
	return &Client{rdb: rdb, logger: logger}
}

// ── 排产结果缓存 ──

const runPrefix = "layup:run:"

// CacheRun 缓存序列化后的排产结果
func (c *Client) CacheRun(ctx context.Context, runID string, payload []byte, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	return c.rdb.Set(ctx, runPrefix+runID, payload, ttl).Err()
}

// GetRun 读取缓存的排产结果；不存在时返回 ErrCacheMiss
func (c *Client) GetRun(ctx context.Context, runID string) ([]byte, error) {
	b, err := c.rdb.Get(ctx, runPrefix+runID).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, err
	}
	return b, nil
}

// DeleteRun 删除缓存（运行状态变化后失效）
func (c *Client) DeleteRun(ctx context.Context, runID string) error {
	return c.rdb.Del(ctx, runPrefix+runID).Err()
}

// ── 分布式锁 ──

const lockPrefix = "layup:lock:"

// 仅当值与令牌一致时删除，避免误删他人续上的锁
var releaseScript = goredis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// AcquireLock 获取互斥锁，返回释放函数；锁已被占用时返回 ErrResourceBusy
func (c *Client) AcquireLock(ctx context.Context, name string, ttl time.Duration) (func(context.Context) error, error) {
	key := lockPrefix + name
	token := uuid.NewString()

	ok, err := c.rdb.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("获取锁 %s 失败: %w", name, err)
	}
	if !ok {
		return nil, pkgerrors.ErrResourceBusy
	}

	release := func(ctx context.Context) error {
		if err := releaseScript.Run(ctx, c.rdb, []string{key}, token).Err(); err != nil && !errors.Is(err, goredis.Nil) {
			c.logger.Warn("释放锁失败", zap.String("lock", name), zap.Error(err))
			return err
		}
		return nil
	}
	return release, nil
}

// ── 限流 ──

const rateLimitPrefix = "layup:ratelimit:"

// CheckRateLimit 固定窗口计数限流：窗口内第 limit+1 次起返回 false
func (c *Client) CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	k := rateLimitPrefix + key

	// SET NX EX 与 INCR 在同一 MULTI 中执行，计数键一经创建必带过期时间
	var incr *goredis.IntCmd
	_, err := c.rdb.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		pipe.SetNX(ctx, k, 0, window)
		incr = pipe.Incr(ctx, k)
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("限流计数失败: %w", err)
	}
	return incr.Val() <= int64(limit), nil
}

// Ping 健康检查
func (c *Client) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

// Close 关闭 Redis 连接
func (c *Client) Close() error {
	return c.rdb.Close()
}
