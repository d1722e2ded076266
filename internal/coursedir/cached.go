package coursedir

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"tams/internal/model"
)

// Directory 课程服务查询接口
type Directory interface {
	GetCourse(ctx context.Context, courseID string) (*model.Course, error)
	IsResponsibleLecturer(ctx context.Context, netID, courseID string) (bool, error)
}

// Cache JSON 缓存；*redis.Client 与 LocalCache 均满足
type Cache interface {
	GetJSON(ctx context.Context, key string, dst interface{}) (bool, error)
	SetJSON(ctx context.Context, key string, v interface{}, ttl time.Duration) error
}

const (
	courseKeyPrefix   = "course:"
	lecturerKeyPrefix = "course_lecturer:"
)

// Cached 带缓存的 Directory：只缓存成功结果，并发未命中合并为一次上游请求
type Cached struct {
	next    Directory
	cache   Cache
	ttl     time.Duration
	timeout time.Duration
	group   singleflight.Group
	logger  *zap.Logger
}

// NewCached 创建带缓存的 Directory；timeout 约束合并后的上游请求
func NewCached(next Directory, cache Cache, ttl, timeout time.Duration, logger *zap.Logger) *Cached {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Cached{next: next, cache: cache, ttl: ttl, timeout: timeout, logger: logger}
}

// fetchContext 合并请求由多个调用方共享，不随首个调用方取消，只受超时约束
func (c *Cached) fetchContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), c.timeout)
}

func (c *Cached) GetCourse(ctx context.Context, courseID string) (*model.Course, error) {
	key := courseKeyPrefix + courseID

	var course model.Course
	if c.lookup(ctx, key, &course) {
		return &course, nil
	}

	v, err, _ := c.group.Do(key, func() (interface{}, error) {
		fctx, cancel := c.fetchContext(ctx)
		defer cancel()

		fetched, err := c.next.GetCourse(fctx, courseID)
		if err != nil {
			return nil, err
		}
		c.store(fctx, key, fetched)
		return fetched, nil
	})
	if err != nil {
		return nil, err
	}
	out := *v.(*model.Course)
	return &out, nil
}

func (c *Cached) IsResponsibleLecturer(ctx context.Context, netID, courseID string) (bool, error) {
	key := fmt.Sprintf("%s%s:%s", lecturerKeyPrefix, courseID, netID)

	var ok bool
	if c.lookup(ctx, key, &ok) {
		return ok, nil
	}

	v, err, _ := c.group.Do(key, func() (interface{}, error) {
		fctx, cancel := c.fetchContext(ctx)
		defer cancel()

		responsible, err := c.next.IsResponsibleLecturer(fctx, netID, courseID)
		if err != nil {
			return false, err
		}
		c.store(fctx, key, responsible)
		return responsible, nil
	})
	if err != nil {
		return false, err
	}
	return v.(bool), nil
}

// lookup 缓存故障按未命中处理
func (c *Cached) lookup(ctx context.Context, key string, dst interface{}) bool {
	hit, err := c.cache.GetJSON(ctx, key, dst)
	if err != nil {
		c.logger.Warn("读取课程缓存失败", zap.String("key", key), zap.Error(err))
		return false
	}
	return hit
}

func (c *Cached) store(ctx context.Context, key string, v interface{}) {
	if err := c.cache.SetJSON(ctx, key, v, c.ttl); err != nil {
		c.logger.Warn("写入课程缓存失败", zap.String("key", key), zap.Error(err))
	}
}

// ── 进程内缓存（未配置 Redis 时使用） ──

// LocalCache 基于 go-cache 的进程内 JSON 缓存
type LocalCache struct {
	c *gocache.Cache
}

var _ Cache = (*LocalCache)(nil)

// NewLocalCache 创建进程内缓存，defaultTTL 同时决定清理周期
func NewLocalCache(defaultTTL time.Duration) *LocalCache {
	return &LocalCache{c: gocache.New(defaultTTL, 2*defaultTTL)}
}

func (l *LocalCache) GetJSON(_ context.Context, key string, dst interface{}) (bool, error) {
	raw, ok := l.c.Get(key)
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(raw.([]byte), dst); err != nil {
		return false, fmt.Errorf("缓存反序列化失败 %s: %w", key, err)
	}
	return true, nil
}

func (l *LocalCache) SetJSON(_ context.Context, key string, v interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	l.c.Set(key, raw, ttl)
	return nil
}
