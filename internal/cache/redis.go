package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"todo-api/internal/models"
	"todo-api/pkg/logger"
)

// ListKey identifies one cached list page. Gen is the owner's generation
// read before the page was loaded; Invalidate moves the owner to a new
// generation, so pages stored under an older one are never read again.
type ListKey struct {
	OwnerID string
	Gen     int64
	Filter  models.TodoFilter
	Page    models.Page
}

func (k ListKey) String() string {
	completed := "any"
	if k.Filter.Completed != nil {
		completed = strconv.FormatBool(*k.Filter.Completed)
	}
	return fmt.Sprintf("todos:%s:g=%d:c=%s:l=%d:o=%d", k.OwnerID, k.Gen, completed, k.Page.Limit, k.Page.Offset)
}

// genKey holds the owner's current generation. It has no TTL.
func genKey(ownerID string) string {
	return "todos:" + ownerID + ":gen"
}

// genSeed starts a missing generation counter at a value no earlier counter
// for that owner could have reached, so an evicted counter cannot bring an
// old generation back.
func genSeed() int64 {
	return time.Now().UnixNano()
}

// TodoCache is a read-through cache of per-owner list pages. A nil
// *TodoCache is valid and caches nothing.
type TodoCache struct {
	client *redis.Client
	ttl    time.Duration
}

// New connects to Redis at url and pings it.
func New(ctx context.Context, url string, poolSize int, ttl time.Duration) (*TodoCache, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("cache: invalid REDIS_URL: %w", err)
	}
	if poolSize > 0 {
		opts.PoolSize = poolSize
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("cache: ping: %w", err)
	}
	logger.Info(ctx, "Redis client initialized", "pool_size", opts.PoolSize)
	return NewWithClient(client, ttl), nil
}

func NewWithClient(client *redis.Client, ttl time.Duration) *TodoCache {
	return &TodoCache{client: client, ttl: ttl}
}

// GetList returns the cached page. Misses and Redis errors both report false.
func (c *TodoCache) GetList(ctx context.Context, k ListKey) ([]models.Todo, bool) {
	if c == nil {
		return nil, false
	}
	b, err := c.client.Get(ctx, k.String()).Bytes()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		logger.Debug(ctx, "Redis get todos failed", "error", err)
		return nil, false
	}
	var cached []cachedTodo
	if err := json.Unmarshal(b, &cached); err != nil {
		logger.Debug(ctx, "Redis unmarshal todos failed", "error", err)
		return nil, false
	}
	todos := make([]models.Todo, len(cached))
	for i, ct := range cached {
		todos[i] = ct.Todo
		todos[i].OwnerID = ct.OwnerID
	}
	return todos, true
}

// Generation returns the owner's current generation. ok is false when Redis
// cannot answer; the caller must then bypass the cache.
func (c *TodoCache) Generation(ctx context.Context, ownerID string) (int64, bool) {
	if c == nil {
		return 0, false
	}
	var get *redis.StringCmd
	_, err := c.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.SetNX(ctx, genKey(ownerID), genSeed(), 0)
		get = p.Get(ctx, genKey(ownerID))
		return nil
	})
	if err != nil {
		logger.Debug(ctx, "Redis read generation failed", "error", err, "owner_id", ownerID)
		return 0, false
	}
	gen, err := get.Int64()
	if err != nil {
		logger.Debug(ctx, "Redis parse generation failed", "error", err, "owner_id", ownerID)
		return 0, false
	}
	return gen, true
}

// SetList stores a page under its key's generation.
func (c *TodoCache) SetList(ctx context.Context, k ListKey, todos []models.Todo) {
	if c == nil {
		return
	}
	b, err := json.Marshal(cachedTodos(todos))
	if err != nil {
		logger.Debug(ctx, "Marshal todos for cache failed", "error", err)
		return
	}
	if err := c.client.Set(ctx, k.String(), b, c.ttl).Err(); err != nil {
		logger.Debug(ctx, "Redis set todos failed", "error", err)
	}
}

// Invalidate moves the owner to a new generation in one step. Pages of
// older generations stay until their TTL but are unreachable.
func (c *TodoCache) Invalidate(ctx context.Context, ownerID string) {
	if c == nil {
		return
	}
	_, err := c.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.SetNX(ctx, genKey(ownerID), genSeed(), 0)
		p.Incr(ctx, genKey(ownerID))
		return nil
	})
	if err != nil {
		logger.Warn(ctx, "Redis invalidate todos failed", "error", err, "owner_id", ownerID)
	}
}

func (c *TodoCache) Ping(ctx context.Context) error {
	if c == nil {
		return nil
	}
	return c.client.Ping(ctx).Err()
}

func (c *TodoCache) Close() error {
	if c == nil {
		return nil
	}
	return c.client.Close()
}

// cachedTodo keeps the owner id, which the API view omits.
type cachedTodo struct {
	models.Todo
	OwnerID string `json:"owner_id"`
}

func cachedTodos(todos []models.Todo) []cachedTodo {
	out := make([]cachedTodo, len(todos))
	for i, t := range todos {
		out[i] = cachedTodo{Todo: t, OwnerID: t.OwnerID}
	}
	return out
}
