package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"mess-backend/models"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// SummaryCache memoizes computed monthly summaries behind two version
// counters: a roster version per mess (bumped on any membership change,
// since the equal split of every month depends on the current roster) and a
// ledger version per mess+month (bumped on any ledger write). The combined
// version is part of the cache key and doubles as the summary ETag, so a
// completed write makes every stale entry unreachable and readers see their
// own writes without ever racing a concurrent fill.
type SummaryCache interface {
	Version(ctx context.Context, messID uuid.UUID, month string) (string, error)
	Get(ctx context.Context, messID uuid.UUID, month, version string) (*models.MonthlySummary, bool)
	Set(ctx context.Context, messID uuid.UUID, month, version string, summary *models.MonthlySummary)
	InvalidateMonth(ctx context.Context, messID uuid.UUID, month string) error
	InvalidateMess(ctx context.Context, messID uuid.UUID) error
}

// ---- Redis implementation ----

const summaryTTL = 24 * time.Hour

type RedisSummaryCache struct {
	client *redis.Client
}

func NewRedisSummaryCache(client *redis.Client) *RedisSummaryCache {
	return &RedisSummaryCache{client: client}
}

func rosterVerKey(messID uuid.UUID) string {
	return "mess:ver:" + messID.String()
}

func ledgerVerKey(messID uuid.UUID, month string) string {
	return fmt.Sprintf("ledger:ver:%s:%s", messID, month)
}

func summaryKey(messID uuid.UUID, month, version string) string {
	return fmt.Sprintf("summary:%s:%s:%s", messID, month, version)
}

func (c *RedisSummaryCache) Version(ctx context.Context, messID uuid.UUID, month string) (string, error) {
	rosterVer, err := c.counter(ctx, rosterVerKey(messID))
	if err != nil {
		return "", err
	}
	ledgerVer, err := c.counter(ctx, ledgerVerKey(messID, month))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%d.%d", rosterVer, ledgerVer), nil
}

func (c *RedisSummaryCache) counter(ctx context.Context, key string) (int64, error) {
	val, err := c.client.Get(ctx, key).Int64()
	if err == redis.Nil {
		return 0, nil
	}
	return val, err
}

func (c *RedisSummaryCache) Get(ctx context.Context, messID uuid.UUID, month, version string) (*models.MonthlySummary, bool) {
	data, err := c.client.Get(ctx, summaryKey(messID, month, version)).Bytes()
	if err != nil {
		return nil, false
	}
	var summary models.MonthlySummary
	if err := json.Unmarshal(data, &summary); err != nil {
		return nil, false
	}
	return &summary, true
}

func (c *RedisSummaryCache) Set(ctx context.Context, messID uuid.UUID, month, version string, summary *models.MonthlySummary) {
	data, err := json.Marshal(summary)
	if err != nil {
		return
	}
	c.client.Set(ctx, summaryKey(messID, month, version), data, summaryTTL)
}

func (c *RedisSummaryCache) InvalidateMonth(ctx context.Context, messID uuid.UUID, month string) error {
	return c.client.Incr(ctx, ledgerVerKey(messID, month)).Err()
}

func (c *RedisSummaryCache) InvalidateMess(ctx context.Context, messID uuid.UUID) error {
	return c.client.Incr(ctx, rosterVerKey(messID)).Err()
}

// ---- In-process implementation ----

// MemorySummaryCache backs the same contract with process-local state, used
// when Redis is unavailable and in tests.
type MemorySummaryCache struct {
	mu         sync.Mutex
	rosterVers map[uuid.UUID]int64
	ledgerVers map[string]int64
	summaries  map[string]models.MonthlySummary
}

func NewMemorySummaryCache() *MemorySummaryCache {
	return &MemorySummaryCache{
		rosterVers: make(map[uuid.UUID]int64),
		ledgerVers: make(map[string]int64),
		summaries:  make(map[string]models.MonthlySummary),
	}
}

func (c *MemorySummaryCache) Version(ctx context.Context, messID uuid.UUID, month string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return fmt.Sprintf("%d.%d", c.rosterVers[messID], c.ledgerVers[messID.String()+month]), nil
}

func (c *MemorySummaryCache) Get(ctx context.Context, messID uuid.UUID, month, version string) (*models.MonthlySummary, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	summary, ok := c.summaries[summaryKey(messID, month, version)]
	if !ok {
		return nil, false
	}
	return &summary, true
}

func (c *MemorySummaryCache) Set(ctx context.Context, messID uuid.UUID, month, version string, summary *models.MonthlySummary) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.summaries[summaryKey(messID, month, version)] = *summary
}

func (c *MemorySummaryCache) InvalidateMonth(ctx context.Context, messID uuid.UUID, month string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ledgerVers[messID.String()+month]++
	return nil
}

func (c *MemorySummaryCache) InvalidateMess(ctx context.Context, messID uuid.UUID) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rosterVers[messID]++
	return nil
}
