package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"orderstats/config"
	"orderstats/models"

	goredis "github.com/redis/go-redis/v9"
)

// Key layout:
//
//	user:<user_id>          hash  order_count, total_spend
//	global:stats            hash  total_orders, total_revenue
//	top:spend               zset  user_id -> cumulative spend
//	month:<YYYY-MM>         hash  orders, revenue
//	order_processed:<id>    string, TTL-bounded idempotency marker
const (
	userKeyPrefix      = "user:"
	globalStatsKey     = "global:stats"
	leaderboardKey     = "top:spend"
	monthKeyPrefix     = "month:"
	processedKeyPrefix = "order_processed:"
)

type Client struct {
	rdb    *goredis.Client
	config config.RedisConfig
}

func NewClient(cfg config.RedisConfig) (*Client, error) {
	rdb := goredis.NewClient(&goredis.Options{
		Addr:        cfg.Addr,
		DB:          cfg.DB,
		DialTimeout: 5 * time.Second,
	})

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to ping Redis: %w", err)
	}

	return &Client{
		rdb:    rdb,
		config: cfg,
	}, nil
}

func (c *Client) Close() error {
	return c.rdb.Close()
}

// ApplyOrder issues the full set of aggregate increments for one order as a
// single MULTI/EXEC pipeline: all seven commands commit together or not at
// all. The increments are cumulative, not idempotent; callers must gate
// redeliveries with IsDuplicate/MarkProcessed.
func (c *Client) ApplyOrder(ctx context.Context, order *models.Order) error {
	userKey := userKeyPrefix + order.UserID
	monthKey := monthKeyPrefix + order.Month()

	pipe := c.rdb.TxPipeline()
	pipe.HIncrBy(ctx, userKey, "order_count", 1)
	pipe.HIncrByFloat(ctx, userKey, "total_spend", order.OrderValue)

	pipe.HIncrBy(ctx, globalStatsKey, "total_orders", 1)
	pipe.HIncrByFloat(ctx, globalStatsKey, "total_revenue", order.OrderValue)

	// top-N leaderboard
	pipe.ZIncrBy(ctx, leaderboardKey, order.OrderValue, order.UserID)

	// monthly bucket
	pipe.HIncrBy(ctx, monthKey, "orders", 1)
	pipe.HIncrByFloat(ctx, monthKey, "revenue", order.OrderValue)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to apply order %s: %w", order.OrderID, err)
	}
	return nil
}

// IsDuplicate reports whether a non-expired marker exists for the order.
// It has no side effects.
func (c *Client) IsDuplicate(ctx context.Context, orderID string) (bool, error) {
	n, err := c.rdb.Exists(ctx, processedKeyPrefix+orderID).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check marker for %s: %w", orderID, err)
	}
	return n > 0, nil
}

// MarkProcessed records that the order's aggregate effects were applied.
// Called strictly after ApplyOrder succeeds.
func (c *Client) MarkProcessed(ctx context.Context, orderID string) error {
	err := c.rdb.Set(ctx, processedKeyPrefix+orderID, "1", c.config.IdempotencyTTL).Err()
	if err != nil {
		return fmt.Errorf("failed to mark %s processed: %w", orderID, err)
	}
	return nil
}

// UserStats returns the per-user counters, or nil when the user has no
// recorded orders.
func (c *Client) UserStats(ctx context.Context, userID string) (*models.UserStats, error) {
	data, err := c.rdb.HGetAll(ctx, userKeyPrefix+userID).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read user stats: %w", err)
	}
	if len(data) == 0 {
		return nil, nil
	}

	count, _ := strconv.ParseInt(data["order_count"], 10, 64)
	spend, _ := strconv.ParseFloat(data["total_spend"], 64)
	return &models.UserStats{
		UserID:     userID,
		OrderCount: count,
		TotalSpend: spend,
	}, nil
}

// GlobalStats returns the store-wide counters, zero-valued when nothing has
// been aggregated yet.
func (c *Client) GlobalStats(ctx context.Context) (*models.GlobalStats, error) {
	data, err := c.rdb.HGetAll(ctx, globalStatsKey).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read global stats: %w", err)
	}

	orders, _ := strconv.ParseInt(data["total_orders"], 10, 64)
	revenue, _ := strconv.ParseFloat(data["total_revenue"], 64)
	return &models.GlobalStats{
		TotalOrders:  orders,
		TotalRevenue: revenue,
	}, nil
}

// TopSpenders returns the n highest-spending users, best first.
func (c *Client) TopSpenders(ctx context.Context, n int64) ([]models.Spender, error) {
	entries, err := c.rdb.ZRevRangeWithScores(ctx, leaderboardKey, 0, n-1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read leaderboard: %w", err)
	}

	top := make([]models.Spender, 0, len(entries))
	for _, e := range entries {
		uid, _ := e.Member.(string)
		top = append(top, models.Spender{
			UserID:     uid,
			TotalSpend: e.Score,
		})
	}
	return top, nil
}

// MonthlyRange returns the existing month buckets between start and end
// (inclusive "YYYY-MM" strings).
func (c *Client) MonthlyRange(ctx context.Context, start, end string) (map[string]models.MonthStats, error) {
	out := make(map[string]models.MonthStats)
	for _, month := range monthsBetween(start, end) {
		key := monthKeyPrefix + month
		data, err := c.rdb.HGetAll(ctx, key).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to read month %s: %w", month, err)
		}
		if len(data) == 0 {
			continue
		}
		orders, _ := strconv.ParseInt(data["orders"], 10, 64)
		revenue, _ := strconv.ParseFloat(data["revenue"], 64)
		out[month] = models.MonthStats{Orders: orders, Revenue: revenue}
	}
	return out, nil
}

func monthsBetween(start, end string) []string {
	startYear, _ := strconv.Atoi(start[:4])
	endYear, _ := strconv.Atoi(end[:4])

	var months []string
	for y := startYear; y <= endYear; y++ {
		for m := 1; m <= 12; m++ {
			bucket := fmt.Sprintf("%04d-%02d", y, m)
			if bucket >= start && bucket <= end {
				months = append(months, bucket)
			}
		}
	}
	return months
}
