package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/bdticketpro/backoffice/config"
	"github.com/bdticketpro/backoffice/internal/domain"
	"github.com/redis/go-redis/v9"
)

type RedisCache struct {
	client     *redis.Client
	ticketsTTL time.Duration
}

func NewRedisCache(cfg config.RedisConfig, ticketsTTL time.Duration) *RedisCache {
	return &RedisCache{
		client:     redis.NewClient(&redis.Options{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB}),
		ticketsTTL: ticketsTTL,
	}
}

func (c *RedisCache) GetTickets(ctx context.Context, country string) ([]domain.Ticket, error) {
	data, err := c.client.Get(ctx, ticketsKey(country)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, err
	}

	var tickets []domain.Ticket
	if err := json.Unmarshal(data, &tickets); err != nil {
		return nil, err
	}
	return tickets, nil
}

func (c *RedisCache) SetTickets(ctx context.Context, country string, tickets []domain.Ticket) error {
	payload, err := json.Marshal(tickets)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, ticketsKey(country), payload, c.ticketsTTL).Err()
}

func (c *RedisCache) InvalidateTickets(ctx context.Context, country string) error {
	return c.client.Del(ctx, ticketsKey(country)).Err()
}

// AcquireTicketLock takes a short create lock for a ticket so two agents
// filling the wizard at once fail fast instead of both hitting the store.
// The database constraint remains the source of truth.
func (c *RedisCache) AcquireTicketLock(ctx context.Context, ticketID int64, ttl time.Duration) (bool, error) {
	return c.client.SetNX(ctx, ticketLockKey(ticketID), "locked", ttl).Result()
}

func (c *RedisCache) ReleaseTicketLock(ctx context.Context, ticketID int64) error {
	return c.client.Del(ctx, ticketLockKey(ticketID)).Err()
}

func ticketsKey(country string) string {
	if country == "" {
		return "cache:tickets:all"
	}
	return "cache:tickets:" + country
}

func ticketLockKey(ticketID int64) string {
	return fmt.Sprintf("lock:ticket:%d", ticketID)
}
