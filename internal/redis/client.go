package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/mossy-p/roulette-signaling/config"
	"github.com/redis/go-redis/v9"
)

const (
	onlineKey     = "roulette:online"
	matchTotalKey = "roulette:matches:total"

	// Presence entries outlive a crashed process for at most this long.
	onlineTTL = 24 * time.Hour
)

// Connect initializes a Redis client and checks the connection
func Connect(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return client, nil
}

// Store mirrors relay presence into Redis so other processes can read it.
// It is never consulted for matchmaking decisions.
type Store struct {
	client *redis.Client
}

func NewStore(client *redis.Client) *Store {
	return &Store{client: client}
}

// Online records a live connection
func (s *Store) Online(ctx context.Context, connID string) error {
	pipe := s.client.TxPipeline()
	pipe.SAdd(ctx, onlineKey, connID)
	pipe.Expire(ctx, onlineKey, onlineTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to record online connection: %w", err)
	}
	return nil
}

// Offline removes a connection from the online set
func (s *Store) Offline(ctx context.Context, connID string) error {
	if err := s.client.SRem(ctx, onlineKey, connID).Err(); err != nil {
		return fmt.Errorf("failed to remove online connection: %w", err)
	}
	return nil
}

// RecordMatch increments the lifetime match counter
func (s *Store) RecordMatch(ctx context.Context) error {
	if err := s.client.Incr(ctx, matchTotalKey).Err(); err != nil {
		return fmt.Errorf("failed to record match: %w", err)
	}
	return nil
}

// OnlineCount returns the size of the online set
func (s *Store) OnlineCount(ctx context.Context) (int64, error) {
	n, err := s.client.SCard(ctx, onlineKey).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to read online count: %w", err)
	}
	return n, nil
}

// MatchTotal returns the lifetime match counter, zero when it was never set
func (s *Store) MatchTotal(ctx context.Context) (int64, error) {
	n, err := s.client.Get(ctx, matchTotalKey).Int64()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read match total: %w", err)
	}
	return n, nil
}

// Reset clears presence left behind by a previous run of this process
func (s *Store) Reset(ctx context.Context) error {
	if err := s.client.Del(ctx, onlineKey).Err(); err != nil {
		return fmt.Errorf("failed to reset presence: %w", err)
	}
	return nil
}
