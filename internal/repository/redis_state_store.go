package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"PairScout/internal/domain/models"
	domrepo "PairScout/internal/domain/repository"
)

const (
	watchlistKey  = "pairscout:watchlist"
	tradesKey     = "pairscout:trades"
	exclusionsKey = "pairscout:exclusions"
	schedStateKey = "pairscout:scheduler_state"
)

// RedisStateStore implements StateStore on Redis hashes. Watchlist entries
// and active trades are JSON values in per-kind hashes keyed by their stable
// identifier, so every write is an idempotent upsert.
type RedisStateStore struct {
	client *redis.Client
}

func NewRedisStateStore(client *redis.Client) *RedisStateStore {
	return &RedisStateStore{client: client}
}

var _ domrepo.StateStore = (*RedisStateStore)(nil)

func (s *RedisStateStore) UpsertWatchlistEntry(ctx context.Context, e *models.WatchlistEntry) error {
	return s.hsetJSON(ctx, watchlistKey, e.PairKey, e)
}

func (s *RedisStateStore) GetWatchlistEntry(ctx context.Context, pairKey string) (*models.WatchlistEntry, error) {
	var e models.WatchlistEntry
	ok, err := s.hgetJSON(ctx, watchlistKey, pairKey, &e)
	if err != nil || !ok {
		return nil, err
	}
	return &e, nil
}

func (s *RedisStateStore) ListWatchlist(ctx context.Context) ([]*models.WatchlistEntry, error) {
	vals, err := s.client.HGetAll(ctx, watchlistKey).Result()
	if err != nil {
		return nil, fmt.Errorf("list watchlist: %w", err)
	}
	out := make([]*models.WatchlistEntry, 0, len(vals))
	for field, raw := range vals {
		var e models.WatchlistEntry
		if err := json.Unmarshal([]byte(raw), &e); err != nil {
			return nil, fmt.Errorf("decode watchlist %s: %w", field, err)
		}
		out = append(out, &e)
	}
	return out, nil
}

func (s *RedisStateStore) DeleteWatchlistEntry(ctx context.Context, pairKey string) error {
	return s.client.HDel(ctx, watchlistKey, pairKey).Err()
}

func (s *RedisStateStore) UpsertActiveTrade(ctx context.Context, t *models.ActiveTrade) error {
	return s.hsetJSON(ctx, tradesKey, t.TradeKey, t)
}

func (s *RedisStateStore) GetActiveTrade(ctx context.Context, tradeKey string) (*models.ActiveTrade, error) {
	var t models.ActiveTrade
	ok, err := s.hgetJSON(ctx, tradesKey, tradeKey, &t)
	if err != nil || !ok {
		return nil, err
	}
	return &t, nil
}

func (s *RedisStateStore) ListActiveTrades(ctx context.Context) ([]*models.ActiveTrade, error) {
	vals, err := s.client.HGetAll(ctx, tradesKey).Result()
	if err != nil {
		return nil, fmt.Errorf("list trades: %w", err)
	}
	out := make([]*models.ActiveTrade, 0, len(vals))
	for field, raw := range vals {
		var t models.ActiveTrade
		if err := json.Unmarshal([]byte(raw), &t); err != nil {
			return nil, fmt.Errorf("decode trade %s: %w", field, err)
		}
		out = append(out, &t)
	}
	return out, nil
}

func (s *RedisStateStore) DeleteActiveTrade(ctx context.Context, tradeKey string) error {
	return s.client.HDel(ctx, tradesKey, tradeKey).Err()
}

func (s *RedisStateStore) AddExclusion(ctx context.Context, symbol string) error {
	return s.client.SAdd(ctx, exclusionsKey, symbol).Err()
}

func (s *RedisStateStore) RemoveExclusion(ctx context.Context, symbol string) error {
	return s.client.SRem(ctx, exclusionsKey, symbol).Err()
}

func (s *RedisStateStore) ListExclusions(ctx context.Context) ([]string, error) {
	return s.client.SMembers(ctx, exclusionsKey).Result()
}

func (s *RedisStateStore) GetSchedulerState(ctx context.Context) (*models.SchedulerState, error) {
	raw, err := s.client.Get(ctx, schedStateKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("get scheduler state: %w", err)
	}
	var st models.SchedulerState
	if err := json.Unmarshal(raw, &st); err != nil {
		return nil, fmt.Errorf("decode scheduler state: %w", err)
	}
	return &st, nil
}

func (s *RedisStateStore) SaveSchedulerState(ctx context.Context, st *models.SchedulerState) error {
	raw, err := json.Marshal(st)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, schedStateKey, raw, 0).Err()
}

func (s *RedisStateStore) hsetJSON(ctx context.Context, key, field string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return s.client.HSet(ctx, key, field, raw).Err()
}

func (s *RedisStateStore) hgetJSON(ctx context.Context, key, field string, dest any) (bool, error) {
	raw, err := s.client.HGet(ctx, key, field).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, err
	}
	return true, json.Unmarshal(raw, dest)
}
