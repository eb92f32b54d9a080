package genstore

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"
)

// RedisGenStore keeps run counters in Redis under "runs:<ns>:<scenario>", so
// history written by one gopals invocation stays valid for the next.
// The client is borrowed: Close leaves it open.
type RedisGenStore struct {
	rdb redis.UniversalClient
	ns  string // should match Options.Namespace
}

var _ GenStore = (*RedisGenStore)(nil)

func NewRedisGenStore(client redis.UniversalClient, namespace string) *RedisGenStore {
	return &RedisGenStore{rdb: client, ns: namespace}
}

func (s *RedisGenStore) key(scenario string) string { return "runs:" + s.ns + ":" + scenario }

// parseRun reads a counter as returned by GET or MGET; nil is a counter
// that was never set.
func parseRun(scenario string, v any) (uint64, error) {
	var str string
	switch vv := v.(type) {
	case nil:
		return 0, nil
	case string:
		str = vv
	case []byte:
		str = string(vv)
	default:
		str = fmt.Sprint(vv)
	}
	u, err := strconv.ParseUint(str, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("run counter for %q: %w", scenario, err)
	}
	return u, nil
}

func (s *RedisGenStore) Current(ctx context.Context, scenario string) (uint64, error) {
	res, err := s.rdb.Get(ctx, s.key(scenario)).Result()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return parseRun(scenario, res)
}

// CurrentMany reads every counter with one MGET.
func (s *RedisGenStore) CurrentMany(ctx context.Context, scenarios []string) (map[string]uint64, error) {
	out := make(map[string]uint64, len(scenarios))
	if len(scenarios) == 0 {
		return out, nil
	}
	keys := make([]string, len(scenarios))
	for i, name := range scenarios {
		keys[i] = s.key(name)
	}
	vals, err := s.rdb.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}
	for i, v := range vals {
		u, err := parseRun(scenarios[i], v)
		if err != nil {
			return nil, err
		}
		out[scenarios[i]] = u
	}
	return out, nil
}

func (s *RedisGenStore) Next(ctx context.Context, scenario string) (uint64, error) {
	v, err := s.rdb.Incr(ctx, s.key(scenario)).Result()
	if err != nil {
		return 0, err
	}
	return uint64(v), nil
}

func (s *RedisGenStore) Close(context.Context) error { return nil }
