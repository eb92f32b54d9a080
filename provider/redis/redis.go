package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	pr "github.com/unkn0wn-root/gopals/provider"
)

var ErrNilClient = errors.New("redis provider: nil client")

// Redis keeps run history in a shared Redis so that several gopals
// invocations (or CI jobs) see each other's results. Pair it with
// genstore.NewRedisGenStore over the same client.
type Redis struct {
	rdb  goredis.UniversalClient
	owns bool
}

var _ pr.Provider = (*Redis)(nil)

// New wraps a client the caller keeps ownership of; Close leaves it open.
func New(client goredis.UniversalClient) (*Redis, error) {
	if client == nil {
		return nil, ErrNilClient
	}
	return &Redis{rdb: client}, nil
}

// Dial connects to addr and checks the server answers PING. The returned
// provider owns its client and closes it on Close.
func Dial(ctx context.Context, addr string) (*Redis, error) {
	client := goredis.NewClient(&goredis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis provider: ping %s: %w", addr, err)
	}
	return &Redis{rdb: client, owns: true}, nil
}

// Client returns the underlying client for sharing with a run counter store.
func (p *Redis) Client() goredis.UniversalClient { return p.rdb }

func (p *Redis) Get(ctx context.Context, key string) ([]byte, bool, error) {
	b, err := p.rdb.Get(ctx, key).Bytes()
	switch {
	case errors.Is(err, goredis.Nil):
		return nil, false, nil
	case err != nil:
		return nil, false, err
	}
	return b, true, nil
}

// Set writes with SET ... PX; a non-positive ttl keeps the key forever.
func (p *Redis) Set(ctx context.Context, key string, value []byte, _ int64, ttl time.Duration) (bool, error) {
	if err := p.rdb.Set(ctx, key, value, max(ttl, 0)).Err(); err != nil {
		return false, err
	}
	return true, nil
}

func (p *Redis) Del(ctx context.Context, key string) error {
	return p.rdb.Del(ctx, key).Err()
}

// Close is safe to call more than once.
func (p *Redis) Close(context.Context) error {
	if !p.owns {
		return nil
	}
	if err := p.rdb.Close(); err != nil && !errors.Is(err, goredis.ErrClosed) {
		return err
	}
	return nil
}
