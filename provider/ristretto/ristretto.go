package ristretto

import (
	"context"
	"errors"
	"time"

	rc "github.com/dgraph-io/ristretto"

	pr "github.com/unkn0wn-root/gopals/provider"
)

// Provider keeps run history in process memory. History is lost with the
// process unless it is paired with a shared run counter store.
type Provider struct {
	c *rc.Cache
}

var _ pr.Provider = (*Provider)(nil)

// Config sizes the cache in records: the runner charges cost 1 per result
// record and the scenario count per run record.
type Config struct {
	MaxRecords int64
}

// DefaultConfig holds a few thousand results.
func DefaultConfig() Config { return Config{MaxRecords: 1 << 13} }

func New(cfg Config) (*Provider, error) {
	if cfg.MaxRecords <= 0 {
		return nil, errors.New("ristretto: MaxRecords must be positive")
	}
	c, err := rc.NewCache(&rc.Config{
		NumCounters: cfg.MaxRecords * 10, // ristretto recommends 10x the item count
		MaxCost:     cfg.MaxRecords,
		BufferItems: 64,
	})
	if err != nil {
		return nil, err
	}
	return &Provider{c: c}, nil
}

func (p *Provider) Get(_ context.Context, key string) ([]byte, bool, error) {
	v, ok := p.c.Get(key)
	if !ok {
		return nil, false, nil
	}
	b, ok := v.([]byte)
	if !ok {
		p.c.Del(key)
		return nil, false, nil
	}
	return b, true, nil
}

// Set stores a private copy of value and waits for ristretto's buffered
// write to land, so the next Get sees it.
func (p *Provider) Set(_ context.Context, key string, value []byte, cost int64, ttl time.Duration) (bool, error) {
	ok := p.c.SetWithTTL(key, append([]byte(nil), value...), max(cost, 1), max(ttl, 0))
	p.c.Wait()
	return ok, nil
}

func (p *Provider) Del(_ context.Context, key string) error {
	p.c.Del(key)
	return nil
}

func (p *Provider) Close(_ context.Context) error {
	p.c.Close()
	return nil
}
