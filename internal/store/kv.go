// Package store persists leads, engagements and the brand profile as whole
// JSON documents under a few well-known keys.
package store

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/redis/go-redis/v9"

	"linkedva-engine/internal/config"
)

var ErrNotFound = errors.New("not found")

const (
	KeyLeads        = "leads"
	KeyEngagements  = "engagements"
	KeyBrandProfile = "brandProfile"
)

// KV is a flat key/value document store.
type KV interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Put(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Redis keeps documents as plain string keys under a prefix.
type Redis struct {
	Client *redis.Client
	Prefix string
}

func NewRedis(addr string, db int, prefix string) *Redis {
	rdb := redis.NewClient(&redis.Options{
		Addr:         addr,
		DB:           db,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})
	return &Redis{Client: rdb, Prefix: prefix}
}

func (r *Redis) Ping(ctx context.Context) error {
	if err := r.Client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

func (r *Redis) Get(ctx context.Context, key string) ([]byte, bool, error) {
	v, err := r.Client.Get(ctx, r.Prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return v, true, nil
}

func (r *Redis) Put(ctx context.Context, key string, value []byte) error {
	return r.Client.Set(ctx, r.Prefix+key, value, 0).Err()
}

func (r *Redis) Delete(ctx context.Context, key string) error {
	return r.Client.Del(ctx, r.Prefix+key).Err()
}

func (r *Redis) Close() error {
	if r.Client != nil {
		return r.Client.Close()
	}
	return nil
}

// OpenKV opens the backend named in cfg. The sqlite file lives in dataDir.
func OpenKV(ctx context.Context, cfg config.Config, dataDir string) (KV, error) {
	switch cfg.Store.Backend {
	case "", "sqlite":
		return OpenSQLite(ctx, filepath.Join(dataDir, "linkedva.db"))
	case "redis":
		r := NewRedis(cfg.Store.RedisAddr, cfg.Store.RedisDB, cfg.Store.RedisPrefix)
		if err := r.Ping(ctx); err != nil {
			_ = r.Close()
			return nil, err
		}
		return r, nil
	}
	return nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
}
