package tokenstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/Nathan-Yinka/Project-management-application/internal/application/ports"
)

// RedisKey holds the token; changes are announced on RedisChannel.
const (
	RedisKey     = "taskee:" + ports.TokenKey
	RedisChannel = RedisKey + ":changed"
)

type change struct {
	Writer string `json:"writer"`
	Token  string `json:"token"`
}

// Redis shares the token between every client pointed at the same server.
type Redis struct {
	client *redis.Client
	writer string
	log    zerolog.Logger
}

// NewRedis returns a store on client.
func NewRedis(client *redis.Client, log zerolog.Logger) *Redis {
	return &Redis{
		client: client,
		writer: uuid.NewString(),
		log:    log.With().Str("component", "tokenstore").Str("backend", "redis").Logger(),
	}
}

// NewRedisFromURL parses a redis:// URL.
func NewRedisFromURL(url string, log zerolog.Logger) (*Redis, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	return NewRedis(redis.NewClient(opts), log), nil
}

func (r *Redis) Load(ctx context.Context) (string, error) {
	tok, err := r.client.Get(ctx, RedisKey).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("load token: %w", err)
	}
	return tok, nil
}

func (r *Redis) Save(ctx context.Context, token string) error {
	if err := r.client.Set(ctx, RedisKey, token, 0).Err(); err != nil {
		return fmt.Errorf("save token: %w", err)
	}
	return r.announce(ctx, token)
}

func (r *Redis) Clear(ctx context.Context) error {
	if err := r.client.Del(ctx, RedisKey).Err(); err != nil {
		return fmt.Errorf("clear token: %w", err)
	}
	return r.announce(ctx, "")
}

func (r *Redis) announce(ctx context.Context, token string) error {
	msg, err := json.Marshal(change{Writer: r.writer, Token: token})
	if err != nil {
		return err
	}
	if err := r.client.Publish(ctx, RedisChannel, msg).Err(); err != nil {
		return fmt.Errorf("announce token change: %w", err)
	}
	return nil
}

func (r *Redis) Watch(ctx context.Context, fn func(token string)) error {
	sub := r.client.Subscribe(ctx, RedisChannel)
	if _, err := sub.Receive(ctx); err != nil {
		sub.Close()
		return fmt.Errorf("subscribe token changes: %w", err)
	}
	ch := sub.Channel()
	go func() {
		defer sub.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case m, ok := <-ch:
				if !ok {
					return
				}
				var c change
				if err := json.Unmarshal([]byte(m.Payload), &c); err != nil {
					r.log.Warn().Err(err).Msg("malformed token change")
					continue
				}
				if c.Writer == r.writer {
					continue
				}
				fn(c.Token)
			}
		}
	}()
	return nil
}

// Close releases the connection pool.
func (r *Redis) Close() error { return r.client.Close() }

var _ ports.TokenStore = (*Redis)(nil)
