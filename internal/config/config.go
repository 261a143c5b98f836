package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	TokenStoreFile  = "file"
	TokenStoreRedis = "redis"
)

type Config struct {
	API        APIConfig
	TokenStore TokenStoreConfig
	Redis      RedisConfig
	Search     SearchConfig
	Log        LogConfig
	DevServer  DevServerConfig
}

type APIConfig struct {
	BaseURL string
	Timeout time.Duration
}

type TokenStoreConfig struct {
	Kind string // file or redis
	Path string // file store location; empty means the user config dir
}

type RedisConfig struct {
	URL string
}

type SearchConfig struct {
	Debounce time.Duration
}

type LogConfig struct {
	Level string
}

type DevServerConfig struct {
	Addr            string
	JWTSecret       string
	TokenTTL        time.Duration
	RateLimit       string // ulule limiter format, e.g. 100-M
	CORSOrigins     []string
	LockoutAttempts int
	LockoutCooldown time.Duration
}

// Load reads TASKEE_* environment variables, optionally layered over the
// file named by CONFIG_FILE.
func Load() (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("TASKEE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("api.base_url", "http://localhost:8000")
	v.SetDefault("api.timeout", "100s")
	v.SetDefault("token.store", TokenStoreFile)
	v.SetDefault("token.file", "")
	v.SetDefault("redis.url", "")
	v.SetDefault("search.debounce", "500ms")
	v.SetDefault("log.level", "info")
	v.SetDefault("devserver.addr", ":8000")
	v.SetDefault("devserver.jwt_secret", "")
	v.SetDefault("devserver.token_ttl", "24h")
	v.SetDefault("devserver.rate_limit", "300-M")
	v.SetDefault("devserver.cors_origins", "*")
	v.SetDefault("devserver.lockout_attempts", 5)
	v.SetDefault("devserver.lockout_cooldown", "15m")

	if p := os.Getenv("CONFIG_FILE"); p != "" {
		v.SetConfigFile(p)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file %s: %w", p, err)
		}
	}

	cfg := &Config{
		API: APIConfig{
			BaseURL: strings.TrimRight(v.GetString("api.base_url"), "/"),
			Timeout: v.GetDuration("api.timeout"),
		},
		TokenStore: TokenStoreConfig{
			Kind: strings.ToLower(v.GetString("token.store")),
			Path: v.GetString("token.file"),
		},
		Redis:  RedisConfig{URL: v.GetString("redis.url")},
		Search: SearchConfig{Debounce: v.GetDuration("search.debounce")},
		Log:    LogConfig{Level: v.GetString("log.level")},
		DevServer: DevServerConfig{
			Addr:            v.GetString("devserver.addr"),
			JWTSecret:       v.GetString("devserver.jwt_secret"),
			TokenTTL:        v.GetDuration("devserver.token_ttl"),
			RateLimit:       v.GetString("devserver.rate_limit"),
			CORSOrigins:     splitList(v.GetString("devserver.cors_origins")),
			LockoutAttempts: v.GetInt("devserver.lockout_attempts"),
			LockoutCooldown: v.GetDuration("devserver.lockout_cooldown"),
		},
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.TokenStore.Kind {
	case TokenStoreFile:
	case TokenStoreRedis:
		if c.Redis.URL == "" {
			return fmt.Errorf("TASKEE_REDIS_URL is required when TASKEE_TOKEN_STORE=redis")
		}
	default:
		return fmt.Errorf("unknown token store %q", c.TokenStore.Kind)
	}
	if c.API.Timeout <= 0 {
		return fmt.Errorf("TASKEE_API_TIMEOUT must be positive")
	}
	if c.Search.Debounce < 0 {
		return fmt.Errorf("TASKEE_SEARCH_DEBOUNCE must not be negative")
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
