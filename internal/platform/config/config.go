package config

import (
	"os"
	"strconv"
)

// Config captures process-level configuration so main stays lean.
type Config struct {
	Addr          string
	DatabaseURL   string
	RedisURL      string
	JWTSigningKey string
	FeedLimit     int
}

// DefaultFeedLimit bounds the observation feed returned on full fetch.
const DefaultFeedLimit = 200

// FromEnv builds a Config from environment variables.
func FromEnv() Config {
	addr := os.Getenv("FIELDNET_ADDR")
	if addr == "" {
		addr = ":4000"
	}

	feedLimit := DefaultFeedLimit
	if v := os.Getenv("FIELDNET_FEED_LIMIT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			feedLimit = n
		}
	}

	return Config{
		Addr:          addr,
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		RedisURL:      os.Getenv("REDIS_URL"),
		JWTSigningKey: os.Getenv("JWT_SIGNING_KEY"),
		FeedLimit:     feedLimit,
	}
}
