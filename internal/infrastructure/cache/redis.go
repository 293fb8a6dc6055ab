package cache

import (
	"os"
	"strconv"

	"github.com/redis/go-redis/v9"
)

// NewRedisFromEnv opens a Redis client from REDIS_HOST/REDIS_PORT/REDIS_PASS/
// REDIS_DB. Returns nil when REDIS_HOST is unset: caching is optional and the
// service runs fine without it.
func NewRedisFromEnv() *redis.Client {
	host := os.Getenv("REDIS_HOST")
	if host == "" {
		return nil
	}
	port := os.Getenv("REDIS_PORT")
	if port == "" {
		port = "6379"
	}
	pass := os.Getenv("REDIS_PASS")

	db := 0
	if v := os.Getenv("REDIS_DB"); v != "" {
		// parse errors fall back to DB 0
		if n, _ := strconv.Atoi(v); n >= 0 {
			db = n
		}
	}

	return redis.NewClient(&redis.Options{Addr: host + ":" + port, Password: pass, DB: db})
}
