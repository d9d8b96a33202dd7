package config

// This file defines a Redis client constructor for the application.  Redis is
// used for distributed rate limiting and HTTP response caching.  If the
// connection fails during startup, the function returns nil and callers
// degrade gracefully by disabling caching and rate limiting.

import (
	"context"
	"crypto/tls"
	"os"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// NewRedisClient instantiates a Redis client using environment variables.
// Supported variables are:
//
//	REDIS_ADDR     host:port (default localhost:6379); REDIS_HOST + REDIS_PORT override it
//	REDIS_PASSWORD optional password
//	REDIS_DB       database number (default 0)
//	REDIS_TLS      enable TLS when "true" or "1"
//
// The returned client is nil if a connection cannot be established.
func NewRedisClient() *redis.Client {
	addr := getenv("REDIS_ADDR", "localhost:6379")
	if host, port := os.Getenv("REDIS_HOST"), os.Getenv("REDIS_PORT"); host != "" && port != "" {
		addr = host + ":" + port
	}
	var tlsConf *tls.Config
	if v := os.Getenv("REDIS_TLS"); strings.EqualFold(v, "true") || v == "1" {
		tlsConf = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	client := redis.NewClient(&redis.Options{
		Addr:      addr,
		Password:  os.Getenv("REDIS_PASSWORD"),
		DB:        envInt("REDIS_DB", 0),
		TLSConfig: tlsConf,
	})
	// Ping the server with a short timeout.  Return nil on failure.
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil
	}
	return client
}
