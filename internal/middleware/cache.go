package middleware

import (
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/hackathon-range/shop-backend/internal/config"
)

// ResponseCache keeps successful catalog responses in Redis.  Entries are
// keyed under a generation number; Invalidate bumps the generation after
// every successful write so a hidden or repriced product never outlives
// the write that changed it.  A nil client or a disabled config turns
// every method into a pass-through.
type ResponseCache struct {
	cfg config.CacheConfig
	rdb *redis.Client
}

// NewResponseCache returns a cache over rdb.
func NewResponseCache(cfg config.CacheConfig, rdb *redis.Client) *ResponseCache {
	if cfg.TTL <= 0 {
		cfg.TTL = 30 * time.Second
	}
	return &ResponseCache{cfg: cfg, rdb: rdb}
}

func (rc *ResponseCache) enabled() bool { return rc != nil && rc.cfg.Enabled && rc.rdb != nil }

func (rc *ResponseCache) genKey() string { return rc.cfg.Prefix + ":gen" }

// generation returns the current generation; 0 when unset or unreadable.
func (rc *ResponseCache) generation(ctx context.Context) int64 {
	n, err := rc.rdb.Get(ctx, rc.genKey()).Int64()
	if err != nil {
		return 0
	}
	return n
}

// captureWriter tees the response body into buf while forwarding it.
// overflow is set once the body exceeds limit; such responses are not
// stored.
type captureWriter struct {
	http.ResponseWriter
	status   int
	buf      bytes.Buffer
	limit    int
	overflow bool
}

func (cw *captureWriter) WriteHeader(code int) { cw.status = code; cw.ResponseWriter.WriteHeader(code) }

func (cw *captureWriter) Write(b []byte) (int, error) {
	if !cw.overflow {
		if cw.limit > 0 && cw.buf.Len()+len(b) > cw.limit {
			cw.overflow = true
			cw.buf.Reset()
		} else {
			cw.buf.Write(b)
		}
	}
	return cw.ResponseWriter.Write(b)
}

func (cw *captureWriter) Flush() {
	if f, ok := cw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// cacheKeyFrom builds the entry key for c under generation gen.  The
// request path is used rather than the route pattern so /products/1 and
// /products/2 never share an entry.  Strategies starting with "role_" add
// the caller's role, which catalog routes need because anonymous callers,
// customers and admins see different products.
func cacheKeyFrom(cfg config.CacheConfig, gen int64, c echo.Context) string {
	r := c.Request()
	path := r.URL.Path
	query := r.URL.Query().Encode() // sorted, so ?a=1&b=2 and ?b=2&a=1 collide

	var parts []string
	strategy := strings.ToLower(cfg.KeyStrategy)
	if rest, ok := strings.CutPrefix(strategy, "role_"); ok {
		parts = append(parts, "role", userRole(c))
		strategy = rest
	}
	switch strategy {
	case "route":
		parts = append(parts, "route", path)
	case "method_route":
		parts = append(parts, "method", r.Method, "route", path)
	case "method_route_query":
		parts = append(parts, "method", r.Method, "route", path, "q", query)
	default: // "route_query"
		parts = append(parts, "route", path, "q", query)
	}

	sum := sha1.Sum([]byte(strings.Join(parts, ":")))
	return fmt.Sprintf("%s:%d:%x", cfg.Prefix, gen, sum[:])
}

// encodePayload packs: [4 bytes status][4 bytes headerLen][headerJSON][body]
func encodePayload(status int, header http.Header, body []byte) ([]byte, error) {
	hj, err := json.Marshal(header)
	if err != nil {
		return nil, err
	}
	out := make([]byte, 8+len(hj)+len(body))
	binary.BigEndian.PutUint32(out[0:4], uint32(status))
	binary.BigEndian.PutUint32(out[4:8], uint32(len(hj)))
	copy(out[8:], hj)
	copy(out[8+len(hj):], body)
	return out, nil
}

func decodePayload(bs []byte) (status int, header http.Header, body []byte, ok bool) {
	if len(bs) < 8 {
		return 0, nil, nil, false
	}
	status = int(binary.BigEndian.Uint32(bs[0:4]))
	hlen := int(binary.BigEndian.Uint32(bs[4:8]))
	if hlen < 0 || 8+hlen > len(bs) {
		return 0, nil, nil, false
	}
	if err := json.Unmarshal(bs[8:8+hlen], &header); err != nil {
		return 0, nil, nil, false
	}
	return status, header, bs[8+hlen:], true
}

// storedHeaders copies the response headers worth replaying on a hit.
// Cookies and framing headers are never stored.
func storedHeaders(h http.Header) http.Header {
	out := make(http.Header, len(h))
	for k, vals := range h {
		switch http.CanonicalHeaderKey(k) {
		case "Set-Cookie", "Content-Length", "X-Cache":
			continue
		}
		out[k] = append([]string(nil), vals...)
	}
	return out
}

// Middleware serves cached responses for the configured methods and
// stores 200 responses on a miss.  It must run after OptionalAuth when
// the key strategy is role-aware.  Requests sending
// "Cache-Control: no-store" bypass the cache.
func (rc *ResponseCache) Middleware() echo.MiddlewareFunc {
	if !rc.enabled() {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			if !rc.cfg.Methods[strings.ToUpper(req.Method)] || req.Header.Get("Cache-Control") == "no-store" {
				return next(c)
			}

			ctx := req.Context()
			key := cacheKeyFrom(rc.cfg, rc.generation(ctx), c)

			if bs, err := rc.rdb.Get(ctx, key).Bytes(); err == nil {
				if status, hdr, body, ok := decodePayload(bs); ok {
					for k, vals := range hdr {
						for _, v := range vals {
							c.Response().Header().Add(k, v)
						}
					}
					c.Response().Header().Set("X-Cache", "HIT")
					c.Response().WriteHeader(status)
					_, _ = c.Response().Write(body)
					return nil
				}
			}

			cw := &captureWriter{ResponseWriter: c.Response().Writer, status: http.StatusOK, limit: rc.cfg.MaxBodyBytes}
			c.Response().Writer = cw
			c.Response().Header().Set("X-Cache", "MISS")

			if err := next(c); err != nil {
				return err
			}
			if cw.status != http.StatusOK || cw.overflow {
				return nil
			}
			payload, err := encodePayload(cw.status, storedHeaders(c.Response().Header()), cw.buf.Bytes())
			if err != nil {
				return nil
			}
			if err := rc.rdb.SetEx(context.WithoutCancel(ctx), key, payload, rc.cfg.TTL).Err(); err != nil {
				c.Logger().Warnf("[cache] store %s: %v", key, err)
			}
			return nil
		}
	}
}

// Invalidate bumps the cache generation after a successful (2xx) write,
// orphaning every stored entry; they expire on their own TTL.
func (rc *ResponseCache) Invalidate() echo.MiddlewareFunc {
	if !rc.enabled() {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			err := next(c)
			if status := c.Response().Status; err == nil && status >= 200 && status < 300 {
				if ierr := rc.rdb.Incr(context.WithoutCancel(c.Request().Context()), rc.genKey()).Err(); ierr != nil {
					c.Logger().Warnf("[cache] invalidate: %v", ierr)
				}
			}
			return err
		}
	}
}
