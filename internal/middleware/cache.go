package middleware

import (
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/hex"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
)

// captureWriter captures the response body/status while forwarding to the client.
type captureWriter struct {
	http.ResponseWriter
	status int
	buf    bytes.Buffer
}

func (cw *captureWriter) WriteHeader(code int) {
	cw.status = code
	cw.ResponseWriter.WriteHeader(code)
}

func (cw *captureWriter) Write(b []byte) (int, error) {
	cw.buf.Write(b)
	return cw.ResponseWriter.Write(b)
}

// cacheKey builds a stable key from method, matched route and raw query.
// The hash keeps arbitrary query strings out of the Redis keyspace.
func cacheKey(c echo.Context) string {
	r := c.Request()
	sum := sha1.Sum([]byte(r.Method + "|" + c.Path() + "|" + r.URL.RawQuery))
	return "cache_" + hex.EncodeToString(sum[:])
}

// CacheList returns a middleware that caches successful GET responses in
// Redis for ttl.  Intended for the list endpoints, whose responses do not
// vary by caller once the gate has admitted the request.  When rdb is nil
// or ttl is zero the middleware is a no-op, matching the rule that a
// missing Redis degrades features rather than failing requests; note the
// token blacklist does NOT share this leniency.
func CacheList(rdb *redis.Client, ttl time.Duration) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if rdb == nil || ttl <= 0 || c.Request().Method != http.MethodGet {
				return next(c)
			}
			key := cacheKey(c)

			ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
			defer cancel()

			if body, err := rdb.Get(ctx, key).Bytes(); err == nil {
				return c.JSONBlob(http.StatusOK, body)
			}

			cw := &captureWriter{ResponseWriter: c.Response().Writer, status: http.StatusOK}
			c.Response().Writer = cw
			if err := next(c); err != nil {
				return err
			}
			if cw.status == http.StatusOK {
				// Best effort; a failed SET only costs the next request a
				// database round trip.
				_ = rdb.Set(ctx, key, cw.buf.Bytes(), ttl).Err()
			}
			return nil
		}
	}
}
