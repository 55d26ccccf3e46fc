package middleware

import (
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/binary"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/kavehjm/barberdesk/internal/config"
)

// bodyCapture tees the response body into a buffer, up to a cap, while
// streaming it to the client.
type bodyCapture struct {
	http.ResponseWriter
	status int
	buf    bytes.Buffer
	seen   int64
	limit  int64
}

func (w *bodyCapture) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *bodyCapture) Write(b []byte) (int, error) {
	if remain := w.limit - w.seen; remain > 0 {
		if int64(len(b)) <= remain {
			w.buf.Write(b)
		} else {
			w.buf.Write(b[:remain])
		}
	}
	w.seen += int64(len(b))
	return w.ResponseWriter.Write(b)
}

// overflowed reports whether the body outgrew the cap; such responses
// are never cached, a truncated payload must not be served.
func (w *bodyCapture) overflowed() bool { return w.seen > w.limit }

// CatalogCache caches public catalog responses in Redis. Applied only
// to the anonymous shopfront routes; everything behind the policy layer
// bypasses it. The key is scoped by tenant, the same path serves a
// different catalog per shop.
func CatalogCache(cfg config.CacheConfig, rdb *redis.Client) echo.MiddlewareFunc {
	if !cfg.Enabled || rdb == nil {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = 30 * time.Second
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !cfg.Methods[c.Request().Method] {
				return next(c)
			}
			key := catalogKey(cfg.Prefix, TenantID(c), c)

			if raw, err := rdb.Get(c.Request().Context(), key).Bytes(); err == nil {
				if status, body, ok := decodeCached(raw); ok {
					h := c.Response().Header()
					h.Set(echo.HeaderContentType, echo.MIMEApplicationJSONCharsetUTF8)
					h.Set("X-Cache", "HIT")
					c.Response().WriteHeader(status)
					_, _ = c.Response().Write(body)
					return nil
				}
			}

			cw := &bodyCapture{
				ResponseWriter: c.Response().Writer,
				status:         http.StatusOK,
				limit:          int64(cfg.MaxBodyBytes),
			}
			c.Response().Writer = cw
			c.Response().Header().Set("X-Cache", "MISS")

			if err := next(c); err != nil {
				return err
			}
			if cw.status == http.StatusOK && !cw.overflowed() {
				// Detached context: the client already has its answer,
				// a slow Redis write must not hold the request open.
				ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
				defer cancel()
				_ = rdb.SetEx(ctx, key, encodeCached(cw.status, cw.buf.Bytes()), ttl).Err()
			}
			return nil
		}
	}
}

func catalogKey(prefix string, tenantID uint64, c echo.Context) string {
	r := c.Request()
	sum := sha1.Sum([]byte(r.URL.Path + "?" + r.URL.RawQuery))
	return fmt.Sprintf("%s:%s:%x", prefix, strconv.FormatUint(tenantID, 10), sum)
}

// Cached payloads are [4-byte status][body]; only JSON bodies from our
// own handlers land here, so headers need not be preserved.
func encodeCached(status int, body []byte) []byte {
	out := make([]byte, 4+len(body))
	binary.BigEndian.PutUint32(out[:4], uint32(status))
	copy(out[4:], body)
	return out
}

func decodeCached(raw []byte) (status int, body []byte, ok bool) {
	if len(raw) < 4 {
		return 0, nil, false
	}
	return int(binary.BigEndian.Uint32(raw[:4])), raw[4:], true
}
