package middleware

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	rd "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// luaRateLimit is a Redis sliding-window limiter evaluated atomically.
// KEYS[1]=limiter key, ARGV[1]=now, ARGV[2]=window start, ARGV[3]=window
// seconds, ARGV[4]=member, ARGV[5]=limit. Returns -1 when over the limit.
const luaRateLimit = `
local key = KEYS[1]
local now = tonumber(ARGV[1])
local windowStart = tonumber(ARGV[2])
local windowSec = tonumber(ARGV[3])
local member = ARGV[4]

redis.call('ZREMRANGEBYSCORE', key, '0', windowStart)

local count = redis.call('ZCARD', key)

if count < tonumber(ARGV[5]) then
  redis.call('ZADD', key, now, member)
  redis.call('EXPIRE', key, windowSec)
  return count + 1
else
  return -1
end
`

// RateLimit limits order submissions per customer phone (falling back to
// the client IP when the body carries no phone) using a Redis
// sliding-window counter. Redis errors fail open so a limiter outage
// never blocks checkout.
func RateLimit(rdb *rd.Client, limit int, window time.Duration, logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := limiterKey(r)

			now := time.Now().Unix()
			windowSec := int64(window.Seconds())
			windowStart := now - windowSec
			member := fmt.Sprintf("%d-%d", now, time.Now().UnixNano())

			res, err := rdb.Eval(r.Context(), luaRateLimit, []string{key},
				now, windowStart, windowSec, member, limit).Int()
			if err != nil {
				logger.Warn().Err(err).Msg("rate limiter unavailable, allowing request")
				next.ServeHTTP(w, r)
				return
			}

			if res < 0 {
				logger.Warn().Str("key", key).Msg("checkout rate limit exceeded")
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				w.Write([]byte(`{"error": "too many order submissions, please retry later"}`))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// limiterKey keys the limiter by customer phone when the body carries one,
// or by client IP otherwise.
func limiterKey(r *http.Request) string {
	if phone := extractPhone(r); phone != "" {
		return "rate_limit:checkout:phone:" + phone
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	return "rate_limit:checkout:ip:" + host
}

// extractPhone reads customerPhone from the request body without
// consuming it for downstream handlers.
func extractPhone(r *http.Request) string {
	bodyBytes, err := io.ReadAll(r.Body)
	if err != nil {
		return ""
	}

	// Reset body so the handler can still decode it.
	r.Body = io.NopCloser(bytes.NewBuffer(bodyBytes))

	var req struct {
		CustomerPhone string `json:"customerPhone"`
	}
	if err := json.Unmarshal(bodyBytes, &req); err != nil {
		return ""
	}
	return req.CustomerPhone
}
