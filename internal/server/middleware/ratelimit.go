package middleware

import (
	"net/http"
	"net/netip"
	"time"

	"go.uber.org/zap"

	"org-access-api/backend/internal/cache"
	"org-access-api/backend/internal/platform/httpx"
)

const loginWindow = time.Minute

// RateLimitLogin allows at most limit login attempts per client IP per minute. The IP is the
// peer address; forwarding headers count only when the peer is in trusted (see PeerIP).
// Counter errors fail open: the request is served and the error logged. A nil counter or
// limit <= 0 disables the limiter.
func RateLimitLogin(counter cache.Counter, limit int, trusted []netip.Prefix) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if counter == nil || limit <= 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := "rl:login:" + PeerIP(r, trusted)
			count, err := counter.IncrWithTTL(r.Context(), key, loginWindow)
			if err != nil {
				zap.L().Warn("ratelimit: counter unavailable", zap.String("key", key), zap.Error(err))
			} else if count > int64(limit) {
				w.Header().Set("Retry-After", "60")
				httpx.Fail(w, http.StatusTooManyRequests, "Too many login attempts")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
