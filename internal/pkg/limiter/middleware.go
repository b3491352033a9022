package limiter

import (
	"errors"
	"net"
	"net/http"

	"github.com/RoyceAzure/lab/grocery/internal/api/response"
)

var ErrRateLimited = errors.New("rate limit exceeded")

// KeyFunc 由 request 決定限流的 key
type KeyFunc func(r *http.Request) string

// KeyByIP 以來源 IP 作為 key
func KeyByIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// NewRateLimitMiddleware chi 限流中間件
func NewRateLimitMiddleware(l ILimiter, keyFunc KeyFunc) func(http.Handler) http.Handler {
	if keyFunc == nil {
		keyFunc = KeyByIP
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !l.Allow(r.Context(), keyFunc(r)) {
				response.ErrorJSON(w, http.StatusTooManyRequests, ErrRateLimited, "too many requests")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
