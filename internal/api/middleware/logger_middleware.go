package middleware

import (
	"bufio"
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

type StatusRecoder struct {
	http.ResponseWriter
	status int
}

func (w *StatusRecoder) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

func (w *StatusRecoder) Status() int {
	if w.status == 0 {
		return http.StatusOK
	}
	return w.status
}

// Hijack websocket 升級需要
func (w *StatusRecoder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijack")
	}
	w.status = http.StatusSwitchingProtocols
	return h.Hijack()
}

type logInfoKey struct{}

// logInfo 讓內層 middleware 回填使用者, 外層在請求結束後讀取
type logInfo struct {
	userID string
}

func setLogUser(ctx context.Context, userID string) {
	if info, ok := ctx.Value(logInfoKey{}).(*logInfo); ok {
		info.userID = userID
	}
}

// 記錄 request 請求
func LoggerMiddleware(logger zerolog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			recoder := &StatusRecoder{
				ResponseWriter: w,
			}
			info := &logInfo{userID: "anonymous"}
			next.ServeHTTP(recoder, r.WithContext(context.WithValue(r.Context(), logInfoKey{}, info)))

			status := recoder.Status()
			event := logger.Info()
			if status >= http.StatusInternalServerError {
				event = logger.Error()
			}
			event.
				Str("request_id", GetRequestID(r.Context())).
				Str("user_id", info.userID).
				Str("method", r.Method).
				Str("url", r.URL.String()).
				Int("status", status).
				Dur("duration", time.Since(start)).
				Msg("request completed")
		})
	}
}
