package middleware

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"

	"github.com/RoyceAzure/lab/grocery/internal/api/response"
	"github.com/RoyceAzure/lab/grocery/internal/constants"
	"github.com/RoyceAzure/lab/grocery/internal/domain/model"
	"github.com/RoyceAzure/lab/grocery/internal/service"
)

var (
	ErrMissingAuthHeader = errors.New("missing authorization header")
	ErrInvalidAuthFormat = errors.New("invalid authorization header format")
	ErrSessionMismatch   = errors.New("token does not match the current session")
)

// bearerToken 優先讀 Authorization header, websocket 連線改用 ?token=
func bearerToken(r *http.Request) (string, error) {
	header := r.Header.Get(string(constants.AuthorizationHeaderKey))
	if header == "" {
		if token := r.URL.Query().Get("token"); token != "" {
			return token, nil
		}
		return "", ErrMissingAuthHeader
	}
	fields := strings.Fields(header)
	if len(fields) != 2 || strings.ToLower(fields[0]) != string(constants.AuthorizationTypeBearer) {
		return "", ErrInvalidAuthFormat
	}
	return fields[1], nil
}

// AuthMiddleware token 必須等於目前 session 的 token
// 通過後把目前使用者放進 ctx
func AuthMiddleware(identity service.IIdentityService) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			token, err := bearerToken(r)
			if err != nil {
				response.ErrorJSON(w, http.StatusUnauthorized, err, "unauthenticated")
				return
			}

			current := identity.GetToken(ctx)
			if current == "" || subtle.ConstantTimeCompare([]byte(current), []byte(token)) != 1 {
				response.ErrorJSON(w, http.StatusUnauthorized, ErrSessionMismatch, "unauthenticated")
				return
			}

			user, ok := identity.GetCurrentUser(ctx)
			if !ok {
				response.ErrorJSON(w, http.StatusUnauthorized, service.ErrNotAuthenticated, "unauthenticated")
				return
			}

			setLogUser(ctx, user.ID)
			ctx = context.WithValue(ctx, constants.AuthorizationPayloadKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// AdminMiddleware 需放在 AuthMiddleware 之後
func AdminMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user := GetCurrentUser(r.Context())
		if user == nil {
			response.ErrorJSON(w, http.StatusUnauthorized, service.ErrNotAuthenticated, "unauthenticated")
			return
		}
		if !user.IsAdmin() {
			response.ErrorJSON(w, http.StatusForbidden, service.ErrPermissionDenied, "forbidden")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func GetCurrentUser(ctx context.Context) *model.User {
	user, _ := ctx.Value(constants.AuthorizationPayloadKey).(*model.User)
	return user
}
