package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/RoyceAzure/lab/grocery/internal/api/response"
	"github.com/RoyceAzure/lab/grocery/internal/infra/storage"
	"github.com/RoyceAzure/lab/grocery/internal/service"
)

var (
	ErrBadRequestBody = errors.New("request body is not valid json")
	ErrOrderNotFound  = errors.New("order not found")
)

// writeError 把 service 錯誤轉成 http 狀態碼
func writeError(w http.ResponseWriter, err error) {
	var ve *service.ValidationError
	if errors.As(err, &ve) {
		response.ErrorJSONWithData(w, http.StatusBadRequest, err, "validation failed", ve.Fields)
		return
	}

	switch {
	case errors.Is(err, service.ErrInvalidCredentials),
		errors.Is(err, service.ErrNotAuthenticated),
		errors.Is(err, service.ErrInvalidToken):
		response.ErrorJSON(w, http.StatusUnauthorized, err, "unauthenticated")
	case errors.Is(err, service.ErrPermissionDenied):
		response.ErrorJSON(w, http.StatusForbidden, err, "forbidden")
	case errors.Is(err, service.ErrUserNotFound),
		errors.Is(err, service.ErrAddressNotFound),
		errors.Is(err, service.ErrProductNotFound),
		errors.Is(err, service.ErrRewardNotFound),
		errors.Is(err, ErrOrderNotFound):
		response.ErrorJSON(w, http.StatusNotFound, err, "not found")
	case errors.Is(err, service.ErrEmailAlreadyExists),
		errors.Is(err, service.ErrInvalidStatusTransition):
		response.ErrorJSON(w, http.StatusConflict, err, "conflict")
	case errors.Is(err, service.ErrInsufficientPoints),
		errors.Is(err, service.ErrInvalidQuantity),
		errors.Is(err, service.ErrEmptyOrder),
		errors.Is(err, service.ErrEmptyCart),
		errors.Is(err, service.ErrUnknownOrderStatus),
		errors.Is(err, service.ErrUnknownPaymentStatus):
		response.ErrorJSON(w, http.StatusBadRequest, err, "bad request")
	case errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		response.ErrorJSON(w, http.StatusRequestTimeout, err, "request cancelled")
	case errors.Is(err, storage.ErrStorageUnavailable),
		errors.Is(err, service.ErrOrderNumberExhausted):
		response.ErrorJSON(w, http.StatusServiceUnavailable, err, "service unavailable")
	default:
		response.ErrorJSON(w, http.StatusInternalServerError, err, "internal server error")
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		response.ErrorJSON(w, http.StatusBadRequest, ErrBadRequestBody, "bad request")
		return false
	}
	return true
}
